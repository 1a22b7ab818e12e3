package sqlauth

import (
	"errors"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/MrEthical07/sqlauth/cookie"
)

// Duration is a time.Duration that additionally unmarshals from YAML
// strings such as "5m" or "24h". Bare integers are read as seconds.
type Duration time.Duration

// Std describes the std operation and its observable behavior.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML describes the unmarshalyaml operation and its observable behavior.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return err
	}
	*d = Duration(time.Duration(n) * time.Second)
	return nil
}

// Config defines a public type used by sqlauth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Session  SessionConfig  `yaml:"session"`
	Password PasswordConfig `yaml:"password"`
	Remember RememberConfig `yaml:"remember"`
	Throttle ThrottleConfig `yaml:"throttle"`
}

// SessionConfig defines a public type used by sqlauth APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	// Name is the session cookie name; it also seeds the derived remember
	// cookie name. Recognized "__Secure-"/"__Host-" prefixes propagate.
	Name string `yaml:"name"`
	// ResyncInterval is the minimum elapsed time before a session's cached
	// copy of user data is refreshed from the authoritative store.
	ResyncInterval Duration `yaml:"resync_interval"`

	CookiePath     string          `yaml:"cookie_path"`
	CookieDomain   string          `yaml:"cookie_domain"`
	CookieHTTPOnly bool            `yaml:"cookie_http_only"`
	CookieSecure   bool            `yaml:"cookie_secure"`
	CookieSameSite cookie.SameSite `yaml:"cookie_same_site"`
}

// PasswordConfig defines a public type used by sqlauth APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	// Cost is the bcrypt cost factor; zero selects the bcrypt default.
	Cost int `yaml:"cost"`
}

// RememberConfig defines a public type used by sqlauth APIs.
//
// RememberConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RememberConfig struct {
	// DefaultDuration is the lifetime used when a caller opts into the
	// remember feature without an explicit duration.
	DefaultDuration Duration `yaml:"default_duration"`
	// CookieName overrides the derived remember cookie name when non-empty.
	CookieName string `yaml:"cookie_name"`
}

// ThrottleConfig defines a public type used by sqlauth APIs.
//
// ThrottleConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ThrottleConfig struct {
	// Disabled switches rate limiting off globally; individual calls may
	// still force a consultation.
	Disabled bool `yaml:"disabled"`
}

// RememberDefault is the remember-me lifetime applied when no explicit
// duration is given.
const RememberDefault = 28 * 24 * time.Hour

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			Name:           "session",
			ResyncInterval: Duration(5 * time.Minute),
			CookiePath:     "/",
			CookieHTTPOnly: true,
			CookieSameSite: cookie.SameSiteLax,
		},
		Remember: RememberConfig{
			DefaultDuration: Duration(RememberDefault),
		},
	}
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
func (c Config) Validate() error {
	if c.Session.Name == "" {
		return errors.New("session name must not be empty")
	}
	if c.Session.ResyncInterval <= 0 {
		return errors.New("session resync interval must be positive")
	}
	if c.Password.Cost != 0 && (c.Password.Cost < bcrypt.MinCost || c.Password.Cost > bcrypt.MaxCost) {
		return errors.New("password cost out of range")
	}
	if c.Remember.DefaultDuration <= 0 {
		return errors.New("remember default duration must be positive")
	}
	return nil
}

// LoadConfigFile reads a YAML configuration file over the defaults. Missing
// keys keep their default values.
func LoadConfigFile(path string) (Config, error) {
	cfg := defaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}
