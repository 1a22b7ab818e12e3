package sqlauth

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/MrEthical07/sqlauth/cookie"
	"github.com/MrEthical07/sqlauth/internal/store"
	"github.com/MrEthical07/sqlauth/internal/throttle"
	"github.com/MrEthical07/sqlauth/password"
	"github.com/MrEthical07/sqlauth/session"
)

// Builder defines a public type used by sqlauth APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	cfg      Config
	cfgSet   bool
	db       *gorm.DB
	sessions session.Store
	cookies  cookie.Jar
	clientIP string
	logger   *slog.Logger
	now      func() time.Time
}

// New describes the new operation and its observable behavior.
func New() *Builder {
	return &Builder{}
}

// WithConfig describes the withconfig operation and its observable behavior.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	b.cfgSet = true
	return b
}

// WithDB describes the withdb operation and its observable behavior.
func (b *Builder) WithDB(db *gorm.DB) *Builder {
	b.db = db
	return b
}

// WithSessionStore describes the withsessionstore operation and its observable behavior.
func (b *Builder) WithSessionStore(s session.Store) *Builder {
	b.sessions = s
	return b
}

// WithCookieJar describes the withcookiejar operation and its observable behavior.
func (b *Builder) WithCookieJar(j cookie.Jar) *Builder {
	b.cookies = j
	return b
}

// WithClientIP describes the withclientip operation and its observable behavior.
//
// The address is used as a throttling criterion only and is never validated
// or resolved.
func (b *Builder) WithClientIP(ip string) *Builder {
	b.clientIP = ip
	return b
}

// WithLogger describes the withlogger operation and its observable behavior.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithClock describes the withclock operation and its observable behavior.
//
// Intended for tests; production code should rely on the default clock.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithThrottling describes the withthrottling operation and its observable behavior.
func (b *Builder) WithThrottling(enabled bool) *Builder {
	b.cfg.Throttle.Disabled = !enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
func (b *Builder) Build() (*Engine, error) {
	cfg := b.cfg
	if !b.cfgSet {
		cfg = defaultConfig()
		cfg.Throttle = b.cfg.Throttle
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.db == nil {
		return nil, errors.New("database handle is required")
	}
	if b.sessions == nil {
		b.sessions = session.NewMemoryStore()
	}
	if b.cookies == nil {
		b.cookies = cookie.NewMemoryJar()
	}
	if b.logger == nil {
		b.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	hasher, err := password.NewHasher(cfg.Password.Cost)
	if err != nil {
		return nil, err
	}

	rememberName := cfg.Remember.CookieName
	if rememberName == "" {
		rememberName = cookie.CreateRememberName(cfg.Session.Name)
	}

	m := &userManager{
		store:  store.New(b.db),
		hasher: hasher,
		logger: b.logger,
		now:    now,
	}

	return &Engine{
		userManager:        m,
		cfg:                cfg,
		sessions:           b.sessions,
		cookies:            b.cookies,
		clientIP:           b.clientIP,
		limiter:            throttle.New(b.db, !cfg.Throttle.Disabled, now, b.logger),
		rememberCookieName: rememberName,
	}, nil
}
