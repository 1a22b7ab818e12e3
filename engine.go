package sqlauth

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/sqlauth/cookie"
	"github.com/MrEthical07/sqlauth/internal/store"
	"github.com/MrEthical07/sqlauth/internal/throttle"
	"github.com/MrEthical07/sqlauth/session"
)

// Engine defines a public type used by sqlauth APIs.
//
// An Engine is bound to one request context: its session store, cookie jar
// and client IP describe the caller being served. Construct one per request
// through [Builder] and share the *gorm.DB handle between them.
type Engine struct {
	*userManager

	cfg                Config
	sessions           session.Store
	cookies            cookie.Jar
	clientIP           string
	limiter            *throttle.Limiter
	rememberCookieName string
}

// ThrottleOptions tunes a single [Engine.Throttle] consultation.
type ThrottleOptions struct {
	// Burstiness is the permitted degree of unevenness during peaks (>= 1).
	Burstiness int
	// Simulated requests a dry run that consumes nothing.
	Simulated bool
	// Cost is the number of units to request (>= 1).
	Cost int
	// Force applies throttling for this call even when it is globally
	// disabled.
	Force bool
}

// Initialize describes the initialize operation and its observable behavior.
//
// It re-establishes a remembered login from the remember cookie when the
// session is anonymous, then refreshes stale cached session state from the
// database. Call it once per request before any accessor.
func (e *Engine) Initialize(ctx context.Context) error {
	if err := e.processRememberDirective(ctx); err != nil {
		return err
	}
	return e.resyncSessionIfNecessary(ctx)
}

// RememberCookieName returns the name of the cookie that carries the
// remember directive for this engine's configuration.
func (e *Engine) RememberCookieName() string { return e.rememberCookieName }

func (e *Engine) loadSession(ctx context.Context) (session.Data, error) {
	d, err := e.sessions.Load(ctx)
	if err != nil {
		return session.Data{}, err
	}
	return d, nil
}

// IsLoggedIn describes the isloggedin operation and its observable behavior.
func (e *Engine) IsLoggedIn(ctx context.Context) bool {
	d, err := e.loadSession(ctx)
	return err == nil && d.LoggedIn
}

// UserID describes the userid operation and its observable behavior.
//
// UserID may return an error when input validation, dependency calls, or security checks fail.
func (e *Engine) UserID(ctx context.Context) (int, error) {
	d, err := e.loadSession(ctx)
	if err != nil {
		return 0, err
	}
	if !d.LoggedIn {
		return 0, ErrNotLoggedIn
	}
	return d.UserID, nil
}

// Email describes the email operation and its observable behavior.
//
// Email may return an error when input validation, dependency calls, or security checks fail.
func (e *Engine) Email(ctx context.Context) (string, error) {
	d, err := e.loadSession(ctx)
	if err != nil {
		return "", err
	}
	if !d.LoggedIn {
		return "", ErrNotLoggedIn
	}
	return d.Email, nil
}

// Username describes the username operation and its observable behavior.
//
// Username may return an error when input validation, dependency calls, or security checks fail.
func (e *Engine) Username(ctx context.Context) (string, error) {
	d, err := e.loadSession(ctx)
	if err != nil {
		return "", err
	}
	if !d.LoggedIn {
		return "", ErrNotLoggedIn
	}
	return d.Username, nil
}

// Status describes the status operation and its observable behavior.
//
// Status may return an error when input validation, dependency calls, or security checks fail.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	d, err := e.loadSession(ctx)
	if err != nil {
		return 0, err
	}
	if !d.LoggedIn {
		return 0, ErrNotLoggedIn
	}
	return Status(d.Status), nil
}

// IsRemembered reports whether the current login was re-established from a
// remember cookie rather than from explicit credentials.
func (e *Engine) IsRemembered(ctx context.Context) (bool, error) {
	d, err := e.loadSession(ctx)
	if err != nil {
		return false, err
	}
	if !d.LoggedIn {
		return false, ErrNotLoggedIn
	}
	return d.Remembered, nil
}

// HasRole describes the hasrole operation and its observable behavior.
func (e *Engine) HasRole(ctx context.Context, role Roles) bool {
	d, err := e.loadSession(ctx)
	return err == nil && d.LoggedIn && Roles(d.Roles).Has(role)
}

// HasAnyRole describes the hasanyrole operation and its observable behavior.
func (e *Engine) HasAnyRole(ctx context.Context, roles ...Roles) bool {
	d, err := e.loadSession(ctx)
	return err == nil && d.LoggedIn && Roles(d.Roles).HasAny(roles...)
}

// HasAllRoles describes the hasallroles operation and its observable behavior.
func (e *Engine) HasAllRoles(ctx context.Context, roles ...Roles) bool {
	d, err := e.loadSession(ctx)
	return err == nil && d.LoggedIn && Roles(d.Roles).HasAll(roles...)
}

// GetRoles returns the role bitmask of the logged-in user.
func (e *Engine) GetRoles(ctx context.Context) (Roles, error) {
	d, err := e.loadSession(ctx)
	if err != nil {
		return 0, err
	}
	if !d.LoggedIn {
		return 0, ErrNotLoggedIn
	}
	return Roles(d.Roles), nil
}

// IsNormal describes the isnormal operation and its observable behavior.
func (e *Engine) IsNormal(ctx context.Context) bool { return e.hasStatus(ctx, StatusNormal) }

// IsArchived describes the isarchived operation and its observable behavior.
func (e *Engine) IsArchived(ctx context.Context) bool { return e.hasStatus(ctx, StatusArchived) }

// IsBanned describes the isbanned operation and its observable behavior.
func (e *Engine) IsBanned(ctx context.Context) bool { return e.hasStatus(ctx, StatusBanned) }

// IsLocked describes the islocked operation and its observable behavior.
func (e *Engine) IsLocked(ctx context.Context) bool { return e.hasStatus(ctx, StatusLocked) }

// IsPendingReview describes the ispendingreview operation and its observable behavior.
func (e *Engine) IsPendingReview(ctx context.Context) bool {
	return e.hasStatus(ctx, StatusPendingReview)
}

// IsSuspended describes the issuspended operation and its observable behavior.
func (e *Engine) IsSuspended(ctx context.Context) bool { return e.hasStatus(ctx, StatusSuspended) }

func (e *Engine) hasStatus(ctx context.Context, want Status) bool {
	d, err := e.loadSession(ctx)
	return err == nil && d.LoggedIn && Status(d.Status) == want
}

// onLoginSuccessful populates the session for the given account. The session
// identifier is regenerated first so a pre-login identifier can never be
// fixed onto an authenticated session.
func (e *Engine) onLoginSuccessful(ctx context.Context, u *store.User, remembered bool) error {
	if err := e.sessions.RegenerateID(ctx); err != nil {
		return err
	}

	now := e.now()
	if err := e.sessions.Save(ctx, session.Data{
		LoggedIn:    true,
		UserID:      u.ID,
		Email:       u.Email,
		Username:    u.Username,
		Status:      u.Status,
		Roles:       u.RolesMask,
		ForceLogout: u.ForceLogout,
		Remembered:  remembered,
		LastResync:  now.Unix(),
	}); err != nil {
		return err
	}

	if err := e.store.TouchLastLogin(ctx, u.ID, now.Unix()); err != nil {
		return wrapDB(err)
	}

	e.logger.Info("login successful", "user_id", u.ID, "remembered", remembered)
	return nil
}

// resyncSessionIfNecessary refreshes the cached session copy of the user row
// once the resync interval has elapsed. A missing account or an advanced
// force-logout counter terminates the session.
func (e *Engine) resyncSessionIfNecessary(ctx context.Context) error {
	d, err := e.loadSession(ctx)
	if err != nil {
		return err
	}
	if !d.LoggedIn {
		return nil
	}

	now := e.now()
	if now.Unix()-d.LastResync < int64(e.cfg.Session.ResyncInterval.Std()/time.Second) {
		return nil
	}

	u, err := e.store.UserByID(ctx, d.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return e.sessions.Clear(ctx)
		}
		return wrapDB(err)
	}

	if u.ForceLogout > d.ForceLogout {
		e.logger.Info("session invalidated by force logout", "user_id", d.UserID)
		return e.sessions.Clear(ctx)
	}

	d.Email = u.Email
	d.Username = u.Username
	d.Status = u.Status
	d.Roles = u.RolesMask
	d.LastResync = now.Unix()
	return e.sessions.Save(ctx, d)
}

// Throttle performs one token-bucket consultation for the given criteria
// tuple: supply units are provided per interval. On rejection it returns a
// *RateLimitError carrying the estimated waiting time.
func (e *Engine) Throttle(ctx context.Context, criteria []string, supply int, interval time.Duration, opt *ThrottleOptions) (float64, error) {
	var o throttle.Options
	if opt != nil {
		o = throttle.Options{
			Burstiness: opt.Burstiness,
			Simulated:  opt.Simulated,
			Cost:       opt.Cost,
			Force:      opt.Force,
		}
	}

	remaining, err := e.limiter.Throttle(ctx, criteria, supply, int(interval/time.Second), o)
	if err != nil {
		var limited *throttle.LimitExceededError
		if errors.As(err, &limited) {
			return remaining, &RateLimitError{
				WaitSeconds: limited.WaitSeconds,
				BucketKey:   limited.Key,
				Criteria:    limited.Criteria,
			}
		}
		return remaining, wrapDB(err)
	}
	return remaining, nil
}
