package sqlauth

import (
	"context"
	"time"

	"github.com/MrEthical07/sqlauth/internal/store"
)

// LoginOptions defines a public type used by sqlauth APIs.
//
// LoginOptions instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LoginOptions struct {
	// RememberFor keeps the login across sessions for the given duration by
	// issuing a remember directive and cookie. Zero disables the feature;
	// [UseConfiguredRememberDuration] selects the configured default and
	// [RememberDefault] the standard 28 days.
	RememberFor time.Duration
	// OnBeforeSuccess is consulted after the credentials have been verified
	// but before any session state changes. Returning false cancels the
	// attempt with ErrAttemptCancelled.
	OnBeforeSuccess func(userID int) bool
}

// Login describes the login operation and its observable behavior.
//
// It signs the user in with email address and password, without remembering
// the login across sessions.
func (e *Engine) Login(ctx context.Context, email, pw string) error {
	return e.LoginWithOptions(ctx, email, pw, LoginOptions{})
}

// LoginWithOptions describes the loginwithoptions operation and its observable behavior.
func (e *Engine) LoginWithOptions(ctx context.Context, email, pw string, opt LoginOptions) error {
	email, err := validateEmail(email)
	if err != nil {
		return err
	}
	return e.authenticate(ctx, "email", email, pw, opt, func() (*store.User, error) {
		return e.userByEmail(ctx, email)
	})
}

// LoginWithUsername describes the loginwithusername operation and its observable behavior.
//
// Exactly one account must carry the username; zero matches yield
// ErrUnknownUsername and several matches ErrAmbiguousUsername.
func (e *Engine) LoginWithUsername(ctx context.Context, username, pw string) error {
	return e.LoginWithUsernameAndOptions(ctx, username, pw, LoginOptions{})
}

// LoginWithUsernameAndOptions describes the loginwithusernameandoptions operation and its observable behavior.
func (e *Engine) LoginWithUsernameAndOptions(ctx context.Context, username, pw string, opt LoginOptions) error {
	return e.authenticate(ctx, "username", username, pw, opt, func() (*store.User, error) {
		return e.userByUsername(ctx, username)
	})
}

// authenticate runs the shared credential check. The throttling choreography
// is deliberate: the per-destination and per-address buckets are consulted in
// simulated mode up front so an attacker cannot distinguish existing from
// non-existing accounts by side effects, and are only drained for real once
// the attempt has actually failed, on a wrong password or a callback veto.
func (e *Engine) authenticate(ctx context.Context, kind, destination, pw string, opt LoginOptions, lookup func() (*store.User, error)) error {
	if destination == "" {
		return ErrEmailOrUsernameRequired
	}
	if _, err := e.Throttle(ctx, []string{"enumerateUsers", e.clientIP}, 1, time.Hour, &ThrottleOptions{Burstiness: 75}); err != nil {
		return err
	}
	if _, err := e.Throttle(ctx, []string{"attemptToLogin", kind, destination}, 500, 24*time.Hour, &ThrottleOptions{Simulated: true}); err != nil {
		return err
	}
	if _, err := e.Throttle(ctx, []string{"attemptToLogin", e.clientIP}, 4, time.Hour, &ThrottleOptions{Burstiness: 5, Simulated: true}); err != nil {
		return err
	}

	pw, err := validatePassword(pw)
	if err != nil {
		return err
	}

	u, err := lookup()
	if err != nil {
		return err
	}

	ok, err := e.hasher.Verify(pw, u.Password)
	if err != nil {
		return err
	}
	if !ok {
		if err := e.drainLoginThrottles(ctx, kind, destination); err != nil {
			return err
		}
		e.logger.Info("login rejected", "user_id", u.ID, "reason", "password mismatch")
		return ErrInvalidPassword
	}

	if rehash, _ := e.hasher.NeedsRehash(u.Password); rehash {
		if err := e.updatePasswordHash(ctx, u.ID, pw); err != nil {
			return err
		}
	}

	if !u.Verified {
		return ErrEmailNotVerified
	}

	if opt.OnBeforeSuccess != nil && !opt.OnBeforeSuccess(u.ID) {
		if err := e.drainLoginThrottles(ctx, kind, destination); err != nil {
			return err
		}
		return ErrAttemptCancelled
	}

	if err := e.onLoginSuccessful(ctx, u, false); err != nil {
		return err
	}

	return e.applyRemember(ctx, u.ID, opt.RememberFor)
}

// drainLoginThrottles commits the consumption that the simulated upfront
// consultations merely previewed. Called after a wrong password or a vetoed
// attempt so that failed tries count against both buckets.
func (e *Engine) drainLoginThrottles(ctx context.Context, kind, destination string) error {
	if _, err := e.Throttle(ctx, []string{"attemptToLogin", e.clientIP}, 4, time.Hour, &ThrottleOptions{Burstiness: 5}); err != nil {
		return err
	}
	_, err := e.Throttle(ctx, []string{"attemptToLogin", kind, destination}, 500, 24*time.Hour, nil)
	return err
}

// ReconfirmPassword describes the reconfirmpassword operation and its observable behavior.
//
// It re-verifies the logged-in user's password, e.g. before a sensitive
// change, and reports whether it was correct. A syntactically invalid
// password counts as incorrect rather than an error.
func (e *Engine) ReconfirmPassword(ctx context.Context, pw string) (bool, error) {
	d, err := e.loadSession(ctx)
	if err != nil {
		return false, err
	}
	if !d.LoggedIn {
		return false, ErrNotLoggedIn
	}

	pw, err = validatePassword(pw)
	if err != nil {
		return false, nil
	}

	if _, err := e.Throttle(ctx, []string{"reconfirmPassword", e.clientIP}, 3, time.Hour, &ThrottleOptions{Burstiness: 4, Simulated: true}); err != nil {
		return false, err
	}

	u, err := e.userByID(ctx, d.UserID)
	if err != nil {
		return false, err
	}

	ok, err := e.hasher.Verify(pw, u.Password)
	if err != nil {
		return false, err
	}
	if !ok {
		if _, err := e.Throttle(ctx, []string{"reconfirmPassword", e.clientIP}, 3, time.Hour, &ThrottleOptions{Burstiness: 4}); err != nil {
			return false, err
		}
	}
	return ok, nil
}
