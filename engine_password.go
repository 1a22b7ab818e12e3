package sqlauth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/MrEthical07/sqlauth/internal"
	"github.com/MrEthical07/sqlauth/internal/store"
)

const (
	resetSelectorLength = 20
	resetTokenLength    = 20
	// ResetDefaultLifetime is how long a password reset request stays
	// redeemable unless the caller chooses otherwise.
	ResetDefaultLifetime = 6 * time.Hour
	// ResetDefaultMaxOpenRequests caps the number of unexpired reset
	// requests a single account may accumulate.
	ResetDefaultMaxOpenRequests = 2
)

// ResetCallback receives the selector and the plain token of a newly created
// password reset request for delivery to the user. Only the token's hash is
// stored.
type ResetCallback func(selector, token string)

// ForgotPasswordOptions defines a public type used by sqlauth APIs.
//
// ForgotPasswordOptions instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ForgotPasswordOptions struct {
	// RequestExpiresAfter is the lifetime of the new reset request; zero
	// selects [ResetDefaultLifetime].
	RequestExpiresAfter time.Duration
	// MaxOpenRequests caps the open requests per account; zero selects
	// [ResetDefaultMaxOpenRequests].
	MaxOpenRequests int
}

// ForgotPassword describes the forgotpassword operation and its observable behavior.
//
// It opens a password reset request for the account behind the email address
// and hands the fresh selector/token pair to the callback. The account must
// be verified and must not have resets disabled.
func (e *Engine) ForgotPassword(ctx context.Context, email string, cb ResetCallback) error {
	return e.ForgotPasswordWithOptions(ctx, email, cb, ForgotPasswordOptions{})
}

// ForgotPasswordWithOptions describes the forgotpasswordwithoptions operation and its observable behavior.
func (e *Engine) ForgotPasswordWithOptions(ctx context.Context, email string, cb ResetCallback, opt ForgotPasswordOptions) error {
	if cb == nil {
		return ErrMissingCallback
	}
	if opt.RequestExpiresAfter <= 0 {
		opt.RequestExpiresAfter = ResetDefaultLifetime
	}
	if opt.MaxOpenRequests <= 0 {
		opt.MaxOpenRequests = ResetDefaultMaxOpenRequests
	}

	email, err := validateEmail(email)
	if err != nil {
		return err
	}
	if _, err := e.Throttle(ctx, []string{"enumerateUsers", e.clientIP}, 1, time.Hour, &ThrottleOptions{Burstiness: 75}); err != nil {
		return err
	}
	u, err := e.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !u.Verified {
		return ErrEmailNotVerified
	}
	if !u.Resettable {
		return ErrResetDisabled
	}

	if e.limiter.Enabled() {
		open, err := e.store.CountOpenResets(ctx, u.ID, e.now().Unix())
		if err != nil {
			return wrapDB(err)
		}
		if int(open) >= opt.MaxOpenRequests {
			return &RateLimitError{
				WaitSeconds:     int(opt.RequestExpiresAfter / time.Second),
				UserID:          u.ID,
				OpenRequests:    int(open),
				MaxOpenRequests: opt.MaxOpenRequests,
			}
		}
	}

	if _, err := e.Throttle(ctx, []string{"requestPasswordReset", e.clientIP}, 4, 7*24*time.Hour, &ThrottleOptions{Burstiness: 2}); err != nil {
		return err
	}
	if _, err := e.Throttle(ctx, []string{"requestPasswordReset", "user", strconv.Itoa(u.ID)}, 4, 7*24*time.Hour, &ThrottleOptions{Burstiness: 2}); err != nil {
		return err
	}

	return e.createPasswordResetRequest(ctx, u.ID, opt.RequestExpiresAfter, cb)
}

func (e *Engine) createPasswordResetRequest(ctx context.Context, userID int, lifetime time.Duration, cb ResetCallback) error {
	selector, err := internal.CreateRandomString(resetSelectorLength)
	if err != nil {
		return err
	}
	token, err := internal.CreateRandomString(resetTokenLength)
	if err != nil {
		return err
	}
	tokenHash, err := e.hasher.Hash(token)
	if err != nil {
		return err
	}

	err = e.store.CreateReset(ctx, &store.PasswordResetRequest{
		User:     userID,
		Selector: selector,
		Token:    tokenHash,
		Expires:  e.now().Add(lifetime).Unix(),
	})
	if err != nil {
		return wrapDB(err)
	}

	cb(selector, token)
	return nil
}

// ResetPassword describes the resetpassword operation and its observable behavior.
//
// It redeems a selector/token pair from a password reset request and sets the
// new password. On success all other devices are signed out and the redeemed
// request is deleted; the affected user's id and email address are returned.
func (e *Engine) ResetPassword(ctx context.Context, selector, token, newPassword string) (int, string, error) {
	if _, err := e.Throttle(ctx, []string{"resetPassword", e.clientIP}, 5, time.Hour, &ThrottleOptions{Burstiness: 10}); err != nil {
		return 0, "", err
	}
	if _, err := e.Throttle(ctx, []string{"resetPassword", "selector", selector}, 3, time.Hour, &ThrottleOptions{Burstiness: 10}); err != nil {
		return 0, "", err
	}
	if _, err := e.Throttle(ctx, []string{"resetPassword", "token", token}, 3, time.Hour, &ThrottleOptions{Burstiness: 10}); err != nil {
		return 0, "", err
	}

	reset, u, err := e.resolveReset(ctx, selector, token)
	if err != nil {
		return 0, "", err
	}

	if err := e.updatePasswordHash(ctx, u.ID, newPassword); err != nil {
		return 0, "", err
	}
	if err := e.deleteRememberDirectives(ctx, u.ID, ""); err != nil {
		return 0, "", err
	}
	if err := e.forceLogoutForUser(ctx, u.ID); err != nil {
		return 0, "", err
	}
	if err := e.store.DeleteResetByID(ctx, reset.ID); err != nil {
		return 0, "", wrapDB(err)
	}

	e.logger.Info("password reset", "user_id", u.ID)
	return u.ID, u.Email, nil
}

// ResetPasswordAndSignIn describes the resetpasswordandsignin operation and its observable behavior.
//
// It behaves like [Engine.ResetPassword] and additionally signs the user in
// on success, honoring the login options. A session that is already
// authenticated is left untouched; the sign-in only happens for anonymous
// callers.
func (e *Engine) ResetPasswordAndSignIn(ctx context.Context, selector, token, newPassword string, opt LoginOptions) (int, string, error) {
	userID, email, err := e.ResetPassword(ctx, selector, token, newPassword)
	if err != nil {
		return 0, "", err
	}

	d, err := e.loadSession(ctx)
	if err != nil {
		return 0, "", err
	}
	if d.LoggedIn {
		return userID, email, nil
	}

	u, err := e.userByID(ctx, userID)
	if err != nil {
		return 0, "", err
	}
	if !u.Verified {
		return userID, email, ErrEmailNotVerified
	}
	if err := e.onLoginSuccessful(ctx, u, true); err != nil {
		return 0, "", err
	}
	if err := e.applyRemember(ctx, u.ID, opt.RememberFor); err != nil {
		return 0, "", err
	}
	return userID, email, nil
}

// CanResetPasswordOrErr describes the canresetpasswordorerr operation and its observable behavior.
//
// It checks whether the selector/token pair could be redeemed right now,
// without consuming anything: throttle buckets are consulted in simulated
// mode and no state changes.
func (e *Engine) CanResetPasswordOrErr(ctx context.Context, selector, token string) error {
	if _, err := e.Throttle(ctx, []string{"resetPassword", e.clientIP}, 5, time.Hour, &ThrottleOptions{Burstiness: 10, Simulated: true}); err != nil {
		return err
	}
	if _, err := e.Throttle(ctx, []string{"resetPassword", "selector", selector}, 3, time.Hour, &ThrottleOptions{Burstiness: 10, Simulated: true}); err != nil {
		return err
	}
	if _, err := e.Throttle(ctx, []string{"resetPassword", "token", token}, 3, time.Hour, &ThrottleOptions{Burstiness: 10, Simulated: true}); err != nil {
		return err
	}

	_, _, err := e.resolveReset(ctx, selector, token)
	return err
}

// CanResetPassword describes the canresetpassword operation and its observable behavior.
func (e *Engine) CanResetPassword(ctx context.Context, selector, token string) bool {
	return e.CanResetPasswordOrErr(ctx, selector, token) == nil
}

// resolveReset looks up and validates a reset request. Checks run in a fixed
// order: existence, account resettable, token match, expiry.
func (e *Engine) resolveReset(ctx context.Context, selector, token string) (*store.PasswordResetRequest, *store.User, error) {
	reset, u, err := e.store.ResetBySelector(ctx, selector)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrInvalidSelectorTokenPair
		}
		return nil, nil, wrapDB(err)
	}

	if !u.Resettable {
		return nil, nil, ErrResetDisabled
	}
	ok, err := e.hasher.Verify(token, reset.Token)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrInvalidSelectorTokenPair
	}
	if reset.Expires < e.now().Unix() {
		return nil, nil, ErrTokenExpired
	}
	return reset, u, nil
}

// ChangePassword describes the changepassword operation and its observable behavior.
//
// It verifies the logged-in user's current password and replaces it with the
// new one. Like [Engine.ChangePasswordWithoutOldPassword] it signs the user
// out everywhere else.
func (e *Engine) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	ok, err := e.ReconfirmPassword(ctx, oldPassword)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidPassword
	}
	return e.ChangePasswordWithoutOldPassword(ctx, newPassword)
}

// ChangePasswordWithoutOldPassword describes the changepasswordwithoutoldpassword operation and its observable behavior.
//
// It replaces the logged-in user's password without checking the old one,
// then signs the user out on every other device.
func (e *Engine) ChangePasswordWithoutOldPassword(ctx context.Context, newPassword string) error {
	d, err := e.loadSession(ctx)
	if err != nil {
		return err
	}
	if !d.LoggedIn {
		return ErrNotLoggedIn
	}

	if err := e.updatePasswordHash(ctx, d.UserID, newPassword); err != nil {
		return err
	}

	// log out every other device; the session may have been terminated
	// concurrently, which is not a failure of the password change
	if err := e.LogOutEverywhereElse(ctx); err != nil && !errors.Is(err, ErrNotLoggedIn) {
		return err
	}
	return nil
}

// SetPasswordResetEnabled describes the setpasswordresetenabled operation and its observable behavior.
//
// It toggles whether the logged-in user's account accepts password reset
// requests.
func (e *Engine) SetPasswordResetEnabled(ctx context.Context, enabled bool) error {
	d, err := e.loadSession(ctx)
	if err != nil {
		return err
	}
	if !d.LoggedIn {
		return ErrNotLoggedIn
	}

	affected, err := e.store.SetResettable(ctx, d.UserID, enabled)
	if err != nil {
		return wrapDB(err)
	}
	if affected == 0 {
		return ErrUnknownID
	}
	return nil
}

// IsPasswordResetEnabled describes the ispasswordresetenabled operation and its observable behavior.
func (e *Engine) IsPasswordResetEnabled(ctx context.Context) (bool, error) {
	d, err := e.loadSession(ctx)
	if err != nil {
		return false, err
	}
	if !d.LoggedIn {
		return false, ErrNotLoggedIn
	}

	u, err := e.userByID(ctx, d.UserID)
	if err != nil {
		return false, err
	}
	return u.Resettable, nil
}
