package sqlauth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/MrEthical07/sqlauth/internal/store"
)

// ConfirmEmail describes the confirmemail operation and its observable behavior.
//
// It redeems a selector/token pair from a confirmation request. On success it
// returns the previous and the now-confirmed email address; the previous
// address is empty when the request verified the account's existing address
// rather than changing it. All password resets open for the account are
// invalidated in the same transaction.
func (e *Engine) ConfirmEmail(ctx context.Context, selector, token string) (oldEmail, newEmail string, err error) {
	if _, err := e.Throttle(ctx, []string{"confirmEmail", e.clientIP}, 5, time.Hour, &ThrottleOptions{Burstiness: 10}); err != nil {
		return "", "", err
	}
	if _, err := e.Throttle(ctx, []string{"confirmEmail", "selector", selector}, 3, time.Hour, &ThrottleOptions{Burstiness: 10}); err != nil {
		return "", "", err
	}
	if _, err := e.Throttle(ctx, []string{"confirmEmail", "token", token}, 3, time.Hour, &ThrottleOptions{Burstiness: 10}); err != nil {
		return "", "", err
	}

	confirmation, u, err := e.store.ConfirmationBySelector(ctx, selector)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", "", ErrInvalidSelectorTokenPair
		}
		return "", "", wrapDB(err)
	}

	ok, err := e.hasher.Verify(token, confirmation.Token)
	if err != nil {
		return "", "", err
	}
	if !ok {
		return "", "", ErrInvalidSelectorTokenPair
	}
	if confirmation.Expires < e.now().Unix() {
		return "", "", ErrTokenExpired
	}

	if err := e.store.ConsumeConfirmation(ctx, confirmation); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return "", "", ErrUserAlreadyExists
		}
		return "", "", wrapDB(err)
	}

	// keep the current session in step when the user confirmed their own address
	if d, serr := e.loadSession(ctx); serr == nil && d.LoggedIn && d.UserID == confirmation.UserID {
		d.Email = confirmation.Email
		if err := e.sessions.Save(ctx, d); err != nil {
			return "", "", err
		}
	}

	oldEmail = u.Email
	if oldEmail == confirmation.Email {
		oldEmail = ""
	}

	e.logger.Info("email confirmed", "user_id", confirmation.UserID, "changed", oldEmail != "")
	return oldEmail, confirmation.Email, nil
}

// ConfirmEmailAndSignIn describes the confirmemailandsignin operation and its observable behavior.
//
// It behaves like [Engine.ConfirmEmail] and additionally signs the user in on
// success, honoring the login options. A session that is already
// authenticated is left untouched; the sign-in only happens for anonymous
// callers.
func (e *Engine) ConfirmEmailAndSignIn(ctx context.Context, selector, token string, opt LoginOptions) (oldEmail, newEmail string, err error) {
	oldEmail, newEmail, err = e.ConfirmEmail(ctx, selector, token)
	if err != nil {
		return "", "", err
	}

	d, err := e.loadSession(ctx)
	if err != nil {
		return "", "", err
	}
	if d.LoggedIn {
		return oldEmail, newEmail, nil
	}

	u, err := e.userByEmail(ctx, newEmail)
	if err != nil {
		return "", "", err
	}
	if err := e.onLoginSuccessful(ctx, u, true); err != nil {
		return "", "", err
	}

	if err := e.applyRemember(ctx, u.ID, opt.RememberFor); err != nil {
		return "", "", err
	}

	return oldEmail, newEmail, nil
}

// ChangeEmail describes the changeemail operation and its observable behavior.
//
// It opens a confirmation request moving the logged-in user's account to a
// new email address. The address only changes once the request is redeemed
// via [Engine.ConfirmEmail]; until then the old address stays active.
func (e *Engine) ChangeEmail(ctx context.Context, newEmail string, cb ConfirmationCallback) error {
	d, err := e.loadSession(ctx)
	if err != nil {
		return err
	}
	if !d.LoggedIn {
		return ErrNotLoggedIn
	}

	newEmail, err = validateEmail(newEmail)
	if err != nil {
		return err
	}

	if _, err := e.Throttle(ctx, []string{"enumerateUsers", e.clientIP}, 1, time.Hour, &ThrottleOptions{Burstiness: 75}); err != nil {
		return err
	}

	taken, err := e.store.CountUsersByEmail(ctx, newEmail)
	if err != nil {
		return wrapDB(err)
	}
	if taken > 0 {
		return ErrUserAlreadyExists
	}

	// the current (old) address has to be verified before it may be replaced
	u, err := e.userByID(ctx, d.UserID)
	if err != nil {
		return err
	}
	if !u.Verified {
		return ErrEmailNotVerified
	}

	if _, err := e.Throttle(ctx, []string{"requestEmailChange", "userId", strconv.Itoa(d.UserID)}, 1, 24*time.Hour, nil); err != nil {
		return err
	}
	if _, err := e.Throttle(ctx, []string{"requestEmailChange", e.clientIP}, 1, 24*time.Hour, &ThrottleOptions{Burstiness: 3}); err != nil {
		return err
	}

	return e.createConfirmationRequest(ctx, d.UserID, newEmail, cb)
}

// ResendConfirmationForEmail describes the resendconfirmationforemail operation and its observable behavior.
//
// It re-issues the latest outstanding confirmation request that targets the
// given email address, with a fresh selector/token pair and a fresh expiry.
func (e *Engine) ResendConfirmationForEmail(ctx context.Context, email string, cb ConfirmationCallback) error {
	email, err := validateEmail(email)
	if err != nil {
		return err
	}
	if _, err := e.Throttle(ctx, []string{"enumerateUsers", e.clientIP}, 1, time.Hour, &ThrottleOptions{Burstiness: 75}); err != nil {
		return err
	}
	latest, err := e.store.LatestConfirmationByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrConfirmationRequestNotFound
		}
		return wrapDB(err)
	}
	return e.resendConfirmation(ctx, latest, cb)
}

// ResendConfirmationForUserID describes the resendconfirmationforuserid operation and its observable behavior.
//
// It re-issues the latest outstanding confirmation request of the given
// account, with a fresh selector/token pair and a fresh expiry.
func (e *Engine) ResendConfirmationForUserID(ctx context.Context, userID int, cb ConfirmationCallback) error {
	latest, err := e.store.LatestConfirmationByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrConfirmationRequestNotFound
		}
		return wrapDB(err)
	}
	return e.resendConfirmation(ctx, latest, cb)
}

func (e *Engine) resendConfirmation(ctx context.Context, latest *store.ConfirmationRequest, cb ConfirmationCallback) error {
	if _, err := e.Throttle(ctx, []string{"resendConfirmation", "userId", strconv.Itoa(latest.UserID)}, 1, 6*time.Hour, nil); err != nil {
		return err
	}
	if _, err := e.Throttle(ctx, []string{"resendConfirmation", e.clientIP}, 4, 7*24*time.Hour, &ThrottleOptions{Burstiness: 2}); err != nil {
		return err
	}
	return e.createConfirmationRequest(ctx, latest.UserID, latest.Email, cb)
}
