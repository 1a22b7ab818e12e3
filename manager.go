package sqlauth

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/MrEthical07/sqlauth/internal"
	"github.com/MrEthical07/sqlauth/internal/store"
	"github.com/MrEthical07/sqlauth/password"
)

// confirmationSelectorLength is an exported constant or variable used by the authentication engine.
const (
	confirmationSelectorLength = 16
	confirmationTokenLength    = 16
	confirmationLifetime       = 24 * time.Hour
)

// ConfirmationCallback receives the selector and the plain token of a newly
// created confirmation request so the caller can deliver them to the user,
// e.g. embedded in a link sent by email. The token is never recoverable
// afterwards; only its hash is stored.
type ConfirmationCallback func(selector, token string)

// userManager carries the persistence-level account operations shared by the
// engine and its administrative interface. It never touches sessions or
// cookies; those concerns belong to the layers embedding it.
type userManager struct {
	store  *store.Store
	hasher *password.Hasher
	logger *slog.Logger
	now    func() time.Time
}

// validateEmail normalizes and checks an email address for syntactic
// validity. The address must be a bare addr-spec without a display name.
func validateEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// validatePassword normalizes and checks a password for minimal validity.
// Strength policies are deliberately left to the caller.
func validatePassword(pw string) (string, error) {
	pw = strings.TrimSpace(pw)
	if pw == "" {
		return "", ErrInvalidPassword
	}
	return pw, nil
}

// createUser validates the inputs, hashes the password and inserts the
// account row. When requireUniqueUsername is set a pre-existing account with
// the same username aborts the registration. A non-nil callback leaves the
// account unverified and opens a confirmation request for the address;
// without a callback the account starts out verified.
func (m *userManager) createUser(ctx context.Context, requireUniqueUsername bool, email, pw, username string, cb ConfirmationCallback) (int, error) {
	email, err := validateEmail(email)
	if err != nil {
		return 0, err
	}
	pw, err = validatePassword(pw)
	if err != nil {
		return 0, err
	}

	username = strings.TrimSpace(username)
	if requireUniqueUsername {
		if username == "" {
			return 0, ErrUsernameRequired
		}
		n, err := m.store.CountUsersByUsername(ctx, username)
		if err != nil {
			return 0, wrapDB(err)
		}
		if n > 0 {
			return 0, ErrDuplicateUsername
		}
	}

	hash, err := m.hasher.Hash(pw)
	if err != nil {
		return 0, err
	}

	u := &store.User{
		Email:      email,
		Password:   hash,
		Username:   username,
		Verified:   cb == nil,
		Resettable: true,
		Registered: m.now().Unix(),
	}
	if err := m.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return 0, ErrUserAlreadyExists
		}
		return 0, wrapDB(err)
	}

	if cb != nil {
		if err := m.createConfirmationRequest(ctx, u.ID, email, cb); err != nil {
			return 0, err
		}
	}

	m.logger.Info("user created", "user_id", u.ID, "verified", u.Verified)
	return u.ID, nil
}

// createConfirmationRequest opens a confirmation request for the given
// address and hands the fresh selector/token pair to the callback.
func (m *userManager) createConfirmationRequest(ctx context.Context, userID int, email string, cb ConfirmationCallback) error {
	if cb == nil {
		return ErrMissingCallback
	}

	selector, err := internal.CreateRandomString(confirmationSelectorLength)
	if err != nil {
		return err
	}
	token, err := internal.CreateRandomString(confirmationTokenLength)
	if err != nil {
		return err
	}
	tokenHash, err := m.hasher.Hash(token)
	if err != nil {
		return err
	}

	err = m.store.CreateConfirmation(ctx, &store.ConfirmationRequest{
		UserID:   userID,
		Email:    email,
		Selector: selector,
		Token:    tokenHash,
		Expires:  m.now().Add(confirmationLifetime).Unix(),
	})
	if err != nil {
		return wrapDB(err)
	}

	cb(selector, token)
	return nil
}

// updatePasswordHash validates, hashes and stores a new password for the
// given account. It reports ErrUnknownID when the account does not exist.
func (m *userManager) updatePasswordHash(ctx context.Context, userID int, newPassword string) error {
	newPassword, err := validatePassword(newPassword)
	if err != nil {
		return err
	}
	hash, err := m.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	affected, err := m.store.UpdatePassword(ctx, userID, hash)
	if err != nil {
		return wrapDB(err)
	}
	if affected == 0 {
		return ErrUnknownID
	}
	return nil
}

// userByEmail resolves an account by its (validated) email address.
func (m *userManager) userByEmail(ctx context.Context, email string) (*store.User, error) {
	u, err := m.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidEmail
		}
		return nil, wrapDB(err)
	}
	return u, nil
}

// userByUsername resolves an account by username. Zero matches map to
// ErrUnknownUsername and more than one match to ErrAmbiguousUsername.
func (m *userManager) userByUsername(ctx context.Context, username string) (*store.User, error) {
	users, err := m.store.UsersByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, wrapDB(err)
	}
	switch len(users) {
	case 0:
		return nil, ErrUnknownUsername
	case 1:
		return &users[0], nil
	default:
		return nil, ErrAmbiguousUsername
	}
}

// userByID resolves an account by primary key.
func (m *userManager) userByID(ctx context.Context, userID int) (*store.User, error) {
	u, err := m.store.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnknownID
		}
		return nil, wrapDB(err)
	}
	return u, nil
}

// forceLogoutForUser increments the account's force-logout counter so that
// every session resynchronizing afterwards finds itself outdated.
func (m *userManager) forceLogoutForUser(ctx context.Context, userID int) error {
	if err := m.store.IncrementForceLogout(ctx, userID); err != nil {
		return wrapDB(err)
	}
	return nil
}

// deleteRememberDirectives removes the remember directives of a user. An
// empty selector removes all of them.
func (m *userManager) deleteRememberDirectives(ctx context.Context, userID int, selector string) error {
	if err := m.store.DeleteRemember(ctx, userID, selector); err != nil {
		return wrapDB(err)
	}
	return nil
}
