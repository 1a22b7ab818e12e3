package sqlauth

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/sqlauth/internal/store"
)

// LogOut describes the logout operation and its observable behavior.
//
// It signs the user out on the current device only: the device's remember
// directive is revoked, its cookie poisoned and the session state cleared.
// Logging out while not logged in is a no-op.
func (e *Engine) LogOut(ctx context.Context) error {
	d, err := e.loadSession(ctx)
	if err != nil {
		return err
	}
	if !d.LoggedIn {
		return nil
	}

	if selector := e.currentRememberSelector(); selector != "" {
		if err := e.deleteRememberDirectiveAndCookie(ctx, d.UserID, selector); err != nil {
			return err
		}
	}

	e.logger.Info("logout", "user_id", d.UserID)
	return e.sessions.Clear(ctx)
}

// LogOutEverywhereElse describes the logouteverywhereelse operation and its observable behavior.
//
// It signs the user out on every other device while keeping the current
// session alive: the account's force-logout counter is advanced, all
// remember directives are dropped, and the current device's directive is
// re-created with its original expiry so this device stays remembered.
func (e *Engine) LogOutEverywhereElse(ctx context.Context) error {
	d, err := e.loadSession(ctx)
	if err != nil {
		return err
	}
	if !d.LoggedIn {
		return ErrNotLoggedIn
	}

	previousExpiry, err := e.currentRememberExpiry(ctx, d.UserID)
	if err != nil {
		return err
	}

	if err := e.forceLogoutEverywhere(ctx, d.UserID); err != nil {
		return err
	}

	// the current session must survive the global logout it just scheduled
	d.ForceLogout++
	if err := e.sessions.Save(ctx, d); err != nil {
		return err
	}
	if err := e.sessions.RegenerateID(ctx); err != nil {
		return err
	}

	if !previousExpiry.IsZero() {
		if err := e.createRememberDirective(ctx, d.UserID, previousExpiry.Sub(e.now())); err != nil {
			return err
		}
	}

	e.logger.Info("logout everywhere else", "user_id", d.UserID)
	return nil
}

// LogOutEverywhere describes the logouteverywhere operation and its observable behavior.
//
// It signs the user out on all devices, the current one included.
func (e *Engine) LogOutEverywhere(ctx context.Context) error {
	d, err := e.loadSession(ctx)
	if err != nil {
		return err
	}
	if !d.LoggedIn {
		return ErrNotLoggedIn
	}

	if err := e.forceLogoutEverywhere(ctx, d.UserID); err != nil {
		return err
	}
	return e.LogOut(ctx)
}

// DestroySession describes the destroysession operation and its observable behavior.
//
// It discards the server-side session record entirely and deletes the
// client's session cookie, logged in or not. Unlike [Engine.LogOut] it does
// not touch remember directives.
func (e *Engine) DestroySession(ctx context.Context) error {
	if err := e.sessions.Clear(ctx); err != nil {
		return err
	}
	return e.cookies.Delete(e.cfg.Session.Name)
}

// forceLogoutEverywhere drops every remember directive of the account and
// advances its force-logout counter, expelling all resynchronizing sessions.
func (e *Engine) forceLogoutEverywhere(ctx context.Context, userID int) error {
	if err := e.deleteRememberDirectives(ctx, userID, ""); err != nil {
		return err
	}
	if selector := e.currentRememberSelector(); selector != "" {
		if err := e.setRememberCookie("", "", time.Time{}); err != nil {
			return err
		}
	}
	return e.forceLogoutForUser(ctx, userID)
}

// deleteRememberDirectiveAndCookie revokes one directive and, when it backs
// the current device, poisons the cookie as well.
func (e *Engine) deleteRememberDirectiveAndCookie(ctx context.Context, userID int, selector string) error {
	if err := e.deleteRememberDirectives(ctx, userID, selector); err != nil {
		return err
	}
	if e.currentRememberSelector() == selector {
		return e.setRememberCookie("", "", time.Time{})
	}
	return nil
}

// currentRememberExpiry returns the expiry time of the directive backing the
// current device, or the zero time when the device is not remembered.
func (e *Engine) currentRememberExpiry(ctx context.Context, userID int) (time.Time, error) {
	selector := e.currentRememberSelector()
	if selector == "" {
		return time.Time{}, nil
	}
	expires, err := e.store.RememberExpiry(ctx, userID, selector)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, wrapDB(err)
	}
	return time.Unix(expires, 0), nil
}
