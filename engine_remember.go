package sqlauth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/sqlauth/cookie"
	"github.com/MrEthical07/sqlauth/internal"
	"github.com/MrEthical07/sqlauth/internal/store"
)

const (
	rememberSelectorLength = 24
	rememberTokenLength    = 32
	// rememberContentSeparator joins selector and token in the cookie value.
	rememberContentSeparator = "~"
	// legacyRememberCookieName is consulted as a fallback so logins
	// remembered under earlier releases keep working.
	legacyRememberCookieName = "auth_remember"
)

// UseConfiguredRememberDuration selects the configured default remember
// lifetime when passed as [LoginOptions].RememberFor.
const UseConfiguredRememberDuration time.Duration = -1

// applyRemember interprets a RememberFor value: zero is off, negative selects
// the configured default, positive is used as-is.
func (e *Engine) applyRemember(ctx context.Context, userID int, d time.Duration) error {
	if d == 0 {
		return nil
	}
	if d < 0 {
		d = e.cfg.Remember.DefaultDuration.Std()
	}
	return e.createRememberDirective(ctx, userID, d)
}

// createRememberDirective opens a new remember directive for the account and
// plants the matching cookie. Only the hash of the token is stored.
func (e *Engine) createRememberDirective(ctx context.Context, userID int, duration time.Duration) error {
	selector, err := internal.CreateRandomString(rememberSelectorLength)
	if err != nil {
		return err
	}
	token, err := internal.CreateRandomString(rememberTokenLength)
	if err != nil {
		return err
	}
	tokenHash, err := e.hasher.Hash(token)
	if err != nil {
		return err
	}

	expires := e.now().Add(duration)
	err = e.store.CreateRemember(ctx, &store.RememberDirective{
		User:     userID,
		Selector: selector,
		Token:    tokenHash,
		Expires:  expires.Unix(),
	})
	if err != nil {
		return wrapDB(err)
	}

	return e.setRememberCookie(selector, token, expires)
}

// setRememberCookie plants, replaces or poisons the remember cookie. Empty
// selector and token poison the cookie: the value is emptied but the cookie
// is kept around for another year so stale copies on other paths cannot
// resurface.
func (e *Engine) setRememberCookie(selector, token string, expires time.Time) error {
	var value string
	if selector != "" && token != "" {
		value = selector + rememberContentSeparator + token
	} else {
		expires = e.now().Add(365 * 24 * time.Hour)
	}

	return e.cookies.Set(cookie.Cookie{
		Name:       e.rememberCookieName,
		Value:      value,
		Expires:    expires,
		Domain:     e.cfg.Session.CookieDomain,
		Path:       e.cfg.Session.CookiePath,
		HTTPOnly:   e.cfg.Session.CookieHTTPOnly,
		SecureOnly: e.cfg.Session.CookieSecure,
		SameSite:   e.cfg.Session.CookieSameSite,
	})
}

// rememberCookieContent returns the selector/token pair from the remember
// cookie, falling back to the legacy cookie name. Both strings are empty when
// no well-formed cookie is present.
func (e *Engine) rememberCookieContent() (selector, token string) {
	c, ok := e.cookies.Get(e.rememberCookieName)
	if !ok || c.Value == "" {
		if e.rememberCookieName == legacyRememberCookieName {
			return "", ""
		}
		c, ok = e.cookies.Get(legacyRememberCookieName)
		if !ok || c.Value == "" {
			return "", ""
		}
	}

	parts := strings.SplitN(c.Value, rememberContentSeparator, 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", ""
	}
	return parts[0], parts[1]
}

// processRememberDirective re-establishes a login from the remember cookie
// when the session is anonymous. A cookie that does not resolve to a valid,
// unexpired directive is poisoned.
func (e *Engine) processRememberDirective(ctx context.Context) error {
	d, err := e.loadSession(ctx)
	if err != nil {
		return err
	}
	if d.LoggedIn {
		return nil
	}

	selector, token := e.rememberCookieContent()
	if selector == "" {
		return nil
	}

	directive, u, err := e.store.RememberBySelector(ctx, selector)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return e.setRememberCookie("", "", time.Time{})
		}
		return wrapDB(err)
	}

	if directive.Expires < e.now().Unix() {
		return e.setRememberCookie("", "", time.Time{})
	}
	ok, err := e.hasher.Verify(token, directive.Token)
	if err != nil {
		return err
	}
	if !ok {
		return e.setRememberCookie("", "", time.Time{})
	}

	return e.onLoginSuccessful(ctx, u, true)
}

// currentRememberSelector returns the selector of the directive backing this
// device, or the empty string when the device is not remembered.
func (e *Engine) currentRememberSelector() string {
	selector, _ := e.rememberCookieContent()
	return selector
}
