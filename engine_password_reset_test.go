package sqlauth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func registerVerified(t *testing.T, e *Engine, email, pw string) int {
	t.Helper()

	id, err := e.Register(context.Background(), email, pw, "", nil)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return id
}

func TestForgotAndResetPassword(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	id := registerVerified(t, e, "alice@example.com", "old-pw")

	var selector, token string
	err := e.ForgotPassword(ctx, "alice@example.com", func(s, tok string) {
		selector, token = s, tok
	})
	if err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	if selector == "" || token == "" {
		t.Fatalf("reset callback not invoked")
	}

	if !e.CanResetPassword(ctx, selector, token) {
		t.Fatalf("CanResetPassword = false for valid pair")
	}
	if err := e.CanResetPasswordOrErr(ctx, selector, "wrong-token"); !errors.Is(err, ErrInvalidSelectorTokenPair) {
		t.Fatalf("CanResetPasswordOrErr wrong token = %v", err)
	}

	if _, _, err := e.ResetPassword(ctx, selector, "wrong-token", "new-pw"); !errors.Is(err, ErrInvalidSelectorTokenPair) {
		t.Fatalf("ResetPassword wrong token = %v, want ErrInvalidSelectorTokenPair", err)
	}

	gotID, gotEmail, err := e.ResetPassword(ctx, selector, token, "new-pw")
	if err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}
	if gotID != id || gotEmail != "alice@example.com" {
		t.Fatalf("ResetPassword = %d, %q", gotID, gotEmail)
	}

	if err := e.Login(ctx, "alice@example.com", "old-pw"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("old password still valid after reset")
	}
	if err := e.Login(ctx, "alice@example.com", "new-pw"); err != nil {
		t.Fatalf("Login with new password failed: %v", err)
	}

	// the redeemed request is gone
	if e.CanResetPassword(ctx, selector, token) {
		t.Fatalf("CanResetPassword = true after redemption")
	}
}

func TestForgotPasswordRequiresVerifiedResettable(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.Register(ctx, "bob@example.com", "secret-pw", "", func(string, string) {}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := e.ForgotPassword(ctx, "bob@example.com", func(string, string) {}); !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("ForgotPassword unverified = %v, want ErrEmailNotVerified", err)
	}

	registerVerified(t, e, "carol@example.com", "secret-pw")
	if err := e.Login(ctx, "carol@example.com", "secret-pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := e.SetPasswordResetEnabled(ctx, false); err != nil {
		t.Fatalf("SetPasswordResetEnabled failed: %v", err)
	}
	enabled, err := e.IsPasswordResetEnabled(ctx)
	if err != nil || enabled {
		t.Fatalf("IsPasswordResetEnabled = %v, %v, want false", enabled, err)
	}
	if err := e.ForgotPassword(ctx, "carol@example.com", func(string, string) {}); !errors.Is(err, ErrResetDisabled) {
		t.Fatalf("ForgotPassword disabled = %v, want ErrResetDisabled", err)
	}
}

func TestForgotPasswordOpenRequestCap(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	id := registerVerified(t, e, "dave@example.com", "secret-pw")

	for i := 0; i < ResetDefaultMaxOpenRequests; i++ {
		if err := e.ForgotPassword(ctx, "dave@example.com", func(string, string) {}); err != nil {
			t.Fatalf("ForgotPassword #%d failed: %v", i+1, err)
		}
	}

	err := e.ForgotPassword(ctx, "dave@example.com", func(string, string) {})
	var limited *RateLimitError
	if !errors.As(err, &limited) {
		t.Fatalf("ForgotPassword over cap = %v, want *RateLimitError", err)
	}
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("RateLimitError does not unwrap to ErrRateLimited")
	}
	if limited.UserID != id || limited.OpenRequests != ResetDefaultMaxOpenRequests {
		t.Fatalf("RateLimitError = %+v", limited)
	}
}

func TestResetPasswordExpired(t *testing.T) {
	e, _, clock := newTestEngine(t)
	ctx := context.Background()

	registerVerified(t, e, "erin@example.com", "secret-pw")

	var selector, token string
	err := e.ForgotPasswordWithOptions(ctx, "erin@example.com", func(s, tok string) {
		selector, token = s, tok
	}, ForgotPasswordOptions{RequestExpiresAfter: time.Hour})
	if err != nil {
		t.Fatalf("ForgotPasswordWithOptions failed: %v", err)
	}

	clock.Advance(2 * time.Hour)
	if _, _, err := e.ResetPassword(ctx, selector, token, "new-pw"); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("ResetPassword expired = %v, want ErrTokenExpired", err)
	}
}

func TestResetPasswordAndSignIn(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	id := registerVerified(t, e, "frank@example.com", "secret-pw")

	var selector, token string
	if err := e.ForgotPassword(ctx, "frank@example.com", func(s, tok string) { selector, token = s, tok }); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}

	gotID, _, err := e.ResetPasswordAndSignIn(ctx, selector, token, "new-pw", LoginOptions{})
	if err != nil {
		t.Fatalf("ResetPasswordAndSignIn failed: %v", err)
	}
	if gotID != id {
		t.Fatalf("ResetPasswordAndSignIn id = %d, want %d", gotID, id)
	}
	if !e.IsLoggedIn(ctx) {
		t.Fatalf("IsLoggedIn = false after ResetPasswordAndSignIn")
	}
}

func TestResetPasswordAndSignInKeepsExistingSession(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	ginaID := registerVerified(t, e, "gina@example.com", "secret-pw")
	hankID := registerVerified(t, e, "hank@example.com", "secret-pw")

	var selector, token string
	if err := e.ForgotPassword(ctx, "hank@example.com", func(s, tok string) { selector, token = s, tok }); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	if err := e.Login(ctx, "gina@example.com", "secret-pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// resetting someone else's password must not replace the current session
	gotID, _, err := e.ResetPasswordAndSignIn(ctx, selector, token, "new-pw", LoginOptions{})
	if err != nil {
		t.Fatalf("ResetPasswordAndSignIn failed: %v", err)
	}
	if gotID != hankID {
		t.Fatalf("ResetPasswordAndSignIn id = %d, want %d", gotID, hankID)
	}
	sessionID, err := e.UserID(ctx)
	if err != nil || sessionID != ginaID {
		t.Fatalf("UserID = %d, %v, want %d", sessionID, err, ginaID)
	}

	// the reset itself still took effect
	if err := e.LogOut(ctx); err != nil {
		t.Fatalf("LogOut failed: %v", err)
	}
	if err := e.Login(ctx, "hank@example.com", "new-pw"); err != nil {
		t.Fatalf("Login with reset password failed: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	registerVerified(t, e, "grace@example.com", "old-pw")
	if err := e.Login(ctx, "grace@example.com", "old-pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := e.ChangePassword(ctx, "wrong-pw", "new-pw"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("ChangePassword wrong old = %v, want ErrInvalidPassword", err)
	}
	if err := e.ChangePassword(ctx, "old-pw", "new-pw"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}
	if !e.IsLoggedIn(ctx) {
		t.Fatalf("IsLoggedIn = false after ChangePassword")
	}

	if err := e.LogOut(ctx); err != nil {
		t.Fatalf("LogOut failed: %v", err)
	}
	if err := e.Login(ctx, "grace@example.com", "new-pw"); err != nil {
		t.Fatalf("Login with new password failed: %v", err)
	}
}

func TestChangePasswordWithoutOldPassword(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	if err := e.ChangePasswordWithoutOldPassword(ctx, "new-pw"); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("anonymous change = %v, want ErrNotLoggedIn", err)
	}

	registerVerified(t, e, "heidi@example.com", "old-pw")
	if err := e.Login(ctx, "heidi@example.com", "old-pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := e.ChangePasswordWithoutOldPassword(ctx, "new-pw"); err != nil {
		t.Fatalf("ChangePasswordWithoutOldPassword failed: %v", err)
	}
	if err := e.LogOut(ctx); err != nil {
		t.Fatalf("LogOut failed: %v", err)
	}
	if err := e.Login(ctx, "heidi@example.com", "new-pw"); err != nil {
		t.Fatalf("Login with new password failed: %v", err)
	}
}
