package sqlauth

import (
	"context"
	"errors"
	"testing"
)

func TestAdminCreateAndDeleteUser(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	admin := e.Admin()

	id, err := admin.CreateUser(ctx, "alice@example.com", "secret-pw", "alice")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	// administratively created accounts are verified immediately
	if err := e.Login(ctx, "alice@example.com", "secret-pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := e.LogOut(ctx); err != nil {
		t.Fatalf("LogOut failed: %v", err)
	}

	if err := admin.DeleteUserByID(ctx, id); err != nil {
		t.Fatalf("DeleteUserByID failed: %v", err)
	}
	if err := admin.DeleteUserByID(ctx, id); !errors.Is(err, ErrUnknownID) {
		t.Fatalf("delete again = %v, want ErrUnknownID", err)
	}
	if err := e.Login(ctx, "alice@example.com", "secret-pw"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("Login after delete = %v, want ErrInvalidEmail", err)
	}
}

func TestAdminDeleteByEmailAndUsername(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	admin := e.Admin()

	if _, err := admin.CreateUser(ctx, "bob@example.com", "secret-pw", "bob"); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := admin.CreateUser(ctx, "carol1@example.com", "secret-pw", "carol"); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := admin.CreateUser(ctx, "carol2@example.com", "secret-pw", "carol"); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if err := admin.DeleteUserByEmail(ctx, "bob@example.com"); err != nil {
		t.Fatalf("DeleteUserByEmail failed: %v", err)
	}
	if err := admin.DeleteUserByEmail(ctx, "bob@example.com"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("delete unknown email = %v, want ErrInvalidEmail", err)
	}
	if err := admin.DeleteUserByUsername(ctx, "carol"); !errors.Is(err, ErrAmbiguousUsername) {
		t.Fatalf("delete ambiguous username = %v, want ErrAmbiguousUsername", err)
	}
	if err := admin.DeleteUserByUsername(ctx, "nobody"); !errors.Is(err, ErrUnknownUsername) {
		t.Fatalf("delete unknown username = %v, want ErrUnknownUsername", err)
	}
}

func TestAdminRoles(t *testing.T) {
	e, _, clock := newTestEngine(t)
	ctx := context.Background()
	admin := e.Admin()

	id, err := admin.CreateUser(ctx, "dave@example.com", "secret-pw", "dave")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if err := admin.AddRoleForUserByID(ctx, id, RoleModerator); err != nil {
		t.Fatalf("AddRoleForUserByID failed: %v", err)
	}
	if err := admin.AddRoleForUserByUsername(ctx, "dave", RoleReviewer); err != nil {
		t.Fatalf("AddRoleForUserByUsername failed: %v", err)
	}

	has, err := admin.DoesUserHaveRole(ctx, id, RoleModerator)
	if err != nil || !has {
		t.Fatalf("DoesUserHaveRole moderator = %v, %v", has, err)
	}
	roles, err := admin.GetRolesForUserByID(ctx, id)
	if err != nil {
		t.Fatalf("GetRolesForUserByID failed: %v", err)
	}
	if !roles.HasAll(RoleModerator, RoleReviewer) {
		t.Fatalf("roles = %v, want moderator and reviewer", roles)
	}

	if err := admin.RemoveRoleForUserByEmail(ctx, "dave@example.com", RoleModerator); err != nil {
		t.Fatalf("RemoveRoleForUserByEmail failed: %v", err)
	}
	has, err = admin.DoesUserHaveRole(ctx, id, RoleModerator)
	if err != nil || has {
		t.Fatalf("DoesUserHaveRole after removal = %v, %v", has, err)
	}

	// the session picks up role changes on resynchronization
	if err := e.Login(ctx, "dave@example.com", "secret-pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := admin.AddRoleForUserByID(ctx, id, RoleAdmin); err != nil {
		t.Fatalf("AddRoleForUserByID failed: %v", err)
	}
	if e.HasRole(ctx, RoleAdmin) {
		t.Fatalf("HasRole = true before resync")
	}
	clock.Advance(2 * clockResyncStep)
	if err := e.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if !e.HasRole(ctx, RoleAdmin) {
		t.Fatalf("HasRole = false after resync")
	}
}

func TestAdminImpersonation(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	admin := e.Admin()

	var selector, token string
	id, err := e.Register(ctx, "erin@example.com", "secret-pw", "erin", func(s, tok string) {
		selector, token = s, tok
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := admin.LogInAsUserByID(ctx, id); !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("impersonate unverified = %v, want ErrEmailNotVerified", err)
	}

	if _, _, err := e.ConfirmEmail(ctx, selector, token); err != nil {
		t.Fatalf("ConfirmEmail failed: %v", err)
	}
	if err := admin.LogInAsUserByUsername(ctx, "erin"); err != nil {
		t.Fatalf("LogInAsUserByUsername failed: %v", err)
	}
	gotID, err := e.UserID(ctx)
	if err != nil || gotID != id {
		t.Fatalf("UserID = %d, %v, want %d", gotID, err, id)
	}

	if err := admin.LogInAsUserByID(ctx, 99999); !errors.Is(err, ErrUnknownID) {
		t.Fatalf("impersonate unknown id = %v, want ErrUnknownID", err)
	}
}

func TestAdminChangePassword(t *testing.T) {
	e, db, clock := newTestEngine(t)
	ctx := context.Background()
	admin := e.Admin()

	if _, err := admin.CreateUser(ctx, "frank@example.com", "old-pw", "frank"); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	device := newTestDevice(t, db, clock)
	if err := device.LoginWithOptions(ctx, "frank@example.com", "old-pw", LoginOptions{RememberFor: RememberDefault}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := admin.ChangePasswordForUserByUsername(ctx, "frank", "new-pw"); err != nil {
		t.Fatalf("ChangePasswordForUserByUsername failed: %v", err)
	}

	// existing sessions and remember directives are expelled
	clock.Advance(2 * clockResyncStep)
	if err := device.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if device.IsLoggedIn(ctx) {
		t.Fatalf("session survived admin password change")
	}

	if err := e.Login(ctx, "frank@example.com", "new-pw"); err != nil {
		t.Fatalf("Login with new password failed: %v", err)
	}
}
