package sqlauth

import (
	"context"
	"math"

	"github.com/MrEthical07/sqlauth/internal/store"
)

// Admin defines a public type used by sqlauth APIs.
//
// Admin exposes the privileged account operations. None of them are
// throttled and none of them check the current session's authorization;
// restricting access to this interface is the caller's responsibility.
type Admin struct {
	e *Engine
}

// Admin describes the admin operation and its observable behavior.
func (e *Engine) Admin() *Admin { return &Admin{e: e} }

// CreateUser describes the createuser operation and its observable behavior.
//
// It creates a new account that starts out verified, bypassing throttling
// and email confirmation. The username may be empty.
func (a *Admin) CreateUser(ctx context.Context, email, pw, username string) (int, error) {
	return a.e.createUser(ctx, false, email, pw, username, nil)
}

// CreateUserWithUniqueUsername describes the createuserwithuniqueusername operation and its observable behavior.
func (a *Admin) CreateUserWithUniqueUsername(ctx context.Context, email, pw, username string) (int, error) {
	return a.e.createUser(ctx, true, email, pw, username, nil)
}

// DeleteUserByID describes the deleteuserbyid operation and its observable behavior.
func (a *Admin) DeleteUserByID(ctx context.Context, userID int) error {
	return a.deleteUsersByColumn(ctx, "id", userID, ErrUnknownID)
}

// DeleteUserByEmail describes the deleteuserbyemail operation and its observable behavior.
func (a *Admin) DeleteUserByEmail(ctx context.Context, email string) error {
	email, err := validateEmail(email)
	if err != nil {
		return err
	}
	return a.deleteUsersByColumn(ctx, "email", email, ErrInvalidEmail)
}

// DeleteUserByUsername describes the deleteuserbyusername operation and its observable behavior.
//
// Exactly one account must carry the username.
func (a *Admin) DeleteUserByUsername(ctx context.Context, username string) error {
	u, err := a.e.userByUsername(ctx, username)
	if err != nil {
		return err
	}
	return a.deleteUsersByColumn(ctx, "id", u.ID, ErrUnknownUsername)
}

func (a *Admin) deleteUsersByColumn(ctx context.Context, column string, value any, missing error) error {
	deleted, err := a.e.store.DeleteUsersByColumn(ctx, column, value)
	if err != nil {
		return wrapDB(err)
	}
	if deleted == 0 {
		return missing
	}
	a.e.logger.Info("user deleted", "column", column, "count", deleted)
	return nil
}

// AddRoleForUserByID describes the addroleforuserbyid operation and its observable behavior.
func (a *Admin) AddRoleForUserByID(ctx context.Context, userID int, role Roles) error {
	return a.modifyRoles(ctx, userID, func(mask Roles) Roles { return mask | role })
}

// AddRoleForUserByEmail describes the addroleforuserbyemail operation and its observable behavior.
func (a *Admin) AddRoleForUserByEmail(ctx context.Context, email string, role Roles) error {
	u, err := a.userByValidatedEmail(ctx, email)
	if err != nil {
		return err
	}
	return a.AddRoleForUserByID(ctx, u.ID, role)
}

// AddRoleForUserByUsername describes the addroleforuserbyusername operation and its observable behavior.
func (a *Admin) AddRoleForUserByUsername(ctx context.Context, username string, role Roles) error {
	u, err := a.e.userByUsername(ctx, username)
	if err != nil {
		return err
	}
	return a.AddRoleForUserByID(ctx, u.ID, role)
}

// RemoveRoleForUserByID describes the removeroleforuserbyid operation and its observable behavior.
func (a *Admin) RemoveRoleForUserByID(ctx context.Context, userID int, role Roles) error {
	return a.modifyRoles(ctx, userID, func(mask Roles) Roles { return mask &^ role })
}

// RemoveRoleForUserByEmail describes the removeroleforuserbyemail operation and its observable behavior.
func (a *Admin) RemoveRoleForUserByEmail(ctx context.Context, email string, role Roles) error {
	u, err := a.userByValidatedEmail(ctx, email)
	if err != nil {
		return err
	}
	return a.RemoveRoleForUserByID(ctx, u.ID, role)
}

// RemoveRoleForUserByUsername describes the removeroleforuserbyusername operation and its observable behavior.
func (a *Admin) RemoveRoleForUserByUsername(ctx context.Context, username string, role Roles) error {
	u, err := a.e.userByUsername(ctx, username)
	if err != nil {
		return err
	}
	return a.RemoveRoleForUserByID(ctx, u.ID, role)
}

func (a *Admin) modifyRoles(ctx context.Context, userID int, change func(Roles) Roles) error {
	u, err := a.e.userByID(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := a.e.store.SetRolesMask(ctx, userID, uint32(change(Roles(u.RolesMask)))); err != nil {
		return wrapDB(err)
	}
	return nil
}

// DoesUserHaveRole describes the doesuserhaverole operation and its observable behavior.
func (a *Admin) DoesUserHaveRole(ctx context.Context, userID int, role Roles) (bool, error) {
	u, err := a.e.userByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return Roles(u.RolesMask).Has(role), nil
}

// GetRolesForUserByID describes the getrolesforuserbyid operation and its observable behavior.
func (a *Admin) GetRolesForUserByID(ctx context.Context, userID int) (Roles, error) {
	u, err := a.e.userByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return Roles(u.RolesMask), nil
}

// LogInAsUserByID describes the loginasuserbyid operation and its observable behavior.
//
// It signs the current session in as the given user without credentials. The
// account must be verified. The impersonated session is pinned so a later
// force-logout of the account does not terminate it.
func (a *Admin) LogInAsUserByID(ctx context.Context, userID int) error {
	u, err := a.e.userByID(ctx, userID)
	if err != nil {
		return err
	}
	return a.logInAs(ctx, u)
}

// LogInAsUserByEmail describes the loginasuserbyemail operation and its observable behavior.
func (a *Admin) LogInAsUserByEmail(ctx context.Context, email string) error {
	u, err := a.userByValidatedEmail(ctx, email)
	if err != nil {
		return err
	}
	return a.logInAs(ctx, u)
}

// LogInAsUserByUsername describes the loginasuserbyusername operation and its observable behavior.
func (a *Admin) LogInAsUserByUsername(ctx context.Context, username string) error {
	u, err := a.e.userByUsername(ctx, username)
	if err != nil {
		return err
	}
	return a.logInAs(ctx, u)
}

func (a *Admin) logInAs(ctx context.Context, u *store.User) error {
	if !u.Verified {
		return ErrEmailNotVerified
	}
	if err := a.e.onLoginSuccessful(ctx, u, false); err != nil {
		return err
	}

	d, err := a.e.loadSession(ctx)
	if err != nil {
		return err
	}
	d.ForceLogout = math.MaxInt32
	if err := a.e.sessions.Save(ctx, d); err != nil {
		return err
	}

	a.e.logger.Info("impersonation started", "user_id", u.ID)
	return nil
}

// ChangePasswordForUserByID describes the changepasswordforuserbyid operation and its observable behavior.
//
// It replaces the account's password and signs the user out on all devices.
func (a *Admin) ChangePasswordForUserByID(ctx context.Context, userID int, newPassword string) error {
	if err := a.e.updatePasswordHash(ctx, userID, newPassword); err != nil {
		return err
	}
	if err := a.e.deleteRememberDirectives(ctx, userID, ""); err != nil {
		return err
	}
	return a.e.forceLogoutForUser(ctx, userID)
}

// ChangePasswordForUserByUsername describes the changepasswordforuserbyusername operation and its observable behavior.
func (a *Admin) ChangePasswordForUserByUsername(ctx context.Context, username, newPassword string) error {
	u, err := a.e.userByUsername(ctx, username)
	if err != nil {
		return err
	}
	return a.ChangePasswordForUserByID(ctx, u.ID, newPassword)
}

func (a *Admin) userByValidatedEmail(ctx context.Context, email string) (*store.User, error) {
	email, err := validateEmail(email)
	if err != nil {
		return nil, err
	}
	return a.e.userByEmail(ctx, email)
}
