package store

import (
	"context"

	"gorm.io/gorm"
)

// CreateUser inserts a new account row. A duplicate email yields
// [ErrDuplicate].
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	return classify(s.db.WithContext(ctx).Create(u).Error)
}

// UserByID describes the userbyid operation and its observable behavior.
func (s *Store) UserByID(ctx context.Context, id int) (*User, error) {
	var u User
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&u).Error; err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

// UserByEmail describes the userbyemail operation and its observable behavior.
func (s *Store) UserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	if err := s.db.WithContext(ctx).Where("email = ?", email).Take(&u).Error; err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

// UsersByUsername returns at most two accounts carrying the username, enough
// for callers to distinguish unknown from ambiguous.
func (s *Store) UsersByUsername(ctx context.Context, username string) ([]User, error) {
	var users []User
	err := s.db.WithContext(ctx).Where("username = ?", username).Limit(2).Find(&users).Error
	if err != nil {
		return nil, classify(err)
	}
	return users, nil
}

// UsersByColumn returns at most limit accounts where the given column holds
// the given value. The column name must never come from untrusted input.
func (s *Store) UsersByColumn(ctx context.Context, column string, value any, limit int) ([]User, error) {
	var users []User
	err := s.db.WithContext(ctx).Where(column+" = ?", value).Limit(limit).Find(&users).Error
	if err != nil {
		return nil, classify(err)
	}
	return users, nil
}

// CountUsersByEmail describes the countusersbyemail operation and its observable behavior.
func (s *Store) CountUsersByEmail(ctx context.Context, email string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&User{}).Where("email = ?", email).Count(&n).Error
	return n, classify(err)
}

// CountUsersByUsername describes the countusersbyusername operation and its observable behavior.
func (s *Store) CountUsersByUsername(ctx context.Context, username string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Count(&n).Error
	return n, classify(err)
}

// UpdatePassword stores a new password hash and reports how many rows were
// affected, so callers can distinguish an unknown id.
func (s *Store) UpdatePassword(ctx context.Context, userID int, hash string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Update("password", hash)
	return res.RowsAffected, classify(res.Error)
}

// TouchLastLogin describes the touchlastlogin operation and its observable behavior.
func (s *Store) TouchLastLogin(ctx context.Context, userID int, now int64) error {
	return classify(s.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Update("last_login", now).Error)
}

// IncrementForceLogout advances the user's forced-logout counter atomically
// in the database, invalidating every session that has not yet observed the
// new value.
func (s *Store) IncrementForceLogout(ctx context.Context, userID int) error {
	return classify(s.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).
		Update("force_logout", gorm.Expr("force_logout + 1")).Error)
}

// SetResettable describes the setresettable operation and its observable behavior.
func (s *Store) SetResettable(ctx context.Context, userID int, resettable bool) (int64, error) {
	res := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Update("resettable", resettable)
	return res.RowsAffected, classify(res.Error)
}

// SetRolesMask describes the setrolesmask operation and its observable behavior.
func (s *Store) SetRolesMask(ctx context.Context, userID int, mask uint32) (int64, error) {
	res := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Update("roles_mask", mask)
	return res.RowsAffected, classify(res.Error)
}

// DeleteUsersByColumn deletes all accounts where the given column holds the
// given value and returns the number of deleted rows. The column name must
// never come from untrusted input.
func (s *Store) DeleteUsersByColumn(ctx context.Context, column string, value any) (int64, error) {
	res := s.db.WithContext(ctx).Where(column+" = ?", value).Delete(&User{})
	return res.RowsAffected, classify(res.Error)
}
