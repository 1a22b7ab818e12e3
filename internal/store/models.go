// Package store holds the gorm models and repository operations for the
// authentication tables. It reports duplicates and missing rows through its
// own sentinel errors; classification into the public error taxonomy happens
// in the root package.
package store

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrDuplicate is an exported constant or variable used by the authentication engine.
	ErrDuplicate = errors.New("unique constraint violated")
	// ErrNotFound is an exported constant or variable used by the authentication engine.
	ErrNotFound = errors.New("record not found")
)

// User is the authoritative account row.
type User struct {
	ID          int    `gorm:"primaryKey;autoIncrement"`
	Email       string `gorm:"size:249;uniqueIndex;not null"`
	Password    string `gorm:"size:255;not null"`
	Username    string `gorm:"size:100;index"`
	Status      int    `gorm:"not null;default:0"`
	Verified    bool   `gorm:"not null;default:false"`
	Resettable  bool   `gorm:"not null;default:true"`
	RolesMask   uint32 `gorm:"column:roles_mask;not null;default:0"`
	Registered  int64  `gorm:"not null"`
	LastLogin   int64  `gorm:"column:last_login"`
	ForceLogout int    `gorm:"column:force_logout;not null;default:0"`
}

// TableName describes the tablename operation and its observable behavior.
func (User) TableName() string { return "users" }

// ConfirmationRequest is an outstanding email confirmation. Email is the
// address being confirmed, which differs from the user's current address
// during an email change.
type ConfirmationRequest struct {
	ID       int    `gorm:"primaryKey;autoIncrement"`
	UserID   int    `gorm:"column:user_id;not null;index"`
	Email    string `gorm:"size:249;not null"`
	Selector string `gorm:"size:16;uniqueIndex;not null"`
	Token    string `gorm:"size:255;not null"`
	Expires  int64  `gorm:"not null;index"`
}

// TableName describes the tablename operation and its observable behavior.
func (ConfirmationRequest) TableName() string { return "users_confirmations" }

// PasswordResetRequest is an outstanding password reset.
type PasswordResetRequest struct {
	ID       int    `gorm:"primaryKey;autoIncrement"`
	User     int    `gorm:"column:user;not null;index"`
	Selector string `gorm:"size:20;uniqueIndex;not null"`
	Token    string `gorm:"size:255;not null"`
	Expires  int64  `gorm:"not null;index"`
}

// TableName describes the tablename operation and its observable behavior.
func (PasswordResetRequest) TableName() string { return "users_resets" }

// RememberDirective authorizes passwordless re-authentication for one
// device/session via a long-lived cookie.
type RememberDirective struct {
	ID       int    `gorm:"primaryKey;autoIncrement"`
	User     int    `gorm:"column:user;not null;index"`
	Selector string `gorm:"size:24;uniqueIndex;not null"`
	Token    string `gorm:"size:255;not null"`
	Expires  int64  `gorm:"not null;index"`
}

// TableName describes the tablename operation and its observable behavior.
func (RememberDirective) TableName() string { return "users_remembered" }

// Store is the repository over all authentication tables. The *gorm.DB must
// be opened with TranslateError so unique-constraint violations surface as
// gorm.ErrDuplicatedKey.
type Store struct {
	db *gorm.DB
}

// New describes the new operation and its observable behavior.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for migration helpers.
func (s *Store) DB() *gorm.DB { return s.db }

func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	default:
		return err
	}
}
