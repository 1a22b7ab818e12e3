package sqlauth

import (
	"gorm.io/gorm"

	"github.com/MrEthical07/sqlauth/internal/store"
	"github.com/MrEthical07/sqlauth/internal/throttle"
)

// AutoMigrate describes the automigrate operation and its observable behavior.
//
// It creates or updates the five tables the engine relies on: users,
// users_confirmations, users_resets, users_remembered and users_throttling.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&store.User{},
		&store.ConfirmationRequest{},
		&store.PasswordResetRequest{},
		&store.RememberDirective{},
		&throttle.Bucket{},
	)
}
