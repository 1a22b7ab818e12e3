package store

import (
	"context"

	"gorm.io/gorm"
)

// CreateConfirmation inserts a new confirmation request. Multiple outstanding
// requests per user are permitted.
func (s *Store) CreateConfirmation(ctx context.Context, c *ConfirmationRequest) error {
	return classify(s.db.WithContext(ctx).Create(c).Error)
}

// ConfirmationBySelector returns the confirmation request with the given
// selector together with the owning user row, or [ErrNotFound].
func (s *Store) ConfirmationBySelector(ctx context.Context, selector string) (*ConfirmationRequest, *User, error) {
	var c ConfirmationRequest
	if err := s.db.WithContext(ctx).Where("selector = ?", selector).Take(&c).Error; err != nil {
		return nil, nil, classify(err)
	}

	var u User
	if err := s.db.WithContext(ctx).Where("id = ?", c.UserID).Take(&u).Error; err != nil {
		return nil, nil, classify(err)
	}

	return &c, &u, nil
}

// LatestConfirmationByUser returns the most recently created confirmation
// request for the user, or [ErrNotFound].
func (s *Store) LatestConfirmationByUser(ctx context.Context, userID int) (*ConfirmationRequest, error) {
	return s.latestConfirmation(ctx, "user_id", userID)
}

// LatestConfirmationByEmail returns the most recently created confirmation
// request addressed to the given email, or [ErrNotFound].
func (s *Store) LatestConfirmationByEmail(ctx context.Context, email string) (*ConfirmationRequest, error) {
	return s.latestConfirmation(ctx, "email", email)
}

func (s *Store) latestConfirmation(ctx context.Context, column string, value any) (*ConfirmationRequest, error) {
	var c ConfirmationRequest
	err := s.db.WithContext(ctx).Where(column+" = ?", value).Order("id DESC").Take(&c).Error
	if err != nil {
		return nil, classify(err)
	}
	return &c, nil
}

// ConsumeConfirmation finalizes a successful email confirmation in one
// transaction: outstanding password reset requests for the user are
// invalidated, the account's email and verified flag are updated, and the
// confirmation row itself is deleted. A duplicate on the new email yields
// [ErrDuplicate] and rolls everything back.
func (s *Store) ConsumeConfirmation(ctx context.Context, c *ConfirmationRequest) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(`"user" = ?`, c.UserID).Delete(&PasswordResetRequest{}).Error; err != nil {
			return err
		}

		err := tx.Model(&User{}).Where("id = ?", c.UserID).Updates(map[string]any{
			"email":    c.Email,
			"verified": true,
		}).Error
		if err != nil {
			return err
		}

		return tx.Where("id = ?", c.ID).Delete(&ConfirmationRequest{}).Error
	})
	return classify(err)
}
