package store

import "context"

// CreateReset inserts a new password reset request.
func (s *Store) CreateReset(ctx context.Context, r *PasswordResetRequest) error {
	return classify(s.db.WithContext(ctx).Create(r).Error)
}

// ResetBySelector returns the reset request with the given selector together
// with the owning user row, or [ErrNotFound].
func (s *Store) ResetBySelector(ctx context.Context, selector string) (*PasswordResetRequest, *User, error) {
	var r PasswordResetRequest
	if err := s.db.WithContext(ctx).Where("selector = ?", selector).Take(&r).Error; err != nil {
		return nil, nil, classify(err)
	}

	var u User
	if err := s.db.WithContext(ctx).Where("id = ?", r.User).Take(&u).Error; err != nil {
		return nil, nil, classify(err)
	}

	return &r, &u, nil
}

// CountOpenResets returns the number of unexpired reset requests for the user.
func (s *Store) CountOpenResets(ctx context.Context, userID int, now int64) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&PasswordResetRequest{}).
		Where(`"user" = ? AND expires > ?`, userID, now).Count(&n).Error
	return n, classify(err)
}

// DeleteResetByID consumes a single reset request.
func (s *Store) DeleteResetByID(ctx context.Context, id int) error {
	return classify(s.db.WithContext(ctx).Where("id = ?", id).Delete(&PasswordResetRequest{}).Error)
}

// DeleteResetsForUser invalidates every outstanding reset request for the
// user, e.g. after their email address has been (re)confirmed.
func (s *Store) DeleteResetsForUser(ctx context.Context, userID int) error {
	return classify(s.db.WithContext(ctx).Where(`"user" = ?`, userID).Delete(&PasswordResetRequest{}).Error)
}
