package store

import "context"

// CreateRemember inserts a new remember directive for one device/session.
func (s *Store) CreateRemember(ctx context.Context, r *RememberDirective) error {
	return classify(s.db.WithContext(ctx).Create(r).Error)
}

// RememberBySelector returns the remember directive with the given selector
// together with the owning user row, or [ErrNotFound].
func (s *Store) RememberBySelector(ctx context.Context, selector string) (*RememberDirective, *User, error) {
	var r RememberDirective
	if err := s.db.WithContext(ctx).Where("selector = ?", selector).Take(&r).Error; err != nil {
		return nil, nil, classify(err)
	}

	var u User
	if err := s.db.WithContext(ctx).Where("id = ?", r.User).Take(&u).Error; err != nil {
		return nil, nil, classify(err)
	}

	return &r, &u, nil
}

// RememberExpiry returns the expiry timestamp of the directive identified by
// user and selector, or [ErrNotFound].
func (s *Store) RememberExpiry(ctx context.Context, userID int, selector string) (int64, error) {
	var r RememberDirective
	err := s.db.WithContext(ctx).
		Where(`selector = ? AND "user" = ?`, selector, userID).Take(&r).Error
	if err != nil {
		return 0, classify(err)
	}
	return r.Expires, nil
}

// DeleteRemember removes remember directives for the user. An empty selector
// removes every directive, logging the user out of the remember feature on
// all devices; a non-empty selector restricts the deletion to one device.
func (s *Store) DeleteRemember(ctx context.Context, userID int, selector string) error {
	q := s.db.WithContext(ctx).Where(`"user" = ?`, userID)
	if selector != "" {
		q = q.Where("selector = ?", selector)
	}
	return classify(q.Delete(&RememberDirective{}).Error)
}
