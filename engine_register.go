package sqlauth

import (
	"context"
	"time"
)

// Register describes the register operation and its observable behavior.
//
// It creates a new account with the given email address and password. The
// username may be empty and is not required to be unique; use
// [Engine.RegisterWithUniqueUsername] to enforce uniqueness. A non-nil
// callback receives the selector/token pair of the confirmation request and
// leaves the account unverified until confirmed; without a callback the
// account starts out verified. The new user's id is returned.
func (e *Engine) Register(ctx context.Context, email, pw, username string, cb ConfirmationCallback) (int, error) {
	return e.register(ctx, false, email, pw, username, cb)
}

// RegisterWithUniqueUsername describes the registerwithuniqueusername operation and its observable behavior.
//
// It behaves like [Engine.Register] but refuses registration with
// ErrDuplicateUsername when another account already carries the username.
func (e *Engine) RegisterWithUniqueUsername(ctx context.Context, email, pw, username string, cb ConfirmationCallback) (int, error) {
	return e.register(ctx, true, email, pw, username, cb)
}

func (e *Engine) register(ctx context.Context, requireUniqueUsername bool, email, pw, username string, cb ConfirmationCallback) (int, error) {
	if _, err := e.Throttle(ctx, []string{"enumerateUsers", e.clientIP}, 1, time.Hour, &ThrottleOptions{Burstiness: 75}); err != nil {
		return 0, err
	}
	// simulate first so a failed registration never burns the allowance
	if _, err := e.Throttle(ctx, []string{"createNewAccount", e.clientIP}, 1, 12*time.Hour, &ThrottleOptions{Burstiness: 5, Simulated: true}); err != nil {
		return 0, err
	}

	id, err := e.createUser(ctx, requireUniqueUsername, email, pw, username, cb)
	if err != nil {
		return 0, err
	}

	if _, err := e.Throttle(ctx, []string{"createNewAccount", e.clientIP}, 1, 12*time.Hour, &ThrottleOptions{Burstiness: 5}); err != nil {
		return 0, err
	}

	return id, nil
}
