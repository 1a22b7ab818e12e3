package sqlauth

import (
	"errors"
	"fmt"
)

// Checked conditions: callers are expected to test for these with errors.Is
// and branch on them.
var (
	// ErrInvalidEmail is an exported constant or variable used by the authentication engine.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrInvalidPassword is an exported constant or variable used by the authentication engine.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrUserAlreadyExists is an exported constant or variable used by the authentication engine.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrDuplicateUsername is an exported constant or variable used by the authentication engine.
	ErrDuplicateUsername = errors.New("duplicate username")
	// ErrUnknownID is an exported constant or variable used by the authentication engine.
	ErrUnknownID = errors.New("unknown user id")
	// ErrUnknownUsername is an exported constant or variable used by the authentication engine.
	ErrUnknownUsername = errors.New("unknown username")
	// ErrAmbiguousUsername is an exported constant or variable used by the authentication engine.
	ErrAmbiguousUsername = errors.New("ambiguous username")
	// ErrEmailNotVerified is an exported constant or variable used by the authentication engine.
	ErrEmailNotVerified = errors.New("email address not verified")
	// ErrNotLoggedIn is an exported constant or variable used by the authentication engine.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrInvalidSelectorTokenPair is an exported constant or variable used by the authentication engine.
	ErrInvalidSelectorTokenPair = errors.New("invalid selector/token pair")
	// ErrTokenExpired is an exported constant or variable used by the authentication engine.
	ErrTokenExpired = errors.New("token expired")
	// ErrResetDisabled is an exported constant or variable used by the authentication engine.
	ErrResetDisabled = errors.New("password reset disabled for account")
	// ErrAttemptCancelled is an exported constant or variable used by the authentication engine.
	ErrAttemptCancelled = errors.New("attempt cancelled by callback")
	// ErrConfirmationRequestNotFound is an exported constant or variable used by the authentication engine.
	ErrConfirmationRequestNotFound = errors.New("confirmation request not found")
	// ErrRateLimited is an exported constant or variable used by the authentication engine.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Unchecked conditions: these indicate a programming or infrastructure fault
// and should never be branched on for user-facing behavior.
var (
	// ErrDatabase is an exported constant or variable used by the authentication engine.
	ErrDatabase = errors.New("database failure")
	// ErrMissingCallback is an exported constant or variable used by the authentication engine.
	ErrMissingCallback = errors.New("delivery callback required but missing")
	// ErrEmailOrUsernameRequired is an exported constant or variable used by the authentication engine.
	ErrEmailOrUsernameRequired = errors.New("either an email address or a username is required")
	// ErrUsernameRequired is an exported constant or variable used by the authentication engine.
	ErrUsernameRequired = errors.New("username required when unique usernames are enforced")
)

// RateLimitError reports a rejected throttle consultation. It always unwraps
// to [ErrRateLimited]; the fields carry enough context for the caller to
// produce an actionable message without another database round-trip. UserID,
// OpenRequests and MaxOpenRequests are only set when the rejection came from
// the open-password-reset-request cap.
type RateLimitError struct {
	WaitSeconds     int
	BucketKey       string
	Criteria        string
	UserID          int
	OpenRequests    int
	MaxOpenRequests int
}

// Error describes the error operation and its observable behavior.
func (e *RateLimitError) Error() string {
	if e.Criteria != "" {
		return fmt.Sprintf("rate limit exceeded for %q, retry in %d seconds", e.Criteria, e.WaitSeconds)
	}
	return fmt.Sprintf("rate limit exceeded, retry in %d seconds", e.WaitSeconds)
}

// Unwrap describes the unwrap operation and its observable behavior.
func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// DatabaseError wraps a failure of the underlying store. It unwraps both to
// [ErrDatabase] and to the original driver error so no message is lost.
type DatabaseError struct {
	Err error
}

// Error describes the error operation and its observable behavior.
func (e *DatabaseError) Error() string { return "database failure: " + e.Err.Error() }

// Unwrap describes the unwrap operation and its observable behavior.
func (e *DatabaseError) Unwrap() []error { return []error{ErrDatabase, e.Err} }

func wrapDB(err error) error {
	if err == nil {
		return nil
	}
	return &DatabaseError{Err: err}
}
