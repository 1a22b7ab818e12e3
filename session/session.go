// Package session models the per-request session state that the
// authentication engine caches between database resynchronizations. The
// engine only depends on the [Store] contract; the in-memory and Redis
// implementations in this package cover tests, single-process servers, and
// shared session backends.
package session

import "context"

// Data is the authentication state carried by a session. It is a cache of a
// subset of the user row plus session-only flags; the user table remains the
// authoritative source and Data is refreshed on resynchronization.
type Data struct {
	LoggedIn    bool   `json:"logged_in"`
	UserID      int    `json:"user_id"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	Status      int    `json:"status"`
	Roles       uint32 `json:"roles"`
	ForceLogout int    `json:"force_logout"`
	Remembered  bool   `json:"remembered"`
	LastResync  int64  `json:"last_resync"`
}

// Store is the durable session storage contract consumed by the engine: a
// keyed record surviving across requests for the same logical session.
// RegenerateID must replace the session identifier while preserving the
// stored data (anti-fixation); Clear must remove the data entirely.
type Store interface {
	ID() string
	Load(ctx context.Context) (Data, error)
	Save(ctx context.Context, d Data) error
	Clear(ctx context.Context) error
	RegenerateID(ctx context.Context) error
}
