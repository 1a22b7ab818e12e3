// Package cookie models the cookie state that the authentication engine reads
// and writes. HTTP-level serialization is the embedding application's concern:
// an adapter translates between its framework's request/response cookies and a
// [Jar] implementation.
package cookie

import (
	"sort"
	"sync"
	"time"
)

// SameSite defines a public type used by sqlauth APIs.
type SameSite int

// SameSite restriction levels.
const (
	SameSiteNone SameSite = iota
	SameSiteLax
	SameSiteStrict
)

// Cookie defines a public type used by sqlauth APIs.
//
// Cookie instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Cookie struct {
	Name       string
	Value      string
	Expires    time.Time
	Domain     string
	Path       string
	HTTPOnly   bool
	SecureOnly bool
	SameSite   SameSite
}

// Expired reports whether the cookie's expiry lies at or before now. A zero
// expiry means a session cookie and never counts as expired.
func (c Cookie) Expired(now time.Time) bool {
	return !c.Expires.IsZero() && !c.Expires.After(now)
}

// Jar is the cookie store contract consumed by the engine: named cookies with
// get/set/delete/enumerate/clear. Implementations must be safe for use from
// the single request that owns them; they are not required to be safe for
// concurrent use.
type Jar interface {
	Get(name string) (Cookie, bool)
	Set(c Cookie) error
	Delete(name string) error
	Names() []string
	Clear() error
}

// MemoryJar is an in-memory [Jar] for tests and non-HTTP embeddings. It is
// safe for concurrent use.
type MemoryJar struct {
	mu      sync.Mutex
	cookies map[string]Cookie
}

// NewMemoryJar describes the newmemoryjar operation and its observable behavior.
func NewMemoryJar() *MemoryJar {
	return &MemoryJar{cookies: make(map[string]Cookie)}
}

// Get describes the get operation and its observable behavior.
func (j *MemoryJar) Get(name string) (Cookie, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	c, ok := j.cookies[name]
	return c, ok
}

// Set describes the set operation and its observable behavior.
func (j *MemoryJar) Set(c Cookie) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cookies[c.Name] = c
	return nil
}

// Delete describes the delete operation and its observable behavior.
func (j *MemoryJar) Delete(name string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.cookies, name)
	return nil
}

// Names describes the names operation and its observable behavior.
func (j *MemoryJar) Names() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	names := make([]string, 0, len(j.cookies))
	for name := range j.cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear describes the clear operation and its observable behavior.
func (j *MemoryJar) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cookies = make(map[string]Cookie)
	return nil
}
