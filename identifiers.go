package sqlauth

import (
	"github.com/google/uuid"

	"github.com/MrEthical07/sqlauth/internal"
)

// CreateUUID returns a random version 4 UUID in canonical textual form,
// e.g. for use as an external account identifier.
func CreateUUID() string {
	return uuid.NewString()
}

// CreateRandomString returns a random string of the given maximum length
// drawn from a URL-safe alphabet, e.g. for use as a custom selector or
// token.
func CreateRandomString(maxLength int) (string, error) {
	return internal.CreateRandomString(maxLength)
}
