package internal

import (
	"crypto/rand"
	"encoding/base64"
)

// CreateRandomString returns a cryptographically random string of at most
// maxLength characters. maxLength should be an integer multiple of 4; with
// the default of 24 the output carries at least as much randomness as a UUID.
func CreateRandomString(maxLength int) (string, error) {
	if maxLength < 4 {
		maxLength = 4
	}

	// three bytes of randomness per four characters of base64 output
	raw := make([]byte, maxLength/4*3)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	return base64.URLEncoding.EncodeToString(raw), nil
}
