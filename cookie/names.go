package cookie

import (
	"crypto/md5"
	"encoding/base64"
	"strconv"
	"strings"
	"time"
)

// Recognized cookie security prefixes, propagated from the seed to derived
// cookie names.
const (
	PrefixSecure = "__Secure-"
	PrefixHost   = "__Host-"
)

// namespace keeps names derived by this library distinct from names derived
// by other components sharing the same seed.
const namespace = "sqlauth"

// CreateName generates a deterministic cookie name for the given descriptor
// based on the supplied seed, e.g. the session name. A recognized security
// prefix found in the seed is carried over to the output. An empty seed falls
// back to the current Unix time, yielding a non-deterministic name.
func CreateName(descriptor, seed string) string {
	if seed == "" {
		seed = strconv.FormatInt(time.Now().Unix(), 10)
	}

	for _, prefix := range []string{PrefixSecure, PrefixHost} {
		if strings.HasPrefix(seed, prefix) {
			descriptor = prefix + descriptor
		}
	}

	sum := md5.Sum([]byte(namespace + "\n" + seed))
	token := base64.RawURLEncoding.EncodeToString(sum[:])

	return descriptor + "_" + token
}

// CreateRememberName generates the cookie name used by the "remember me"
// feature for the given session name.
func CreateRememberName(sessionName string) string {
	return CreateName("remember", sessionName)
}
