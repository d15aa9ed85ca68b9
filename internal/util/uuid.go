package util

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// ShortUUID generates a 22 character URL-safe UUID
func ShortUUID() string {
	u := uuid.New()
	return base64.RawURLEncoding.EncodeToString(u[:])
}

// NewID returns a prefixed short identifier such as "guard-3kT...".
func NewID(prefix string) string {
	id := ShortUUID()[:10]
	if prefix == "" {
		return id
	}
	return prefix + "-" + id
}
