package util

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// NewULID generates a new ULID string, used as request id.
func NewULID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
