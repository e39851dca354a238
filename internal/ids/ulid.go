// Package ids provides identifier primitives used for user records.
package ids

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewULID returns a new ULID string (26 chars). A zero time means now.
func NewULID(now time.Time) (string, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// MustNewULID is NewULID for callers that cannot handle a failed entropy read.
func MustNewULID() string {
	id, err := NewULID(time.Time{})
	if err != nil {
		panic("ids: " + err.Error())
	}
	return id
}
