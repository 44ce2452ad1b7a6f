package models

import (
	"time"

	"github.com/google/uuid"
)

// NewID returns a fresh entity identifier.
func NewID() string {
	return uuid.NewString()
}

// Now returns the creation timestamp used for new entities. Millisecond
// precision keeps values identical after a round trip through MongoDB.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func ensureID(id *string) {
	if *id == "" {
		*id = NewID()
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
