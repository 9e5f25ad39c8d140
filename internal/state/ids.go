package state

import (
	"time"

	"github.com/google/uuid"
)

// IDFunc produces element ids. They must be unique for the store's lifetime.
type IDFunc func() string

// NewID returns a random UUID string.
func NewID() string {
	return uuid.NewString()
}

// nowMillis is the placement clock.
func nowMillis() int64 {
	return time.Now().UnixMilli()
}
