package tool

import (
	"github.com/google/uuid"
)

// NewRunID returns an id used to correlate log lines and memo entries of one discovery run.
func NewRunID() string {
	return uuid.New().String()
}

// ShortID trims an id for log prefixes.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
