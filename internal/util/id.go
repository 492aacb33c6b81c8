package util

import "github.com/google/uuid"

// NewID returns a random UUID string used for every record ID.
func NewID() string {
	return uuid.NewString()
}
