package service

import (
	"time"

	"github.com/google/uuid"
)

// now is truncated to milliseconds so every store round-trips it unchanged.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func newID() string {
	return uuid.NewString()
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
