package state

import "github.com/google/uuid"

// NewClientID returns a fresh random session identifier. It is generated once
// per process and handed to the session explicitly so tests can supply their
// own deterministic ids.
func NewClientID() string {
	return uuid.NewString()
}

// ValidClientID reports whether id parses as a UUID.
func ValidClientID(id string) bool {
	return uuid.Validate(id) == nil
}
