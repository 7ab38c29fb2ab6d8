package user

import "github.com/google/uuid"

// NewID generates a new user ID
func NewID() ID {
	return ID{uuid.New()}
}

// ID represents a user ID
type ID struct {
	uuid.UUID
}

// ParseID parses user ID from string
func ParseID(id string) ID {
	return ID{uuid.MustParse(id)}
}
