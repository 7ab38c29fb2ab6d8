package envelope

import "github.com/google/uuid"

// NewID generates a new envelope ID
func NewID() ID {
	return ID{uuid.New()}
}

// ID represents an envelope ID
type ID struct {
	uuid.UUID
}

// ParseID parses envelope ID from string
func ParseID(id string) ID {
	return ID{uuid.MustParse(id)}
}
