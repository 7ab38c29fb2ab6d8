package eventstore

import "time"

// EventToStore represents an event that is to be stored in the event store
type EventToStore struct {
	Event any

	// Optional
	ID         string
	RequestID  string
	OccurredOn time.Time
}

// StoredEvent holds stored event data and meta data
type StoredEvent struct {
	Event any

	ID            string
	Sequence      uint64
	Type          string
	RequestID     string
	StreamID      string
	StreamVersion int
	OccurredOn    time.Time
}

// StreamChange represents a pending change to a single stream, used
// with TrackAggregates in order to commit multiple streams atomically
type StreamChange struct {
	Stream      string
	ExpectedVer int
	Events      []EventToStore
}
