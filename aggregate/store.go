package aggregate

import (
	"context"
	"errors"

	"github.com/moneywise/core/eventstore"
)

// EventStore represents the event store surface the aggregate store needs
type EventStore interface {
	AppendStream(ctx context.Context, id string, version int, events []eventstore.EventToStore) error
	ReadStream(ctx context.Context, id string) ([]eventstore.StoredEvent, error)
}

// Tracker represents the atomic multi-stream commit surface of the
// event store
type Tracker interface {
	TrackAggregates(ctx context.Context, changes ...eventstore.StreamChange) error
}

// NewStore constructs new event sourced aggregate store
func NewStore[T Rooter](eventStore EventStore) *Store[T] {
	return &Store[T]{
		eventStore: eventStore,
	}
}

// Store represents event sourced aggregate store.
// It loads aggregates by folding their streams and saves them by appending
// their uncommitted events behind an optimistic concurrency check
type Store[T Rooter] struct {
	eventStore EventStore
}

// ByID finds aggregate events by aggregate id and rehydrates the aggregate
// in strict sequence order.
// It returns ErrAggregateNotFound if no events exist for the id
func (s *Store[T]) ByID(ctx context.Context, id string, root T) error {
	storedEvents, err := s.eventStore.ReadStream(ctx, id)
	if err != nil {
		if errors.Is(err, eventstore.ErrStreamNotFound) {
			return ErrAggregateNotFound
		}

		return err
	}

	root.Rehydrate(root, toEvents(storedEvents)...)

	return nil
}

// Save appends the aggregate's uncommitted events to its stream, using the
// version observed at load time as the concurrency guard. Saving an
// aggregate with no uncommitted events is a no-op.
// eventstore.ErrConcurrencyCheckFailed is propagated unchanged - the
// caller has to reload and re-run its domain decision, a retry is never
// attempted here
func (s *Store[T]) Save(ctx context.Context, root T) error {
	change := changeFor(ctx, root)

	if change == nil {
		return nil
	}

	return s.eventStore.AppendStream(ctx, change.Stream, change.ExpectedVer, change.Events)
}

// Commit saves uncommitted events of multiple aggregates atomically -
// either every aggregate's stream advances or none do.
// It is meant for commands whose invariants span more than one aggregate
// (eg. claiming a unique email and creating the user)
func Commit(ctx context.Context, tracker Tracker, roots ...Rooter) error {
	var changes []eventstore.StreamChange

	for _, root := range roots {
		change := changeFor(ctx, root)

		if change == nil {
			continue
		}

		changes = append(changes, *change)
	}

	if len(changes) == 0 {
		return nil
	}

	return tracker.TrackAggregates(ctx, changes...)
}

func changeFor(ctx context.Context, root Rooter) *eventstore.StreamChange {
	events := root.Events()

	if len(events) == 0 {
		return nil
	}

	requestID := RequestIDFromCtx(ctx)

	toStore := make([]eventstore.EventToStore, len(events))

	for i, evt := range events {
		toStore[i] = eventstore.EventToStore{
			Event:      evt.E,
			ID:         evt.ID,
			RequestID:  requestID,
			OccurredOn: evt.OccurredOn,
		}
	}

	return &eventstore.StreamChange{
		Stream:      root.StringID(),
		ExpectedVer: root.Version() - len(events),
		Events:      toStore,
	}
}

func toEvents(storedEvents []eventstore.StoredEvent) []Event {
	events := make([]Event, len(storedEvents))

	for i, evt := range storedEvents {
		events[i] = Event{
			ID:         evt.ID,
			E:          evt.Event,
			OccurredOn: evt.OccurredOn,
			RequestID:  evt.RequestID,
		}
	}

	return events
}
