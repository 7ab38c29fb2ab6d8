package aggregate

import (
	"context"
	"errors"
	"time"

	"github.com/moneywise/core/eventstore"
)

// NewRewinder constructs a rewinder over the given event store
func NewRewinder[T Rooter](eventStore EventStore) *Rewinder[T] {
	return &Rewinder[T]{
		eventStore: eventStore,
	}
}

// Rewinder reconstructs aggregate state from stored history, either fully
// (Replay) or bounded by a cutoff instant (AsOf).
// It is a pure read side facility - stored streams are never mutated
type Rewinder[T Rooter] struct {
	eventStore EventStore
}

// Replay folds the full stream onto the provided empty aggregate - the
// result is identical to a regular store load
func (r *Rewinder[T]) Replay(ctx context.Context, id string, root T) error {
	return r.fold(ctx, id, root, func(eventstore.StoredEvent) bool {
		return true
	})
}

// AsOf folds only the events that occurred at or before the cutoff instant
// onto the provided empty aggregate, reconstructing its state as of that
// instant. Events past the cutoff are never reflected
func (r *Rewinder[T]) AsOf(ctx context.Context, id string, cutoff time.Time, root T) error {
	return r.fold(ctx, id, root, func(evt eventstore.StoredEvent) bool {
		return !evt.OccurredOn.After(cutoff)
	})
}

func (r *Rewinder[T]) fold(ctx context.Context, id string, root T, keep func(eventstore.StoredEvent) bool) error {
	storedEvents, err := r.eventStore.ReadStream(ctx, id)
	if err != nil {
		if errors.Is(err, eventstore.ErrStreamNotFound) {
			return ErrAggregateNotFound
		}

		return err
	}

	var kept []eventstore.StoredEvent

	for _, evt := range storedEvents {
		if !keep(evt) {
			continue
		}

		kept = append(kept, evt)
	}

	root.Rehydrate(root, toEvents(kept)...)

	return nil
}

// ReplayStream re-publishes the stored events of a single stream to the
// provided projection, in sequence order and without any decision logic -
// typically used to rebuild a corrupted read model
func ReplayStream(ctx context.Context, eventStore EventStore, id string, project func(eventstore.StoredEvent) error) error {
	storedEvents, err := eventStore.ReadStream(ctx, id)
	if err != nil {
		return err
	}

	for _, evt := range storedEvents {
		if err := project(evt); err != nil {
			return err
		}
	}

	return nil
}
