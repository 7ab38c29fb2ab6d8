// Package aggregate provides an event sourcing friendly aggregate base type
// along with an event sourced aggregate store (repository), multi-aggregate
// atomic commit and temporal replay helpers
package aggregate

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrMissingAggregateEventHandler is returned when aggregate event handler is missing
	// On{EventName} method
	ErrMissingAggregateEventHandler = fmt.Errorf("missing aggregate event handler")

	// ErrAggregateRootNotAPointer is returned when supplied aggregate root is not a pointer
	ErrAggregateRootNotAPointer = fmt.Errorf("aggregate needs to be a pointer")

	// ErrAggregateRootNotRehydrated is returned when aggregate is not rehydrated (with Rehydrate method)
	ErrAggregateRootNotRehydrated = fmt.Errorf("aggregate needs to be rehydrated")
)

// Event wraps a domain event with the identity and timestamp it will be
// (or was) stored with
type Event struct {
	ID         string
	E          any
	OccurredOn time.Time
	RequestID  string
}

// Rooter is implemented by any aggregate embedding Root
type Rooter interface {
	Rehydrate(aggregatePtr any, events ...Event)
	Events() []Event
	StringID() string
	Version() int
}

// Root represents a reusable event sourcing friendly aggregate
// base type which provides helpers for aggregate rehydration and
// event handler execution.
// The aggregate never persists its own state - it is rebuilt from its
// event stream on every load
type Root[T fmt.Stringer] struct {
	id T

	version      int
	domainEvents []Event

	ptr reflect.Value
}

// Rehydrate is used to construct and rehydrate the aggregate from events,
// folding them in strict order
func (a *Root[T]) Rehydrate(aggregatePtr any, events ...Event) {
	a.ptr = reflect.ValueOf(aggregatePtr)

	if a.ptr.Kind() != reflect.Ptr {
		panic(ErrAggregateRootNotAPointer)
	}

	for _, evt := range events {
		a.mutate(evt.E)

		a.version++
	}
}

// SetID sets the aggregate identity (meant to be called from the
// creation event handler)
func (a *Root[T]) SetID(id T) { a.id = id }

// ID returns the aggregate identity
func (a *Root[T]) ID() T { return a.id }

// StringID returns the aggregate identity in its stream form
func (a *Root[T]) StringID() string { return a.id.String() }

// Version returns current version of the aggregate - it always equals the
// number of events folded into it (committed and uncommitted alike)
func (a *Root[T]) Version() int { return a.version }

// Events returns uncommitted domain events (produced by calling Apply)
func (a *Root[T]) Events() []Event {
	if a.domainEvents == nil {
		return []Event{}
	}

	return a.domainEvents
}

// Apply mutates the aggregate (calls the respective event handler) and
// appends the event to the internal uncommitted slice, so that it can be
// retrieved with the Events method.
// In order for Apply to work the derived aggregate struct needs to implement
// an event handler method for all events it produces eg:
//
// If it produces event of type: SomethingImportantHappened
// Derived aggregate should have the following method implemented:
// func (a *SomeAggregate) OnSomethingImportantHappened(e SomethingImportantHappened)
func (a *Root[T]) Apply(events ...any) {
	if !a.ptr.IsValid() {
		panic(ErrAggregateRootNotRehydrated)
	}

	for _, evt := range events {
		a.mutate(evt)

		a.appendEvent(evt)

		a.version++
	}
}

func (a *Root[T]) mutate(evt any) {
	ev := reflect.TypeOf(evt)

	hName := fmt.Sprintf("On%s", ev.Name())

	h := a.ptr.MethodByName(hName)

	if !h.IsValid() {
		panic(ErrMissingAggregateEventHandler)
	}

	h.Call([]reflect.Value{
		reflect.ValueOf(evt),
	})
}

func (a *Root[T]) appendEvent(evt any) {
	id, err := uuid.NewV7()
	if err != nil {
		panic(err)
	}

	a.domainEvents = append(a.domainEvents, Event{
		ID:         id.String(),
		E:          evt,
		OccurredOn: time.Now().UTC(),
	})
}
