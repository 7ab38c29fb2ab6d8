package eventstore

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrUnknownEventType indicates that a stored event discriminator (or an
// outgoing event type) has no registered definition.
// On the read side this means either data corruption or an undeployed
// schema migration and is fatal to the operation - events are never
// silently dropped or guessed at
var ErrUnknownEventType = errors.New("unknown event type")

// Def declares a single event kind known to the registry.
// Tag is the stable stored discriminator for the event shape - it is
// deliberately decoupled from the go type name so that renaming or moving
// the type never invalidates already stored history.
// Aliases list historical discriminators that should resolve to the same
// shape (schema evolution without rewriting stored records).
// Personal lists payload field names that hold personal data and must be
// encrypted at rest (see CryptoCodec)
type Def struct {
	Tag      string
	Event    any
	Aliases  []string
	Personal []string
}

// NewRegistry constructs an event type registry from the provided
// definitions. The registry is an explicit value meant to be constructed
// once at process start and handed to the codec by dependency injection
func NewRegistry(defs ...Def) (*Registry, error) {
	r := Registry{
		types:    make(map[string]reflect.Type),
		tags:     make(map[reflect.Type]string),
		personal: make(map[string][]string),
	}

	for _, def := range defs {
		if def.Tag == "" {
			return nil, fmt.Errorf("event definition must provide a tag")
		}

		if def.Event == nil {
			return nil, fmt.Errorf("event definition %s must provide an event prototype", def.Tag)
		}

		t := reflect.TypeOf(def.Event)

		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}

		for _, tag := range append([]string{def.Tag}, def.Aliases...) {
			if _, ok := r.types[tag]; ok {
				return nil, fmt.Errorf("duplicate event tag: %s", tag)
			}

			r.types[tag] = t

			if len(def.Personal) > 0 {
				r.personal[tag] = def.Personal
			}
		}

		r.tags[t] = def.Tag
	}

	return &r, nil
}

// Registry maps stable stored discriminators to in-memory event shapes
// and back, and carries the per-event personal data field declarations
type Registry struct {
	types    map[string]reflect.Type
	tags     map[reflect.Type]string
	personal map[string][]string
}

// Resolve resolves a stored discriminator to the event shape it should be
// unmarshalled into. Unknown discriminators fail with ErrUnknownEventType
func (r *Registry) Resolve(tag string) (reflect.Type, error) {
	t, ok := r.types[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, tag)
	}

	return t, nil
}

// TagFor returns the current (canonical) discriminator for an outgoing
// event. Events that were never registered fail with ErrUnknownEventType
// before they ever reach storage
func (r *Registry) TagFor(evt any) (string, error) {
	t := reflect.TypeOf(evt)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	tag, ok := r.tags[t]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownEventType, t.Name())
	}

	return tag, nil
}

// Personal returns the declared personal data fields for a discriminator
// (nil when the event carries none)
func (r *Registry) Personal(tag string) []string {
	return r.personal[tag]
}
