package eventstore_test

import (
	"reflect"
	"testing"

	"github.com/moneywise/core/eventstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type SomeEvent struct {
	UserID string
}

type AnotherEvent struct {
	Smth string
}

func testRegistry(t *testing.T) *eventstore.Registry {
	t.Helper()

	reg, err := eventstore.NewRegistry(
		eventstore.Def{
			Tag:      "test.some-event.v2",
			Event:    SomeEvent{},
			Aliases:  []string{"test.some-event.v1"},
			Personal: []string{"UserID"},
		},
		eventstore.Def{
			Tag:   "test.another-event.v1",
			Event: AnotherEvent{},
		},
	)
	require.NoError(t, err)

	return reg
}

func TestShouldResolveRegisteredTag(t *testing.T) {
	reg := testRegistry(t)

	typ, err := reg.Resolve("test.some-event.v2")

	assert.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(SomeEvent{}), typ)
}

func TestShouldResolveHistoricalAliasToCurrentShape(t *testing.T) {
	reg := testRegistry(t)

	typ, err := reg.Resolve("test.some-event.v1")

	assert.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(SomeEvent{}), typ)
}

func TestShouldFailFastOnUnknownTag(t *testing.T) {
	reg := testRegistry(t)

	_, err := reg.Resolve("test.dropped-event.v1")

	assert.ErrorIs(t, err, eventstore.ErrUnknownEventType)
}

func TestShouldReturnCanonicalTagForEvent(t *testing.T) {
	reg := testRegistry(t)

	tag, err := reg.TagFor(SomeEvent{})

	assert.NoError(t, err)
	assert.Equal(t, "test.some-event.v2", tag)

	tag, err = reg.TagFor(&AnotherEvent{})

	assert.NoError(t, err)
	assert.Equal(t, "test.another-event.v1", tag)
}

func TestShouldRejectUnregisteredOutgoingEvent(t *testing.T) {
	reg := testRegistry(t)

	type rogueEvent struct{}

	_, err := reg.TagFor(rogueEvent{})

	assert.ErrorIs(t, err, eventstore.ErrUnknownEventType)
}

func TestShouldCarryPersonalFieldDeclarationsForAllTags(t *testing.T) {
	reg := testRegistry(t)

	assert.Equal(t, []string{"UserID"}, reg.Personal("test.some-event.v2"))
	assert.Equal(t, []string{"UserID"}, reg.Personal("test.some-event.v1"))
	assert.Nil(t, reg.Personal("test.another-event.v1"))
}

func TestShouldRejectDuplicateTags(t *testing.T) {
	_, err := eventstore.NewRegistry(
		eventstore.Def{Tag: "test.some-event.v1", Event: SomeEvent{}},
		eventstore.Def{Tag: "test.some-event.v1", Event: AnotherEvent{}},
	)

	assert.Error(t, err)
}

func TestShouldRejectIncompleteDefs(t *testing.T) {
	_, err := eventstore.NewRegistry(
		eventstore.Def{Event: SomeEvent{}},
	)

	assert.Error(t, err)

	_, err = eventstore.NewRegistry(
		eventstore.Def{Tag: "test.some-event.v1"},
	)

	assert.Error(t, err)
}
