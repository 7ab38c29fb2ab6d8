package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/moneywise/core/eventstore"
	"github.com/moneywise/core/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEventStore mimics the real store's per-stream optimistic concurrency
// and all-or-nothing multi-stream commit semantics in memory
type fakeEventStore struct {
	streams    map[string][]eventstore.StoredEvent
	trackCalls int
	trackErr   error
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{
		streams: make(map[string][]eventstore.StoredEvent),
	}
}

func (f *fakeEventStore) ReadStream(_ context.Context, id string) ([]eventstore.StoredEvent, error) {
	events, ok := f.streams[id]
	if !ok {
		return nil, eventstore.ErrStreamNotFound
	}

	return events, nil
}

func (f *fakeEventStore) AppendStream(ctx context.Context, id string, version int, events []eventstore.EventToStore) error {
	return f.TrackAggregates(ctx, eventstore.StreamChange{
		Stream:      id,
		ExpectedVer: version,
		Events:      events,
	})
}

func (f *fakeEventStore) TrackAggregates(_ context.Context, changes ...eventstore.StreamChange) error {
	f.trackCalls++

	if f.trackErr != nil {
		return f.trackErr
	}

	for _, change := range changes {
		if len(f.streams[change.Stream]) != change.ExpectedVer {
			return eventstore.ErrConcurrencyCheckFailed
		}
	}

	for _, change := range changes {
		for i, evt := range change.Events {
			f.streams[change.Stream] = append(f.streams[change.Stream], eventstore.StoredEvent{
				Event:         evt.Event,
				ID:            evt.ID,
				StreamID:      change.Stream,
				StreamVersion: change.ExpectedVer + i + 1,
				OccurredOn:    evt.OccurredOn,
			})
		}
	}

	return nil
}

func TestShouldSignUpNewUserAtomically(t *testing.T) {
	es := newFakeEventStore()

	svc := user.NewService(es, testHasher{})

	id, err := svc.SignUp(context.Background(), "jane@example.com", "Jane Doe", "s3cret")

	require.NoError(t, err)
	assert.Equal(t, 1, es.trackCalls)

	regStream := es.streams[user.NewRegistrationID("jane@example.com").String()]

	require.Len(t, regStream, 1)

	claimed, ok := regStream[0].Event.(user.EmailClaimed)

	require.True(t, ok)
	assert.Equal(t, id.String(), claimed.UserID)
	assert.Equal(t, user.HashEmail("jane@example.com"), claimed.EmailHash)

	userStream := es.streams[id.String()]

	require.Len(t, userStream, 1)
	assert.IsType(t, user.UserSignedUp{}, userStream[0].Event)
}

func TestShouldRejectSignUpWithRegisteredEmail(t *testing.T) {
	es := newFakeEventStore()

	svc := user.NewService(es, testHasher{})

	_, err := svc.SignUp(context.Background(), "a@example.com", "Jane Doe", "s3cret")
	require.NoError(t, err)

	_, err = svc.SignUp(context.Background(), "a@example.com", "John Doe", "s3cret")

	assert.ErrorIs(t, err, user.ErrUserAlreadyExists)

	// registry unchanged, no second user stream created
	regStream := es.streams[user.NewRegistrationID("a@example.com").String()]

	assert.Len(t, regStream, 1)
	assert.Len(t, es.streams, 2)
}

func TestNoStreamAdvancesWhenCommitConflicts(t *testing.T) {
	es := newFakeEventStore()

	es.trackErr = eventstore.ErrConcurrencyCheckFailed

	svc := user.NewService(es, testHasher{})

	_, err := svc.SignUp(context.Background(), "jane@example.com", "Jane Doe", "s3cret")

	assert.ErrorIs(t, err, eventstore.ErrConcurrencyCheckFailed)
	assert.Empty(t, es.streams)
}

func TestShouldChangePasswordThroughService(t *testing.T) {
	es := newFakeEventStore()

	svc := user.NewService(es, testHasher{})

	id, err := svc.SignUp(context.Background(), "jane@example.com", "Jane Doe", "s3cret")
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), id, "s3cret", "n3w-s3cret")

	require.NoError(t, err)

	userStream := es.streams[id.String()]

	require.Len(t, userStream, 2)
	assert.IsType(t, user.PasswordChanged{}, userStream[1].Event)

	err = svc.ChangePassword(context.Background(), id, "s3cret", "another")

	assert.ErrorIs(t, err, user.ErrWrongPassword)
}

func TestShouldResetPasswordThroughService(t *testing.T) {
	es := newFakeEventStore()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	svc := user.NewService(es, testHasher{},
		user.WithClock(func() time.Time { return now }),
		user.WithTokenTTL(time.Hour),
	)

	id, err := svc.SignUp(context.Background(), "jane@example.com", "Jane Doe", "s3cret")
	require.NoError(t, err)

	token, err := svc.RequestPasswordReset(context.Background(), id)

	require.NoError(t, err)
	require.NotEmpty(t, token)

	err = svc.ResetPassword(context.Background(), id, token, "n3w-s3cret")

	require.NoError(t, err)
	assert.NoError(t, svc.ChangePassword(context.Background(), id, "n3w-s3cret", "another"))
}

func TestShouldRejectExpiredTokenThroughService(t *testing.T) {
	es := newFakeEventStore()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	svc := user.NewService(es, testHasher{},
		user.WithClock(func() time.Time { return now }),
		user.WithTokenTTL(time.Minute),
	)

	id, err := svc.SignUp(context.Background(), "jane@example.com", "Jane Doe", "s3cret")
	require.NoError(t, err)

	token, err := svc.RequestPasswordReset(context.Background(), id)
	require.NoError(t, err)

	now = now.Add(time.Hour)

	err = svc.ResetPassword(context.Background(), id, token, "n3w-s3cret")

	assert.ErrorIs(t, err, user.ErrTokenExpired)
}

func TestDeleteShouldReleaseEmailAtomically(t *testing.T) {
	es := newFakeEventStore()

	svc := user.NewService(es, testHasher{})

	id, err := svc.SignUp(context.Background(), "jane@example.com", "Jane Doe", "s3cret")
	require.NoError(t, err)

	err = svc.Delete(context.Background(), id)

	require.NoError(t, err)

	userStream := es.streams[id.String()]

	require.Len(t, userStream, 2)
	assert.IsType(t, user.UserDeleted{}, userStream[1].Event)

	regStream := es.streams[user.NewRegistrationID("jane@example.com").String()]

	require.Len(t, regStream, 2)
	assert.IsType(t, user.EmailReleased{}, regStream[1].Event)

	// the email is claimable again
	_, err = svc.SignUp(context.Background(), "jane@example.com", "Janet Doe", "s3cret")

	assert.NoError(t, err)
}

func TestDeletedUserCannotBeDeletedTwice(t *testing.T) {
	es := newFakeEventStore()

	svc := user.NewService(es, testHasher{})

	id, err := svc.SignUp(context.Background(), "jane@example.com", "Jane Doe", "s3cret")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), id))

	err = svc.Delete(context.Background(), id)

	assert.ErrorIs(t, err, user.ErrUserDeleted)
}
