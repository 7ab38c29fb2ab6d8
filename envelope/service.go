package envelope

import (
	"context"

	"github.com/moneywise/core/aggregate"
)

// NameIndex is the read model lookup used to check envelope name
// uniqueness per user before opening a new envelope
type NameIndex interface {
	Exists(ctx context.Context, userID string, name string) (bool, error)
}

// NewService constructs the envelope command service
func NewService(es aggregate.EventStore, names NameIndex) *Service {
	store := aggregate.NewStore[*Envelope](es)

	return &Service{
		store: store,
		exec:  aggregate.NewExecutor(store),
		names: names,
	}
}

// Service is the command surface of the envelope context.
// Concurrency conflicts from the store surface unchanged - it is up to the
// caller to reload and re-run the decision
type Service struct {
	store *aggregate.Store[*Envelope]
	exec  aggregate.Executor[*Envelope]
	names NameIndex
}

// Open opens a new envelope after checking the name against the read
// model index.
// NOTE: the index is eventually consistent, so two concurrent opens with
// the same name can both pass the check - a documented weak guarantee
func (s *Service) Open(ctx context.Context, userID string, name string, target Money) (ID, error) {
	taken, err := s.names.Exists(ctx, userID, name)
	if err != nil {
		return ID{}, err
	}

	if taken {
		return ID{}, ErrNameTaken
	}

	id := NewID()

	env, err := New(id, userID, name, target)
	if err != nil {
		return ID{}, err
	}

	return id, s.store.Save(ctx, env)
}

// Credit credits an envelope on behalf of a user
func (s *Service) Credit(ctx context.Context, id ID, userID string, amount Money) error {
	var env Envelope

	env.SetID(id)

	return s.exec(ctx, &env, func(ctx context.Context) error {
		return env.Credit(userID, amount)
	})
}

// Debit debits an envelope on behalf of a user
func (s *Service) Debit(ctx context.Context, id ID, userID string, amount Money) error {
	var env Envelope

	env.SetID(id)

	return s.exec(ctx, &env, func(ctx context.Context) error {
		return env.Debit(userID, amount)
	})
}

// Delete tombstones an envelope on behalf of a user
func (s *Service) Delete(ctx context.Context, id ID, userID string) error {
	var env Envelope

	env.SetID(id)

	return s.exec(ctx, &env, func(ctx context.Context) error {
		return env.Delete(userID)
	})
}
