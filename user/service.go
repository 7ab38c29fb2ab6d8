package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/moneywise/core/aggregate"
)

// EventStore represents the event store surface the user service needs -
// single stream loads/saves plus the atomic multi-stream commit
type EventStore interface {
	aggregate.EventStore
	aggregate.Tracker
}

// NewService constructs the user command service
func NewService(es EventStore, hasher PasswordHasher, opts ...ServiceOpt) *Service {
	s := Service{
		users:    aggregate.NewStore[*User](es),
		regs:     aggregate.NewStore[*Registration](es),
		tracker:  es,
		hasher:   hasher,
		now:      time.Now,
		tokenTTL: time.Hour,
	}

	for _, opt := range opts {
		opt(&s)
	}

	return &s
}

// ServiceOpt represents a user service configuration option
type ServiceOpt func(*Service)

// WithTokenTTL configures how long issued password reset tokens stay valid
func WithTokenTTL(ttl time.Duration) ServiceOpt {
	return func(s *Service) {
		s.tokenTTL = ttl
	}
}

// WithClock overrides the service clock (used by tests)
func WithClock(now func() time.Time) ServiceOpt {
	return func(s *Service) {
		s.now = now
	}
}

// Service is the command surface of the user context.
// Concurrency conflicts from the store surface unchanged - it is up to the
// caller to reload and re-run the decision
type Service struct {
	users   *aggregate.Store[*User]
	regs    *aggregate.Store[*Registration]
	tracker aggregate.Tracker
	hasher  PasswordHasher

	now      func() time.Time
	tokenTTL time.Duration
}

// SignUp registers the email and creates the user in one atomic commit -
// either both streams advance or neither does, so two concurrent sign ups
// with the same email can never both succeed
func (s *Service) SignUp(ctx context.Context, email string, fullName string, password string) (ID, error) {
	reg, err := s.registration(ctx, email)
	if err != nil {
		return ID{}, err
	}

	id := NewID()

	if err := reg.Claim(id.String()); err != nil {
		return ID{}, err
	}

	usr, err := SignUp(id, email, fullName, password, s.hasher)
	if err != nil {
		return ID{}, err
	}

	return id, aggregate.Commit(ctx, s.tracker, reg, usr)
}

// ChangePassword changes the user password after verifying the old one
func (s *Service) ChangePassword(ctx context.Context, id ID, oldPassword string, newPassword string) error {
	var usr User

	usr.SetID(id)

	return aggregate.Exec(ctx, s.users, &usr, func(ctx context.Context) error {
		return usr.ChangePassword(oldPassword, newPassword, s.hasher)
	})
}

// RequestPasswordReset issues a fresh reset token for the user and
// returns it (delivery to the user is up to the caller)
func (s *Service) RequestPasswordReset(ctx context.Context, id ID) (string, error) {
	token := uuid.NewString()

	var usr User

	usr.SetID(id)

	err := aggregate.Exec(ctx, s.users, &usr, func(ctx context.Context) error {
		return usr.RequestPasswordReset(token, s.now().Add(s.tokenTTL))
	})
	if err != nil {
		return "", err
	}

	return token, nil
}

// ResetPassword resets the user password with a previously issued token
func (s *Service) ResetPassword(ctx context.Context, id ID, token string, newPassword string) error {
	var usr User

	usr.SetID(id)

	return aggregate.Exec(ctx, s.users, &usr, func(ctx context.Context) error {
		return usr.ResetPassword(token, s.now(), newPassword, s.hasher)
	})
}

// Delete tombstones the user and releases their email claim in the same
// atomic commit, so the email becomes claimable again
func (s *Service) Delete(ctx context.Context, id ID) error {
	var usr User

	if err := s.users.ByID(ctx, id.String(), &usr); err != nil {
		return err
	}

	if err := usr.Delete(); err != nil {
		return err
	}

	reg, err := s.registration(ctx, usr.Email())
	if err != nil {
		return err
	}

	if err := reg.Release(); err != nil {
		return err
	}

	return aggregate.Commit(ctx, s.tracker, &usr, reg)
}

func (s *Service) registration(ctx context.Context, email string) (*Registration, error) {
	regID := NewRegistrationID(email)

	reg := NewRegistration(regID)

	err := s.regs.ByID(ctx, regID.String(), reg)
	if err != nil && !errors.Is(err, aggregate.ErrAggregateNotFound) {
		return nil, err
	}

	return reg, nil
}
