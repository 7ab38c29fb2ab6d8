// Package envelope implements the budget envelope bounded context
package envelope

import (
	"github.com/moneywise/core/aggregate"
)

var (
	// ErrNotOwnedByUser is returned when a command's user does not own the
	// envelope. It is checked before any other invariant
	ErrNotOwnedByUser = aggregate.NewViolation("envelope is not owned by user")

	// ErrEnvelopeDeleted is returned for any mutating operation on a
	// deleted (tombstoned) envelope
	ErrEnvelopeDeleted = aggregate.NewViolation("envelope is deleted")

	// ErrAmountExceeded is returned when a credit would push the balance
	// above the target or a debit would push it below zero
	ErrAmountExceeded = aggregate.NewViolation("amount exceeded")

	// ErrCurrencyMismatch is returned when an amount's currency differs
	// from the envelope currency
	ErrCurrencyMismatch = aggregate.NewViolation("currency mismatch")

	// ErrInvalidAmount is returned for zero or negative amounts
	ErrInvalidAmount = aggregate.NewViolation("amount must be positive")

	// ErrNameTaken is returned when the user already has an envelope with
	// the same name
	ErrNameTaken = aggregate.NewViolation("envelope name already exists")
)

// New opens a new budget envelope for a user
func New(id ID, userID string, name string, target Money) (*Envelope, error) {
	if !target.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var env Envelope

	env.Rehydrate(&env)

	env.Apply(
		EnvelopeOpened{
			EnvelopeID:   id.String(),
			UserID:       userID,
			Name:         name,
			TargetAmount: target.Amount,
			Currency:     target.Currency,
		},
	)

	return &env, nil
}

// Envelope represents a budget envelope aggregate - a named money pot with
// a savings target, owned by a single user
type Envelope struct {
	aggregate.Root[ID]

	userID  string
	name    string
	target  Money
	current Money
	deleted bool
}

// Credit increases the envelope balance, keeping it within the target
func (e *Envelope) Credit(userID string, amount Money) error {
	if err := e.guard(userID, amount); err != nil {
		return err
	}

	if e.current.Add(amount).GreaterThan(e.target) {
		return ErrAmountExceeded
	}

	e.Apply(
		EnvelopeCredited{
			Amount:   amount.Amount,
			Currency: amount.Currency,
		},
	)

	return nil
}

// Debit decreases the envelope balance, keeping it at or above zero
func (e *Envelope) Debit(userID string, amount Money) error {
	if err := e.guard(userID, amount); err != nil {
		return err
	}

	if e.current.Sub(amount).IsNegative() {
		return ErrAmountExceeded
	}

	e.Apply(
		EnvelopeDebited{
			Amount:   amount.Amount,
			Currency: amount.Currency,
		},
	)

	return nil
}

// Delete raises the envelope tombstone. Deleting an already deleted
// envelope is rejected (while the stream stays untouched)
func (e *Envelope) Delete(userID string) error {
	if userID != e.userID {
		return ErrNotOwnedByUser
	}

	if e.deleted {
		return ErrEnvelopeDeleted
	}

	e.Apply(
		EnvelopeDeleted{
			EnvelopeID: e.StringID(),
		},
	)

	return nil
}

// Balance returns the current envelope balance
func (e *Envelope) Balance() Money { return e.current }

// Target returns the envelope savings target
func (e *Envelope) Target() Money { return e.target }

// Name returns the envelope name
func (e *Envelope) Name() string { return e.name }

// UserID returns the owning user id
func (e *Envelope) UserID() string { return e.userID }

// IsDeleted reports whether the envelope tombstone has been applied
func (e *Envelope) IsDeleted() bool { return e.deleted }

func (e *Envelope) guard(userID string, amount Money) error {
	if userID != e.userID {
		return ErrNotOwnedByUser
	}

	if e.deleted {
		return ErrEnvelopeDeleted
	}

	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	if amount.Currency != e.current.Currency {
		return ErrCurrencyMismatch
	}

	return nil
}

// OnEnvelopeOpened handler
func (e *Envelope) OnEnvelopeOpened(evt EnvelopeOpened) {
	e.SetID(ParseID(evt.EnvelopeID))

	e.userID = evt.UserID
	e.name = evt.Name
	e.target = NewMoney(evt.TargetAmount, evt.Currency)
	e.current = NewMoney(0, evt.Currency)
}

// OnEnvelopeCredited handler
func (e *Envelope) OnEnvelopeCredited(evt EnvelopeCredited) {
	e.current = e.current.Add(NewMoney(evt.Amount, evt.Currency))
}

// OnEnvelopeDebited handler
func (e *Envelope) OnEnvelopeDebited(evt EnvelopeDebited) {
	e.current = e.current.Sub(NewMoney(evt.Amount, evt.Currency))
}

// OnEnvelopeDeleted handler
func (e *Envelope) OnEnvelopeDeleted(_ EnvelopeDeleted) {
	e.deleted = true
}
