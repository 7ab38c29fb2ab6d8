package aggregate

import "errors"

var (
	// ErrAggregateNotFound is returned when no events exist for the
	// requested aggregate id
	ErrAggregateNotFound = errors.New("aggregate not found")

	// ErrInvariantViolation is the common base of every domain invariant
	// failure raised by aggregate operations. Callers can use it to tell a
	// rejected business decision (never retried) apart from infrastructure
	// failures such as a concurrency conflict (eligible for a
	// reload-and-retry loop)
	ErrInvariantViolation = errors.New("invariant violation")
)

// NewViolation constructs a domain invariant error which matches
// ErrInvariantViolation via errors.Is
func NewViolation(msg string) error {
	return violation{msg: msg}
}

type violation struct {
	msg string
}

func (v violation) Error() string { return v.msg }

func (v violation) Is(target error) bool { return target == ErrInvariantViolation }
