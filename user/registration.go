package user

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/moneywise/core/aggregate"
)

// ErrUserAlreadyExists is returned when the email is already registered
// to another user
var ErrUserAlreadyExists = aggregate.NewViolation("user already exists")

// ErrEmailNotClaimed is returned when releasing an email that is not
// registered
var ErrEmailNotClaimed = aggregate.NewViolation("email is not claimed")

// HashEmail returns the stable hash an email is registered under - emails
// never land in the registry stream in plaintext
func HashEmail(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))

	return hex.EncodeToString(sum[:])
}

// RegistrationID represents an email registration stream id
type RegistrationID string

// NewRegistrationID derives the registration stream id for an email
func NewRegistrationID(email string) RegistrationID {
	return RegistrationID("email/" + HashEmail(email))
}

// String implements fmt.Stringer
func (id RegistrationID) String() string { return string(id) }

// NewRegistration constructs an empty (unclaimed) email registration
func NewRegistration(id RegistrationID) *Registration {
	var reg Registration

	reg.Rehydrate(&reg)
	reg.SetID(id)

	return &reg
}

// Registration is the email uniqueness registry aggregate - one stream per
// hashed email, recording whether the email is registered and to whom.
// It is committed in the same atomic transaction as the user stream whose
// uniqueness it protects, closing the check-then-act race between
// concurrent sign ups
type Registration struct {
	aggregate.Root[RegistrationID]

	registered bool
	ownerID    string
}

// Claim registers the email to a user
func (r *Registration) Claim(userID string) error {
	if r.registered {
		return ErrUserAlreadyExists
	}

	r.Apply(
		EmailClaimed{
			EmailHash: strings.TrimPrefix(r.StringID(), "email/"),
			UserID:    userID,
		},
	)

	return nil
}

// Release frees the email so it can be claimed again (eg. after the owning
// user is deleted)
func (r *Registration) Release() error {
	if !r.registered {
		return ErrEmailNotClaimed
	}

	r.Apply(
		EmailReleased{
			EmailHash: strings.TrimPrefix(r.StringID(), "email/"),
		},
	)

	return nil
}

// IsRegistered reports whether the email is currently claimed
func (r *Registration) IsRegistered() bool { return r.registered }

// OwnerID returns the id of the claiming user (empty when unclaimed)
func (r *Registration) OwnerID() string { return r.ownerID }

// OnEmailClaimed handler
func (r *Registration) OnEmailClaimed(evt EmailClaimed) {
	r.SetID(RegistrationID("email/" + evt.EmailHash))

	r.registered = true
	r.ownerID = evt.UserID
}

// OnEmailReleased handler
func (r *Registration) OnEmailReleased(_ EmailReleased) {
	r.registered = false
	r.ownerID = ""
}
