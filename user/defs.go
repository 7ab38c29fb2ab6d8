package user

import "github.com/moneywise/core/eventstore"

// Defs returns the event registry definitions of the user context.
// Email and FullName on UserSignedUp are declared personal data and are
// encrypted at rest by the crypto codec
func Defs() []eventstore.Def {
	return []eventstore.Def{
		{
			Tag:      "user.signed-up.v1",
			Event:    UserSignedUp{},
			Personal: []string{"Email", "FullName"},
		},
		{
			Tag:   "user.password-changed.v1",
			Event: PasswordChanged{},
		},
		{
			Tag:   "user.password-reset-requested.v1",
			Event: PasswordResetRequested{},
		},
		{
			Tag:   "user.password-reset.v1",
			Event: PasswordReset{},
		},
		{
			Tag:   "user.deleted.v1",
			Event: UserDeleted{},
		},
		{
			Tag:   "user.email-claimed.v1",
			Event: EmailClaimed{},
		},
		{
			Tag:   "user.email-released.v1",
			Event: EmailReleased{},
		},
	}
}
