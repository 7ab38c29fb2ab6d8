package user

import "time"

// UserSignedUp domain event indicates that a new user has signed up.
// Email and FullName are personal data and are encrypted at rest (see the
// registry definitions in Defs)
type UserSignedUp struct {
	UserID       string
	Email        string
	FullName     string
	PasswordHash string
}

// PasswordChanged domain event indicates that the user changed their
// password after presenting the old one
type PasswordChanged struct {
	PasswordHash string
}

// PasswordResetRequested domain event indicates that a reset token has
// been issued for the user
type PasswordResetRequested struct {
	Token     string
	ExpiresAt time.Time
}

// PasswordReset domain event indicates that the password was reset with a
// valid token
type PasswordReset struct {
	PasswordHash string
}

// UserDeleted is the user tombstone - the user is logically deleted while
// their full history remains for audit and rewind
type UserDeleted struct {
	UserID string
}

// EmailClaimed domain event indicates that a hashed email has been
// registered to a user
type EmailClaimed struct {
	EmailHash string
	UserID    string
}

// EmailReleased domain event indicates that a hashed email is free to be
// claimed again
type EmailReleased struct {
	EmailHash string
}
