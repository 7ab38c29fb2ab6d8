// Package user implements the user bounded context along with the email
// uniqueness registry aggregate that protects global email uniqueness
package user

import (
	"time"

	"github.com/moneywise/core/aggregate"
)

var (
	// ErrUserDeleted is returned for any mutating operation on a deleted
	// (tombstoned) user
	ErrUserDeleted = aggregate.NewViolation("user is deleted")

	// ErrWrongPassword is returned when the presented old password does
	// not match the currently applied one
	ErrWrongPassword = aggregate.NewViolation("wrong password")

	// ErrNoResetRequested is returned when a password reset is attempted
	// without a pending reset request
	ErrNoResetRequested = aggregate.NewViolation("no password reset requested")

	// ErrInvalidResetToken is returned when the presented reset token does
	// not match the issued one
	ErrInvalidResetToken = aggregate.NewViolation("invalid password reset token")

	// ErrTokenExpired is returned when the presented reset token has
	// expired
	ErrTokenExpired = aggregate.NewViolation("password reset token expired")
)

// SignUp signs up a new user with a hashed password
func SignUp(id ID, email string, fullName string, password string, hasher PasswordHasher) (*User, error) {
	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	var usr User

	usr.Rehydrate(&usr)

	usr.Apply(
		UserSignedUp{
			UserID:       id.String(),
			Email:        email,
			FullName:     fullName,
			PasswordHash: hash,
		},
	)

	return &usr, nil
}

// User represents a user aggregate
type User struct {
	aggregate.Root[ID]

	email        string
	fullName     string
	passwordHash string

	resetToken     string
	resetExpiresAt time.Time

	deleted bool
}

// ChangePassword changes the user password after verifying the presented
// old password against the currently applied hash
func (u *User) ChangePassword(oldPassword string, newPassword string, hasher PasswordHasher) error {
	if u.deleted {
		return ErrUserDeleted
	}

	if err := hasher.Verify(u.passwordHash, oldPassword); err != nil {
		return ErrWrongPassword
	}

	hash, err := hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	u.Apply(
		PasswordChanged{
			PasswordHash: hash,
		},
	)

	return nil
}

// RequestPasswordReset issues a reset token valid until expiresAt
func (u *User) RequestPasswordReset(token string, expiresAt time.Time) error {
	if u.deleted {
		return ErrUserDeleted
	}

	u.Apply(
		PasswordResetRequested{
			Token:     token,
			ExpiresAt: expiresAt,
		},
	)

	return nil
}

// ResetPassword resets the password if the presented token matches the
// issued one and has not expired
func (u *User) ResetPassword(token string, now time.Time, newPassword string, hasher PasswordHasher) error {
	if u.deleted {
		return ErrUserDeleted
	}

	if u.resetToken == "" {
		return ErrNoResetRequested
	}

	if token != u.resetToken {
		return ErrInvalidResetToken
	}

	if now.After(u.resetExpiresAt) {
		return ErrTokenExpired
	}

	hash, err := hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	u.Apply(
		PasswordReset{
			PasswordHash: hash,
		},
	)

	return nil
}

// Delete raises the user tombstone. Deleting an already deleted user is
// rejected (while the stream stays untouched)
func (u *User) Delete() error {
	if u.deleted {
		return ErrUserDeleted
	}

	u.Apply(
		UserDeleted{
			UserID: u.StringID(),
		},
	)

	return nil
}

// Email returns the user email
func (u *User) Email() string { return u.email }

// FullName returns the user full name
func (u *User) FullName() string { return u.fullName }

// IsDeleted reports whether the user tombstone has been applied
func (u *User) IsDeleted() bool { return u.deleted }

// OnUserSignedUp handler
func (u *User) OnUserSignedUp(evt UserSignedUp) {
	u.SetID(ParseID(evt.UserID))

	u.email = evt.Email
	u.fullName = evt.FullName
	u.passwordHash = evt.PasswordHash
}

// OnPasswordChanged handler
func (u *User) OnPasswordChanged(evt PasswordChanged) {
	u.passwordHash = evt.PasswordHash
}

// OnPasswordResetRequested handler
func (u *User) OnPasswordResetRequested(evt PasswordResetRequested) {
	u.resetToken = evt.Token
	u.resetExpiresAt = evt.ExpiresAt
}

// OnPasswordReset handler
func (u *User) OnPasswordReset(evt PasswordReset) {
	u.passwordHash = evt.PasswordHash
	u.resetToken = ""
	u.resetExpiresAt = time.Time{}
}

// OnUserDeleted handler
func (u *User) OnUserDeleted(_ UserDeleted) {
	u.deleted = true
}
