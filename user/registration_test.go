package user_test

import (
	"testing"

	"github.com/moneywise/core/aggregate"
	"github.com/moneywise/core/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldClaimFreeEmail(t *testing.T) {
	reg := user.NewRegistration(user.NewRegistrationID("jane@example.com"))

	err := reg.Claim("user-1")

	require.NoError(t, err)
	assert.True(t, reg.IsRegistered())
	assert.Equal(t, "user-1", reg.OwnerID())
	assert.Len(t, reg.Events(), 1)
}

func TestShouldRejectClaimOnRegisteredEmail(t *testing.T) {
	reg := user.NewRegistration(user.NewRegistrationID("jane@example.com"))

	require.NoError(t, reg.Claim("user-1"))

	err := reg.Claim("user-2")

	assert.ErrorIs(t, err, user.ErrUserAlreadyExists)
	assert.ErrorIs(t, err, aggregate.ErrInvariantViolation)
	assert.Equal(t, "user-1", reg.OwnerID())
	assert.Len(t, reg.Events(), 1)
}

func TestShouldReleaseClaimedEmail(t *testing.T) {
	reg := user.NewRegistration(user.NewRegistrationID("jane@example.com"))

	require.NoError(t, reg.Claim("user-1"))
	require.NoError(t, reg.Release())

	assert.False(t, reg.IsRegistered())
	assert.Empty(t, reg.OwnerID())

	// released emails can be claimed again
	assert.NoError(t, reg.Claim("user-2"))
}

func TestShouldRejectReleaseOfUnclaimedEmail(t *testing.T) {
	reg := user.NewRegistration(user.NewRegistrationID("jane@example.com"))

	err := reg.Release()

	assert.ErrorIs(t, err, user.ErrEmailNotClaimed)
}

func TestEmailsAreHashedAndNormalized(t *testing.T) {
	id := user.NewRegistrationID(" Jane@Example.COM ")

	assert.Equal(t, user.NewRegistrationID("jane@example.com"), id)
	assert.NotContains(t, id.String(), "jane@example.com")
	assert.Equal(t, "email/"+user.HashEmail("jane@example.com"), id.String())
}
