package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserHashesPassword(t *testing.T) {
	u, err := CreateUser("Jordan Example", "jordan@example.com", "correct horse battery")
	require.NoError(t, err)

	assert.Equal(t, STATUS_INACTIVE, u.Status)
	assert.NotEqual(t, "correct horse battery", u.Password)
	assert.True(t, u.CheckPassword("correct horse battery"))
	assert.False(t, u.CheckPassword("wrong"))
}

func TestCreateUserValidation(t *testing.T) {
	_, err := CreateUser("J", "not-an-email", "short")
	assert.Error(t, err)
}

func TestGenerateActivationToken(t *testing.T) {
	u := &User{}
	require.NoError(t, u.GenerateActivationToken())

	assert.Len(t, u.ActivationToken, 32)
	require.NotNil(t, u.ActivationSentAt)

	previous := u.ActivationToken
	require.NoError(t, u.GenerateActivationToken())
	assert.NotEqual(t, previous, u.ActivationToken)
}

func TestUserIsActive(t *testing.T) {
	assert.True(t, (&User{Status: STATUS_ACTIVE}).IsActive())
	assert.False(t, (&User{Status: STATUS_INACTIVE}).IsActive())
	assert.False(t, (&User{Status: STATUS_DISABLED}).IsActive())
}
