package jwtutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	issuer, err := NewIssuer("secret", "casa360-test", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Generate(7, "a@b.com")
	require.NoError(t, err)

	claims, err := issuer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "casa360-test", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issuer, err := NewIssuer("secret", "casa360-test", time.Hour)
	require.NoError(t, err)
	other, err := NewIssuer("different", "casa360-test", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Generate(7, "a@b.com")
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsExpired(t *testing.T) {
	issuer, err := NewIssuer("secret", "casa360-test", time.Nanosecond)
	require.NoError(t, err)

	token, err := issuer.Generate(7, "a@b.com")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = issuer.Validate(token)
	assert.Error(t, err)
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	_, err := NewIssuer("", "casa360-test", time.Hour)
	assert.Error(t, err)
}
