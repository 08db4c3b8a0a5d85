package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_RoundTrip(t *testing.T) {
	svc := New("secret", time.Hour)

	token, err := svc.GenerateToken("65f1a2b3c4d5e6f708192a3b", "srdev", "Asha")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "65f1a2b3c4d5e6f708192a3b", claims.UserID)
	assert.Equal(t, "srdev", claims.Role)
	assert.Equal(t, "Asha", claims.Name)
}

func TestService_RejectsForeignSecret(t *testing.T) {
	token, err := New("one", time.Hour).GenerateToken("u1", "bdm", "")
	require.NoError(t, err)

	_, err = New("two", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_RejectsExpired(t *testing.T) {
	svc := New("secret", -time.Minute)
	token, err := svc.GenerateToken("u1", "bdm", "")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_RejectsMissingUser(t *testing.T) {
	svc := New("secret", time.Hour)
	token, err := svc.GenerateToken("", "bdm", "")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}
