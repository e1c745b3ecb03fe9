package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chat "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/domain"
)

func TestVerifyRoundTrip(t *testing.T) {
	v, err := NewVerifier([]byte("test-secret"))
	require.NoError(t, err)

	token, err := v.Sign(Identity{UserID: 42, Role: chat.RoleBuyer}, time.Minute)
	require.NoError(t, err)

	id, err := v.Verify(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, id.UserID)
	assert.Equal(t, chat.RoleBuyer, id.Role)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	v, err := NewVerifier([]byte("test-secret"))
	require.NoError(t, err)

	token, err := v.Sign(Identity{UserID: 42, Role: chat.RoleBuyer}, -time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signer, err := NewVerifier([]byte("secret-a"))
	require.NoError(t, err)
	verifier, err := NewVerifier([]byte("secret-b"))
	require.NoError(t, err)

	token, err := signer.Sign(Identity{UserID: 1, Role: chat.RoleSupplier}, time.Minute)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsUnknownRole(t *testing.T) {
	v, err := NewVerifier([]byte("test-secret"))
	require.NoError(t, err)

	token, err := v.Sign(Identity{UserID: 1, Role: chat.Role("intruder")}, time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	v, err := NewVerifier([]byte("test-secret"))
	require.NoError(t, err)

	_, err = v.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
