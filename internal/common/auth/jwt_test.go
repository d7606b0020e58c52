package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", "ja-rental-auth", time.Minute, time.Hour)
	userID := uuid.New()

	token, err := m.GenerateAccessToken(userID, RoleCustomer)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, RoleCustomer, claims.Role)
}

func TestJWTManager_RejectsForeignSecret(t *testing.T) {
	issuer := NewJWTManager("other", "ja-rental-auth", time.Minute, time.Hour)
	verifier := NewJWTManager("secret", "ja-rental-auth", time.Minute, time.Hour)

	token, err := issuer.GenerateAccessToken(uuid.New(), RoleStaff)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsExpired(t *testing.T) {
	m := NewJWTManager("secret", "ja-rental-auth", -time.Minute, time.Hour)

	token, err := m.GenerateAccessToken(uuid.New(), RoleAdmin)
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.Error(t, err)
}

func TestRole_IsStaff(t *testing.T) {
	assert.True(t, RoleStaff.IsStaff())
	assert.True(t, RoleAdmin.IsStaff())
	assert.False(t, RoleCustomer.IsStaff())
}
