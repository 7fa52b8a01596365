package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "fairdraw/pkg/domain-errors"
)

func TestGenerateAndValidateOperatorToken(t *testing.T) {
	svc := NewJWTService("test-key", "fairdraw-test")

	token, err := svc.GenerateOperatorToken("ops@example.com", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, RoleOperator, claims.Role)
	assert.Equal(t, "ops@example.com", claims.Subject)
	assert.Equal(t, "fairdraw-test", claims.Issuer)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc := NewJWTService("test-key", "fairdraw-test")

	token, err := svc.GenerateOperatorToken("ops@example.com", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateRejectsWrongKey(t *testing.T) {
	svc := NewJWTService("test-key", "fairdraw-test")
	other := NewJWTService("other-key", "fairdraw-test")

	token, err := svc.GenerateOperatorToken("ops@example.com", time.Hour)
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := NewJWTService("test-key", "fairdraw-test")

	_, err := svc.ValidateToken("not.a.token")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
