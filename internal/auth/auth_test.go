package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llm-router/router/pkg/types"
)

func testService(secret string) *Service {
	return NewService(&types.AuthConfig{
		JWTSecret:     secret,
		JWTExpiration: time.Hour,
	})
}

func TestTokenRoundTrip(t *testing.T) {
	service := testService("unit-test-secret")

	token, err := service.GenerateToken("ops@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", claims.Subject)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, err := testService("secret-a").GenerateToken("ops")
	require.NoError(t, err)

	_, err = testService("secret-b").ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, err := testService("unit-test-secret").ValidateToken("not.a.token")
	assert.Error(t, err)
}
