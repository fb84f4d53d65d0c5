package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadedManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager()
	require.NoError(t, m.Load())
	return m
}

func TestLoadDefaults(t *testing.T) {
	m := loadedManager(t)
	cfg := m.Get()
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "resp:", cfg.Cache.KeyPrefix)
	assert.Equal(t, 5, cfg.Breaker.FailureThreshold)
	assert.Equal(t, 60*time.Second, cfg.Breaker.ResetTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	validMasterKey := strings.Repeat("ab", 32)

	t.Run("DefaultJWTSecretRejected", func(t *testing.T) {
		m := loadedManager(t)
		m.config.Auth.MasterKey = validMasterKey

		err := m.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt secret")
	})

	t.Run("MasterKeyMustBe32HexBytes", func(t *testing.T) {
		m := loadedManager(t)
		m.config.Auth.JWTSecret = "something-strong"
		m.config.Auth.MasterKey = "deadbeef"

		err := m.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "master_key")
	})

	t.Run("InvalidPortRejected", func(t *testing.T) {
		m := loadedManager(t)
		m.config.Server.Port = -1

		assert.Error(t, m.Validate())
	})

	t.Run("NonPositiveBreakerThresholdRejected", func(t *testing.T) {
		m := loadedManager(t)
		m.config.Auth.JWTSecret = "something-strong"
		m.config.Auth.MasterKey = validMasterKey
		m.config.Breaker.FailureThreshold = 0

		assert.Error(t, m.Validate())
	})

	t.Run("ValidConfigPasses", func(t *testing.T) {
		m := loadedManager(t)
		m.config.Auth.JWTSecret = "something-strong"
		m.config.Auth.MasterKey = validMasterKey

		assert.NoError(t, m.Validate())
	})
}
