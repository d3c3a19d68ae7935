package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithMemoryBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "complaint-service", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, IDStrategyUUID, cfg.IDs.Strategy)
	assert.True(t, cfg.HTTP.AllowsAnyOrigin())
	assert.Equal(t, 10*time.Second, cfg.Store.LockTTL())
	assert.Equal(t, 5*time.Second, cfg.Store.LockWait())
}

func TestLoadPortPrecedence(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("PORT", "9000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.App.Port)

	t.Setenv("APP_PORT", "9100")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.App.Port)
}

func TestLoadMongoAllowStandalone(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Mongo.AllowStandalone)

	t.Setenv("MONGO_ALLOW_STANDALONE", "true")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.Mongo.AllowStandalone)
}

func TestLoadBootstrapAdmin(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Auth.AdminEmail)
	assert.Equal(t, "admin", cfg.Auth.AdminUsername)

	t.Setenv("ADMIN_EMAIL", "ops@example.com")
	t.Setenv("ADMIN_PASSWORD", "s3cret-pass")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", cfg.Auth.AdminEmail)
	assert.Equal(t, "s3cret-pass", cfg.Auth.AdminPassword)
}

func TestLoadAllowedOrigins(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example.com, ,https://b.example.com ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.HTTP.AllowedOrigins)
	assert.False(t, cfg.HTTP.AllowsAnyOrigin())
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"postgres without dsn", map[string]string{"STORE_BACKEND": "postgres"}},
		{"unknown backend", map[string]string{"STORE_BACKEND": "firestore"}},
		{"bad mongo uri", map[string]string{"STORE_BACKEND": "mongo", "MONGO_URI": "localhost:27017"}},
		{"unknown id strategy", map[string]string{"STORE_BACKEND": "memory", "ID_STRATEGY": "serial"}},
		{"dev secret in production", map[string]string{"STORE_BACKEND": "memory", "APP_ENV": "production"}},
		{"bad redis db", map[string]string{"STORE_BACKEND": "memory", "REDIS_DB": "zero"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestEnvHelpersFallBackOnGarbage(t *testing.T) {
	t.Setenv("SOME_INT", "ten")
	t.Setenv("SOME_BOOL", "maybe")

	assert.Equal(t, 7, getEnvAsInt("SOME_INT", 7))
	assert.True(t, getEnvAsBool("SOME_BOOL", true))
	assert.Equal(t, "fallback", getEnv("UNSET_KEY_FOR_TEST", "fallback"))
}
