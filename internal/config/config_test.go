package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		wantErr    bool
		wantSecret string
	}{
		{
			name:       "secret from environment",
			env:        map[string]string{"JWT_SECRET": "s3cret"},
			wantSecret: "s3cret",
		},
		{
			name:    "missing secret",
			env:     map[string]string{"JWT_SECRET": "", "DEBUG": "false"},
			wantErr: true,
		},
		{
			name:       "missing secret in debug",
			env:        map[string]string{"JWT_SECRET": "", "DEBUG": "true"},
			wantSecret: "dev-secret-change-me",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSecret, cfg.JWTSecret)
		})
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "8080")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("RATE_LIMIT_CAPACITY", "3")
	t.Setenv("RATE_LIMIT_INTERVAL", "30s")
	t.Setenv("EVENTS_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 3, cfg.RateLimitCapacity)
	assert.Equal(t, 30*time.Second, cfg.RateLimitInterval)
	assert.True(t, cfg.EventsEnabled)
}
