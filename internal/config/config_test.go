package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("BACKEND_URL", "https://backend.example/generate")
		t.Setenv("STORAGE_BUCKET", "relay-images")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "3000", cfg.Port)
		assert.Equal(t, "memory", cfg.DatabaseURL)
		assert.Equal(t, 3, cfg.QuotaDailyLimit)
		assert.Equal(t, 24*time.Hour, cfg.QuotaWindow)
		assert.Equal(t, 60*time.Second, cfg.BackendTimeout)
		assert.Equal(t, "gcs", cfg.UploadProvider)
		assert.False(t, cfg.AdminEnabled())
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("BACKEND_URL", "https://a.example, https://b.example")
		t.Setenv("UPLOAD_PROVIDER", "imgbb")
		t.Setenv("IMGBB_API_KEY", "key")
		t.Setenv("PORT", "8081")
		t.Setenv("QUOTA_WINDOW", "1h")
		t.Setenv("QUOTA_DAILY_LIMIT", "10")
		t.Setenv("ADMIN_JWT_SECRET", "s3cret")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8081", cfg.Port)
		assert.Equal(t, time.Hour, cfg.QuotaWindow)
		assert.Equal(t, 10, cfg.QuotaDailyLimit)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.BackendURLs())
		assert.True(t, cfg.AdminEnabled())
	})

	t.Run("missing backend is rejected", func(t *testing.T) {
		t.Setenv("BACKEND_URL", "")
		t.Setenv("STORAGE_BUCKET", "relay-images")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "BACKEND_URL is required")
	})
}

func TestValidate_UploadProvider(t *testing.T) {
	cfg := &Config{
		Port:            "3000",
		BackendURL:      "https://backend.example",
		QuotaWindow:     time.Hour,
		UploadProvider:  "ftp",
		QuotaDailyLimit: 3,
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown UPLOAD_PROVIDER "ftp"`)
}

func TestEffectiveRetention(t *testing.T) {
	tests := []struct {
		name      string
		retention time.Duration
		window    time.Duration
		want      time.Duration
	}{
		{"longer than window is kept", 720 * time.Hour, 24 * time.Hour, 720 * time.Hour},
		{"shorter than window is raised", time.Hour, 24 * time.Hour, 24 * time.Hour},
		{"zero disables expiry", 0, 24 * time.Hour, 0},
		{"negative disables expiry", -time.Hour, 24 * time.Hour, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{QuotaRetention: tt.retention, QuotaWindow: tt.window}
			assert.Equal(t, tt.want, cfg.EffectiveRetention())
		})
	}
}
