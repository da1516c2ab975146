package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("erreur sans JWT_SECRET", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := Load()
		require.Error(t, err)
		assert.Equal(t, "JWT_SECRET est requis", err.Error())
	})

	t.Run("valeurs par défaut", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("PORT", "")
		t.Setenv("IMAGE_PROVIDER", "")
		t.Setenv("STATS_CACHE_TTL", "")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "8090", cfg.Port)
		assert.Equal(t, ImageProviderCloudinary, cfg.ImageProvider)
		assert.Equal(t, time.Minute, cfg.StatsCacheTTL)
		assert.Equal(t, 587, cfg.SMTPPort)
	})

	t.Run("PORT depuis env", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("PORT", "9999")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "9999", cfg.Port)
	})

	t.Run("CORS parsing", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.com, http://b.com , c.com,")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"http://a.com", "http://b.com", "c.com"}, cfg.CORSOrigins)
	})

	t.Run("IMAGE_PROVIDER inconnu", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("IMAGE_PROVIDER", "ftp")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("SMTP_PORT invalide", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("SMTP_PORT", "abc")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("STATS_CACHE_TTL personnalisé", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("STATS_CACHE_TTL", "5m")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 5*time.Minute, cfg.StatsCacheTTL)
	})

	t.Run("fuseau horaire invalide", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("STATS_TIMEZONE", "Mars/Olympus")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestSMTPEnabled(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.SMTPEnabled())

	cfg = &Config{SMTPHost: "smtp.example.com", SMTPUser: "u", SMTPPassword: "p"}
	assert.True(t, cfg.SMTPEnabled())
}
