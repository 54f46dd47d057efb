package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("PACK_EXPIRY", "")
	t.Setenv("PUBLIC_BASE_URL", "")

	cfg := Load()

	assert.Equal(t, 48*time.Hour, cfg.PackExpiry)
	assert.Equal(t, 15*time.Minute, cfg.DownloadURLTTL)
	assert.Equal(t, "http://localhost:8081", cfg.PublicBaseURL)
	assert.False(t, cfg.Async())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("PACK_EXPIRY", "72h")
	t.Setenv("SMTP_PORT", "587")
	t.Setenv("CURRENCY", "EUR")
	t.Setenv("PUBLIC_BASE_URL", "https://api.example.com/")
	t.Setenv("ENV", "development")

	cfg := Load()

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.Async())
	assert.Equal(t, 72*time.Hour, cfg.PackExpiry)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "eur", cfg.Currency)
	assert.Equal(t, "https://api.example.com", cfg.PublicBaseURL)
	assert.True(t, cfg.IsDev())
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("CLEANUP_INTERVAL", "soon")
	t.Setenv("PACKER_WORKERS", "many")

	cfg := Load()

	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.Equal(t, 4, cfg.PackerWorkers)
}
