package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	// Blank out the keys under test so host environment (or a stray .env)
	// never leaks into the defaults.
	for _, key := range []string{
		"SERVER_PORT", "DOWNLOAD_DIR", "EXPORT_DIR", "DATE_ORDER_POLICY",
		"CONSULTATION_DELAY_SECONDS", "VEHICLE_TIMEOUT_SECONDS", "HEADLESS",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "boletos", cfg.DownloadDir)
	assert.Equal(t, "resultados", cfg.ExportDir)
	assert.Equal(t, DateOrderPositional, cfg.DateOrderPolicy)
	assert.Equal(t, 2*time.Second, cfg.ConsultationDelay)
	assert.Equal(t, 180*time.Second, cfg.VehicleTimeout)
	assert.True(t, cfg.Headless)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATE_ORDER_POLICY", "chronological")
	t.Setenv("CONSULTATION_DELAY_SECONDS", "0")
	t.Setenv("HEADLESS", "false")

	cfg := LoadConfig()

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, DateOrderChronological, cfg.DateOrderPolicy)
	assert.Equal(t, time.Duration(0), cfg.ConsultationDelay)
	assert.False(t, cfg.Headless)
}

func TestLoadConfigBadInt(t *testing.T) {
	t.Setenv("VEHICLE_TIMEOUT_SECONDS", "not-a-number")

	cfg := LoadConfig()
	assert.Equal(t, 180*time.Second, cfg.VehicleTimeout)
}
