package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DRIVER", "TRUSTED_PROXIES", "REDIS_ADDR", "AUTH_RATE_PER_MINUTE", "GIN_MODE"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Empty(t, cfg.TrustedProxies)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 20, cfg.AuthRatePerMinute)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("TRUSTED_PROXIES", " 10.0.0.1, 192.168.0.0/16 ,,")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("GIN_MODE", "release")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, []string{"10.0.0.1", "192.168.0.0/16"}, cfg.TrustedProxies)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_IgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("AUTH_RATE_BURST", "lots")

	cfg := Load()
	assert.Equal(t, 10, cfg.AuthRateBurst)
}
