package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, int64(1<<20), cfg.Uploads.MaxBytes)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.False(t, cfg.MealSkip.AllowPast)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "MEMORY")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("JWT_EXPIRATION", "not-a-duration")
	t.Setenv("MEAL_SKIP_TIMEZONE", "Asia/Kolkata")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, "Asia/Kolkata", cfg.MealSkip.Timezone)
}

func TestMealSkipLocationFallback(t *testing.T) {
	assert.Equal(t, time.UTC, MealSkipConfig{Timezone: "Nowhere/Invalid"}.Location())
	assert.Equal(t, time.UTC, MealSkipConfig{}.Location())
}
