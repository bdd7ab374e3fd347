package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, int32(20), cfg.DB.MaxConns)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, 4*time.Second, cfg.Gemini.Timeout)
	assert.Equal(t, 5*time.Second, cfg.LockTTL)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE", "postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("LOCK_TTL", "750ms")
	t.Setenv("GEMINI_API_KEY", "k")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, "db", cfg.DB.Host)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 750*time.Millisecond, cfg.LockTTL)
	assert.Equal(t, "k", cfg.Gemini.APIKey)
}

func TestLoad_InvalidStore(t *testing.T) {
	t.Setenv("STORE", "firestore")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE")
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("LOCK_TTL", "soon")

	_, err := Load()
	require.Error(t, err)
}

func TestDSN(t *testing.T) {
	c := DBConfig{Host: "h", Port: "1", User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=n sslmode=disable", c.DSN())
}
