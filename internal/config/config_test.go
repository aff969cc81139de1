package config

import (
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "reveal")
	t.Setenv("DB_NAME", "reveal")
	t.Setenv("ENCRYPTION_KEY", "k")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("ADMIN_PASSWORD_HASH", "$2a$04$abc")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 120*time.Minute, cfg.AccessTTL())
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
	assert.True(t, cfg.AutoMigrate)
	assert.Empty(t, cfg.S3Bucket)

	p := cfg.DBParams()
	assert.Equal(t, "reveal", p.User)
	assert.Equal(t, "3306", p.Port)
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequired(t)
	require.NoError(t, os.Unsetenv("ENCRYPTION_KEY"))

	_, err := Load()
	assert.ErrorContains(t, err, "ENCRYPTION_KEY")
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_DRIVER", "sqlite")

	_, err := Load()
	assert.ErrorContains(t, err, "DB_DRIVER")
}

func TestLoad_AMQPFallback(t *testing.T) {
	setRequired(t)
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://u:p@broker:5672/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "amqp://u:p@broker:5672/", cfg.RabbitURL)
}

func TestLoadRateLimitConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "3")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "20s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	rl := LoadRateLimitConfig()
	assert.Equal(t, 3, rl.Capacity)
	assert.Equal(t, 1, rl.RefillTokens)
	assert.Equal(t, 20*time.Second, rl.RefillInterval)
	assert.Equal(t, 100*time.Second, rl.TTL)
	assert.Equal(t, "ip_route", rl.KeyStrategy)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_TTL", "bogus")

	c := LoadCacheConfig()
	assert.True(t, c.Methods["GET"])
	assert.True(t, c.Methods["HEAD"])
	assert.Equal(t, time.Second, c.TTL)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("REDIS_ADDR", mr.Addr())
	t.Setenv("REDIS_HOST", "")

	rdb := NewRedisClient()
	require.NotNil(t, rdb)
	_ = rdb.Close()

	mr.Close()
	assert.Nil(t, NewRedisClient())
}
