package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PAGE_SIZE", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, defaultPort, cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, defaultPageSize, cfg.PageSize)
	assert.False(t, cfg.IsProdLike())
}

func TestFromEnv_ProdRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "postgres://crm@db/crm")

	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsProdLike())
}

func TestFromEnv_ProdRejectsSQLite(t *testing.T) {
	t.Setenv("APP_ENV", "release")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DATABASE_URL", "crm.db")

	_, err := FromEnv()
	assert.Error(t, err)
}

func TestFromEnv_Parsing(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("CACHE_TTL", "45s")
	t.Setenv("PAGE_SIZE", "250")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 45*time.Second, cfg.CacheTTL)
	assert.Equal(t, 250, cfg.PageSize)

	t.Setenv("PAGE_SIZE", "501")
	_, err = FromEnv()
	assert.Error(t, err)

	t.Setenv("PAGE_SIZE", "10")
	t.Setenv("JWT_TTL", "forever")
	_, err = FromEnv()
	assert.Error(t, err)
}
