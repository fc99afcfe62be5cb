package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_SECRET_KEY", "0123456789abcdef0123456789abcdef")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "dev", cfg.Server.Env)
	assert.True(t, cfg.Server.IsDevelopment())
	assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.ConfirmationTokenTTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address())
}

func TestLoad_RejectsShortSecret(t *testing.T) {
	t.Setenv("AUTH_SECRET_KEY", "too-short")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AUTH_SECRET_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("ACCESS_TOKEN_TTL", "60")
	t.Setenv("TRUSTED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.False(t, cfg.Server.IsDevelopment())
	assert.Equal(t, time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.TrustedOrigins)
}

func TestDatabaseConnectionString(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db", Port: "5432", User: "u", Password: "p", DBName: "store", SSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=store sslmode=disable", cfg.ConnectionString())
}
