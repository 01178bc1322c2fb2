package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())

	assert.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "order.exchange", cfg.EventExchange)
	assert.Equal(t, "orders", cfg.Database.Name)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("MYSQL_HOST", "db.internal")
	t.Setenv("MYSQL_PASSWORD", "secret")

	cfg, err := Load(t.TempDir())

	assert.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "secret", cfg.Database.Password)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		User:     "app",
		Password: "pw",
		Host:     "127.0.0.1",
		Port:     "3306",
		Name:     "orders",
	}

	assert.Equal(t, "app:pw@tcp(127.0.0.1:3306)/orders?charset=utf8mb4&parseTime=True&loc=Local", d.DSN())
}
