package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"kafka:9092", "kafka2:9092"}, CSV(" kafka:9092, ,kafka2:9092 "))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("ACCESS_TOKEN_TTL", "")

	cfg := Load()
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "pgx", cfg.DatabaseDriver)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "a:1,b:2")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg := Load()
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.KafkaBrokers)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, []byte("s3cret"), cfg.JWTAccessSecret)
}

func TestEnvIntDefault_BadValueFallsBack(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	assert.Equal(t, 7, EnvIntDefault("SOME_INT", 7))
}

func TestMissing_SortedNames(t *testing.T) {
	got := Missing(map[string]string{
		"JWT_SECRET":   "",
		"DATABASE_URL": " ",
		"SERVICE_NAME": "storefront",
	})
	assert.Equal(t, []string{"DATABASE_URL", "JWT_SECRET"}, got)
}
