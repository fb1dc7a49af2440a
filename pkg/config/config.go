package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	ServerPort  int

	LogLevel  string
	LogFormat string

	DatabaseURL    string
	DatabaseDriver string

	JWTAccessSecret []byte
	AccessTokenTTL  time.Duration

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration
}

// LoadDotEnv reads the given .env files when present; a missing file is not
// an error since production gets its environment from the orchestrator.
func LoadDotEnv(paths ...string) {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			log.Printf("notice: %s not loaded: %v", p, err)
		}
	}
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "storefront"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),

		LogLevel:  EnvDefault("LOG_LEVEL", "info"),
		LogFormat: EnvDefault("LOG_FORMAT", "json"),

		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DatabaseDriver: EnvDefault("DB_DRIVER", "pgx"),

		JWTAccessSecret: []byte(os.Getenv("JWT_SECRET")),
		AccessTokenTTL:  EnvDurationDefault("ACCESS_TOKEN_TTL", 15*time.Minute),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		CacheTTL:      EnvDurationDefault("CACHE_TTL", 5*time.Minute),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
