package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the process configuration, read once at start
type Config struct {
	Port          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CachePath     string
	OTelStdout    bool
}

// Load reads .env when present and then the process environment
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using the process environment")
	} else {
		log.Println(".env file loaded")
	}

	redisDB, err := strconv.Atoi(GetEnv("REDIS_DB", "8"))
	if err != nil {
		log.Printf("Invalid REDIS_DB %q, using 8", GetEnv("REDIS_DB"))
		redisDB = 8
	}

	return Config{
		Port:          GetEnv("PORT", "8080"),
		RedisAddr:     GetEnv("REDIS_ADDR"),
		RedisPassword: GetEnv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		CachePath:     GetEnv("CACHE_PATH", "./tracker.db"),
		OTelStdout:    GetEnv("OTEL_STDOUT") == "true",
	}
}

// CloudActive reports whether a remote store is configured. It is a static
// check with no network round trip; an unconfigured remote store means the
// tracker runs in local-only mode.
func (c Config) CloudActive() bool {
	return c.RedisAddr != ""
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}
