package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv, AppPort string
	PublicDir       string
	CORSOrigins     []string

	// MaxBodyLimit is the fiber body limit in bytes. It sits above the
	// 10 MiB upload ceiling so oversize files reach the validator.
	MaxBodyLimit int

	EngineWorkers      int
	EngineRPS          int
	EngineBurst        int
	EngineForceReclaim bool

	RateLimitMax    int
	RateLimitWindow time.Duration
}

func Load() *Config {
	_ = godotenv.Load()

	c := &Config{
		AppEnv:             get("APP_ENV", "dev"),
		AppPort:            get("APP_PORT", "8080"),
		PublicDir:          get("PUBLIC_DIR", "./public"),
		CORSOrigins:        split(get("CORS_ORIGINS", "http://localhost:5173")),
		MaxBodyLimit:       GetEnvInt("MAX_BODY_LIMIT_MB", 12) * 1024 * 1024,
		EngineWorkers:      GetEnvInt("ENGINE_WORKERS", 1),
		EngineRPS:          GetEnvInt("ENGINE_RPS", 0),
		EngineBurst:        GetEnvInt("ENGINE_BURST", 1),
		EngineForceReclaim: parseBool(get("ENGINE_FORCE_RECLAIM", "true")),
		RateLimitMax:       GetEnvInt("RATE_LIMIT_MAX", 60),
		RateLimitWindow:    mustDuration(get("RATE_LIMIT_WINDOW", "1m")),
	}
	return c
}

func GetEnvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return d
}

func get(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func parseBool(s string) bool { b, _ := strconv.ParseBool(s); return b }
func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Minute
	}
	return d
}
func split(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func GetEnv(k, d string) string {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	return v
}
