package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/storably/storage-service/internal/utils"
)

type Config struct {
	AppName string
	AppPort string
	DBUrl   string

	JWTSecret []byte

	CORSAllowedOrigins []string

	// SeedDemoData loads a small fixture set on startup. Dev only.
	SeedDemoData bool
}

// LoadConfig reads .env when present, then the process environment.
// Missing required vars are fatal; the service cannot run degraded.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		utils.Logger.Info("No .env file found; relying on process environment")
	}

	cfg := &Config{
		AppName:      getEnvOrDefault("APP_NAME", "storage-service"),
		AppPort:      mustGetEnv("APP_PORT"),
		DBUrl:        mustGetEnv("DB_URL"),
		JWTSecret:    []byte(mustGetEnv("JWT_SECRET")),
		SeedDemoData: os.Getenv("SEED_DEMO_DATA") == "true",
	}

	origins := getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")
	for _, o := range strings.Split(origins, ",") {
		cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, strings.TrimSpace(o))
	}

	return cfg
}

func mustGetEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		utils.Logger.Fatalf("%s env var is missing", key)
	}
	return v
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
