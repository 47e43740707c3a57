package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	GoogleUserinfoURL  string

	JWTSecret  string
	JWTIssuer  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	RedisAddr     string
	RedisPassword string

	DatabaseDSN string
}

func Load() Config {

	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := Config{

		AppPort: getenv("APP_PORT", "8000"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		GoogleUserinfoURL:  getenv("GOOGLE_USERINFO_URL", "https://www.googleapis.com/oauth2/v3/userinfo"),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		JWTIssuer:  getenv("JWT_ISSUER", "item-service"),
		AccessTTL:  getduration("JWT_ACCESS_TTL", 15*time.Minute),
		RefreshTTL: getduration("JWT_REFRESH_TTL", 7*24*time.Hour),

		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		DatabaseDSN: os.Getenv("DATABASE_DSN"),
	}

	return cfg

}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
