package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	PORT   string
	DB_URL string

	OIDC_ISSUER    string
	OIDC_CLIENT_ID string

	APP_URL      string
	BILLING_PAGE string

	// Per-bill price charged to custom-plan subscribers, in major units.
	USAGE_UNIT_PRICE float64

	ZOOM_ACCOUNT_ID    string
	ZOOM_CLIENT_ID     string
	ZOOM_CLIENT_SECRET string

	VIDEO_TOKEN_SECRET string
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	PORT = getEnv("PORT", "8080")
	DB_URL = mustEnv("DB_URL")

	OIDC_ISSUER = mustEnv("OIDC_ISSUER")
	OIDC_CLIENT_ID = mustEnv("OIDC_CLIENT_ID")

	APP_URL = getEnv("APP_URL", "http://localhost:5173")
	BILLING_PAGE = getEnv("BILLING_PAGE", "/billing")

	USAGE_UNIT_PRICE = getEnvFloat("USAGE_UNIT_PRICE", 2.0)

	ZOOM_ACCOUNT_ID = getEnv("ZOOM_ACCOUNT_ID", "")
	ZOOM_CLIENT_ID = getEnv("ZOOM_CLIENT_ID", "")
	ZOOM_CLIENT_SECRET = getEnv("ZOOM_CLIENT_SECRET", "")

	VIDEO_TOKEN_SECRET = getEnv("VIDEO_TOKEN_SECRET", "")
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Fatalf("Invalid value for %s: %q", key, value)
	}
	return f
}
