package config

import (
	"encoding/hex"
	"log"
	"os"

	"github.com/joho/godotenv"
)

var (
	PORT       string
	DB_URL     string
	JWT_SECRET string

	// ADMIN_PASS is the base64 SHA-256 digest of the shared admin secret,
	// never the secret itself.
	ADMIN_PASS string

	STRIPE_SECRET_KEY     string
	STRIPE_WEBHOOK_SECRET string

	// VAULT_MASTER_KEY is hex-encoded, 32 bytes once decoded.
	VAULT_MASTER_KEY string

	SUCCESS_URL string
	CANCEL_URL  string
	CORS_ORIGIN string
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	PORT = getEnv("PORT", "8080")
	DB_URL = mustEnv("DB_URL")
	JWT_SECRET = mustEnv("JWT_SECRET")
	ADMIN_PASS = mustEnv("ADMIN_PASS")

	STRIPE_SECRET_KEY = mustEnv("STRIPE_SECRET_KEY")
	STRIPE_WEBHOOK_SECRET = mustEnv("STRIPE_WEBHOOK_SECRET")
	VAULT_MASTER_KEY = mustEnv("VAULT_MASTER_KEY")

	SUCCESS_URL = getEnv("SUCCESS_URL", "http://localhost:5173/thank-you")
	CANCEL_URL = getEnv("CANCEL_URL", "http://localhost:5173/canceled")
	CORS_ORIGIN = getEnv("CORS_ORIGIN", "http://localhost:5173")
}

// MasterKey decodes VAULT_MASTER_KEY and exits if it is not a valid
// 32-byte hex string. Called once at startup.
func MasterKey() []byte {
	key, err := hex.DecodeString(VAULT_MASTER_KEY)
	if err != nil {
		log.Fatalf("VAULT_MASTER_KEY is not valid hex: %v", err)
	}
	if len(key) != 32 {
		log.Fatalf("VAULT_MASTER_KEY must decode to 32 bytes, got %d", len(key))
	}
	return key
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
