package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL      string
	EncryptionSecret string
	MonobankBaseURL  string
	FirebaseCredFile string
	SyncInterval     time.Duration
	SyncOverlapDays  int
	HTTPTimeout      time.Duration
}

func Load() Config {
	// Load .env file if present
	_ = godotenv.Load()

	cfg := Config{
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		EncryptionSecret: getEnv("ENCRYPTION_SECRET", ""),
		MonobankBaseURL:  getEnv("MONOBANK_BASE_URL", "https://api.monobank.ua"),
		FirebaseCredFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		SyncInterval:     time.Duration(getEnvInt("SYNC_INTERVAL_MINUTES", 60)) * time.Minute,
		SyncOverlapDays:  getEnvInt("SYNC_OVERLAP_DAYS", 31),
		HTTPTimeout:      time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 30)) * time.Second,
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	if cfg.EncryptionSecret == "" {
		log.Fatal("ENCRYPTION_SECRET is required")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("ERROR: %s is not a number, using default %d", key, fallback)
	}
	return fallback
}
