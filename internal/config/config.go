package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	UpstreamBaseURL string
	LogLevel        string
	LogFormat       string

	// Local persistence for credentials and pending-payment markers.
	DBDriver string // sqlite or postgres
	DBPath   string // sqlite file path
	DBDSN    string // postgres DSN

	// Polling tunables. Defaults match the product contract; tests
	// shrink them to keep runs fast.
	DeviceStatusInterval  time.Duration
	QRCountdown           time.Duration
	PaymentStatusInterval time.Duration
	PaymentTimeout        time.Duration
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: Error loading .env file")
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		UpstreamBaseURL: getEnv("UPSTREAM_API_URL", "http://localhost:3000/api"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),

		DBDriver: getEnv("DB_DRIVER", "sqlite"),
		DBPath:   getEnv("DB_PATH", "./console.db"),
		DBDSN:    getEnv("DB_DSN", ""),

		DeviceStatusInterval:  getEnvDuration("DEVICE_POLL_INTERVAL", 5*time.Second),
		QRCountdown:           getEnvDuration("QR_COUNTDOWN", 60*time.Second),
		PaymentStatusInterval: getEnvDuration("PAYMENT_POLL_INTERVAL", 5*time.Second),
		PaymentTimeout:        getEnvDuration("PAYMENT_POLL_TIMEOUT", 10*time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
