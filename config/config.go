package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// SAP CPI configuration
	SAPBaseURL      string
	SAPOAuthURL     string
	SAPClientID     string
	SAPClientSecret string

	// Database configuration
	DatabaseHost     string
	DatabasePort     string
	DatabaseName     string
	DatabaseUser     string
	DatabasePassword string

	// Redis configuration
	RedisHost     string
	RedisPassword string
	RedisPort     string

	// API configuration
	APIPort      int
	JWTSecretKey string

	// Notification configuration
	SyncWebhookURL string

	// Worker configuration
	Workers WorkerConfig
}

// WorkerConfig holds sync worker poll intervals in seconds
type WorkerConfig struct {
	CustomerIntervalSeconds int
	SalesIntervalSeconds    int
	CreditIntervalSeconds   int
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		SAPBaseURL:      os.Getenv("SAP_BASE_URL"),
		SAPOAuthURL:     os.Getenv("SAP_OAUTH_URL"),
		SAPClientID:     os.Getenv("SAP_CLIENT_ID"),
		SAPClientSecret: os.Getenv("SAP_CLIENT_SECRET"),

		// Database configuration
		DatabaseHost:     getEnvOrDefault("DB_HOST", "localhost"),
		DatabasePort:     getEnvOrDefault("DB_PORT", "5432"),
		DatabaseName:     getEnvOrDefault("DB_NAME", "sap_connector"),
		DatabaseUser:     getEnvOrDefault("DB_USER", "sap_user"),
		DatabasePassword: getEnvOrDefault("DB_PASSWORD", "sap_password"),

		// Redis configuration
		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),

		// API configuration
		APIPort:      getEnvInt("API_PORT", 8080),
		JWTSecretKey: getEnvOrDefault("JWT_SECRET_KEY", "your-secret-key-change-in-production"),

		// Notification configuration
		SyncWebhookURL: os.Getenv("SYNC_WEBHOOK_URL"),

		// Worker configuration
		Workers: WorkerConfig{
			CustomerIntervalSeconds: getEnvInt("WORKER_CUSTOMER_INTERVAL", 3600),
			SalesIntervalSeconds:    getEnvInt("WORKER_SALES_INTERVAL", 1800),
			CreditIntervalSeconds:   getEnvInt("WORKER_CREDIT_INTERVAL", 3600),
		},
	}
}

// getEnvInt gets environment variable as int or returns default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var intValue int
	if _, err := fmt.Sscanf(value, "%d", &intValue); err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvOrDefault gets environment variable or returns default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
