package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	CodeExpiry    time.Duration // verification code lifetime
	SessionExpiry time.Duration // bearer session lifetime

	NotifyDriver string // "smtp" | "log"
	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Accounts          string
	VerificationCodes string
	Sessions          string
	Pairings          string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	env := getEnv("APP_ENV", "development")

	// In development the code notifier defaults to the log driver so codes
	// stay readable without a mail server.
	notifyDefault := "smtp"
	if env == "development" {
		notifyDefault = "log"
	}

	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  env,

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Accounts:          getEnv("DYNAMO_TABLE_ACCOUNTS", "accounts"),
			VerificationCodes: getEnv("DYNAMO_TABLE_VERIFICATION_CODES", "verification_codes"),
			Sessions:          getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
			Pairings:          getEnv("DYNAMO_TABLE_PAIRINGS", "pairings"),
		},

		CodeExpiry:    time.Duration(getEnvInt("CODE_EXPIRY_MINUTES", 10)) * time.Minute,
		SessionExpiry: time.Duration(getEnvInt("SESSION_EXPIRY_DAYS", 30)) * 24 * time.Hour,

		NotifyDriver: getEnv("NOTIFY_DRIVER", notifyDefault),
		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
