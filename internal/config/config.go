package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	StorageFirestore = "firestore"
	StorageMemory    = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	Port                             string        `mapstructure:"PORT"`
	GinMode                          string        `mapstructure:"GIN_MODE"`
	FirebaseProjectID                string        `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string        `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string        `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	FirestoreEmulatorHost            string        `mapstructure:"FIRESTORE_EMULATOR_HOST"`
	FirebaseAuthEmulatorHost         string        `mapstructure:"FIREBASE_AUTH_EMULATOR_HOST"`
	StorageDriver                    string        `mapstructure:"STORAGE_DRIVER"`
	ClientURL                        string        `mapstructure:"CLIENT_URL"`
	RedisAddr                        string        `mapstructure:"REDIS_ADDR"`
	RedisPassword                    string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB                          int           `mapstructure:"REDIS_DB"`
	CacheTTL                         time.Duration `mapstructure:"CACHE_TTL"`
	RabbitMQURL                      string        `mapstructure:"RABBITMQ_URL"`
	NotificationQueue                string        `mapstructure:"NOTIFICATION_QUEUE"`
	ReminderInterval                 time.Duration `mapstructure:"REMINDER_INTERVAL"`
	SendGridAPIKey                   string        `mapstructure:"SENDGRID_API_KEY"`
	MailFrom                         string        `mapstructure:"MAIL_FROM"`
	AppBaseURL                       string        `mapstructure:"APP_BASE_URL"`
	TemplateCatalogPath              string        `mapstructure:"TEMPLATE_CATALOG_PATH"`
}

var keys = []string{
	"PORT",
	"GIN_MODE",
	"FIREBASE_PROJECT_ID",
	"GOOGLE_APPLICATION_CREDENTIALS",
	"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
	"FIRESTORE_EMULATOR_HOST",
	"FIREBASE_AUTH_EMULATOR_HOST",
	"STORAGE_DRIVER",
	"CLIENT_URL",
	"REDIS_ADDR",
	"REDIS_PASSWORD",
	"REDIS_DB",
	"CACHE_TTL",
	"RABBITMQ_URL",
	"NOTIFICATION_QUEUE",
	"REMINDER_INTERVAL",
	"SENDGRID_API_KEY",
	"MAIL_FROM",
	"APP_BASE_URL",
	"TEMPLATE_CATALOG_PATH",
}

// LoadConfig loads configuration from environment variables using Viper.
// A .env file in the working directory is read first unless GIN_MODE is release;
// variables already set in the environment win.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if !strings.EqualFold(v.GetString("GIN_MODE"), "release") {
		_ = godotenv.Load()
	}

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("STORAGE_DRIVER", StorageFirestore)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("NOTIFICATION_QUEUE", "sprintify.notifications")
	v.SetDefault("REMINDER_INTERVAL", "15m")
	v.SetDefault("MAIL_FROM", "no-reply@sprintify.app")
	v.SetDefault("APP_BASE_URL", "http://localhost:3000")

	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", k, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the reminder interval and the fields required by the
// selected storage driver.
func (c *Config) Validate() error {
	if c.ReminderInterval <= 0 {
		return errors.New("REMINDER_INTERVAL must be positive")
	}
	switch c.StorageDriver {
	case StorageMemory:
		return nil
	case StorageFirestore:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageFirestore, StorageMemory, c.StorageDriver)
	}
	if c.FirebaseProjectID == "" {
		return errors.New("FIREBASE_PROJECT_ID is required")
	}
	if c.FirestoreEmulatorHost == "" && c.GoogleApplicationCredentials == "" && c.FirebaseServiceAccountJSONBase64 == "" {
		return errors.New("either GOOGLE_APPLICATION_CREDENTIALS or FIREBASE_SERVICE_ACCOUNT_JSON_BASE64 is required outside the emulator")
	}
	return nil
}

// UseEmulator reports whether Firestore calls go to a local emulator.
func (c *Config) UseEmulator() bool {
	return c.FirestoreEmulatorHost != ""
}
