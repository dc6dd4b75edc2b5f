package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Server
	ServerPort string
	ServerHost string
	Env        string // "development" or "production"

	// Database
	DatabaseURL  string
	DatabaseType string // "postgres" or "sqlite"
	DBLogLevel   string // gorm logger: silent, error, warn, info

	// JWT
	JWTSecret     string
	JWTExpiration int // hours

	// Storage
	UploadDir string

	// Email
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	FromEmail    string

	// Engagement
	NotifyTimeout       time.Duration
	ConversationTimeout time.Duration
	EOITTL              time.Duration

	// App
	AppURL     string
	AppName    string
	AdminEmail    string
	AdminPassword string // empty skips seeding the admin account
	LogLevel      string
}

var defaults = map[string]any{
	"SERVER_PORT": "8080",
	"SERVER_HOST": "0.0.0.0",
	"APP_ENV":     "development",

	"DATABASE_URL":  "liftout.db",
	"DATABASE_TYPE": "sqlite",
	"DB_LOG_LEVEL":  "warn",

	"JWT_SECRET":     "change-me-in-production",
	"JWT_EXPIRATION": 72,

	"UPLOAD_DIR": "./uploads",

	// An empty SMTP host logs emails instead of sending them.
	"SMTP_HOST":     "",
	"SMTP_PORT":     587,
	"SMTP_USER":     "",
	"SMTP_PASSWORD": "",
	"FROM_EMAIL":    "noreply@liftout.example",

	"NOTIFY_TIMEOUT":       "5s",
	"CONVERSATION_TIMEOUT": "5s",
	"EOI_TTL":              "720h",

	"APP_URL":        "http://localhost:8080",
	"APP_NAME":       "Liftout",
	"ADMIN_EMAIL":    "admin@liftout.example",
	"ADMIN_PASSWORD": "change-me-admin",
	"LOG_LEVEL":      "info",
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	return FromViper(NewViper())
}

// NewViper returns a viper instance holding the defaults and reading the
// environment, for callers that bind extra sources such as CLI flags before
// calling FromViper.
func NewViper() *viper.Viper {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		// Server
		ServerPort: v.GetString("SERVER_PORT"),
		ServerHost: v.GetString("SERVER_HOST"),
		Env:        v.GetString("APP_ENV"),

		// Database
		DatabaseURL:  v.GetString("DATABASE_URL"),
		DatabaseType: v.GetString("DATABASE_TYPE"),
		DBLogLevel:   v.GetString("DB_LOG_LEVEL"),

		// JWT
		JWTSecret:     v.GetString("JWT_SECRET"),
		JWTExpiration: v.GetInt("JWT_EXPIRATION"),

		// Storage
		UploadDir: v.GetString("UPLOAD_DIR"),

		// Email
		SMTPHost:     v.GetString("SMTP_HOST"),
		SMTPPort:     v.GetInt("SMTP_PORT"),
		SMTPUser:     v.GetString("SMTP_USER"),
		SMTPPassword: v.GetString("SMTP_PASSWORD"),
		FromEmail:    v.GetString("FROM_EMAIL"),

		// Engagement
		NotifyTimeout:       v.GetDuration("NOTIFY_TIMEOUT"),
		ConversationTimeout: v.GetDuration("CONVERSATION_TIMEOUT"),
		EOITTL:              v.GetDuration("EOI_TTL"),

		// App
		AppURL:     v.GetString("APP_URL"),
		AppName:    v.GetString("APP_NAME"),
		AdminEmail:    v.GetString("ADMIN_EMAIL"),
		AdminPassword: v.GetString("ADMIN_PASSWORD"),
		LogLevel:      v.GetString("LOG_LEVEL"),
	}
}

// Defaults returns a Config built only from default values. Used by tests.
func Defaults() *Config {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return FromViper(v)
}
