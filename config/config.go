package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	UploadProviderCloudinary = "cloudinary"
	UploadProviderS3         = "s3"
)

// Config is read from the environment, optionally seeded from a .env file.
type Config struct {
	Port         string        `env:"PORT" envDefault:"8080"`
	GinMode      string        `env:"GIN_MODE" envDefault:"debug"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
	MongoURI     string        `env:"MONGODB_URI,required,notEmpty"`
	MongoDB      string        `env:"MONGODB_DATABASE" envDefault:"dietcoach"`
	JWTSecret    string        `env:"JWT_SECRET,required,notEmpty"`
	JWTTTL       time.Duration `env:"JWT_TTL" envDefault:"24h"`
	FrontendURL  string        `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`
	CORSOrigins  []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:8081"`
	ShutdownWait time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	// Timezone is used for chat messages and the dashboard's "today".
	Timezone string `env:"TIMEZONE" envDefault:"UTC"`

	Google GoogleConfig
	Upload UploadConfig
	S3     S3Config

	TelegramToken    string        `env:"TELEGRAM_BOT_TOKEN"`
	ReminderInterval time.Duration `env:"REMINDER_INTERVAL" envDefault:"5m"`
	ReminderLead     time.Duration `env:"REMINDER_LEAD" envDefault:"24h"`

	// EnvFileLoaded reports whether Load found a .env file.
	EnvFileLoaded bool
}

type GoogleConfig struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `env:"GOOGLE_REDIRECT_URL" envDefault:"http://localhost:8080/auth/google/callback"`
}

// Enabled reports whether Google sign-in is configured.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

type UploadConfig struct {
	Provider      string `env:"UPLOAD_PROVIDER" envDefault:"cloudinary"`
	CloudinaryURL string `env:"CLOUDINARY_URL"`
	Folder        string `env:"UPLOAD_FOLDER" envDefault:"dietcoach"`
	MaxBytes      int64  `env:"UPLOAD_MAX_BYTES" envDefault:"5242880"`
}

type S3Config struct {
	Bucket          string `env:"S3_BUCKET"`
	Region          string `env:"S3_REGION" envDefault:"auto"`
	Endpoint        string `env:"S3_ENDPOINT"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	PublicURL       string `env:"S3_PUBLIC_URL"`
}

// Load reads .env (if present) and then parses the process environment.
func Load() (*Config, error) {
	loaded := godotenv.Load() == nil
	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	cfg.EnvFileLoaded = loaded
	return cfg, nil
}

// Parse builds a Config from the current environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.Upload.Provider = strings.ToLower(strings.TrimSpace(c.Upload.Provider))
	switch c.Upload.Provider {
	case UploadProviderCloudinary, UploadProviderS3, "":
	default:
		return fmt.Errorf("unsupported UPLOAD_PROVIDER %q", c.Upload.Provider)
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("UPLOAD_MAX_BYTES must be positive")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if c.ReminderInterval <= 0 {
		return errors.New("REMINDER_INTERVAL must be positive")
	}
	if c.ReminderLead <= 0 {
		return errors.New("REMINDER_LEAD must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	return nil
}

// Location returns the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
