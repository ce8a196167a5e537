package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/models"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/util"
)

var ErrMissing = errors.New("missing or invalid configuration")

const maxEnvProperties = 20

// Config centralises all environment and runtime configuration.
type Config struct {
	Logger *log.Logger `validate:"-"`

	DBDriver           string `env:"DB_DRIVER" validate:"oneof=postgres sqlite"`
	DatabaseURL        string `env:"DATABASE_URL" validate:"required_if=DBDriver postgres"`
	SandboxDatabaseURL string `env:"SANDBOX_DATABASE_URL"`
	SandboxMode        bool   `env:"SANDBOX_MODE"`
	SQLitePath         string `env:"SQLITE_PATH"`
	AutoMigrate        bool   `env:"AUTO_MIGRATE"`

	PMSBaseURL string        `env:"PMS_BASE_URL" validate:"omitempty,url"`
	PMSToken   string        `env:"PMS_API_TOKEN" validate:"required"`
	PMSTimeout time.Duration `env:"PMS_TIMEOUT_SECONDS" validate:"gt=0"`
	FetchDelay time.Duration `env:"FETCH_DELAY_MS" validate:"gte=0"`

	Properties []models.Property `env:"PROPERTIES" validate:"required,min=1,dive"`

	DirectChannelKeyword string `env:"DIRECT_CHANNEL_KEYWORD"`
	CancelledKeyword     string `env:"CANCELLED_KEYWORD" validate:"required"`

	ExportDir string `env:"EXPORT_DIR"`

	GoogleSheetsCredentials string `env:"GOOGLE_SHEETS_CREDENTIALS"`
	SummarySpreadsheetID    string `env:"SUMMARY_SPREADSHEET_ID"`
	SummarySheetTab         string `env:"SUMMARY_SHEET_TAB"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `env:"TELEGRAM_CHAT_ID" validate:"required_with=TelegramBotToken"`

	RedisURL             string `env:"REDIS_URL"`
	RedisProgressChannel string `env:"REDIS_PROGRESS_CHANNEL"`
}

type rosterFile struct {
	Properties []models.Property `yaml:"properties"`
}

// Load builds the Config and stops the process when required values are missing.
func Load() *Config {
	logger := util.NewLogger()
	logger.Println("Loading environment configuration...")

	cfg, err := LoadFromEnv()
	if err != nil {
		logger.Fatalf("❌ %v", err)
	}
	cfg.Logger = logger

	logger.Printf("✅ Loaded config for %d properties", len(cfg.Properties))
	logger.Printf("📁 ExportDir: %s", cfg.ExportDir)
	return cfg
}

// LoadFromEnv reads .env (if present) and the environment, returning an
// error wrapping ErrMissing instead of exiting.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	chatID, err := getInt64Env("TELEGRAM_CHAT_ID")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissing, err)
	}

	cfg := &Config{
		Logger:             util.NewLogger(),
		DBDriver:           strings.ToLower(getEnvOrDefault("DB_DRIVER", "postgres")),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		SandboxDatabaseURL: os.Getenv("SANDBOX_DATABASE_URL"),
		SandboxMode:        getBoolEnv("SANDBOX_MODE", false),
		SQLitePath:         getEnvOrDefault("SQLITE_PATH", "data/hostel-datahub.db"),
		AutoMigrate:        getBoolEnv("AUTO_MIGRATE", false),

		PMSBaseURL: os.Getenv("PMS_BASE_URL"),
		PMSToken:   strings.TrimSpace(os.Getenv("PMS_API_TOKEN")),
		PMSTimeout: time.Duration(getIntEnv("PMS_TIMEOUT_SECONDS", 30)) * time.Second,
		FetchDelay: time.Duration(getIntEnv("FETCH_DELAY_MS", 1000)) * time.Millisecond,

		DirectChannelKeyword: getEnvOrDefault("DIRECT_CHANNEL_KEYWORD", "website"),
		CancelledKeyword:     getEnvOrDefault("CANCELLED_KEYWORD", "cancel"),

		ExportDir: getEnvOrDefault("EXPORT_DIR", "data/exports"),

		GoogleSheetsCredentials: os.Getenv("GOOGLE_SHEETS_CREDENTIALS"),
		SummarySpreadsheetID:    os.Getenv("SUMMARY_SPREADSHEET_ID"),
		SummarySheetTab:         getEnvOrDefault("SUMMARY_SHEET_TAB", "Weekly"),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   chatID,

		RedisURL:             os.Getenv("REDIS_URL"),
		RedisProgressChannel: getEnvOrDefault("REDIS_PROGRESS_CHANNEL", "hostel-datahub:progress"),
	}

	props, err := loadProperties()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissing, err)
	}
	cfg.Properties = props

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadProperties prefers PROPERTIES_FILE, then PROPERTY_n_ID / PROPERTY_n_NAME.
func loadProperties() ([]models.Property, error) {
	if path := strings.TrimSpace(os.Getenv("PROPERTIES_FILE")); path != "" {
		return LoadRoster(path)
	}

	var out []models.Property
	for i := 1; i <= maxEnvProperties; i++ {
		id := strings.TrimSpace(os.Getenv(fmt.Sprintf("PROPERTY_%d_ID", i)))
		if id == "" {
			continue
		}
		out = append(out, models.Property{
			ID:   id,
			Name: getEnvOrDefault(fmt.Sprintf("PROPERTY_%d_NAME", i), id),
		})
	}
	return out, nil
}

// LoadRoster reads a YAML properties file. File order is display order.
func LoadRoster(path string) ([]models.Property, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read properties file: %w", err)
	}
	var rf rosterFile
	if err := yaml.Unmarshal(b, &rf); err != nil {
		return nil, fmt.Errorf("parse properties file %s: %w", path, err)
	}

	seen := map[string]bool{}
	for _, p := range rf.Properties {
		if seen[p.ID] {
			return nil, fmt.Errorf("properties file %s: duplicate id %q", path, p.ID)
		}
		seen[p.ID] = true
	}
	return rf.Properties, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// Validate reports every invalid field by its environment variable name.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrMissing, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrMissing, strings.Join(msgs, ", "))
}

// ActiveDatabaseURL returns the DSN for the configured driver, honouring SANDBOX_MODE.
func (c *Config) ActiveDatabaseURL() (string, error) {
	if c.DBDriver == "sqlite" {
		return c.SQLitePath, nil
	}

	if c.SandboxMode {
		if strings.TrimSpace(c.SandboxDatabaseURL) == "" {
			return "", fmt.Errorf("SANDBOX_MODE is enabled but SANDBOX_DATABASE_URL is empty")
		}
		return c.SandboxDatabaseURL, nil
	}

	if strings.TrimSpace(c.DatabaseURL) == "" {
		return "", fmt.Errorf("DATABASE_URL is empty")
	}
	return c.DatabaseURL, nil
}

// Property looks a roster entry up by id.
func (c *Config) Property(id string) (models.Property, bool) {
	for _, p := range c.Properties {
		if p.ID == id {
			return p, true
		}
	}
	return models.Property{}, false
}
