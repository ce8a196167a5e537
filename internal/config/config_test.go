package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DB_DRIVER", "DATABASE_URL", "PMS_API_TOKEN", "PROPERTIES_FILE",
		"PROPERTY_1_ID", "PROPERTY_1_NAME", "PROPERTY_2_ID", "PROPERTY_3_ID",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "FETCH_DELAY_MS", "PMS_TIMEOUT_SECONDS",
		"SANDBOX_MODE", "SANDBOX_DATABASE_URL", "PMS_BASE_URL",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("DATABASE_URL", "postgres://localhost/hostels")
	t.Setenv("PMS_API_TOKEN", "tok")
	t.Setenv("PROPERTY_1_ID", "111")
	t.Setenv("PROPERTY_1_NAME", "Lisbon Central")
}

func TestLoadFromEnvDefaults(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PROPERTY_3_ID", "333")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if len(cfg.Properties) != 2 || cfg.Properties[0].Name != "Lisbon Central" || cfg.Properties[1].Name != "333" {
		t.Errorf("properties = %+v", cfg.Properties)
	}
	if cfg.PMSTimeout != 30*time.Second || cfg.FetchDelay != time.Second {
		t.Errorf("timeout=%v delay=%v", cfg.PMSTimeout, cfg.FetchDelay)
	}
	if cfg.DirectChannelKeyword != "website" || cfg.CancelledKeyword != "cancel" {
		t.Errorf("keywords = %q/%q", cfg.DirectChannelKeyword, cfg.CancelledKeyword)
	}
	if dsn, err := cfg.ActiveDatabaseURL(); err != nil || dsn != "postgres://localhost/hostels" {
		t.Errorf("ActiveDatabaseURL = %q, %v", dsn, err)
	}
}

func TestLoadFromEnvMissingValues(t *testing.T) {
	tests := []struct {
		name  string
		unset string
		want  string
	}{
		{"token", "PMS_API_TOKEN", "PMS_API_TOKEN"},
		{"database", "DATABASE_URL", "DATABASE_URL"},
		{"properties", "PROPERTY_1_ID", "PROPERTIES"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(tt.unset, "")

			_, err := LoadFromEnv()
			if !errors.Is(err, ErrMissing) {
				t.Fatalf("err = %v, want ErrMissing", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, should name %s", err, tt.want)
			}
		})
	}
}

func TestSQLiteNeedsNoDatabaseURL(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if dsn, _ := cfg.ActiveDatabaseURL(); dsn != cfg.SQLitePath {
		t.Errorf("dsn = %q", dsn)
	}
}

func TestUnknownDriver(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DB_DRIVER", "mysql")
	if _, err := LoadFromEnv(); !errors.Is(err, ErrMissing) || !strings.Contains(err.Error(), "DB_DRIVER") {
		t.Fatalf("err = %v", err)
	}
}

func TestTelegramChatRequiredWithToken(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "bot")
	if _, err := LoadFromEnv(); err == nil || !strings.Contains(err.Error(), "TELEGRAM_CHAT_ID") {
		t.Fatalf("err = %v", err)
	}

	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.TelegramChatID != -100123 {
		t.Errorf("chat id = %d", cfg.TelegramChatID)
	}
}

func TestSandboxURL(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SANDBOX_MODE", "1")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cfg.ActiveDatabaseURL(); err == nil {
		t.Error("sandbox without SANDBOX_DATABASE_URL should fail")
	}
	cfg.SandboxDatabaseURL = "postgres://localhost/sandbox"
	if dsn, _ := cfg.ActiveDatabaseURL(); dsn != "postgres://localhost/sandbox" {
		t.Errorf("dsn = %q", dsn)
	}
}

func TestPropertiesFile(t *testing.T) {
	setBaseEnv(t)
	path := filepath.Join(t.TempDir(), "properties.yaml")
	body := "properties:\n  - id: \"200\"\n    name: Porto\n  - id: \"100\"\n    name: Lisbon\n    timezone: Europe/Lisbon\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PROPERTIES_FILE", path)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if len(cfg.Properties) != 2 || cfg.Properties[0].ID != "200" || cfg.Properties[1].Timezone != "Europe/Lisbon" {
		t.Errorf("properties = %+v", cfg.Properties)
	}
	if p, ok := cfg.Property("100"); !ok || p.Name != "Lisbon" {
		t.Errorf("Property(100) = %+v, %v", p, ok)
	}
}

func TestPropertiesFileDuplicate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "properties.yaml")
	os.WriteFile(path, []byte("properties:\n  - id: a\n  - id: a\n"), 0o600)
	if _, err := LoadRoster(path); err == nil {
		t.Error("duplicate ids should fail")
	}
}

func TestDateEnv(t *testing.T) {
	t.Setenv("SOME_DATE", "")
	if d, err := DateEnv("SOME_DATE"); d != nil || err != nil {
		t.Errorf("unset = %v, %v", d, err)
	}
	t.Setenv("SOME_DATE", "2025-01-06")
	if d, err := DateEnv("SOME_DATE"); err != nil || d.Format("2006-01-02") != "2025-01-06" {
		t.Errorf("DateEnv = %v, %v", d, err)
	}
	t.Setenv("SOME_DATE", "06/01/2025")
	if _, err := DateEnv("SOME_DATE"); err == nil {
		t.Error("bad format should fail")
	}
}
