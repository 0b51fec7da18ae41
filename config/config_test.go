package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "DATABASE_URL", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
		"AUTO_MIGRATE", "HTTP_PORT", "JWT_SECRET", "JWT_TTL", "ADMIN_USERNAME", "ADMIN_PASSWORD",
		"TELEGRAM_TOKEN", "TELEGRAM_ADMIN_CHAT_ID", "RABBITMQ_URL", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir()) // no .env here

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HTTP.Port != 5000 {
		t.Errorf("HTTP.Port = %d, want 5000", cfg.HTTP.Port)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %s, want 24h", cfg.Auth.TokenTTL)
	}
	want := "postgres://postgres:@localhost:5432/fffdb?sslmode=disable"
	if got := cfg.DB.DatabaseURL(); got != want {
		t.Errorf("DatabaseURL() = %q, want %q", got, want)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "config.yaml")
	yml := `
database:
  host: db.internal
  port: 6543
  database: orders
http:
  port: 8080
auth:
  jwt_secret: from-file
  token_ttl: 2h
telegram:
  admin_chat_id: 42
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("AUTO_MIGRATE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.DB.Host != "db.internal" || cfg.DB.Port != 6543 || cfg.DB.Database != "orders" {
		t.Errorf("database section not applied: %+v", cfg.DB)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("HTTP.Port = %d, want env value 9090", cfg.HTTP.Port)
	}
	if cfg.Auth.JWTSecret != "from-file" || cfg.Auth.TokenTTL != 2*time.Hour {
		t.Errorf("auth section not applied: %+v", cfg.Auth)
	}
	if cfg.Telegram.AdminChatID != 42 {
		t.Errorf("AdminChatID = %d, want 42", cfg.Telegram.AdminChatID)
	}
	if !cfg.DB.AutoMigrate {
		t.Error("AUTO_MIGRATE=true not applied")
	}
}

func TestLoad_BadValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"DB_PORT", "abc"},
		{"HTTP_PORT", "x"},
		{"JWT_TTL", "forever"},
		{"TELEGRAM_ADMIN_CHAT_ID", "chat"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load with %s=%q: expected error", tt.key, tt.value)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			HTTP: HTTPConfig{Port: 5000},
			Auth: AuthConfig{JWTSecret: "s", TokenTTL: time.Hour},
		}
	}
	if err := base().Validate(); err != nil {
		t.Fatalf("valid config: %v", err)
	}

	noSecret := base()
	noSecret.Auth.JWTSecret = ""
	if noSecret.Validate() == nil {
		t.Error("missing JWT secret should fail")
	}

	badPort := base()
	badPort.HTTP.Port = 70000
	if badPort.Validate() == nil {
		t.Error("port 70000 should fail")
	}

	halfAdmin := base()
	halfAdmin.Auth.AdminUsername = "Root Admin"
	if halfAdmin.Validate() == nil {
		t.Error("admin username without password should fail")
	}
}
