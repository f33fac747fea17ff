package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JaimeStill/proshot/internal/config"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PROSHOT_GEMINI_API_KEY", "test-key")

	cfg, err := config.LoadDir(t.TempDir())
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("addr = %q", cfg.Server.Addr())
	}
	if cfg.API.BasePath != "/api" || cfg.API.AppPath != "/app" {
		t.Errorf("paths = %q %q", cfg.API.BasePath, cfg.API.AppPath)
	}
	if cfg.API.MaxUploadSizeBytes() != 10<<20 {
		t.Errorf("max upload = %d", cfg.API.MaxUploadSizeBytes())
	}
	if cfg.Studio.SessionTTLDuration() != 2*time.Hour {
		t.Errorf("session ttl = %v", cfg.Studio.SessionTTLDuration())
	}
	if cfg.Studio.TransformTimeoutDuration() != 0 {
		t.Errorf("transform timeout = %v, want none", cfg.Studio.TransformTimeoutDuration())
	}
	if cfg.Gemini.Model != "gemini-2.5-flash-image" {
		t.Errorf("model = %q", cfg.Gemini.Model)
	}
	if cfg.Database.Enabled() || cfg.Storage.Enabled() || cfg.Auth.Enabled() {
		t.Error("database, storage, and auth should be disabled by default")
	}
	if cfg.Env() != "local" {
		t.Errorf("env = %q", cfg.Env())
	}
}

func TestLoadOverlayAndEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, config.BaseConfigFile, `
version = "1.0.0"

[server]
port = 9000

[gemini]
api_key = "file-key"

[studio]
transform_timeout = "90s"

[api.rate_limit]
per_minute = 10
burst = 3

[auth]
issuer_url = "https://login.example.com/tenant/v2.0"
`)
	writeFile(t, dir, "config.prod.toml", `
[server]
host = "127.0.0.1"

[database]
name = "proshot"
user = "proshot"
`)

	t.Setenv("PROSHOT_ENV", "prod")
	t.Setenv("PROSHOT_SERVER_PORT", "9100")
	t.Setenv("PROSHOT_AUTH_AUDIENCE", "proshot-api")

	cfg, err := config.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	if cfg.Server.Addr() != "127.0.0.1:9100" {
		t.Errorf("addr = %q", cfg.Server.Addr())
	}
	if cfg.Version != "1.0.0" {
		t.Errorf("version = %q", cfg.Version)
	}
	if cfg.Gemini.APIKey != "file-key" {
		t.Errorf("api key = %q", cfg.Gemini.APIKey)
	}
	if !cfg.Database.Enabled() {
		t.Error("overlay should enable the database")
	}
	if cfg.Studio.TransformTimeoutDuration() != 90*time.Second {
		t.Errorf("transform timeout = %v", cfg.Studio.TransformTimeoutDuration())
	}
	if cfg.API.RateLimit.PerMinute != 10 || cfg.API.RateLimit.Burst != 3 {
		t.Errorf("rate limit = %+v", cfg.API.RateLimit)
	}
	if !cfg.Auth.Enabled() || cfg.Auth.Audience != "proshot-api" {
		t.Errorf("auth = %+v", cfg.Auth)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
		env  map[string]string
	}{
		{"missing api key", "", nil},
		{"bad port", "[gemini]\napi_key = \"k\"\n[server]\nport = 70000\n", nil},
		{"bad ttl", "[gemini]\napi_key = \"k\"\n[studio]\nsession_ttl = \"later\"\n", nil},
		{"bad upload size", "[gemini]\napi_key = \"k\"\n", map[string]string{"PROSHOT_API_MAX_UPLOAD_SIZE": "huge"}},
		{"auth without audience", "[gemini]\napi_key = \"k\"\n[auth]\nissuer_url = \"https://login.example.com\"\n", nil},
		{"malformed toml", "[server\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GEMINI_API_KEY", "")
			t.Setenv("PROSHOT_GEMINI_API_KEY", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			dir := t.TempDir()
			if tt.toml != "" {
				writeFile(t, dir, config.BaseConfigFile, tt.toml)
			}
			if _, err := config.LoadDir(dir); err == nil {
				t.Error("expected error")
			}
		})
	}
}
