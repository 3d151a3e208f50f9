package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/lumina/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestAIConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AIConfig)
		wantErr bool
	}{
		{"defaults", func(*AIConfig) {}, false},
		{"missing base url", func(c *AIConfig) { c.BaseURL = "" }, true},
		{"bad base url", func(c *AIConfig) { c.BaseURL = "not a url" }, true},
		{"missing model", func(c *AIConfig) { c.Model = "" }, true},
		{"temperature too high", func(c *AIConfig) { c.Temperature = 3 }, true},
		{"negative rate", func(c *AIConfig) { c.RequestsPerMinute = -1 }, true},
		{"negative timeout", func(c *AIConfig) { c.Timeout = -time.Second }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig().AI
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAIConfig_Client(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.AI.RequestsPerMinute = 30
	c := cfg.AI.Client()
	if c.BaseURL != cfg.AI.BaseURL || c.Model != cfg.AI.Model || c.RequestsPerMinute != 30 {
		t.Errorf("client config = %+v", c)
	}
}

func TestFullConfig_StoreAndExportRequired(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Store.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty store path should fail")
	}

	cfg = NewDefaultConfig()
	cfg.Export.Dir = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty export dir should fail")
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("LUMINA_TEST_TOKEN", "from-env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
app:
  log_level: debug
  http:
    port: 9090
store:
  path: ./data
sqlite:
  path: ./lumina.db
auth:
  mode: token
  token: ${LUMINA_TEST_TOKEN}
ai:
  base_url: http://localhost:11434/v1
  model: llama3
  timeout: 30s
events:
  stats_throttle: 500ms
export:
  dir: ./exports
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.Token != "from-env" {
		t.Errorf("token = %q, want env expansion", cfg.Auth.Token)
	}
	if cfg.App.LogLevel != slog.LevelDebug {
		t.Errorf("log level = %v", cfg.App.LogLevel)
	}
	if cfg.AI.Timeout != 30*time.Second || cfg.Events.StatsThrottle != 500*time.Millisecond {
		t.Errorf("durations = %v, %v", cfg.AI.Timeout, cfg.Events.StatsThrottle)
	}
	if cfg.AI.Temperature != 0.3 {
		t.Errorf("temperature = %v, want default kept", cfg.AI.Temperature)
	}
}
