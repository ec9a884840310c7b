package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("Default config file was not created")
	}
	if cfg.Database.Path == "" {
		t.Error("Default config has no database path")
	}
	if cfg.Chat.MaxReplyLen <= 0 {
		t.Error("Default config has no reply length limit")
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("HISHO_TEST_TOKEN", "tok-12345")

	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Default()
	cfg.Telegram.BotToken = "${HISHO_TEST_TOKEN}"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Telegram.BotToken != "tok-12345" {
		t.Errorf("BotToken = %q, want expanded env var", loaded.Telegram.BotToken)
	}
}

func TestLoadSecretsFile(t *testing.T) {
	dir := t.TempDir()

	secretsPath := filepath.Join(dir, "secrets.env")
	secrets := "# bot secrets\nHISHO_SECRET_KEY=\"sk-abc\"\n\nIGNORED LINE\n"
	if err := os.WriteFile(secretsPath, []byte(secrets), 0600); err != nil {
		t.Fatalf("Failed to write secrets file: %v", err)
	}
	os.Unsetenv("HISHO_SECRET_KEY")
	t.Cleanup(func() { os.Unsetenv("HISHO_SECRET_KEY") })

	path := filepath.Join(dir, "config.json")
	cfg := Default()
	cfg.SecretsFile = secretsPath
	cfg.AI.Providers[0].APIKey = "${HISHO_SECRET_KEY}"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.AI.Providers[0].APIKey != "sk-abc" {
		t.Errorf("APIKey = %q, want value from secrets file", loaded.AI.Providers[0].APIKey)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}

	bad := Default()
	bad.Timezone = "Not/AZone"
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for invalid timezone")
	}

	bad = Default()
	bad.Chat.HistoryLimit = 0
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for zero history limit")
	}

	bad = Default()
	bad.AI.DefaultProvider = "missing"
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for unknown default provider")
	}

	bad = Default()
	bad.Digest.Schedule = ""
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for enabled digest without schedule")
	}
}

func TestProviderLookup(t *testing.T) {
	cfg := Default()

	p, err := cfg.AI.Provider(cfg.AI.DefaultProvider)
	if err != nil {
		t.Fatalf("Provider lookup failed: %v", err)
	}
	if p.Name != cfg.AI.DefaultProvider {
		t.Errorf("Provider name = %q, want %q", p.Name, cfg.AI.DefaultProvider)
	}

	if _, err := cfg.AI.Provider("nonexistent"); err == nil {
		t.Error("Expected error for unknown provider name")
	}
}

func TestChatAllowed(t *testing.T) {
	cfg := Default()
	if !cfg.ChatAllowed(42) {
		t.Error("Empty allow-list should allow any chat")
	}

	cfg.Telegram.AllowedChatIDs = []int64{1, 2}
	if !cfg.ChatAllowed(2) {
		t.Error("Listed chat should be allowed")
	}
	if cfg.ChatAllowed(3) {
		t.Error("Unlisted chat should be blocked")
	}
}
