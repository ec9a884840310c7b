package main

import (
	"path/filepath"
	"strings"
	"testing"

	"hisho/internal/config"
)

func TestSetupFailsWithoutBotToken(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "config.json")
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(dir, "test.db")
	cfg.AI.Providers[0].APIKey = "test-key"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	oldCfgFile := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = oldCfgFile })

	_, _, _, _, _, err := setup()
	if err == nil {
		t.Fatal("Expected setup to fail with empty bot token")
	}
	if !strings.Contains(err.Error(), "bot_token") {
		t.Errorf("Error should mention the missing bot token, got: %v", err)
	}
}

func TestSetupWiresDispatcher(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "config.json")
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(dir, "test.db")
	cfg.AI.Providers[0].APIKey = "test-key"
	cfg.Telegram.BotToken = "12345:test-token"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	oldCfgFile := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = oldCfgFile })

	_, s, provider, dispatcher, adapter, err := setup()
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	defer s.Close()

	if provider == nil {
		t.Error("Provider should not be nil")
	}
	if dispatcher == nil {
		t.Error("Dispatcher should not be nil")
	}
	if adapter == nil {
		t.Error("Adapter should not be nil")
	}
}
