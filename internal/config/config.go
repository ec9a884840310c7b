package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config represents the bot configuration
type Config struct {
	Timezone    string         `json:"timezone,omitempty"`
	SecretsFile string         `json:"secrets_file,omitempty"`
	Database    DatabaseConfig `json:"database"`
	AI          AIConfig       `json:"ai"`
	Telegram    TelegramConfig `json:"telegram"`
	Digest      DigestConfig   `json:"digest"`
	Chat        ChatConfig     `json:"chat"`
	Debug       DebugConfig    `json:"debug,omitempty"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `json:"path"`
}

// AIConfig contains AI provider settings
type AIConfig struct {
	DefaultProvider string           `json:"default_provider"`
	Providers       []ProviderConfig `json:"providers"`
}

// ProviderConfig contains settings for a specific AI provider
type ProviderConfig struct {
	Name   string `json:"name"`
	Type   string `json:"type"` // "anthropic", "openai"
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
}

// Provider looks up a provider config by name.
func (a *AIConfig) Provider(name string) (ProviderConfig, error) {
	for _, p := range a.Providers {
		if p.Name == name {
			return p, nil
		}
	}
	return ProviderConfig{}, fmt.Errorf("provider %q not found in config", name)
}

// TelegramConfig contains the chat platform settings
type TelegramConfig struct {
	BotToken string `json:"bot_token"`
	// AllowedChatIDs restricts the bot to specific chats. Empty means any
	// chat may talk to the bot.
	AllowedChatIDs []int64 `json:"allowed_chat_ids,omitempty"`
}

// DigestConfig controls the scheduled daily digest job
type DigestConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule"` // standard 5-field cron expression
}

// ChatConfig contains conversation behavior settings
type ChatConfig struct {
	// HistoryLimit is how many persisted messages are replayed as LLM
	// context for a conversational reply.
	HistoryLimit int `json:"history_limit"`
	// MaxReplyLen is the per-message length limit replies are chunked to.
	MaxReplyLen int `json:"max_reply_len"`
	// KeywordsFile optionally overrides the built-in intent keyword
	// tables (YAML, see bot.LoadKeywords).
	KeywordsFile string `json:"keywords_file,omitempty"`
}

// DebugConfig contains debugging and logging settings
type DebugConfig struct {
	LogMessageContent bool `json:"log_message_content,omitempty"` // Enable logging of message content (privacy risk!)
	VerboseLogging    bool `json:"verbose_logging,omitempty"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Timezone: "Asia/Tokyo",
		Database: DatabaseConfig{
			Path: "hisho.db",
		},
		AI: AIConfig{
			DefaultProvider: "anthropic",
			Providers: []ProviderConfig{
				{
					Name:   "anthropic",
					Type:   "anthropic",
					APIKey: "${ANTHROPIC_API_KEY}",
					Model:  "claude-3-5-sonnet-20241022",
				},
				{
					Name:   "openai",
					Type:   "openai",
					APIKey: "${OPENAI_API_KEY}",
					Model:  "gpt-4o-mini",
				},
			},
		},
		Telegram: TelegramConfig{
			BotToken: "${TELEGRAM_BOT_TOKEN}",
		},
		Digest: DigestConfig{
			Enabled:  true,
			Schedule: "0 21 * * *", // 21:00 local time, daily
		},
		Chat: ChatConfig{
			HistoryLimit: 20,
			MaxReplyLen:  4096, // Telegram's per-message limit
		},
		Debug: DebugConfig{
			LogMessageContent: false, // Privacy-safe by default
			VerboseLogging:    false,
		},
	}
}

// Load loads configuration from a file, creating a default one if it does
// not exist yet.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
		fmt.Printf("Created default configuration at %s\n", path)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Expand tilde in path fields before anything else so that
	// secrets_file can reference ~/... paths.
	cfg.expandTilde()

	// Load secrets file (KEY=VALUE) into the environment before
	// expanding ${ENV_VAR} placeholders in the config.
	if err := cfg.loadSecretsFile(); err != nil {
		return nil, fmt.Errorf("failed to load secrets file: %w", err)
	}

	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// expandEnvVars expands environment variables in configuration values
func (c *Config) expandEnvVars() {
	c.SecretsFile = os.ExpandEnv(c.SecretsFile)
	c.Database.Path = os.ExpandEnv(c.Database.Path)
	c.Telegram.BotToken = os.ExpandEnv(c.Telegram.BotToken)
	c.Chat.KeywordsFile = os.ExpandEnv(c.Chat.KeywordsFile)

	for i := range c.AI.Providers {
		c.AI.Providers[i].APIKey = os.ExpandEnv(c.AI.Providers[i].APIKey)
	}
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Chat.HistoryLimit <= 0 {
		return fmt.Errorf("chat history_limit must be greater than 0")
	}
	if c.Chat.MaxReplyLen <= 0 {
		return fmt.Errorf("chat max_reply_len must be greater than 0")
	}

	if c.AI.DefaultProvider != "" {
		found := false
		for _, p := range c.AI.Providers {
			if p.Name == c.AI.DefaultProvider {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("default provider '%s' is not in the providers list", c.AI.DefaultProvider)
		}
	}

	if c.Digest.Enabled && c.Digest.Schedule == "" {
		return fmt.Errorf("digest schedule is required when the digest is enabled")
	}

	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("invalid timezone '%s': %w", c.Timezone, err)
		}
	}

	return nil
}

// GetLocation returns the configured timezone as a *time.Location, falling
// back to time.Local.
func (c *Config) GetLocation() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ChatAllowed reports whether the given chat ID may talk to the bot.
func (c *Config) ChatAllowed(chatID int64) bool {
	if len(c.Telegram.AllowedChatIDs) == 0 {
		return true
	}
	for _, id := range c.Telegram.AllowedChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

// expandTilde replaces a leading "~/" with the user's home directory in
// path-valued config fields. Called before env-var expansion so that
// both "~/foo" and "${SOME_PATH}" work.
func (c *Config) expandTilde() {
	home, err := os.UserHomeDir()
	if err != nil {
		return // can't expand, leave as-is
	}
	expand := func(p string) string {
		if p == "~" {
			return home
		}
		if strings.HasPrefix(p, "~/") {
			return filepath.Join(home, p[2:])
		}
		return p
	}

	c.SecretsFile = expand(c.SecretsFile)
	c.Database.Path = expand(c.Database.Path)
	c.Chat.KeywordsFile = expand(c.Chat.KeywordsFile)
}

// loadSecretsFile reads a KEY=VALUE file into the process environment.
// Blank lines and lines starting with '#' are ignored.
// Existing environment variables are NOT overridden (shell/systemd wins).
// If SecretsFile is empty or the file doesn't exist, this is a no-op.
func (c *Config) loadSecretsFile() error {
	if c.SecretsFile == "" {
		return nil
	}

	f, err := os.Open(c.SecretsFile)
	if os.IsNotExist(err) {
		return nil // missing file is fine
	}
	if err != nil {
		return fmt.Errorf("cannot open secrets file %s: %w", c.SecretsFile, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		// Strip optional surrounding quotes from value
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		// Don't override existing env vars
		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}
