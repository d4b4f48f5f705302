// Package config handles Ant configuration loading and persistence.
//
// Configuration lives in a single YAML document, by default at
// ~/.ant/config.yaml. Load fills missing keys from defaults; Save writes
// the document back, preserving any top-level keys this version of Ant
// does not understand.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultDir returns the Ant home directory (~/.ant). It holds the
// configuration document and the SQLite database files.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ant"
	}
	return filepath.Join(home, ".ant")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise ./config.yaml is tried first, then DefaultPath. Returns the
// path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range []string{"config.yaml", DefaultPath()} {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: config.yaml, %s)", DefaultPath())
}

// Config holds all Ant configuration.
type Config struct {
	Ollama      OllamaConfig      `yaml:"ollama"`
	Personality PersonalityConfig `yaml:"personality"`
	Memory      MemoryConfig      `yaml:"memory"`
	Features    FeaturesConfig    `yaml:"features"`
	System      SystemConfig      `yaml:"system"`
	ShellExec   ShellExecConfig   `yaml:"shell_exec"`
	Auth        AuthConfig        `yaml:"auth"`
	User        UserConfig        `yaml:"user"`
	DataDir     string            `yaml:"data_dir"`
	LogLevel    string            `yaml:"log_level"`

	// Extra carries top-level keys written by other (newer or older)
	// versions of Ant, so Save never silently drops them.
	Extra map[string]any `yaml:",inline"`

	path string
}

// OllamaConfig defines the local model server connection.
type OllamaConfig struct {
	BaseURL string `yaml:"base_url"`
	// Model is the default chat model.
	Model string `yaml:"model"`
	// CompletionModel is used for non-conversational one-shot tasks
	// (insight extraction, summaries). Falls back to Model when empty.
	CompletionModel string `yaml:"completion_model"`
	// RequestTimeoutSec bounds a single chat request (default 120).
	RequestTimeoutSec int `yaml:"request_timeout_sec"`
}

// PersonalityConfig tunes how the assistant addresses the user.
type PersonalityConfig struct {
	// Style selects the persona: helpful_friend, professional_assistant,
	// or casual_buddy.
	Style     string `yaml:"style"`
	Verbosity string `yaml:"verbosity"` // brief, normal, detailed
	Formality string `yaml:"formality"` // casual, neutral, formal
}

// MemoryConfig tunes conversation context and digest synthesis.
type MemoryConfig struct {
	// MaxContextMessages is the number of recent messages replayed into
	// each model request.
	MaxContextMessages int `yaml:"max_context_messages"`
	// AutoSave persists every user/assistant turn as it happens.
	AutoSave bool `yaml:"auto_save"`
	// TraitConfidenceCutoff is the minimum confidence for a personality
	// trait to appear in the synthesized digest.
	TraitConfidenceCutoff float64 `yaml:"trait_confidence_cutoff"`
	// ContextImportanceCutoff is the minimum importance for relationship
	// context to appear in the digest.
	ContextImportanceCutoff float64 `yaml:"context_importance_cutoff"`
	// InsightConfidenceCutoff is the minimum confidence for conversation
	// insights to appear in the digest.
	InsightConfidenceCutoff float64 `yaml:"insight_confidence_cutoff"`
}

// FeaturesConfig toggles optional tool groups.
type FeaturesConfig struct {
	FileOperations bool `yaml:"file_operations"`
	GitIntegration bool `yaml:"git_integration"`
	WebSearch      bool `yaml:"web_search"`
	WebFetch       bool `yaml:"web_fetch"`
}

// SystemConfig defines guardrails for file tools.
type SystemConfig struct {
	// SafeMode restricts file operations to AllowedPaths.
	SafeMode bool `yaml:"safe_mode"`
	// AllowedPaths are the directory roots file tools may touch.
	// Entries are env-expanded; empty means the user's home directory.
	AllowedPaths []string `yaml:"allowed_paths"`
}

// ShellExecConfig defines shell execution capabilities.
type ShellExecConfig struct {
	// Enabled allows shell command execution. Disabled by default for safety.
	Enabled bool `yaml:"enabled"`
	// WorkingDir sets the default working directory for commands.
	WorkingDir string `yaml:"working_dir"`
	// DeniedPatterns are command substrings to block (e.g., "rm -rf /").
	DeniedPatterns []string `yaml:"denied_patterns"`
	// AllowedPrefixes limits commands to those starting with these prefixes.
	// Empty means all commands are allowed (subject to denied patterns).
	AllowedPrefixes []string `yaml:"allowed_prefixes"`
	// DefaultTimeoutSec is the default timeout in seconds (default 30).
	DefaultTimeoutSec int `yaml:"default_timeout_sec"`
}

// AuthConfig stores service credentials inside the config document.
type AuthConfig struct {
	Tokens map[string]ServiceToken `yaml:"tokens,omitempty"`
}

// ServiceToken is a stored credential for one external service.
type ServiceToken struct {
	AccessToken string     `yaml:"access_token"`
	TokenType   string     `yaml:"token_type,omitempty"`
	Scope       string     `yaml:"scope,omitempty"`
	Username    string     `yaml:"username,omitempty"`
	ExpiresAt   *time.Time `yaml:"expires_at,omitempty"`
	UpdatedAt   time.Time  `yaml:"updated_at,omitempty"`
}

// UserConfig describes the person Ant works for. Empty fields are
// resolved from the host environment at startup (see internal/profile).
type UserConfig struct {
	Username    string            `yaml:"username,omitempty"`
	FullName    string            `yaml:"full_name,omitempty"`
	Nickname    string            `yaml:"nickname,omitempty"`
	Timezone    string            `yaml:"timezone,omitempty"`
	Preferences map[string]string `yaml:"preferences,omitempty"`
}

// Default returns the configuration used when no file exists, and the
// base that Load merges a file over.
func Default() *Config {
	return &Config{
		Ollama: OllamaConfig{
			BaseURL:           "http://localhost:11434",
			Model:             "llama3.2",
			RequestTimeoutSec: 120,
		},
		Personality: PersonalityConfig{
			Style:     "helpful_friend",
			Verbosity: "normal",
			Formality: "casual",
		},
		Memory: MemoryConfig{
			MaxContextMessages:      8,
			AutoSave:                true,
			TraitConfidenceCutoff:   0.7,
			ContextImportanceCutoff: 0.6,
			InsightConfidenceCutoff: 0.6,
		},
		Features: FeaturesConfig{
			FileOperations: true,
			GitIntegration: true,
			WebSearch:      true,
			WebFetch:       true,
		},
		System: SystemConfig{
			SafeMode: true,
		},
		ShellExec: ShellExecConfig{
			DeniedPatterns:    defaultDeniedPatterns(),
			DefaultTimeoutSec: 30,
		},
		LogLevel: "info",
	}
}

func defaultDeniedPatterns() []string {
	return []string{
		"rm -rf /",
		"mkfs",
		"dd if=",
		":(){ :|:& };:",
		"> /dev/sda",
		"shutdown",
		"reboot",
	}
}

// Load reads configuration from a YAML file, layering it over Default.
// Environment variables in the file are expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.path = path
	return cfg, nil
}

// LoadOrDefault loads the config at path, or returns Default bound to
// path when the file does not exist yet. Any other read or parse error
// is returned.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if os.IsNotExist(err) {
		cfg = Default()
		cfg.path = path
		return cfg, nil
	}
	return nil, err
}

// Path returns where this config was loaded from (or will be saved to).
func (c *Config) Path() string {
	if c.path == "" {
		return DefaultPath()
	}
	return c.path
}

// Save writes the configuration back to its file, creating the parent
// directory if needed. Unknown top-level keys survive the round trip.
func (c *Config) Save() error {
	path := c.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	// 0600: the document may hold service tokens.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ResolvedDataDir returns data_dir when set, otherwise the directory
// holding the config file.
func (c *Config) ResolvedDataDir() string {
	if c.DataDir != "" {
		return os.ExpandEnv(c.DataDir)
	}
	return filepath.Dir(c.Path())
}

// ConversationDBPath returns the SQLite file holding session history.
func (c *Config) ConversationDBPath() string {
	return filepath.Join(c.ResolvedDataDir(), "conversations.db")
}

// PersonalMemoryDBPath returns the SQLite file holding the personal
// memory store.
func (c *Config) PersonalMemoryDBPath() string {
	return filepath.Join(c.ResolvedDataDir(), "personal_memory.db")
}

// CompletionModelOrDefault returns the completion model, falling back
// to the chat model.
func (c *Config) CompletionModelOrDefault() string {
	if c.Ollama.CompletionModel != "" {
		return c.Ollama.CompletionModel
	}
	return c.Ollama.Model
}
