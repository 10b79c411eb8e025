package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/frostneek/FrostChat/pkg/audit"
	"github.com/frostneek/FrostChat/pkg/logging"
)

const defaultServerURL = "wss://frostchat-main-server.frostneek.repl.co"

// Config holds the client configuration
type Config struct {
	// Connection
	ServerURL        string `json:"server_url"`
	HandshakeTimeout int    `json:"handshake_timeout"` // seconds

	// Data files
	UserDataPath      string `json:"user_data_path"`
	ProfanityLogPath  string `json:"profanity_log_path"`
	PromotionsLogPath string `json:"promotions_log_path"`
	AuditPolicy       string `json:"audit_policy"` // "legacy" or "category"
	WatchUserData     *bool  `json:"watch_user_data,omitempty"`

	// Credentials
	AllowLegacyPasswords *bool `json:"allow_legacy_passwords,omitempty"` // accept plaintext users.json entries

	// Chat
	ChatRatePerSecond float64  `json:"chat_rate_per_second"` // 0 disables flood control
	ChatBurst         int      `json:"chat_burst"`
	ExtraFilterWords  []string `json:"extra_filter_words,omitempty"`
	HistoryFile       string   `json:"history_file,omitempty"`

	// Logging settings
	AppLogPath    string `json:"app_log_path,omitempty"`
	AccessLogPath string `json:"access_log_path,omitempty"`
	LogLevel      string `json:"log_level,omitempty"`
	LogMaxSize    int64  `json:"log_max_size,omitempty"` // bytes
}

// DefaultConfig returns the settings used when no config file is given.
// Relative paths are relative to the working directory.
func DefaultConfig() Config {
	var config Config
	config.applyDefaults()
	return config
}

// LoadConfig loads configuration from a JSON file
func LoadConfig(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	config.applyDefaults()

	// Convert relative paths to absolute paths based on config file location
	configDir := filepath.Dir(path)
	for _, p := range []*string{
		&config.UserDataPath,
		&config.ProfanityLogPath,
		&config.PromotionsLogPath,
		&config.HistoryFile,
		&config.AppLogPath,
		&config.AccessLogPath,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}

	return config.Validate()
}

func (c *Config) applyDefaults() {
	if c.ServerURL == "" {
		c.ServerURL = defaultServerURL
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = 10
	}
	if c.UserDataPath == "" {
		c.UserDataPath = "jsons/users.json"
	}
	if c.ProfanityLogPath == "" {
		c.ProfanityLogPath = audit.DefaultProfanityPath
	}
	if c.PromotionsLogPath == "" {
		c.PromotionsLogPath = audit.DefaultPromotionsPath
	}
	if c.AuditPolicy == "" {
		c.AuditPolicy = string(audit.PolicyLegacy)
	}
	if c.WatchUserData == nil {
		c.WatchUserData = boolPtr(true)
	}
	if c.AllowLegacyPasswords == nil {
		c.AllowLegacyPasswords = boolPtr(true)
	}
	if c.ChatRatePerSecond > 0 && c.ChatBurst == 0 {
		c.ChatBurst = 5
	}
	if c.LogLevel == "" {
		c.LogLevel = string(logging.LogLevelInfo)
	}
}

// Validate rejects settings the client cannot run with
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.ServerURL, "ws://") && !strings.HasPrefix(c.ServerURL, "wss://") {
		return fmt.Errorf("server_url must be a ws:// or wss:// URL, got %q", c.ServerURL)
	}
	if _, err := audit.ParsePolicy(c.AuditPolicy); err != nil {
		return fmt.Errorf("audit_policy: %w", err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.HandshakeTimeout < 0 {
		return fmt.Errorf("handshake_timeout must not be negative")
	}
	if c.ChatRatePerSecond < 0 || c.ChatBurst < 0 {
		return fmt.Errorf("chat_rate_per_second and chat_burst must not be negative")
	}
	if c.LogMaxSize < 0 {
		return fmt.Errorf("log_max_size must not be negative")
	}
	return nil
}

func boolPtr(b bool) *bool {
	return &b
}
