// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for the
// e-waste assistant client.
//
// Configuration lives in TOML at ~/.ewaste/config.toml, with sensible
// defaults, environment variable overrides, and validation.
package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete client configuration.
type Config struct {
	// Server holds assistant service settings.
	Server ServerConfig `toml:"server"`

	// History holds conversation persistence settings.
	History HistoryConfig `toml:"history"`

	// Voice holds speech input/output settings.
	Voice VoiceConfig `toml:"voice"`

	// UI holds display settings.
	UI UIConfig `toml:"ui"`
}

// ServerConfig contains assistant service settings.
type ServerConfig struct {
	// URL is the base URL of the assistant service.
	URL string `toml:"url"`
	// TimeoutSecs is the per-request timeout for chat and language calls.
	TimeoutSecs int `toml:"timeout_secs"`
	// UploadTimeoutSecs is the timeout for image analysis uploads.
	UploadTimeoutSecs int `toml:"upload_timeout_secs"`
}

// HistoryConfig contains conversation persistence settings.
type HistoryConfig struct {
	// StateDir is the directory holding the history document and the
	// eviction archive. Empty means ~/.ewaste.
	StateDir string `toml:"state_dir"`
	// ArchiveEnabled keeps sessions evicted from the recency buckets in
	// a searchable local archive.
	ArchiveEnabled bool `toml:"archive_enabled"`
}

// VoiceConfig contains speech settings.
type VoiceConfig struct {
	// Enabled turns on spoken replies.
	Enabled bool `toml:"enabled"`
	// Language is the BCP 47 language code for capture and playback.
	Language string `toml:"language"`
	// RecognizerCommand is the speech-to-text command; its stdout is
	// taken as the transcript. Empty disables capture.
	RecognizerCommand string `toml:"recognizer_command"`
	// SynthesizerCommand is the text-to-speech command. Empty probes
	// for a system engine.
	SynthesizerCommand string `toml:"synthesizer_command"`
}

// UIConfig contains display settings.
type UIConfig struct {
	// Theme is the color theme: "dark", "light", "auto".
	Theme string `toml:"theme"`
	// CompactMode hides the history sidebar by default.
	CompactMode bool `toml:"compact_mode"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:               "http://127.0.0.1:5000",
			TimeoutSecs:       30,
			UploadTimeoutSecs: 90,
		},
		History: HistoryConfig{
			StateDir:       "",
			ArchiveEnabled: true,
		},
		Voice: VoiceConfig{
			Enabled:  false,
			Language: "en",
		},
		UI: UIConfig{
			Theme: "dark",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// Dir returns the client configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".ewaste"), nil
}

// Path returns the path to the TOML config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureDir ensures the config directory exists.
func EnsureDir() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ResolveStateDir returns the directory holding history state, falling
// back to the config directory when unset.
func (c *Config) ResolveStateDir() (string, error) {
	if c.History.StateDir != "" {
		return c.History.StateDir, nil
	}
	return Dir()
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load loads configuration from the default config file. A missing or
// malformed file yields defaults with a logged warning, so a broken
// config never blocks startup. An explicit --config path goes through
// LoadFromPath instead, where errors stay fatal.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFromPath(path)
	if err != nil {
		log.Printf("config: %v; using defaults", err)
		cfg = Default()
		cfg.ApplyEnvOverrides()
		cfg.SetDefaults()
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation. A missing file is not an error.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to path with owner-only permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# ewaste assistant configuration file")
	fmt.Fprintln(file, "# edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// DEFAULTS AND VALIDATION
// =============================================================================

// SetDefaults fills zero-value fields with defaults.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Server.URL == "" {
		c.Server.URL = defaults.Server.URL
	}
	if c.Server.TimeoutSecs == 0 {
		c.Server.TimeoutSecs = defaults.Server.TimeoutSecs
	}
	if c.Server.UploadTimeoutSecs == 0 {
		c.Server.UploadTimeoutSecs = defaults.Server.UploadTimeoutSecs
	}
	if c.Voice.Language == "" {
		c.Voice.Language = defaults.Voice.Language
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// ValidationError is a single configuration validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Server.URL != "" {
		u, err := url.Parse(c.Server.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "server.url",
				Message: fmt.Sprintf("invalid URL '%s'", c.Server.URL),
			})
		}
	}

	if c.Server.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.timeout_secs",
			Message: "must be non-negative",
		})
	}
	if c.Server.UploadTimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.upload_timeout_secs",
			Message: "must be non-negative",
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported variables:
//   - EWASTE_SERVER_URL: overrides server.url
//   - EWASTE_STATE_DIR: overrides history.state_dir
//   - EWASTE_LANGUAGE: overrides voice.language
//   - EWASTE_VOICE: "1" or "true" enables spoken replies
func (c *Config) ApplyEnvOverrides() {
	if serverURL := os.Getenv("EWASTE_SERVER_URL"); serverURL != "" {
		c.Server.URL = serverURL
	}
	if dir := os.Getenv("EWASTE_STATE_DIR"); dir != "" {
		c.History.StateDir = dir
	}
	if lang := os.Getenv("EWASTE_LANGUAGE"); lang != "" {
		c.Voice.Language = lang
	}
	if voice := os.Getenv("EWASTE_VOICE"); voice != "" {
		c.Voice.Enabled = voice == "1" || strings.ToLower(voice) == "true"
	}
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// Timeout returns the chat request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Server.TimeoutSecs) * time.Second
}

// UploadTimeout returns the image upload timeout as a duration.
func (c *Config) UploadTimeout() time.Duration {
	return time.Duration(c.Server.UploadTimeoutSecs) * time.Second
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance, loading it on first
// access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state between tests.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
