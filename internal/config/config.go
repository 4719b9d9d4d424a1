// Package config provides configuration loading and defaults for xpcard.
//
// Configuration is loaded from a TOML file in the user's data directory.
// The package covers the asset directory, font selection, avatar fetching
// policy, display locale, the HTTP service and logging, with defaults that
// render a card out of the box.
package config

//go:generate go run ../../cmd/genconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"

	"tools.zach/dev/xpcard/internal/atomicfile"
	"tools.zach/dev/xpcard/internal/paths"
)

// Environment variables that override [ServerConfig] values.
const (
	EnvAddr           = "XPCARD_ADDR"
	EnvAllowedOrigins = "XPCARD_ALLOWED_ORIGINS"
)

// ///////////////////////////////////////////////
// Configuration Types
// ///////////////////////////////////////////////

// Config represents the top-level application configuration.
type Config struct {
	// Assets holds the local image asset locations.
	Assets AssetsConfig `toml:"assets"`
	// Font holds typeface selection.
	Font FontConfig `toml:"font"`
	// Avatar holds the avatar fetching policy.
	Avatar AvatarConfig `toml:"avatar"`
	// Display holds text formatting settings.
	Display DisplayConfig `toml:"display"`
	// Server holds HTTP render service settings.
	Server ServerConfig `toml:"server"`
	// Log holds logging settings.
	Log LogConfig `toml:"log"`
}

// AssetsConfig holds the local image asset locations.
type AssetsConfig struct {
	// Dir is the asset directory. Relative paths are rooted at the data directory.
	Dir string `toml:"dir"`
	// Background is the background image file name inside Dir.
	Background string `toml:"background"`
	// Shadow is the panel shadow image file name inside Dir.
	Shadow string `toml:"shadow"`
	// RolePattern names role icon files; "{tier}" is replaced with the tier.
	RolePattern string `toml:"role_pattern"`
}

// FontConfig holds typeface selection.
type FontConfig struct {
	// Path is a local TTF, OTF or WOFF2 file. Empty skips it.
	Path string `toml:"path,omitempty"`
	// Fallback is a Google Fonts spec ("google:FAMILY:WEIGHT"). Empty skips it.
	Fallback string `toml:"fallback,omitempty"`
}

// AvatarConfig holds the avatar fetching policy.
type AvatarConfig struct {
	// TimeoutSeconds bounds a single avatar download.
	TimeoutSeconds int `toml:"timeout_seconds"`
	// RetryMax is the number of retries for failed downloads (0 = none).
	RetryMax int `toml:"retry_max"`
	// MaxBytes caps the avatar response body.
	MaxBytes int64 `toml:"max_bytes"`
	// AllowedHosts are glob patterns for http(s) avatar hosts. Empty allows any host.
	AllowedHosts []string `toml:"allowed_hosts"`
}

// DisplayConfig holds text formatting settings.
type DisplayConfig struct {
	// Locale is the BCP 47 tag used for XP digit grouping.
	Locale string `toml:"locale"`
}

// ServerConfig holds HTTP render service settings.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `toml:"addr"`
	// AllowedOrigins are the CORS origins; "*" allows any.
	AllowedOrigins []string `toml:"allowed_origins"`
	// MaxBadges rejects requests carrying more badges (0 = no limit).
	MaxBadges int `toml:"max_badges"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `toml:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation.
	MaxSizeMB int `toml:"max_size_mb"`
	// File is the log file path. Empty logs to the data directory; "-" logs to stderr.
	File string `toml:"file,omitempty"`
}

// ///////////////////////////////////////////////
// Default Configuration
// ///////////////////////////////////////////////

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Assets: AssetsConfig{
			Dir:         paths.DefaultAssetsDir,
			Background:  paths.BackgroundFile,
			Shadow:      paths.ShadowFile,
			RolePattern: paths.RolePattern,
		},
		Avatar: AvatarConfig{
			TimeoutSeconds: 10,
			RetryMax:       0,
			MaxBytes:       8 << 20,
			AllowedHosts:   []string{},
		},
		Display: DisplayConfig{
			Locale: "en-US",
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8080",
			AllowedOrigins: []string{"*"},
			MaxBadges:      16,
		},
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 10,
		},
	}
}

// ///////////////////////////////////////////////
// Example Configuration
// ///////////////////////////////////////////////

// ExampleConfig returns a Config suitable for generating config.default.toml.
// For this project all defaults are good examples.
func ExampleConfig() *Config {
	return DefaultConfig()
}

// ///////////////////////////////////////////////
// Loading and Saving
// ///////////////////////////////////////////////

// Load reads and parses the configuration file from dataDir/config.toml,
// then applies environment overrides from the process and dataDir/.env.
// If the file doesn't exist, the defaults are used.
func Load(dataDir string) (*Config, error) {
	dirs := paths.DataDir{Root: dataDir}
	cfg := DefaultConfig()

	data, err := os.ReadFile(dirs.Config())
	switch {
	case err == nil:
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		for _, key := range md.Undecoded() {
			slog.Warn("unknown config key", "key", key.String())
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := cfg.ApplyEnv(dirs.Env()); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides server settings from XPCARD_* variables. Variables set
// in the process environment win over those read from envFile. A missing
// envFile is not an error.
func (c *Config) ApplyEnv(envFile string) error {
	fileVars := map[string]string{}
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileVars = vars
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("read env file: %w", err)
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}

	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvAllowedOrigins); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Server.AllowedOrigins = origins
	}
	return nil
}

// Save writes the config to disk as TOML using atomic file write.
func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return atomicfile.Write(path, buf.Bytes(), 0o644)
}

// ///////////////////////////////////////////////
// Validation
// ///////////////////////////////////////////////

// validLogLevels is the set of accepted log level strings.
var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks that all configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.Assets.Background == "" || c.Assets.Shadow == "" {
		return fmt.Errorf("assets.background and assets.shadow must be set")
	}
	if !strings.Contains(c.Assets.RolePattern, "{tier}") {
		return fmt.Errorf("invalid assets.role_pattern %q: must contain {tier}", c.Assets.RolePattern)
	}

	if c.Font.Fallback != "" && !strings.HasPrefix(c.Font.Fallback, "google:") {
		return fmt.Errorf("invalid font.fallback %q: must be google:FAMILY:WEIGHT", c.Font.Fallback)
	}

	if c.Avatar.TimeoutSeconds <= 0 {
		return fmt.Errorf("avatar.timeout_seconds must be > 0, got %d", c.Avatar.TimeoutSeconds)
	}
	if c.Avatar.RetryMax < 0 {
		return fmt.Errorf("avatar.retry_max must be >= 0, got %d", c.Avatar.RetryMax)
	}
	if c.Avatar.MaxBytes <= 0 {
		return fmt.Errorf("avatar.max_bytes must be > 0, got %d", c.Avatar.MaxBytes)
	}
	for _, pattern := range c.Avatar.AllowedHosts {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid avatar.allowed_hosts pattern %q", pattern)
		}
	}

	if _, err := language.Parse(c.Display.Locale); err != nil {
		return fmt.Errorf("invalid display.locale %q: %w", c.Display.Locale, err)
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must be set")
	}
	if c.Server.MaxBadges < 0 {
		return fmt.Errorf("server.max_badges must be >= 0, got %d", c.Server.MaxBadges)
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log.level %q: must be trace, debug, info, warn, or error", c.Log.Level)
	}
	if c.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("log.max_size_mb must be > 0, got %d", c.Log.MaxSizeMB)
	}

	return nil
}

// ///////////////////////////////////////////////
// Helpers
// ///////////////////////////////////////////////

// Locale returns the parsed display locale, falling back to American English
// for an unparsable tag.
func (c *Config) Locale() language.Tag {
	tag, err := language.Parse(c.Display.Locale)
	if err != nil {
		return language.AmericanEnglish
	}
	return tag
}

// HostAllowed reports whether host may serve avatars. An empty allow list
// permits every host.
func (c *Config) HostAllowed(host string) bool {
	if len(c.Avatar.AllowedHosts) == 0 {
		return true
	}
	host = strings.ToLower(host)
	for _, pattern := range c.Avatar.AllowedHosts {
		matched, err := doublestar.Match(strings.ToLower(pattern), host)
		if err != nil {
			slog.Warn("invalid glob pattern", "pattern", pattern, "error", err)
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// LogPath returns the configured log file, defaulting to the data directory.
// It returns "" when logging to stderr.
func (c *Config) LogPath(dataDir string) string {
	switch c.Log.File {
	case "-":
		return ""
	case "":
		return paths.DataDir{Root: dataDir}.Log()
	default:
		return c.Log.File
	}
}
