package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Source kinds accepted in [SourceConfig.Kind].
const (
	SourceYTDLP   = "ytdlp"
	SourceSpotify = "spotify"
	SourceYouTube = "youtube"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Sync        SyncConfig        `toml:"sync"`
	Export      ExportConfig      `toml:"export"`
	Source      SourceConfig      `toml:"source"`
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Log         LogConfig         `toml:"log"`
}

// SyncConfig controls the local scan and the reconciler.
type SyncConfig struct {
	LocalRoot   string   `toml:"local_root"`
	Extensions  []string `toml:"extensions"`
	Workers     int      `toml:"workers"`      // reconciler workers; <= 1 is sequential
	ScanWorkers int      `toml:"scan_workers"` // tag reader workers; 0 uses NumCPU
	UseCache    bool     `toml:"use_cache"`
}

// ExportConfig holds the default destinations for exported tables.
type ExportConfig struct {
	RemotePath  string `toml:"remote_path"`
	LocalPath   string `toml:"local_path"`
	JoinedPath  string `toml:"joined_path"`
	MissingPath string `toml:"missing_path"`
	HistoryPath string `toml:"history_path"`
}

// SourceConfig selects and tunes the remote playlist source.
type SourceConfig struct {
	Kind      string  `toml:"kind"`
	YTDLPPath string  `toml:"ytdlp_path"`
	RateLimit float64 `toml:"rate_limit"` // yt-dlp invocations per second
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API client credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LogConfig sets the log level by name.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate checks values that would otherwise fail late in a run.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceYTDLP, SourceSpotify, SourceYouTube:
	default:
		return fmt.Errorf("%w: unknown source kind %q", ErrInvalidConfig, c.Source.Kind)
	}
	if len(c.Sync.Extensions) == 0 {
		return fmt.Errorf("%w: sync.extensions must not be empty", ErrInvalidConfig)
	}
	if c.Sync.Workers < 0 || c.Sync.ScanWorkers < 0 {
		return fmt.Errorf("%w: worker counts must not be negative", ErrInvalidConfig)
	}
	if c.Source.RateLimit < 0 {
		return fmt.Errorf("%w: source.rate_limit must not be negative", ErrInvalidConfig)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadOrDefault loads path when it exists and falls back to [DefaultConfig] otherwise.
//
// A file that exists but fails to parse or validate is an error.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(path); err != nil {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}
