// Package file loads InfoBot configuration from a TOML file with
// environment variable overrides for secrets.
package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/infobot/internal/core/domain"
)

// Config is the full application configuration. Zero values fall back
// to the domain defaults on load.
type Config struct {
	// DataDir holds the index and history database. Defaults to
	// ~/.infobot/data.
	DataDir string `toml:"data_dir"`

	// Verbose enables debug logging.
	Verbose bool `toml:"verbose"`

	Drive      DriveConfig      `toml:"drive"`
	Confluence ConfluenceConfig `toml:"confluence"`
	Gemini     GeminiConfig     `toml:"gemini"`
	Search     SearchConfig     `toml:"search"`
	Chunking   ChunkingConfig   `toml:"chunking"`
	Sync       SyncConfig       `toml:"sync"`
}

// DriveConfig configures the Google Drive connector.
type DriveConfig struct {
	// CredentialsFile is the service account JSON key path.
	CredentialsFile string `toml:"credentials_file"`

	// DelegatedUser impersonates a workspace user. Optional.
	DelegatedUser string `toml:"delegated_user"`

	// FolderIDs restricts syncing to these folder trees.
	FolderIDs []string `toml:"folder_ids"`
}

// ConfluenceConfig configures the Confluence connector.
type ConfluenceConfig struct {
	BaseURL  string   `toml:"base_url"`
	Username string   `toml:"username"`
	APIToken string   `toml:"api_token"`
	Spaces   []string `toml:"spaces"`
}

// GeminiConfig configures the answer generator.
type GeminiConfig struct {
	APIKey          string  `toml:"api_key"`
	Model           string  `toml:"model"`
	Temperature     float64 `toml:"temperature"`
	MaxOutputTokens int     `toml:"max_output_tokens"`
}

// SearchConfig tunes retrieval.
type SearchConfig struct {
	MaxResults   int     `toml:"max_results"`
	MinScore     float64 `toml:"min_score"`
	TitleBoost   float64 `toml:"title_boost"`
	BodyBoost    float64 `toml:"body_boost"`
	ContextLimit int     `toml:"context_limit"`
}

// ChunkingConfig tunes the document processor.
type ChunkingConfig struct {
	ChunkSize      int `toml:"chunk_size"`
	ChunkOverlap   int `toml:"chunk_overlap"`
	MinChunkLength int `toml:"min_chunk_length"`
}

// SyncConfig tunes the background scheduler.
type SyncConfig struct {
	// Enabled toggles background synchronisation. Defaults to true;
	// set enabled = false to run sync manually only.
	Enabled *bool `toml:"enabled"`

	// Interval is a Go duration string, e.g. "2m".
	Interval string `toml:"interval"`
}

// Load reads configuration from path, or ~/.infobot/config.toml when
// path is empty. A missing file yields pure defaults; a malformed file
// is an error. Environment variables override secrets afterwards.
func Load(path string) (*Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".infobot", "config.toml")
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// No config file yet - defaults plus environment
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides secret-bearing fields from the environment so
// tokens never have to live in the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("INFOBOT_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv("CONFLUENCE_BASE_URL"); v != "" {
		c.Confluence.BaseURL = v
	}
	if v := os.Getenv("CONFLUENCE_USERNAME"); v != "" {
		c.Confluence.Username = v
	}
	if v := os.Getenv("CONFLUENCE_API_TOKEN"); v != "" {
		c.Confluence.APIToken = v
	}
	// The Drive connector reads GOOGLE_APPLICATION_CREDENTIALS itself
	// when no credentials file is configured.
}

// ResolveDataDir returns the configured data directory or the default
// under the user's home.
func (c *Config) ResolveDataDir() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".infobot", "data"), nil
}

// SearchSettings maps the config onto domain settings, filling gaps
// with defaults.
func (c *Config) SearchSettings() domain.SearchSettings {
	s := domain.DefaultSearchSettings()
	if c.Search.MaxResults > 0 {
		s.MaxResults = c.Search.MaxResults
	}
	if c.Search.MinScore > 0 {
		s.MinScore = c.Search.MinScore
	}
	if c.Search.TitleBoost > 0 {
		s.TitleBoost = c.Search.TitleBoost
	}
	if c.Search.BodyBoost > 0 {
		s.BodyBoost = c.Search.BodyBoost
	}
	if c.Search.ContextLimit > 0 {
		s.ContextLimit = c.Search.ContextLimit
	}
	return s
}

// ChunkingSettings maps the config onto domain settings, filling gaps
// with defaults.
func (c *Config) ChunkingSettings() domain.ChunkingSettings {
	s := domain.DefaultChunkingSettings()
	if c.Chunking.ChunkSize > 0 {
		s.ChunkSize = c.Chunking.ChunkSize
	}
	if c.Chunking.ChunkOverlap > 0 {
		s.ChunkOverlap = c.Chunking.ChunkOverlap
	}
	if c.Chunking.MinChunkLength > 0 {
		s.MinChunkLength = c.Chunking.MinChunkLength
	}
	return s
}

// SyncSettings maps the config onto domain settings, filling gaps
// with defaults. A malformed interval falls back to the default.
func (c *Config) SyncSettings() domain.SyncSettings {
	s := domain.DefaultSyncSettings()
	if c.Sync.Enabled != nil {
		s.Enabled = *c.Sync.Enabled
	}
	if c.Sync.Interval != "" {
		if d, err := time.ParseDuration(c.Sync.Interval); err == nil && d > 0 {
			s.Interval = d
		}
	}
	return s
}
