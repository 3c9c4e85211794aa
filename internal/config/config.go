package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Paths contains directory and bind address configuration.
type Paths struct {
	IntakeDir  string `toml:"intake_dir"`
	StagingDir string `toml:"staging_dir"`
	LibraryDir string `toml:"library_dir"`
	DataDir    string `toml:"data_dir"`
	ArtworkDir string `toml:"artwork_dir"`
	LogDir     string `toml:"log_dir"`
	APIBind    string `toml:"api_bind"`
}

// LLM contains the text-inference service connection settings.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Library contains configuration for the canonical library layout.
type Library struct {
	// AlbumName is written to every confirmed track and names the album folder.
	AlbumName string `toml:"album_name"`
	// Extensions lists the audio file extensions picked up by intake and indexing.
	Extensions []string `toml:"extensions"`
	// OtherGenreSentinel is the placeholder genre that must be replaced before confirm.
	OtherGenreSentinel string `toml:"other_genre_sentinel"`
}

// Matching contains the duplicate-artist suggestion thresholds (0-100).
type Matching struct {
	SuggestThreshold float64 `toml:"suggest_threshold"`
	ContainmentFloor float64 `toml:"containment_floor"`
	UnspacedFloor    float64 `toml:"unspaced_floor"`
	SuggestLimit     int     `toml:"suggest_limit"`
}

// Workflow contains configuration for daemon timing and intervals.
type Workflow struct {
	ScanIntervalSeconds          int `toml:"scan_interval_seconds"`
	LibraryRescanIntervalSeconds int `toml:"library_rescan_interval_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Review         bool   `toml:"review"`
	Library        bool   `toml:"library"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config is the decoded config.toml. Every path field is absolute once Load
// returns.
type Config struct {
	Paths         Paths         `toml:"paths"`
	LLM           LLM           `toml:"llm"`
	Library       Library       `toml:"library"`
	Matching      Matching      `toml:"matching"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// EnsureDirectories creates the working directories. The library root is
// created best-effort so the daemon still starts while external storage is
// unmounted; the dry-run and move paths report it as unwritable instead.
func (c *Config) EnsureDirectories() error {
	required := []string{c.Paths.IntakeDir, c.Paths.StagingDir, c.Paths.DataDir, c.Paths.ArtworkDir, c.Paths.LogDir}
	for _, dir := range required {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if lib := strings.TrimSpace(c.Paths.LibraryDir); lib != "" {
		_ = os.MkdirAll(lib, 0o755)
	}
	return nil
}

// DatabasePath is <data_dir>/tuneshelf.db.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "tuneshelf.db")
}

// HasExtension reports whether ext (with leading dot, any case) is one of
// library.extensions.
func (c *Config) HasExtension(ext string) bool {
	return slices.Contains(c.Library.Extensions, strings.ToLower(strings.TrimSpace(ext)))
}
