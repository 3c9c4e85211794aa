package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLibrary(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	dirs := []struct {
		key  string
		path string
	}{
		{"paths.intake_dir", c.Paths.IntakeDir},
		{"paths.staging_dir", c.Paths.StagingDir},
		{"paths.library_dir", c.Paths.LibraryDir},
		{"paths.artwork_dir", c.Paths.ArtworkDir},
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir.path) == "" {
			return fmt.Errorf("%s must be set", dir.key)
		}
	}
	for i := range dirs {
		for j := i + 1; j < len(dirs); j++ {
			if overlaps(dirs[i].path, dirs[j].path) {
				return fmt.Errorf("%s and %s must be distinct, non-nested directories", dirs[i].key, dirs[j].key)
			}
		}
	}
	return nil
}

func overlaps(a, b string) bool {
	a = filepath.Clean(a)
	b = filepath.Clean(b)
	if a == b {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(a, b+sep) || strings.HasPrefix(b, a+sep)
}

func (c *Config) validateLibrary() error {
	if c.Library.AlbumName == "" {
		return errors.New("library.album_name must be set")
	}
	if len(c.Library.Extensions) == 0 {
		return errors.New("library.extensions must list at least one extension")
	}
	return nil
}

func (c *Config) validateMatching() error {
	for key, value := range map[string]float64{
		"matching.suggest_threshold": c.Matching.SuggestThreshold,
		"matching.containment_floor": c.Matching.ContainmentFloor,
		"matching.unspaced_floor":    c.Matching.UnspacedFloor,
	} {
		if value < 0 || value > 100 {
			return fmt.Errorf("%s must be between 0 and 100", key)
		}
	}
	if c.Matching.SuggestLimit <= 0 {
		return errors.New("matching.suggest_limit must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.scan_interval_seconds": c.Workflow.ScanIntervalSeconds,
		"llm.timeout_seconds":            c.LLM.TimeoutSeconds,
		"notifications.request_timeout":  c.Notifications.RequestTimeout,
	}); err != nil {
		return err
	}
	if c.Workflow.LibraryRescanIntervalSeconds < 0 {
		return errors.New("workflow.library_rescan_interval_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must not be negative")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
