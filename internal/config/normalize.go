package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeLibrary()
	c.normalizeLogging()
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir()
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir()
	}
	// staging and artwork default to subdirectories of the already-expanded
	// data_dir, so data_dir is resolved first.
	steps := []struct {
		key      string
		field    *string
		fallback func() string
	}{
		{"paths.data_dir", &c.Paths.DataDir, nil},
		{"paths.intake_dir", &c.Paths.IntakeDir, nil},
		{"paths.library_dir", &c.Paths.LibraryDir, nil},
		{"paths.staging_dir", &c.Paths.StagingDir, func() string { return filepath.Join(c.Paths.DataDir, "staging") }},
		{"paths.artwork_dir", &c.Paths.ArtworkDir, func() string { return filepath.Join(c.Paths.DataDir, "artwork") }},
		{"paths.log_dir", &c.Paths.LogDir, nil},
	}
	for _, step := range steps {
		if strings.TrimSpace(*step.field) == "" && step.fallback != nil {
			*step.field = step.fallback()
		}
		expanded, err := ExpandPath(strings.TrimSpace(*step.field))
		if err != nil {
			return fmt.Errorf("%s: %w", step.key, err)
		}
		*step.field = expanded
	}

	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		for _, key := range []string{"TUNESHELF_LLM_API_KEY", "OPENROUTER_API_KEY"} {
			if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
				c.LLM.APIKey = strings.TrimSpace(value)
				break
			}
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
}

func (c *Config) normalizeLibrary() {
	c.Library.AlbumName = strings.TrimSpace(c.Library.AlbumName)
	c.Library.OtherGenreSentinel = strings.TrimSpace(c.Library.OtherGenreSentinel)

	seen := make(map[string]struct{}, len(c.Library.Extensions))
	exts := make([]string, 0, len(c.Library.Extensions))
	for _, ext := range c.Library.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	c.Library.Extensions = exts
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
