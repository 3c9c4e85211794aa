package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	defaultIntakeDir                    = "~/incoming"
	defaultLibraryDir                   = "~/music"
	defaultAPIBind                      = "127.0.0.1:8090"
	defaultAlbumName                    = "منوعات"
	defaultOtherGenreSentinel           = "أخرى…"
	defaultLLMBaseURL                   = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel                     = "google/gemini-2.0-flash-lite-001"
	defaultLLMReferer                   = "https://github.com/tuneshelf/tuneshelf"
	defaultLLMTitle                     = "tuneshelf metadata inference"
	defaultLLMTimeoutSeconds            = 30
	defaultScanIntervalSeconds          = 30
	defaultLibraryRescanIntervalSeconds = 0
	defaultSuggestThreshold             = 90
	defaultContainmentFloor             = 92
	defaultUnspacedFloor                = 97
	defaultSuggestLimit                 = 5
	defaultLogFormat                    = "console"
	defaultLogLevel                     = "info"
	defaultLogRetentionDays             = 30
)

var defaultExtensions = []string{".mp3", ".m4a", ".flac", ".ogg", ".opus"}

func defaultDataDir() string {
	return filepath.Join(xdg.DataHome, "tuneshelf")
}

func defaultLogDir() string {
	return filepath.Join(xdg.StateHome, "tuneshelf", "logs")
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	dataDir := defaultDataDir()
	return Config{
		Paths: Paths{
			IntakeDir:  defaultIntakeDir,
			StagingDir: filepath.Join(dataDir, "staging"),
			LibraryDir: defaultLibraryDir,
			DataDir:    dataDir,
			ArtworkDir: filepath.Join(dataDir, "artwork"),
			LogDir:     defaultLogDir(),
			APIBind:    defaultAPIBind,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Library: Library{
			AlbumName:          defaultAlbumName,
			Extensions:         append([]string(nil), defaultExtensions...),
			OtherGenreSentinel: defaultOtherGenreSentinel,
		},
		Matching: Matching{
			SuggestThreshold: defaultSuggestThreshold,
			ContainmentFloor: defaultContainmentFloor,
			UnspacedFloor:    defaultUnspacedFloor,
			SuggestLimit:     defaultSuggestLimit,
		},
		Workflow: Workflow{
			ScanIntervalSeconds:          defaultScanIntervalSeconds,
			LibraryRescanIntervalSeconds: defaultLibraryRescanIntervalSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
			Review:         true,
			Library:        true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
