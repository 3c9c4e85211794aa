package preflight

import (
	"context"
	"strings"

	"tuneshelf/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Options selects the checks that reach out over the network.
type Options struct {
	LLM  bool
	Ntfy bool
}

// RunAll executes the directory checks and, when requested, the service
// health checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Intake directory", cfg.Paths.IntakeDir),
		CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir),
		CheckDirectoryAccess("Library directory", cfg.Paths.LibraryDir),
		CheckDirectoryAccess("Artwork directory", cfg.Paths.ArtworkDir),
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
	}

	if opts.LLM {
		results = append(results, CheckLLM(ctx, "Inference LLM", cfg.LLM))
	}
	if opts.Ntfy && strings.TrimSpace(cfg.Notifications.NtfyTopic) != "" {
		results = append(results, CheckNtfy(ctx, cfg.Notifications.NtfyTopic))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
