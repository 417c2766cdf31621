// Package preflight validates the environment before any engine work
// starts: required binaries, directory permissions, and disk headroom.
package preflight

import (
	"context"
	"fmt"
	"strings"

	"mixloom/internal/config"
	"mixloom/internal/faults"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every applicable check for the given config. Checks
// never abort early; the caller gets the full picture in one pass.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckEngineBinary("FFmpeg", cfg.Engine.FFmpeg),
		CheckEngineBinary("FFprobe", cfg.Engine.FFprobe),
		CheckEngineVersion(ctx, cfg.Engine.FFmpeg),
		CheckDirectoryAccess("Input directory", cfg.Paths.InputDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDiskSpace(cfg.Paths.OutputDir, cfg.Paths.InputDir),
	}
	return results
}

// Enforce converts failed checks into a validation error naming every
// failure, or nil when all checks passed.
func Enforce(results []Result) error {
	var failures []string
	for _, result := range results {
		if !result.Passed {
			failures = append(failures, fmt.Sprintf("%s: %s", result.Name, result.Detail))
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return faults.Validation("preflight", "environment checks", strings.Join(failures, "; "), nil)
}
