// Package merge blends the ordered track list into a single normalized
// audio artifact with chained crossfades.
package merge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"mixloom/internal/config"
	"mixloom/internal/faults"
	"mixloom/internal/ffmpeg"
	"mixloom/internal/ingest"
	"mixloom/internal/logging"
)

const stageName = "merge"

// OutputName is the merged artifact written into the output directory.
const OutputName = "merged_clean.wav"

// minCrossfadeSeconds is the floor applied to reduced crossfades.
const minCrossfadeSeconds = 1.0

// Result is the merge stage output.
type Result struct {
	OutputPath string
	// Crossfades holds the applied per-pair durations in seconds, one
	// entry per adjacent track pair.
	Crossfades []float64
}

// PlanCrossfades computes the per-pair crossfade durations. Each adjacent
// pair is evaluated independently: the configured default is used unless
// it exceeds 50% of the shorter neighbor's duration, in which case exactly
// 50% of that duration is used, floored at one second. A single track
// yields no crossfades.
func PlanCrossfades(tracks []ingest.Track, defaultFade float64, logger *slog.Logger) []float64 {
	if len(tracks) <= 1 {
		return nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	fades := make([]float64, 0, len(tracks)-1)
	for i := 0; i < len(tracks)-1; i++ {
		shorter := tracks[i].Duration
		if tracks[i+1].Duration < shorter {
			shorter = tracks[i+1].Duration
		}

		fade := defaultFade
		if fade > shorter*0.5 {
			fade = shorter * 0.5
			if fade < minCrossfadeSeconds {
				fade = minCrossfadeSeconds
			}
			logger.Warn("crossfade reduced for short track",
				logging.String("pair", fmt.Sprintf("%s/%s", tracks[i].Name, tracks[i+1].Name)),
				logging.Float64("shorter_duration_s", shorter),
				logging.Float64("configured_s", defaultFade),
				logging.Float64("applied_s", fade),
			)
		}
		fades = append(fades, fade)
	}
	return fades
}

// Run merges the tracks into OutputName inside the output directory.
func Run(ctx context.Context, tracks []ingest.Track, cfg *config.Config, runner ffmpeg.Runner, logger *slog.Logger) (Result, error) {
	logger = logging.NewComponentLogger(logger, stageName)

	if len(tracks) == 0 {
		return Result{}, faults.Validation(stageName, "plan", "cannot merge zero tracks", nil)
	}

	fades := PlanCrossfades(tracks, cfg.CrossfadeSeconds(), logger)
	logger.Info("merging tracks",
		logging.Int("tracks", len(tracks)),
		logging.Int("crossfades", len(fades)),
	)

	inputs := make([]string, 0, len(tracks))
	for _, track := range tracks {
		inputs = append(inputs, track.Path)
	}
	outputPath := filepath.Join(cfg.Paths.OutputDir, OutputName)

	cmd, err := ffmpeg.BuildMerge(inputs, fades, outputPath)
	if err != nil {
		return Result{}, faults.Validation(stageName, "build command", "", err)
	}
	if err := runner.Run(ctx, cmd); err != nil {
		return Result{}, faults.Processing(stageName, "engine", cmd.Description, err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return Result{}, faults.Output(stageName, "verify output", OutputName, err)
	}
	logger.Info("merge complete",
		logging.String("output", OutputName),
		logging.Int64("size_bytes", info.Size()),
	)
	return Result{OutputPath: outputPath, Crossfades: fades}, nil
}
