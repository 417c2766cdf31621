// Package video renders the static cover video for the final mix.
package video

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"mixloom/internal/config"
	"mixloom/internal/faults"
	"mixloom/internal/ffmpeg"
	"mixloom/internal/fileutil"
	"mixloom/internal/logging"
)

const stageName = "video"

// OutputName is the rendered video artifact.
const OutputName = "final_video.mp4"

// Result is the video stage output.
type Result struct {
	VideoPath     string
	ThumbnailPath string
	AudioDuration float64
}

// Run probes the final audio artifact's duration, renders the letterboxed
// cover video truncated to exactly that duration, and duplicates the cover
// image as a thumbnail artifact.
func Run(ctx context.Context, audioPath string, cfg *config.Config, prober ffmpeg.Prober, runner ffmpeg.Runner, logger *slog.Logger) (Result, error) {
	logger = logging.NewComponentLogger(logger, stageName)

	cover := strings.TrimSpace(cfg.Paths.CoverImage)
	info, err := os.Stat(cover)
	if err != nil {
		return Result{}, faults.Validation(stageName, "cover image", cover, err)
	}
	if info.IsDir() {
		return Result{}, faults.Validation(stageName, "cover image", fmt.Sprintf("%s is a directory", cover), nil)
	}

	probeResult, err := prober.Inspect(ctx, audioPath)
	if err != nil {
		return Result{}, faults.Processing(stageName, "probe audio", audioPath, err)
	}
	duration := probeResult.DurationSeconds()
	if duration <= 0 {
		return Result{}, faults.Processing(stageName, "probe audio", fmt.Sprintf("no usable duration for %s", audioPath), nil)
	}
	logger.Info("rendering video", logging.Float64("audio_duration_s", duration))

	outputPath := filepath.Join(cfg.Paths.OutputDir, OutputName)
	cmd := ffmpeg.BuildVideo(cover, audioPath, duration, outputPath)
	if err := runner.Run(ctx, cmd); err != nil {
		return Result{}, faults.Processing(stageName, "engine", cmd.Description, err)
	}
	if _, err := os.Stat(outputPath); err != nil {
		return Result{}, faults.Output(stageName, "verify output", OutputName, err)
	}

	thumbnailPath := filepath.Join(cfg.Paths.OutputDir, "thumbnail"+filepath.Ext(cover))
	if err := fileutil.CopyFileVerified(cover, thumbnailPath); err != nil {
		return Result{}, faults.Output(stageName, "copy thumbnail", thumbnailPath, err)
	}

	logger.Info("video complete",
		logging.String("video", OutputName),
		logging.String("thumbnail", filepath.Base(thumbnailPath)),
	)
	return Result{VideoPath: outputPath, ThumbnailPath: thumbnailPath, AudioDuration: duration}, nil
}
