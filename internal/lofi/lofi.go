// Package lofi applies the effects-processing chain to the merged mix.
package lofi

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
	"mixloom/internal/logging"
)

const stageName = "lofi"

// Artifacts written into the output directory.
const (
	LosslessName = "merged_lofi.wav"
	MP3Name      = "merged_lofi.mp3"
)

// Result is the lofi stage output.
type Result struct {
	LosslessPath string
	MP3Path      string
}

// Run validates any configured asset paths, then renders the effects chain
// to a lossless file and a 320 kbps CBR encode.
func Run(ctx context.Context, mergedPath string, cfg *config.Config, runner ffmpeg.Runner, logger *slog.Logger) (Result, error) {
	logger = logging.NewComponentLogger(logger, stageName)

	if err := validateAsset("texture", cfg.Paths.Texture); err != nil {
		return Result{}, err
	}
	if err := validateAsset("drum loop", cfg.Paths.DrumLoop); err != nil {
		return Result{}, err
	}

	params := ffmpeg.LofiParams{
		Texture:          cfg.Paths.Texture,
		DrumLoop:         cfg.Paths.DrumLoop,
		TextureGainDB:    cfg.Effects.TextureGainDB,
		DrumGainDB:       cfg.Effects.DrumGainDB,
		DrumStartSeconds: cfg.Effects.DrumStartSeconds,
		TempoFactor:      cfg.Effects.TempoFactor,
		HighpassHz:       cfg.Effects.HighpassHz,
		LowpassHz:        cfg.Effects.LowpassHz,
		Reverb:           cfg.Effects.Reverb,
		Saturation:       cfg.Effects.Saturation,
	}
	logger.Info("applying effects chain",
		logging.Bool("texture", params.Texture != ""),
		logging.Bool("drums", params.DrumLoop != ""),
		logging.Int("highpass_hz", params.HighpassHz),
		logging.Int("lowpass_hz", params.LowpassHz),
		logging.Float64("tempo_factor", params.TempoFactor),
	)

	losslessPath := filepath.Join(cfg.Paths.OutputDir, LosslessName)
	mp3Path := filepath.Join(cfg.Paths.OutputDir, MP3Name)
	losslessCmd, encodeCmd := ffmpeg.BuildLofi(mergedPath, losslessPath, mp3Path, params)

	if err := runner.Run(ctx, losslessCmd); err != nil {
		return Result{}, faults.Processing(stageName, "engine", losslessCmd.Description, err)
	}
	if _, err := os.Stat(losslessPath); err != nil {
		return Result{}, faults.Output(stageName, "verify output", LosslessName, err)
	}

	if err := runner.Run(ctx, encodeCmd); err != nil {
		return Result{}, faults.Processing(stageName, "engine", encodeCmd.Description, err)
	}
	if _, err := os.Stat(mp3Path); err != nil {
		return Result{}, faults.Output(stageName, "verify output", MP3Name, err)
	}

	logger.Info("effects chain complete",
		logging.String("lossless", LosslessName),
		logging.String("compressed", MP3Name),
	)
	return Result{LosslessPath: losslessPath, MP3Path: mp3Path}, nil
}

func validateAsset(label, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return faults.Validation(stageName, "asset", fmt.Sprintf("%s file %s", label, path), err)
	}
	if info.IsDir() {
		return faults.Validation(stageName, "asset", fmt.Sprintf("%s path %s is a directory", label, path), nil)
	}
	return nil
}
