package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"mixloom/internal/config"
	"mixloom/internal/faults"
	"mixloom/internal/ledger"
	"mixloom/internal/logging"
	"mixloom/internal/pipeline"
)

// runFlags holds the command-line overrides layered over the config file.
type runFlags struct {
	inputDir    string
	outputDir   string
	coverImage  string
	texture     string
	drumLoop    string
	crossfadeMS int
	trackLimit  int
	skipEffects bool
	tempoFactor float64
	reverb      bool
	saturation  bool
	logLevel    string
	logFormat   string
	noHistory   bool
}

func newRunCommand(configFlag *string) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the merge pipeline against an input directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configFlag)
			if err != nil {
				return faults.Validation("cli", "load config", *configFlag, err)
			}
			applyRunFlags(cmd, cfg, flags)
			if err := cfg.Validate(); err != nil {
				return faults.Validation("cli", "validate config", "", err)
			}

			logger, err := logging.ForRun(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.OutputDir)
			if err != nil {
				return faults.Validation("cli", "initialize logging", cfg.Paths.OutputDir, err)
			}

			opts := []pipeline.Option{}
			if !flags.noHistory {
				if store := openHistory(logger); store != nil {
					defer store.Close()
					opts = append(opts, pipeline.WithLedger(store))
				}
			}

			outcome, err := pipeline.New(cfg, logger, opts...).Run(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s completed with %d tracks\n", cfg.RunID, outcome.TrackCount)
			for name, output := range outcome.Outputs {
				fmt.Fprintf(out, "  %s: %s (%.2f MB)\n", name, output.Path, output.FileSizeMB)
			}
			fmt.Fprintf(out, "Manifest: %s\n", outcome.ManifestPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.inputDir, "input", "i", "", "Directory containing the audio tracks")
	cmd.Flags().StringVarP(&flags.outputDir, "output", "o", "", "Directory receiving the artifacts")
	cmd.Flags().StringVar(&flags.coverImage, "cover", "", "Cover image; enables the video stage")
	cmd.Flags().StringVar(&flags.texture, "texture", "", "Background texture loop mixed under the effects")
	cmd.Flags().StringVar(&flags.drumLoop, "drum-loop", "", "Drum loop mixed under the effects")
	cmd.Flags().IntVar(&flags.crossfadeMS, "crossfade-ms", 0, "Default crossfade between tracks in milliseconds")
	cmd.Flags().IntVar(&flags.trackLimit, "track-limit", 0, "Process a random subset of this many tracks")
	cmd.Flags().BoolVar(&flags.skipEffects, "skip-effects", false, "Skip the lofi effects stage")
	cmd.Flags().Float64Var(&flags.tempoFactor, "tempo", 0, "Tempo factor applied by the effects stage")
	cmd.Flags().BoolVar(&flags.reverb, "reverb", false, "Add reverb in the effects stage")
	cmd.Flags().BoolVar(&flags.saturation, "saturation", false, "Add low-end saturation in the effects stage")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&flags.logFormat, "log-format", "", "Log format (console, json)")
	cmd.Flags().BoolVar(&flags.noHistory, "no-history", false, "Do not record this run in the history database")

	return cmd
}

// applyRunFlags layers explicitly-set flags over the loaded config. Only
// flags the user changed are applied so config-file values survive.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config, flags runFlags) {
	if strings.TrimSpace(flags.inputDir) != "" {
		cfg.Paths.InputDir = flags.inputDir
	}
	if strings.TrimSpace(flags.outputDir) != "" {
		cfg.Paths.OutputDir = flags.outputDir
	}
	if strings.TrimSpace(flags.coverImage) != "" {
		cfg.Paths.CoverImage = flags.coverImage
	}
	if strings.TrimSpace(flags.texture) != "" {
		cfg.Paths.Texture = flags.texture
	}
	if strings.TrimSpace(flags.drumLoop) != "" {
		cfg.Paths.DrumLoop = flags.drumLoop
	}
	if cmd.Flags().Changed("crossfade-ms") {
		cfg.Merge.CrossfadeMS = flags.crossfadeMS
	}
	if cmd.Flags().Changed("track-limit") {
		cfg.Merge.TrackLimit = flags.trackLimit
	}
	if cmd.Flags().Changed("skip-effects") {
		cfg.Effects.Skip = flags.skipEffects
	}
	if cmd.Flags().Changed("tempo") {
		cfg.Effects.TempoFactor = flags.tempoFactor
	}
	if cmd.Flags().Changed("reverb") {
		cfg.Effects.Reverb = flags.reverb
	}
	if cmd.Flags().Changed("saturation") {
		cfg.Effects.Saturation = flags.saturation
	}
	if strings.TrimSpace(flags.logLevel) != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if strings.TrimSpace(flags.logFormat) != "" {
		cfg.Logging.Format = flags.logFormat
	}
}

// openHistory opens the run-history ledger; failures degrade to a warning
// because history is not worth failing a render over.
func openHistory(logger *slog.Logger) *ledger.Store {
	path, err := ledger.DefaultPath()
	if err != nil {
		logger.Warn("run history disabled", "error", err.Error())
		return nil
	}
	store, err := ledger.Open(path)
	if err != nil {
		logger.Warn("run history disabled", "error", err.Error())
		return nil
	}
	return store
}
