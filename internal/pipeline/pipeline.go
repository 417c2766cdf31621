// Package pipeline orchestrates the run: preflight, ingest, merge,
// optional effects, optional video, and the audit record.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"mixloom/internal/config"
	"mixloom/internal/faults"
	"mixloom/internal/ffmpeg"
	"mixloom/internal/ingest"
	"mixloom/internal/ledger"
	"mixloom/internal/lofi"
	"mixloom/internal/logging"
	"mixloom/internal/manifest"
	"mixloom/internal/merge"
	"mixloom/internal/preflight"
	"mixloom/internal/video"
)

const lockFileName = ".mixloom.lock"

// Outcome summarizes a completed run for the caller.
type Outcome struct {
	ManifestPath string
	TrackCount   int
	Outputs      map[string]manifest.Output
}

// Pipeline wires the stages together for one run.
type Pipeline struct {
	cfg           *config.Config
	logger        *slog.Logger
	prober        ffmpeg.Prober
	runner        ffmpeg.Runner
	store         *ledger.Store
	engineVersion string
	skipPreflight bool
}

// Option adjusts pipeline construction.
type Option func(*Pipeline)

// WithProber substitutes the media prober.
func WithProber(prober ffmpeg.Prober) Option {
	return func(p *Pipeline) { p.prober = prober }
}

// WithRunner substitutes the engine runner. Invocations through a
// substituted runner are still captured in the manifest.
func WithRunner(runner ffmpeg.Runner) Option {
	return func(p *Pipeline) { p.runner = runner }
}

// WithLedger records the run in the given history store when it ends.
func WithLedger(store *ledger.Store) Option {
	return func(p *Pipeline) { p.store = store }
}

// WithEngineVersion pins the engine version recorded in the manifest
// instead of querying the binary.
func WithEngineVersion(version string) Option {
	return func(p *Pipeline) { p.engineVersion = version }
}

// WithoutPreflight disables the environment checks.
func WithoutPreflight() Option {
	return func(p *Pipeline) { p.skipPreflight = true }
}

// New constructs a pipeline for the stamped config.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Pipeline{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the full pipeline. The manifest is written to the output
// directory whether the run succeeds or fails; the returned error carries
// the failure classification for exit-code mapping.
func (p *Pipeline) Run(ctx context.Context) (Outcome, error) {
	cfg := p.cfg
	logger := p.logger

	if err := os.MkdirAll(cfg.Paths.OutputDir, 0o755); err != nil {
		return Outcome{}, faults.Validation("pipeline", "create output directory", cfg.Paths.OutputDir, err)
	}

	lock := flock.New(filepath.Join(cfg.Paths.OutputDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return Outcome{}, faults.Validation("pipeline", "acquire lock", lock.Path(), err)
	}
	if !locked {
		return Outcome{}, faults.Validation("pipeline", "acquire lock", "another run is already writing to this output directory", nil)
	}
	defer func() { _ = lock.Unlock() }()

	if !p.skipPreflight {
		if err := preflight.Enforce(preflight.RunAll(ctx, cfg)); err != nil {
			logger.Error("preflight failed", logging.Error(err))
			return Outcome{}, err
		}
	}

	engineVersion := p.engineVersion
	if engineVersion == "" {
		engineVersion = ffmpeg.Version(ctx, cfg.Engine.FFmpeg)
	}
	builder := manifest.New(cfg, engineVersion)
	prober := p.prober
	if prober == nil {
		prober = ffmpeg.CLIProber{Binary: cfg.Engine.FFprobe}
	}
	runner := p.resolveRunner(builder)

	logger.Info("run started",
		logging.String(logging.FieldRunID, cfg.RunID),
		logging.String("engine_version", engineVersion),
		logging.String("output_dir", cfg.Paths.OutputDir),
	)

	outcome, runErr := p.execute(ctx, builder, prober, runner)

	if runErr != nil {
		builder.AddError(runErr.Error())
	}
	manifestPath := filepath.Join(cfg.Paths.OutputDir, manifest.FileName)
	if writeErr := builder.Write(manifestPath); writeErr != nil {
		logger.Error("manifest write failed", logging.Error(writeErr))
		if runErr == nil {
			runErr = writeErr
		}
	} else {
		logger.Info("manifest written", logging.String("path", manifestPath))
	}
	outcome.ManifestPath = manifestPath
	outcome.Outputs = builder.Document().Outputs

	p.recordHistory(ctx, outcome, runErr)

	if runErr != nil {
		logger.Error("run failed",
			logging.String(logging.FieldRunID, cfg.RunID),
			logging.String("classification", faults.Kind(runErr)),
			logging.Error(runErr),
		)
		return outcome, runErr
	}
	logger.Info("run completed",
		logging.String(logging.FieldRunID, cfg.RunID),
		logging.Int("outputs", len(outcome.Outputs)),
	)
	return outcome, nil
}

// execute runs the stages in order, recording each in the manifest.
func (p *Pipeline) execute(ctx context.Context, builder *manifest.Builder, prober ffmpeg.Prober, runner ffmpeg.Runner) (Outcome, error) {
	cfg := p.cfg
	logger := p.logger
	var outcome Outcome

	// Stage 1: ingest.
	start := time.Now()
	ingested, err := ingest.Run(ctx, cfg, prober, logger)
	if err != nil {
		builder.AddStage("ingest", "error", time.Since(start), nil)
		return outcome, err
	}
	for _, warning := range ingested.Warnings {
		builder.AddWarning(warning)
	}
	builder.AddTracks(ingested.Tracks, ingested.OrderSource)
	builder.AddStage("ingest", "success", time.Since(start), map[string]any{
		"tracks_found": len(ingested.Tracks),
		"order_source": ingested.OrderSource,
	})
	outcome.TrackCount = len(ingested.Tracks)

	// Stage 2: merge.
	start = time.Now()
	merged, err := merge.Run(ctx, ingested.Tracks, cfg, runner, logger)
	if err != nil {
		builder.AddStage("merge", "error", time.Since(start), nil)
		return outcome, err
	}
	builder.AddOutput(ctx, "merged_clean", merged.OutputPath, prober)
	builder.AddStage("merge", "success", time.Since(start), map[string]any{
		"crossfades_applied": len(merged.Crossfades),
		"crossfades_s":       merged.Crossfades,
	})

	// Stage 3: effects (optional). The final audio feeding the video
	// stage is the lossless effects render, not the encode.
	finalAudio := merged.OutputPath
	if cfg.LofiEnabled() {
		start = time.Now()
		effected, err := lofi.Run(ctx, merged.OutputPath, cfg, runner, logger)
		if err != nil {
			builder.AddStage("lofi", "error", time.Since(start), nil)
			return outcome, err
		}
		builder.AddOutput(ctx, "merged_lofi_wav", effected.LosslessPath, prober)
		builder.AddOutput(ctx, "merged_lofi_mp3", effected.MP3Path, prober)
		builder.AddStage("lofi", "success", time.Since(start), nil)
		finalAudio = effected.LosslessPath
	} else {
		logger.Info("effects stage skipped")
		builder.AddStage("lofi", "skipped", 0, nil)
	}

	// Stage 4: video (optional).
	if cfg.VideoEnabled() {
		start = time.Now()
		rendered, err := video.Run(ctx, finalAudio, cfg, prober, runner, logger)
		if err != nil {
			builder.AddStage("video", "error", time.Since(start), nil)
			return outcome, err
		}
		builder.AddOutput(ctx, "final_video", rendered.VideoPath, prober)
		builder.AddOutput(ctx, "thumbnail", rendered.ThumbnailPath, nil)
		builder.AddStage("video", "success", time.Since(start), map[string]any{
			"audio_duration_s": rendered.AudioDuration,
		})
	} else {
		logger.Info("video stage skipped, no cover image configured")
		builder.AddStage("video", "skipped", 0, nil)
	}

	return outcome, nil
}

// resolveRunner returns the configured runner with manifest observation
// attached.
func (p *Pipeline) resolveRunner(builder *manifest.Builder) ffmpeg.Runner {
	if p.runner != nil {
		return &observedRunner{
			inner:    p.runner,
			binary:   p.cfg.Engine.FFmpeg,
			observer: builder,
		}
	}
	return &ffmpeg.Executor{
		Binary:   p.cfg.Engine.FFmpeg,
		Timeout:  time.Duration(p.cfg.Engine.CommandTimeoutSeconds) * time.Second,
		Logger:   p.logger,
		Observer: builder,
	}
}

// recordHistory appends the run to the ledger when one is attached.
func (p *Pipeline) recordHistory(ctx context.Context, outcome Outcome, runErr error) {
	if p.store == nil {
		return
	}
	entry := ledger.Entry{
		RunID:      p.cfg.RunID,
		StartedAt:  p.cfg.StartedAt,
		FinishedAt: time.Now().UTC(),
		Status:     faults.Kind(runErr),
		TrackCount: outcome.TrackCount,
		OutputDir:  p.cfg.Paths.OutputDir,
	}
	if runErr != nil {
		entry.Error = runErr.Error()
	}
	if err := p.store.Record(ctx, entry); err != nil {
		p.logger.Warn("failed to record run history", logging.Error(err))
	}
}

// observedRunner forwards invocations from a substituted runner into the
// manifest so the audit trail stays complete.
type observedRunner struct {
	inner    ffmpeg.Runner
	binary   string
	observer ffmpeg.Observer
}

func (r *observedRunner) Run(ctx context.Context, cmd ffmpeg.Command) error {
	start := time.Now()
	err := r.inner.Run(ctx, cmd)
	binary := r.binary
	if binary == "" {
		binary = "ffmpeg"
	}
	r.observer.ObserveInvocation(ffmpeg.Invocation{
		Args:        append([]string{binary}, cmd.Args...),
		Description: cmd.Description,
		Duration:    time.Since(start),
		Err:         err,
	})
	return err
}
