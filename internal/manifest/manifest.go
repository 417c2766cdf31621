// Package manifest accumulates the audit record for a pipeline run and
// writes it as manifest.json next to the produced artifacts.
package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"mixloom/internal/config"
	"mixloom/internal/faults"
	"mixloom/internal/ffmpeg"
	"mixloom/internal/fileutil"
	"mixloom/internal/ingest"
)

// FileName is the manifest artifact written into the output directory.
const FileName = "manifest.json"

// TrackEntry describes one accepted input track.
type TrackEntry struct {
	Filename   string  `json:"filename"`
	DurationS  float64 `json:"duration_s"`
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Codec      string  `json:"codec"`
}

// Inputs records everything the run consumed. Unused optional assets
// serialize as null so the manifest always carries the same shape.
type Inputs struct {
	AudioFiles  []TrackEntry `json:"audio_files"`
	OrderSource string       `json:"order_source"`
	CoverImage  *string      `json:"cover_image"`
	Texture     *string      `json:"texture"`
	DrumLoop    *string      `json:"drum_loop"`
}

// Parameters is the effective configuration the run executed with.
type Parameters struct {
	CrossfadeMS      int     `json:"crossfade_ms"`
	TrackLimit       int     `json:"track_limit"`
	SkipEffects      bool    `json:"skip_effects"`
	HighpassHz       int     `json:"highpass_hz"`
	LowpassHz        int     `json:"lowpass_hz"`
	TextureGainDB    float64 `json:"texture_gain_db"`
	DrumGainDB       float64 `json:"drum_gain_db"`
	DrumStartSeconds float64 `json:"drum_start_seconds"`
	TempoFactor      float64 `json:"tempo_factor"`
	Reverb           bool    `json:"reverb"`
	Saturation       bool    `json:"saturation"`
}

// Output describes one produced artifact.
type Output struct {
	Path       string  `json:"path"`
	FileSizeMB float64 `json:"file_size_mb"`
	SHA256     string  `json:"sha256"`
	DurationS  float64 `json:"duration_s,omitempty"`
}

// Stage records one stage's completion.
type Stage struct {
	Name      string         `json:"name"`
	Status    string         `json:"status"`
	DurationS float64        `json:"duration_s"`
	Details   map[string]any `json:"details,omitempty"`
}

// Document is the serialized manifest.
type Document struct {
	RunID          string            `json:"run_id"`
	Timestamp      string            `json:"timestamp"`
	GoVersion      string            `json:"go_version"`
	FFmpegVersion  string            `json:"ffmpeg_version"`
	Platform       string            `json:"platform"`
	Inputs         Inputs            `json:"inputs"`
	Parameters     Parameters        `json:"parameters"`
	Outputs        map[string]Output `json:"outputs"`
	Stages         []Stage           `json:"stages"`
	FFmpegCommands []string          `json:"ffmpeg_commands"`
	Warnings       []string          `json:"warnings"`
	Errors         []string          `json:"errors"`
}

// Builder collects the audit record incrementally. It implements
// ffmpeg.Observer so every engine invocation lands in the manifest in
// execution order, including failed ones.
type Builder struct {
	mu      sync.Mutex
	doc     Document
	written bool
}

// New seeds the builder from the stamped run configuration. Asset paths
// are recorded up front; tracks, outputs, and stages arrive as the run
// progresses.
func New(cfg *config.Config, engineVersion string) *Builder {
	return &Builder{doc: Document{
		RunID:         cfg.RunID,
		Timestamp:     cfg.StartedAt.Format(time.RFC3339),
		GoVersion:     runtime.Version(),
		FFmpegVersion: engineVersion,
		Platform:      runtime.GOOS,
		Inputs: Inputs{
			AudioFiles: []TrackEntry{},
			CoverImage: optionalPath(cfg.Paths.CoverImage),
			Texture:    optionalPath(cfg.Paths.Texture),
			DrumLoop:   optionalPath(cfg.Paths.DrumLoop),
		},
		Parameters: Parameters{
			CrossfadeMS:      cfg.Merge.CrossfadeMS,
			TrackLimit:       cfg.Merge.TrackLimit,
			SkipEffects:      cfg.Effects.Skip,
			HighpassHz:       cfg.Effects.HighpassHz,
			LowpassHz:        cfg.Effects.LowpassHz,
			TextureGainDB:    cfg.Effects.TextureGainDB,
			DrumGainDB:       cfg.Effects.DrumGainDB,
			DrumStartSeconds: cfg.Effects.DrumStartSeconds,
			TempoFactor:      cfg.Effects.TempoFactor,
			Reverb:           cfg.Effects.Reverb,
			Saturation:       cfg.Effects.Saturation,
		},
		Outputs:        map[string]Output{},
		Stages:         []Stage{},
		FFmpegCommands: []string{},
		Warnings:       []string{},
		Errors:         []string{},
	}}
}

// AddTracks records the accepted input tracks and how their order was
// resolved ("order.txt" or "natural_sort").
func (b *Builder) AddTracks(tracks []ingest.Track, orderSource string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := make([]TrackEntry, 0, len(tracks))
	for _, track := range tracks {
		entries = append(entries, TrackEntry{
			Filename:   track.Name,
			DurationS:  round2(track.Duration),
			SampleRate: track.SampleRate,
			Channels:   track.Channels,
			Codec:      track.Codec,
		})
	}
	b.doc.Inputs.AudioFiles = entries
	b.doc.Inputs.OrderSource = orderSource
}

// AddOutput records an artifact with its checksum and size. Missing files
// are skipped silently so a failed run still writes a coherent manifest.
// Duration is attached when the prober can read one; probe failures on
// outputs are not fatal.
func (b *Builder) AddOutput(ctx context.Context, name, path string, prober ffmpeg.Prober) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	sum, size, err := fileutil.Checksum(path)
	if err != nil {
		b.AddWarning(fmt.Sprintf("manifest: checksum %s: %v", path, err))
		return
	}
	entry := Output{
		Path:       path,
		FileSizeMB: round2(float64(size) / (1024 * 1024)),
		SHA256:     sum,
	}
	if prober != nil {
		if result, err := prober.Inspect(ctx, path); err == nil {
			if duration := result.DurationSeconds(); duration > 0 {
				entry.DurationS = round2(duration)
			}
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.doc.Outputs[name] = entry
}

// AddStage records a stage completion. Details holds stage-specific
// counters such as track counts or crossfade durations.
func (b *Builder) AddStage(name, status string, elapsed time.Duration, details map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.doc.Stages = append(b.doc.Stages, Stage{
		Name:      name,
		Status:    status,
		DurationS: round2(elapsed.Seconds()),
		Details:   details,
	})
}

// AddWarning appends a non-fatal diagnostic.
func (b *Builder) AddWarning(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.doc.Warnings = append(b.doc.Warnings, message)
}

// AddError appends a fatal diagnostic. The run still writes the manifest
// so the failure is auditable.
func (b *Builder) AddError(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.doc.Errors = append(b.doc.Errors, message)
}

// ObserveInvocation implements ffmpeg.Observer.
func (b *Builder) ObserveInvocation(inv ffmpeg.Invocation) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.doc.FFmpegCommands = append(b.doc.FFmpegCommands, strings.Join(inv.Args, " "))
}

// Document returns a copy of the current state for inspection.
func (b *Builder) Document() Document {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.doc
}

// Write serializes the manifest to path. It refuses a second write; the
// manifest is a single final record, not a progress file.
func (b *Builder) Write(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.written {
		return faults.Output("manifest", "write", "manifest already written", nil)
	}
	data, err := json.MarshalIndent(b.doc, "", "  ")
	if err != nil {
		return faults.Output("manifest", "encode", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return faults.Output("manifest", "write", path, err)
	}
	b.written = true
	return nil
}

func optionalPath(path string) *string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
