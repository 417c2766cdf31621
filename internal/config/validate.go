package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for a runnable pipeline. It verifies
// shape and value ranges only; existence of input files is the ingest and
// lofi stages' responsibility, so those failures land in the right failure
// category with audit context.
func (c *Config) Validate() error {
	var problems []error

	if strings.TrimSpace(c.Paths.InputDir) == "" {
		problems = append(problems, errors.New("paths.input_dir is required"))
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		problems = append(problems, errors.New("paths.output_dir is required"))
	}

	if c.Merge.CrossfadeMS <= 0 {
		problems = append(problems, fmt.Errorf("merge.crossfade_ms must be positive, got %d", c.Merge.CrossfadeMS))
	}
	if c.Merge.TrackLimit < 0 {
		problems = append(problems, fmt.Errorf("merge.track_limit must not be negative, got %d", c.Merge.TrackLimit))
	}

	if c.Effects.HighpassHz <= 0 {
		problems = append(problems, fmt.Errorf("effects.highpass_hz must be positive, got %d", c.Effects.HighpassHz))
	}
	if c.Effects.LowpassHz <= c.Effects.HighpassHz {
		problems = append(problems, fmt.Errorf("effects.lowpass_hz (%d) must exceed effects.highpass_hz (%d)", c.Effects.LowpassHz, c.Effects.HighpassHz))
	}
	if c.Effects.DrumStartSeconds < 0 {
		problems = append(problems, fmt.Errorf("effects.drum_start_seconds must not be negative, got %g", c.Effects.DrumStartSeconds))
	}
	if c.Effects.TempoFactor < 0.25 || c.Effects.TempoFactor > 4.0 {
		problems = append(problems, fmt.Errorf("effects.tempo_factor must be within [0.25, 4.0], got %g", c.Effects.TempoFactor))
	}
	if strings.TrimSpace(c.Paths.DrumLoop) == "" && c.Effects.DrumStartSeconds > 0 {
		problems = append(problems, errors.New("effects.drum_start_seconds set without paths.drum_loop"))
	}

	if strings.TrimSpace(c.Engine.FFmpeg) == "" {
		problems = append(problems, errors.New("engine.ffmpeg is required"))
	}
	if strings.TrimSpace(c.Engine.FFprobe) == "" {
		problems = append(problems, errors.New("engine.ffprobe is required"))
	}
	if c.Engine.CommandTimeoutSeconds < 0 {
		problems = append(problems, fmt.Errorf("engine.command_timeout_seconds must not be negative, got %d", c.Engine.CommandTimeoutSeconds))
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format))
	}

	return errors.Join(problems...)
}
