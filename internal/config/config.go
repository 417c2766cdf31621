package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the required directories and optional asset files.
type Paths struct {
	InputDir   string `toml:"input_dir"`
	OutputDir  string `toml:"output_dir"`
	CoverImage string `toml:"cover_image"`
	Texture    string `toml:"texture"`
	DrumLoop   string `toml:"drum_loop"`
}

// Merge contains track ordering and crossfade parameters.
type Merge struct {
	CrossfadeMS int `toml:"crossfade_ms"`
	// TrackLimit selects a random subset of the resolved order when
	// 0 < limit < track count. Zero processes everything.
	TrackLimit int `toml:"track_limit"`
}

// Effects contains the lofi transformation parameters.
type Effects struct {
	Skip             bool    `toml:"skip"`
	HighpassHz       int     `toml:"highpass_hz"`
	LowpassHz        int     `toml:"lowpass_hz"`
	TextureGainDB    float64 `toml:"texture_gain_db"`
	DrumGainDB       float64 `toml:"drum_gain_db"`
	DrumStartSeconds float64 `toml:"drum_start_seconds"`
	TempoFactor      float64 `toml:"tempo_factor"`
	Reverb           bool    `toml:"reverb"`
	Saturation       bool    `toml:"saturation"`
}

// Engine contains the external processing engine binaries and limits.
type Engine struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
	// CommandTimeoutSeconds bounds a single engine invocation. Zero
	// disables the timeout (long merges routinely run for minutes).
	CommandTimeoutSeconds int `toml:"command_timeout_seconds"`
}

// Logging contains log output configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the immutable configuration for one pipeline run. Run identity
// is stamped once and never changes afterwards; stages receive the config
// by pointer and must not mutate it.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Merge   Merge   `toml:"merge"`
	Effects Effects `toml:"effects"`
	Engine  Engine  `toml:"engine"`
	Logging Logging `toml:"logging"`

	RunID     string    `toml:"-"`
	StartedAt time.Time `toml:"-"`
}

// Load reads the TOML file at path (when it exists) over the defaults,
// expands tildes, and stamps run identity. A missing file is not an error;
// callers that require one should stat it themselves.
func Load(path string) (*Config, error) {
	cfg := Default()

	trimmed := strings.TrimSpace(path)
	if trimmed != "" {
		data, err := os.ReadFile(trimmed)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// fall through to defaults
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", trimmed, err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", trimmed, err)
			}
		}
	}

	cfg.expandPaths()
	cfg.StampRun()
	return &cfg, nil
}

// StampRun assigns run identity if it has not been assigned yet.
func (c *Config) StampRun() {
	if c.RunID == "" {
		c.RunID = uuid.NewString()
	}
	if c.StartedAt.IsZero() {
		c.StartedAt = time.Now().UTC()
	}
}

// VideoEnabled reports whether the video stage should run.
func (c *Config) VideoEnabled() bool {
	return strings.TrimSpace(c.Paths.CoverImage) != ""
}

// LofiEnabled reports whether the effects stage should run.
func (c *Config) LofiEnabled() bool {
	return !c.Effects.Skip
}

// CrossfadeSeconds returns the configured default crossfade in seconds.
func (c *Config) CrossfadeSeconds() float64 {
	return float64(c.Merge.CrossfadeMS) / 1000.0
}

// Sample returns the embedded sample configuration file.
func Sample() string {
	return sampleConfig
}

func (c *Config) expandPaths() {
	c.Paths.InputDir = expandTilde(c.Paths.InputDir)
	c.Paths.OutputDir = expandTilde(c.Paths.OutputDir)
	c.Paths.CoverImage = expandTilde(c.Paths.CoverImage)
	c.Paths.Texture = expandTilde(c.Paths.Texture)
	c.Paths.DrumLoop = expandTilde(c.Paths.DrumLoop)
}

func expandTilde(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err == nil && home != "" {
			return filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
		}
	}
	return trimmed
}
