package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()
	if cfg.Merge.CrossfadeMS != 15000 {
		t.Fatalf("crossfade default = %d", cfg.Merge.CrossfadeMS)
	}
	if cfg.Effects.HighpassHz != 35 || cfg.Effects.LowpassHz != 11000 {
		t.Fatalf("eq defaults = %d/%d", cfg.Effects.HighpassHz, cfg.Effects.LowpassHz)
	}
	if cfg.Effects.TextureGainDB != -26.0 || cfg.Effects.DrumGainDB != -22.0 {
		t.Fatalf("gain defaults = %g/%g", cfg.Effects.TextureGainDB, cfg.Effects.DrumGainDB)
	}
	if cfg.Effects.Skip {
		t.Fatal("effects enabled by default")
	}
	if cfg.Engine.FFmpeg != "ffmpeg" || cfg.Engine.FFprobe != "ffprobe" {
		t.Fatalf("engine defaults = %q/%q", cfg.Engine.FFmpeg, cfg.Engine.FFprobe)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[paths]
input_dir = "/tmp/in"
output_dir = "/tmp/out"

[merge]
crossfade_ms = 8000
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Merge.CrossfadeMS != 8000 {
		t.Fatalf("crossfade = %d, want 8000", cfg.Merge.CrossfadeMS)
	}
	if cfg.Effects.LowpassHz != 11000 {
		t.Fatalf("unset fields should keep defaults, lowpass = %d", cfg.Effects.LowpassHz)
	}
	if cfg.RunID == "" || cfg.StartedAt.IsZero() {
		t.Fatal("Load should stamp run identity")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Merge.CrossfadeMS != 15000 {
		t.Fatalf("expected defaults, crossfade = %d", cfg.Merge.CrossfadeMS)
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[paths\ninput_dir = 3"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestStampRunIsIdempotent(t *testing.T) {
	cfg := Default()
	cfg.StampRun()
	id, started := cfg.RunID, cfg.StartedAt
	cfg.StampRun()
	if cfg.RunID != id || !cfg.StartedAt.Equal(started) {
		t.Fatal("StampRun must not reassign identity")
	}
}

func TestValidateRequiresDirectories(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "input_dir") || !strings.Contains(msg, "output_dir") {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestValidateRejectsBadRanges(t *testing.T) {
	cfg := Default()
	cfg.Paths.InputDir = "/tmp/in"
	cfg.Paths.OutputDir = "/tmp/out"
	cfg.Merge.CrossfadeMS = 0
	cfg.Effects.LowpassHz = 20
	cfg.Effects.TempoFactor = 0.1
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, fragment := range []string{"crossfade_ms", "lowpass_hz", "tempo_factor"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("missing %s in %q", fragment, err.Error())
		}
	}
}

func TestValidateDrumStartRequiresDrumLoop(t *testing.T) {
	cfg := Default()
	cfg.Paths.InputDir = "/tmp/in"
	cfg.Paths.OutputDir = "/tmp/out"
	cfg.Effects.DrumStartSeconds = 10
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "drum_loop") {
		t.Fatalf("expected drum_loop error, got %v", err)
	}
}

func TestVideoAndLofiToggles(t *testing.T) {
	cfg := Default()
	if cfg.VideoEnabled() {
		t.Fatal("video should be disabled without a cover image")
	}
	cfg.Paths.CoverImage = "/tmp/cover.png"
	if !cfg.VideoEnabled() {
		t.Fatal("video should be enabled with a cover image")
	}
	if !cfg.LofiEnabled() {
		t.Fatal("lofi enabled by default")
	}
	cfg.Effects.Skip = true
	if cfg.LofiEnabled() {
		t.Fatal("lofi disabled when skipped")
	}
}

func TestSampleConfigParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := os.WriteFile(path, []byte(Sample()), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("sample config should parse: %v", err)
	}
	if cfg.Merge.CrossfadeMS != 15000 {
		t.Fatalf("sample should carry defaults, crossfade = %d", cfg.Merge.CrossfadeMS)
	}
}
