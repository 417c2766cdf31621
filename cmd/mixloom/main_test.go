package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mixloom/internal/config"
	"mixloom/internal/faults"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	output, err := execute(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(output, target) {
		t.Fatalf("output should name the target: %q", output)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[paths]") {
		t.Fatalf("sample config missing [paths] section:\n%s", data)
	}

	// refuses to clobber without --overwrite
	if _, err := execute(t, "config", "init", "--path", target); err == nil {
		t.Fatal("second init without --overwrite should fail")
	}
	if _, err := execute(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("init with --overwrite: %v", err)
	}
}

func TestConfigValidateRejectsBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[paths]\ninput_dir = \"/in\"\noutput_dir = \"/out\"\n\n[merge]\ncrossfade_ms = -5\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := execute(t, "--config", path, "config", "validate")
	if err == nil || !strings.Contains(err.Error(), "crossfade_ms") {
		t.Fatalf("expected crossfade_ms complaint, got %v", err)
	}
}

func TestConfigShowPrintsEffectiveValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[paths]\ninput_dir = \"/music\"\noutput_dir = \"/renders\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	output, err := execute(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	for _, fragment := range []string{"/music", "/renders", "crossfade_ms = 15000"} {
		if !strings.Contains(output, fragment) {
			t.Fatalf("output missing %q:\n%s", fragment, output)
		}
	}
}

func TestRunRejectsMissingDirectories(t *testing.T) {
	_, err := execute(t, "run")
	if !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation failure, got %v", err)
	}
	if faults.ExitCode(err) != faults.ExitValidation {
		t.Fatalf("exit code = %d", faults.ExitCode(err))
	}
}

func TestApplyRunFlagsOnlyOverridesChanged(t *testing.T) {
	cmd := newRunCommand(new(string))
	if err := cmd.Flags().Set("crossfade-ms", "4000"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	if err := cmd.Flags().Set("skip-effects", "true"); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	cfg := config.Default()
	cfg.Effects.TempoFactor = 0.9
	applyRunFlags(cmd, &cfg, runFlags{crossfadeMS: 4000, skipEffects: true})

	if cfg.Merge.CrossfadeMS != 4000 {
		t.Fatalf("crossfade_ms = %d", cfg.Merge.CrossfadeMS)
	}
	if !cfg.Effects.Skip {
		t.Fatal("skip-effects flag not applied")
	}
	// untouched flags keep the config-file values
	if cfg.Effects.TempoFactor != 0.9 {
		t.Fatalf("tempo_factor = %v", cfg.Effects.TempoFactor)
	}
}
