package lofi

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"mixloom/internal/faults"
	"mixloom/internal/ffmpeg"
	"mixloom/internal/logging"
	"mixloom/internal/testsupport"
)

type fakeRunner struct {
	commands []ffmpeg.Command
	failOn   int // 1-based index of the invocation to fail; 0 = never
	onRun    func(cmd ffmpeg.Command)
}

func (f *fakeRunner) Run(_ context.Context, cmd ffmpeg.Command) error {
	f.commands = append(f.commands, cmd)
	if f.failOn > 0 && len(f.commands) == f.failOn {
		return errors.New("exit status 1")
	}
	if f.onRun != nil {
		f.onRun(cmd)
	}
	return nil
}

func writeDeclaredOutput(t *testing.T) func(ffmpeg.Command) {
	return func(cmd ffmpeg.Command) {
		testsupport.WriteFile(t, cmd.Args[len(cmd.Args)-1], []byte("audio"))
	}
}

func TestRunProducesBothArtifacts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	merged := filepath.Join(cfg.Paths.OutputDir, "merged_clean.wav")
	testsupport.WriteFile(t, merged, []byte("wav"))

	runner := &fakeRunner{onRun: writeDeclaredOutput(t)}
	result, err := Run(context.Background(), merged, cfg, runner, logging.NewNop())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(runner.commands) != 2 {
		t.Fatalf("expected two invocations (lossless + encode), got %d", len(runner.commands))
	}
	if result.LosslessPath != filepath.Join(cfg.Paths.OutputDir, LosslessName) {
		t.Fatalf("lossless path = %q", result.LosslessPath)
	}
	if result.MP3Path != filepath.Join(cfg.Paths.OutputDir, MP3Name) {
		t.Fatalf("mp3 path = %q", result.MP3Path)
	}
}

func TestRunMissingTextureFailsBeforeEngine(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.Texture = filepath.Join(cfg.Paths.InputDir, "absent_vinyl.wav")

	runner := &fakeRunner{}
	_, err := Run(context.Background(), "/out/merged_clean.wav", cfg, runner, logging.NewNop())
	if !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation failure, got %v", err)
	}
	if len(runner.commands) != 0 {
		t.Fatal("engine must not be invoked when asset validation fails")
	}
}

func TestRunMissingDrumLoopFailsValidation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.DrumLoop = filepath.Join(cfg.Paths.InputDir, "absent_drums.wav")

	_, err := Run(context.Background(), "/out/merged_clean.wav", cfg, &fakeRunner{}, logging.NewNop())
	if !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation failure, got %v", err)
	}
}

func TestRunEngineFailureIsProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := &fakeRunner{failOn: 1}
	_, err := Run(context.Background(), "/out/merged_clean.wav", cfg, runner, logging.NewNop())
	if !errors.Is(err, faults.ErrProcessing) {
		t.Fatalf("expected processing failure, got %v", err)
	}
}

func TestRunEncodeFailureIsProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := &fakeRunner{failOn: 2, onRun: writeDeclaredOutput(t)}
	_, err := Run(context.Background(), "/out/merged_clean.wav", cfg, runner, logging.NewNop())
	if !errors.Is(err, faults.ErrProcessing) {
		t.Fatalf("expected processing failure on encode, got %v", err)
	}
}

func TestRunMissingLosslessOutputIsOutputFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	// runner succeeds without writing anything
	_, err := Run(context.Background(), "/out/merged_clean.wav", cfg, &fakeRunner{}, logging.NewNop())
	if !errors.Is(err, faults.ErrOutput) {
		t.Fatalf("expected output failure, got %v", err)
	}
}
