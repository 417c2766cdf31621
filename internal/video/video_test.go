package video

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"mixloom/internal/faults"
	"mixloom/internal/ffmpeg"
	"mixloom/internal/logging"
	"mixloom/internal/testsupport"
)

type fakeProber struct {
	duration string
	err      error
}

func (f *fakeProber) Inspect(context.Context, string) (ffmpeg.Result, error) {
	if f.err != nil {
		return ffmpeg.Result{}, f.err
	}
	return ffmpeg.Result{Format: ffmpeg.Format{Duration: f.duration}}, nil
}

type fakeRunner struct {
	commands []ffmpeg.Command
	err      error
	onRun    func(cmd ffmpeg.Command)
}

func (f *fakeRunner) Run(_ context.Context, cmd ffmpeg.Command) error {
	f.commands = append(f.commands, cmd)
	if f.err != nil {
		return f.err
	}
	if f.onRun != nil {
		f.onRun(cmd)
	}
	return nil
}

func TestRunRendersVideoAndThumbnail(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.CoverImage = filepath.Join(cfg.Paths.InputDir, "cover.png")
	testsupport.WriteFile(t, cfg.Paths.CoverImage, []byte("png bytes"))
	audio := filepath.Join(cfg.Paths.OutputDir, "merged_lofi.wav")
	testsupport.WriteFile(t, audio, []byte("wav"))

	runner := &fakeRunner{onRun: func(cmd ffmpeg.Command) {
		testsupport.WriteFile(t, cmd.Args[len(cmd.Args)-1], []byte("mp4"))
	}}
	result, err := Run(context.Background(), audio, cfg, &fakeProber{duration: "3600.5"}, runner, logging.NewNop())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.AudioDuration != 3600.5 {
		t.Fatalf("duration = %v", result.AudioDuration)
	}
	if len(runner.commands) != 1 {
		t.Fatalf("expected one invocation, got %d", len(runner.commands))
	}
	// the render must truncate to exactly the probed duration
	idx := slices.Index(runner.commands[0].Args, "-t")
	if idx < 0 || runner.commands[0].Args[idx+1] != "3600.5" {
		t.Fatalf("probed duration not applied: %v", runner.commands[0].Args)
	}
	if filepath.Base(result.ThumbnailPath) != "thumbnail.png" {
		t.Fatalf("thumbnail = %q", result.ThumbnailPath)
	}
}

func TestRunMissingCoverFailsValidation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.CoverImage = filepath.Join(cfg.Paths.InputDir, "absent.png")

	runner := &fakeRunner{}
	_, err := Run(context.Background(), "/out/audio.wav", cfg, &fakeProber{duration: "60"}, runner, logging.NewNop())
	if !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation failure, got %v", err)
	}
	if len(runner.commands) != 0 {
		t.Fatal("engine must not be invoked without a cover image")
	}
}

func TestRunProbeFailureIsProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.CoverImage = filepath.Join(cfg.Paths.InputDir, "cover.jpg")
	testsupport.WriteFile(t, cfg.Paths.CoverImage, []byte("jpg"))

	_, err := Run(context.Background(), "/out/audio.wav", cfg, &fakeProber{err: errors.New("probe exploded")}, &fakeRunner{}, logging.NewNop())
	if !errors.Is(err, faults.ErrProcessing) {
		t.Fatalf("expected processing failure, got %v", err)
	}
}

func TestRunEngineFailureIsProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.CoverImage = filepath.Join(cfg.Paths.InputDir, "cover.jpg")
	testsupport.WriteFile(t, cfg.Paths.CoverImage, []byte("jpg"))

	runner := &fakeRunner{err: errors.New("exit status 1")}
	_, err := Run(context.Background(), "/out/audio.wav", cfg, &fakeProber{duration: "60"}, runner, logging.NewNop())
	if !errors.Is(err, faults.ErrProcessing) {
		t.Fatalf("expected processing failure, got %v", err)
	}
}

func TestRunMissingRenderIsOutputFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.CoverImage = filepath.Join(cfg.Paths.InputDir, "cover.jpg")
	testsupport.WriteFile(t, cfg.Paths.CoverImage, []byte("jpg"))

	// runner succeeds but never writes the declared output
	_, err := Run(context.Background(), "/out/audio.wav", cfg, &fakeProber{duration: "60"}, &fakeRunner{}, logging.NewNop())
	if !errors.Is(err, faults.ErrOutput) {
		t.Fatalf("expected output failure, got %v", err)
	}
}
