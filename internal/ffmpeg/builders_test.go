package ffmpeg

import (
	"slices"
	"strings"
	"testing"
)

func argValue(t *testing.T, args []string, flag string) string {
	t.Helper()
	idx := slices.Index(args, flag)
	if idx < 0 || idx+1 >= len(args) {
		t.Fatalf("flag %s not found in %v", flag, args)
	}
	return args[idx+1]
}

func TestBuildMergeSingleTrack(t *testing.T) {
	cmd, err := BuildMerge([]string{"/in/a.mp3"}, nil, "/out/merged_clean.wav")
	if err != nil {
		t.Fatalf("BuildMerge: %v", err)
	}
	if argValue(t, cmd.Args, "-af") != loudnormFilter {
		t.Fatalf("single track should use -af loudnorm: %v", cmd.Args)
	}
	if slices.Contains(cmd.Args, "-filter_complex") {
		t.Fatalf("single track must not build a filter graph: %v", cmd.Args)
	}
	if argValue(t, cmd.Args, "-ar") != "48000" || argValue(t, cmd.Args, "-sample_fmt") != "s16" {
		t.Fatalf("output format wrong: %v", cmd.Args)
	}
	if cmd.Args[len(cmd.Args)-1] != "/out/merged_clean.wav" {
		t.Fatalf("output path must be last: %v", cmd.Args)
	}
}

func TestBuildMergeChainsCrossfades(t *testing.T) {
	inputs := []string{"/in/a.mp3", "/in/b.mp3", "/in/c.mp3"}
	cmd, err := BuildMerge(inputs, []float64{15, 2.5}, "/out/merged_clean.wav")
	if err != nil {
		t.Fatalf("BuildMerge: %v", err)
	}

	graph := argValue(t, cmd.Args, "-filter_complex")
	for i := range inputs {
		want := "[" + string(rune('0'+i)) + ":a]" + loudnormFilter
		if !strings.Contains(graph, want) {
			t.Fatalf("missing normalization of input %d in %q", i, graph)
		}
	}
	if !strings.Contains(graph, "[norm0][norm1]acrossfade=d=15:c1=tri:c2=tri[a1]") {
		t.Fatalf("first crossfade wrong: %q", graph)
	}
	if !strings.Contains(graph, "[a1][norm2]acrossfade=d=2.5:c1=tri:c2=tri[a2]") {
		t.Fatalf("second crossfade must consume the first's output: %q", graph)
	}
	if argValue(t, cmd.Args, "-map") != "[a2]" {
		t.Fatalf("final label must be mapped: %v", cmd.Args)
	}

	// every input appears, in order
	var seen []string
	for i, arg := range cmd.Args {
		if arg == "-i" {
			seen = append(seen, cmd.Args[i+1])
		}
	}
	if !slices.Equal(seen, inputs) {
		t.Fatalf("input order changed: %v", seen)
	}
}

func TestBuildMergeValidation(t *testing.T) {
	if _, err := BuildMerge(nil, nil, "/out/x.wav"); err == nil {
		t.Fatal("zero inputs must fail")
	}
	if _, err := BuildMerge([]string{"a", "b"}, []float64{1, 2}, "/out/x.wav"); err == nil {
		t.Fatal("crossfade count must be len(inputs)-1")
	}
}

func TestBuildLofiFixedChain(t *testing.T) {
	lossless, encode := BuildLofi("/out/merged_clean.wav", "/out/merged_lofi.wav", "/out/merged_lofi.mp3", LofiParams{
		HighpassHz:  35,
		LowpassHz:   11000,
		TempoFactor: 1.0,
	})

	graph := argValue(t, lossless.Args, "-filter_complex")
	wantOrder := []string{"highpass=f=35", "lowpass=f=11000", compressorFilter, limiterFilter}
	pos := -1
	for _, fragment := range wantOrder {
		idx := strings.Index(graph, fragment)
		if idx < 0 {
			t.Fatalf("missing %q in %q", fragment, graph)
		}
		if idx < pos {
			t.Fatalf("chain out of order, %q before previous fragment: %q", fragment, graph)
		}
		pos = idx
	}
	if strings.Contains(graph, "amix") || strings.Contains(graph, "aloop") {
		t.Fatalf("no asset layers configured, graph should not mix: %q", graph)
	}
	if strings.Contains(graph, "atempo") {
		t.Fatalf("tempo 1.0 must not add atempo: %q", graph)
	}

	if argValue(t, encode.Args, "-codec:a") != "libmp3lame" || argValue(t, encode.Args, "-b:a") != "320k" {
		t.Fatalf("encode command wrong: %v", encode.Args)
	}
	if argValue(t, encode.Args, "-i") != "/out/merged_lofi.wav" {
		t.Fatalf("encode must read the lossless output: %v", encode.Args)
	}
}

func TestBuildLofiWithTextureAndDrums(t *testing.T) {
	lossless, _ := BuildLofi("/out/merged_clean.wav", "/out/lofi.wav", "/out/lofi.mp3", LofiParams{
		Texture:          "/assets/vinyl.wav",
		DrumLoop:         "/assets/drums.wav",
		TextureGainDB:    -26,
		DrumGainDB:       -22,
		DrumStartSeconds: 8,
		TempoFactor:      1.0,
		HighpassHz:       35,
		LowpassHz:        11000,
	})

	var inputs []string
	for i, arg := range lossless.Args {
		if arg == "-i" {
			inputs = append(inputs, lossless.Args[i+1])
		}
	}
	want := []string{"/out/merged_clean.wav", "/assets/vinyl.wav", "/assets/drums.wav"}
	if !slices.Equal(inputs, want) {
		t.Fatalf("inputs = %v, want %v", inputs, want)
	}

	graph := argValue(t, lossless.Args, "-filter_complex")
	if !strings.Contains(graph, "[1:a]"+loopFilter+"[texture]") {
		t.Fatalf("texture loop missing: %q", graph)
	}
	if !strings.Contains(graph, "adelay=8000|8000") {
		t.Fatalf("drum start delay missing: %q", graph)
	}
	if !strings.Contains(graph, "volume=-26dB") || !strings.Contains(graph, "volume=-22dB") {
		t.Fatalf("layer gains missing: %q", graph)
	}
	if !strings.Contains(graph, "amix=inputs=3:normalize=0") {
		t.Fatalf("three-way mix missing: %q", graph)
	}
}

func TestBuildLofiTempoChaining(t *testing.T) {
	lossless, _ := BuildLofi("/in.wav", "/out.wav", "/out.mp3", LofiParams{
		TempoFactor: 0.4,
		HighpassHz:  35,
		LowpassHz:   11000,
	})
	graph := argValue(t, lossless.Args, "-filter_complex")
	if !strings.Contains(graph, "atempo=0.5") {
		t.Fatalf("factors below 0.5 need a chained 0.5 stage: %q", graph)
	}
	if !strings.Contains(graph, "atempo=0.800") {
		t.Fatalf("residual factor 0.8 missing: %q", graph)
	}
}

func TestBuildVideo(t *testing.T) {
	cmd := BuildVideo("/assets/cover.png", "/out/merged_lofi.wav", 3723.5, "/out/final_video.mp4")

	if argValue(t, cmd.Args, "-t") != "3723.5" {
		t.Fatalf("duration truncation wrong: %v", cmd.Args)
	}
	if argValue(t, cmd.Args, "-vf") != videoScaleFilter {
		t.Fatalf("letterbox filter wrong: %v", cmd.Args)
	}
	if argValue(t, cmd.Args, "-c:v") != "libx264" || argValue(t, cmd.Args, "-c:a") != "aac" {
		t.Fatalf("codecs wrong: %v", cmd.Args)
	}
	if argValue(t, cmd.Args, "-r") != "1" {
		t.Fatalf("frame rate wrong: %v", cmd.Args)
	}
	if !slices.Contains(cmd.Args, "-shortest") {
		t.Fatalf("missing -shortest: %v", cmd.Args)
	}
}
