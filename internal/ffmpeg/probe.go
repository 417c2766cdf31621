package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Duration   string `json:"duration"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

// TrackInfo is the audio metadata the pipeline needs from a probe.
type TrackInfo struct {
	Duration   float64
	SampleRate int
	Channels   int
	Codec      string
}

// Prober inspects media files. The concrete implementation shells out to
// ffprobe; tests substitute fakes.
type Prober interface {
	Inspect(ctx context.Context, path string) (Result, error)
}

// CLIProber runs the ffprobe binary.
type CLIProber struct {
	Binary string
}

// Inspect executes ffprobe against the provided path and decodes the JSON
// response. A nonzero exit or undecodable payload is an error; the caller
// decides whether that aborts the run or skips the file.
func (p CLIProber) Inspect(ctx context.Context, path string) (Result, error) {
	binary := strings.TrimSpace(p.Binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		detail := ""
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			detail = strings.TrimSpace(string(exitErr.Stderr))
		}
		if detail != "" {
			return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, detail)
		}
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// AudioTrackInfo extracts the pipeline's track metadata from a probe
// result. It fails when the file carries no audio stream or no usable
// duration, which the caller treats the same as a failed probe.
func (r Result) AudioTrackInfo() (TrackInfo, error) {
	audio, ok := r.firstAudioStream()
	if !ok {
		return TrackInfo{}, errors.New("no audio stream")
	}

	duration := parseFloat(r.Format.Duration)
	if duration <= 0 {
		duration = parseFloat(audio.Duration)
	}
	if duration <= 0 {
		return TrackInfo{}, errors.New("no usable duration")
	}

	sampleRate, err := strconv.Atoi(strings.TrimSpace(audio.SampleRate))
	if err != nil || sampleRate <= 0 {
		return TrackInfo{}, fmt.Errorf("unusable sample rate %q", audio.SampleRate)
	}

	return TrackInfo{
		Duration:   duration,
		SampleRate: sampleRate,
		Channels:   audio.Channels,
		Codec:      audio.CodecName,
	}, nil
}

// DurationSeconds returns the container duration in seconds, or 0 when
// unavailable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

func (r Result) firstAudioStream() (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			return stream, true
		}
	}
	return Stream{}, false
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return parsed
}
