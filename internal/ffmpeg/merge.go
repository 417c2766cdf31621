package ffmpeg

import (
	"errors"
	"fmt"
	"strings"
)

// loudnormFilter normalizes per-track loudness to -20 LUFS integrated with
// a -1.5 dBTP true-peak ceiling and 11 LU loudness range.
const loudnormFilter = "loudnorm=I=-20:TP=-1.5:LRA=11"

// BuildMerge translates the merge intent into one engine invocation:
// per-input loudness normalization followed by chained triangular
// crossfades, resampled to 48 kHz / 16-bit stereo.
//
// crossfades holds one duration (seconds) per adjacent input pair, so its
// length must be len(inputs)-1. A single input produces a pass-through
// normalize/convert command with no crossfade.
func BuildMerge(inputs []string, crossfades []float64, output string) (Command, error) {
	if len(inputs) == 0 {
		return Command{}, errors.New("merge: no inputs")
	}
	if len(crossfades) != len(inputs)-1 {
		return Command{}, fmt.Errorf("merge: %d crossfades for %d inputs", len(crossfades), len(inputs))
	}

	if len(inputs) == 1 {
		return Command{
			Args: []string{
				"-hide_banner",
				"-i", inputs[0],
				"-af", loudnormFilter,
				"-ar", outputSampleRate,
				"-ac", outputChannels,
				"-sample_fmt", outputSampleFmt,
				"-y",
				output,
			},
			Description: "normalize and convert single track",
		}, nil
	}

	args := []string{"-hide_banner"}
	for _, input := range inputs {
		args = append(args, "-i", input)
	}

	// [0:a]loudnorm[norm0]; ...; [norm0][norm1]acrossfade[a1]; [a1][norm2]acrossfade[a2]; ...
	filters := make([]string, 0, 2*len(inputs)-1)
	for i := range inputs {
		filters = append(filters, fmt.Sprintf("[%d:a]%s[norm%d]", i, loudnormFilter, i))
	}
	current := "norm0"
	for i, fade := range crossfades {
		next := fmt.Sprintf("norm%d", i+1)
		out := fmt.Sprintf("a%d", i+1)
		filters = append(filters, fmt.Sprintf("[%s][%s]acrossfade=d=%s:c1=tri:c2=tri[%s]", current, next, formatSeconds(fade), out))
		current = out
	}

	args = append(args,
		"-filter_complex", strings.Join(filters, ";"),
		"-map", "["+current+"]",
		"-ar", outputSampleRate,
		"-ac", outputChannels,
		"-sample_fmt", outputSampleFmt,
		"-y",
		output,
	)

	return Command{
		Args:        args,
		Description: fmt.Sprintf("merge %d tracks with %d crossfades", len(inputs), len(crossfades)),
	}, nil
}
