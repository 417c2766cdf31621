package ffmpeg

import (
	"fmt"
	"strings"
)

// Fixed dynamics processing for the lofi chain.
const (
	compressorFilter = "acompressor=ratio=3:threshold=-18dB:attack=5:release=50"
	limiterFilter    = "alimiter=limit=-1dB:attack=5:release=50"

	// aloop size bound; effectively "loop forever" for any realistic mix.
	loopFilter = "aloop=loop=-1:size=2e+09"
)

// LofiParams carries the effects-stage knobs for the builder. Zero gains
// are legal; asset paths are empty when the corresponding layer is off.
type LofiParams struct {
	Texture          string
	DrumLoop         string
	TextureGainDB    float64
	DrumGainDB       float64
	DrumStartSeconds float64
	TempoFactor      float64
	HighpassHz       int
	LowpassHz        int
	Reverb           bool
	Saturation       bool
}

// BuildLofi translates the lofi intent into two engine invocations: the
// effects chain rendered to a lossless file, then a 320 kbps CBR encode of
// that file. Optional texture and drum loops are mixed in ahead of the
// fixed chain: highpass → lowpass → compressor → limiter.
func BuildLofi(input, outputLossless, outputMP3 string, p LofiParams) (Command, Command) {
	var filters []string

	inputIdx := 1
	if p.Texture != "" {
		filters = append(filters, fmt.Sprintf("[%d:a]%s[texture]", inputIdx, loopFilter))
		inputIdx++
	}
	if p.DrumLoop != "" {
		if p.DrumStartSeconds > 0 {
			delayMS := int(p.DrumStartSeconds * 1000)
			filters = append(filters, fmt.Sprintf("[%d:a]%s,adelay=%d|%d[drums]", inputIdx, loopFilter, delayMS, delayMS))
		} else {
			filters = append(filters, fmt.Sprintf("[%d:a]%s[drums]", inputIdx, loopFilter))
		}
		inputIdx++
	}

	current := "[0:a]"
	if p.Texture != "" || p.DrumLoop != "" {
		mixInputs := []string{"[0:a]"}
		if p.Texture != "" {
			filters = append(filters, fmt.Sprintf("[texture]volume=%s[texture_vol]", formatGainDB(p.TextureGainDB)))
			mixInputs = append(mixInputs, "[texture_vol]")
		}
		if p.DrumLoop != "" {
			filters = append(filters, fmt.Sprintf("[drums]volume=%s[drums_vol]", formatGainDB(p.DrumGainDB)))
			mixInputs = append(mixInputs, "[drums_vol]")
		}
		filters = append(filters, fmt.Sprintf("%samix=inputs=%d:normalize=0[mixed]", strings.Join(mixInputs, ""), len(mixInputs)))
		current = "[mixed]"
	}

	filters, current = appendTempoFilters(filters, current, p.TempoFactor)

	filters = append(filters, fmt.Sprintf("%shighpass=f=%d[hp]", current, p.HighpassHz))
	filters = append(filters, fmt.Sprintf("[hp]lowpass=f=%d[lp]", p.LowpassHz))
	current = "[lp]"

	if p.Reverb {
		filters = append(filters, current+"aecho=in_gain=0.8:out_gain=0.88:delays=60|120:decays=0.3|0.25[reverb]")
		current = "[reverb]"
	}
	if p.Saturation {
		filters = append(filters, current+"asubboost=dry=0.5:wet=0.5:boost=3:decay=0.6:feedback=0.6:cutoff=150[sat]")
		current = "[sat]"
	}

	filters = append(filters, current+compressorFilter+"[comp]")
	filters = append(filters, "[comp]"+limiterFilter+"[out]")

	args := []string{"-hide_banner", "-i", input}
	if p.Texture != "" {
		args = append(args, "-i", p.Texture)
	}
	if p.DrumLoop != "" {
		args = append(args, "-i", p.DrumLoop)
	}
	args = append(args,
		"-filter_complex", strings.Join(filters, ";"),
		"-map", "[out]",
		"-ar", outputSampleRate,
		"-ac", outputChannels,
		"-sample_fmt", outputSampleFmt,
		"-y",
		outputLossless,
	)

	lossless := Command{Args: args, Description: "lofi effects chain to lossless"}
	encode := Command{
		Args: []string{
			"-hide_banner",
			"-i", outputLossless,
			"-codec:a", "libmp3lame",
			"-b:a", "320k",
			"-y",
			outputMP3,
		},
		Description: "encode lofi mix to 320k CBR mp3",
	}
	return lossless, encode
}

// appendTempoFilters chains atempo stages for factors outside a single
// filter's 0.5x..2.0x range. A factor of 1.0 adds nothing.
func appendTempoFilters(filters []string, current string, factor float64) ([]string, string) {
	if factor == 0 || factor == 1.0 {
		return filters, current
	}
	remaining := factor
	step := 0
	for remaining < 0.5 {
		filters = append(filters, fmt.Sprintf("%satempo=0.5[tempo%d]", current, step))
		current = fmt.Sprintf("[tempo%d]", step)
		remaining /= 0.5
		step++
	}
	for remaining > 2.0 {
		filters = append(filters, fmt.Sprintf("%satempo=2.0[tempo%d]", current, step))
		current = fmt.Sprintf("[tempo%d]", step)
		remaining /= 2.0
		step++
	}
	if remaining != 1.0 {
		filters = append(filters, fmt.Sprintf("%satempo=%.3f[tempo%d]", current, remaining, step))
		current = fmt.Sprintf("[tempo%d]", step)
	}
	return filters, current
}
