package ffmpeg

import (
	"strconv"
	"strings"
)

// Command is one engine invocation: an ordered argument list (the binary
// itself is the executor's concern, never shell-interpolated) paired with a
// human-readable description used for logging and the audit trail.
type Command struct {
	Args        []string
	Description string
}

// String renders the argument list for logs and the manifest.
func (c Command) String() string {
	return strings.Join(c.Args, " ")
}

// Output format shared by the merge and lofi intents.
const (
	outputSampleRate = "48000"
	outputChannels   = "2"
	outputSampleFmt  = "s16"
)

// formatSeconds renders a duration value the way the engine expects filter
// parameters: plain decimal, no exponent, no trailing zeros.
func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatGainDB(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "dB"
}
