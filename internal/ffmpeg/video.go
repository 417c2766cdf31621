package ffmpeg

// videoScaleFilter letterboxes the cover to 1920x1080: aspect preserved,
// centered, black padding.
const videoScaleFilter = "scale=1920:1080:force_original_aspect_ratio=decrease," +
	"pad=1920:1080:(ow-iw)/2:(oh-ih)/2:black"

// BuildVideo translates the render-video intent into one engine
// invocation: the cover image looped at 1 fps, muxed with the audio as
// H.264 + AAC, truncated to exactly the probed audio duration.
func BuildVideo(coverImage, audio string, audioDuration float64, output string) Command {
	return Command{
		Args: []string{
			"-hide_banner",
			"-loop", "1",
			"-i", coverImage,
			"-i", audio,
			"-c:v", "libx264",
			"-preset", "medium",
			"-tune", "stillimage",
			"-crf", "18",
			"-pix_fmt", "yuv420p",
			"-profile:v", "high",
			"-r", "1",
			"-vf", videoScaleFilter,
			"-c:a", "aac",
			"-b:a", "192k",
			"-shortest",
			"-t", formatSeconds(audioDuration),
			"-y",
			output,
		},
		Description: "render static cover video",
	}
}
