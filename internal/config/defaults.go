package config

const (
	defaultCrossfadeMS      = 15000
	defaultHighpassHz       = 35
	defaultLowpassHz        = 11000
	defaultTextureGainDB    = -26.0
	defaultDrumGainDB       = -22.0
	defaultDrumStartSeconds = 0.0
	defaultTempoFactor      = 1.0
	defaultFFmpegBinary     = "ffmpeg"
	defaultFFprobeBinary    = "ffprobe"
	defaultLogLevel         = "info"
	defaultLogFormat        = "console"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Merge: Merge{
			CrossfadeMS: defaultCrossfadeMS,
		},
		Effects: Effects{
			HighpassHz:       defaultHighpassHz,
			LowpassHz:        defaultLowpassHz,
			TextureGainDB:    defaultTextureGainDB,
			DrumGainDB:       defaultDrumGainDB,
			DrumStartSeconds: defaultDrumStartSeconds,
			TempoFactor:      defaultTempoFactor,
		},
		Engine: Engine{
			FFmpeg:  defaultFFmpegBinary,
			FFprobe: defaultFFprobeBinary,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
