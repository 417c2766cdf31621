package ffmpeg

import "testing"

func TestAudioTrackInfo(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", CodecName: "mjpeg"},
			{CodecType: "audio", CodecName: "mp3", SampleRate: "44100", Channels: 2, Duration: "180.2"},
		},
		Format: Format{Duration: "180.5"},
	}
	info, err := result.AudioTrackInfo()
	if err != nil {
		t.Fatalf("AudioTrackInfo: %v", err)
	}
	if info.Duration != 180.5 {
		t.Fatalf("container duration preferred, got %v", info.Duration)
	}
	if info.SampleRate != 44100 || info.Channels != 2 || info.Codec != "mp3" {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestAudioTrackInfoFallsBackToStreamDuration(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "audio", CodecName: "flac", SampleRate: "48000", Channels: 2, Duration: "62.0"}},
	}
	info, err := result.AudioTrackInfo()
	if err != nil {
		t.Fatalf("AudioTrackInfo: %v", err)
	}
	if info.Duration != 62.0 {
		t.Fatalf("stream duration fallback failed: %v", info.Duration)
	}
}

func TestAudioTrackInfoRejectsUnusableMetadata(t *testing.T) {
	noAudio := Result{Streams: []Stream{{CodecType: "video"}}}
	if _, err := noAudio.AudioTrackInfo(); err == nil {
		t.Fatal("expected error without an audio stream")
	}

	noDuration := Result{Streams: []Stream{{CodecType: "audio", SampleRate: "44100"}}}
	if _, err := noDuration.AudioTrackInfo(); err == nil {
		t.Fatal("expected error without a duration")
	}

	badRate := Result{
		Streams: []Stream{{CodecType: "audio", SampleRate: "N/A", Duration: "10"}},
	}
	if _, err := badRate.AudioTrackInfo(); err == nil {
		t.Fatal("expected error for unparseable sample rate")
	}
}

func TestDurationSeconds(t *testing.T) {
	if (Result{Format: Format{Duration: "12.25"}}).DurationSeconds() != 12.25 {
		t.Fatal("duration parse failed")
	}
	if (Result{Format: Format{Duration: "garbage"}}).DurationSeconds() != 0 {
		t.Fatal("unparseable duration should yield 0")
	}
}
