// Package ffmpeg is the boundary to the external processing engine.
//
// It contains three concerns, deliberately separated:
//
//   - probing: a typed wrapper around ffprobe JSON output (Prober, Result)
//   - building: pure functions that translate processing intents into
//     argument lists (BuildMerge, BuildLofi, BuildVideo) and never execute
//     anything
//   - executing: Runner/Executor, which runs a built Command as a
//     subprocess with an optional hard timeout and captured stderr
//
// Builders are deterministic given their inputs, which is what makes them
// testable without invoking the real engine; tests substitute a fake Runner.
package ffmpeg
