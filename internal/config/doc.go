// Package config defines the immutable pipeline configuration: required
// directories, optional assets, numeric processing parameters, engine
// binaries, and log output settings.
//
// A Config is constructed once per run (Load merges a TOML file over
// Default) and stamped with run identity (run id + UTC start timestamp).
// After validation it is treated as read-only by every stage.
package config
