// Package ingest discovers, orders, and probes the input audio tracks.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"mixloom/internal/config"
	"mixloom/internal/faults"
	"mixloom/internal/ffmpeg"
	"mixloom/internal/logging"
)

const stageName = "ingest"

// probeWorkers bounds the parallel metadata probes. Results are rejoined
// in resolved order, never completion order.
const probeWorkers = 4

// audioExtensions is the flat-scan allow-list.
var audioExtensions = map[string]struct{}{
	".mp3":  {},
	".wav":  {},
	".m4a":  {},
	".flac": {},
	".mpeg": {},
}

// Track is one probed input file. Immutable; its position in the resolved
// sequence is significant and fixed for the run.
type Track struct {
	Path       string
	Name       string
	Duration   float64
	SampleRate int
	Channels   int
	Codec      string
}

// Result is the ingest stage output.
type Result struct {
	Tracks      []Track
	OrderSource string // "order.txt" or "natural_sort"
	Warnings    []string
}

// Run discovers audio files in the input directory, resolves their order
// (explicit order file or natural sort), and probes each for metadata.
//
// Probe failures are handled by ordering mode: a file that the order file
// explicitly schedules must be probeable (processing failure), while under
// natural sort an unreadable file is skipped with a warning. Zero surviving
// tracks is a validation failure either way.
func Run(ctx context.Context, cfg *config.Config, prober ffmpeg.Prober, logger *slog.Logger) (Result, error) {
	logger = logging.NewComponentLogger(logger, stageName)

	available, err := discover(cfg.Paths.InputDir)
	if err != nil {
		return Result{}, err
	}
	logger.Info("discovered audio files", logging.Int("count", len(available)))

	ordered, orderSource, err := resolveOrder(cfg.Paths.InputDir, available, logger)
	if err != nil {
		return Result{}, err
	}

	if limit := cfg.Merge.TrackLimit; limit > 0 && limit < len(ordered) {
		ordered = randomSubset(ordered, limit)
		logger.Info("selected random subset", logging.Int("selected", len(ordered)))
	}

	strict := orderSource == OrderFileName
	outcomes := probeAll(ctx, prober, available, ordered)

	result := Result{OrderSource: orderSource}
	for i, name := range ordered {
		outcome := outcomes[i]
		if outcome.err != nil {
			if strict {
				return Result{}, faults.Processing(stageName, "probe", name, outcome.err)
			}
			warning := fmt.Sprintf("skipping unreadable file %s: %v", name, outcome.err)
			result.Warnings = append(result.Warnings, warning)
			logger.Warn("skipping unreadable file", logging.String("file", name), logging.Error(outcome.err))
			continue
		}
		track := Track{
			Path:       available[name],
			Name:       name,
			Duration:   outcome.info.Duration,
			SampleRate: outcome.info.SampleRate,
			Channels:   outcome.info.Channels,
			Codec:      outcome.info.Codec,
		}
		result.Tracks = append(result.Tracks, track)
		logger.Info("track probed",
			logging.Int("position", len(result.Tracks)),
			logging.String("file", track.Name),
			logging.Float64("duration_s", track.Duration),
			logging.Int("sample_rate", track.SampleRate),
			logging.Int("channels", track.Channels),
			logging.String("codec", track.Codec),
		)
	}

	if len(result.Tracks) == 0 {
		return Result{}, faults.Validation(stageName, "probe", "no valid audio tracks after filtering", nil)
	}

	var total float64
	for _, track := range result.Tracks {
		total += track.Duration
	}
	logger.Info("ingest complete",
		logging.Int("tracks", len(result.Tracks)),
		logging.Float64("total_duration_s", total),
	)
	return result, nil
}

// discover scans the top level of the input directory for files on the
// extension allow-list and returns a filename → absolute path map.
func discover(inputDir string) (map[string]string, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, faults.Validation(stageName, "scan", fmt.Sprintf("input directory %s", inputDir), err)
	}

	available := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := audioExtensions[ext]; !ok {
			continue
		}
		available[entry.Name()] = filepath.Join(inputDir, entry.Name())
	}

	if len(available) == 0 {
		exts := make([]string, 0, len(audioExtensions))
		for ext := range audioExtensions {
			exts = append(exts, ext)
		}
		sort.Strings(exts)
		return nil, faults.Validation(stageName, "scan",
			fmt.Sprintf("no audio files in %s (supported: %s)", inputDir, strings.Join(exts, ", ")), nil)
	}
	return available, nil
}

func resolveOrder(inputDir string, available map[string]string, logger *slog.Logger) ([]string, string, error) {
	orderPath := filepath.Join(inputDir, OrderFileName)
	if _, err := os.Stat(orderPath); err == nil {
		ordered, err := parseOrderFile(orderPath)
		if err != nil {
			return nil, "", faults.Validation(stageName, "order file", "", err)
		}
		if err := validateOrder(ordered, available); err != nil {
			return nil, "", faults.Validation(stageName, "order file", "", err)
		}
		logger.Info("using order file", logging.Int("entries", len(ordered)))
		return ordered, OrderFileName, nil
	}

	names := make([]string, 0, len(available))
	for name := range available {
		names = append(names, name)
	}
	sortNatural(names)
	logger.Info("no order file, using natural sort", logging.Int("entries", len(names)))
	return names, "natural_sort", nil
}

// randomSubset keeps n entries chosen at random, preserving their relative
// positions in the resolved order.
func randomSubset(ordered []string, n int) []string {
	indices := rand.Perm(len(ordered))[:n]
	sort.Ints(indices)
	subset := make([]string, 0, n)
	for _, idx := range indices {
		subset = append(subset, ordered[idx])
	}
	return subset
}

type probeOutcome struct {
	info ffmpeg.TrackInfo
	err  error
}

// probeAll probes every scheduled entry with a bounded worker pool.
// outcomes[i] corresponds to ordered[i].
func probeAll(ctx context.Context, prober ffmpeg.Prober, available map[string]string, ordered []string) []probeOutcome {
	outcomes := make([]probeOutcome, len(ordered))
	jobs := make(chan int)

	var wg sync.WaitGroup
	workers := probeWorkers
	if len(ordered) < workers {
		workers = len(ordered)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				outcomes[idx] = probeOne(ctx, prober, available[ordered[idx]])
			}
		}()
	}
	for idx := range ordered {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()
	return outcomes
}

func probeOne(ctx context.Context, prober ffmpeg.Prober, path string) probeOutcome {
	result, err := prober.Inspect(ctx, path)
	if err != nil {
		return probeOutcome{err: err}
	}
	info, err := result.AudioTrackInfo()
	if err != nil {
		return probeOutcome{err: err}
	}
	return probeOutcome{info: info}
}
