package preflight

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"mixloom/internal/ffmpeg"
)

// The engine must support the filters the pipeline builds (acrossfade
// with tri curves, asubboost). 4.4 is the oldest release carrying all
// of them.
const (
	minEngineMajor = 4
	minEngineMinor = 4
)

// Free space must cover the uncompressed intermediates: the clean merge,
// the lossless lofi pass, and the final encode together run to roughly
// three times the input payload.
const diskSpaceMultiplier = 3

// statfsFree reports available bytes on the filesystem holding path.
// Swapped out in tests.
var statfsFree = func(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// CheckEngineBinary verifies the binary resolves on PATH (or is an
// absolute path to an executable).
func CheckEngineBinary(name, binary string) Result {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return Result{Name: name, Detail: "binary not configured"}
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("binary %q not found", binary)}
	}
	return Result{Name: name, Passed: true, Detail: resolved}
}

// CheckEngineVersion verifies the engine meets the minimum supported
// version. Unparseable version strings (git snapshot builds) pass with a
// note rather than blocking the run.
func CheckEngineVersion(ctx context.Context, binary string) Result {
	const name = "FFmpeg version"

	version := ffmpeg.Version(ctx, binary)
	if version == "unknown" {
		return Result{Name: name, Detail: "could not determine engine version"}
	}
	major, minor, ok := parseVersion(version)
	if !ok {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (non-release build, not gated)", version)}
	}
	if major < minEngineMajor || (major == minEngineMajor && minor < minEngineMinor) {
		return Result{Name: name, Detail: fmt.Sprintf("%s is older than required %d.%d", version, minEngineMajor, minEngineMinor)}
	}
	return Result{Name: name, Passed: true, Detail: version}
}

// CheckDirectoryAccess verifies the directory exists and is readable,
// writable, and traversable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDiskSpace verifies the output filesystem has headroom for the
// intermediates, estimated from the total input payload.
func CheckDiskSpace(outputDir, inputDir string) Result {
	const name = "Disk space"

	required := inputPayloadBytes(inputDir) * diskSpaceMultiplier
	free, err := statfsFree(outputDir)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", outputDir, err)}
	}
	if free < required {
		return Result{Name: name, Detail: fmt.Sprintf("%s free, need %s", formatBytes(free), formatBytes(required))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s free, need %s", formatBytes(free), formatBytes(required))}
}

// inputPayloadBytes sums the regular files directly inside dir. The
// ingest stage scans flat, so subdirectories do not count.
func inputPayloadBytes(dir string) uint64 {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	var total uint64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		total += uint64(info.Size())
	}
	return total
}

func parseVersion(version string) (major, minor int, ok bool) {
	version = strings.TrimPrefix(version, "n")
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return 0, 0, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	minorDigits := strings.TrimFunc(parts[1], func(r rune) bool { return r < '0' || r > '9' })
	minor, err = strconv.Atoi(minorDigits)
	if err != nil {
		return 0, 0, false
	}
	return major, minor, true
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
