package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates path (and parent directories) with the given content.
func WriteFile(t testing.TB, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// TouchAll creates every named file under dir with placeholder bytes and
// returns dir for convenience.
func TouchAll(t testing.TB, dir string, names ...string) string {
	t.Helper()
	for _, name := range names {
		WriteFile(t, filepath.Join(dir, name), []byte(name))
	}
	return dir
}
