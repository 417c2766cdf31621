package ingest

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// OrderFileName is the optional ordering file looked up inside the input
// directory.
const OrderFileName = "order.txt"

// parseOrderFile reads the ordering file: one filename per line, `#`
// comments and blank lines ignored, duplicates permitted (the same file is
// scheduled multiple times). Paths are rejected; only bare filenames are
// allowed.
func parseOrderFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ordered []string
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name := strings.Fields(line)[0]
		if strings.ContainsAny(name, `/\`) {
			return nil, fmt.Errorf("%s line %d: paths are not allowed, only filenames (got %q)", OrderFileName, lineNum, name)
		}
		ordered = append(ordered, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ordered, nil
}

// validateOrder checks that the ordering exactly covers the discovered
// set: every discovered file listed at least once, no listing of a file
// that is not present.
func validateOrder(ordered []string, available map[string]string) error {
	listed := make(map[string]struct{}, len(ordered))
	for _, name := range ordered {
		listed[name] = struct{}{}
	}

	var extra, missing []string
	for name := range listed {
		if _, ok := available[name]; !ok {
			extra = append(extra, name)
		}
	}
	for name := range available {
		if _, ok := listed[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(extra)
	sort.Strings(missing)

	if len(extra) > 0 {
		return fmt.Errorf("%s lists files not found in the input directory: %s", OrderFileName, strings.Join(extra, ", "))
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s is missing files present in the input directory: %s", OrderFileName, strings.Join(missing, ", "))
	}
	return nil
}
