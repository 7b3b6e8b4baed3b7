package stacktrace

import "strings"

// InternalPaths keeps the "internal/...file.go:line" frames of a debug.Stack
// dump and drops everything else (runtime, vendored modules, pc offsets).
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.SplitSeq(string(stack), "\n") {
		line = strings.TrimSpace(line)
		_, rest, ok := strings.Cut(line, "/internal/")
		if !ok || !strings.Contains(rest, ".go:") {
			continue
		}
		if sp := strings.IndexByte(rest, ' '); sp != -1 {
			rest = rest[:sp]
		}
		paths = append(paths, "internal/"+rest)
	}
	return paths
}
