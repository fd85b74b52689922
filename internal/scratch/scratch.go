// Package scratch implements the per-client, per-function filesystem areas
// used by the Vector Store Engine's upload/fetch/extract endpoints and by
// the Testbed Runner's testset generation (spec.md §5 "Scratch directories
// for ingest and testbed are rooted by client-id and functional area
// (`.../<client>/<function>/`). The engine is responsible for full cleanup
// on every exit path including error.").
package scratch

import (
	"os"
	"path/filepath"
)

// Dir creates (or reuses) the scratch directory for one client/function
// pair under root, returning its path and a cleanup func that removes it
// unconditionally. Callers defer cleanup() immediately so every exit path,
// including a panic recovered upstream, leaves the directory gone.
func Dir(root, clientID, function string) (path string, cleanup func(), err error) {
	dir := filepath.Join(root, clientID, function)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", func() {}, err
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}
