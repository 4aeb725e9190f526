// Package artifact writes emitted documents to disk. All documents are
// rendered before the first file is touched, and each file is replaced
// atomically, so a failed run leaves earlier outputs intact.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/OpenTraceLab/viscosimeter/pkg/circuit"
	"github.com/OpenTraceLab/viscosimeter/pkg/emit"
)

// Target is one output file.
type Target struct {
	Path   string
	Format emit.Format
}

// Renderer produces artifact text; *emit.Emitter satisfies it.
type Renderer interface {
	Emit(c *circuit.Circuit, f emit.Format) (string, error)
}

// Result describes a written file.
type Result struct {
	Target
	Bytes int
}

// Write renders every target and then writes them in order. Parent
// directories are created as needed.
func Write(c *circuit.Circuit, r Renderer, targets []Target) ([]Result, error) {
	seen := make(map[string]bool, len(targets))
	docs := make([]string, len(targets))
	for i, t := range targets {
		clean := filepath.Clean(t.Path)
		if seen[clean] {
			return nil, fmt.Errorf("artifact: %s is targeted twice", t.Path)
		}
		seen[clean] = true

		text, err := r.Emit(c, t.Format)
		if err != nil {
			return nil, fmt.Errorf("artifact: rendering %s: %w", t.Path, err)
		}
		docs[i] = text
	}

	results := make([]Result, 0, len(targets))
	for i, t := range targets {
		if dir := filepath.Dir(t.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return results, fmt.Errorf("artifact: %w", err)
			}
		}
		if err := atomic.WriteFile(t.Path, strings.NewReader(docs[i])); err != nil {
			return results, fmt.Errorf("artifact: writing %s: %w", t.Path, err)
		}
		results = append(results, Result{Target: t, Bytes: len(docs[i])})
	}
	return results, nil
}
