package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// replaceFile swaps the content of target through a hidden replacement file
// in the same directory, so the final rename never crosses a filesystem
// boundary. readTime is the modification time observed when the caller read
// the file; if the target moved on since then the replacement is discarded
// and the apply fails instead of clobbering the concurrent edit.
func replaceFile(target string, content []byte, readTime time.Time) error {
	dir, base := filepath.Split(target)
	replacement := filepath.Join(dir, "."+base+".pullconf")

	if err := os.WriteFile(replacement, content, 0o644); err != nil {
		return fmt.Errorf("writing replacement for %s: %w", target, err)
	}

	info, err := os.Stat(target)
	if err != nil {
		os.Remove(replacement)
		return fmt.Errorf("replacing %s: %w", target, err)
	}
	if !info.ModTime().Equal(readTime) {
		os.Remove(replacement)
		return fmt.Errorf("%s was modified while pullconf was processing it", target)
	}

	if err := os.Rename(replacement, target); err != nil {
		os.Remove(replacement)
		return fmt.Errorf("replacing %s: %w", target, err)
	}
	return nil
}
