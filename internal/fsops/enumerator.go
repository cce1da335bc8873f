package fsops

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"snapkeep/internal/backup"
)

// OSFileEnumerator implements C3 over the real filesystem: single-file
// roots invoke onFile once, directory roots walk recursively skipping
// non-regular entries. Symlinked directories are treated as non-regular so
// a walk never follows a cycle introduced by a symlink.
//
// Grounded on FileIterator::Iterate, which special-cases a regular-file
// root before falling back to a recursive_directory_iterator.
type OSFileEnumerator struct{}

func NewOSFileEnumerator() *OSFileEnumerator {
	return &OSFileEnumerator{}
}

func (OSFileEnumerator) Enumerate(root string, onFile func(absPath string)) error {
	info, err := os.Lstat(root)
	if err != nil {
		return fmt.Errorf("stat %s: %w", root, err)
	}

	if info.Mode().IsRegular() {
		onFile(root)
		return nil
	}

	if !info.IsDir() {
		// Not a regular file and not a directory: nothing to enumerate.
		return nil
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Unreadable subtree: skip it, do not abort the whole walk.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		onFile(path)
		return nil
	})
}

var _ backup.Enumerator = OSFileEnumerator{}
