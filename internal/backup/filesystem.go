package backup

import (
	"io"
	"io/fs"
)

// FilesystemManager abstracts every filesystem access the backup core
// performs, so File Processor and Deletion Sweeper can run against a
// fixture instead of the real disk.
type FilesystemManager interface {
	// Resolve validates a raw CLI path, absolute-ing it and rejecting
	// symlinks, devices, pipes and sockets.
	Resolve(rawPath string) (*Path, error)

	// Open opens path for reading.
	Open(path string) (io.ReadCloser, error)

	// Create opens path for writing, creating any missing parent
	// directories and truncating existing content.
	Create(path string) (io.WriteCloser, error)

	// Remove deletes path. Removing an already-absent path is not an error.
	Remove(path string) error

	// Exists reports whether path currently names an entry.
	Exists(path string) bool

	// Stat returns fresh file info for path.
	Stat(path string) (fs.FileInfo, error)

	// MkdirAll creates path and any missing parents.
	MkdirAll(path string) error
}
