package backup

import (
	"errors"
	"io/fs"
	"path/filepath"
)

// DeletionSweeper implements C8. It runs once, single-threaded, after the
// work queue drains: any catalogue entry whose source file no longer
// exists is archived (if a mirror copy exists) and marked Deleted.
type DeletionSweeper struct {
	SourceRoot string
	BackupDir  string
	Repository Repository
	Snapshot   SnapshotDirectory
	Clock      Clock
	Logger     Logger
	Filesystem FilesystemManager

	state *runState
}

// Sweep returns true iff no step failed.
func (sw *DeletionSweeper) Sweep() bool {
	entries, err := sw.Repository.ListAll()
	if err != nil {
		sw.Logger.Error("listing catalogue for sweep", "error", err)
		sw.state.fail()
		return false
	}

	for _, e := range entries {
		if e.Status == Deleted {
			continue
		}

		srcPath := filepath.Join(sw.SourceRoot, filepath.FromSlash(e.Path))
		if _, err := sw.Filesystem.Stat(srcPath); err == nil {
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			sw.Logger.Warn("stat during sweep", "file", e.Path, "error", err)
			continue
		}

		mirrorPath := filepath.Join(sw.BackupDir, filepath.FromSlash(e.Path))
		if sw.Filesystem.Exists(mirrorPath) {
			snapDir, err := sw.Snapshot.GetOrCreate()
			if err != nil {
				sw.Logger.Error("creating snapshot directory", "file", e.Path, "error", err)
				sw.state.fail()
				return false
			}
			snapPath := filepath.Join(snapDir, filepath.FromSlash(e.Path))
			if err := copyFile(sw.Filesystem, mirrorPath, snapPath); err != nil {
				sw.Logger.Warn("archiving mirror before removal", "file", e.Path, "error", err)
			}
			if err := sw.Filesystem.Remove(mirrorPath); err != nil {
				sw.Logger.Warn("removing mirror", "file", e.Path, "error", err)
			}
		}

		ts := sw.Clock.Now().Format(TimestampLayout)
		if err := sw.Repository.MarkDeleted(e.Path, ts); err != nil {
			sw.Logger.Error("marking catalogue entry deleted", "file", e.Path, "error", err)
			sw.state.fail()
			return false
		}

		sw.state.reportDeleted(e.Path)
	}

	return true
}
