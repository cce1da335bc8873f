package backup

import (
	"fmt"
	"path/filepath"
	"sync"
)

// FSSnapshotDirectory is the filesystem-backed SnapshotDirectory: the first
// call to GetOrCreate fixes the timestamp and creates historyRoot/<ts>;
// every later call, from any goroutine, observes the same value.
//
// Grounded on SnapshotDirectoryProvider's std::call_once cell.
type FSSnapshotDirectory struct {
	historyRoot string
	clock       Clock
	filesystem  FilesystemManager

	once sync.Once
	path string
	err  error
}

func NewFSSnapshotDirectory(historyRoot string, clock Clock, fsm FilesystemManager) *FSSnapshotDirectory {
	return &FSSnapshotDirectory{historyRoot: historyRoot, clock: clock, filesystem: fsm}
}

func (s *FSSnapshotDirectory) GetOrCreate() (string, error) {
	s.once.Do(func() {
		ts := s.clock.Now().Format(TimestampLayout)
		path := filepath.Join(s.historyRoot, ts)
		if err := s.filesystem.MkdirAll(path); err != nil {
			s.err = fmt.Errorf("creating snapshot directory %s: %w", path, err)
			return
		}
		s.path = path
	})
	return s.path, s.err
}
