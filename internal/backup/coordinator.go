package backup

import (
	"fmt"
	"path/filepath"
)

// RunConfig parameterizes a single backup run.
type RunConfig struct {
	SourceDir         string
	BackupRoot        string
	CatalogueLocation string
	Verbose           bool
	ProgressReporter  ProgressReporter
}

// RepositoryFactory opens (creating if absent) the catalogue at location.
type RepositoryFactory func(location string) (Repository, error)

// Coordinator implements C9: it owns the run's Snapshot Directory Handle,
// Bounded Work Queue, and progress mutex, and orchestrates the other
// components end to end.
type Coordinator struct {
	Digest      Digest
	Enumerator  Enumerator
	Clock       Clock
	Logger      Logger
	Filesystem  FilesystemManager
	NewRepo     RepositoryFactory
	WorkerCount int
}

// RunBackup is the primary entry point: prepare roots, enumerate the
// source into the bounded queue, drain it, sweep deletions, and reduce
// per-file outcomes into a single success flag.
func (c *Coordinator) RunBackup(cfg RunConfig) bool {
	backupDir := filepath.Join(cfg.BackupRoot, "backup")
	historyDir := filepath.Join(cfg.BackupRoot, "deleted")

	if err := c.Filesystem.MkdirAll(backupDir); err != nil {
		c.Logger.Error("creating mirror root", "path", backupDir, "error", err)
		return false
	}
	if err := c.Filesystem.MkdirAll(historyDir); err != nil {
		c.Logger.Error("creating history root", "path", historyDir, "error", err)
		return false
	}

	sourceRoot, enumerateRoot, err := normalizeSource(c.Filesystem, cfg.SourceDir)
	if err != nil {
		c.Logger.Error("normalizing source", "source", cfg.SourceDir, "error", err)
		return false
	}

	repo, err := c.NewRepo(cfg.CatalogueLocation)
	if err != nil {
		c.Logger.Error("opening catalogue", "location", cfg.CatalogueLocation, "error", err)
		return false
	}
	defer repo.Close()

	if err := repo.InitializeSchema(); err != nil {
		c.Logger.Error("initializing catalogue schema", "error", err)
		return false
	}

	snapshot := NewFSSnapshotDirectory(historyDir, c.Clock, c.Filesystem)
	state := newRunState(cfg.ProgressReporter)

	processor := &FileProcessor{
		SourceRoot: sourceRoot,
		BackupDir:  backupDir,
		Digest:     c.Digest,
		Snapshot:   snapshot,
		Clock:      c.Clock,
		Logger:     c.Logger,
		Repository: repo,
		Filesystem: c.Filesystem,
		state:      state,
	}

	workers := c.WorkerCount
	if workers < 1 {
		workers = WorkerCount()
	}
	queue := NewBoundedQueue(workers, processor.Process)

	if err := c.Enumerator.Enumerate(enumerateRoot, func(absPath string) {
		queue.Enqueue(absPath)
	}); err != nil {
		c.Logger.Warn("enumerating source", "source", enumerateRoot, "error", err)
	}
	queue.Finalize()

	if state.ok() {
		sweeper := &DeletionSweeper{
			SourceRoot: sourceRoot,
			BackupDir:  backupDir,
			Repository: repo,
			Snapshot:   snapshot,
			Clock:      c.Clock,
			Logger:     c.Logger,
			Filesystem: c.Filesystem,
			state:      state,
		}
		if !sweeper.Sweep() {
			state.fail()
		}
	}

	return state.ok()
}

// normalizeSource resolves sourceDir into the root that catalogue paths
// are computed relative to (sourceRoot) and the root passed to the
// Enumerator (enumerateRoot). A single-file source keeps its own path as
// the enumeration root but uses its containing directory as sourceRoot, so
// the file's relative path is its own name.
func normalizeSource(fsm FilesystemManager, sourceDir string) (sourceRoot, enumerateRoot string, err error) {
	info, statErr := fsm.Stat(sourceDir)
	if statErr != nil {
		return "", "", fmt.Errorf("stat source: %w", statErr)
	}
	if info.IsDir() {
		return sourceDir, sourceDir, nil
	}
	if !info.Mode().IsRegular() {
		return "", "", fmt.Errorf("source is neither a regular file nor a directory: %s", sourceDir)
	}
	return filepath.Dir(sourceDir), sourceDir, nil
}
