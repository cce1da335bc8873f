// Package app wires the backup core to a configuration file, a run
// logger, and the supplemented run-history table — the layer a CLI
// command talks to instead of touching internal/backup directly.
package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/uuid"

	"snapkeep/internal/backup"
	"snapkeep/internal/catalogue"
	"snapkeep/internal/config"
	"snapkeep/internal/fsops"
	"snapkeep/internal/hashsum"
)

// App is the application layer between the CLI and the backup core.
type App struct {
	cfg     *config.Config
	logger  *slogAdapter
	logFile *os.File
}

// New builds an App from cfg, opening the run log for a fresh run ID.
// The caller must call Close when done.
func New(cfg *config.Config) (*App, error) {
	runID := uuid.New().String()
	l, logFile, err := newLogger(cfg.LogDir, runID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	return &App{
		cfg:     cfg,
		logger:  &slogAdapter{l: l},
		logFile: logFile,
	}, nil
}

// Close releases the run log file.
func (a *App) Close() error {
	if a.logFile != nil {
		return a.logFile.Close()
	}
	return nil
}

// RunBackup executes a single backup run and records it in the
// supplemented run-history table. It returns the run's success flag
// (per spec.md §6, per-file failures never surface as a Go error) and a
// Go error only for setup failures in the app layer itself. An empty
// catalogueOverride derives the catalogue location from backupRoot; a
// non-empty one (the CLI's -c/--catalogue flag) takes its place.
func (a *App) RunBackup(sourceDir, backupRoot, catalogueOverride string, verbose bool, report backup.ProgressReporter) (bool, error) {
	fsmgr := fsops.NewOSFilesystemManager()

	// Resolve makes the source argument absolute and rejects symlinks
	// and special files up front; the coordinator's normalizeSource then
	// derives the enumeration and relative-path roots from it. A
	// missing source is not rejected here — that failure is left to
	// the coordinator so backup/ and deleted/ still get created.
	if resolved, err := fsmgr.Resolve(sourceDir); err == nil {
		sourceDir = resolved.String()
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("resolving source: %w", err)
	}

	catalogueLocation := catalogueOverride
	if catalogueLocation == "" {
		catalogueLocation = config.CatalogueLocation(backupRoot)
	}

	historyRepo, err := catalogue.Open(catalogueLocation)
	if err != nil {
		return false, fmt.Errorf("opening catalogue: %w", err)
	}
	defer historyRepo.Close()

	if err := historyRepo.InitializeSchema(); err != nil {
		return false, fmt.Errorf("initializing catalogue schema: %w", err)
	}

	runID, err := historyRepo.StartRun(sourceDir, backupRoot)
	if err != nil {
		return false, fmt.Errorf("starting run record: %w", err)
	}

	coordinator := &backup.Coordinator{
		Digest:     hashsum.New(fsmgr),
		Enumerator: fsops.NewOSFileEnumerator(),
		Clock:      backup.RealClock{},
		Logger:     a.logger,
		Filesystem: fsmgr,
		NewRepo:    catalogue.New,
	}

	success := coordinator.RunBackup(backup.RunConfig{
		SourceDir:         sourceDir,
		BackupRoot:        backupRoot,
		CatalogueLocation: catalogueLocation,
		Verbose:           verbose,
		ProgressReporter:  report,
	})

	if err := historyRepo.FinishRun(runID, success); err != nil {
		a.logger.Error("finishing run record", "runID", runID, "error", err)
	}

	return success, nil
}

// History returns the most recent runs against backupRoot's catalogue,
// newest first.
func (a *App) History(backupRoot string, limit int) ([]catalogue.Run, error) {
	repo, err := catalogue.Open(config.CatalogueLocation(backupRoot))
	if err != nil {
		return nil, fmt.Errorf("opening catalogue: %w", err)
	}
	defer repo.Close()

	if err := repo.InitializeSchema(); err != nil {
		return nil, fmt.Errorf("initializing catalogue schema: %w", err)
	}

	runs, err := repo.ListRuns(limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}
