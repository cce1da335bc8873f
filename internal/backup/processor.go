package backup

import (
	"path/filepath"
)

// FileProcessor implements C7: for one file, classify it against the
// catalogue, archive the previous mirror content if needed, refresh the
// mirror, and update the catalogue.
type FileProcessor struct {
	SourceRoot string
	BackupDir  string
	Digest     Digest
	Snapshot   SnapshotDirectory
	Clock      Clock
	Logger     Logger
	Repository Repository
	Filesystem FilesystemManager

	state *runState
}

// Process handles a single absolute path on behalf of workerID. Failures
// are absorbed into the run's success flag; they never panic or return an
// error to the caller, per the queue's callback contract.
func (p *FileProcessor) Process(workerID int, absPath string) {
	repo, err := p.Repository.ForWorker(workerID)
	if err != nil {
		p.Logger.Error("acquiring worker catalogue connection", "worker", workerID, "error", err)
		p.state.fail()
		return
	}

	relPath, err := filepath.Rel(p.SourceRoot, absPath)
	if err != nil {
		p.Logger.Error("computing relative path", "file", absPath, "error", err)
		p.state.fail()
		return
	}
	if relPath == "." {
		relPath = filepath.Base(absPath)
	}
	relPath = filepath.ToSlash(relPath)

	newHash, err := p.Digest.Hash(absPath)
	if err != nil {
		p.Logger.Error("hashing file", "file", relPath, "error", err)
		p.state.fail()
		return
	}

	prior, err := repo.Get(relPath)
	if err != nil {
		p.Logger.Error("reading catalogue entry", "file", relPath, "error", err)
		p.state.fail()
		return
	}
	if prior != nil && prior.Status == Deleted {
		// A Deleted prior resurrects cleanly: treat as absent.
		prior = nil
	}

	mirrorPath := filepath.Join(p.BackupDir, filepath.FromSlash(relPath))

	var newStatus ChangeStatus
	var newTimestamp string

	switch {
	case prior == nil:
		newStatus = Added
		newTimestamp = p.Clock.Now().Format(TimestampLayout)
		if err := copyFile(p.Filesystem, absPath, mirrorPath); err != nil {
			p.Logger.Warn("copying to mirror", "file", relPath, "error", err)
		}

	case newHash != prior.Hash:
		newStatus = Modified
		newTimestamp = p.Clock.Now().Format(TimestampLayout)

		if p.Filesystem.Exists(mirrorPath) {
			snapDir, err := p.Snapshot.GetOrCreate()
			if err != nil {
				p.Logger.Error("creating snapshot directory", "file", relPath, "error", err)
				p.state.fail()
				return
			}
			snapPath := filepath.Join(snapDir, filepath.FromSlash(relPath))
			if err := copyFile(p.Filesystem, mirrorPath, snapPath); err != nil {
				p.Logger.Warn("archiving previous mirror content", "file", relPath, "error", err)
			}
		}
		// A missing mirror for a Modified path (unexpected external
		// deletion of backup/relPath) skips the snapshot step silently;
		// there is nothing to archive.

		if err := copyFile(p.Filesystem, absPath, mirrorPath); err != nil {
			p.Logger.Warn("copying to mirror", "file", relPath, "error", err)
		}

	default:
		newStatus = Unchanged
		newTimestamp = prior.LastUpdated
	}

	if err := repo.Upsert(Entry{Path: relPath, Hash: newHash, Status: newStatus, LastUpdated: newTimestamp}); err != nil {
		p.Logger.Error("upserting catalogue entry", "file", relPath, "error", err)
		p.state.fail()
		return
	}

	p.state.reportCollecting(relPath)
}
