package backup

// Entry is one row of the catalogue: the last observed content hash,
// status, and update timestamp for a source-relative path.
type Entry struct {
	Path        string
	Hash        string
	Status      ChangeStatus
	LastUpdated string
}

// WorkerRepository is the per-worker view of the catalogue: a dedicated
// connection obtained once and reused for every file that worker handles.
type WorkerRepository interface {
	// Get returns the current entry for path, or nil if absent.
	Get(path string) (*Entry, error)
	// Upsert atomically inserts or replaces the entry for e.Path.
	Upsert(e Entry) error
}

// Repository is the transactional catalogue: schema management, per-worker
// connection affinity, and the full-table operations used by the deletion
// sweep. Implementations back this with any store offering serializable
// single-row transactions; SQLite is the default.
type Repository interface {
	// InitializeSchema creates the catalogue if absent. Idempotent.
	InitializeSchema() error
	// ForWorker returns the dedicated WorkerRepository for workerID,
	// creating its connection on first use.
	ForWorker(workerID int) (WorkerRepository, error)
	// ListAll returns a snapshot-read of every entry in the catalogue.
	ListAll() ([]Entry, error)
	// MarkDeleted sets status=Deleted and last_updated=timestamp for path,
	// preserving hash.
	MarkDeleted(path, timestamp string) error
	// Close releases all connections, worker and otherwise.
	Close() error
}
