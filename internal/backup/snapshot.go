package backup

// SnapshotDirectory lazily creates at most one timestamped directory per
// run, on first demand. All callers within a run observe the same path.
type SnapshotDirectory interface {
	// GetOrCreate resolves and, on first call, creates the snapshot
	// directory. Subsequent calls return the same path without touching
	// the filesystem.
	GetOrCreate() (string, error)
}
