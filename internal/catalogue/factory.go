package catalogue

import "snapkeep/internal/backup"

// New adapts Open to the backup.RepositoryFactory signature the Run
// Coordinator expects.
func New(location string) (backup.Repository, error) {
	return Open(location)
}
