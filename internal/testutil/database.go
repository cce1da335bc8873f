package testutil

import (
	"testing"

	"snapkeep/internal/backup"
	"snapkeep/internal/catalogue"
)

// NewTestRepository opens an in-memory catalogue with the schema applied.
// The repository is automatically closed when the test completes.
func NewTestRepository(t *testing.T) backup.Repository {
	t.Helper()

	repo, err := catalogue.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open catalogue: %v", err)
	}

	if err := repo.InitializeSchema(); err != nil {
		repo.Close()
		t.Fatalf("failed to initialize catalogue schema: %v", err)
	}

	t.Cleanup(func() {
		repo.Close()
	})

	return repo
}
