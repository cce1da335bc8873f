package catalogue

import (
	"testing"

	"snapkeep/internal/backup"
)

func openTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := repo.InitializeSchema(); err != nil {
		t.Fatalf("InitializeSchema() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository_UpsertThenGet(t *testing.T) {
	repo := openTestRepo(t)
	wr, err := repo.ForWorker(0)
	if err != nil {
		t.Fatal(err)
	}

	entry := backup.Entry{Path: "a.txt", Hash: "abc123", Status: backup.Added, LastUpdated: "2024-01-01_00-00-00"}
	if err := wr.Upsert(entry); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := wr.Get("a.txt")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil {
		t.Fatal("Get() = nil, want an entry")
	}
	if *got != entry {
		t.Errorf("Get() = %+v, want %+v", *got, entry)
	}
}

func TestSQLiteRepository_GetMissingReturnsNil(t *testing.T) {
	repo := openTestRepo(t)
	wr, _ := repo.ForWorker(0)

	got, err := wr.Get("nope.txt")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %+v, want nil", got)
	}
}

func TestSQLiteRepository_UpsertOverwritesExisting(t *testing.T) {
	repo := openTestRepo(t)
	wr, _ := repo.ForWorker(0)

	wr.Upsert(backup.Entry{Path: "a.txt", Hash: "v1", Status: backup.Added, LastUpdated: "ts1"})
	wr.Upsert(backup.Entry{Path: "a.txt", Hash: "v2", Status: backup.Modified, LastUpdated: "ts2"})

	got, _ := wr.Get("a.txt")
	if got.Hash != "v2" || got.Status != backup.Modified || got.LastUpdated != "ts2" {
		t.Errorf("Get() after second upsert = %+v", got)
	}

	all, err := repo.ListAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("ListAll() has %d rows, want exactly 1 (no duplicate on upsert)", len(all))
	}
}

func TestSQLiteRepository_ForWorkerReturnsStableConnectionPerWorker(t *testing.T) {
	repo := openTestRepo(t)

	w0a, err := repo.ForWorker(0)
	if err != nil {
		t.Fatal(err)
	}
	w0b, err := repo.ForWorker(0)
	if err != nil {
		t.Fatal(err)
	}
	w1, err := repo.ForWorker(1)
	if err != nil {
		t.Fatal(err)
	}

	w0a.Upsert(backup.Entry{Path: "x.txt", Hash: "h", Status: backup.Added, LastUpdated: "ts"})

	// The same worker's second handle must see what the first wrote.
	got, err := w0b.Get("x.txt")
	if err != nil || got == nil {
		t.Fatalf("Get() via second handle for worker 0 = %v, %v", got, err)
	}

	// A different worker's connection reads the same shared database.
	got1, err := w1.Get("x.txt")
	if err != nil || got1 == nil {
		t.Fatalf("Get() via worker 1 = %v, %v", got1, err)
	}
}

func TestSQLiteRepository_MarkDeleted(t *testing.T) {
	repo := openTestRepo(t)
	wr, _ := repo.ForWorker(0)
	wr.Upsert(backup.Entry{Path: "a.txt", Hash: "h1", Status: backup.Added, LastUpdated: "ts1"})

	if err := repo.MarkDeleted("a.txt", "ts2"); err != nil {
		t.Fatalf("MarkDeleted() error = %v", err)
	}

	got, _ := wr.Get("a.txt")
	if got.Status != backup.Deleted {
		t.Errorf("status = %v, want Deleted", got.Status)
	}
	if got.LastUpdated != "ts2" {
		t.Errorf("LastUpdated = %q, want ts2", got.LastUpdated)
	}
	if got.Hash != "h1" {
		t.Errorf("Hash = %q, want preserved h1", got.Hash)
	}
}

func TestSQLiteRepository_ListAll(t *testing.T) {
	repo := openTestRepo(t)
	wr, _ := repo.ForWorker(0)
	wr.Upsert(backup.Entry{Path: "a.txt", Hash: "h1", Status: backup.Added, LastUpdated: "ts1"})
	wr.Upsert(backup.Entry{Path: "b.txt", Hash: "h2", Status: backup.Modified, LastUpdated: "ts2"})

	all, err := repo.ListAll()
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListAll() returned %d entries, want 2", len(all))
	}
}
