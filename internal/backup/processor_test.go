package backup

import (
	"fmt"
	"io"
	"strconv"
	"testing"

	"github.com/cespare/xxhash/v2"

	"snapkeep/internal/testutil"
)

// testDigest is a stand-in for hashsum.XXHashDigest: processor_test.go lives
// in package backup (it reaches FileProcessor's unexported state field), and
// hashsum imports backup, so importing hashsum here would be a cycle.
type testDigest struct{ fs FilesystemManager }

func (d testDigest) Hash(path string) (string, error) {
	f, err := d.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return strconv.FormatUint(h.Sum64(), 16), nil
}

func newTestProcessor(t *testing.T, fsm *testutil.MockFilesystemManager, sourceRoot, backupDir string, repo Repository, clock Clock) *FileProcessor {
	t.Helper()
	return &FileProcessor{
		SourceRoot: sourceRoot,
		BackupDir:  backupDir,
		Digest:     testDigest{fs: fsm},
		Snapshot:   NewFSSnapshotDirectory("/backup/deleted", clock, fsm),
		Clock:      clock,
		Logger:     NewNopLogger(),
		Repository: repo,
		Filesystem: fsm,
		state:      newRunState(nil),
	}
}

func TestFileProcessor_AddedOnFirstSight(t *testing.T) {
	fsm := testutil.NewMockFilesystemManager()
	fsm.AddDirectory("/src")
	fsm.AddFile("/src/a.txt", []byte("hello"))

	repo := testutil.NewTestRepository(t)
	clock := testutil.FixedClock()

	p := newTestProcessor(t, fsm, "/src", "/backup/backup", repo, clock)
	p.Process(0, "/src/a.txt")

	if !p.state.ok() {
		t.Fatal("expected success")
	}

	wr, _ := repo.ForWorker(0)
	entry, err := wr.Get("a.txt")
	if err != nil || entry == nil {
		t.Fatalf("Get(a.txt) = %v, %v", entry, err)
	}
	if entry.Status != Added {
		t.Errorf("status = %v, want Added", entry.Status)
	}
	if want := testutil.XXHashHex([]byte("hello")); entry.Hash != want {
		t.Errorf("hash = %q, want %q", entry.Hash, want)
	}

	mirrored, ok := fsm.FileContent("/backup/backup/a.txt")
	if !ok || string(mirrored) != "hello" {
		t.Fatalf("mirror content = %q, %v", mirrored, ok)
	}
}

func TestFileProcessor_UnchangedKeepsTimestamp(t *testing.T) {
	fsm := testutil.NewMockFilesystemManager()
	fsm.AddDirectory("/src")
	fsm.AddFile("/src/a.txt", []byte("hello"))

	repo := testutil.NewTestRepository(t)
	clock := testutil.FixedClock()

	p := newTestProcessor(t, fsm, "/src", "/backup/backup", repo, clock)
	p.Process(0, "/src/a.txt")

	wr, _ := repo.ForWorker(0)
	first, _ := wr.Get("a.txt")

	p2 := newTestProcessor(t, fsm, "/src", "/backup/backup", repo, clock)
	p2.Process(0, "/src/a.txt")

	second, _ := wr.Get("a.txt")
	if second.Status != Unchanged {
		t.Errorf("status = %v, want Unchanged", second.Status)
	}
	if second.LastUpdated != first.LastUpdated {
		t.Errorf("LastUpdated changed on an unchanged file: %q -> %q", first.LastUpdated, second.LastUpdated)
	}
}

func TestFileProcessor_ModifiedArchivesPriorMirror(t *testing.T) {
	fsm := testutil.NewMockFilesystemManager()
	fsm.AddDirectory("/src")
	fsm.AddFile("/src/a.txt", []byte("v1"))

	repo := testutil.NewTestRepository(t)
	clock := testutil.FixedClock()

	p := newTestProcessor(t, fsm, "/src", "/backup/backup", repo, clock)
	p.Process(0, "/src/a.txt")

	fsm.AddFile("/src/a.txt", []byte("v2"))
	p.Process(0, "/src/a.txt")

	wr, _ := repo.ForWorker(0)
	entry, _ := wr.Get("a.txt")
	if entry.Status != Modified {
		t.Fatalf("status = %v, want Modified", entry.Status)
	}

	mirrored, _ := fsm.FileContent("/backup/backup/a.txt")
	if string(mirrored) != "v2" {
		t.Errorf("mirror = %q, want v2", mirrored)
	}

	snapDir, err := p.Snapshot.GetOrCreate()
	if err != nil {
		t.Fatal(err)
	}
	archived, ok := fsm.FileContent(snapDir + "/a.txt")
	if !ok || string(archived) != "v1" {
		t.Fatalf("archived snapshot = %q, %v, want v1", archived, ok)
	}
}

func TestFileProcessor_ModifiedWithMissingMirrorSkipsSnapshotSilently(t *testing.T) {
	fsm := testutil.NewMockFilesystemManager()
	fsm.AddDirectory("/src")
	fsm.AddFile("/src/a.txt", []byte("v1"))

	repo := testutil.NewTestRepository(t)
	clock := testutil.FixedClock()

	p := newTestProcessor(t, fsm, "/src", "/backup/backup", repo, clock)
	p.Process(0, "/src/a.txt")

	// simulate the mirror having disappeared out from under the run
	fsm.RemoveFile("/backup/backup/a.txt")

	fsm.AddFile("/src/a.txt", []byte("v2"))
	p.Process(0, "/src/a.txt")

	if !p.state.ok() {
		t.Fatal("expected success even with a missing mirror on Modified")
	}

	if fsm.Exists("/backup/deleted/2024-01-15_10-30-00") {
		t.Error("expected no snapshot directory created")
	}

	mirrored, ok := fsm.FileContent("/backup/backup/a.txt")
	if !ok || string(mirrored) != "v2" {
		t.Fatalf("mirror = %q, %v, want v2", mirrored, ok)
	}
}

func TestFileProcessor_DeletedPriorResurrectsAsAdded(t *testing.T) {
	fsm := testutil.NewMockFilesystemManager()
	fsm.AddDirectory("/src")

	repo := testutil.NewTestRepository(t)
	clock := testutil.FixedClock()

	p := newTestProcessor(t, fsm, "/src", "/backup/backup", repo, clock)

	wr, _ := repo.ForWorker(0)
	if err := wr.Upsert(Entry{Path: "a.txt", Hash: "old", Status: Deleted, LastUpdated: "old-ts"}); err != nil {
		t.Fatal(err)
	}

	fsm.AddFile("/src/a.txt", []byte("hello again"))
	p.Process(0, "/src/a.txt")

	entry, _ := wr.Get("a.txt")
	if entry.Status != Added {
		t.Errorf("status = %v, want Added (P5 resurrection)", entry.Status)
	}
}

func TestFileProcessor_SingleFileSourceUsesBaseNameAsRelPath(t *testing.T) {
	fsm := testutil.NewMockFilesystemManager()
	fsm.AddDirectory("/src")
	fsm.AddFile("/src/single.txt", []byte("single file content"))

	repo := testutil.NewTestRepository(t)
	clock := testutil.FixedClock()

	// SourceRoot == the file's containing directory, mirroring what
	// normalizeSource does for a single-file source.
	p := newTestProcessor(t, fsm, "/src", "/backup/backup", repo, clock)
	p.Process(0, "/src/single.txt")

	wr, _ := repo.ForWorker(0)
	entry, err := wr.Get("single.txt")
	if err != nil || entry == nil {
		t.Fatalf("Get(single.txt) = %v, %v", entry, err)
	}
}
