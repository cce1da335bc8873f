package testutil

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"snapkeep/internal/backup"
)

// MockFile represents a file in the mock filesystem.
type MockFile struct {
	Content     []byte
	Permissions fs.FileMode
	ModTime     time.Time
	IsDirectory bool
}

// MockFilesystemManager is an in-memory filesystem for testing, backing
// both backup.FilesystemManager and backup.Enumerator so File Processor
// and Deletion Sweeper tests never touch a real disk. It is safe for
// concurrent use by the bounded work queue's workers.
type MockFilesystemManager struct {
	mu    sync.Mutex
	files map[string]*MockFile
}

// NewMockFilesystemManager creates a new mock filesystem.
func NewMockFilesystemManager() *MockFilesystemManager {
	return &MockFilesystemManager{
		files: make(map[string]*MockFile),
	}
}

// AddFile adds a regular file to the mock filesystem.
func (m *MockFilesystemManager) AddFile(path string, content []byte) {
	abs, _ := filepath.Abs(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[abs] = &MockFile{
		Content:     content,
		Permissions: 0644,
		ModTime:     time.Now(),
		IsDirectory: false,
	}
}

// AddDirectory adds a directory to the mock filesystem.
func (m *MockFilesystemManager) AddDirectory(path string) {
	abs, _ := filepath.Abs(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[abs] = &MockFile{
		Permissions: 0755,
		ModTime:     time.Now(),
		IsDirectory: true,
	}
}

// RemoveFile deletes a path from the mock filesystem, simulating a file
// that has disappeared from the source tree between runs.
func (m *MockFilesystemManager) RemoveFile(path string) {
	abs, _ := filepath.Abs(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, abs)
}

// FileContent returns the current bytes stored for path, for assertions.
func (m *MockFilesystemManager) FileContent(path string) ([]byte, bool) {
	abs, _ := filepath.Abs(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[abs]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), f.Content...), true
}

func (m *MockFilesystemManager) Resolve(rawPath string) (*backup.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	_, ok := m.files[absPath]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("file not found: %w", fs.ErrNotExist)
	}

	return backup.NewPath(absPath), nil
}

func (m *MockFilesystemManager) Open(path string) (io.ReadCloser, error) {
	abs, _ := filepath.Abs(path)
	m.mu.Lock()
	file, ok := m.files[abs]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("opening %s: %w", path, fs.ErrNotExist)
	}
	if file.IsDirectory {
		return nil, fmt.Errorf("cannot open directory: %s", path)
	}
	return io.NopCloser(bytes.NewReader(file.Content)), nil
}

// mockWriteCloser buffers writes and commits them into the mock
// filesystem's map on Close, mirroring os.Create's truncate-on-open,
// commit-on-close behavior closely enough for tests.
type mockWriteCloser struct {
	m    *MockFilesystemManager
	path string
	buf  bytes.Buffer
}

func (w *mockWriteCloser) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *mockWriteCloser) Close() error {
	w.m.mu.Lock()
	defer w.m.mu.Unlock()
	w.m.files[w.path] = &MockFile{
		Content:     append([]byte(nil), w.buf.Bytes()...),
		Permissions: 0644,
		ModTime:     time.Now(),
		IsDirectory: false,
	}
	return nil
}

func (m *MockFilesystemManager) Create(path string) (io.WriteCloser, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &mockWriteCloser{m: m, path: abs}, nil
}

func (m *MockFilesystemManager) Remove(path string) error {
	abs, _ := filepath.Abs(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, abs)
	return nil
}

func (m *MockFilesystemManager) Exists(path string) bool {
	abs, _ := filepath.Abs(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[abs]
	return ok
}

func (m *MockFilesystemManager) Stat(path string) (fs.FileInfo, error) {
	abs, _ := filepath.Abs(path)
	m.mu.Lock()
	file, ok := m.files[abs]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("stat %s: %w", path, fs.ErrNotExist)
	}

	return &mockFileInfo{
		name:    filepath.Base(abs),
		size:    int64(len(file.Content)),
		mode:    file.Permissions,
		modTime: file.ModTime,
		isDir:   file.IsDirectory,
	}, nil
}

// MkdirAll records path as an existing directory. It is a no-op if the
// directory is already present, and does not create intermediate
// ancestors as distinct entries since Enumerate matches by path prefix.
func (m *MockFilesystemManager) MkdirAll(path string) error {
	m.AddDirectory(path)
	return nil
}

// Enumerate walks the mock filesystem beneath root, invoking onFile for
// every regular file whose path is root itself or lies under it.
func (m *MockFilesystemManager) Enumerate(root string, onFile func(absPath string)) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	file, ok := m.files[absRoot]
	if !ok {
		return fmt.Errorf("file not found: %s", absRoot)
	}

	if !file.IsDirectory {
		onFile(absRoot)
		return nil
	}

	prefix := absRoot + string(filepath.Separator)
	for path, f := range m.files {
		if f.IsDirectory {
			continue
		}
		if path == absRoot || strings.HasPrefix(path, prefix) {
			onFile(path)
		}
	}
	return nil
}

// mockFileInfo implements fs.FileInfo.
type mockFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return m.modTime }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() any           { return nil }

var (
	_ backup.FilesystemManager = (*MockFilesystemManager)(nil)
	_ backup.Enumerator        = (*MockFilesystemManager)(nil)
)
