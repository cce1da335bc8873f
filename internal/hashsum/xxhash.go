// Package hashsum implements the Content Digest contract: a streaming,
// 64-bit xxHash fingerprint with seed 0, matching FileHasher's use of
// XXH64 in the reference implementation.
package hashsum

import (
	"fmt"
	"io"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"snapkeep/internal/backup"
)

const readBufferSize = 8192

// XXHashDigest computes hexadecimal, lower-case, unpadded 64-bit xxHash
// fingerprints with seed 0, reading through a FilesystemManager so it
// works identically against the real disk and against a fixture.
type XXHashDigest struct {
	fs backup.FilesystemManager
}

func New(fs backup.FilesystemManager) *XXHashDigest { return &XXHashDigest{fs: fs} }

func (d *XXHashDigest) Hash(path string) (string, error) {
	f, err := d.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := xxhash.New()
	buf := make([]byte, readBufferSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	return strconv.FormatUint(h.Sum64(), 16), nil
}

var _ backup.Digest = (*XXHashDigest)(nil)
