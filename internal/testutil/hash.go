package testutil

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// XXHashHex returns the hexadecimal, lower-case, unpadded 64-bit xxHash of
// data, seed 0 — the value a test should expect hashsum.XXHashDigest to
// produce for a mock file with this content.
func XXHashHex(data []byte) string {
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}
