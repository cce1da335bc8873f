package backup

import (
	"fmt"
	"io"
)

// copyFile overwrites dst with the byte-for-byte contents of src, both
// resolved through fsm, creating dst's parent directories as needed.
// Timestamp/permission preservation is best-effort, not required.
func copyFile(fsm FilesystemManager, src, dst string) error {
	in, err := fsm.Open(src)
	if err != nil {
		return fmt.Errorf("opening source %s: %w", src, err)
	}
	defer in.Close()

	out, err := fsm.Create(dst)
	if err != nil {
		return fmt.Errorf("creating destination %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return nil
}
