//go:build darwin

package fscopy

import (
	"os"

	"golang.org/x/sys/unix"
)

// cloneFile attempts a whole-file clonefile(2) copy, which is
// copy-on-write on APFS and preserves mode and timestamps. The second
// return value is false when the caller should fall back to a
// read/write copy.
func cloneFile(src, dst string, info os.FileInfo) (int64, bool) {
	// clonefile refuses to overwrite, so clear any previous copy first.
	if _, err := os.Lstat(dst); err == nil {
		if err := os.Remove(dst); err != nil {
			return 0, false
		}
	}

	if err := unix.Clonefile(src, dst, 0); err != nil {
		return 0, false
	}

	return info.Size(), true
}
