//go:build !darwin

package fscopy

import "os"

// cloneFile is a no-op off macOS; callers fall back to a read/write copy.
func cloneFile(_, _ string, _ os.FileInfo) (int64, bool) {
	return 0, false
}
