//go:build linux

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

// preallocate reserves size bytes for f. fallocate is advisory and not every
// filesystem supports it, so failures are ignored.
//
//nolint:gosec // G115: fd values are small non-negative integers
func preallocate(f *os.File, size int64) {
	//nolint:errcheck // advisory
	unix.Fallocate(int(f.Fd()), 0, 0, size)
}
