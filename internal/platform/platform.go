// Package platform copies file contents with the fastest mechanism the
// operating system offers, falling back to plain reads and writes.
package platform

import "os"

// CopyMethod identifies which syscall/strategy was used for a copy.
type CopyMethod int

const (
	ReadWrite     CopyMethod = iota
	CopyFileRange            // Linux copy_file_range(2)
	Sendfile                 // Linux sendfile(2)
)

func (m CopyMethod) String() string {
	switch m {
	case ReadWrite:
		return "read_write"
	case CopyFileRange:
		return "copy_file_range"
	case Sendfile:
		return "sendfile"
	default:
		return "unknown"
	}
}

// CopyResult reports the outcome of a copy operation.
type CopyResult struct {
	BytesWritten int64
	Method       CopyMethod
}

// CopyFile copies size bytes from the start of src into dst, which must be
// an empty file opened for writing. Both offsets are left untouched, so the
// caller may keep using the handles.
func CopyFile(dst, src *os.File, size int64) (CopyResult, error) {
	if size <= 0 {
		return CopyResult{}, nil
	}
	return copyFile(dst, src, size)
}
