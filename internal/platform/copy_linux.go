//go:build linux

package platform

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// copyFile tries copy_file_range, then sendfile, then read/write. A kernel
// refusal before any byte was written falls through to the next method.
func copyFile(dst, src *os.File, size int64) (CopyResult, error) {
	preallocate(dst, size)

	result, err := copyFileRange(dst, src, size)
	if err == nil || !isFallbackErr(err) || result.BytesWritten > 0 {
		return result, err
	}

	result, err = copySendfile(dst, src, size)
	if err == nil || !isFallbackErr(err) || result.BytesWritten > 0 {
		return result, err
	}

	return copyReadWrite(dst, src, size)
}

//nolint:gosec // G115: fd values are small non-negative integers
func copyFileRange(dst, src *os.File, size int64) (CopyResult, error) {
	var roff, woff int64
	res := CopyResult{Method: CopyFileRange}
	for res.BytesWritten < size {
		n, err := unix.CopyFileRange(int(src.Fd()), &roff, int(dst.Fd()), &woff, int(size-res.BytesWritten), 0)
		if err != nil {
			return res, err
		}
		if n == 0 {
			break
		}
		res.BytesWritten += int64(n)
	}
	return res, nil
}

//nolint:gosec // G115: fd values are small non-negative integers
func copySendfile(dst, src *os.File, size int64) (CopyResult, error) {
	var offset int64
	res := CopyResult{Method: Sendfile}
	for res.BytesWritten < size {
		n, err := unix.Sendfile(int(dst.Fd()), int(src.Fd()), &offset, int(size-res.BytesWritten))
		if err != nil {
			return res, err
		}
		if n == 0 {
			break
		}
		res.BytesWritten += int64(n)
	}
	return res, nil
}

// isFallbackErr reports whether err means the method is unsupported for this
// pair of files rather than a real I/O failure.
func isFallbackErr(err error) bool {
	return errors.Is(err, unix.ENOSYS) || errors.Is(err, unix.EXDEV) ||
		errors.Is(err, unix.EINVAL) || errors.Is(err, unix.ENOTSUP) ||
		errors.Is(err, unix.EOPNOTSUPP)
}
