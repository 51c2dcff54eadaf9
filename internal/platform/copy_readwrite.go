package platform

import (
	"io"
	"os"
	"sync"
)

const bufferSize = 1 << 20 // 1 MiB

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, bufferSize)
		return &b
	},
}

// copyReadWrite copies with positioned reads and writes through a pooled
// buffer.
func copyReadWrite(dst, src *os.File, size int64) (CopyResult, error) {
	bufp := bufPool.Get().(*[]byte)
	defer bufPool.Put(bufp)
	buf := *bufp

	res := CopyResult{Method: ReadWrite}
	for res.BytesWritten < size {
		toRead := min(size-res.BytesWritten, int64(len(buf)))
		n, err := src.ReadAt(buf[:toRead], res.BytesWritten)
		if n > 0 {
			if _, werr := dst.WriteAt(buf[:n], res.BytesWritten); werr != nil {
				return res, werr
			}
			res.BytesWritten += int64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, err
		}
	}
	return res, nil
}
