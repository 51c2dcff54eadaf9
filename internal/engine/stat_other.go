//go:build !linux && !darwin

package engine

import (
	"os"
	"time"
)

func accessTime(info os.FileInfo) time.Time {
	return info.ModTime()
}

func setFileTimes(f *os.File, accTime, modTime time.Time) error {
	return os.Chtimes(f.Name(), accTime, modTime)
}
