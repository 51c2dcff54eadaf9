package engine

import "time"

// Entry is a file yielded by the walker that passed the filter chain.
type Entry struct {
	Path  string
	Size  int64
	Index int // discovery ordinal within one walk
}

// FileRecord describes one fully hashed file. Records are immutable once
// created.
type FileRecord struct {
	Path    string    `json:"path" yaml:"path"`
	Size    int64     `json:"size" yaml:"size"`
	Digest  string    `json:"digest" yaml:"digest"`
	ModTime time.Time `json:"modified" yaml:"modified"`
}

// DuplicateGroup is a set of at least two files with identical size and
// full digest. Files are kept in discovery order; callers that need a
// different order must sort a copy.
type DuplicateGroup struct {
	Digest      string       `json:"digest" yaml:"digest"`
	Size        int64        `json:"size" yaml:"size"`
	Files       []FileRecord `json:"files" yaml:"files"`
	WastedSpace int64        `json:"wasted_space" yaml:"wasted_space"`
}

// Count returns the number of members.
func (g DuplicateGroup) Count() int {
	return len(g.Files)
}

func newDuplicateGroup(digest string, files []FileRecord) DuplicateGroup {
	size := files[0].Size
	return DuplicateGroup{
		Digest:      digest,
		Size:        size,
		Files:       files,
		WastedSpace: size * int64(len(files)-1),
	}
}
