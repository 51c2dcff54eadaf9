package engine

import (
	"fmt"
	"slices"
	"strings"
)

// KeepPolicy chooses which member of a duplicate group survives an action.
type KeepPolicy int

const (
	KeepOldest KeepPolicy = iota // earliest modification time
	KeepNewest                   // latest modification time
	KeepFirst                    // first in discovery order
)

// ParseKeepPolicy converts "oldest", "newest" or "first" into a KeepPolicy.
func ParseKeepPolicy(s string) (KeepPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "oldest":
		return KeepOldest, nil
	case "newest":
		return KeepNewest, nil
	case "first":
		return KeepFirst, nil
	default:
		return 0, fmt.Errorf("invalid keep policy %q (want oldest, newest or first)", s)
	}
}

func (p KeepPolicy) String() string {
	switch p {
	case KeepNewest:
		return "newest"
	case KeepFirst:
		return "first"
	default:
		return "oldest"
	}
}

// SelectKeeper returns the member of g to keep and the members to act on.
// The group is not modified. Ties on modification time keep discovery order,
// so the result is deterministic.
func SelectKeeper(g DuplicateGroup, policy KeepPolicy) (FileRecord, []FileRecord) {
	files := slices.Clone(g.Files)
	switch policy {
	case KeepOldest:
		slices.SortStableFunc(files, func(a, b FileRecord) int { return a.ModTime.Compare(b.ModTime) })
	case KeepNewest:
		slices.SortStableFunc(files, func(a, b FileRecord) int { return b.ModTime.Compare(a.ModTime) })
	case KeepFirst:
	}
	return files[0], files[1:]
}
