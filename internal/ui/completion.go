package ui

import (
	"fmt"

	"github.com/bamsammich/dedupe/internal/stats"
)

// CompletionSummary builds a final summary line from a snapshot.
// Format: done ✓  files 48,917  hashed 1,204 (cached 311)  groups 87  wasted 2.1 GiB  time 3m 17s  skipped 0
func CompletionSummary(snap stats.Snapshot) string {
	icon := "✓"
	if snap.ActionsFailed > 0 {
		icon = "✗"
	}

	base := fmt.Sprintf("done %s  files %s  hashed %s",
		icon,
		FormatCount(snap.FilesScanned),
		FormatCount(snap.FilesHashed),
	)
	if snap.CacheHits > 0 {
		base += fmt.Sprintf(" (cached %s)", FormatCount(snap.CacheHits))
	}
	base += fmt.Sprintf("  groups %s  wasted %s  time %s  skipped %d",
		FormatCount(snap.Groups),
		FormatBytes(snap.WastedBytes),
		FormatDuration(snap.Elapsed),
		snap.FilesSkipped,
	)

	if snap.FilesDeleted > 0 || snap.FilesMoved > 0 || snap.ActionsFailed > 0 {
		base += fmt.Sprintf("  freed %s  errors %d", FormatBytes(snap.BytesFreed), snap.ActionsFailed)
	}
	return base
}
