package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/bamsammich/dedupe/internal/event"
	"github.com/bamsammich/dedupe/internal/stats"
)

// DeleteDuplicates removes every non-keeper member of each group. Under
// DryRun nothing is removed but counts are reported as if it had been.
// A file that cannot be removed is recorded in the result and the pass
// continues with the next file.
func DeleteDuplicates(ctx context.Context, groups []DuplicateGroup, cfg ActionConfig) ActionResult {
	pass := &actionPass{
		cfg:    cfg,
		op:     "delete",
		evType: event.DeleteFile,
		apply: func(rec FileRecord, dryRun bool) (string, error) {
			if dryRun {
				return "", nil
			}
			if err := os.Remove(rec.Path); err != nil {
				return "", fmt.Errorf("remove %s: %w", rec.Path, err)
			}
			return "", nil
		},
		prompt: func(rec FileRecord) string {
			return fmt.Sprintf("Delete %s? [y/N] ", rec.Path)
		},
		count: func(c *stats.Collector) { c.AddFilesDeleted(1) },
	}
	return pass.run(ctx, groups)
}
