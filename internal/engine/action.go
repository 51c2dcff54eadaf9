package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bamsammich/dedupe/internal/event"
	"github.com/bamsammich/dedupe/internal/stats"
)

// ErrDeclined is reported for files the user chose not to act on.
var ErrDeclined = errors.New("declined by user")

// Confirmer asks the user whether a single action should proceed.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// ActionConfig controls the delete and move passes.
type ActionConfig struct {
	Keep        KeepPolicy
	DryRun      bool
	Interactive bool      // ask Confirm before each file; ignored under DryRun
	Confirm     Confirmer // required when Interactive
	Verify      bool      // re-hash each group before acting on it
	Algorithm   Algorithm
	Cache       *HashCache // entries of removed paths are forgotten
	Events      chan<- event.Event
	Stats       *stats.Collector
}

// ActionResult summarises one delete or move pass. Dry runs report exactly
// what a real run would.
type ActionResult struct {
	Affected   int
	BytesFreed int64
	Skipped    int
	Failed     int
	Errors     []ActionError
	Err        error // cancellation or prompt failure; the pass stopped early
}

// ActionError records a single file that could not be deleted or moved.
type ActionError struct {
	Path string
	Op   string
	Err  error
}

func (e ActionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e ActionError) Unwrap() error { return e.Err }

// applyFunc performs (or under dryRun, plans) the action on one file and
// returns the destination path for moves.
type applyFunc func(rec FileRecord, dryRun bool) (string, error)

type actionPass struct {
	cfg    ActionConfig
	op     string
	evType event.Type
	apply  applyFunc
	prompt func(rec FileRecord) string
	count  func(*stats.Collector)
}

// run visits every group sequentially: one keeper per group, then each
// remaining member in keeper-sorted order.
func (a *actionPass) run(ctx context.Context, groups []DuplicateGroup) ActionResult {
	var res ActionResult
	collector := a.cfg.Stats
	if collector == nil {
		collector = stats.NewCollector()
	}

	for _, g := range groups {
		keeper, rest := SelectKeeper(g, a.cfg.Keep)
		event.Send(ctx, a.cfg.Events, event.Event{
			Type:   event.KeepFile,
			Path:   keeper.Path,
			Digest: g.Digest,
			Size:   g.Size,
			Count:  int64(g.Count()),
			DryRun: a.cfg.DryRun,
		})

		var stale map[string]error
		if a.cfg.Verify {
			var err error
			if stale, err = staleSet(ctx, g, keeper, a.cfg.Algorithm); err != nil {
				res.Err = err
				return res
			}
		}

		for _, rec := range rest {
			if err := ctx.Err(); err != nil {
				res.Err = err
				return res
			}

			if reason, ok := stale[rec.Path]; ok {
				res.Skipped++
				a.skipped(ctx, rec, reason)
				continue
			}

			if a.cfg.Interactive && !a.cfg.DryRun && a.cfg.Confirm != nil {
				ok, err := a.cfg.Confirm.Confirm(a.prompt(rec))
				if err != nil {
					res.Err = fmt.Errorf("confirm %s: %w", rec.Path, err)
					return res
				}
				if !ok {
					res.Skipped++
					a.skipped(ctx, rec, ErrDeclined)
					continue
				}
			}

			target, err := a.apply(rec, a.cfg.DryRun)
			if err != nil {
				res.Failed++
				res.Errors = append(res.Errors, ActionError{Path: rec.Path, Op: a.op, Err: err})
				collector.AddActionsFailed(1)
				slog.Debug("action failed", "op", a.op, "path", rec.Path, "error", err)
				event.Send(ctx, a.cfg.Events, event.Event{
					Type:  event.ActionFailed,
					Path:  rec.Path,
					Error: err,
				})
				continue
			}

			res.Affected++
			res.BytesFreed += rec.Size
			a.count(collector)
			collector.AddBytesFreed(rec.Size)
			if !a.cfg.DryRun && a.cfg.Cache != nil {
				if err := a.cfg.Cache.Forget(rec.Path); err != nil {
					slog.Warn("hash cache update failed", "path", rec.Path, "error", err)
				}
			}
			event.Send(ctx, a.cfg.Events, event.Event{
				Type:   a.evType,
				Path:   rec.Path,
				Target: target,
				Digest: rec.Digest,
				Size:   rec.Size,
				DryRun: a.cfg.DryRun,
			})
		}
	}
	return res
}

func (a *actionPass) skipped(ctx context.Context, rec FileRecord, reason error) {
	slog.Debug("action skipped", "op", a.op, "path", rec.Path, "reason", reason)
	event.Send(ctx, a.cfg.Events, event.Event{
		Type:  event.ActionSkipped,
		Path:  rec.Path,
		Size:  rec.Size,
		Error: reason,
	})
}
