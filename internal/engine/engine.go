package engine

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/time/rate"

	"github.com/bamsammich/dedupe/internal/event"
	"github.com/bamsammich/dedupe/internal/filter"
	"github.com/bamsammich/dedupe/internal/stats"
)

// Config describes one duplicate scan.
type Config struct {
	Root      string
	Recursive bool
	Filter    *filter.Chain
	Workers   int       // full-digest pool size; <= 0 selects DefaultWorkers
	Algorithm Algorithm // empty = BLAKE3
	Limiter   *rate.Limiter
	Cache     *HashCache
	Events    chan<- event.Event
	Stats     *stats.Collector // nil = a fresh collector
}

// Result is the outcome of a scan.
type Result struct {
	Groups []DuplicateGroup
	Stats  stats.Snapshot
	Err    error
}

// DefaultWorkers returns the default full-digest pool size.
func DefaultWorkers() int {
	return min(runtime.NumCPU()*2, 32)
}

// Run walks cfg.Root and reduces the files found to duplicate groups in three
// stages: by size, by (size, partial digest) and by full digest. Only root
// validation failures and cancellation are returned in Result.Err; per-file
// failures are reported as FileSkipped events and counted.
func Run(ctx context.Context, cfg Config) Result {
	collector := cfg.Stats
	if collector == nil {
		collector = stats.NewCollector()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	fail := func(err error) Result {
		collector.Finish()
		return Result{Stats: collector.Snapshot(), Err: err}
	}

	w, err := NewWalker(WalkerConfig{
		Root:      cfg.Root,
		Recursive: cfg.Recursive,
		Filter:    cfg.Filter,
		Stats:     collector,
		Events:    cfg.Events,
	})
	if err != nil {
		return fail(err)
	}

	event.Send(ctx, cfg.Events, event.Event{Type: event.ScanStarted, Path: w.Root()})

	bySize := groupBySize(w.Walk(ctx))
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	snap := collector.Snapshot()
	stageDone(ctx, cfg.Events, event.StageWalk, snap.FilesScanned, snap.BytesScanned)
	stageDone(ctx, cfg.Events, event.StageSize, countEntries(bySize), bytesOf(bySize))
	slog.Debug("size stage complete", "buckets", len(bySize), "files", countEntries(bySize))

	p := &pipeline{
		hasher:  Hasher{Algorithm: cfg.Algorithm, Limiter: cfg.Limiter},
		cache:   cfg.Cache,
		workers: workers,
		stats:   collector,
		events:  cfg.Events,
	}

	byPartial, err := p.groupByPartial(ctx, bySize)
	if err != nil {
		return fail(err)
	}
	stageDone(ctx, cfg.Events, event.StagePartial, countEntries(byPartial), bytesOf(byPartial))
	slog.Debug("partial stage complete", "buckets", len(byPartial), "files", countEntries(byPartial))

	hashed, err := p.hashCandidates(ctx, byPartial)
	if err != nil {
		return fail(err)
	}
	groups := buildGroups(groupByDigest(hashed), collector)
	stageDone(ctx, cfg.Events, event.StageFull, int64(len(hashed)), hashedBytes(hashed))
	slog.Debug("full stage complete", "hashed", len(hashed), "groups", len(groups))

	for _, g := range groups {
		event.Send(ctx, cfg.Events, event.Event{
			Type:   event.GroupFound,
			Digest: g.Digest,
			Size:   g.Size,
			Count:  int64(g.Count()),
		})
	}

	if cfg.Cache != nil {
		if err := cfg.Cache.Flush(); err != nil {
			slog.Warn("hash cache flush failed", "path", cfg.Cache.Path(), "error", err)
		}
	}

	collector.Finish()
	event.Send(ctx, cfg.Events, event.Event{Type: event.ScanComplete, Count: int64(len(groups))})
	return Result{Groups: groups, Stats: collector.Snapshot()}
}

func stageDone(ctx context.Context, events chan<- event.Event, stage string, count, size int64) {
	event.Send(ctx, events, event.Event{
		Type:  event.StageComplete,
		Stage: stage,
		Count: count,
		Size:  size,
	})
}

func countEntries[K comparable](buckets map[K][]Entry) int64 {
	var n int64
	for _, es := range buckets {
		n += int64(len(es))
	}
	return n
}

func bytesOf[K comparable](buckets map[K][]Entry) int64 {
	var n int64
	for _, es := range buckets {
		for _, e := range es {
			n += e.Size
		}
	}
	return n
}

func hashedBytes(hashed []hashedEntry) int64 {
	var n int64
	for _, h := range hashed {
		n += h.Size
	}
	return n
}
