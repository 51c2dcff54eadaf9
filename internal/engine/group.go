package engine

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"os"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bamsammich/dedupe/internal/event"
	"github.com/bamsammich/dedupe/internal/stats"
)

// errChanged reports a file that is no longer the regular file of the size
// seen by the walker.
var errChanged = errors.New("file changed since scan")

// partialKey is the stage two bucket key. Size is part of the key so that
// files of different sizes never share a bucket even if their partial
// digests collide.
type partialKey struct {
	Size   int64
	Digest uint64
}

// hashedEntry is a FileRecord paired with its discovery ordinal.
type hashedEntry struct {
	FileRecord
	index int
}

// groupBySize buckets entries by exact byte size and drops singletons.
func groupBySize(entries iter.Seq[Entry]) map[int64][]Entry {
	buckets := make(map[int64][]Entry)
	for e := range entries {
		buckets[e.Size] = append(buckets[e.Size], e)
	}
	maps.DeleteFunc(buckets, func(_ int64, es []Entry) bool { return len(es) < 2 })
	return buckets
}

// groupByDigest buckets hashed files by full digest across the whole
// candidate set, drops singletons and restores discovery order within each
// bucket.
func groupByDigest(hashed []hashedEntry) map[string][]hashedEntry {
	buckets := make(map[string][]hashedEntry)
	for _, h := range hashed {
		buckets[h.Digest] = append(buckets[h.Digest], h)
	}
	for digest, hs := range buckets {
		if len(hs) < 2 {
			delete(buckets, digest)
			continue
		}
		slices.SortFunc(hs, func(a, b hashedEntry) int { return cmp.Compare(a.index, b.index) })
	}
	return buckets
}

// buildGroups converts digest buckets into DuplicateGroups ordered by
// descending wasted space, then by digest.
func buildGroups(buckets map[string][]hashedEntry, collector *stats.Collector) []DuplicateGroup {
	groups := make([]DuplicateGroup, 0, len(buckets))
	for digest, hs := range buckets {
		files := make([]FileRecord, len(hs))
		for i, h := range hs {
			files[i] = h.FileRecord
		}
		g := newDuplicateGroup(digest, files)
		collector.AddGroup(int64(g.Count()), g.Size)
		groups = append(groups, g)
	}
	slices.SortFunc(groups, func(a, b DuplicateGroup) int {
		if c := cmp.Compare(b.WastedSpace, a.WastedSpace); c != 0 {
			return c
		}
		return cmp.Compare(a.Digest, b.Digest)
	})
	return groups
}

// pipeline carries the collaborators shared by the hashing stages.
type pipeline struct {
	hasher  Hasher
	cache   *HashCache
	workers int
	stats   *stats.Collector
	events  chan<- event.Event
}

// groupByPartial computes partial digests for every member of the size
// buckets on the calling goroutine, in ascending size then discovery order,
// and returns the (size, partial digest) buckets with singletons dropped.
func (p *pipeline) groupByPartial(ctx context.Context, bySize map[int64][]Entry) (map[partialKey][]Entry, error) {
	buckets := make(map[partialKey][]Entry)
	for _, size := range slices.Sorted(maps.Keys(bySize)) {
		for _, e := range bySize[size] {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			d, err := PartialDigest(e.Path, e.Size)
			if err != nil {
				p.skip(ctx, e.Path, err)
				continue
			}
			p.stats.AddPartialHashed(1)
			key := partialKey{Size: size, Digest: d}
			buckets[key] = append(buckets[key], e)
		}
	}
	maps.DeleteFunc(buckets, func(_ partialKey, es []Entry) bool { return len(es) < 2 })
	return buckets, nil
}

// hashCandidates computes full digests for every member of the partial
// buckets on a bounded worker pool. Files that fail are reported and left
// out of the result; only cancellation is returned as an error.
func (p *pipeline) hashCandidates(ctx context.Context, buckets map[partialKey][]Entry) ([]hashedEntry, error) {
	var candidates []Entry
	for _, es := range buckets {
		candidates = append(candidates, es...)
	}
	slices.SortFunc(candidates, func(a, b Entry) int { return cmp.Compare(a.Index, b.Index) })

	var (
		mu     sync.Mutex
		result = make([]hashedEntry, 0, len(candidates))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.workers, 1))
	for i, e := range candidates {
		if gctx.Err() != nil {
			break
		}
		workerID := i % max(p.workers, 1)
		g.Go(func() error {
			rec, err := p.hashOne(gctx, e)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				p.skip(gctx, e.Path, err)
				return nil
			}
			event.Send(gctx, p.events, event.Event{
				Type:     event.FileHashed,
				Path:     rec.Path,
				Digest:   rec.Digest,
				Size:     rec.Size,
				WorkerID: workerID,
			})
			mu.Lock()
			result = append(result, hashedEntry{FileRecord: rec, index: e.Index})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (p *pipeline) hashOne(ctx context.Context, e Entry) (FileRecord, error) {
	info, err := os.Lstat(e.Path)
	if err != nil {
		return FileRecord{}, fmt.Errorf("stat %s: %w", e.Path, err)
	}
	if !info.Mode().IsRegular() || info.Size() != e.Size {
		return FileRecord{}, fmt.Errorf("%s: %w", e.Path, errChanged)
	}
	mtime := info.ModTime()
	alg := p.hasher.Algorithm

	if p.cache != nil {
		if digest, ok := p.cache.Lookup(e.Path, e.Size, mtime.UnixNano(), alg); ok {
			p.stats.AddCacheHits(1)
			p.stats.AddFilesHashed(1)
			return FileRecord{Path: e.Path, Size: e.Size, Digest: digest, ModTime: mtime}, nil
		}
	}

	digest, err := p.hasher.FullDigest(ctx, e.Path)
	if err != nil {
		return FileRecord{}, err
	}
	p.stats.AddFilesHashed(1)
	p.stats.AddBytesHashed(e.Size)

	if p.cache != nil {
		if err := p.cache.Store(e.Path, e.Size, mtime.UnixNano(), alg, digest); err != nil {
			slog.Warn("hash cache write failed", "path", e.Path, "error", err)
		}
	}
	return FileRecord{Path: e.Path, Size: e.Size, Digest: digest, ModTime: mtime}, nil
}

func (p *pipeline) skip(ctx context.Context, path string, err error) {
	slog.Debug("skipping file", "path", path, "error", err)
	p.stats.AddFilesSkipped(1)
	event.Send(ctx, p.events, event.Event{
		Type:  event.FileSkipped,
		Path:  path,
		Error: err,
	})
}
