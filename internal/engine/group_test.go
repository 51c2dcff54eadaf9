package engine

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/dedupe/internal/event"
	"github.com/bamsammich/dedupe/internal/stats"
)

func TestGroupBySizeDropsSingletons(t *testing.T) {
	entries := []Entry{
		{Path: "a", Size: 10, Index: 0},
		{Path: "b", Size: 20, Index: 1},
		{Path: "c", Size: 10, Index: 2},
		{Path: "d", Size: 30, Index: 3},
	}
	got := groupBySize(slices.Values(entries))

	require.Len(t, got, 1)
	assert.Equal(t, []Entry{entries[0], entries[2]}, got[10])
}

func TestGroupByDigestRestoresDiscoveryOrder(t *testing.T) {
	hashed := []hashedEntry{
		{FileRecord: FileRecord{Path: "z", Digest: "d1"}, index: 5},
		{FileRecord: FileRecord{Path: "y", Digest: "d2"}, index: 1},
		{FileRecord: FileRecord{Path: "x", Digest: "d1"}, index: 0},
		{FileRecord: FileRecord{Path: "w", Digest: "d1"}, index: 3},
	}
	got := groupByDigest(hashed)

	require.Len(t, got, 1)
	var paths []string
	for _, h := range got["d1"] {
		paths = append(paths, h.Path)
	}
	assert.Equal(t, []string{"x", "w", "z"}, paths)
}

func TestBuildGroupsOrdering(t *testing.T) {
	mk := func(digest string, size int64, n int) []hashedEntry {
		out := make([]hashedEntry, n)
		for i := range out {
			out[i] = hashedEntry{FileRecord: FileRecord{Path: digest + string(rune('0'+i)), Size: size, Digest: digest}, index: i}
		}
		return out
	}
	buckets := map[string][]hashedEntry{
		"bb": mk("bb", 10, 2), // wasted 10
		"aa": mk("aa", 10, 2), // wasted 10, sorts before bb
		"cc": mk("cc", 5, 5),  // wasted 20
	}
	collector := stats.NewCollector()
	groups := buildGroups(buckets, collector)

	require.Len(t, groups, 3)
	assert.Equal(t, []string{"cc", "aa", "bb"}, []string{groups[0].Digest, groups[1].Digest, groups[2].Digest})
	assert.Equal(t, int64(20), groups[0].WastedSpace)

	snap := collector.Snapshot()
	assert.Equal(t, int64(3), snap.Groups)
	assert.Equal(t, int64(6), snap.Duplicates)
	assert.Equal(t, int64(40), snap.WastedBytes)
}

func TestGroupByPartialKeysBySize(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "a"), []byte("aaaa"))
	b := writeFile(t, filepath.Join(dir, "b"), []byte("aaaa"))
	c := writeFile(t, filepath.Join(dir, "c"), []byte("bbbb"))

	p := &pipeline{workers: 2, stats: stats.NewCollector()}
	got, err := p.groupByPartial(context.Background(), map[int64][]Entry{
		4: {{Path: a, Size: 4, Index: 0}, {Path: b, Size: 4, Index: 1}, {Path: c, Size: 4, Index: 2}},
	})
	require.NoError(t, err)

	require.Len(t, got, 1)
	for key, es := range got {
		assert.Equal(t, int64(4), key.Size)
		assert.Len(t, es, 2)
	}
	assert.Equal(t, int64(3), p.stats.Snapshot().PartialHashed)
}

func TestHashCandidatesDropsVanishedFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "a"), []byte("same"))
	b := writeFile(t, filepath.Join(dir, "b"), []byte("same"))
	gone := filepath.Join(dir, "gone")

	events := make(chan event.Event, 16)
	p := &pipeline{
		hasher:  Hasher{Algorithm: BLAKE3},
		workers: 2,
		stats:   stats.NewCollector(),
		events:  events,
	}
	hashed, err := p.hashCandidates(context.Background(), map[partialKey][]Entry{
		{Size: 4, Digest: 1}: {
			{Path: a, Size: 4, Index: 0},
			{Path: gone, Size: 4, Index: 1},
			{Path: b, Size: 4, Index: 2},
		},
	})
	require.NoError(t, err)
	close(events)

	assert.Len(t, hashed, 2)
	assert.Equal(t, int64(1), p.stats.Snapshot().FilesSkipped)

	var skipped []string
	for ev := range events {
		if ev.Type == event.FileSkipped {
			skipped = append(skipped, ev.Path)
		}
	}
	assert.Equal(t, []string{gone}, skipped)
}

func TestHashCandidatesDropsResizedFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "a"), []byte("same"))
	b := writeFile(t, filepath.Join(dir, "b"), []byte("same"))
	require.NoError(t, os.WriteFile(b, []byte("grown!"), 0o644))

	p := &pipeline{hasher: Hasher{}, workers: 1, stats: stats.NewCollector()}
	hashed, err := p.hashCandidates(context.Background(), map[partialKey][]Entry{
		{Size: 4}: {{Path: a, Size: 4, Index: 0}, {Path: b, Size: 4, Index: 1}},
	})
	require.NoError(t, err)
	require.Len(t, hashed, 1)
	assert.Equal(t, a, hashed[0].Path)
}
