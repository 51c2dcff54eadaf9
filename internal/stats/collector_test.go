package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()
	const goroutines = 100
	const opsPerGoroutine = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			for range opsPerGoroutine {
				c.AddFilesScanned(1)
				c.AddBytesScanned(256)
				c.AddFilesHashed(1)
				c.AddBytesHashed(128)
				c.AddCacheHits(1)
				c.AddFilesSkipped(1)
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	expected := int64(goroutines * opsPerGoroutine)
	assert.Equal(t, expected, s.FilesScanned)
	assert.Equal(t, expected*256, s.BytesScanned)
	assert.Equal(t, expected, s.FilesHashed)
	assert.Equal(t, expected*128, s.BytesHashed)
	assert.Equal(t, expected, s.CacheHits)
	assert.Equal(t, expected, s.FilesSkipped)
}

func TestAddGroup(t *testing.T) {
	c := NewCollector()
	c.AddGroup(3, 100)
	c.AddGroup(2, 10)
	c.AddGroup(1, 999) // singletons are not groups

	s := c.Snapshot()
	assert.Equal(t, int64(2), s.Groups)
	assert.Equal(t, int64(3), s.Duplicates)
	assert.Equal(t, int64(210), s.WastedBytes)
}

func TestSnapshotString(t *testing.T) {
	s := Snapshot{
		FilesScanned: 10,
		FilesHashed:  8,
		CacheHits:    2,
		FilesSkipped: 1,
		Groups:       3,
		Duplicates:   4,
		WastedBytes:  4096,
	}
	expected := "scanned=10 hashed=8 cached=2 skipped=1 groups=3 duplicates=4 wasted=4096"
	assert.Equal(t, expected, s.String())
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1048576, "1.0 MiB"},
		{1073741824, "1.0 GiB"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			require.Equal(t, tt.expected, FormatBytes(tt.input))
		})
	}
}

func TestNewCollector(t *testing.T) {
	c := NewCollector()
	assert.False(t, c.startTime.IsZero())
	assert.InDelta(t, 0, c.Elapsed().Seconds(), 1)
}

func TestFinishFreezesElapsed(t *testing.T) {
	c := NewCollector()
	time.Sleep(5 * time.Millisecond)
	c.Finish()
	first := c.Snapshot().Elapsed
	time.Sleep(10 * time.Millisecond)

	assert.Equal(t, first, c.Snapshot().Elapsed)
	assert.Greater(t, first, time.Duration(0))

	// A second Finish does not move the end time.
	c.Finish()
	assert.Equal(t, first, c.Elapsed())
}

func TestTickAndRollingSpeed(t *testing.T) {
	c := NewCollector()

	// Simulate 5 seconds of 1000 bytes/sec.
	for range 5 {
		c.AddBytesHashed(1000)
		c.Tick()
	}

	assert.InDelta(t, 1000.0, c.RollingSpeed(5), 0.01)
}

func TestRollingSpeedPartialWindow(t *testing.T) {
	c := NewCollector()

	c.AddBytesHashed(500)
	c.Tick()
	c.AddBytesHashed(500)
	c.Tick()

	// Ask for 10 but only have 2.
	assert.InDelta(t, 500.0, c.RollingSpeed(10), 0.01)
}

func TestRollingSpeedNoSamples(t *testing.T) {
	c := NewCollector()
	assert.Equal(t, 0.0, c.RollingSpeed(5))
}

func TestSparklineData(t *testing.T) {
	c := NewCollector()

	for i := range 5 {
		c.AddBytesHashed(int64((i + 1) * 100))
		c.Tick()
	}

	data := c.SparklineData(5)
	require.Len(t, data, 5)
	// Each tick's delta: 100, 200, 300, 400, 500.
	for i, want := range []float64{100, 200, 300, 400, 500} {
		assert.InDelta(t, want, data[i], 0.01)
	}
}

func TestSparklineDataNoSamples(t *testing.T) {
	c := NewCollector()
	assert.Nil(t, c.SparklineData(5))
}

func TestRingWraparound(t *testing.T) {
	c := NewCollector()

	for i := range ringSize + 10 {
		c.AddBytesHashed(int64(i + 1))
		c.Tick()
	}

	data := c.SparklineData(ringSize)
	require.Len(t, data, ringSize)
	assert.InDelta(t, float64(ringSize+10), data[ringSize-1], 0.01)
}
