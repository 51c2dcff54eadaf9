package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const ringSize = 60

// Reader is the read side of a Collector, used by presenters.
type Reader interface {
	Snapshot() Snapshot
}

// ReadTicker is a Reader whose throughput ring can be advanced by a presenter.
type ReadTicker interface {
	Reader
	Tick()
	RollingSpeed(seconds int) float64
	SparklineData(n int) []float64
}

// Collector accumulates scan and action statistics using lock-free atomic
// counters. One Collector belongs to one scan invocation; it is written by the
// walker, the hashing workers and the action layer, and read afterwards.
type Collector struct {
	filesScanned  atomic.Int64
	bytesScanned  atomic.Int64
	filesSkipped  atomic.Int64
	partialHashed atomic.Int64
	filesHashed   atomic.Int64
	bytesHashed   atomic.Int64
	cacheHits     atomic.Int64
	duplicates    atomic.Int64
	groups        atomic.Int64
	wastedBytes   atomic.Int64
	filesDeleted  atomic.Int64
	filesMoved    atomic.Int64
	bytesFreed    atomic.Int64
	actionsFailed atomic.Int64
	startTime     time.Time

	mu      sync.Mutex
	end     time.Time
	hashing [ringSize]int64 // bytes hashed per tick
	ringIdx int
	ringCnt int
	lastB   int64
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

func (c *Collector) AddFilesScanned(n int64)  { c.filesScanned.Add(n) }
func (c *Collector) AddBytesScanned(n int64)  { c.bytesScanned.Add(n) }
func (c *Collector) AddFilesSkipped(n int64)  { c.filesSkipped.Add(n) }
func (c *Collector) AddPartialHashed(n int64) { c.partialHashed.Add(n) }
func (c *Collector) AddFilesHashed(n int64)   { c.filesHashed.Add(n) }
func (c *Collector) AddBytesHashed(n int64)   { c.bytesHashed.Add(n) }
func (c *Collector) AddCacheHits(n int64)     { c.cacheHits.Add(n) }
func (c *Collector) AddFilesDeleted(n int64)  { c.filesDeleted.Add(n) }
func (c *Collector) AddFilesMoved(n int64)    { c.filesMoved.Add(n) }
func (c *Collector) AddBytesFreed(n int64)    { c.bytesFreed.Add(n) }
func (c *Collector) AddActionsFailed(n int64) { c.actionsFailed.Add(n) }

// AddGroup records one duplicate group of count members, each size bytes.
func (c *Collector) AddGroup(count, size int64) {
	if count < 2 {
		return
	}
	c.groups.Add(1)
	c.duplicates.Add(count - 1)
	c.wastedBytes.Add(size * (count - 1))
}

// Finish freezes the elapsed time reported by subsequent snapshots.
func (c *Collector) Finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.end.IsZero() {
		c.end = time.Now()
	}
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	FilesScanned  int64         `json:"files_scanned" yaml:"files_scanned"`
	BytesScanned  int64         `json:"bytes_scanned" yaml:"bytes_scanned"`
	FilesSkipped  int64         `json:"files_skipped" yaml:"files_skipped"`
	PartialHashed int64         `json:"files_partial_hashed" yaml:"files_partial_hashed"`
	FilesHashed   int64         `json:"files_hashed" yaml:"files_hashed"`
	BytesHashed   int64         `json:"bytes_hashed" yaml:"bytes_hashed"`
	CacheHits     int64         `json:"cache_hits" yaml:"cache_hits"`
	Groups        int64         `json:"groups" yaml:"groups"`
	Duplicates    int64         `json:"duplicates_found" yaml:"duplicates_found"`
	WastedBytes   int64         `json:"wasted_space" yaml:"wasted_space"`
	FilesDeleted  int64         `json:"files_deleted" yaml:"files_deleted"`
	FilesMoved    int64         `json:"files_moved" yaml:"files_moved"`
	BytesFreed    int64         `json:"bytes_freed" yaml:"bytes_freed"`
	ActionsFailed int64         `json:"actions_failed" yaml:"actions_failed"`
	Elapsed       time.Duration `json:"scan_time_ns" yaml:"scan_time_ns"`
}

// Snapshot returns a point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		FilesScanned:  c.filesScanned.Load(),
		BytesScanned:  c.bytesScanned.Load(),
		FilesSkipped:  c.filesSkipped.Load(),
		PartialHashed: c.partialHashed.Load(),
		FilesHashed:   c.filesHashed.Load(),
		BytesHashed:   c.bytesHashed.Load(),
		CacheHits:     c.cacheHits.Load(),
		Groups:        c.groups.Load(),
		Duplicates:    c.duplicates.Load(),
		WastedBytes:   c.wastedBytes.Load(),
		FilesDeleted:  c.filesDeleted.Load(),
		FilesMoved:    c.filesMoved.Load(),
		BytesFreed:    c.bytesFreed.Load(),
		ActionsFailed: c.actionsFailed.Load(),
		Elapsed:       c.Elapsed(),
	}
}

// Tick snapshots the hashed-bytes delta into the ring buffer. Called 1/sec by the presenter.
func (c *Collector) Tick() {
	current := c.bytesHashed.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.hashing[c.ringIdx] = current - c.lastB
	c.lastB = current
	c.ringIdx = (c.ringIdx + 1) % ringSize
	if c.ringCnt < ringSize {
		c.ringCnt++
	}
}

// RollingSpeed returns average hashed bytes/sec over the last n samples.
func (c *Collector) RollingSpeed(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := min(seconds, c.ringCnt)
	if count <= 0 {
		return 0
	}
	var sum int64
	for i := range count {
		sum += c.hashing[(c.ringIdx-1-i+ringSize)%ringSize]
	}
	return float64(sum) / float64(count)
}

// SparklineData returns the last n hashing-rate samples, oldest first.
func (c *Collector) SparklineData(n int) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := min(n, c.ringCnt)
	if count <= 0 {
		return nil
	}
	data := make([]float64, count)
	for i := range count {
		data[i] = float64(c.hashing[(c.ringIdx-count+i+ringSize)%ringSize])
	}
	return data
}

// Elapsed returns time since collector creation, or the scan duration once
// Finish has been called.
func (c *Collector) Elapsed() time.Duration {
	c.mu.Lock()
	end := c.end
	c.mu.Unlock()
	if end.IsZero() {
		return time.Since(c.startTime)
	}
	return end.Sub(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"scanned=%d hashed=%d cached=%d skipped=%d groups=%d duplicates=%d wasted=%d",
		s.FilesScanned, s.FilesHashed, s.CacheHits, s.FilesSkipped,
		s.Groups, s.Duplicates, s.WastedBytes,
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
