package engine

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const cacheBatchSize = 100

// HashCache is a SQLite-backed store of full digests keyed by path, size,
// modification time and algorithm. A changed size or mtime is a miss.
type HashCache struct {
	db   *sql.DB
	path string

	mu      sync.Mutex
	batch   []cacheEntry
	done    chan struct{}
	stopped bool
}

type cacheEntry struct {
	path      string
	size      int64
	mtimeNano int64
	algorithm Algorithm
	digest    string
}

// DefaultCachePath returns $XDG_CACHE_HOME/dedupe/hashes.db, falling back
// to ~/.cache/dedupe/hashes.db.
func DefaultCachePath() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "dedupe", "hashes.db")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "dedupe", "hashes.db")
	}
	return filepath.Join(os.TempDir(), "dedupe-hashes.db")
}

// OpenHashCache opens (or creates) the cache database at path. An empty path
// selects DefaultCachePath.
func OpenHashCache(path string) (*HashCache, error) {
	if path == "" {
		path = DefaultCachePath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open hash cache: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS digests (
			path      TEXT    NOT NULL,
			size      INTEGER NOT NULL,
			mtime     INTEGER NOT NULL,
			algorithm TEXT    NOT NULL,
			digest    TEXT    NOT NULL,
			PRIMARY KEY (path, algorithm)
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	c := &HashCache{
		db:   db,
		path: path,
		done: make(chan struct{}),
	}
	go c.flushLoop()
	return c, nil
}

// Lookup returns the cached digest for path when the stored size and mtime
// still match.
func (c *HashCache) Lookup(path string, size, mtimeNano int64, alg Algorithm) (string, bool) {
	var digest string
	err := c.db.QueryRow(
		"SELECT digest FROM digests WHERE path = ? AND algorithm = ? AND size = ? AND mtime = ?",
		path, alg.String(), size, mtimeNano,
	).Scan(&digest)
	if err != nil {
		return "", false
	}
	return digest, true
}

// Store queues a digest for insertion. Writes are batched and flushed every
// 100 entries, periodically, and on Close.
func (c *HashCache) Store(path string, size, mtimeNano int64, alg Algorithm, digest string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.batch = append(c.batch, cacheEntry{
		path:      path,
		size:      size,
		mtimeNano: mtimeNano,
		algorithm: alg,
		digest:    digest,
	})
	if len(c.batch) >= cacheBatchSize {
		return c.flushLocked()
	}
	return nil
}

// Forget removes every cached digest for path, e.g. after the file was
// deleted or moved away.
func (c *HashCache) Forget(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.flushLocked(); err != nil {
		return err
	}
	if _, err := c.db.Exec("DELETE FROM digests WHERE path = ?", path); err != nil {
		return fmt.Errorf("forget %s: %w", path, err)
	}
	return nil
}

// Flush writes any pending entries to the database.
func (c *HashCache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushLocked()
}

// flushLocked writes the pending batch in one transaction. The batch is
// emptied whether or not the write succeeds; entries lost to a failing
// database are re-hashed on the next run.
func (c *HashCache) flushLocked() error {
	if len(c.batch) == 0 {
		return nil
	}
	defer func() { c.batch = c.batch[:0] }()

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	stmt, err := tx.Prepare(
		"INSERT OR REPLACE INTO digests (path, size, mtime, algorithm, digest) VALUES (?, ?, ?, ?, ?)",
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range c.batch {
		if _, err := stmt.Exec(e.path, e.size, e.mtimeNano, e.algorithm.String(), e.digest); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert %s: %w", e.path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (c *HashCache) flushLoop() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			pending := len(c.batch)
			if err := c.flushLocked(); err != nil {
				slog.Warn("hash cache flush failed", "path", c.path, "dropped", pending, "error", err)
			}
			c.mu.Unlock()
		}
	}
}

// Close flushes pending writes and closes the database.
func (c *HashCache) Close() error {
	c.mu.Lock()
	if !c.stopped {
		c.stopped = true
		close(c.done)
	}
	flushErr := c.flushLocked()
	c.mu.Unlock()
	return errors.Join(flushErr, c.db.Close())
}

// Path returns the cache database location.
func (c *HashCache) Path() string {
	return c.path
}
