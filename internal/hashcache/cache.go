// Package hashcache is the persistent content-hash cache. It maps
// (directory, name, size, mtime) to a BLAKE3 digest in a single SQLite file
// so that unchanged files are never read twice across invocations.
package hashcache

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bamsammich/fwt/internal/errs"
	"github.com/bamsammich/fwt/internal/event"
	"github.com/bamsammich/fwt/internal/stats"
)

// DefaultBatchSize is the number of files hashed between commits during a
// bulk index.
const DefaultBatchSize = 1000

// Entry is one cached file record.
type Entry struct {
	ID        int64
	Dir       string
	Name      string
	Size      int64
	Timestamp float64 // modification time, milliseconds since the epoch
	Hash      string
}

// Path joins Dir and Name.
func (e Entry) Path() string { return filepath.Join(e.Dir, e.Name) }

// ModTime converts Timestamp back to a time.Time.
func (e Entry) ModTime() time.Time {
	return time.Unix(0, int64(e.Timestamp*1e6))
}

// Millis converts t to the cache's timestamp representation.
func Millis(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e6
}

// Cache is an open hash cache. It is not safe for concurrent use.
type Cache struct {
	db        *sql.DB
	tx        *sql.Tx
	path      string
	batchSize int
	stats     *stats.Collector
	sink      event.Sink
	hashFile  func(context.Context, string) (string, error)
	// ctx bounds hashing started through HashOf and the equality checks.
	ctx context.Context
}

// Option configures a Cache.
type Option func(*Cache)

// WithBatchSize sets how many files are hashed per commit during IndexTree.
func WithBatchSize(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithCollector routes hash, move and maintenance counts into s.
func WithCollector(s *stats.Collector) Option {
	return func(c *Cache) { c.stats = s }
}

// WithRateLimit caps the rate at which file content is read for hashing.
// Zero or negative means unlimited.
func WithRateLimit(bytesPerSec int64) Option {
	return func(c *Cache) {
		if bytesPerSec <= 0 {
			return
		}
		lim := NewBWLimiter(bytesPerSec)
		c.hashFile = func(ctx context.Context, p string) (string, error) {
			return hashFileLimited(ctx, p, lim)
		}
	}
}

// WithContext bounds hashing done outside IndexTree, which takes its own
// context. A cancelled ctx interrupts a throttled read.
func WithContext(ctx context.Context) Option {
	return func(c *Cache) { c.ctx = ctx }
}

// WithSink receives an Indexed event for every file IndexTree visits.
func WithSink(s event.Sink) Option {
	return func(c *Cache) { c.sink = s }
}

// Open opens or creates the cache file at path.
func Open(path string, opts ...Option) (*Cache, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if err := checkAlgorithm(db, "main"); err != nil {
		db.Close()
		return nil, err
	}

	c := &Cache{
		db:        db,
		path:      path,
		batchSize: DefaultBatchSize,
		hashFile:  hashFileCtx,
		ctx:       context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.stats == nil {
		c.stats = stats.NewCollector()
	}
	return c, nil
}

// Path returns the cache file location.
func (c *Cache) Path() string { return c.path }

// Stats returns the counters accumulated since Open.
func (c *Cache) Stats() stats.Snapshot { return c.stats.Snapshot() }

// Close commits any open batch and closes the database.
func (c *Cache) Close() error {
	var commitErr error
	if c.tx != nil {
		commitErr = c.Commit()
	}
	if err := c.db.Close(); err != nil {
		return errs.Cache("close", err)
	}
	return commitErr
}

// Begin starts a batch: every write until Commit lands in one transaction.
// Calling Begin while a batch is open is a no-op.
func (c *Cache) Begin() error {
	if c.tx != nil {
		return nil
	}
	tx, err := c.db.Begin()
	if err != nil {
		return errs.Cache("begin", err)
	}
	c.tx = tx
	return nil
}

// Commit ends the open batch. Without one it does nothing.
func (c *Cache) Commit() error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	if err := tx.Commit(); err != nil {
		return errs.Cache("commit", err)
	}
	return nil
}

func (c *Cache) q() querier {
	if c.tx != nil {
		return c.tx
	}
	return c.db
}

// inTx runs fn inside the open batch, or inside a transaction of its own
// when no batch is open.
func (c *Cache) inTx(fn func(q querier) error) error {
	if c.tx != nil {
		return fn(c.tx)
	}
	tx, err := c.db.Begin()
	if err != nil {
		return errs.Cache("begin", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return errs.Cache("commit", err)
	}
	return nil
}

// HashOf returns the content hash of the regular file at path, consulting
// the cache before reading the file. With moveAware, a cached record for a
// file of the same name, size and mtime in any directory is accepted and
// recorded under the new location.
func (c *Cache) HashOf(path string, moveAware bool) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errs.IO("resolve", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", errs.IO("stat", abs, err)
	}
	if !info.Mode().IsRegular() {
		return "", errs.NotAFile(abs)
	}
	return c.hashOf(c.ctx, abs, info, moveAware)
}

func (c *Cache) hashOf(ctx context.Context, abs string, info fs.FileInfo, moveAware bool) (string, error) {
	dir, name := filepath.Dir(abs), filepath.Base(abs)
	size, ts := info.Size(), Millis(info.ModTime())

	hash, err := c.lookup(
		"SELECT hash FROM files WHERE dir = ? AND name = ? AND size = ? AND timestamp = ?",
		dir, name, size, ts)
	if err != nil || hash != "" {
		return hash, err
	}

	if moveAware {
		hash, err = c.lookup(
			"SELECT hash FROM files WHERE name = ? AND size = ? AND timestamp = ? LIMIT 1",
			name, size, ts)
		if err != nil {
			return "", err
		}
		if hash != "" {
			if err := c.upsert(dir, name, size, ts, hash); err != nil {
				return "", err
			}
			c.stats.AddMoved(1)
			return hash, nil
		}
	}

	hash, err = c.hashFile(ctx, abs)
	if err != nil {
		return "", errs.IO("read", abs, err)
	}
	if err := c.upsert(dir, name, size, ts, hash); err != nil {
		return "", err
	}
	c.stats.AddHashed(1)
	c.stats.AddBytesHashed(size)
	return hash, nil
}

func (c *Cache) lookup(query string, args ...any) (string, error) {
	var hash string
	err := c.q().QueryRow(query, args...).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errs.Cache("lookup", err)
	}
	return hash, nil
}

func (c *Cache) upsert(dir, name string, size int64, ts float64, hash string) error {
	_, err := c.q().Exec(`INSERT INTO files (dir, name, size, timestamp, hash)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (dir, name) DO UPDATE SET
			size = excluded.size, timestamp = excluded.timestamp, hash = excluded.hash`,
		dir, name, size, ts, hash)
	if err != nil {
		return errs.Cache("upsert", err)
	}
	return nil
}

// FilesEqual reports whether a and b are regular files with identical
// size, identical mtime and identical content hash. A path that is not a
// regular file compares unequal.
func (c *Cache) FilesEqual(a, b string, moveAware bool) (bool, error) {
	return c.equal(a, b, moveAware, true)
}

// ContentEqual is FilesEqual without the mtime requirement. Tree
// comparison applies its own time tolerance before asking for content.
func (c *Cache) ContentEqual(a, b string, moveAware bool) (bool, error) {
	return c.equal(a, b, moveAware, false)
}

func (c *Cache) equal(a, b string, moveAware, sameTime bool) (bool, error) {
	ia, absA, err := statRegular(a)
	if err != nil || ia == nil {
		return false, err
	}
	ib, absB, err := statRegular(b)
	if err != nil || ib == nil {
		return false, err
	}
	if ia.Size() != ib.Size() {
		return false, nil
	}
	if sameTime && !ia.ModTime().Equal(ib.ModTime()) {
		return false, nil
	}

	ha, err := c.hashOf(c.ctx, absA, ia, moveAware)
	if err != nil {
		return false, err
	}
	hb, err := c.hashOf(c.ctx, absB, ib, moveAware)
	if err != nil {
		return false, err
	}
	return ha == hb, nil
}

// statRegular returns nil info without error when p exists but is not a
// regular file.
func statRegular(p string) (fs.FileInfo, string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return nil, "", errs.IO("resolve", p, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, "", errs.IO("stat", abs, err)
	}
	if !info.Mode().IsRegular() {
		return nil, abs, nil
	}
	return info, abs, nil
}
