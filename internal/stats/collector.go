package stats

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Collector tracks hash cache activity for one invocation using atomic
// counters.
type Collector struct {
	hashed      atomic.Int64
	moved       atomic.Int64
	purged      atomic.Int64
	imported    atomic.Int64
	remapped    atomic.Int64
	deleted     atomic.Int64
	failed      atomic.Int64
	bytesHashed atomic.Int64
	startTime   time.Time
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	Hashed      int64
	Moved       int64
	Purged      int64
	Imported    int64
	Remapped    int64
	Deleted     int64
	Failed      int64
	BytesHashed int64
	Elapsed     time.Duration
}

func (c *Collector) AddHashed(n int64)      { c.hashed.Add(n) }
func (c *Collector) AddMoved(n int64)       { c.moved.Add(n) }
func (c *Collector) AddPurged(n int64)      { c.purged.Add(n) }
func (c *Collector) AddImported(n int64)    { c.imported.Add(n) }
func (c *Collector) AddRemapped(n int64)    { c.remapped.Add(n) }
func (c *Collector) AddDeleted(n int64)     { c.deleted.Add(n) }
func (c *Collector) AddFailed(n int64)      { c.failed.Add(n) }
func (c *Collector) AddBytesHashed(n int64) { c.bytesHashed.Add(n) }

// Snapshot returns a consistent point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Hashed:      c.hashed.Load(),
		Moved:       c.moved.Load(),
		Purged:      c.purged.Load(),
		Imported:    c.imported.Load(),
		Remapped:    c.remapped.Load(),
		Deleted:     c.deleted.Load(),
		Failed:      c.failed.Load(),
		BytesHashed: c.bytesHashed.Load(),
		Elapsed:     time.Since(c.startTime),
	}
}

// String renders the index summary line.
func (s Snapshot) String() string {
	return fmt.Sprintf("%d new, %d moved, %d removed.", s.Hashed, s.Moved, s.Purged+s.Deleted)
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
