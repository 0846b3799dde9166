package hashcache

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// NewBWLimiter creates a rate.Limiter that caps hashing reads to
// bytesPerSec. The burst is 1 MB so a full chunk passes in one wait.
func NewBWLimiter(bytesPerSec int64) *rate.Limiter {
	burst := 1 << 20 // 1 MB
	if bytesPerSec < int64(burst) {
		burst = int(bytesPerSec)
	}
	return rate.NewLimiter(rate.Limit(bytesPerSec), burst)
}

// limitedReader throttles reads through a shared limiter.
type limitedReader struct {
	ctx     context.Context
	r       io.Reader
	limiter *rate.Limiter
}

func (lr *limitedReader) Read(p []byte) (int, error) {
	n, err := lr.r.Read(p)
	// WaitN rejects requests larger than the burst.
	for left := n; left > 0; {
		step := min(left, lr.limiter.Burst())
		if waitErr := lr.limiter.WaitN(lr.ctx, step); waitErr != nil {
			return n, waitErr
		}
		left -= step
	}
	return n, err
}
