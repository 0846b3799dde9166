package hashcache

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
	"golang.org/x/time/rate"
)

// Algorithm names the digest recorded in the cache meta table.
const Algorithm = "blake3"

// chunkSize bounds memory use while hashing regardless of file size.
const chunkSize = 1 << 20

// HashFile computes the BLAKE3 hash of the file at path, returning the
// hex-encoded digest.
func HashFile(path string) (string, error) {
	return hashFileLimited(context.Background(), path, nil)
}

func hashFileCtx(ctx context.Context, path string) (string, error) {
	return hashFileLimited(ctx, path, nil)
}

// hashFileLimited is HashFile with reads throttled by limiter when it is
// non-nil. Cancelling ctx aborts a read waiting on the limiter.
func hashFileLimited(ctx context.Context, path string, limiter *rate.Limiter) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if limiter != nil {
		r = &limitedReader{ctx: ctx, r: f, limiter: limiter}
	}

	h := blake3.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
