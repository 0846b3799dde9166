package compare

import (
	"context"
	"sort"

	"github.com/bamsammich/fwt/internal/errs"
	"github.com/bamsammich/fwt/internal/event"
	"github.com/bamsammich/fwt/internal/hashcache"
)

// RunContent compares the trees by content alone: every file whose hash
// has no counterpart anywhere in the other tree is reported missing on
// that side. Names, locations and attributes are ignored.
func RunContent(ctx context.Context, cfg Config, ix Indexer) (Result, error) {
	left, right, err := roots(cfg.Left, cfg.Right)
	if err != nil {
		return Result{}, err
	}
	if ix == nil {
		return Result{}, errs.Invalid("content comparison needs a hash cache")
	}

	leftFiles, err := ix.IndexTree(ctx, []string{left}, cfg.Filter, cfg.MoveAware)
	if err != nil {
		return Result{}, err
	}
	rightFiles, err := ix.IndexTree(ctx, []string{right}, cfg.Filter, cfg.MoveAware)
	if err != nil {
		return Result{}, err
	}

	var res Result
	if !cfg.NoRight {
		for _, f := range unmatched(leftFiles, rightFiles) {
			res.RightMissing++
			event.Emit(cfg.Sink, event.Event{Type: event.Missing, Path: f.Path, MissingIn: event.Right, Hash: f.Hash, Size: f.Size})
		}
	}
	if !cfg.NoLeft {
		for _, f := range unmatched(rightFiles, leftFiles) {
			res.LeftMissing++
			event.Emit(cfg.Sink, event.Event{Type: event.Missing, Path: f.Path, MissingIn: event.Left, Hash: f.Hash, Size: f.Size})
		}
	}
	return res, nil
}

// unmatched returns the files of a whose hash appears nowhere in b, sorted
// by path.
func unmatched(a, b []hashcache.Indexed) []hashcache.Indexed {
	present := make(map[string]struct{}, len(b))
	for _, f := range b {
		present[f.Hash] = struct{}{}
	}
	var out []hashcache.Indexed
	for _, f := range a {
		if _, ok := present[f.Hash]; !ok {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
