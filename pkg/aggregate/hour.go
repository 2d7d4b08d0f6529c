package aggregate

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/nicktill/salesagg/pkg/bucket"
)

// BucketSummary is the finished aggregate for one hour bucket. Immutable
// once returned; the writer only reads it.
type BucketSummary struct {
	ID     bucket.ID
	Totals ProductTotals
}

// Empty reports whether the bucket produced no records at all, meaning
// no output file should be written.
func (s BucketSummary) Empty() bool { return len(s.Totals) == 0 }

// BucketResult carries the summary plus the diagnostics the driver
// reports: total malformed lines and any files that could not be read.
type BucketResult struct {
	Summary     BucketSummary
	ParseErrors int
	FileErrors  []error
}

// fileResult is one worker's output slot.
type fileResult struct {
	totals      ProductTotals
	parseErrors int
	err         error
}

// AggregateBucket fans AggregateFile out over the bucket's files, at
// most fileWorkers at a time, then merges the per-file maps. Per-file
// read failures land in BucketResult.FileErrors and never abort their
// siblings. The only error returned is ctx's, when the run deadline
// cuts the bucket short; nothing is written for such a bucket.
func AggregateBucket(ctx context.Context, id bucket.ID, files []string, fileWorkers int) (BucketResult, error) {
	if fileWorkers < 1 {
		fileWorkers = 1
	}

	results := make([]fileResult, len(files))

	g := errgroup.Group{}
	g.SetLimit(fileWorkers)
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			totals, parseErrors, err := AggregateFile(path)
			results[i] = fileResult{totals: totals, parseErrors: parseErrors, err: err}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors, failures stay in their slot

	if err := ctx.Err(); err != nil {
		return BucketResult{}, err
	}

	// Merge is the single synchronization point. Each key's final total
	// is a sum over per-file sums, so the result does not depend on
	// which worker finished first (beyond float addition order).
	res := BucketResult{Summary: BucketSummary{ID: id, Totals: make(ProductTotals)}}
	for _, fr := range results {
		if fr.err != nil {
			res.FileErrors = append(res.FileErrors, fr.err)
			continue
		}
		res.Summary.Totals.Merge(fr.totals)
		res.ParseErrors += fr.parseErrors
	}
	return res, nil
}
