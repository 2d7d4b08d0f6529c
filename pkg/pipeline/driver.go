package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nicktill/salesagg/pkg/aggregate"
	"github.com/nicktill/salesagg/pkg/bucket"
	"github.com/nicktill/salesagg/pkg/checkpoint"
	"github.com/nicktill/salesagg/pkg/config"
	"github.com/nicktill/salesagg/pkg/scan"
	"github.com/nicktill/salesagg/pkg/writer"
)

// State is where the driver currently is in its run.
type State int32

const (
	StateIdle State = iota
	StateScanning
	StateProcessing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateProcessing:
		return "processing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Driver orchestrates one aggregation run: scan buckets, aggregate each
// under the configured concurrency bounds, write summaries, report.
// Buckets are independent; one failing never stops the others. A Driver
// is single-use: build one per run.
type Driver struct {
	cfg    config.Config
	log    *zap.Logger
	out    *writer.BucketWriter
	ledger *checkpoint.Ledger // nil disables rerun skipping

	state atomic.Int32
}

// New builds a driver for cfg. ledger may be nil.
func New(cfg config.Config, log *zap.Logger, ledger *checkpoint.Ledger) *Driver {
	if cfg.BucketWorkers < 1 {
		cfg.BucketWorkers = 1
	}
	return &Driver{
		cfg:    cfg,
		log:    log,
		out:    writer.New(cfg.OutputRoot),
		ledger: ledger,
	}
}

// State returns the driver's current phase. Safe to call from any
// goroutine while Run is in flight.
func (d *Driver) State() State {
	return State(d.state.Load())
}

// Run executes the whole pipeline. The only non-nil error is discovery
// failing outright; everything below bucket level is recovered, counted
// and returned in the Report. Cancelling ctx stops new bucket and file
// work from launching; buckets cut short are reported failed, and no
// partial output file is ever left behind (summaries are written
// atomically after a bucket fully aggregates).
func (d *Driver) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	defer d.state.Store(int32(StateDone))

	d.state.Store(int32(StateScanning))
	ids, err := scan.ListBuckets(d.cfg.InputRoot)
	if err != nil {
		return Report{}, err
	}
	d.log.Info("discovered buckets",
		zap.Int("count", len(ids)),
		zap.String("input", d.cfg.InputRoot))

	d.state.Store(int32(StateProcessing))

	var (
		mu     sync.Mutex
		report = Report{BucketsFound: len(ids)}
	)

	g := errgroup.Group{}
	g.SetLimit(d.cfg.BucketWorkers)
	for _, id := range ids {
		g.Go(func() error {
			outcome := d.processBucket(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			report.ParseErrors += outcome.parseErrors
			report.FilesSkipped += outcome.filesSkipped
			switch {
			case outcome.err != nil:
				report.Failed++
				report.Failures = append(report.Failures, BucketFailure{
					Bucket: string(id),
					Reason: outcome.err.Error(),
				})
			case outcome.unchanged:
				report.SkippedUnchanged++
			case outcome.empty:
				report.SkippedEmpty++
			default:
				report.Written++
			}
			return nil
		})
	}
	_ = g.Wait() // bucket outcomes land in the report, never in the group

	report.Duration = time.Since(start)
	d.log.Info("run complete", zap.String("report", report.String()))
	return report, nil
}

// bucketOutcome is the per-bucket result folded into the report.
type bucketOutcome struct {
	err          error
	empty        bool
	unchanged    bool
	parseErrors  int
	filesSkipped int
}

func (d *Driver) processBucket(ctx context.Context, id bucket.ID) bucketOutcome {
	if err := ctx.Err(); err != nil {
		return bucketOutcome{err: err}
	}

	log := d.log.With(zap.String("bucket", string(id)))

	files, err := scan.ListLogFiles(filepath.Join(d.cfg.InputRoot, string(id)))
	if err != nil {
		log.Warn("bucket unreadable", zap.Error(err))
		return bucketOutcome{err: err}
	}

	// Rerun optimization: skip the bucket when its inputs are
	// fingerprint-identical to the last completed run and the summary
	// is still on disk. Any fingerprint trouble means "changed".
	var (
		fp   uint64
		fpOK bool
	)
	if d.ledger != nil && len(files) > 0 {
		if fp, err = checkpoint.Fingerprint(files); err == nil {
			fpOK = true
			if same, lerr := d.ledger.Unchanged(id, fp); lerr == nil && same {
				if _, serr := os.Stat(id.OutputFile(d.cfg.OutputRoot)); serr == nil {
					log.Debug("bucket unchanged since last run")
					return bucketOutcome{unchanged: true}
				}
			}
		}
	}

	res, err := aggregate.AggregateBucket(ctx, id, files, d.cfg.FileWorkers)
	if err != nil {
		log.Warn("bucket aggregation cut short", zap.Error(err))
		return bucketOutcome{err: err}
	}
	for _, ferr := range res.FileErrors {
		log.Warn("log file skipped", zap.Error(ferr))
	}

	outcome := bucketOutcome{
		parseErrors:  res.ParseErrors,
		filesSkipped: len(res.FileErrors),
	}

	if res.Summary.Empty() {
		log.Info("nothing to write",
			zap.Int("files", len(files)),
			zap.Int("parse_errors", res.ParseErrors))
		outcome.empty = true
		return outcome
	}

	if err := d.out.Write(res.Summary); err != nil {
		log.Error("summary write failed", zap.Error(err))
		outcome.err = err
		return outcome
	}

	if d.ledger != nil && fpOK && len(res.FileErrors) == 0 {
		if err := d.ledger.Record(id, fp); err != nil {
			// The summary is already safely written; a ledger hiccup
			// only costs a recomputation next run.
			log.Warn("checkpoint record failed", zap.Error(err))
		}
	}

	log.Info("bucket written",
		zap.Int("files", len(files)),
		zap.Int("products", len(res.Summary.Totals)),
		zap.Int("parse_errors", res.ParseErrors))
	return outcome
}
