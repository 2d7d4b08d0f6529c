package writer

import (
	"bufio"
	"fmt"
	"os"

	"github.com/nicktill/salesagg/pkg/aggregate"
)

// WriteError means a bucket's summary could not be persisted. The
// bucket is marked failed; other buckets are unaffected.
type WriteError struct {
	Bucket string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write summary for bucket %s: %v", e.Bucket, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// BucketWriter persists finished bucket summaries under a single output
// root. Stateless apart from the root path; the driver guarantees no
// two writes for the same bucket run concurrently.
type BucketWriter struct {
	outRoot string
}

// New returns a writer rooted at outRoot. The directory is created on
// first write, not here, so constructing a writer never touches disk.
func New(outRoot string) *BucketWriter {
	return &BucketWriter{outRoot: outRoot}
}

// Write serializes the summary as one line per product,
// "YYYY/MM/DD HH|product|total", products sorted, totals with exactly
// two decimal places, and replaces any previous file for the bucket.
// The content is staged in a temp file and renamed into place, so a
// crash or cancellation mid-write never leaves a partial summary and a
// rerun over unchanged input is byte-identical.
func (w *BucketWriter) Write(summary aggregate.BucketSummary) error {
	if summary.Empty() {
		// Empty buckets produce no file at all; callers normally skip
		// them before getting here.
		return nil
	}

	if err := os.MkdirAll(w.outRoot, 0o755); err != nil {
		return &WriteError{Bucket: string(summary.ID), Err: err}
	}

	final := summary.ID.OutputFile(w.outRoot)
	tmp, err := os.CreateTemp(w.outRoot, string(summary.ID)+".tmp-*")
	if err != nil {
		return &WriteError{Bucket: string(summary.ID), Err: err}
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name()) // no-op after a successful rename
	}()

	buf := bufio.NewWriter(tmp)
	prefix := summary.ID.DatePrefix()
	for _, product := range summary.Totals.Products() {
		if _, err := fmt.Fprintf(buf, "%s|%s|%.2f\n", prefix, product, summary.Totals[product]); err != nil {
			return &WriteError{Bucket: string(summary.ID), Err: err}
		}
	}
	if err := buf.Flush(); err != nil {
		return &WriteError{Bucket: string(summary.ID), Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &WriteError{Bucket: string(summary.ID), Err: err}
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return &WriteError{Bucket: string(summary.ID), Err: err}
	}
	return nil
}
