package pipeline

import (
	"fmt"
	"time"
)

// BucketFailure records why one bucket did not produce a summary.
type BucketFailure struct {
	Bucket string `json:"bucket"`
	Reason string `json:"reason"`
}

// Report is the driver's final accounting. Every discovered bucket is
// counted exactly once across Written, SkippedEmpty, SkippedUnchanged
// and Failed, so operators can tell "no data" apart from "data lost".
type Report struct {
	BucketsFound     int             `json:"buckets_found"`
	Written          int             `json:"written"`
	SkippedEmpty     int             `json:"skipped_empty"`
	SkippedUnchanged int             `json:"skipped_unchanged"`
	Failed           int             `json:"failed"`
	ParseErrors      int             `json:"parse_errors"`
	FilesSkipped     int             `json:"files_skipped"`
	Failures         []BucketFailure `json:"failures,omitempty"`
	Duration         time.Duration   `json:"duration_ns"`
}

// OK reports whether every bucket was either written or legitimately
// skipped.
func (r Report) OK() bool { return r.Failed == 0 }

func (r Report) String() string {
	return fmt.Sprintf(
		"buckets=%d written=%d skipped_empty=%d skipped_unchanged=%d failed=%d parse_errors=%d files_skipped=%d in %v",
		r.BucketsFound, r.Written, r.SkippedEmpty, r.SkippedUnchanged,
		r.Failed, r.ParseErrors, r.FilesSkipped, r.Duration.Round(time.Millisecond),
	)
}
