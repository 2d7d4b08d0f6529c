/*
Package aggregate computes per-product revenue totals for hour buckets
of sales-event logs.

# Input Shape

Each hour bucket is a directory named YYYYMMDDHH containing *.txt log
files. Every line is pipe-delimited:

	timestamp|eventId|productName|price

	2024-11-23T14:00:00|1041|Widget|10.50
	2024-11-23T14:00:02|1042|Gadget|2.00
	2024-11-23T14:00:05|1043|Widget|4.50

# Two Levels of Folding

Aggregation happens in two stages, mirroring the two levels of
parallelism:

	file level (AggregateFile):   one goroutine per file, no sharing
	  Widget -> 15.00, Gadget -> 2.00     (for each file independently)

	bucket level (AggregateBucket): single-threaded merge of file maps
	  Widget -> 27.50, Gadget -> 9.00     (one map for the whole hour)

Each file worker owns its ProductTotals outright, so the only
synchronization in the entire hot path is the merge, which runs after
all workers finish and folds maps in file-index order. Totals are
therefore independent of worker scheduling, with one caveat: float64
addition is not associative, so reruns with a different concurrency
level can differ in the last bits. Everything downstream rounds to two
decimals, which absorbs that variance.

# Error Tolerance

Malformed lines (wrong field count, non-numeric or non-finite price)
are counted and skipped, never fatal. Unreadable files are reported in
BucketResult.FileErrors and their siblings still aggregate. A bucket
with no usable data comes back with an empty summary meaning "write
nothing", not an error.

# Usage

	files, _ := scan.ListLogFiles("logs/2024112314")
	res, err := aggregate.AggregateBucket(ctx, id, files, 4)
	if err != nil {
	    return err // only when ctx was cancelled
	}
	if !res.Summary.Empty() {
	    writer.Write(res.Summary)
	}
*/
package aggregate
