package aggregate

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nicktill/salesagg/pkg/bucket"
)

const floatTol = 1e-6

func writeLog(t *testing.T, dir, name string, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAggregateFile(t *testing.T) {
	path := writeLog(t, t.TempDir(), "f.txt",
		"2024-11-23T14:00:00|1|Widget|10.50\n"+
			"2024-11-23T14:05:00|2|Widget|4.50\n"+
			"2024-11-23T14:06:00|3|Gadget|2.00\n")

	totals, parseErrors, err := AggregateFile(path)
	if err != nil {
		t.Fatalf("AggregateFile: %v", err)
	}
	if parseErrors != 0 {
		t.Errorf("parseErrors = %d, want 0", parseErrors)
	}
	if math.Abs(totals["Widget"]-15.0) > floatTol {
		t.Errorf("Widget total = %v, want 15.0", totals["Widget"])
	}
	if math.Abs(totals["Gadget"]-2.0) > floatTol {
		t.Errorf("Gadget total = %v, want 2.0", totals["Gadget"])
	}
}

func TestAggregateFile_MalformedLinesCountedAndSkipped(t *testing.T) {
	// N valid + M malformed must yield exactly the N valid lines' totals
	// and an error count of exactly M.
	path := writeLog(t, t.TempDir(), "f.txt",
		"t|1|Widget|1.00\n"+
			"garbage\n"+
			"t|2|Widget|2.00\n"+
			"t|3|Widget|not-a-price\n"+
			"a|b|c|d|e\n"+
			"t|4|Gadget|0.50\n")

	totals, parseErrors, err := AggregateFile(path)
	if err != nil {
		t.Fatalf("AggregateFile: %v", err)
	}
	if parseErrors != 3 {
		t.Errorf("parseErrors = %d, want 3", parseErrors)
	}
	if math.Abs(totals["Widget"]-3.0) > floatTol {
		t.Errorf("Widget total = %v, want 3.0", totals["Widget"])
	}
	if len(totals) != 2 {
		t.Errorf("totals has %d products, want 2", len(totals))
	}
}

func TestAggregateFile_MissingFile(t *testing.T) {
	_, _, err := AggregateFile(filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestMerge_DisjointAndOverlapping(t *testing.T) {
	a := ProductTotals{"Widget": 10, "Gadget": 5}
	b := ProductTotals{"Widget": 2.5, "Gizmo": 1}

	merged := make(ProductTotals)
	merged.Merge(a)
	merged.Merge(b)

	if math.Abs(merged["Widget"]-12.5) > floatTol {
		t.Errorf("Widget = %v, want 12.5", merged["Widget"])
	}
	if merged["Gadget"] != 5 || merged["Gizmo"] != 1 {
		t.Errorf("disjoint keys not preserved: %v", merged)
	}
}

func TestProducts_Sorted(t *testing.T) {
	totals := ProductTotals{"b": 1, "a": 1, "c": 1, "B": 1}
	got := totals.Products()
	want := []string{"B", "a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Products() = %v, want %v", got, want)
		}
	}
}

func TestAggregateBucket_MergesFiles(t *testing.T) {
	dir := t.TempDir()
	f1 := writeLog(t, dir, "a.txt", "t|1|Widget|1.00\nt|2|Gadget|2.00\n")
	f2 := writeLog(t, dir, "b.txt", "t|3|Widget|0.50\nbroken\n")

	id, _ := bucket.Parse("2024112314")
	res, err := AggregateBucket(context.Background(), id, []string{f1, f2}, 4)
	if err != nil {
		t.Fatalf("AggregateBucket: %v", err)
	}
	if res.Summary.ID != id {
		t.Errorf("Summary.ID = %v", res.Summary.ID)
	}
	if math.Abs(res.Summary.Totals["Widget"]-1.5) > floatTol {
		t.Errorf("Widget = %v, want 1.5", res.Summary.Totals["Widget"])
	}
	if res.ParseErrors != 1 {
		t.Errorf("ParseErrors = %d, want 1", res.ParseErrors)
	}
	if len(res.FileErrors) != 0 {
		t.Errorf("FileErrors = %v, want none", res.FileErrors)
	}
}

func TestAggregateBucket_UnreadableFileSkipped(t *testing.T) {
	dir := t.TempDir()
	f1 := writeLog(t, dir, "a.txt", "t|1|Widget|1.00\n")
	missing := filepath.Join(dir, "missing.txt")

	id, _ := bucket.Parse("2024112314")
	res, err := AggregateBucket(context.Background(), id, []string{f1, missing}, 2)
	if err != nil {
		t.Fatalf("AggregateBucket: %v", err)
	}
	if len(res.FileErrors) != 1 {
		t.Fatalf("FileErrors = %v, want exactly one", res.FileErrors)
	}
	if math.Abs(res.Summary.Totals["Widget"]-1.0) > floatTol {
		t.Errorf("surviving file's totals lost: %v", res.Summary.Totals)
	}
}

func TestAggregateBucket_NoFiles(t *testing.T) {
	id, _ := bucket.Parse("2024112314")
	res, err := AggregateBucket(context.Background(), id, nil, 2)
	if err != nil {
		t.Fatalf("AggregateBucket: %v", err)
	}
	if !res.Summary.Empty() {
		t.Errorf("expected empty summary, got %v", res.Summary.Totals)
	}
}

func TestAggregateBucket_AllFilesFail(t *testing.T) {
	dir := t.TempDir()
	id, _ := bucket.Parse("2024112314")
	res, err := AggregateBucket(context.Background(), id,
		[]string{filepath.Join(dir, "x.txt"), filepath.Join(dir, "y.txt")}, 2)
	if err != nil {
		t.Fatalf("AggregateBucket: %v", err)
	}
	if !res.Summary.Empty() {
		t.Error("all-failed bucket must come back empty")
	}
	if len(res.FileErrors) != 2 {
		t.Errorf("FileErrors = %d, want 2", len(res.FileErrors))
	}
}

func TestAggregateBucket_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	f := writeLog(t, dir, "a.txt", "t|1|Widget|1.00\n")

	id, _ := bucket.Parse("2024112314")
	if _, err := AggregateBucket(ctx, id, []string{f}, 1); err == nil {
		t.Fatal("expected context error")
	}
}

func TestAggregateBucket_ConcurrencyIndependence(t *testing.T) {
	// Same totals whether files run one at a time or all at once.
	dir := t.TempDir()
	var files []string
	lines := []string{
		"t|1|Widget|1.25\nt|2|Gadget|3.00\n",
		"t|3|Widget|2.75\n",
		"t|4|Gizmo|0.10\nt|5|Widget|4.00\n",
		"t|6|Gadget|1.00\nbad line\n",
	}
	for i, content := range lines {
		files = append(files, writeLog(t, dir, fmt.Sprintf("f%d.txt", i), content))
	}

	id, _ := bucket.Parse("2024112314")
	serial, err := AggregateBucket(context.Background(), id, files, 1)
	if err != nil {
		t.Fatal(err)
	}
	parallel, err := AggregateBucket(context.Background(), id, files, len(files))
	if err != nil {
		t.Fatal(err)
	}

	if serial.ParseErrors != parallel.ParseErrors {
		t.Errorf("parse errors differ: %d vs %d", serial.ParseErrors, parallel.ParseErrors)
	}
	for product, total := range serial.Summary.Totals {
		if math.Abs(parallel.Summary.Totals[product]-total) > floatTol {
			t.Errorf("%s: serial %v, parallel %v", product, total, parallel.Summary.Totals[product])
		}
	}
	if len(serial.Summary.Totals) != len(parallel.Summary.Totals) {
		t.Errorf("product sets differ")
	}
}

func TestAggregateBucket_DeadlineDoesNotHang(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dir := t.TempDir()
	f := writeLog(t, dir, "a.txt", "t|1|Widget|1.00\n")
	id, _ := bucket.Parse("2024112314")
	if _, err := AggregateBucket(ctx, id, []string{f}, 2); err != nil {
		t.Fatalf("AggregateBucket under generous deadline: %v", err)
	}
}
