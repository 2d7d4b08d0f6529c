package aggregate

import (
	"bufio"
	"fmt"
	"os"

	"github.com/nicktill/salesagg/pkg/parse"
)

// Long lines are garbage by definition in this format, but they must
// not kill the scanner for the rest of the file.
const maxLineBytes = 1024 * 1024

// AggregateFile streams one log file through the parser and folds every
// valid record into a fresh ProductTotals. Malformed lines are counted
// in parseErrors and skipped. A non-nil error means the file itself
// could not be read; the caller reports it and moves on to siblings.
func AggregateFile(path string) (totals ProductTotals, parseErrors int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open log file %s: %w", path, err)
	}
	defer f.Close()

	totals = make(ProductTotals)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		rec, perr := parse.ParseLine(line)
		if perr != nil {
			parseErrors++
			continue
		}
		totals.Add(rec.ProductName, rec.Price)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file %s: %w", path, err)
	}

	return totals, parseErrors, nil
}
