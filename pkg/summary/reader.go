// Package summary is the read side of the output-file contract: it
// consumes the directory of per-hour summary files the pipeline writes,
// the same way the downstream sales dashboard does. Rows are the
// 3-field schema the writer emits (datetime|product|total).
package summary

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nicktill/salesagg/pkg/bucket"
)

// Row is one line of one summary file.
type Row struct {
	Bucket   bucket.ID `json:"bucket"`
	DateTime string    `json:"datetime"` // "YYYY/MM/DD HH" as written
	Product  string    `json:"product"`
	Total    float64   `json:"total"`
}

// Filter restricts reading to summary files whose filename date
// (the first 8 characters, YYYYMMDD) falls in [Start, End]. Zero
// values leave that end open.
type Filter struct {
	Start string // "YYYYMMDD"
	End   string // "YYYYMMDD"
}

func (f Filter) matches(day string) bool {
	if f.Start != "" && day < f.Start {
		return false
	}
	if f.End != "" && day > f.End {
		return false
	}
	return true
}

// ReadDir loads every matching summary file under dir. Files that are
// not named like a bucket id, and lines that do not fit the schema,
// are skipped the way the dashboard skips them: readers of a shared
// directory tolerate strangers. A missing directory is an error; an
// empty one is an empty result.
func ReadDir(dir string, f Filter) ([]Row, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read summary dir %s: %w", dir, err)
	}

	var rows []Row
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		id, ok := bucket.Parse(strings.TrimSuffix(entry.Name(), ".txt"))
		if !ok {
			continue
		}
		if !f.matches(id.Day()) {
			continue
		}
		fileRows, err := readFile(filepath.Join(dir, entry.Name()), id)
		if err != nil {
			return nil, err
		}
		rows = append(rows, fileRows...)
	}
	return rows, nil
}

func readFile(path string, id bucket.ID) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open summary file %s: %w", path, err)
	}
	defer file.Close()

	var rows []Row
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "|")
		if len(fields) != 3 {
			continue
		}
		total, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			continue
		}
		rows = append(rows, Row{
			Bucket:   id,
			DateTime: fields[0],
			Product:  fields[1],
			Total:    total,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read summary file %s: %w", path, err)
	}
	return rows, nil
}
