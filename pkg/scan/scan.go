package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nicktill/salesagg/pkg/bucket"
)

// DiscoveryError means the input root itself could not be listed. This
// is the only fatal error in the pipeline: without the root there is
// nothing to aggregate.
type DiscoveryError struct {
	Root string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discover buckets under %s: %v", e.Root, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// ListBuckets enumerates the hour-bucket directories under root. Entries
// whose names are not ten decimal digits are filtered out, not reported:
// the input root routinely contains stray files and that is fine.
func ListBuckets(root string) ([]bucket.ID, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, &DiscoveryError{Root: root, Err: err}
	}

	var ids []bucket.ID
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if id, ok := bucket.Parse(entry.Name()); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ListLogFiles returns the paths of the *.txt log files directly inside
// the bucket directory dir. Other files are ignored. An unreadable
// bucket directory is a per-bucket failure, not a run failure, so the
// caller decides how to report the error.
func ListLogFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list log files in %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".txt") {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	return paths, nil
}
