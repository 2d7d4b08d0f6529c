// Package checkpoint remembers which buckets have already been
// aggregated so a rerun can skip the ones whose input has not changed.
//
// The ledger is keyed by bucket id and stores an xxhash fingerprint of
// the bucket's input files (name, size, mtime). It is strictly an
// optimization: deleting the ledger, or running without one, only costs
// recomputation, never correctness, because the writer is idempotent.
package checkpoint

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"

	"github.com/nicktill/salesagg/pkg/bucket"
)

const keyPrefix = "bucket/"

// Ledger is a small BadgerDB keeping one entry per completed bucket.
type Ledger struct {
	db *badger.DB
}

// Open opens (or creates) a ledger at path.
func Open(path string) (*Ledger, error) {
	return open(badger.DefaultOptions(path))
}

// OpenInMemory opens an ephemeral ledger, for tests.
func OpenInMemory() (*Ledger, error) {
	return open(badger.DefaultOptions("").WithInMemory(true))
}

func open(opts badger.Options) (*Ledger, error) {
	// The ledger holds a few bytes per bucket; trim badger's defaults
	// way down so it never competes with the aggregation for memory.
	opts = opts.
		WithMemTableSize(8 << 20).
		WithNumMemtables(2).
		WithBlockCacheSize(4 << 20).
		WithIndexCacheSize(2 << 20).
		WithNumVersionsToKeep(1).
		WithNumCompactors(2).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint ledger: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close flushes and closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Fingerprint hashes the names, sizes and mtimes of the given files
// into a single value. Paths are sorted first so the result does not
// depend on directory listing order. Any stat failure fails the whole
// fingerprint; the caller then treats the bucket as changed.
func Fingerprint(files []string) (uint64, error) {
	sorted := make([]string, len(files))
	copy(sorted, files)
	sort.Strings(sorted)

	digest := xxhash.New()
	for _, path := range sorted {
		info, err := os.Stat(path)
		if err != nil {
			return 0, fmt.Errorf("fingerprint %s: %w", path, err)
		}
		digest.WriteString(path)
		digest.WriteString("\x00")
		digest.WriteString(strconv.FormatInt(info.Size(), 10))
		digest.WriteString("\x00")
		digest.WriteString(strconv.FormatInt(info.ModTime().UnixNano(), 10))
		digest.WriteString("\x00")
	}
	return digest.Sum64(), nil
}

// Unchanged reports whether id was previously recorded with exactly
// this fingerprint.
func (l *Ledger) Unchanged(id bucket.ID, fp uint64) (bool, error) {
	var stored uint64
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("corrupt ledger entry for %s", id)
			}
			stored = binary.BigEndian.Uint64(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read checkpoint for %s: %w", id, err)
	}
	return stored == fp, nil
}

// Record stores fp as the last-completed fingerprint for id.
func (l *Ledger) Record(id bucket.ID, fp uint64) error {
	val := make([]byte, 8)
	binary.BigEndian.PutUint64(val, fp)
	err := l.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(id), val)
	})
	if err != nil {
		return fmt.Errorf("record checkpoint for %s: %w", id, err)
	}
	return nil
}

func key(id bucket.ID) []byte {
	return []byte(keyPrefix + string(id))
}
