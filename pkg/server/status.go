package server

import (
	"os"
	"strings"
	"sync"
	"time"
)

// OutputStatus describes the summary directory as a whole.
type OutputStatus struct {
	Files        int       `json:"files"`
	Bytes        int64     `json:"bytes"`
	LastModified time.Time `json:"last_modified"`
}

// statusCache avoids rescanning the directory on every poll; dashboards
// refresh aggressively and the answer rarely changes within a second.
type statusCache struct {
	mu      sync.Mutex
	cached  OutputStatus
	checked time.Time
	ttl     time.Duration
}

func (s *Server) outputStatus() (OutputStatus, error) {
	s.status.mu.Lock()
	defer s.status.mu.Unlock()

	if time.Since(s.status.checked) < s.status.ttl {
		return s.status.cached, nil
	}

	status, err := scanOutputDir(s.outputRoot)
	if err != nil {
		return OutputStatus{}, err
	}
	s.status.cached = status
	s.status.checked = time.Now()
	return status, nil
}

func scanOutputDir(dir string) (OutputStatus, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		// An output dir that does not exist yet just means no runs
		// have completed; report it as empty.
		if os.IsNotExist(err) {
			return OutputStatus{}, nil
		}
		return OutputStatus{}, err
	}

	var status OutputStatus
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		status.Files++
		status.Bytes += info.Size()
		if info.ModTime().After(status.LastModified) {
			status.LastModified = info.ModTime()
		}
	}
	return status, nil
}
