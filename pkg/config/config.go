package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Pipeline defaults
const (
	DefaultBucketWorkers = 4
	DefaultFileWorkers   = 4
)

// Serve defaults
const (
	DefaultListenAddr  = ":8080"
	ServerReadTimeout  = 10 * time.Second
	ServerWriteTimeout = 30 * time.Second
	ShutdownTimeout    = 15 * time.Second
	LivePollInterval   = 2 * time.Second
)

// WebSocket configuration
const (
	WSReadBufferSize  = 1024
	WSWriteBufferSize = 1024
	WSBroadcastBuffer = 64
	WSChannelBuffer   = 8
	WSWriteDeadline   = 10 * time.Second
)

// Config holds everything a run needs, passed explicitly to the driver
// and server. There is no package-level state: two runs with two
// configs can coexist in one process (the tests do exactly that).
type Config struct {
	// InputRoot contains the 10-digit hour-bucket directories.
	InputRoot string
	// OutputRoot receives one <bucketId>.txt summary per bucket.
	OutputRoot string

	// BucketWorkers bounds how many buckets aggregate concurrently.
	BucketWorkers int
	// FileWorkers bounds concurrent files within one bucket.
	FileWorkers int

	// Timeout, when positive, is the overall run deadline.
	Timeout time.Duration

	// CheckpointPath enables the rerun-skip ledger when non-empty.
	CheckpointPath string

	// ListenAddr is the serve command's bind address.
	ListenAddr string

	// Debug switches logging to the human-readable development encoder.
	Debug bool
}

// FromEnv returns a Config seeded from SALESAGG_* environment
// variables, with an optional .env file loaded first. Flags layered on
// top by the CLI take precedence.
func FromEnv() Config {
	// Missing .env is the normal case, not an error.
	_ = godotenv.Load()

	return Config{
		InputRoot:      getenv("SALESAGG_INPUT", "./logs"),
		OutputRoot:     getenv("SALESAGG_OUTPUT", "./output"),
		BucketWorkers:  getenvInt("SALESAGG_BUCKET_WORKERS", DefaultBucketWorkers),
		FileWorkers:    getenvInt("SALESAGG_FILE_WORKERS", DefaultFileWorkers),
		CheckpointPath: os.Getenv("SALESAGG_CHECKPOINT"),
		ListenAddr:     getenv("SALESAGG_ADDR", DefaultListenAddr),
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if c.InputRoot == "" {
		return fmt.Errorf("input root is required")
	}
	if c.OutputRoot == "" {
		return fmt.Errorf("output root is required")
	}
	if c.BucketWorkers < 1 {
		return fmt.Errorf("bucket workers must be >= 1, got %d", c.BucketWorkers)
	}
	if c.FileWorkers < 1 {
		return fmt.Errorf("file workers must be >= 1, got %d", c.FileWorkers)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %v", c.Timeout)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
