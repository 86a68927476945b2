package config

import (
	"os"
	"strings"
	"time"
)

// WorkerConfig controls the comment counter consumer. It only runs when
// NATS_URL is set.
type WorkerConfig struct {
	CommentCounts bool
	BatchSize     int
	BatchInterval time.Duration
}

func LoadWorker() WorkerConfig {
	enabled := true
	if v := strings.TrimSpace(os.Getenv("COMMENT_COUNTS_ENABLED")); v != "" {
		enabled = v != "0" && !strings.EqualFold(v, "false")
	}
	ms := parseIntWithDefault(os.Getenv("WORKER_BATCH_INTERVAL_MS"), 2000)
	return WorkerConfig{
		CommentCounts: enabled,
		BatchSize:     parseIntWithDefault(os.Getenv("WORKER_BATCH_SIZE"), 100),
		BatchInterval: time.Duration(ms) * time.Millisecond,
	}
}
