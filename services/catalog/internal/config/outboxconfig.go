package config

import (
	"os"
	"strings"
	"time"
)

type OutboxConfig struct {
	// NATSURL empty disables the relay, the event consumer and the cache
	// invalidation broadcast.
	NATSURL      string
	BatchSize    int
	PollInterval time.Duration
}

func LoadOutbox() OutboxConfig {
	return OutboxConfig{
		NATSURL:      strings.TrimSpace(os.Getenv("NATS_URL")),
		BatchSize:    parseIntWithDefault(os.Getenv("OUTBOX_BATCH_SIZE"), 100),
		PollInterval: parseDurationWithDefault(os.Getenv("OUTBOX_POLL_INTERVAL"), 2*time.Second),
	}
}
