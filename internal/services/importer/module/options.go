package module

import (
	"time"

	"forgeport/internal/platform/config"
)

// Options controls importer behavior. Values may also be read from env
type Options struct {
	PageSize      int
	BatchSize     int
	BatchDelay    time.Duration
	MaxAttempts   int
	RetryBase     time.Duration
	MinSpacing    time.Duration
	ProgressEvery int
}

// FromConfig reads options using IMPORTER_ prefix
func FromConfig(cfg config.Conf) Options {
	im := cfg.Prefix("IMPORTER_")
	return Options{
		PageSize:      im.MayInt("PAGE_SIZE", 100),
		BatchSize:     im.MayInt("BATCH_SIZE", 50),
		BatchDelay:    im.MayDuration("BATCH_DELAY", 2*time.Second),
		MaxAttempts:   im.MayInt("MAX_ATTEMPTS", 5),
		RetryBase:     im.MayDuration("RETRY_BASE", 500*time.Millisecond),
		MinSpacing:    im.MayDuration("MIN_SPACING", 500*time.Millisecond),
		ProgressEvery: im.MayInt("PROGRESS_EVERY", 10),
	}
}
