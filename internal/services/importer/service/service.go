// Package service contains the streaming import workflows
package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"forgeport/internal/eventlog"
	"forgeport/internal/modkit"
	"forgeport/internal/modkit/repokit"
	"forgeport/internal/platform/logger"
	"forgeport/internal/services/importer/domain"
	"forgeport/internal/services/importer/repo"
)

// ProviderFactory builds a provider handle for one run's token
type ProviderFactory func(ctx context.Context, token string) domain.Provider

// Config carries runtime knobs for the importer
type Config struct {
	PageSize      int
	BatchSize     int
	BatchDelay    time.Duration
	MaxAttempts   int
	RetryBase     time.Duration
	MinSpacing    time.Duration
	ProgressEvery int
}

func withDefaults(cfg Config) Config {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.BatchDelay <= 0 {
		cfg.BatchDelay = 2 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.MinSpacing <= 0 {
		cfg.MinSpacing = 500 * time.Millisecond
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = 10
	}
	return cfg
}

// Svc implements the importer service. One import may be in flight at a
// time; a second ImportRepository call fails fast with a conflict
type Svc struct {
	deps        modkit.Deps
	config      Config
	newProvider ProviderFactory

	signer    eventlog.Signer
	publisher eventlog.Publisher
	fetch     eventlog.FetchFunc
	progress  domain.ProgressFunc

	archive repo.Archive

	importing atomic.Bool
	current   atomic.Pointer[abortToken]

	mu   sync.Mutex
	last domain.Progress

	log logger.Logger
}

// Option customizes Svc construction
type Option func(*Svc)

// WithProviderFactory overrides the default GitHub provider factory
func WithProviderFactory(f ProviderFactory) Option {
	return func(s *Svc) { s.newProvider = f }
}

// WithEventIO wires a combined sign+publish handle
func WithEventIO(io eventlog.EventIO) Option {
	return func(s *Svc) {
		s.signer = eventlog.IOAdapter{IO: io}
		s.publisher = eventlog.IOAdapter{IO: io}
	}
}

// WithCallbacks wires separate sign and publish callbacks
func WithCallbacks(sign eventlog.SignFunc, publish eventlog.PublishFunc) Option {
	return func(s *Svc) {
		s.signer = sign
		s.publisher = publish
	}
}

// WithEventFetcher wires the optional event-log query used by the identity
// bridger; without it bridging is skipped entirely
func WithEventFetcher(f eventlog.FetchFunc) Option {
	return func(s *Svc) { s.fetch = f }
}

// WithProgress wires the progress stream callback
func WithProgress(p domain.ProgressFunc) Option {
	return func(s *Svc) { s.progress = p }
}

// New constructs the importer service. deps.PG may be nil; the archive sink
// is then disabled
func New(deps modkit.Deps, cfg Config, opts ...Option) *Svc {
	s := &Svc{
		deps:   deps,
		config: withDefaults(cfg),
		log:    *logger.Named("importer"),
	}
	if deps.PG != nil {
		s.archive = repokit.MustBind(repo.NewPG(), deps.PG)
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// AbortImport flags the in-flight run for cooperative cancellation. No-op
// when nothing is running
func (s *Svc) AbortImport(reason string) {
	if tok := s.current.Load(); tok != nil {
		tok.Abort(reason)
	}
}

// Snapshot returns the latest progress tick
func (s *Svc) Snapshot() domain.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Svc) emit(p domain.Progress) {
	s.mu.Lock()
	s.last = p
	s.mu.Unlock()
	if s.progress != nil {
		s.progress(p)
	}
}

var _ domain.ImporterPort = (*Svc)(nil)
