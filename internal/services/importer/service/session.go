package service

import (
	"time"

	"github.com/google/uuid"

	"forgeport/internal/eventlog"
	"forgeport/internal/services/importer/domain"
)

// session is the per-run working state. It lives on one goroutine; only the
// publish fan-out touches it concurrently and that is confined to failed,
// which is guarded in the publisher
type session struct {
	runID    string
	provider domain.Provider
	ref      domain.RepoRef // parsed source repo; every listing call fetches from here
	cfg      domain.Config
	login    string

	repo     domain.RepoMeta // publish target; the fork when the run forked
	repoAddr string          // "30617:<pubkey>:<d>" address of the announcement

	// event id maps feed the threading tags of later stages
	issueEvents   map[int]string
	pullEvents    map[int]string
	commentEvents map[int64]string

	// one keypair and one profile event per platform user
	profiles      map[string]eventlog.Keypair
	profileEvents map[string]*eventlog.Event

	// identity bridge cache, positive and negative
	bridged    map[string]string
	bridgeMiss map[string]bool

	// logical clock: strictly increasing created_at values that stay behind
	// wall-clock time so relays accept the whole run in order
	clock int64

	pacer *pacer

	queue []*eventlog.Event

	issues   int
	pulls    int
	comments int
	failed   int64 // touched atomically by the publish fan-out
}

func newSession(provider domain.Provider, ref domain.RepoRef, cfg domain.Config, now time.Time) *session {
	return &session{
		runID:         uuid.NewString(),
		provider:      provider,
		ref:           ref,
		cfg:           cfg,
		issueEvents:   make(map[int]string),
		pullEvents:    make(map[int]string),
		commentEvents: make(map[int64]string),
		profiles:      make(map[string]eventlog.Keypair),
		profileEvents: make(map[string]*eventlog.Event),
		bridged:       make(map[string]string),
		bridgeMiss:    make(map[string]bool),
		clock:         now.Unix() - 3600,
	}
}

// nextTimestamp advances the logical clock by one second per event
func (s *session) nextTimestamp() int64 {
	s.clock++
	return s.clock
}
