// Package eventlog defines the signed-event model the importer publishes:
// templates, signed events, kinds, and the capability seams for signing and
// publishing. The wire shape follows the NIP-01 grammar (id is the sha256 of
// the canonical serialization, created_at is unix seconds).
package eventlog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	perr "forgeport/internal/platform/errors"
)

// Event kinds published by the importer
const (
	KindProfile          = 0
	KindComment          = 1111
	KindPullRequest      = 1618
	KindIssue            = 1621
	KindStatusOpen       = 1630
	KindStatusApplied    = 1631
	KindStatusClosed     = 1632
	KindStatusDraft      = 1633
	KindRepoAnnouncement = 30617
	KindRepoState        = 30618
)

// Tag is a single event tag: a name followed by values
type Tag []string

// Template is an unsigned event. CreatedAt carries the importer's logical
// timestamp, not wall-clock time
type Template struct {
	Kind      int    `json:"kind"`
	CreatedAt int64  `json:"created_at"`
	Tags      []Tag  `json:"tags"`
	Content   string `json:"content"`
}

// Event is a signed event as it goes to the log
type Event struct {
	ID        string `json:"id"`
	Pubkey    string `json:"pubkey"`
	CreatedAt int64  `json:"created_at"`
	Kind      int    `json:"kind"`
	Tags      []Tag  `json:"tags"`
	Content   string `json:"content"`
	Sig       string `json:"sig"`
}

// TagValue returns the first value of the first tag named name, or ""
func (e *Event) TagValue(name string) string {
	for _, t := range e.Tags {
		if len(t) >= 2 && t[0] == name {
			return t[1]
		}
	}
	return ""
}

// ComputeID returns the hex sha256 of the canonical serialization
// [0, pubkey, created_at, kind, tags, content]
func ComputeID(pubkey string, t *Template) (string, error) {
	tags := t.Tags
	if tags == nil {
		tags = []Tag{}
	}
	raw, err := json.Marshal([]any{0, pubkey, t.CreatedAt, t.Kind, tags, t.Content})
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeJSON, "event serialization failed")
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Filter selects events for FetchFunc lookups
type Filter struct {
	Kinds []int               `json:"kinds,omitempty"`
	Tags  map[string][]string `json:"tags,omitempty"`
	Limit int                 `json:"limit,omitempty"`
}

// Signer turns a template into a signed event using the session identity
type Signer interface {
	Sign(ctx context.Context, t *Template) (*Event, error)
}

// Publisher delivers one signed event to the log transport
type Publisher interface {
	Publish(ctx context.Context, ev *Event) error
}

// EventIO combines signing and publishing when the host supplies one handle
type EventIO interface {
	Signer
	Publisher
}

// FetchFunc queries the log for existing events; only the identity bridger
// uses it and it is optional
type FetchFunc func(ctx context.Context, f Filter) ([]Event, error)

// SignFunc adapts a bare callback to Signer
type SignFunc func(ctx context.Context, t *Template) (*Event, error)

// Sign implements Signer
func (f SignFunc) Sign(ctx context.Context, t *Template) (*Event, error) { return f(ctx, t) }

// PublishFunc adapts a bare callback to Publisher
type PublishFunc func(ctx context.Context, ev *Event) error

// Publish implements Publisher
func (f PublishFunc) Publish(ctx context.Context, ev *Event) error { return f(ctx, ev) }

// IOAdapter splits a combined EventIO into the two capability seams so call
// sites never branch on which shape the host provided
type IOAdapter struct{ IO EventIO }

// Sign implements Signer
func (a IOAdapter) Sign(ctx context.Context, t *Template) (*Event, error) { return a.IO.Sign(ctx, t) }

// Publish implements Publisher
func (a IOAdapter) Publish(ctx context.Context, ev *Event) error { return a.IO.Publish(ctx, ev) }
