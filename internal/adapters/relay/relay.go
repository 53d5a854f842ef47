// Package relay delivers signed events to event-log relays over HTTP
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"forgeport/internal/eventlog"
	perr "forgeport/internal/platform/errors"
	"forgeport/internal/platform/logger"
)

const defaultTimeout = 15 * time.Second

// Client fans events out to a set of relays. Publish succeeds when at least
// one relay accepts the event
type Client struct {
	urls []string
	http *http.Client
	log  logger.Logger
}

// New constructs a relay client for the given base URLs
func New(urls []string) *Client {
	return &Client{
		urls: normalize(urls),
		http: &http.Client{Timeout: defaultTimeout},
		log:  *logger.Named("relay"),
	}
}

// NewFromHTTP constructs a relay client with a custom http client for tests
func NewFromHTTP(urls []string, hc *http.Client) *Client {
	return &Client{urls: normalize(urls), http: hc, log: *logger.Named("relay")}
}

func normalize(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSuffix(strings.TrimSpace(u), "/")
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}

// Publish sends one signed event to every relay
func (c *Client) Publish(ctx context.Context, ev *eventlog.Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "event encode failed")
	}

	var lastErr error
	accepted := 0
	for _, u := range c.urls {
		if err := c.post(ctx, u+"/events", raw); err != nil {
			c.log.Debug().Err(err).Str("relay", u).Str("event_id", ev.ID).Msg("relay rejected event")
			lastErr = err
			continue
		}
		accepted++
	}
	if accepted == 0 {
		return perr.Wrapf(lastErr, perr.ErrorCodeUnavailable, "no relay accepted event %s", ev.ID)
	}
	return nil
}

// Fetch queries relays for events matching the filter; the first relay that
// answers wins
func (c *Client) Fetch(ctx context.Context, f eventlog.Filter) ([]eventlog.Event, error) {
	raw, err := json.Marshal(f)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "filter encode failed")
	}

	var lastErr error
	for _, u := range c.urls {
		events, err := c.query(ctx, u+"/query", raw)
		if err != nil {
			lastErr = err
			continue
		}
		return events, nil
	}
	return nil, perr.Wrap(lastErr, perr.ErrorCodeUnavailable, "no relay answered query")
}

func (c *Client) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return perr.Unavailablef("relay returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func (c *Client) query(ctx context.Context, url string, body []byte) ([]eventlog.Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, perr.Unavailablef("relay query returned %d", resp.StatusCode)
	}
	var events []eventlog.Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "relay query decode failed")
	}
	return events, nil
}
