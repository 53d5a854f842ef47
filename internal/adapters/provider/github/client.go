// Package github adapts the go-github client to the importer's Provider port
package github

import (
	"context"
	stderrs "errors"
	"net/http"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	perr "forgeport/internal/platform/errors"
	"forgeport/internal/platform/logger"
)

const (
	defaultTimeout = 30 * time.Second

	// ProviderName keys rate limiter spacing, identity maps, and the bridge cache
	ProviderName = "github"
)

// Client implements domain.Provider on top of go-github. Listing methods
// fetch exactly one page; the importer owns the page loop so its rate
// limiter and abort token interleave between pages
type Client struct {
	gh  *gh.Client
	log logger.Logger
}

// New builds a Client authenticated with a static token
func New(ctx context.Context, token string) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = defaultTimeout
	return &Client{
		gh:  gh.NewClient(tc),
		log: *logger.Named("github"),
	}
}

// NewFromHTTP builds a Client from a prepared http.Client (tests)
func NewFromHTTP(httpClient *http.Client) *Client {
	return &Client{
		gh:  gh.NewClient(httpClient),
		log: *logger.Named("github"),
	}
}

// Name implements domain.Provider
func (c *Client) Name() string { return ProviderName }

// ValidateToken confirms the token authenticates and returns the login
func (c *Client) ValidateToken(ctx context.Context) (string, error) {
	u, _, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return "", translate(err, "validate token")
	}
	login := u.GetLogin()
	if login == "" {
		return "", perr.Unauthorizedf("token did not resolve to a user")
	}
	return login, nil
}

// rateLimitedError carries the server-suggested wait so the retry wrapper
// can honor it instead of guessing with exponential backoff
type rateLimitedError struct {
	err   error
	after time.Duration
}

func (e *rateLimitedError) Error() string { return e.err.Error() }

func (e *rateLimitedError) Unwrap() error { return e.err }

// RetryAfter implements domain.RetryAfterHinter
func (e *rateLimitedError) RetryAfter() time.Duration { return e.after }

// translate maps go-github failures onto project error codes
func translate(err error, op string) error {
	if err == nil {
		return nil
	}

	var rle *gh.RateLimitError
	if stderrs.As(err, &rle) {
		wrapped := perr.Wrapf(err, perr.ErrorCodeTooManyRequests, "github %s rate limited", op)
		return &rateLimitedError{err: wrapped, after: time.Until(rle.Rate.Reset.Time)}
	}
	var arle *gh.AbuseRateLimitError
	if stderrs.As(err, &arle) {
		wrapped := perr.Wrapf(err, perr.ErrorCodeTooManyRequests, "github %s secondary rate limited", op)
		var after time.Duration
		if arle.RetryAfter != nil {
			after = *arle.RetryAfter
		}
		return &rateLimitedError{err: wrapped, after: after}
	}

	var ghErr *gh.ErrorResponse
	if stderrs.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusUnauthorized:
			return perr.Wrapf(err, perr.ErrorCodeUnauthorized, "github %s unauthorized", op)
		case http.StatusForbidden:
			return perr.Wrapf(err, perr.ErrorCodeForbidden, "github %s forbidden", op)
		case http.StatusNotFound, http.StatusGone:
			return perr.Wrapf(err, perr.ErrorCodeNotFound, "github %s not found", op)
		case http.StatusUnprocessableEntity:
			return perr.Wrapf(err, perr.ErrorCodeValidation, "github %s rejected", op)
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusInternalServerError:
			return perr.Wrapf(err, perr.ErrorCodeUnavailable, "github %s transient server error", op)
		}
	}

	return perr.Wrapf(err, perr.ErrorCodeUnavailable, "github %s failed", op)
}

// parseIssueNumber pulls the trailing issue number from an issue API URL,
// e.g. .../repos/o/r/issues/42
func parseIssueNumber(issueURL string) int {
	idx := strings.LastIndex(issueURL, "/")
	if idx < 0 || idx+1 >= len(issueURL) {
		return 0
	}
	n := 0
	for _, ch := range issueURL[idx+1:] {
		if ch < '0' || ch > '9' {
			return 0
		}
		n = n*10 + int(ch-'0')
	}
	return n
}
