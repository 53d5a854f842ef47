package errors

// Provider and network transience classification used by the importer's
// retry wrapper. Structured codes win; text sniffing is the fallback for
// errors that reach us from foreign HTTP stacks unwrapped.

import (
	"context"
	stderrs "errors"
	"net"
	"strings"
)

// IsTransient reports whether the error looks like a soft failure worth
// retrying after a delay: rate limiting, 5xx-class unavailability, or a
// network hiccup. Aborts and context cancellations are never transient
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if IsAbort(err) {
		return false
	}
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}

	switch CodeOf(err) {
	case ErrorCodeUnavailable, ErrorCodeTooManyRequests:
		return true
	case ErrorCodeUnauthorized, ErrorCodeForbidden, ErrorCodeNotFound,
		ErrorCodeInvalidArgument, ErrorCodeValidation:
		return false
	}

	var nerr net.Error
	if stderrs.As(Root(err), &nerr) {
		return nerr.Timeout()
	}

	s := strings.ToLower(Root(err).Error())
	switch {
	case strings.Contains(s, "connection reset"),
		strings.Contains(s, "connection refused"),
		strings.Contains(s, "unexpected eof"),
		strings.Contains(s, "tls handshake timeout"),
		strings.Contains(s, "temporary failure"),
		strings.Contains(s, "no such host"):
		return true
	default:
		return false
	}
}
