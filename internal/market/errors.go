package market

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/farmiq/farmiq/pkg/errors"
)

// DefaultRetryAfter is the retry hint in seconds when the upstream omits Retry-After.
const DefaultRetryAfter = 60

// ErrorKind classifies upstream failures.
type ErrorKind string

const (
	KindRateLimited ErrorKind = "rate_limited"
	KindServer      ErrorKind = "server_error"
	KindClient      ErrorKind = "client_error"
	KindTimeout     ErrorKind = "timeout"
	KindInternal    ErrorKind = "internal"
)

// UpstreamError describes a failed call to the pricing API.
type UpstreamError struct {
	Kind ErrorKind
	// Status is the upstream HTTP status, zero when no response was received.
	Status int
	// RetryAfter is only set for KindRateLimited.
	RetryAfter int
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := "market upstream " + string(e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// statusError classifies a non-2xx upstream response.
func statusError(resp *http.Response, now time.Time) *UpstreamError {
	status := resp.StatusCode
	switch {
	case status == http.StatusTooManyRequests:
		return &UpstreamError{
			Kind:       KindRateLimited,
			Status:     status,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), now),
		}
	case status >= 500:
		return &UpstreamError{Kind: KindServer, Status: status}
	default:
		return &UpstreamError{Kind: KindClient, Status: status}
	}
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(value string, now time.Time) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return DefaultRetryAfter
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return seconds
	}
	if at, err := http.ParseTime(value); err == nil {
		if wait := int(at.Sub(now).Round(time.Second) / time.Second); wait > 0 {
			return wait
		}
		return 0
	}
	return DefaultRetryAfter
}

// ToAppError maps a market failure to the error rendered to API callers.
func ToAppError(err error) *appErrors.AppError {
	if err == nil {
		return nil
	}

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		return appErrors.ErrMarketInternal.WithInternal(err)
	}

	switch upstream.Kind {
	case KindRateLimited:
		return appErrors.ErrUpstreamRateLimited.WithInternal(err).WithRetryAfter(upstream.RetryAfter)
	case KindServer:
		return appErrors.ErrUpstreamUnavailable.WithInternal(err)
	case KindClient:
		return appErrors.ErrUpstreamFailed.WithInternal(err)
	case KindTimeout:
		return appErrors.ErrUpstreamTimeout.WithInternal(err)
	default:
		return appErrors.ErrMarketInternal.WithInternal(err)
	}
}
