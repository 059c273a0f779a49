// Package fetch implements the listing and detail page fetch
// collaborators on top of colly, classifying failures into the
// categories the run engine reacts to.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrRateLimited indicates the upstream answered 429 Too Many Requests.
type ErrRateLimited struct {
	Err error
}

func (e ErrRateLimited) Error() string {
	return fmt.Errorf("rate_limited: %w", e.Err).Error()
}

func (e ErrRateLimited) Unwrap() error {
	return e.Err
}

// ErrFatalHTTP indicates a non-success HTTP response that is not
// worth retrying.
type ErrFatalHTTP struct {
	Status int
	Err    error
}

func (e ErrFatalHTTP) Error() string {
	return fmt.Errorf("fatal_http %d: %w", e.Status, e.Err).Error()
}

func (e ErrFatalHTTP) Unwrap() error {
	return e.Err
}

// ErrTransient indicates a connectivity or timeout failure that may
// succeed on a later attempt.
type ErrTransient struct {
	Err error
}

func (e ErrTransient) Error() string {
	return fmt.Errorf("transient: %w", e.Err).Error()
}

func (e ErrTransient) Unwrap() error {
	return e.Err
}

// Classify maps a raw fetch error and HTTP status to the taxonomy the
// engine understands.
func Classify(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if statusCode == http.StatusTooManyRequests {
		if err == nil {
			err = fmt.Errorf("http status %d", statusCode)
		}
		return ErrRateLimited{Err: err}
	}
	if statusCode >= http.StatusBadRequest {
		if err == nil {
			err = fmt.Errorf("http status %d", statusCode)
		}
		return ErrFatalHTTP{Status: statusCode, Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTransient{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTransient{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrTransient{Err: err}
	}

	if err == nil {
		return nil
	}
	return ErrTransient{Err: err}
}

// Label returns the metrics label for a classified error.
func Label(err error) string {
	if err == nil {
		return "none"
	}
	var rateLimited ErrRateLimited
	if errors.As(err, &rateLimited) {
		return "rate_limited"
	}
	var fatal ErrFatalHTTP
	if errors.As(err, &fatal) {
		return "fatal_http"
	}
	var transient ErrTransient
	if errors.As(err, &transient) {
		return "transient"
	}
	return "other"
}

// IsRateLimited reports whether err carries a 429 classification.
func IsRateLimited(err error) bool {
	var rateLimited ErrRateLimited
	return errors.As(err, &rateLimited)
}

// IsFatal reports whether err is a terminal HTTP failure.
func IsFatal(err error) bool {
	var fatal ErrFatalHTTP
	return errors.As(err, &fatal)
}
