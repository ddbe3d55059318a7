// Package analysis runs a meal photo through the configured vision provider
// and degrades to the mock estimator on recoverable upstream failures.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/kamilpajak/nutrilens/internal/vision"
)

// Kind is the closed set of classified failure kinds.
type Kind string

const (
	KindValidation Kind = "ValidationError"
	KindAPI        Kind = "ApiError"
	KindTimeout    Kind = "TimeoutError"
	KindUnknown    Kind = "UnknownError"
)

// Machine-readable error codes carried in failure envelopes.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidAPIKey      = "INVALID_API_KEY"
	CodeModelNotFound      = "MODEL_NOT_FOUND"
	CodeRateLimited        = "RATE_LIMITED"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeProviderTimeout    = "PROVIDER_TIMEOUT"
	CodeUnknown            = "UNKNOWN_ERROR"
)

// ClassifiedError is the normalized form of any failure seen while analyzing
// a photo. Values are created by Classify or Invalid and never mutated.
type ClassifiedError struct {
	Kind      Kind
	Status    int
	Code      string
	Message   string
	Retryable bool
	Details   string

	// Err is the underlying failure, kept for logs and debug output only.
	Err error
}

func (e *ClassifiedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%d %s): %v", e.Kind, e.Status, e.Code, e.Err)
	}
	return fmt.Sprintf("%s (%d %s): %s", e.Kind, e.Status, e.Code, e.Message)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// ValidationFailure reports missing or malformed caller input.
type ValidationFailure struct {
	Message string
}

func (e *ValidationFailure) Error() string {
	return e.Message
}

// Invalid returns a ValidationFailure with the given message.
func Invalid(message string) error {
	return &ValidationFailure{Message: message}
}

// IsValidation reports whether err is, or classifies as, a caller input error.
func IsValidation(err error) bool {
	var vf *ValidationFailure
	if errors.As(err, &vf) {
		return true
	}
	var ce *ClassifiedError
	return errors.As(err, &ce) && ce.Kind == KindValidation
}

// statusCoder is implemented by upstream errors that expose an HTTP status.
type statusCoder interface {
	StatusCode() int
}

// Classify maps an arbitrary error onto the failure taxonomy. It returns nil
// only for a nil error.
func Classify(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}

	var vf *ValidationFailure
	if errors.As(err, &vf) {
		return &ClassifiedError{
			Kind:    KindValidation,
			Status:  http.StatusBadRequest,
			Code:    CodeValidation,
			Message: vf.Message,
			Err:     err,
		}
	}

	var apiErr *vision.APIError
	if errors.As(err, &apiErr) {
		c := fromStatus(apiErr.StatusCode, err)
		c.Details = fmt.Sprintf("%s provider returned HTTP %d", apiErr.Provider, apiErr.StatusCode)
		return c
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		return fromStatus(sc.StatusCode(), err)
	}

	if isTimeout(err) {
		return fromStatus(http.StatusGatewayTimeout, err)
	}

	return fromStatus(http.StatusInternalServerError, err)
}

func fromStatus(status int, err error) *ClassifiedError {
	c := &ClassifiedError{Status: status, Err: err}
	switch status {
	case http.StatusUnauthorized:
		c.Kind, c.Code = KindAPI, CodeInvalidAPIKey
	case http.StatusNotFound:
		c.Kind, c.Code = KindAPI, CodeModelNotFound
	case http.StatusTooManyRequests:
		c.Kind, c.Code, c.Retryable = KindAPI, CodeRateLimited, true
	case http.StatusServiceUnavailable:
		c.Kind, c.Code, c.Retryable = KindAPI, CodeServiceUnavailable, true
	case http.StatusGatewayTimeout:
		c.Kind, c.Code, c.Retryable = KindTimeout, CodeProviderTimeout, true
	default:
		c.Kind, c.Code = KindUnknown, CodeUnknown
		if status < 400 {
			c.Status = http.StatusInternalServerError
		}
	}
	c.Message = UserMessage(c.Status)
	return c
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// fallbackStatuses are the upstream statuses answered with a mock estimate.
// 401 is included so a misconfigured key still yields a usable estimate.
var fallbackStatuses = map[int]bool{
	http.StatusUnauthorized:       true,
	http.StatusNotFound:           true,
	http.StatusTooManyRequests:    true,
	http.StatusServiceUnavailable: true,
	http.StatusGatewayTimeout:     true,
}

// eligibleForFallback reports whether a classified primary failure may be
// retried once against the fallback provider.
func eligibleForFallback(c *ClassifiedError, img *vision.ProcessedImage) bool {
	if c == nil || img == nil || len(img.Data) == 0 {
		return false
	}
	if c.Kind != KindAPI && c.Kind != KindTimeout {
		return false
	}
	return fallbackStatuses[c.Status]
}
