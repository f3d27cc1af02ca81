package twitter

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTransport matches every network or HTTP failure (see APIError).
	ErrTransport = errors.New("transport error")

	// ErrMalformedResponse means the payload lacked the expected structure.
	// Callers must not assume server state changed.
	ErrMalformedResponse = errors.New("malformed response")
)

// APIError is a failed call: either the request never completed (Err set)
// or the server answered with a non-200 status.
type APIError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Twitter API request to %s failed: %v", e.Endpoint, e.Err)
	}
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return "Twitter API authentication failed - please run 'tweetmix auth' to store valid credentials"
	case http.StatusForbidden:
		return fmt.Sprintf("Twitter API refused %s - check your app permissions", e.Endpoint)
	case http.StatusNotFound:
		return fmt.Sprintf("Twitter API resource not found (%s)", e.Endpoint)
	case http.StatusTooManyRequests:
		return "Twitter API rate limit exceeded - please try again later"
	case http.StatusServiceUnavailable:
		return "Twitter API temporarily unavailable - please try again in a few minutes"
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusGatewayTimeout:
		return "Twitter API server error - please try again later"
	default:
		return fmt.Sprintf("Twitter API error (status %d) - please try again", e.StatusCode)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) Is(target error) bool { return target == ErrTransport }
