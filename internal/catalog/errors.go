package catalog

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrFetchFailure is the root of every listing failure other than not-found.
// Callers surface it as a single "try again later" notification.
var ErrFetchFailure = errors.New("error fetching from catalog")

// ErrInvalidBaseURL is returned by NewClient for an unusable base URL.
var ErrInvalidBaseURL = errors.New("catalog base URL must be an absolute http(s) URL")

// StatusError records a non-success HTTP status returned by the API.
// It unwraps to ErrFetchFailure.
type StatusError struct {
	Code int
	URL  string
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: GET %s returned %d %s",
		ErrFetchFailure.Error(), e.URL, e.Code, http.StatusText(e.Code))
}

// Unwrap lets errors.Is match ErrFetchFailure.
func (e *StatusError) Unwrap() error {
	return ErrFetchFailure
}

// IsFetchFailure reports whether err came from a failed catalog request.
func IsFetchFailure(err error) bool {
	return errors.Is(err, ErrFetchFailure)
}
