package mastodon

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrAccountNotFound is returned by the resolver when the remote server
// definitively does not know a handle.
var ErrAccountNotFound = errors.New("account not found")

var errBodyTooLarge = errors.New("response body too large")

// FetchError is a final, non-retryable failure of a request: a non-2xx
// status, an application error body, or a body that is not valid JSON.
type FetchError struct {
	URL     string
	Status  int
	Body    string
	Message string

	malformed bool
}

func (e *FetchError) Error() string {
	switch {
	case e.malformed:
		return fmt.Sprintf("malformed response from %s (status %d)", e.URL, e.Status)
	case e.Message != "":
		return fmt.Sprintf("fetch %s: status %d: %s", e.URL, e.Status, e.Message)
	default:
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	}
}

// Malformed reports whether the body could not be parsed as JSON.
func (e *FetchError) Malformed() bool {
	return e.malformed
}

// NetworkError wraps a transport-level failure.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a FetchError with status 404.
func IsNotFound(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Status == http.StatusNotFound
}
