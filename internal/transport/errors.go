package transport

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNetworkUnavailable reports that no response was received (status 0).
	ErrNetworkUnavailable = errors.New("network unavailable")
	// ErrTimeout reports that the request outlived the request timeout.
	ErrTimeout = errors.New("request timed out")
)

// StatusError is an HTTP-level failure: rate limiting or a server error.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http status %d", e.Status)
	}
	return fmt.Sprintf("http status %d: %s", e.Status, e.Message)
}

// IsRateLimited reports whether the server asked the client to slow down.
func (e *StatusError) IsRateLimited() bool {
	return e.Status == http.StatusTooManyRequests
}

// IsServerError reports a 5xx status.
func (e *StatusError) IsServerError() bool {
	return e.Status >= 500
}

// CheckStatus converts a response carrying a rate-limit or server-error status
// into a *StatusError. Other statuses, including other 4xx, pass through.
func CheckStatus(resp *Response) error {
	if resp == nil {
		return nil
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &StatusError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return nil
}

// Severity grades a user-visible notification.
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeveritySuccess:
		return "success"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Classification is the user-facing rendering of a transport failure.
type Classification struct {
	Message  string
	Severity Severity
}

// Classify maps an error from the taxonomy onto a notification. ok is false
// for errors outside the taxonomy, which are not surfaced.
func Classify(err error) (Classification, bool) {
	if err == nil {
		return Classification{}, false
	}
	var se *StatusError
	switch {
	case errors.As(err, &se) && se.IsRateLimited():
		return Classification{Message: "Too many requests, please wait a moment", Severity: SeverityWarning}, true
	case errors.As(err, &se) && se.IsServerError():
		return Classification{Message: "Server error, please try again", Severity: SeverityError}, true
	case errors.Is(err, ErrTimeout):
		return Classification{Message: "Request timed out", Severity: SeverityError}, true
	case errors.Is(err, ErrNetworkUnavailable):
		return Classification{Message: "Network error, check your connection", Severity: SeverityError}, true
	}
	return Classification{}, false
}
