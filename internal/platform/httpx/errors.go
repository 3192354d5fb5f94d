package httpx

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrValidation marks malformed request input.
var ErrValidation = errors.New("validation failed")

// StatusError attaches an HTTP status and problem title to an error.
type StatusError struct {
	Status int
	Title  string
	// Detail is shown to the client. Empty hides the underlying error.
	Detail string
	Err    error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d %s: %v", e.Status, e.Title, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

// Status builds a StatusError.
func Status(status int, title, detail string, err error) *StatusError {
	return &StatusError{Status: status, Title: title, Detail: detail, Err: err}
}

// StatusOf resolves the status, title and detail to report for err.
func StatusOf(err error) (int, string, string) {
	var se *StatusError
	if errors.As(err, &se) {
		title := se.Title
		if title == "" {
			title = http.StatusText(se.Status)
		}
		return se.Status, title, se.Detail
	}
	if errors.Is(err, ErrValidation) {
		return http.StatusBadRequest, "Validation Failed", err.Error()
	}
	return http.StatusInternalServerError, "Internal Error", ""
}

// RespondError maps errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	status, title, detail := StatusOf(err)
	Problem(w, status, title, detail)
}
