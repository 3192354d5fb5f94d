// Package httpx writes JSON bodies and RFC7807 problem details.
package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ProblemDetail is an RFC7807 problem document.
type ProblemDetail struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

const (
	contentTypeJSON    = "application/json"
	contentTypeProblem = "application/problem+json"
)

// JSON encodes data with the given status.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, contentTypeJSON, data)
}

// Problem writes a problem document for status.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	if title == "" {
		title = http.StatusText(status)
	}
	write(w, status, contentTypeProblem, ProblemDetail{Type: "about:blank", Title: title, Status: status, Detail: detail})
}

// write encodes body before any header is sent. Unencodable bodies become a
// 500 problem.
func write(w http.ResponseWriter, status int, contentType string, body any) {
	payload, err := json.Marshal(body)
	if err != nil {
		slog.Error("encode response body", slog.Int("status", status), slog.Any("error", err))
		status = http.StatusInternalServerError
		contentType = contentTypeProblem
		payload, _ = json.Marshal(ProblemDetail{
			Type:   "about:blank",
			Title:  http.StatusText(status),
			Status: status,
			Detail: "response could not be encoded",
		})
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(append(payload, '\n')); err != nil {
		slog.Debug("write response body", slog.Any("error", err))
	}
}
