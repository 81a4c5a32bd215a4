package problems

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"

	"payrouter/pkg/connectors"
)

// Base returns the base URL for problem type identifiers.
// PROBLEM_BASE_URL wins over BASE_PUBLIC_URL + "/problems".
func Base() string {
	if b := os.Getenv("PROBLEM_BASE_URL"); b != "" {
		return strings.TrimRight(b, "/")
	}
	if b := os.Getenv("BASE_PUBLIC_URL"); b != "" {
		return strings.TrimRight(b, "/") + "/problems"
	}
	return "https://payrouter.dev/problems"
}

// Type builds a full problem type URL for the given slug.
func Type(slug string) string { return Base() + "/" + slug }

// Problem is an RFC 7807 body.
type Problem struct {
	Type   string         `json:"type"`
	Title  string         `json:"title"`
	Status int            `json:"status"`
	Detail string         `json:"detail,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// Write sends a problem+json response.
func Write(w http.ResponseWriter, status int, slug, title, detail string) {
	WriteProblem(w, Problem{Type: Type(slug), Title: title, Status: status, Detail: detail})
}

func WriteProblem(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// FromConnectorError maps a pipeline failure to a problem. Connector-side
// rejections are not problems; they travel inside the attempt result.
func FromConnectorError(err error) Problem {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, connectors.ErrNotImplemented), errors.Is(err, connectors.ErrWebhooksNotImplemented):
		status = http.StatusNotImplemented
	case errors.Is(err, connectors.ErrMissingRequiredField), errors.Is(err, connectors.ErrProcessingStepFailed):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, connectors.ErrInvalidConnectorName), errors.Is(err, connectors.ErrRequestEncodingFailed):
		status = http.StatusBadRequest
	case errors.Is(err, connectors.ErrFailedToObtainAuthType):
		status = http.StatusConflict
	case errors.Is(err, connectors.ErrResponseDeserializationFailed), errors.Is(err, connectors.ErrTransport):
		status = http.StatusBadGateway
	}
	code := "INTERNAL_ERROR"
	if ce, ok := connectors.AsConnectorError(err); ok {
		code = ce.Code()
	}
	return Problem{
		Type:   Type(strings.ReplaceAll(strings.ToLower(code), "_", "-")),
		Title:  http.StatusText(status),
		Status: status,
		Detail: err.Error(),
		Extra:  map[string]any{"code": code, "retryable": connectors.IsRetryable(err)},
	}
}
