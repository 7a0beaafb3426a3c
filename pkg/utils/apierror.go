package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// APIError is a non-2xx response from the chat backend, carrying the
// server's error envelope when one was present.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error %d", e.Status)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsAuthError reports whether the server rejected the session credential.
func (e *APIError) IsAuthError() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// ErrorFromResponse drains a failed response and decodes its error
// envelope. The body may be empty or non-JSON; the status code alone is
// still meaningful then.
func ErrorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var envelope struct {
		Error string `json:"error"`
	}
	json.Unmarshal(body, &envelope)

	return &APIError{Status: resp.StatusCode, Message: envelope.Error}
}
