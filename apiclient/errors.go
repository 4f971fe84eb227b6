package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/go-rag-admin/internal/errors"
)

// HTTPError is returned for any response outside the 2xx range.
type HTTPError struct {
	StatusCode int
	Method     string
	Path       string
	Body       []byte
	Attempt    Attempt
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if detail := e.Detail(); detail != "" {
		msg += ": " + detail
	}
	return msg
}

// Detail returns the server's error message from a {"detail": ...} or {"message": ...}
// body, or the raw body when it is short plain text.
func (e *HTTPError) Detail() string {
	var parsed struct {
		Detail  any    `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(e.Body, &parsed); err == nil {
		switch d := parsed.Detail.(type) {
		case string:
			return d
		case []any:
			// validation errors: [{"loc": [...], "msg": "..."}]
			var msgs []string
			for _, item := range d {
				if m, ok := item.(map[string]any); ok {
					if s, ok := m["msg"].(string); ok {
						msgs = append(msgs, s)
					}
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
		return parsed.Message
	}
	text := strings.TrimSpace(string(e.Body))
	if len(text) > 200 {
		return ""
	}
	return text
}

// Unwrap maps well-known statuses onto the package sentinels.
func (e *HTTPError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return apperrors.ErrNotFound
	case http.StatusForbidden:
		return apperrors.ErrForbidden
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperrors.ErrInvalidRequest
	}
	return nil
}

// IsStatus reports whether err carries an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == code
}
