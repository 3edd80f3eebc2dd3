package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gitlab-issue-bridge/internal/client"
)

// User-facing messages
const (
	ErrUnauthorizedMessage = "Unauthorized: either your access token was invalid or you do not have access"
	ErrInternalMessage     = "An internal error occurred with the integration"
)

const providerName = "GitLab"

// IntegrationError is the user-facing error for anything that went wrong
// talking to GitLab or with the submitted form.
type IntegrationError struct {
	Message string
	Err     error
}

func (e *IntegrationError) Error() string {
	return e.Message
}

func (e *IntegrationError) Unwrap() error {
	return e.Err
}

func newIntegrationError(message string) *IntegrationError {
	return &IntegrationError{Message: message}
}

// MessageFromError renders a GitLab failure for display
func MessageFromError(err error) string {
	var apiErr *client.ApiError
	if !errors.As(err, &apiErr) {
		return ErrInternalMessage
	}
	if apiErr.IsUnauthorized() {
		return ErrUnauthorizedMessage
	}
	return fmt.Sprintf("Error Communicating with %s (HTTP %d): %s", providerName, apiErr.Code, errorMessageFromJSON(apiErr.JSON))
}

// errorMessageFromJSON extracts the reason from a GitLab error body. GitLab
// sends either {"message": "..."}, {"message": {"field": ["..."]}} or
// {"error": "..."}.
func errorMessageFromJSON(body map[string]any) string {
	switch msg := body["message"].(type) {
	case string:
		if msg != "" {
			return msg
		}
	case map[string]any:
		if out := flattenFieldErrors(msg); out != "" {
			return out
		}
	}
	if msg, ok := body["error"].(string); ok && msg != "" {
		return msg
	}
	return "unknown error"
}

func flattenFieldErrors(fields map[string]any) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		switch v := fields[name].(type) {
		case []any:
			reasons := make([]string, 0, len(v))
			for _, r := range v {
				reasons = append(reasons, fmt.Sprint(r))
			}
			parts = append(parts, name+": "+strings.Join(reasons, ", "))
		default:
			parts = append(parts, fmt.Sprintf("%s: %v", name, v))
		}
	}
	return strings.Join(parts, "; ")
}

// wrapClientError turns GitLab API failures into IntegrationErrors and
// passes everything else through.
func wrapClientError(err error, op string) error {
	var apiErr *client.ApiError
	if errors.As(err, &apiErr) {
		return &IntegrationError{Message: MessageFromError(err), Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
