package client

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ApiError is returned for every failed GitLab API call. Code is the HTTP
// status, or 0 when the request never got a response.
type ApiError struct {
	Code int
	Body string
	JSON map[string]any
	Err  error
}

// newAPIError builds an ApiError from a response body, decoding it when it
// holds a JSON object.
func newAPIError(code int, body []byte) *ApiError {
	e := &ApiError{Code: code, Body: string(body)}
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err == nil {
		e.JSON = parsed
	}
	return e
}

func (e *ApiError) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("error sending request: %v", e.Err)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Body == "" {
		return fmt.Sprintf("received non-success status code: %d", e.Code)
	}
	return fmt.Sprintf("received non-success status code: %d: %s", e.Code, e.Body)
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether GitLab rejected the access token
func (e *ApiError) IsUnauthorized() bool {
	return e.Code == http.StatusUnauthorized
}
