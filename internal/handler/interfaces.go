package handler

import (
	"net/http"
)

// IssueHandler defines the HTTP surface of the issue integration
type IssueHandler interface {
	// HandleGroupIntegration serves form configs (GET), issue creation (POST)
	// and issue linking (PUT) for one group and installation
	HandleGroupIntegration(w http.ResponseWriter, r *http.Request)

	// HandleSearch serves the autocomplete endpoint used by the forms
	HandleSearch(w http.ResponseWriter, r *http.Request)

	// HandleExternalIssues lists the issues linked to a group
	HandleExternalIssues(w http.ResponseWriter, r *http.Request)
}

// ResponseWriter wraps HTTP response writing functionality
type ResponseWriter interface {
	// WriteJSON writes payload as a JSON document with the given status
	WriteJSON(w http.ResponseWriter, statusCode int, payload interface{}) error

	// WriteError writes an error response with appropriate status code
	WriteError(w http.ResponseWriter, message string, statusCode int) error
}
