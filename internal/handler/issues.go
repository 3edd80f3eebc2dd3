package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"gitlab-issue-bridge/internal/repository"
	"gitlab-issue-bridge/internal/service"
)

// maxBodyBytes bounds submitted form payloads
const maxBodyBytes = 1 << 20

// IssueHandlerImpl implements IssueHandler interface
type IssueHandlerImpl struct {
	issues service.IssueService
	writer ResponseWriter
}

// NewIssueHandler creates a new issue handler instance
func NewIssueHandler(issues service.IssueService, writer ResponseWriter) *IssueHandlerImpl {
	return &IssueHandlerImpl{
		issues: issues,
		writer: writer,
	}
}

// HandleGroupIntegration serves form configs (GET), issue creation (POST)
// and issue linking (PUT) for one group and installation
func (h *IssueHandlerImpl) HandleGroupIntegration(w http.ResponseWriter, r *http.Request) {
	org := r.PathValue("org_slug")
	groupID, ok1 := pathID(r, "group_id")
	integrationID, ok2 := pathID(r, "integration_id")
	if !ok1 || !ok2 {
		_ = h.writer.WriteError(w, "Not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		query := r.URL.Query()
		params := make(map[string]string, len(query))
		for key := range query {
			if key != "action" {
				params[key] = query.Get(key)
			}
		}

		fields, err := h.issues.GetConfig(r.Context(), org, groupID, integrationID, query.Get("action"), params)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		_ = h.writer.WriteJSON(w, http.StatusOK, fields)

	case http.MethodPost:
		var data service.CreateIssueData
		if !h.decodeBody(w, r, &data) {
			return
		}

		linked, err := h.issues.CreateIssue(r.Context(), org, groupID, integrationID, data)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		_ = h.writer.WriteJSON(w, http.StatusCreated, linked)

	case http.MethodPut:
		var data service.LinkIssueData
		if !h.decodeBody(w, r, &data) {
			return
		}

		linked, err := h.issues.LinkIssue(r.Context(), org, groupID, integrationID, data)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		_ = h.writer.WriteJSON(w, http.StatusCreated, linked)

	default:
		w.Header().Set("Allow", "GET, POST, PUT")
		_ = h.writer.WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleSearch serves the autocomplete endpoint used by the forms
func (h *IssueHandlerImpl) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		_ = h.writer.WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	integrationID, ok := pathID(r, "integration_id")
	if !ok {
		_ = h.writer.WriteError(w, "Not found", http.StatusNotFound)
		return
	}

	query := r.URL.Query()
	choices, err := h.issues.Search(r.Context(), r.PathValue("org_slug"), integrationID,
		query.Get("field"), query.Get("query"), query.Get("project"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	_ = h.writer.WriteJSON(w, http.StatusOK, choices)
}

// HandleExternalIssues lists the issues linked to a group
func (h *IssueHandlerImpl) HandleExternalIssues(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		_ = h.writer.WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	groupID, ok := pathID(r, "group_id")
	if !ok {
		_ = h.writer.WriteError(w, "Not found", http.StatusNotFound)
		return
	}

	linked, err := h.issues.ListLinkedIssues(r.Context(), r.PathValue("org_slug"), groupID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	_ = h.writer.WriteJSON(w, http.StatusOK, linked)
}

// decodeBody parses the JSON request body, answering 400 when it cannot
func (h *IssueHandlerImpl) decodeBody(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	defer func() { _ = r.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		_ = h.writer.WriteError(w, "Error reading request body", http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(body, out); err != nil {
		_ = h.writer.WriteError(w, "Error parsing JSON payload", http.StatusBadRequest)
		return false
	}
	return true
}

// writeServiceError maps service errors to HTTP responses
func (h *IssueHandlerImpl) writeServiceError(w http.ResponseWriter, err error) {
	var integrationErr *service.IntegrationError
	switch {
	case errors.As(err, &integrationErr):
		_ = h.writer.WriteError(w, integrationErr.Message, http.StatusBadRequest)
	case errors.Is(err, repository.ErrNotFound):
		_ = h.writer.WriteError(w, "Not found", http.StatusNotFound)
	default:
		slog.Error("Request failed", "error", err)
		_ = h.writer.WriteError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
