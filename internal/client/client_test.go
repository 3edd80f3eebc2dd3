//go:build unit

package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient returns a client pointed at the mock server
func newTestClient(serverURL, token string) *GitLabClient {
	return NewGitLabClient(Options{
		BaseURL: serverURL,
		APIPath: "/api/v4",
		Token:   token,
	})
}

// TestGitLabClient_CreateIssue tests GitLab issue creation
func TestGitLabClient_CreateIssue(t *testing.T) {
	tests := []struct {
		name             string
		project          string
		expectedPath     string
		gitlabToken      string
		mockResponseCode int
		mockResponseBody string
		expectedError    string
		expectSuccess    bool
	}{
		{
			name:             "successful issue creation",
			project:          "123",
			expectedPath:     "/api/v4/projects/123/issues",
			gitlabToken:      "test-token",
			mockResponseCode: 201,
			mockResponseBody: `{"id": 456, "iid": 10, "project_id": 123, "title": "Test Issue", "description": "Test description", "web_url": "https://gitlab.com/group/project/issues/10"}`,
			expectSuccess:    true,
		},
		{
			name:             "namespaced project path is escaped",
			project:          "group/project",
			expectedPath:     "/api/v4/projects/group%2Fproject/issues",
			gitlabToken:      "test-token",
			mockResponseCode: 201,
			mockResponseBody: `{"id": 456, "iid": 10, "project_id": 123, "title": "Test Issue", "description": "Test description", "web_url": "https://gitlab.com/group/project/issues/10"}`,
			expectSuccess:    true,
		},
		{
			name:             "GitLab API error response",
			project:          "123",
			expectedPath:     "/api/v4/projects/123/issues",
			gitlabToken:      "test-token",
			mockResponseCode: 400,
			mockResponseBody: `{"message": {"title": ["can't be blank"]}}`,
			expectedError:    "received non-success status code: 400",
			expectSuccess:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, tt.expectedPath, r.URL.EscapedPath())
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.Equal(t, tt.gitlabToken, r.Header.Get("PRIVATE-TOKEN"))

				var requestBody map[string]interface{}
				err := json.NewDecoder(r.Body).Decode(&requestBody)
				require.NoError(t, err)

				assert.Equal(t, "Test Issue", requestBody["title"])
				assert.Equal(t, "Test description", requestBody["description"])

				w.WriteHeader(tt.mockResponseCode)
				_, _ = w.Write([]byte(tt.mockResponseBody))
			}))
			defer mockServer.Close()

			client := newTestClient(mockServer.URL, tt.gitlabToken)
			issue, err := client.CreateIssue(context.Background(), tt.project, IssueRequest{
				Title:       "Test Issue",
				Description: "Test description",
			})

			if tt.expectSuccess {
				require.NoError(t, err)
				require.NotNil(t, issue)
				assert.Equal(t, 456, issue.ID)
				assert.Equal(t, 10, issue.IID)
				assert.Equal(t, "https://gitlab.com/group/project/issues/10", issue.WebURL)
			} else {
				assert.Error(t, err)
				assert.Nil(t, issue)
				assert.Contains(t, err.Error(), tt.expectedError)

				var apiErr *ApiError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.mockResponseCode, apiErr.Code)
				assert.NotNil(t, apiErr.JSON)
			}
		})
	}
}

func TestGitLabClient_MissingToken(t *testing.T) {
	called := false
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer mockServer.Close()

	client := newTestClient(mockServer.URL, "")
	_, err := client.GetProject(context.Background(), "123")

	assert.ErrorIs(t, err, ErrMissingToken)
	assert.False(t, called, "no request should be sent without a token")
}

// TestGitLabClient_GetIssue tests fetching a single issue
func TestGitLabClient_GetIssue(t *testing.T) {
	tests := []struct {
		name             string
		mockResponseCode int
		mockResponseBody string
		expectUnauth     bool
		expectSuccess    bool
	}{
		{
			name:             "issue found",
			mockResponseCode: 200,
			mockResponseBody: `{"id": 900, "iid": 7, "project_id": 42, "title": "Crash", "description": "boom", "web_url": "https://gitlab.com/g/p/issues/7", "state": "opened"}`,
			expectSuccess:    true,
		},
		{
			name:             "issue not found",
			mockResponseCode: 404,
			mockResponseBody: `{"message": "404 Not found"}`,
		},
		{
			name:             "invalid token",
			mockResponseCode: 401,
			mockResponseBody: `{"message": "401 Unauthorized"}`,
			expectUnauth:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/api/v4/projects/42/issues/7", r.URL.Path)

				w.WriteHeader(tt.mockResponseCode)
				_, _ = w.Write([]byte(tt.mockResponseBody))
			}))
			defer mockServer.Close()

			client := newTestClient(mockServer.URL, "test-token")
			issue, err := client.GetIssue(context.Background(), "42", "7")

			if tt.expectSuccess {
				require.NoError(t, err)
				assert.Equal(t, 7, issue.IID)
				assert.Equal(t, "boom", issue.Description)
				assert.Equal(t, "opened", issue.State)
				return
			}

			var apiErr *ApiError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.mockResponseCode, apiErr.Code)
			assert.Equal(t, tt.expectUnauth, apiErr.IsUnauthorized())
		})
	}
}

func TestGitLabClient_GetProject(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v4/projects/42", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"id": 42, "name": "p", "name_with_namespace": "G / p", "path_with_namespace": "g/p"}`))
	}))
	defer mockServer.Close()

	project, err := newTestClient(mockServer.URL, "test-token").GetProject(context.Background(), "42")

	require.NoError(t, err)
	assert.Equal(t, 42, project.ID)
	assert.Equal(t, "g/p", project.PathWithNamespace)
	assert.Equal(t, "G / p", project.NameWithNamespace)
}

func TestGitLabClient_SearchGroupProjects(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v4/groups/my-group/projects", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("simple"))
		assert.Equal(t, "true", r.URL.Query().Get("include_subgroups"))
		assert.Equal(t, "api", r.URL.Query().Get("search"))
		_, _ = w.Write([]byte(`[{"id": 1, "name_with_namespace": "my-group / api"}, {"id": 2, "name_with_namespace": "my-group / api-docs"}]`))
	}))
	defer mockServer.Close()

	projects, err := newTestClient(mockServer.URL, "test-token").SearchGroupProjects(context.Background(), "my-group", "api", true)

	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, 2, projects[1].ID)
	assert.Equal(t, "my-group / api-docs", projects[1].NameWithNamespace)
}

func TestGitLabClient_SearchIssues(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v4/projects/42/issues", r.URL.Path)
		assert.Equal(t, "all", r.URL.Query().Get("scope"))
		assert.Empty(t, r.URL.Query().Get("search"))
		_, _ = w.Write([]byte(`[{"id": 900, "iid": 7, "project_id": 42, "title": "Crash"}]`))
	}))
	defer mockServer.Close()

	issues, err := newTestClient(mockServer.URL, "test-token").SearchIssues(context.Background(), "42", "")

	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, 42, issues[0].ProjectID)
}

func TestGitLabClient_TransportFailure(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := mockServer.URL
	mockServer.Close()

	_, err := newTestClient(serverURL, "test-token").GetProject(context.Background(), "42")

	var apiErr *ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, apiErr.Code)
	assert.Contains(t, err.Error(), "error sending request")
}

func TestGitLabClient_UndecodableResponse(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer mockServer.Close()

	_, err := newTestClient(mockServer.URL, "test-token").GetProject(context.Background(), "42")

	var apiErr *ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, err.Error(), "error decoding response")
}

func TestApiError_Error(t *testing.T) {
	assert.Equal(t, "received non-success status code: 502", (&ApiError{Code: 502}).Error())
	assert.Equal(t, "received non-success status code: 404: nope", newAPIError(404, []byte("nope")).Error())
	assert.Nil(t, newAPIError(404, []byte("nope")).JSON)

	cause := errors.New("dial tcp: refused")
	err := &ApiError{Err: cause}
	assert.ErrorIs(t, err, cause)
}
