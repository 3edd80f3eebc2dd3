package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrMissingToken is returned before any request is sent when the
// installation has no access token.
var ErrMissingToken = errors.New("GitLab access token not configured")

// Options configures a GitLab client for one installation
type Options struct {
	BaseURL string // e.g. https://gitlab.example.com
	APIPath string // e.g. /api/v4
	Token   string
	SkipTLS bool
	Timeout time.Duration
}

// GitLabClient implements IssueTracker against the GitLab REST API
type GitLabClient struct {
	httpClient *http.Client
	apiURL     string
	token      string
}

// NewGitLabClient creates a new GitLab client instance
func NewGitLabClient(opts Options) *GitLabClient {
	slog.Debug("Initializing GitLab client",
		"base_url", opts.BaseURL,
		"skip_tls", opts.SkipTLS,
		"token_configured", opts.Token != "",
	)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	// Create HTTP client with timeout
	httpClient := &http.Client{
		Timeout: timeout,
	}

	// Configure TLS if needed
	if opts.SkipTLS {
		slog.Warn("TLS verification disabled for GitLab client", "base_url", opts.BaseURL)
		httpClient.Transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		}
	}

	apiPath := opts.APIPath
	if apiPath == "" {
		apiPath = "/api/v4"
	}

	return &GitLabClient{
		httpClient: httpClient,
		apiURL:     strings.TrimRight(opts.BaseURL, "/") + "/" + strings.Trim(apiPath, "/"),
		token:      opts.Token,
	}
}

// CreateIssue creates a new issue in the given project
func (g *GitLabClient) CreateIssue(ctx context.Context, project string, data IssueRequest) (*Issue, error) {
	slog.Debug("Creating GitLab issue",
		"project", project,
		"title", data.Title,
		"description_length", len(data.Description),
	)

	var issue Issue
	path := "/projects/" + url.PathEscape(project) + "/issues"
	if err := g.do(ctx, http.MethodPost, path, nil, data, &issue); err != nil {
		return nil, err
	}

	slog.Info("GitLab issue created", "project", project, "iid", issue.IID, "web_url", issue.WebURL)
	return &issue, nil
}

// GetIssue fetches a single issue by its project-scoped number
func (g *GitLabClient) GetIssue(ctx context.Context, projectID, issueNum string) (*Issue, error) {
	slog.Debug("Fetching GitLab issue", "project_id", projectID, "issue", issueNum)

	var issue Issue
	path := "/projects/" + url.PathEscape(projectID) + "/issues/" + url.PathEscape(issueNum)
	if err := g.do(ctx, http.MethodGet, path, nil, nil, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// GetProject fetches a project by numeric id or namespaced path
func (g *GitLabClient) GetProject(ctx context.Context, projectID string) (*Project, error) {
	slog.Debug("Fetching GitLab project", "project_id", projectID)

	var project Project
	path := "/projects/" + url.PathEscape(projectID)
	if err := g.do(ctx, http.MethodGet, path, nil, nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// SearchGroupProjects lists projects of a group matching query
func (g *GitLabClient) SearchGroupProjects(ctx context.Context, groupID, query string, includeSubgroups bool) ([]Project, error) {
	slog.Debug("Searching GitLab group projects",
		"group_id", groupID,
		"query", query,
		"include_subgroups", includeSubgroups,
	)

	params := url.Values{}
	params.Set("simple", "true")
	params.Set("include_subgroups", strconv.FormatBool(includeSubgroups))
	if query != "" {
		params.Set("search", query)
	}

	var projects []Project
	path := "/groups/" + url.PathEscape(groupID) + "/projects"
	if err := g.do(ctx, http.MethodGet, path, params, nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// SearchIssues lists issues of a project matching query
func (g *GitLabClient) SearchIssues(ctx context.Context, projectID, query string) ([]Issue, error) {
	slog.Debug("Searching GitLab issues", "project_id", projectID, "query", query)

	params := url.Values{}
	params.Set("scope", "all")
	if query != "" {
		params.Set("search", query)
	}

	var issues []Issue
	path := "/projects/" + url.PathEscape(projectID) + "/issues"
	if err := g.do(ctx, http.MethodGet, path, params, nil, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

// do sends an authenticated request and decodes a successful JSON response
// into out. Failures are reported as *ApiError.
func (g *GitLabClient) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	if g.token == "" {
		slog.Error("GitLab access token not configured", "path", path)
		return ErrMissingToken
	}

	// Marshal request body
	var bodyReader io.Reader
	if body != nil {
		requestBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(requestBody)
	}

	// Build URL
	endpoint := g.apiURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	// Create request
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		slog.Error("Failed to create HTTP request", "error", err, "url", endpoint)
		return fmt.Errorf("error creating request: %w", err)
	}

	// Set headers
	req.Header.Set("Accept", "application/json")
	req.Header.Set("PRIVATE-TOKEN", g.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Send request
	slog.Debug("Sending HTTP request to GitLab API", "method", method, "url", endpoint)
	resp, err := g.httpClient.Do(req)
	if err != nil {
		slog.Error("Failed to send HTTP request", "error", err, "url", endpoint)
		return &ApiError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	// Read response body
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("Failed to read GitLab API response", "error", err, "url", endpoint)
		return &ApiError{Code: resp.StatusCode, Err: err}
	}

	slog.Debug("Received response from GitLab API", "status_code", resp.StatusCode, "url", endpoint)

	// Check response status
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Error("GitLab API returned error status",
			"status_code", resp.StatusCode,
			"method", method,
			"url", endpoint,
		)
		return newAPIError(resp.StatusCode, respBody)
	}

	// Parse response
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		slog.Error("Failed to decode GitLab API response", "error", err, "url", endpoint)
		return &ApiError{Code: resp.StatusCode, Body: string(respBody), Err: fmt.Errorf("error decoding response: %w", err)}
	}
	return nil
}
