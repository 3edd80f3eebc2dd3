package client

import "context"

// Issue represents a GitLab issue
type Issue struct {
	ID          int    `json:"id"`
	IID         int    `json:"iid"`
	ProjectID   int    `json:"project_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	WebURL      string `json:"web_url"`
	State       string `json:"state"`
}

// Project represents a GitLab project
type Project struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	NameWithNamespace string `json:"name_with_namespace"`
	PathWithNamespace string `json:"path_with_namespace"`
	WebURL            string `json:"web_url"`
}

// IssueRequest is the body sent when creating a GitLab issue
type IssueRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// IssueTracker defines the GitLab operations the issue adapter depends on.
// Every method returns *ApiError when GitLab answers with a non-success status
// or cannot be reached.
type IssueTracker interface {
	// CreateIssue creates a new issue in the given project
	CreateIssue(ctx context.Context, project string, data IssueRequest) (*Issue, error)

	// GetIssue fetches a single issue by its project-scoped number
	GetIssue(ctx context.Context, projectID, issueNum string) (*Issue, error)

	// GetProject fetches a project by numeric id or namespaced path
	GetProject(ctx context.Context, projectID string) (*Project, error)

	// SearchGroupProjects lists projects of a group matching query
	SearchGroupProjects(ctx context.Context, groupID, query string, includeSubgroups bool) ([]Project, error)

	// SearchIssues lists issues of a project matching query
	SearchIssues(ctx context.Context, projectID, query string) ([]Issue, error)
}
