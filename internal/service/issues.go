package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"gitlab-issue-bridge/internal/client"
	"gitlab-issue-bridge/internal/repository"
	"gitlab-issue-bridge/internal/routes"
)

// externalKeyPattern splits "<domain>:<project>#<issue id>". Both groups are
// greedy, so a domain carrying a port still decodes.
var externalKeyPattern = regexp.MustCompile(`^.+:(.+)#(.+)`)

// IssueBasic is the GitLab issue adapter for one installation
type IssueBasic struct {
	model  *repository.Integration
	client client.IssueTracker
	routes routes.Reverser
}

// NewIssueBasic binds the adapter to an installation and its API client
func NewIssueBasic(model *repository.Integration, tracker client.IssueTracker, reverser routes.Reverser) *IssueBasic {
	return &IssueBasic{
		model:  model,
		client: tracker,
		routes: reverser,
	}
}

// MakeExternalKey encodes an issue as "<domain>:<project>#<key>"
func (b *IssueBasic) MakeExternalKey(data IssueData) string {
	return fmt.Sprintf("%s:%s#%s", b.model.Metadata.DomainName, data.Project, data.Key)
}

// GetIssueURL returns the web URL of the issue behind an external key
func (b *IssueBasic) GetIssueURL(key string) (string, error) {
	project, issueID, err := ParseExternalKey(key)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/issues/%s", b.model.Metadata.BaseURL, project, issueID), nil
}

// ParseExternalKey extracts project and issue id from an external key
func ParseExternalKey(key string) (project, issueID string, err error) {
	match := externalKeyPattern.FindStringSubmatch(key)
	if match == nil {
		return "", "", newIntegrationError(fmt.Sprintf("invalid external issue key: %q", key))
	}
	return match[1], match[2], nil
}

// GetRepos lists the projects of the installation's GitLab group
func (b *IssueBasic) GetRepos(ctx context.Context, query string) ([]Repo, error) {
	groupID := b.model.Metadata.GroupID
	if groupID == "" {
		slog.Warn("Integration has no GitLab group, no projects to offer", "integration_id", b.model.ID)
		return []Repo{}, nil
	}

	projects, err := b.client.SearchGroupProjects(ctx, groupID, query, b.model.Metadata.IncludeSubgroups)
	if err != nil {
		return nil, err
	}

	repos := make([]Repo, 0, len(projects))
	for _, p := range projects {
		repos = append(repos, Repo{
			Identifier: strconv.Itoa(p.ID),
			Name:       p.NameWithNamespace,
		})
	}
	return repos, nil
}

// GetCreateIssueConfig returns the create form: the project select followed
// by the title and description fields prefilled from the group.
func (b *IssueBasic) GetCreateIssueConfig(ctx context.Context, group *repository.Group, params map[string]string) ([]Field, error) {
	fields := baseCreateIssueFields(group)

	var choices []Repo
	repos, err := b.GetRepos(ctx, "")
	var apiErr *client.ApiError
	switch {
	case errors.As(err, &apiErr):
		slog.Warn("Could not list GitLab projects for create form",
			"integration_id", b.model.ID,
			"status_code", apiErr.Code,
		)
		choices = []Repo{{Identifier: " ", Name: " "}}
	case err != nil:
		return nil, fmt.Errorf("failed to list projects: %w", err)
	case len(repos) == 0:
		choices = []Repo{{Identifier: " ", Name: " "}}
	default:
		choices = repos
	}

	defaultProject, ok := params["project"]
	if !ok {
		defaultProject = choices[0].Identifier
	}

	autocompleteURL, err := b.searchURL(group.OrganizationSlug)
	if err != nil {
		return nil, err
	}

	project := Field{
		Name:         "project",
		Label:        "Gitlab Project",
		Type:         "select",
		Default:      defaultProject,
		DefaultLabel: defaultProject,
		URL:          autocompleteURL,
		UpdatesForm:  true,
		Required:     true,
	}
	return append([]Field{project}, fields...), nil
}

// baseCreateIssueFields are the provider-independent create form fields
func baseCreateIssueFields(group *repository.Group) []Field {
	return []Field{
		{
			Name:     "title",
			Label:    "Title",
			Type:     "string",
			Default:  group.Title,
			Required: true,
		},
		{
			Name:     "description",
			Label:    "Description",
			Type:     "textarea",
			Default:  groupDescription(group),
			Autosize: true,
			MaxRows:  10,
		},
	}
}

func groupDescription(group *repository.Group) string {
	var sb strings.Builder
	if group.Permalink != "" {
		fmt.Fprintf(&sb, "Issue: [%s](%s)", group.Title, group.Permalink)
	} else {
		fmt.Fprintf(&sb, "Issue: %s", group.Title)
	}
	if group.Culprit != "" {
		fmt.Fprintf(&sb, "\n\nCulprit: `%s`", group.Culprit)
	}
	if group.Message != "" {
		fmt.Fprintf(&sb, "\n\n```\n%s\n```", group.Message)
	}
	return sb.String()
}

// CreateIssue creates the issue in GitLab and returns its normalized form
func (b *IssueBasic) CreateIssue(ctx context.Context, data CreateIssueData) (*IssueData, error) {
	if data.Project == "" {
		return nil, newIntegrationError("project kwarg must be provided")
	}

	// Resolve the project before writing to GitLab
	project, err := b.client.GetProject(ctx, data.Project)
	if err != nil {
		return nil, wrapClientError(err, "get project")
	}

	issue, err := b.client.CreateIssue(ctx, data.Project, client.IssueRequest{
		Title:       data.Title,
		Description: data.Description,
	})
	if err != nil {
		return nil, wrapClientError(err, "create issue")
	}

	return normalizeIssue(issue, project, data.Project), nil
}

// GetLinkIssueConfig returns the link form
func (b *IssueBasic) GetLinkIssueConfig(group *repository.Group) ([]Field, error) {
	autocompleteURL, err := b.searchURL(group.OrganizationSlug)
	if err != nil {
		return nil, err
	}

	return []Field{
		{
			Name:        "externalIssue",
			Label:       "Issue",
			Default:     "",
			Type:        "select",
			URL:         autocompleteURL,
			Required:    true,
			UpdatesForm: true,
		},
	}, nil
}

// GetIssue fetches an existing issue named "<project id>#<issue number>"
func (b *IssueBasic) GetIssue(ctx context.Context, data LinkIssueData) (*IssueData, error) {
	projectID, issueNum, _ := strings.Cut(data.ExternalIssue, "#")

	if projectID == "" {
		return nil, newIntegrationError("project must be provided")
	}

	if issueNum == "" {
		return nil, newIntegrationError("issue must be provided")
	}

	// Exactly one separator: "<project id>#<issue number>"
	if strings.Contains(issueNum, "#") {
		return nil, newIntegrationError(fmt.Sprintf("invalid issue reference: %q", data.ExternalIssue))
	}

	issue, err := b.client.GetIssue(ctx, projectID, issueNum)
	if err != nil {
		return nil, wrapClientError(err, "get issue")
	}

	project, err := b.client.GetProject(ctx, projectID)
	if err != nil {
		return nil, wrapClientError(err, "get project")
	}

	return normalizeIssue(issue, project, projectID), nil
}

// GetIssueDisplayName returns the stored display name, or "" without metadata
func (b *IssueBasic) GetIssueDisplayName(externalIssue *repository.ExternalIssue) string {
	if externalIssue.Metadata == nil {
		return ""
	}
	return externalIssue.Metadata.DisplayName
}

// SearchIssues answers the issue autocomplete for a project
func (b *IssueBasic) SearchIssues(ctx context.Context, project, query string) ([]Choice, error) {
	if project == "" {
		return nil, newIntegrationError("project is required")
	}

	issues, err := b.client.SearchIssues(ctx, project, query)
	if err != nil {
		return nil, wrapClientError(err, "search issues")
	}

	choices := make([]Choice, 0, len(issues))
	for _, i := range issues {
		choices = append(choices, Choice{
			Label: fmt.Sprintf("(#%d) %s", i.IID, i.Title),
			Value: fmt.Sprintf("%d#%d", i.ProjectID, i.IID),
		})
	}
	return choices, nil
}

// SearchProjects answers the project autocomplete
func (b *IssueBasic) SearchProjects(ctx context.Context, query string) ([]Choice, error) {
	repos, err := b.GetRepos(ctx, query)
	if err != nil {
		return nil, wrapClientError(err, "search projects")
	}

	choices := make([]Choice, 0, len(repos))
	for _, r := range repos {
		choices = append(choices, Choice{Label: r.Name, Value: r.Identifier})
	}
	return choices, nil
}

func (b *IssueBasic) searchURL(orgSlug string) (string, error) {
	u, err := b.routes.Reverse(routes.GitLabSearch, orgSlug, strconv.FormatInt(b.model.ID, 10))
	if err != nil {
		return "", fmt.Errorf("failed to reverse search route: %w", err)
	}
	return u, nil
}

func normalizeIssue(issue *client.Issue, project *client.Project, projectRef string) *IssueData {
	return &IssueData{
		Key:         strconv.Itoa(issue.IID),
		Title:       issue.Title,
		Description: issue.Description,
		URL:         issue.WebURL,
		Project:     projectRef,
		Metadata: IssueMetadata{
			DisplayName: fmt.Sprintf("%s#%d", project.PathWithNamespace, issue.ID),
		},
	}
}
