package service

import (
	"context"
)

// Field describes one input of a form rendered by the UI
type Field struct {
	Name         string `json:"name"`
	Label        string `json:"label"`
	Type         string `json:"type"`
	Default      string `json:"default"`
	DefaultLabel string `json:"defaultLabel,omitempty"`
	URL          string `json:"url,omitempty"`
	UpdatesForm  bool   `json:"updatesForm,omitempty"`
	Required     bool   `json:"required,omitempty"`
	Autosize     bool   `json:"autosize,omitempty"`
	MaxRows      int    `json:"maxRows,omitempty"`
}

// Choice is an autocomplete option
type Choice struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Repo is a GitLab project offered in the project select
type Repo struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
}

// IssueMetadata carries display data of a normalized issue
type IssueMetadata struct {
	DisplayName string `json:"display_name"`
}

// IssueData is the normalized shape of an issue consumed by the linking layer
type IssueData struct {
	Key         string        `json:"key"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	URL         string        `json:"url"`
	Project     string        `json:"project"`
	Metadata    IssueMetadata `json:"metadata"`
}

// CreateIssueData is the submitted create-issue form
type CreateIssueData struct {
	Project     string `json:"project"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// LinkIssueData is the submitted link-issue form. ExternalIssue has the form
// "<project id>#<issue number>".
type LinkIssueData struct {
	ExternalIssue string `json:"externalIssue"`
}

// LinkedIssue is an external issue attached to a group, ready for display
type LinkedIssue struct {
	IntegrationID int64  `json:"integrationId"`
	Key           string `json:"key"`
	Title         string `json:"title"`
	URL           string `json:"url"`
	DisplayName   string `json:"displayName"`
}

// Config actions
const (
	ActionCreate = "create"
	ActionLink   = "link"
)

// Autocomplete fields
const (
	FieldProject       = "project"
	FieldExternalIssue = "externalIssue"
)

// IssueService is the group-level workflow behind the HTTP layer: it resolves
// installations and groups, drives the GitLab adapter and records links.
type IssueService interface {
	// GetConfig renders the create or link form for a group
	GetConfig(ctx context.Context, orgSlug string, groupID, integrationID int64, action string, params map[string]string) ([]Field, error)

	// CreateIssue creates a GitLab issue and links it to the group
	CreateIssue(ctx context.Context, orgSlug string, groupID, integrationID int64, data CreateIssueData) (*LinkedIssue, error)

	// LinkIssue links an existing GitLab issue to the group
	LinkIssue(ctx context.Context, orgSlug string, groupID, integrationID int64, data LinkIssueData) (*LinkedIssue, error)

	// Search answers autocomplete queries for the form fields
	Search(ctx context.Context, orgSlug string, integrationID int64, field, query, project string) ([]Choice, error)

	// ListLinkedIssues returns the issues linked to a group
	ListLinkedIssues(ctx context.Context, orgSlug string, groupID int64) ([]LinkedIssue, error)
}
