package repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// IntegrationMetadata is the provider-specific part of an installation
type IntegrationMetadata struct {
	DomainName         string `json:"domain_name" yaml:"domain_name"`
	BaseURL            string `json:"base_url" yaml:"base_url"`
	GroupID            string `json:"group_id" yaml:"group_id"`
	IncludeSubgroups   bool   `json:"include_subgroups" yaml:"include_subgroups"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// Integration is one GitLab installation owned by an organization
type Integration struct {
	ID               int64               `json:"id" yaml:"id"`
	Provider         string              `json:"provider" yaml:"provider"`
	Name             string              `json:"name" yaml:"name"`
	OrganizationSlug string              `json:"organization_slug" yaml:"organization_slug"`
	AccessToken      string              `json:"access_token" yaml:"access_token"`
	Metadata         IntegrationMetadata `json:"metadata" yaml:"metadata"`
}

// Group is an issue group on the host side that external issues link to
type Group struct {
	ID               int64  `yaml:"id"`
	OrganizationSlug string `yaml:"organization_slug"`
	Title            string `yaml:"title"`
	Culprit          string `yaml:"culprit"`
	Message          string `yaml:"message"`
	Permalink        string `yaml:"permalink"`
}

// ExternalIssueMetadata is the optional display data of a linked issue
type ExternalIssueMetadata struct {
	DisplayName string `json:"display_name"`
}

// ExternalIssue is an issue in GitLab referenced by its external key.
// Metadata is nil for records stored without it.
type ExternalIssue struct {
	IntegrationID int64
	Key           string
	Title         string
	Description   string
	Metadata      *ExternalIssueMetadata
}

// StorageRepository defines the persistence of host-side records
type StorageRepository interface {
	// SaveIntegration creates or replaces an installation
	SaveIntegration(ctx context.Context, integration *Integration) error

	// GetIntegration returns the installation or ErrNotFound
	GetIntegration(ctx context.Context, id int64) (*Integration, error)

	// SaveGroup creates or replaces a group
	SaveGroup(ctx context.Context, group *Group) error

	// GetGroup returns the group or ErrNotFound
	GetGroup(ctx context.Context, id int64) (*Group, error)

	// SaveExternalIssue creates or replaces an external issue record
	SaveExternalIssue(ctx context.Context, issue *ExternalIssue) error

	// LinkGroup links an external issue to a group
	LinkGroup(ctx context.Context, groupID int64, issue *ExternalIssue) error

	// ListGroupExternalIssues returns the external issues linked to a group
	ListGroupExternalIssues(ctx context.Context, groupID int64) ([]ExternalIssue, error)
}
