package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gitlab-issue-bridge/internal/client"
	"gitlab-issue-bridge/internal/repository"
	"gitlab-issue-bridge/internal/routes"
)

// ClientFactory builds the GitLab client of an installation
type ClientFactory func(integration *repository.Integration) client.IssueTracker

// NewClientFactory returns a factory producing GitLabClients that share the
// API path and timeout of base.
func NewClientFactory(base client.Options) ClientFactory {
	return func(integration *repository.Integration) client.IssueTracker {
		opts := base
		opts.BaseURL = integration.Metadata.BaseURL
		opts.Token = integration.AccessToken
		opts.SkipTLS = integration.Metadata.InsecureSkipVerify
		return client.NewGitLabClient(opts)
	}
}

// IssueServiceImpl implements IssueService
type IssueServiceImpl struct {
	storage   repository.StorageRepository
	newClient ClientFactory
	routes    routes.Reverser
}

// NewIssueService creates a new issue service instance
func NewIssueService(storage repository.StorageRepository, newClient ClientFactory, reverser routes.Reverser) *IssueServiceImpl {
	return &IssueServiceImpl{
		storage:   storage,
		newClient: newClient,
		routes:    reverser,
	}
}

// installation loads the integration and checks it belongs to the organization
func (s *IssueServiceImpl) installation(ctx context.Context, orgSlug string, integrationID int64) (*IssueBasic, error) {
	integration, err := s.storage.GetIntegration(ctx, integrationID)
	if err != nil {
		return nil, err
	}
	if integration.OrganizationSlug != orgSlug {
		slog.Warn("Integration requested from another organization",
			"integration_id", integrationID,
			"organization", orgSlug,
		)
		return nil, fmt.Errorf("integration %d: %w", integrationID, repository.ErrNotFound)
	}
	return NewIssueBasic(integration, s.newClient(integration), s.routes), nil
}

func (s *IssueServiceImpl) group(ctx context.Context, orgSlug string, groupID int64) (*repository.Group, error) {
	group, err := s.storage.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.OrganizationSlug != orgSlug {
		return nil, fmt.Errorf("group %d: %w", groupID, repository.ErrNotFound)
	}
	return group, nil
}

// GetConfig renders the create or link form for a group
func (s *IssueServiceImpl) GetConfig(ctx context.Context, orgSlug string, groupID, integrationID int64, action string, params map[string]string) ([]Field, error) {
	group, err := s.group(ctx, orgSlug, groupID)
	if err != nil {
		return nil, err
	}
	installation, err := s.installation(ctx, orgSlug, integrationID)
	if err != nil {
		return nil, err
	}

	switch action {
	case ActionCreate:
		return installation.GetCreateIssueConfig(ctx, group, params)
	case ActionLink:
		return installation.GetLinkIssueConfig(group)
	default:
		return nil, newIntegrationError(fmt.Sprintf("invalid action: %q", action))
	}
}

// CreateIssue creates a GitLab issue and links it to the group
func (s *IssueServiceImpl) CreateIssue(ctx context.Context, orgSlug string, groupID, integrationID int64, data CreateIssueData) (*LinkedIssue, error) {
	slog.Info("Creating external issue",
		"organization", orgSlug,
		"group_id", groupID,
		"integration_id", integrationID,
		"project", data.Project,
	)

	group, err := s.group(ctx, orgSlug, groupID)
	if err != nil {
		return nil, err
	}
	installation, err := s.installation(ctx, orgSlug, integrationID)
	if err != nil {
		return nil, err
	}

	issue, err := installation.CreateIssue(ctx, data)
	if err != nil {
		slog.Error("Failed to create external issue", "error", err, "integration_id", integrationID)
		return nil, err
	}

	return s.link(ctx, installation, group, issue)
}

// LinkIssue links an existing GitLab issue to the group
func (s *IssueServiceImpl) LinkIssue(ctx context.Context, orgSlug string, groupID, integrationID int64, data LinkIssueData) (*LinkedIssue, error) {
	slog.Info("Linking external issue",
		"organization", orgSlug,
		"group_id", groupID,
		"integration_id", integrationID,
		"external_issue", data.ExternalIssue,
	)

	group, err := s.group(ctx, orgSlug, groupID)
	if err != nil {
		return nil, err
	}
	installation, err := s.installation(ctx, orgSlug, integrationID)
	if err != nil {
		return nil, err
	}

	issue, err := installation.GetIssue(ctx, data)
	if err != nil {
		slog.Error("Failed to fetch external issue", "error", err, "integration_id", integrationID)
		return nil, err
	}

	return s.link(ctx, installation, group, issue)
}

// link stores the external issue under its external key and attaches it to the group
func (s *IssueServiceImpl) link(ctx context.Context, installation *IssueBasic, group *repository.Group, issue *IssueData) (*LinkedIssue, error) {
	record := &repository.ExternalIssue{
		IntegrationID: installation.model.ID,
		Key:           installation.MakeExternalKey(*issue),
		Title:         issue.Title,
		Description:   issue.Description,
		Metadata:      &repository.ExternalIssueMetadata{DisplayName: issue.Metadata.DisplayName},
	}

	if err := s.storage.SaveExternalIssue(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store external issue: %w", err)
	}
	if err := s.storage.LinkGroup(ctx, group.ID, record); err != nil {
		return nil, fmt.Errorf("failed to link external issue: %w", err)
	}

	slog.Info("External issue linked",
		"group_id", group.ID,
		"integration_id", record.IntegrationID,
		"key", record.Key,
	)

	return s.linkedIssue(installation, record)
}

func (s *IssueServiceImpl) linkedIssue(installation *IssueBasic, record *repository.ExternalIssue) (*LinkedIssue, error) {
	issueURL, err := installation.GetIssueURL(record.Key)
	if err != nil {
		return nil, err
	}
	return &LinkedIssue{
		IntegrationID: record.IntegrationID,
		Key:           record.Key,
		Title:         record.Title,
		URL:           issueURL,
		DisplayName:   installation.GetIssueDisplayName(record),
	}, nil
}

// Search answers autocomplete queries for the form fields
func (s *IssueServiceImpl) Search(ctx context.Context, orgSlug string, integrationID int64, field, query, project string) ([]Choice, error) {
	installation, err := s.installation(ctx, orgSlug, integrationID)
	if err != nil {
		return nil, err
	}

	switch field {
	case FieldExternalIssue:
		return installation.SearchIssues(ctx, project, query)
	case FieldProject:
		return installation.SearchProjects(ctx, query)
	case "":
		return nil, newIntegrationError("field is required")
	default:
		return nil, newIntegrationError(fmt.Sprintf("invalid field: %q", field))
	}
}

// ListLinkedIssues returns the issues linked to a group. Issues whose
// installation was removed are skipped.
func (s *IssueServiceImpl) ListLinkedIssues(ctx context.Context, orgSlug string, groupID int64) ([]LinkedIssue, error) {
	if _, err := s.group(ctx, orgSlug, groupID); err != nil {
		return nil, err
	}

	records, err := s.storage.ListGroupExternalIssues(ctx, groupID)
	if err != nil {
		return nil, err
	}

	installations := make(map[int64]*IssueBasic)
	linked := make([]LinkedIssue, 0, len(records))
	for i := range records {
		record := &records[i]

		installation, ok := installations[record.IntegrationID]
		if !ok {
			installation, err = s.installation(ctx, orgSlug, record.IntegrationID)
			if errors.Is(err, repository.ErrNotFound) {
				slog.Warn("Skipping issue of unknown integration", "integration_id", record.IntegrationID, "key", record.Key)
				installations[record.IntegrationID] = nil
				continue
			}
			if err != nil {
				return nil, err
			}
			installations[record.IntegrationID] = installation
		}
		if installation == nil {
			continue
		}

		issue, err := s.linkedIssue(installation, record)
		if err != nil {
			slog.Warn("Skipping issue with malformed key", "key", record.Key, "error", err)
			continue
		}
		linked = append(linked, *issue)
	}
	return linked, nil
}
