package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisRepository implements StorageRepository on top of Redis.
//
// Layout:
//
//	integration:<id>                    JSON document
//	group:<id>                          hash
//	group:<id>:external_issues          set of "<integration id>:<external key>"
//	external_issue:<integration>:<key>  hash
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository creates a new Redis repository instance
func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{
		client: client,
	}
}

func integrationKey(id int64) string {
	return "integration:" + strconv.FormatInt(id, 10)
}

func groupKey(id int64) string {
	return "group:" + strconv.FormatInt(id, 10)
}

func groupLinksKey(id int64) string {
	return groupKey(id) + ":external_issues"
}

func externalIssueKey(integrationID int64, key string) string {
	return "external_issue:" + strconv.FormatInt(integrationID, 10) + ":" + key
}

// SaveIntegration creates or replaces an installation
func (r *RedisRepository) SaveIntegration(ctx context.Context, integration *Integration) error {
	key := integrationKey(integration.ID)
	slog.Debug("Saving integration", "key", key, "provider", integration.Provider)

	data, err := json.Marshal(integration)
	if err != nil {
		return fmt.Errorf("error marshaling integration: %w", err)
	}

	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		slog.Error("Failed to save integration", "key", key, "error", err)
		return fmt.Errorf("error saving integration: %w", err)
	}
	return nil
}

// GetIntegration returns the installation or ErrNotFound
func (r *RedisRepository) GetIntegration(ctx context.Context, id int64) (*Integration, error) {
	key := integrationKey(id)
	slog.Debug("Retrieving integration", "key", key)

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("integration %d: %w", id, ErrNotFound)
		}
		slog.Error("Failed to retrieve integration", "key", key, "error", err)
		return nil, fmt.Errorf("error retrieving integration: %w", err)
	}

	var integration Integration
	if err := json.Unmarshal(data, &integration); err != nil {
		return nil, fmt.Errorf("error decoding integration %d: %w", id, err)
	}
	return &integration, nil
}

// SaveGroup creates or replaces a group
func (r *RedisRepository) SaveGroup(ctx context.Context, group *Group) error {
	key := groupKey(group.ID)
	slog.Debug("Saving group", "key", key)

	err := r.client.HSet(ctx, key,
		"organization_slug", group.OrganizationSlug,
		"title", group.Title,
		"culprit", group.Culprit,
		"message", group.Message,
		"permalink", group.Permalink,
	).Err()
	if err != nil {
		slog.Error("Failed to save group", "key", key, "error", err)
		return fmt.Errorf("error saving group: %w", err)
	}
	return nil
}

// GetGroup returns the group or ErrNotFound
func (r *RedisRepository) GetGroup(ctx context.Context, id int64) (*Group, error) {
	key := groupKey(id)
	slog.Debug("Retrieving group", "key", key)

	data, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		slog.Error("Failed to retrieve group", "key", key, "error", err)
		return nil, fmt.Errorf("error retrieving group: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("group %d: %w", id, ErrNotFound)
	}

	return &Group{
		ID:               id,
		OrganizationSlug: data["organization_slug"],
		Title:            data["title"],
		Culprit:          data["culprit"],
		Message:          data["message"],
		Permalink:        data["permalink"],
	}, nil
}

// SaveExternalIssue creates or replaces an external issue record.
// Absent metadata is stored as an empty field.
func (r *RedisRepository) SaveExternalIssue(ctx context.Context, issue *ExternalIssue) error {
	key := externalIssueKey(issue.IntegrationID, issue.Key)
	slog.Debug("Saving external issue", "key", key)

	metadata := ""
	if issue.Metadata != nil {
		raw, err := json.Marshal(issue.Metadata)
		if err != nil {
			return fmt.Errorf("error marshaling issue metadata: %w", err)
		}
		metadata = string(raw)
	}

	err := r.client.HSet(ctx, key,
		"title", issue.Title,
		"description", issue.Description,
		"metadata", metadata,
	).Err()
	if err != nil {
		slog.Error("Failed to save external issue", "key", key, "error", err)
		return fmt.Errorf("error saving external issue: %w", err)
	}
	return nil
}

// LinkGroup links an external issue to a group
func (r *RedisRepository) LinkGroup(ctx context.Context, groupID int64, issue *ExternalIssue) error {
	key := groupLinksKey(groupID)
	member := strconv.FormatInt(issue.IntegrationID, 10) + ":" + issue.Key
	slog.Debug("Linking external issue to group", "key", key, "member", member)

	if err := r.client.SAdd(ctx, key, member).Err(); err != nil {
		slog.Error("Failed to link external issue", "key", key, "error", err)
		return fmt.Errorf("error linking external issue: %w", err)
	}
	return nil
}

// ListGroupExternalIssues returns the external issues linked to a group,
// ordered by integration and key. Links whose record vanished are skipped.
func (r *RedisRepository) ListGroupExternalIssues(ctx context.Context, groupID int64) ([]ExternalIssue, error) {
	key := groupLinksKey(groupID)
	slog.Debug("Listing group external issues", "key", key)

	members, err := r.client.SMembers(ctx, key).Result()
	if err != nil {
		slog.Error("Failed to list group links", "key", key, "error", err)
		return nil, fmt.Errorf("error listing group links: %w", err)
	}
	sort.Strings(members)

	issues := make([]ExternalIssue, 0, len(members))
	for _, member := range members {
		idStr, issueKey, ok := strings.Cut(member, ":")
		integrationID, convErr := strconv.ParseInt(idStr, 10, 64)
		if !ok || convErr != nil {
			slog.Warn("Skipping malformed group link", "key", key, "member", member)
			continue
		}

		data, err := r.client.HGetAll(ctx, externalIssueKey(integrationID, issueKey)).Result()
		if err != nil {
			return nil, fmt.Errorf("error retrieving external issue: %w", err)
		}
		if len(data) == 0 {
			slog.Warn("Linked external issue not found", "key", key, "member", member)
			continue
		}

		issue := ExternalIssue{
			IntegrationID: integrationID,
			Key:           issueKey,
			Title:         data["title"],
			Description:   data["description"],
		}
		if raw := data["metadata"]; raw != "" {
			var metadata ExternalIssueMetadata
			if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
				slog.Warn("Ignoring undecodable issue metadata", "member", member, "error", err)
			} else {
				issue.Metadata = &metadata
			}
		}
		issues = append(issues, issue)
	}

	return issues, nil
}
