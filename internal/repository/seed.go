package repository

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML document listing records to load at startup
type SeedFile struct {
	Integrations []Integration `yaml:"integrations"`
	Groups       []Group       `yaml:"groups"`
}

// LoadSeedFile reads and validates a seed file
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("invalid seed file: %w", err)
	}

	for i := range seed.Integrations {
		in := &seed.Integrations[i]
		if in.ID <= 0 {
			return nil, fmt.Errorf("integrations[%d]: id must be > 0", i)
		}
		if in.Metadata.BaseURL == "" {
			return nil, fmt.Errorf("integrations[%d]: metadata.base_url is required", i)
		}
		if in.Metadata.DomainName == "" {
			return nil, fmt.Errorf("integrations[%d]: metadata.domain_name is required", i)
		}
		if in.Provider == "" {
			in.Provider = "gitlab"
		}
	}
	for i, g := range seed.Groups {
		if g.ID <= 0 {
			return nil, fmt.Errorf("groups[%d]: id must be > 0", i)
		}
	}

	return &seed, nil
}

// Apply writes every record of the seed file to storage
func (s *SeedFile) Apply(ctx context.Context, storage StorageRepository) error {
	for i := range s.Integrations {
		if err := storage.SaveIntegration(ctx, &s.Integrations[i]); err != nil {
			return fmt.Errorf("seeding integration %d: %w", s.Integrations[i].ID, err)
		}
	}
	for i := range s.Groups {
		if err := storage.SaveGroup(ctx, &s.Groups[i]); err != nil {
			return fmt.Errorf("seeding group %d: %w", s.Groups[i].ID, err)
		}
	}

	slog.Info("Seed records applied",
		"integrations", len(s.Integrations),
		"groups", len(s.Groups),
	)
	return nil
}
