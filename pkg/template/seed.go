package template

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var builtinCatalog []byte

type seedTemplate struct {
	Type          string   `yaml:"type"`
	Subject       string   `yaml:"subject"`
	Body          string   `yaml:"body"`
	EmailBody     string   `yaml:"email_body"`
	Priority      Priority `yaml:"priority"`
	Role          Role     `yaml:"role"`
	RequiresEmail bool     `yaml:"requires_email"`
	RequiresInApp bool     `yaml:"requires_in_app"`
}

// Seed inserts the built-in template catalog into the registry, skipping any
// type key already present. Safe to run on every process start.
func Seed(ctx context.Context, storage Storage) error {
	var catalog []seedTemplate
	if err := yaml.Unmarshal(builtinCatalog, &catalog); err != nil {
		return fmt.Errorf("failed to parse builtin template catalog: %w", err)
	}

	for _, entry := range catalog {
		exists, err := storage.ExistsByType(ctx, entry.Type)
		if err != nil {
			return fmt.Errorf("failed to check template %q: %w", entry.Type, err)
		}
		if exists {
			continue
		}

		err = storage.Create(ctx, &Template{
			Type:          entry.Type,
			Subject:       entry.Subject,
			Body:          entry.Body,
			EmailBody:     entry.EmailBody,
			Priority:      entry.Priority,
			Role:          entry.Role,
			RequiresEmail: entry.RequiresEmail,
			RequiresInApp: entry.RequiresInApp,
			Active:        true,
		})
		// A concurrent seeder may have inserted the type between the existence
		// check and the insert; that still counts as seeded.
		if err != nil && !errors.Is(err, ErrTemplateExists) {
			return fmt.Errorf("failed to seed template %q: %w", entry.Type, err)
		}
	}

	return nil
}
