package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/kirillkom/study-library/internal/core/domain"
	"github.com/kirillkom/study-library/internal/core/ports"
)

// Seeder performs the one-time startup seed of the admin account and taxonomy.
// The admin password is stored as a bcrypt hash of the credential.
type Seeder struct {
	taxonomy ports.TaxonomyRepository
	users    ports.UserRepository
}

func NewSeeder(taxonomy ports.TaxonomyRepository, users ports.UserRepository) *Seeder {
	return &Seeder{taxonomy: taxonomy, users: users}
}

func (s *Seeder) Seed(ctx context.Context, taxonomy domain.Taxonomy, credential domain.Credential) error {
	if credential.IsZero() {
		return errors.New("seed: admin credential is empty")
	}
	if err := validateTaxonomy(taxonomy); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(credential.Secret()), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed: hash admin password: %w", err)
	}
	created, err := s.users.EnsureAdmin(ctx, domain.AdminUsername, string(hash))
	if err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	if created {
		slog.Info("admin_user_created", "username", domain.AdminUsername)
	}

	seeded, err := s.taxonomy.SeedTaxonomy(ctx, taxonomy)
	if err != nil {
		return fmt.Errorf("seed taxonomy: %w", err)
	}
	if seeded {
		slog.Info("taxonomy_seeded",
			"categories", len(taxonomy.Categories),
			"subjects_per_category", len(taxonomy.Subjects),
		)
	}
	return nil
}

func validateTaxonomy(taxonomy domain.Taxonomy) error {
	if len(taxonomy.Categories) == 0 {
		return errors.New("taxonomy has no categories")
	}
	seenCategories := make(map[string]struct{}, len(taxonomy.Categories))
	for _, category := range taxonomy.Categories {
		if category.Name == "" {
			return errors.New("taxonomy category without name")
		}
		if _, ok := seenCategories[category.Name]; ok {
			return fmt.Errorf("duplicate category %q", category.Name)
		}
		seenCategories[category.Name] = struct{}{}
	}
	seenSubjects := make(map[string]struct{}, len(taxonomy.Subjects))
	for _, subject := range taxonomy.Subjects {
		if subject.Name == "" {
			return errors.New("taxonomy subject without name")
		}
		if _, ok := seenSubjects[subject.Name]; ok {
			return fmt.Errorf("duplicate subject %q", subject.Name)
		}
		seenSubjects[subject.Name] = struct{}{}
	}
	return nil
}
