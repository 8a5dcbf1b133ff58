package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/study-library/internal/core/domain"
)

// LoadTaxonomy reads the seed taxonomy from a YAML file, or returns the
// built-in CLASS 9 / CLASS 10 taxonomy when path is empty.
func LoadTaxonomy(path string) (domain.Taxonomy, error) {
	if path == "" {
		return domain.DefaultTaxonomy(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Taxonomy{}, fmt.Errorf("read seed file: %w", err)
	}

	var taxonomy domain.Taxonomy
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(&taxonomy); err != nil {
		return domain.Taxonomy{}, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	if len(taxonomy.Categories) == 0 {
		return domain.Taxonomy{}, fmt.Errorf("parse seed file %s: no categories", path)
	}
	return taxonomy, nil
}
