package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"booklore/internal/core/browse"
)

// LoadBuckets returns the range bucket tables, overlaying any tables found in
// the YAML file at path onto the defaults. An empty path means defaults only.
func LoadBuckets(path string) (browse.Tables, error) {
	tables := browse.DefaultTables()
	if path == "" {
		return tables, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return browse.Tables{}, fmt.Errorf("read bucket tables: %w", err)
	}

	var override browse.Tables
	if err := yaml.Unmarshal(data, &override); err != nil {
		return browse.Tables{}, fmt.Errorf("parse bucket tables: %w", err)
	}

	if len(override.Rating) > 0 {
		tables.Rating = override.Rating
	}
	if len(override.FileSize) > 0 {
		tables.FileSize = override.FileSize
	}
	if len(override.PageCount) > 0 {
		tables.PageCount = override.PageCount
	}
	if len(override.MatchScore) > 0 {
		tables.MatchScore = override.MatchScore
	}
	return tables, nil
}
