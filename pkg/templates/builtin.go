// Package templates ships the builtin dashboard template catalog. The
// catalog is embedded at build time and reconciled into the store on
// startup, so a fresh deployment always has a usable set of templates.
package templates

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/rifyops/rify-engine/pkg/models"
)

//go:embed builtin.yaml
var builtinYAML []byte

type catalogFile struct {
	Templates []catalogEntry `yaml:"templates"`
}

type catalogEntry struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category"`
	Tags        []string `yaml:"tags"`
	Variables   []any    `yaml:"variables"`
	Panels      []any    `yaml:"panels"`
}

// Builtin parses the embedded catalog. Every returned template is marked
// builtin and active; ids are stable across releases so startup syncs
// update in place rather than duplicating.
func Builtin() ([]*models.DashboardTemplate, error) {
	var file catalogFile
	if err := yaml.Unmarshal(builtinYAML, &file); err != nil {
		return nil, fmt.Errorf("failed to parse builtin template catalog: %w", err)
	}

	templates := make([]*models.DashboardTemplate, 0, len(file.Templates))
	for _, entry := range file.Templates {
		if entry.ID == "" || entry.Name == "" {
			return nil, fmt.Errorf("builtin template missing id or name: %+v", entry)
		}
		templates = append(templates, &models.DashboardTemplate{
			ID:          entry.ID,
			Name:        entry.Name,
			Description: entry.Description,
			Category:    entry.Category,
			Tags:        entry.Tags,
			Variables:   entry.Variables,
			Panels:      entry.Panels,
			IsBuiltin:   true,
			IsActive:    true,
		})
	}

	return templates, nil
}
