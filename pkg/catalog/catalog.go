// Package catalog reads template catalogs: the templates, model schemas and
// modules a build draws on, kept as a YAML or JSON file.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"template-builder/internal/models"

	"gopkg.in/yaml.v3"
)

type Catalog struct {
	Version   string                    `json:"version" yaml:"version"`
	Templates []models.IndustryTemplate `json:"templates" yaml:"templates"`
	Schemas   []models.ModelSchema      `json:"schemas" yaml:"schemas"`
	Modules   []models.Module           `json:"modules" yaml:"modules"`
}

// Load parses path as JSON when it ends in .json and as YAML otherwise.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Catalog
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &c)
	} else {
		err = yaml.Unmarshal(data, &c)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	return &c, nil
}

// Save writes c in the format implied by path's extension.
func Save(c *Catalog, path string) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Writer receives catalog entries, e.g. a repository.
type Writer interface {
	SaveTemplate(ctx context.Context, t models.IndustryTemplate) error
	SaveSchema(ctx context.Context, s models.ModelSchema) error
	SaveModule(ctx context.Context, m models.Module) error
}

// Seed writes schemas, then modules, then templates.
func Seed(ctx context.Context, w Writer, c *Catalog) error {
	for _, s := range c.Schemas {
		if err := w.SaveSchema(ctx, s); err != nil {
			return fmt.Errorf("saving schema %s: %w", s.ID, err)
		}
	}
	for _, m := range c.Modules {
		if err := w.SaveModule(ctx, m); err != nil {
			return fmt.Errorf("saving module %s: %w", m.ID, err)
		}
	}
	for _, t := range c.Templates {
		t.Components = append([]models.IndustryTemplateComponent(nil), t.Components...)
		for i := range t.Components {
			t.Components[i].TemplateID = t.ID
		}
		if err := w.SaveTemplate(ctx, t); err != nil {
			return fmt.Errorf("saving template %s: %w", t.ID, err)
		}
	}
	return nil
}
