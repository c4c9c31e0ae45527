package catalog

import (
	"fmt"

	"template-builder/internal/common/validation"
	"template-builder/internal/models"
)

// Issue is one problem found in a catalog.
type Issue struct {
	Path    string
	Message string
}

func (i Issue) String() string {
	return i.Path + ": " + i.Message
}

var componentConfigValidator = validation.MustValidator("component configuration", validation.ComponentConfigurationSchema)

// Validate checks ids and references. Unknown component types are allowed:
// builds skip them.
func Validate(c *Catalog) []Issue {
	var issues []Issue
	add := func(path, format string, args ...interface{}) {
		issues = append(issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	schemas := make(map[string]bool, len(c.Schemas))
	for i, s := range c.Schemas {
		path := fmt.Sprintf("schemas[%d]", i)
		switch {
		case s.ID == "":
			add(path, "id is required")
		case !validation.ValidIdentifier(s.ID):
			add(path, "invalid schema id %q", s.ID)
		case schemas[s.ID]:
			add(path, "duplicate schema id %q", s.ID)
		}
		schemas[s.ID] = true
		for j, f := range s.Schema.Fields {
			if f.Name == "" {
				add(fmt.Sprintf("%s.schema.fields[%d]", path, j), "name is required")
			}
		}
	}

	modules := make(map[string]bool, len(c.Modules))
	for i, m := range c.Modules {
		path := fmt.Sprintf("modules[%d]", i)
		switch {
		case m.ID == "":
			add(path, "id is required")
		case !validation.ValidIdentifier(m.ID):
			add(path, "invalid module id %q", m.ID)
		case modules[m.ID]:
			add(path, "duplicate module id %q", m.ID)
		}
		modules[m.ID] = true
	}

	templates := make(map[string]bool, len(c.Templates))
	for i, t := range c.Templates {
		path := fmt.Sprintf("templates[%d]", i)
		switch {
		case !validation.ValidIdentifier(t.ID):
			add(path, "invalid template id %q", t.ID)
		case templates[t.ID]:
			add(path, "duplicate template id %q", t.ID)
		}
		templates[t.ID] = true

		for j, comp := range t.Components {
			cpath := fmt.Sprintf("%s.components[%d]", path, j)
			if !validation.ValidIdentifier(comp.ComponentID) {
				add(cpath, "invalid component id %q", comp.ComponentID)
				continue
			}
			switch comp.ComponentType {
			case models.ComponentTypeSchema:
				if !schemas[comp.ComponentID] {
					add(cpath, "unknown schema %q", comp.ComponentID)
				}
			case models.ComponentTypeModule:
				if !modules[comp.ComponentID] {
					add(cpath, "unknown module %q", comp.ComponentID)
				}
			}
			if comp.Configuration != nil {
				res, err := componentConfigValidator.Validate(comp.Configuration)
				if err != nil {
					add(cpath, "configuration: %v", err)
				} else if !res.Valid {
					add(cpath, "configuration: %s", res.Summary())
				}
			}
		}
	}
	return issues
}
