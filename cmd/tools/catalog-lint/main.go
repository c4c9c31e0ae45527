// catalog-lint checks a template catalog file and previews the component
// names a build would derive from it.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"template-builder/internal/codegen"
	"template-builder/internal/generator"
	"template-builder/internal/models"
	"template-builder/pkg/catalog"
)

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	namesCmd := flag.NewFlagSet("names", flag.ExitOnError)

	validatePath := validateCmd.String("path", "configs/catalog.yaml", "Path to catalog file")
	namesPath := namesCmd.String("path", "configs/catalog.yaml", "Path to catalog file")
	namesTemplate := namesCmd.String("template", "", "Only this template id")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		c, err := catalog.Load(*validatePath)
		if err != nil {
			fmt.Printf("Error loading catalog: %v\n", err)
			os.Exit(1)
		}
		if n := runValidate(os.Stdout, c); n > 0 {
			fmt.Printf("Catalog validation failed: %d issue(s).\n", n)
			os.Exit(1)
		}
		fmt.Println("Catalog validation passed.")

	case "names":
		namesCmd.Parse(os.Args[2:])
		c, err := catalog.Load(*namesPath)
		if err != nil {
			fmt.Printf("Error loading catalog: %v\n", err)
			os.Exit(1)
		}
		if collisions := runNames(os.Stdout, c, *namesTemplate); collisions > 0 {
			fmt.Printf("%d name collision(s) found.\n", collisions)
			os.Exit(2)
		}

	case "help":
		fallthrough
	default:
		help()
	}
}

func runValidate(w io.Writer, c *catalog.Catalog) int {
	issues := catalog.Validate(c)
	for _, issue := range issues {
		fmt.Fprintf(w, "  - %s\n", issue)
	}
	return len(issues)
}

type derivedName struct {
	ComponentID string
	Kind        models.ComponentType
	Name        string
	Note        string
}

// deriveNames predicts the component names one template produces, in order.
func deriveNames(c *catalog.Catalog, tpl models.IndustryTemplate) []derivedName {
	schemas := make(map[string]models.ModelSchema, len(c.Schemas))
	for _, s := range c.Schemas {
		schemas[s.ID] = s
	}
	modules := make(map[string]models.Module, len(c.Modules))
	for _, m := range c.Modules {
		modules[m.ID] = m
	}

	r := codegen.MustRenderer()
	forms := generator.NewFormEmitter(r, nil, models.DefaultLocale)
	searches := generator.NewModuleEmitter(r, nil)
	pages := generator.NewPageEmitter(r, nil)

	out := make([]derivedName, 0, len(tpl.Components))
	for _, comp := range tpl.Components {
		d := derivedName{ComponentID: comp.ComponentID, Kind: comp.ComponentType}
		switch comp.ComponentType {
		case models.ComponentTypeSchema:
			s, ok := schemas[comp.ComponentID]
			if !ok {
				d.Note = "missing schema"
				break
			}
			d.Name = forms.Name(s)
		case models.ComponentTypeModule:
			m, ok := modules[comp.ComponentID]
			switch {
			case !ok:
				d.Note = "missing module"
			case m.ModuleType != models.ModuleTypeSearchInterface:
				d.Note = "skipped: " + string(m.ModuleType)
			default:
				d.Name = searches.Name(m)
			}
		case models.ComponentTypePage:
			d.Name = pages.Name(comp)
		default:
			d.Note = "skipped: unknown component type"
		}
		out = append(out, d)
	}
	return out
}

func runNames(w io.Writer, c *catalog.Catalog, only string) int {
	templates := append([]models.IndustryTemplate(nil), c.Templates...)
	sort.SliceStable(templates, func(i, j int) bool { return templates[i].ID < templates[j].ID })

	collisions := 0
	for _, tpl := range templates {
		if only != "" && tpl.ID != only {
			continue
		}
		fmt.Fprintf(w, "%s (%s)\n", tpl.ID, tpl.Version)
		seen := make(map[string]string)
		for _, d := range deriveNames(c, tpl) {
			line := fmt.Sprintf("  %-8s %-20s %s", d.Kind, d.ComponentID, d.Name)
			if d.Note != "" {
				line += "  [" + d.Note + "]"
			}
			if d.Name != "" {
				if first, dup := seen[d.Name]; dup {
					collisions++
					line += "  [collides with " + first + "]"
				} else {
					seen[d.Name] = d.ComponentID
				}
			}
			fmt.Fprintln(w, line)
		}
	}
	return collisions
}

func help() {
	fmt.Println("Usage: catalog-lint <command> [options]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  validate   Check ids and component references")
	fmt.Println("    Options: -path")
	fmt.Println("  names      Print derived component names and collisions")
	fmt.Println("    Options: -path, -template")
	fmt.Println("  help       Show this help message")
}
