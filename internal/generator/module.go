package generator

import (
	"fmt"

	"template-builder/internal/codegen"
	"template-builder/internal/common/errors"
	"template-builder/internal/models"
)

var searchOptimizations = []string{"debounced filters", "memoized filter state"}

// ModuleEmitter builds components for stored modules. Only search
// interfaces are generated today.
type ModuleEmitter struct {
	renderer *codegen.Renderer
	clock    Clock
}

func NewModuleEmitter(r *codegen.Renderer, clock Clock) *ModuleEmitter {
	return &ModuleEmitter{renderer: r, clock: clock.orDefault()}
}

func (e *ModuleEmitter) Name(module models.Module) string {
	return codegen.ComponentName(module.Name, "Search")
}

// Emit fails with UNSUPPORTED_MODULE_TYPE for anything but search_interface.
func (e *ModuleEmitter) Emit(module models.Module) (models.ComponentGenerationResult, error) {
	return e.EmitNamed(module, e.Name(module))
}

func (e *ModuleEmitter) EmitNamed(module models.Module, name string) (models.ComponentGenerationResult, error) {
	if module.ModuleType != models.ModuleTypeSearchInterface {
		return models.ComponentGenerationResult{}, errors.NewUnsupportedModuleTypeError(module.ID, string(module.ModuleType))
	}

	title := codegen.Humanize(module.Name)
	if title == "" {
		title = "Search"
	}
	c := codegen.Component{
		Name:    name,
		Kind:    codegen.KindSearch,
		Source:  "module:" + module.ID,
		Title:   title,
		Filters: make([]codegen.Filter, 0, len(module.Configuration.Fields)),
	}
	for _, f := range module.Configuration.Fields {
		if f.ID == "" {
			continue
		}
		label := f.Label
		if label == "" {
			label = codegen.Humanize(f.ID)
		}
		c.Filters = append(c.Filters, codegen.Filter{ID: f.ID, Label: label, Type: f.Type})
	}

	res := render(e.renderer, e.clock, c, SearchDir, searchOptimizations)
	if !res.Success {
		return res, errors.NewGenerationFailedError(fmt.Errorf("rendering search component %s failed", name))
	}
	return res, nil
}
