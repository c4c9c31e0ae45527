package generator

import (
	"template-builder/internal/codegen"
	"template-builder/internal/models"
)

var pageOptimizations = []string{"static layout", "lazy zones"}

var pageRegions = []codegen.Region{
	{Name: "main", Role: codegen.RoleMain},
	{Name: "sidebar", Role: codegen.RoleSidebar},
}

// PageEmitter builds an empty two-zone page shell.
type PageEmitter struct {
	renderer *codegen.Renderer
	clock    Clock
}

func NewPageEmitter(r *codegen.Renderer, clock Clock) *PageEmitter {
	return &PageEmitter{renderer: r, clock: clock.orDefault()}
}

func (e *PageEmitter) Name(component models.IndustryTemplateComponent) string {
	return codegen.ComponentName(component.ComponentName, "Page")
}

func (e *PageEmitter) Emit(component models.IndustryTemplateComponent) models.ComponentGenerationResult {
	return e.EmitNamed(component, e.Name(component))
}

func (e *PageEmitter) EmitNamed(component models.IndustryTemplateComponent, name string) models.ComponentGenerationResult {
	title := component.ConfigString("title")
	if title == "" {
		title = component.ComponentName
	}
	c := codegen.Component{
		Name:        name,
		Kind:        codegen.KindPage,
		Source:      "page:" + component.ComponentID,
		Title:       title,
		Description: component.ConfigString("description"),
		Regions:     pageRegions,
	}
	return render(e.renderer, e.clock, c, PagesDir, pageOptimizations)
}
