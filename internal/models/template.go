package models

// ComponentType is the kind of definition a template component points at.
type ComponentType string

const (
	ComponentTypeSchema ComponentType = "schema"
	ComponentTypeModule ComponentType = "module"
	ComponentTypePage   ComponentType = "page"
)

// Known reports whether t is one of schema, module or page.
func (t ComponentType) Known() bool {
	switch t {
	case ComponentTypeSchema, ComponentTypeModule, ComponentTypePage:
		return true
	}
	return false
}

// IndustryTemplate bundles the components an industry vertical needs.
type IndustryTemplate struct {
	ID         string                      `json:"id" yaml:"id"`
	Name       string                      `json:"name" yaml:"name"`
	Version    string                      `json:"version" yaml:"version"`
	Components []IndustryTemplateComponent `json:"components" yaml:"components"`
}

// IndustryTemplateComponent links a template to a schema, module or page
// definition. Order within IndustryTemplate.Components is generation order.
type IndustryTemplateComponent struct {
	TemplateID    string                 `json:"templateId" yaml:"templateId"`
	ComponentType ComponentType          `json:"componentType" yaml:"componentType"`
	ComponentID   string                 `json:"componentId" yaml:"componentId"`
	ComponentName string                 `json:"componentName" yaml:"componentName"`
	Configuration map[string]interface{} `json:"configuration,omitempty" yaml:"configuration,omitempty"`
}

// ConfigString returns a string configuration value or "".
func (c IndustryTemplateComponent) ConfigString(key string) string {
	if c.Configuration == nil {
		return ""
	}
	if s, ok := c.Configuration[key].(string); ok {
		return s
	}
	return ""
}
