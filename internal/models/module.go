package models

// ModuleType selects how a module is generated.
type ModuleType string

const (
	ModuleTypeSearchInterface ModuleType = "search_interface"
	ModuleTypeListingPage     ModuleType = "listing_page"
	ModuleTypeDetailPage      ModuleType = "detail_page"
)

// Module is a stored configuration for a cross-cutting UI pattern.
type Module struct {
	ID            string              `json:"id" yaml:"id"`
	ModuleType    ModuleType          `json:"moduleType" yaml:"moduleType"`
	Name          string              `json:"name" yaml:"name"`
	Configuration ModuleConfiguration `json:"configuration" yaml:"configuration"`
}

type ModuleConfiguration struct {
	Fields []ModuleField `json:"fields" yaml:"fields"`
}

type ModuleField struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Type  string `json:"type,omitempty" yaml:"type,omitempty"`
}
