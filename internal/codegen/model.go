// Package codegen holds the intermediate component model produced by the
// emitters and the text renderer that turns it into source files.
package codegen

import "time"

// Kind selects the template a Component is rendered with.
type Kind string

const (
	KindForm   Kind = "form"
	KindSearch Kind = "search"
	KindPage   Kind = "page"
)

// Control is the input element rendered for a form field.
type Control string

const (
	ControlTextarea Control = "textarea"
	ControlNumber   Control = "number"
	ControlCheckbox Control = "checkbox"
	ControlEmail    Control = "email"
	ControlInput    Control = "input"
)

// Validator is the primitive kind of a field's validation rule.
type Validator string

const (
	ValidatorString  Validator = "string"
	ValidatorNumber  Validator = "number"
	ValidatorBoolean Validator = "boolean"
	ValidatorEmail   Validator = "email"
)

// Field is one form input and its validation rule.
type Field struct {
	Name      string
	Label     string
	Control   Control
	Validator Validator
	Optional  bool
}

// Filter is one search filter control bound to the filter state map.
type Filter struct {
	ID    string
	Label string
	Type  string
}

// RegionRole positions a layout region.
type RegionRole string

const (
	RoleMain    RegionRole = "main"
	RoleSidebar RegionRole = "sidebar"
)

// Region is an empty layout zone on a page.
type Region struct {
	Name string
	Role RegionRole
}

// Component is everything the renderer needs to produce one source file.
type Component struct {
	Name        string
	Kind        Kind
	Source      string
	GeneratedAt time.Time

	Title       string
	Description string
	SubmitLabel string

	Fields  []Field
	Filters []Filter
	Regions []Region
}
