package generator

import (
	"strings"

	"template-builder/internal/codegen"
	"template-builder/internal/models"
)

var formOptimizations = []string{"pre-compiled validation", "tree-shaken imports", "memoized field controls"}

// FormEmitter builds a validated form component from a ModelSchema.
type FormEmitter struct {
	renderer *codegen.Renderer
	clock    Clock
	locale   string
}

func NewFormEmitter(r *codegen.Renderer, clock Clock, locale string) *FormEmitter {
	if locale == "" {
		locale = models.DefaultLocale
	}
	return &FormEmitter{renderer: r, clock: clock.orDefault(), locale: locale}
}

// Name is the derived component name, e.g. HumanmodelfashionForm.
func (e *FormEmitter) Name(schema models.ModelSchema) string {
	return codegen.ComponentName(schema.Type, schema.SubType, "Form")
}

// Emit renders schema under its derived name. overrides may set title and
// submitLabel.
func (e *FormEmitter) Emit(schema models.ModelSchema, overrides map[string]interface{}) models.ComponentGenerationResult {
	return e.EmitNamed(schema, overrides, e.Name(schema))
}

// EmitNamed is Emit with the component name already decided.
func (e *FormEmitter) EmitNamed(schema models.ModelSchema, overrides map[string]interface{}, name string) models.ComponentGenerationResult {
	title := schema.DisplayName.Resolve(e.locale)
	if title == "" {
		title = codegen.Humanize(strings.TrimSpace(schema.Type + " " + schema.SubType))
	}
	if s, ok := overrides["title"].(string); ok && s != "" {
		title = s
	}
	submit := "Submit"
	if s, ok := overrides["submitLabel"].(string); ok && s != "" {
		submit = s
	}

	c := codegen.Component{
		Name:        name,
		Kind:        codegen.KindForm,
		Source:      "schema:" + schema.ID,
		Title:       title,
		Description: schema.Description.Resolve(e.locale),
		SubmitLabel: submit,
		Fields:      make([]codegen.Field, 0, len(schema.Schema.Fields)),
	}
	for _, f := range schema.Schema.Fields {
		if f.Name == "" {
			continue
		}
		label := f.Label.Resolve(e.locale)
		if label == "" {
			label = codegen.Humanize(f.Name)
		}
		control, validator := fieldShape(f.Type)
		c.Fields = append(c.Fields, codegen.Field{
			Name:      f.Name,
			Label:     label,
			Control:   control,
			Validator: validator,
			Optional:  !f.Required,
		})
	}
	return render(e.renderer, e.clock, c, FormsDir, formOptimizations)
}

func fieldShape(t models.FieldType) (codegen.Control, codegen.Validator) {
	switch t {
	case models.FieldTypeText:
		return codegen.ControlTextarea, codegen.ValidatorString
	case models.FieldTypeNumber:
		return codegen.ControlNumber, codegen.ValidatorNumber
	case models.FieldTypeBoolean:
		return codegen.ControlCheckbox, codegen.ValidatorBoolean
	case models.FieldTypeEmail:
		return codegen.ControlEmail, codegen.ValidatorEmail
	default:
		return codegen.ControlInput, codegen.ValidatorString
	}
}
