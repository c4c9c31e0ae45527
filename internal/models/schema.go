package models

// FieldType is the declared type of a schema field.
type FieldType string

const (
	FieldTypeText    FieldType = "text"
	FieldTypeString  FieldType = "string"
	FieldTypeNumber  FieldType = "number"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeEmail   FieldType = "email"
	FieldTypeDate    FieldType = "date"
)

// DefaultLocale is used when a localized value has no entry for the
// requested locale.
const DefaultLocale = "en"

// LocalizedText maps a locale to a display string.
type LocalizedText map[string]string

// Resolve returns the value for locale, then DefaultLocale, then any
// non-empty value in key order.
func (l LocalizedText) Resolve(locale string) string {
	if v := l[locale]; v != "" {
		return v
	}
	if v := l[DefaultLocale]; v != "" {
		return v
	}
	best := ""
	bestKey := ""
	for k, v := range l {
		if v == "" {
			continue
		}
		if best == "" || k < bestKey {
			best, bestKey = v, k
		}
	}
	return best
}

// ModelSchema is a database-stored field list used to synthesize a form.
type ModelSchema struct {
	ID          string           `json:"id" yaml:"id"`
	Type        string           `json:"type" yaml:"type"`
	SubType     string           `json:"subType" yaml:"subType"`
	DisplayName LocalizedText    `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	Description LocalizedText    `json:"description,omitempty" yaml:"description,omitempty"`
	Schema      SchemaDefinition `json:"schema" yaml:"schema"`
}

type SchemaDefinition struct {
	Fields []SchemaField `json:"fields" yaml:"fields"`
}

type SchemaField struct {
	Name     string        `json:"name" yaml:"name"`
	Type     FieldType     `json:"type" yaml:"type"`
	Label    LocalizedText `json:"label,omitempty" yaml:"label,omitempty"`
	Required bool          `json:"required" yaml:"required"`
}
