package validation

import "regexp"

// IdentifierPattern keeps IDs safe to use as a single path segment and on a
// single line of generated code.
const IdentifierPattern = `^[A-Za-z0-9][A-Za-z0-9._-]*$`

// MaxIdentifierLength bounds template, schema, module and component ids.
const MaxIdentifierLength = 128

var identifierRe = regexp.MustCompile(IdentifierPattern)

// ValidIdentifier reports whether id matches IdentifierPattern and fits
// MaxIdentifierLength.
func ValidIdentifier(id string) bool {
	return len(id) <= MaxIdentifierLength && identifierRe.MatchString(id)
}

// BuildOptionsSchema describes a build request after defaults are applied.
var BuildOptionsSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"templateId", "optimization"},
	"properties": map[string]interface{}{
		"templateId": map[string]interface{}{
			"type": "string", "minLength": 1, "maxLength": MaxIdentifierLength, "pattern": IdentifierPattern,
		},
		"tenantId":        map[string]interface{}{"type": "string", "maxLength": 128},
		"optimization":    map[string]interface{}{"type": "string", "enum": []interface{}{"development", "production"}},
		"outputPath":      map[string]interface{}{"type": "string"},
		"createArtifacts": map[string]interface{}{"type": "boolean"},
	},
}

// ComponentConfigurationSchema covers the keys the emitters read from a
// template component configuration. Other keys are allowed.
var ComponentConfigurationSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"title":       map[string]interface{}{"type": "string"},
		"description": map[string]interface{}{"type": "string"},
		"submitLabel": map[string]interface{}{"type": "string", "minLength": 1},
	},
}
