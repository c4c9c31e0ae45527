package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type buildRequest struct {
	TemplateID      string `json:"templateId"`
	Optimization    string `json:"optimization"`
	CreateArtifacts bool   `json:"createArtifacts"`
}

func TestValidator_BuildOptions(t *testing.T) {
	v := MustValidator("build options", BuildOptionsSchema)

	tests := []struct {
		name           string
		doc            interface{}
		validateOutput func(t *testing.T, r *ValidationResult)
	}{
		{
			name: "valid",
			doc:  buildRequest{TemplateID: "tpl-1", Optimization: "production"},
			validateOutput: func(t *testing.T, r *ValidationResult) {
				assert.True(t, r.Valid)
				assert.Empty(t, r.Summary())
			},
		},
		{
			name: "bad optimization",
			doc:  buildRequest{TemplateID: "tpl-1", Optimization: "turbo"},
			validateOutput: func(t *testing.T, r *ValidationResult) {
				assert.False(t, r.Valid)
				require.Len(t, r.Errors, 1)
				assert.Equal(t, "optimization", r.Errors[0].Field)
				assert.Equal(t, "ENUM", r.Errors[0].Code)
			},
		},
		{
			name: "path traversal in template id",
			doc:  buildRequest{TemplateID: "../etc", Optimization: "development"},
			validateOutput: func(t *testing.T, r *ValidationResult) {
				assert.False(t, r.Valid)
				assert.Contains(t, r.Summary(), "templateId")
			},
		},
		{
			name: "missing required",
			doc:  map[string]interface{}{"createArtifacts": true},
			validateOutput: func(t *testing.T, r *ValidationResult) {
				assert.False(t, r.Valid)
				assert.Len(t, r.Errors, 2)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := v.Validate(tt.doc)
			require.NoError(t, err)
			tt.validateOutput(t, r)
		})
	}
}

func TestValidator_ComponentConfiguration(t *testing.T) {
	v := MustValidator("component configuration", ComponentConfigurationSchema)

	r, err := v.Validate(map[string]interface{}{"title": "Casting", "extra": 1})
	require.NoError(t, err)
	assert.True(t, r.Valid)

	r, err = v.Validate(map[string]interface{}{"title": 42})
	require.NoError(t, err)
	assert.False(t, r.Valid)
}

func TestNewValidator_BadSchema(t *testing.T) {
	_, err := NewValidator("broken", map[string]interface{}{"type": 12})
	assert.Error(t, err)
}
