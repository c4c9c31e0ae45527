package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalizedText_Resolve(t *testing.T) {
	tests := []struct {
		name   string
		text   LocalizedText
		locale string
		want   string
	}{
		{"exact locale", LocalizedText{"de": "Name", "en": "Name EN"}, "de", "Name"},
		{"falls back to en", LocalizedText{"en": "Full name", "fr": "Nom"}, "de", "Full name"},
		{"falls back to lowest key", LocalizedText{"fr": "Nom", "es": "Nombre"}, "de", "Nombre"},
		{"empty", nil, "en", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.text.Resolve(tt.locale))
		})
	}
}

func TestComponentType_Known(t *testing.T) {
	assert.True(t, ComponentTypeSchema.Known())
	assert.True(t, ComponentTypeModule.Known())
	assert.True(t, ComponentTypePage.Known())
	assert.False(t, ComponentType("widget").Known())
}

func TestBuildStatus_Terminal(t *testing.T) {
	assert.False(t, BuildStatusBuilding.Terminal())
	assert.True(t, BuildStatusCompleted.Terminal())
	assert.True(t, BuildStatusFailed.Terminal())
}

func TestPerformanceMetrics_MarshalJSON(t *testing.T) {
	pm := PerformanceMetrics{
		GenerationTime: 1500 * time.Microsecond,
		ComponentSize:  420,
		Optimizations:  []string{"pre-compiled validation"},
	}
	raw, err := json.Marshal(pm)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, 1.5, decoded["generationTime"])
	assert.Equal(t, float64(420), decoded["componentSize"])
	assert.Len(t, decoded["optimizations"], 1)
}

func TestIndustryTemplateComponent_ConfigString(t *testing.T) {
	c := IndustryTemplateComponent{Configuration: map[string]interface{}{"title": "Talent", "count": 3}}
	assert.Equal(t, "Talent", c.ConfigString("title"))
	assert.Equal(t, "", c.ConfigString("count"))
	assert.Equal(t, "", IndustryTemplateComponent{}.ConfigString("title"))
}
