package codegen

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var frozen = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)
	return r
}

// ==========================
// Names
// ==========================

func TestComponentName(t *testing.T) {
	tests := []struct {
		parts []string
		want  string
	}{
		{[]string{"human_model", "fashion", "Form"}, "HumanmodelfashionForm"},
		{[]string{"talent search", "Search"}, "TalentsearchSearch"},
		{[]string{"über-page", "Page"}, "BerpagePage"},
		{[]string{"", "Page"}, "Page"},
		{[]string{"9lives", "Form"}, "C9livesForm"},
		{[]string{"3d", "model", "Form"}, "C3dmodelForm"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ComponentName(tt.parts...))
		})
	}
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Full Name", Humanize("full_name"))
	assert.Equal(t, "Full Name", Humanize("fullName"))
	assert.Equal(t, "Hair Color", Humanize("hair-color"))
	assert.Equal(t, "", Humanize(""))
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "fullName", objectKey("fullName"))
	assert.Equal(t, `"full-name"`, objectKey("full-name"))
	assert.Equal(t, `"1st"`, objectKey("1st"))
}

// ==========================
// Dependencies
// ==========================

func TestScanDependencies(t *testing.T) {
	code := "import { useState } from 'react';\nimport { Search } from 'lucide-react';\n"
	assert.Equal(t, []string{"react", "lucide-react"}, ScanDependencies(code))
	assert.Empty(t, ScanDependencies("export default function Page() {}"))
}

// ==========================
// Rendering
// ==========================

func TestRender_Form(t *testing.T) {
	r := newTestRenderer(t)
	code, err := r.Render(Component{
		Name:        "TalentProfileForm",
		Kind:        KindForm,
		Source:      "schema:talent",
		GeneratedAt: frozen,
		Title:       "Talent <Profile>",
		SubmitLabel: "Save",
		Fields: []Field{
			{Name: "fullName", Label: "Full Name", Control: ControlTextarea, Validator: ValidatorString},
			{Name: "age", Label: "Age", Control: ControlNumber, Validator: ValidatorNumber, Optional: true},
			{Name: "available", Label: "Available", Control: ControlCheckbox, Validator: ValidatorBoolean},
			{Name: "contact-email", Label: "Email", Control: ControlEmail, Validator: ValidatorEmail, Optional: true},
		},
	})
	require.NoError(t, err)

	assert.Contains(t, code, "generated by template-builder at 2024-05-01T12:00:00Z")
	assert.Contains(t, code, `fullName: z.string().min(1, { message: "Full Name is required" }),`)
	assert.Contains(t, code, "age: z.number().optional(),")
	assert.Contains(t, code, "available: z.boolean(),")
	assert.Contains(t, code, `"contact-email": z.string().email().optional(),`)
	assert.Equal(t, 1, strings.Count(code, "<textarea"))
	assert.Contains(t, code, `{...register("age", { valueAsNumber: true })}`)
	assert.Contains(t, code, `type="email"`)
	assert.Contains(t, code, `type="checkbox"`)
	assert.Contains(t, code, "Talent &lt;Profile&gt;")
	assert.Contains(t, code, "export function TalentProfileForm(")
	assert.Equal(t,
		[]string{"react", "react-hook-form", "@hookform/resolvers", "zod", "lucide-react"},
		ScanDependencies(code))
}

func TestRender_SearchAndPage(t *testing.T) {
	r := newTestRenderer(t)

	search, err := r.Render(Component{
		Name: "TalentSearch", Kind: KindSearch, GeneratedAt: frozen, Title: "Find talent",
		Filters: []Filter{{ID: "city", Label: "City"}, {ID: "height", Label: "Height"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(search, "<input"))
	assert.Contains(t, search, `update("city", event.target.value)`)
	assert.Equal(t, []string{"react", "lucide-react"}, ScanDependencies(search))

	page, err := r.Render(Component{
		Name: "CastingPage", Kind: KindPage, GeneratedAt: frozen, Title: "Casting", Description: "Open calls",
		Regions: []Region{{Name: "main", Role: RoleMain}, {Name: "sidebar", Role: RoleSidebar}},
	})
	require.NoError(t, err)
	assert.Contains(t, page, "export default function CastingPage()")
	assert.Contains(t, page, `data-zone="main" className="lg:col-span-3 space-y-6"`)
	assert.Contains(t, page, `data-zone="sidebar" className="lg:col-span-1 space-y-4"`)
	assert.Contains(t, page, "Open calls")
	assert.Empty(t, ScanDependencies(page))
}

func TestRender_Deterministic(t *testing.T) {
	r := newTestRenderer(t)
	c := Component{
		Name: "AForm", Kind: KindForm, GeneratedAt: frozen, SubmitLabel: "Go",
		Fields: []Field{{Name: "a", Label: "A", Control: ControlInput, Validator: ValidatorString}},
	}
	first, err := r.Render(c)
	require.NoError(t, err)
	second, err := r.Render(c)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRender_UnknownKind(t *testing.T) {
	r := newTestRenderer(t)
	_, err := r.Render(Component{Name: "X", Kind: "widget"})
	assert.Error(t, err)
}

func TestRender_SourceStaysInComment(t *testing.T) {
	r := newTestRenderer(t)
	for _, kind := range []Kind{KindForm, KindSearch, KindPage} {
		t.Run(string(kind), func(t *testing.T) {
			code, err := r.Render(Component{
				Name: "XThing", Kind: kind, GeneratedAt: frozen, SubmitLabel: "Go",
				Source: "page:p1\nthrow new Error('injected');\r\u2028x",
			})
			require.NoError(t, err)
			lines := strings.Split(code, "\n")
			assert.Equal(t, "// Source: page:p1 throw new Error('injected');  x", lines[1])
			for _, line := range lines[2:] {
				assert.NotContains(t, line, "injected")
			}
		})
	}
}
