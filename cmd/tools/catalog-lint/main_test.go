package main

import (
	"bytes"
	"testing"

	"template-builder/internal/models"
	"template-builder/pkg/catalog"

	"github.com/stretchr/testify/assert"
)

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Schemas: []models.ModelSchema{
			{ID: "s1", Type: "human_model", SubType: "fashion"},
			{ID: "s2", Type: "human_model", SubType: "fashion"},
		},
		Modules: []models.Module{
			{ID: "m1", ModuleType: models.ModuleTypeSearchInterface, Name: "talent"},
			{ID: "m2", ModuleType: models.ModuleTypeListingPage, Name: "listing"},
		},
		Templates: []models.IndustryTemplate{
			{ID: "modeling", Version: "1.0.0", Components: []models.IndustryTemplateComponent{
				{ComponentType: models.ComponentTypeSchema, ComponentID: "s1"},
				{ComponentType: models.ComponentTypeSchema, ComponentID: "s2"},
				{ComponentType: models.ComponentTypeModule, ComponentID: "m1"},
				{ComponentType: models.ComponentTypeModule, ComponentID: "m2"},
				{ComponentType: models.ComponentTypePage, ComponentID: "p1", ComponentName: "casting"},
				{ComponentType: "widget", ComponentID: "w1"},
			}},
		},
	}
}

func TestDeriveNames(t *testing.T) {
	c := testCatalog()
	names := deriveNames(c, c.Templates[0])

	assert.Len(t, names, 6)
	assert.Equal(t, "HumanmodelfashionForm", names[0].Name)
	assert.Equal(t, "HumanmodelfashionForm", names[1].Name)
	assert.Equal(t, "TalentSearch", names[2].Name)
	assert.Equal(t, "skipped: listing_page", names[3].Note)
	assert.Equal(t, "CastingPage", names[4].Name)
	assert.Empty(t, names[5].Name)
}

func TestRunNames(t *testing.T) {
	var out bytes.Buffer
	collisions := runNames(&out, testCatalog(), "")

	assert.Equal(t, 1, collisions)
	assert.Contains(t, out.String(), "modeling (1.0.0)")
	assert.Contains(t, out.String(), "[collides with s1]")

	out.Reset()
	assert.Equal(t, 0, runNames(&out, testCatalog(), "other"))
	assert.Empty(t, out.String())
}

func TestRunValidate(t *testing.T) {
	var out bytes.Buffer
	c := testCatalog()
	assert.Equal(t, 0, runValidate(&out, c))

	c.Templates[0].Components = append(c.Templates[0].Components,
		models.IndustryTemplateComponent{ComponentType: models.ComponentTypeSchema, ComponentID: "nope"})
	assert.Equal(t, 1, runValidate(&out, c))
	assert.Contains(t, out.String(), `unknown schema "nope"`)
}
