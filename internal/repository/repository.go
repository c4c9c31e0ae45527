// Package repository holds the read side of the template catalog and the
// build record store.
package repository

import (
	"context"
	"time"

	"template-builder/internal/models"
)

// TemplateRepo loads a template with its ordered components. A missing
// template is reported as (nil, nil).
type TemplateRepo interface {
	GetTemplateWithComponents(ctx context.Context, id string) (*models.IndustryTemplate, error)
}

// SchemaRepo loads model schemas. A missing schema is (nil, nil).
type SchemaRepo interface {
	GetModelSchema(ctx context.Context, id string) (*models.ModelSchema, error)
}

// ModuleRepo loads module configurations. A missing module is (nil, nil).
type ModuleRepo interface {
	GetModule(ctx context.Context, id string) (*models.Module, error)
}

// Reader is the full catalog read surface used by the generator.
type Reader interface {
	TemplateRepo
	SchemaRepo
	ModuleRepo
}

// CatalogWriter stores catalog definitions. Saving an existing ID replaces it.
type CatalogWriter interface {
	SaveTemplate(ctx context.Context, t models.IndustryTemplate) error
	SaveSchema(ctx context.Context, s models.ModelSchema) error
	SaveModule(ctx context.Context, m models.Module) error
}

// BuildRepo persists TemplateBuild records. Terminal writes are conditional
// on expectedVersion and on the record still being in building state.
type BuildRepo interface {
	Create(ctx context.Context, b *models.TemplateBuild) error
	Complete(ctx context.Context, buildID string, expectedVersion int, patch models.BuildCompletion) error
	Fail(ctx context.Context, buildID string, expectedVersion int, failure models.BuildFailure) error
	// Get returns (nil, nil) for an unknown build.
	Get(ctx context.Context, buildID string) (*models.TemplateBuild, error)
	// ListByTemplate orders by start time, newest first.
	ListByTemplate(ctx context.Context, templateID string) ([]models.TemplateBuild, error)
	// ListStale returns builds still in building state that started before the cutoff.
	ListStale(ctx context.Context, before time.Time) ([]models.TemplateBuild, error)
}
