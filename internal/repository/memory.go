package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"template-builder/internal/common/errors"
	"template-builder/internal/models"
)

// MemoryStore implements every repository interface in process. It backs
// catalog-file mode and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	templates map[string]models.IndustryTemplate
	schemas   map[string]models.ModelSchema
	modules   map[string]models.Module
	builds    map[string]models.TemplateBuild
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		templates: make(map[string]models.IndustryTemplate),
		schemas:   make(map[string]models.ModelSchema),
		modules:   make(map[string]models.Module),
		builds:    make(map[string]models.TemplateBuild),
	}
}

func (m *MemoryStore) GetTemplateWithComponents(ctx context.Context, id string) (*models.IndustryTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.templates[id]
	if !ok {
		return nil, nil
	}
	t.Components = append([]models.IndustryTemplateComponent(nil), t.Components...)
	return &t, nil
}

func (m *MemoryStore) GetModelSchema(ctx context.Context, id string) (*models.ModelSchema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.schemas[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MemoryStore) GetModule(ctx context.Context, id string) (*models.Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	mod, ok := m.modules[id]
	if !ok {
		return nil, nil
	}
	return &mod, nil
}

func (m *MemoryStore) SaveTemplate(_ context.Context, t models.IndustryTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range t.Components {
		t.Components[i].TemplateID = t.ID
	}
	m.templates[t.ID] = t
	return nil
}

func (m *MemoryStore) SaveSchema(_ context.Context, s models.ModelSchema) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schemas[s.ID] = s
	return nil
}

func (m *MemoryStore) SaveModule(_ context.Context, mod models.Module) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modules[mod.ID] = mod
	return nil
}

// Create rejects an existing buildId with DUPLICATE_BUILD.
func (m *MemoryStore) Create(ctx context.Context, b *models.TemplateBuild) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.builds[b.BuildID]; exists {
		return errors.NewDuplicateBuildError(b.BuildID, nil)
	}
	rec := *b
	if rec.RecordVersion == 0 {
		rec.RecordVersion = 1
	}
	m.builds[b.BuildID] = rec
	return nil
}

func (m *MemoryStore) Complete(ctx context.Context, buildID string, expectedVersion int, patch models.BuildCompletion) error {
	return m.transition(ctx, buildID, expectedVersion, func(rec *models.TemplateBuild) {
		completedAt := patch.CompletedAt
		duration := patch.Duration.Milliseconds()
		artifacts := patch.Artifacts
		rec.BuildStatus = models.BuildStatusCompleted
		rec.BuildCompletedAt = &completedAt
		rec.BuildDuration = &duration
		rec.Artifacts = &artifacts
		rec.PerformanceMetrics = patch.PerformanceMetrics
	})
}

func (m *MemoryStore) Fail(ctx context.Context, buildID string, expectedVersion int, failure models.BuildFailure) error {
	return m.transition(ctx, buildID, expectedVersion, func(rec *models.TemplateBuild) {
		completedAt := failure.CompletedAt
		duration := failure.Duration.Milliseconds()
		rec.BuildStatus = models.BuildStatusFailed
		rec.BuildCompletedAt = &completedAt
		rec.BuildDuration = &duration
		rec.ErrorLog = failure.ErrorLog
		rec.ErrorKind = failure.ErrorKind
	})
}

func (m *MemoryStore) transition(ctx context.Context, buildID string, expectedVersion int, apply func(*models.TemplateBuild)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.builds[buildID]
	switch {
	case !ok:
		return errors.NewNotFoundError("build", buildID)
	case rec.BuildStatus.Terminal():
		return errors.NewTerminalStateError(buildID, string(rec.BuildStatus))
	case rec.RecordVersion != expectedVersion:
		return errors.NewConflictError(buildID, expectedVersion)
	}
	apply(&rec)
	rec.RecordVersion++
	m.builds[buildID] = rec
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, buildID string) (*models.TemplateBuild, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.builds[buildID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *MemoryStore) ListByTemplate(ctx context.Context, templateID string) ([]models.TemplateBuild, error) {
	return m.list(ctx, func(b models.TemplateBuild) bool { return b.TemplateID == templateID })
}

func (m *MemoryStore) ListStale(ctx context.Context, before time.Time) ([]models.TemplateBuild, error) {
	return m.list(ctx, func(b models.TemplateBuild) bool {
		return b.BuildStatus == models.BuildStatusBuilding && b.BuildStartedAt.Before(before)
	})
}

func (m *MemoryStore) list(ctx context.Context, keep func(models.TemplateBuild) bool) ([]models.TemplateBuild, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := make([]models.TemplateBuild, 0)
	for _, b := range m.builds {
		if keep(b) {
			out = append(out, b)
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].BuildStartedAt.Equal(out[j].BuildStartedAt) {
			return out[i].BuildID > out[j].BuildID
		}
		return out[i].BuildStartedAt.After(out[j].BuildStartedAt)
	})
	return out, nil
}
