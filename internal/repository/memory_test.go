package repository

import (
	"context"
	"testing"
	"time"

	"template-builder/internal/common/errors"
	"template-builder/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuild(id, templateID string, started time.Time) *models.TemplateBuild {
	return &models.TemplateBuild{
		BuildID:        id,
		TemplateID:     templateID,
		Version:        "1.0.0",
		BuildStatus:    models.BuildStatusBuilding,
		BuildConfig:    models.BuildOptions{TemplateID: templateID, Optimization: models.OptimizationProduction},
		BuildStartedAt: started,
		RecordVersion:  1,
	}
}

// ==========================
// Catalog
// ==========================

func TestMemoryStore_Catalog(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.SaveTemplate(ctx, models.IndustryTemplate{
		ID: "tpl-1", Name: "Modeling",
		Components: []models.IndustryTemplateComponent{
			{ComponentType: models.ComponentTypeSchema, ComponentID: "s1", ComponentName: "talent"},
		},
	}))

	got, err := store.GetTemplateWithComponents(ctx, "tpl-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "tpl-1", got.Components[0].TemplateID)

	missing, err := store.GetTemplateWithComponents(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	schema, err := store.GetModelSchema(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, schema)

	module, err := store.GetModule(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, module)
}

// ==========================
// Build records
// ==========================

func TestMemoryStore_BuildTransitions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		run     func(t *testing.T, store *MemoryStore) error
		wantErr error
	}{
		{
			name: "complete with current version",
			run: func(t *testing.T, store *MemoryStore) error {
				return store.Complete(ctx, "b1", 1, models.BuildCompletion{CompletedAt: now, Duration: time.Second})
			},
		},
		{
			name: "stale version conflicts",
			run: func(t *testing.T, store *MemoryStore) error {
				return store.Complete(ctx, "b1", 7, models.BuildCompletion{CompletedAt: now})
			},
			wantErr: errors.ErrConflict,
		},
		{
			name: "terminal status is final",
			run: func(t *testing.T, store *MemoryStore) error {
				require.NoError(t, store.Fail(ctx, "b1", 1, models.BuildFailure{CompletedAt: now, ErrorLog: "boom", ErrorKind: "GENERATION_FAILED"}))
				return store.Complete(ctx, "b1", 2, models.BuildCompletion{CompletedAt: now})
			},
			wantErr: errors.ErrTerminalState,
		},
		{
			name: "unknown build",
			run: func(t *testing.T, store *MemoryStore) error {
				return store.Fail(ctx, "missing", 1, models.BuildFailure{CompletedAt: now})
			},
			wantErr: errors.ErrNotFound,
		},
		{
			name: "duplicate create",
			run: func(t *testing.T, store *MemoryStore) error {
				return store.Create(ctx, newBuild("b1", "tpl-1", now))
			},
			wantErr: errors.ErrDuplicateBuild,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			require.NoError(t, store.Create(ctx, newBuild("b1", "tpl-1", now)))

			err := tt.run(t, store)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			rec, err := store.Get(ctx, "b1")
			require.NoError(t, err)
			assert.Equal(t, models.BuildStatusCompleted, rec.BuildStatus)
			assert.Equal(t, 2, rec.RecordVersion)
			require.NotNil(t, rec.BuildDuration)
			assert.Equal(t, int64(1000), *rec.BuildDuration)
		})
	}
}

func TestMemoryStore_Listing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Create(ctx, newBuild("old", "tpl-1", base)))
	require.NoError(t, store.Create(ctx, newBuild("new", "tpl-1", base.Add(time.Hour))))
	require.NoError(t, store.Create(ctx, newBuild("other", "tpl-2", base)))
	require.NoError(t, store.Complete(ctx, "new", 1, models.BuildCompletion{CompletedAt: base.Add(2 * time.Hour)}))

	builds, err := store.ListByTemplate(ctx, "tpl-1")
	require.NoError(t, err)
	require.Len(t, builds, 2)
	assert.Equal(t, "new", builds[0].BuildID)
	assert.Equal(t, "old", builds[1].BuildID)

	stale, err := store.ListStale(ctx, base.Add(30*time.Minute))
	require.NoError(t, err)
	ids := []string{}
	for _, b := range stale {
		ids = append(ids, b.BuildID)
	}
	assert.ElementsMatch(t, []string{"old", "other"}, ids)

	none, err := store.ListByTemplate(ctx, "tpl-9")
	require.NoError(t, err)
	assert.Empty(t, none)
}
