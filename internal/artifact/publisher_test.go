package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "template-builder/internal/common/errors"
	"template-builder/internal/common/logger"
	"template-builder/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func result(path, code string) models.ComponentGenerationResult {
	return models.ComponentGenerationResult{
		Success:       true,
		ComponentName: filepath.Base(path),
		ComponentKind: "form",
		ComponentPath: path,
		ComponentCode: code,
		Dependencies:  []string{"react"},
		PerformanceMetrics: models.PerformanceMetrics{
			ComponentSize: len(code),
			Optimizations: []string{"static layout"},
		},
	}
}

func testManifest(buildID string, results []models.ComponentGenerationResult) Manifest {
	bc := models.BuildContext{TemplateID: "tpl-1", BuildID: buildID, Optimization: models.OptimizationProduction}
	return NewManifest(bc, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), results)
}

func readManifest(t *testing.T, dir string) Manifest {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	require.NoError(t, err)
	var m Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func stagingLeft(t *testing.T, root string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(root, ".staging-*"))
	require.NoError(t, err)
	return matches
}

// ==========================
// Core Functionality Tests
// ==========================

func TestPublisher_Publish(t *testing.T) {
	root := t.TempDir()
	p := NewPublisher(root, logger.NewTestLogger(t))
	results := []models.ComponentGenerationResult{
		result("components/forms/AForm.tsx", "export const a = 1;"),
		result("pages/HomePage.tsx", "export default function HomePage() {}"),
	}

	pub, err := p.Publish(context.Background(), testManifest("build-1", results), results)
	require.NoError(t, err)
	require.NoError(t, pub.Commit())

	target := filepath.Join(root, "tpl-1")
	for _, r := range results {
		data, err := os.ReadFile(filepath.Join(target, r.ComponentPath))
		require.NoError(t, err)
		assert.Equal(t, r.ComponentCode, string(data))
	}
	m := readManifest(t, target)
	require.Len(t, m.Components, 2)
	assert.Equal(t, "components/forms/AForm.tsx", m.Components[0].Path)
	assert.Equal(t, "2024-05-01T12:00:00Z", m.BuildTimestamp)
	assert.Equal(t, "production", m.Optimization)
	assert.Empty(t, stagingLeft(t, root))
}

func TestPublisher_ReplaceAndRollback(t *testing.T) {
	root := t.TempDir()
	p := NewPublisher(root, logger.NewTestLogger(t))
	first := []models.ComponentGenerationResult{result("pages/OldPage.tsx", "old")}
	pub, err := p.Publish(context.Background(), testManifest("build-1", first), first)
	require.NoError(t, err)
	require.NoError(t, pub.Commit())

	second := []models.ComponentGenerationResult{result("pages/NewPage.tsx", "new")}
	pub, err = p.Publish(context.Background(), testManifest("build-2", second), second)
	require.NoError(t, err)
	assert.NotEmpty(t, pub.Backup)
	assert.FileExists(t, filepath.Join(root, "tpl-1", "pages", "NewPage.tsx"))

	require.NoError(t, pub.Rollback())
	assert.FileExists(t, filepath.Join(root, "tpl-1", "pages", "OldPage.tsx"))
	assert.NoFileExists(t, filepath.Join(root, "tpl-1", "pages", "NewPage.tsx"))
	assert.Equal(t, "build-1", readManifest(t, filepath.Join(root, "tpl-1")).BuildID)
	assert.NoDirExists(t, pub.Backup)

	// a second call is a no-op
	assert.NoError(t, pub.Rollback())
	assert.NoError(t, pub.Commit())
}

func TestPublisher_FailureLeavesNoTree(t *testing.T) {
	tests := []struct {
		name    string
		results []models.ComponentGenerationResult
		inject  func(p *Publisher)
	}{
		{
			name:    "write error",
			results: []models.ComponentGenerationResult{result("pages/APage.tsx", "a"), result("pages/BPage.tsx", "b")},
			inject: func(p *Publisher) {
				calls := 0
				p.writeFile = func(name string, data []byte, perm os.FileMode) error {
					calls++
					if calls == 2 {
						return errors.New("disk full")
					}
					return os.WriteFile(name, data, perm)
				}
			},
		},
		{
			name:    "path escaping the output directory",
			results: []models.ComponentGenerationResult{result("../evil.tsx", "x")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			p := NewPublisher(root, logger.NewTestLogger(t))
			if tt.inject != nil {
				tt.inject(p)
			}

			pub, err := p.Publish(context.Background(), testManifest("build-x", tt.results), tt.results)
			assert.Nil(t, pub)
			assert.ErrorIs(t, err, apperrors.ErrFilesystemFailure)
			assert.NoDirExists(t, filepath.Join(root, "tpl-1"))
			assert.Empty(t, stagingLeft(t, root))
		})
	}
}

func TestPublisher_RefusesForeignTarget(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, target string)
		kept  string
	}{
		{
			name: "directory without manifest",
			setup: func(t *testing.T, target string) {
				require.NoError(t, os.MkdirAll(target, 0o755))
				require.NoError(t, os.WriteFile(filepath.Join(target, "precious.txt"), []byte("keep"), 0o644))
			},
			kept: "precious.txt",
		},
		{
			name: "regular file",
			setup: func(t *testing.T, target string) {
				require.NoError(t, os.WriteFile(target, []byte("keep"), 0o644))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			target := filepath.Join(root, "tpl-1")
			tt.setup(t, target)
			p := NewPublisher(root, logger.NewTestLogger(t))
			results := []models.ComponentGenerationResult{result("pages/APage.tsx", "a")}

			pub, err := p.Publish(context.Background(), testManifest("build-x", results), results)
			assert.Nil(t, pub)
			assert.ErrorIs(t, err, apperrors.ErrFilesystemFailure)
			assert.Empty(t, stagingLeft(t, root))
			backups, err := filepath.Glob(filepath.Join(root, ".backup-*"))
			require.NoError(t, err)
			assert.Empty(t, backups)
			assert.FileExists(t, filepath.Join(target, tt.kept))
		})
	}
}

func TestPublisher_CancelledKeepsPreviousTree(t *testing.T) {
	root := t.TempDir()
	p := NewPublisher(root, logger.NewTestLogger(t))
	first := []models.ComponentGenerationResult{result("pages/OldPage.tsx", "old")}
	pub, err := p.Publish(context.Background(), testManifest("build-1", first), first)
	require.NoError(t, err)
	require.NoError(t, pub.Commit())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Publish(ctx, testManifest("build-2", first), first)
	assert.ErrorIs(t, err, apperrors.ErrCancelled)
	assert.Equal(t, "build-1", readManifest(t, filepath.Join(root, "tpl-1")).BuildID)
}

func TestSummarize(t *testing.T) {
	a := Summarize([]models.ComponentGenerationResult{
		result("components/forms/AForm.tsx", "1234"),
		result("pages/HomePage.tsx", "12"),
		result("components/search/XSearch.tsx", "1"),
	})
	assert.Equal(t, []string{"components/forms/AForm.tsx", "components/search/XSearch.tsx"}, a.Components)
	assert.Equal(t, []string{"pages/HomePage.tsx"}, a.Pages)
	assert.Equal(t, 7, a.TotalSize)

	empty := Summarize(nil)
	assert.NotNil(t, empty.Components)
	assert.NotNil(t, empty.Pages)
}
