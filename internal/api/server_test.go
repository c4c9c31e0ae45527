package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"template-builder/internal/common/errors"
	"template-builder/internal/common/logger"
	"template-builder/internal/generator"
	"template-builder/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type mockService struct {
	BuildTemplateFunc     func(ctx context.Context, opts models.BuildOptions) *models.BuildResult
	GetBuildStatusFunc    func(ctx context.Context, buildID string) (*models.TemplateBuild, error)
	GetTemplateBuildsFunc func(ctx context.Context, templateID string) ([]models.TemplateBuild, error)
	PreviewTemplateFunc   func(ctx context.Context, templateID string) (*generator.Generation, error)
}

func (m *mockService) BuildTemplate(ctx context.Context, opts models.BuildOptions) *models.BuildResult {
	return m.BuildTemplateFunc(ctx, opts)
}

func (m *mockService) GetBuildStatus(ctx context.Context, buildID string) (*models.TemplateBuild, error) {
	return m.GetBuildStatusFunc(ctx, buildID)
}

func (m *mockService) GetTemplateBuilds(ctx context.Context, templateID string) ([]models.TemplateBuild, error) {
	return m.GetTemplateBuildsFunc(ctx, templateID)
}

func (m *mockService) PreviewTemplate(ctx context.Context, templateID string) (*generator.Generation, error) {
	return m.PreviewTemplateFunc(ctx, templateID)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// ==========================
// Builds
// ==========================

func TestCreateBuild(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		result         *models.BuildResult
		expectedStatus int
		validateOutput func(t *testing.T, body map[string]interface{}, got models.BuildOptions)
	}{
		{
			name:           "success",
			body:           `{"templateId":"modeling","optimization":"production","createArtifacts":true}`,
			result:         &models.BuildResult{Success: true, BuildID: "build-modeling-1-abcdef", PerformanceImprovement: "2.0x"},
			expectedStatus: http.StatusCreated,
			validateOutput: func(t *testing.T, body map[string]interface{}, got models.BuildOptions) {
				assert.Equal(t, "modeling", got.TemplateID)
				assert.True(t, got.CreateArtifacts)
				assert.Equal(t, true, body["success"])
				assert.Equal(t, "build-modeling-1-abcdef", body["buildId"])
			},
		},
		{
			name:           "template not found",
			body:           `{"templateId":"nope","optimization":"production"}`,
			result:         &models.BuildResult{Success: false, ErrorKind: string(errors.ErrCodeNotFound), Errors: []string{"missing"}},
			expectedStatus: http.StatusNotFound,
			validateOutput: func(t *testing.T, body map[string]interface{}, _ models.BuildOptions) {
				assert.Equal(t, false, body["success"])
				assert.Equal(t, "NOT_FOUND", body["errorKind"])
			},
		},
		{
			name:           "validation failure",
			body:           `{"templateId":"../x"}`,
			result:         &models.BuildResult{Success: false, ErrorKind: string(errors.ErrCodeValidationFailed)},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "lock held",
			body:           `{"templateId":"modeling"}`,
			result:         &models.BuildResult{Success: false, ErrorKind: string(errors.ErrCodeBuildInProgress)},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "persistence failure",
			body:           `{"templateId":"modeling"}`,
			result:         &models.BuildResult{Success: false, ErrorKind: string(errors.ErrCodePersistenceFailure)},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "malformed body",
			body:           `{"templateId":`,
			expectedStatus: http.StatusBadRequest,
			validateOutput: func(t *testing.T, body map[string]interface{}, _ models.BuildOptions) {
				assert.Equal(t, "VALIDATION_FAILED", body["code"])
			},
		},
		{
			name:           "unknown field",
			body:           `{"templateId":"modeling","turbo":true}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got models.BuildOptions
			svc := &mockService{BuildTemplateFunc: func(_ context.Context, opts models.BuildOptions) *models.BuildResult {
				got = opts
				return tt.result
			}}
			h := NewServer(svc, nil, logger.NewTestLogger(t)).Routes()

			rec := do(t, h, http.MethodPost, "/v1/builds", tt.body)
			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.validateOutput != nil {
				tt.validateOutput(t, body, got)
			}
		})
	}
}

func TestGetBuild(t *testing.T) {
	svc := &mockService{GetBuildStatusFunc: func(_ context.Context, id string) (*models.TemplateBuild, error) {
		if id == "build-a" {
			return &models.TemplateBuild{BuildID: id, TemplateID: "modeling", BuildStatus: models.BuildStatusCompleted}, nil
		}
		return nil, errors.NewNotFoundError("build", id)
	}}
	h := NewServer(svc, nil, logger.NewTestLogger(t)).Routes()

	rec := do(t, h, http.MethodGet, "/v1/builds/build-a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.TemplateBuild
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, models.BuildStatusCompleted, got.BuildStatus)

	rec = do(t, h, http.MethodGet, "/v1/builds/build-b", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)
}

func TestListTemplateBuilds(t *testing.T) {
	var asked string
	svc := &mockService{GetTemplateBuildsFunc: func(_ context.Context, id string) ([]models.TemplateBuild, error) {
		asked = id
		if id == "down" {
			return nil, errors.NewPersistenceFailureError("list build records", stderrors.New("db gone"))
		}
		return []models.TemplateBuild{{BuildID: "b2"}, {BuildID: "b1"}}, nil
	}}
	h := NewServer(svc, nil, logger.NewTestLogger(t)).Routes()

	rec := do(t, h, http.MethodGet, "/v1/templates/modeling/builds", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "modeling", asked)
	var got []models.TemplateBuild
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "b2", got[0].BuildID)

	rec = do(t, h, http.MethodGet, "/v1/templates/down/builds", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPreviewComponents(t *testing.T) {
	svc := &mockService{PreviewTemplateFunc: func(_ context.Context, id string) (*generator.Generation, error) {
		if id != "modeling" {
			return nil, errors.NewNotFoundError("template", id)
		}
		return &generator.Generation{
			Template: &models.IndustryTemplate{ID: id, Version: "1.0.0"},
			Results:  []models.ComponentGenerationResult{{Success: true, ComponentName: "CastingPage", ComponentPath: "pages/CastingPage.tsx"}},
		}, nil
	}}
	h := NewServer(svc, nil, logger.NewTestLogger(t)).Routes()

	rec := do(t, h, http.MethodGet, "/v1/templates/modeling/components", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got previewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "1.0.0", got.Version)
	require.Len(t, got.Components, 1)
	assert.Equal(t, "CastingPage", got.Components[0].ComponentName)
	assert.NotNil(t, got.Skipped)

	rec = do(t, h, http.MethodGet, "/v1/templates/other/components", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ==========================
// Health
// ==========================

func TestHealthAndReady(t *testing.T) {
	healthy := map[string]ReadinessCheck{"database": func(context.Context) error { return nil }}
	h := NewServer(&mockService{}, healthy, logger.NewTestLogger(t)).Routes()

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"database":"ok"}`, rec.Body.String())

	failing := map[string]ReadinessCheck{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return stderrors.New("connection refused") },
	}
	h = NewServer(&mockService{}, failing, logger.NewTestLogger(t)).Routes()
	rec = do(t, h, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"database":"ok","redis":"connection refused"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewServer(&mockService{}, nil, logger.NewTestLogger(t)).Routes()
	rec := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
