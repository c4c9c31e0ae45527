package models

import (
	"encoding/json"
	"time"
)

// OptimizationMode is the build flavour requested by the caller.
type OptimizationMode string

const (
	OptimizationDevelopment OptimizationMode = "development"
	OptimizationProduction  OptimizationMode = "production"
)

// BuildStatus moves from building to exactly one of completed or failed.
type BuildStatus string

const (
	BuildStatusBuilding  BuildStatus = "building"
	BuildStatusCompleted BuildStatus = "completed"
	BuildStatusFailed    BuildStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s BuildStatus) Terminal() bool {
	return s == BuildStatusCompleted || s == BuildStatusFailed
}

// BuildOptions is the caller-supplied request for one build.
type BuildOptions struct {
	TemplateID      string           `json:"templateId"`
	TenantID        string           `json:"tenantId,omitempty"`
	Optimization    OptimizationMode `json:"optimization"`
	OutputPath      string           `json:"outputPath,omitempty"`
	CreateArtifacts bool             `json:"createArtifacts,omitempty"`
}

// BuildContext is owned by one build invocation and never persisted directly.
type BuildContext struct {
	TemplateID   string
	TenantID     string
	BuildID      string
	OutputPath   string
	Optimization OptimizationMode
}

// PerformanceMetrics describes a single emitted component.
type PerformanceMetrics struct {
	GenerationTime time.Duration `json:"-"`
	ComponentSize  int           `json:"componentSize"`
	Optimizations  []string      `json:"optimizations"`
}

// MarshalJSON reports GenerationTime in milliseconds.
func (p PerformanceMetrics) MarshalJSON() ([]byte, error) {
	type alias PerformanceMetrics
	return json.Marshal(struct {
		alias
		GenerationTimeMs float64 `json:"generationTime"`
	}{
		alias:            alias(p),
		GenerationTimeMs: float64(p.GenerationTime.Microseconds()) / 1000,
	})
}

// ComponentGenerationResult is one generated component.
type ComponentGenerationResult struct {
	Success            bool               `json:"success"`
	ComponentName      string             `json:"componentName"`
	ComponentKind      string             `json:"componentKind"`
	ComponentPath      string             `json:"componentPath"`
	ComponentCode      string             `json:"componentCode"`
	SourceComponentID  string             `json:"sourceComponentId,omitempty"`
	Dependencies       []string           `json:"dependencies"`
	PerformanceMetrics PerformanceMetrics `json:"performanceMetrics"`
}

// SkippedComponent records a component left out of a build without failing it.
type SkippedComponent struct {
	ComponentID   string `json:"componentId"`
	ComponentType string `json:"componentType"`
	Kind          string `json:"kind"`
	Reason        string `json:"reason"`
}

// BuildArtifacts lists what a build produced.
type BuildArtifacts struct {
	Components []string `json:"components"`
	Pages      []string `json:"pages"`
	TotalSize  int      `json:"totalSize"`
}

// BuildResult is the stable response shape of BuildTemplate.
type BuildResult struct {
	Success                bool               `json:"success"`
	BuildID                string             `json:"buildId"`
	BuildTime              int64              `json:"buildTime"`
	ComponentsGenerated    int                `json:"componentsGenerated"`
	PerformanceImprovement string             `json:"performanceImprovement"`
	Artifacts              BuildArtifacts     `json:"artifacts"`
	Errors                 []string           `json:"errors,omitempty"`
	ErrorKind              string             `json:"errorKind,omitempty"`
	Skipped                []SkippedComponent `json:"skipped,omitempty"`
}

// TemplateBuild is the persistent provenance record of one build.
type TemplateBuild struct {
	BuildID            string                 `json:"buildId"`
	TemplateID         string                 `json:"templateId"`
	TenantID           string                 `json:"tenantId,omitempty"`
	Version            string                 `json:"version"`
	BuildStatus        BuildStatus            `json:"buildStatus"`
	BuildConfig        BuildOptions           `json:"buildConfig"`
	BuildStartedAt     time.Time              `json:"buildStartedAt"`
	BuildCompletedAt   *time.Time             `json:"buildCompletedAt,omitempty"`
	BuildDuration      *int64                 `json:"buildDuration,omitempty"`
	Artifacts          *BuildArtifacts        `json:"artifacts,omitempty"`
	PerformanceMetrics map[string]interface{} `json:"performanceMetrics,omitempty"`
	ErrorLog           string                 `json:"errorLog,omitempty"`
	ErrorKind          string                 `json:"errorKind,omitempty"`
	RecordVersion      int                    `json:"recordVersion"`
}

// BuildCompletion is the terminal patch applied to a successful build.
type BuildCompletion struct {
	CompletedAt        time.Time
	Duration           time.Duration
	Artifacts          BuildArtifacts
	PerformanceMetrics map[string]interface{}
}

// BuildFailure is the terminal patch applied to a failed build.
type BuildFailure struct {
	CompletedAt time.Time
	Duration    time.Duration
	ErrorLog    string
	ErrorKind   string
}
