// Package artifact writes generated components to disk so that a template's
// output directory is either fully replaced or left untouched.
package artifact

import (
	"strings"
	"time"

	"template-builder/internal/models"
)

// ManifestFile is written at the root of every published tree.
const ManifestFile = "manifest.json"

type Manifest struct {
	TemplateID     string          `json:"templateId"`
	BuildID        string          `json:"buildId"`
	BuildTimestamp string          `json:"buildTimestamp"`
	Optimization   string          `json:"optimization"`
	Components     []ManifestEntry `json:"components"`
}

type ManifestEntry struct {
	Path          string   `json:"path"`
	Name          string   `json:"name"`
	Kind          string   `json:"kind"`
	Size          int      `json:"size"`
	Dependencies  []string `json:"dependencies"`
	Optimizations []string `json:"optimizations"`
}

// NewManifest lists results in generation order.
func NewManifest(bc models.BuildContext, at time.Time, results []models.ComponentGenerationResult) Manifest {
	m := Manifest{
		TemplateID:     bc.TemplateID,
		BuildID:        bc.BuildID,
		BuildTimestamp: at.UTC().Format(time.RFC3339),
		Optimization:   string(bc.Optimization),
		Components:     make([]ManifestEntry, 0, len(results)),
	}
	for _, r := range results {
		m.Components = append(m.Components, ManifestEntry{
			Path:          r.ComponentPath,
			Name:          r.ComponentName,
			Kind:          r.ComponentKind,
			Size:          r.PerformanceMetrics.ComponentSize,
			Dependencies:  nonNil(r.Dependencies),
			Optimizations: nonNil(r.PerformanceMetrics.Optimizations),
		})
	}
	return m
}

// Summarize splits result paths into pages and components and totals their size.
func Summarize(results []models.ComponentGenerationResult) models.BuildArtifacts {
	a := models.BuildArtifacts{Components: []string{}, Pages: []string{}}
	for _, r := range results {
		if strings.HasPrefix(r.ComponentPath, "pages/") {
			a.Pages = append(a.Pages, r.ComponentPath)
		} else {
			a.Components = append(a.Components, r.ComponentPath)
		}
		a.TotalSize += r.PerformanceMetrics.ComponentSize
	}
	return a
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
