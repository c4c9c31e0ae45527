package build

import (
	"fmt"
	"math"

	"template-builder/internal/models"
)

const (
	baseImprovement = 2.0
	maxImprovement  = 6.0
)

// PerformanceImprovement estimates the speed-up from the optimization tags
// of the generated components: 2 plus the mean tag count, capped at 6.
func PerformanceImprovement(results []models.ComponentGenerationResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("%.1fx", baseImprovement)
	}
	tags := 0
	for _, r := range results {
		tags += len(r.PerformanceMetrics.Optimizations)
	}
	v := math.Min(baseImprovement+float64(tags)/float64(len(results)), maxImprovement)
	return fmt.Sprintf("%.1fx", v)
}
