package templatebuild

import "template-builder/internal/models"

// Input is the job's variables.
type Input = models.BuildOptions

// Output is merged into the process variables on completion.
type Output struct {
	models.BuildResult
}
