package cli

import (
	"fmt"

	"template-builder/internal/models"

	"github.com/spf13/cobra"
)

// NewBuildCmd creates the build command.
func NewBuildCmd() *cobra.Command {
	var (
		templateID   string
		tenantID     string
		optimization string
		outputPath   string
		artifacts    bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a template's components",
		Example: `  template-builder build --template modeling-agency --artifacts
  template-builder build --template modeling-agency --optimization development --output ./out`,
		RunE: func(cmd *cobra.Command, args []string) error {
			buildCfg := cfg
			if outputPath != "" {
				c := *cfg
				c.Build.OutputPath = outputPath
				buildCfg = &c
			}
			a, err := newApp(cmd.Context(), buildCfg, log, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			res := a.service.BuildTemplate(cmd.Context(), models.BuildOptions{
				TemplateID:      templateID,
				TenantID:        tenantID,
				Optimization:    models.OptimizationMode(optimization),
				CreateArtifacts: artifacts,
			})
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("build failed: %s", res.ErrorKind)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&templateID, "template", "", "Template id to build")
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant the build is for")
	cmd.Flags().StringVar(&optimization, "optimization", "", "development or production (default from config)")
	cmd.Flags().StringVar(&outputPath, "output", "", "Artifact root directory, overriding build.output_path")
	cmd.Flags().BoolVar(&artifacts, "artifacts", false, "Write component files and manifest")
	_ = cmd.MarkFlagRequired("template")

	return cmd
}
