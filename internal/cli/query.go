package cli

import (
	"github.com/spf13/cobra"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <buildId>",
		Short: "Show one build record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cfg, log, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.service.GetBuildStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
}

// NewBuildsCmd creates the builds command.
func NewBuildsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "builds <templateId>",
		Short: "List a template's builds, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cfg, log, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			builds, err := a.service.GetTemplateBuilds(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), builds)
		},
	}
}

// NewPreviewCmd creates the preview command.
func NewPreviewCmd() *cobra.Command {
	var showCode bool

	cmd := &cobra.Command{
		Use:   "preview <templateId>",
		Short: "Generate components without recording a build or writing files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cfg, log, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			gen, err := a.service.PreviewTemplate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !showCode {
				for i := range gen.Results {
					gen.Results[i].ComponentCode = ""
				}
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"templateId": gen.Template.ID,
				"version":    gen.Template.Version,
				"components": gen.Results,
				"skipped":    gen.Skipped,
			})
		},
	}
	cmd.Flags().BoolVar(&showCode, "code", false, "Include the generated source")
	return cmd
}
