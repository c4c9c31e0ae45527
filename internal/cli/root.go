// Package cli implements the template-builder command tree.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"template-builder/internal/common/config"
	"template-builder/internal/common/logger"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFlag   string
	catalogFlag  string
	logLevelFlag string

	// Resolved during PersistentPreRunE
	cfg *config.Config
	log logger.Logger
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "template-builder",
		Short:         "Generate UI components from industry templates",
		Long:          `template-builder turns stored industry templates into form, search and page components and records every build.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeGlobals()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config file (default: configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&catalogFlag, "catalog", "", "Serve templates from this catalog file in memory instead of the database")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(NewBuildCmd())
	rootCmd.AddCommand(NewStatusCmd())
	rootCmd.AddCommand(NewBuildsCmd())
	rootCmd.AddCommand(NewPreviewCmd())
	rootCmd.AddCommand(NewSeedCmd())
	rootCmd.AddCommand(NewMigrateCmd())
	rootCmd.AddCommand(NewReconcileCmd())
	rootCmd.AddCommand(NewServeCmd())

	return rootCmd
}

func initializeGlobals() error {
	var err error
	if configFlag != "" {
		cfg, err = config.LoadFromFile(configFlag)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if logLevelFlag != "" {
		cfg.Logging.Level = logLevelFlag
	}
	log = logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
