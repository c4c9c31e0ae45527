package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"template-builder/internal/api"
	"template-builder/internal/common/camunda"
	"template-builder/internal/common/config"
	templatebuild "template-builder/internal/workers/template-build"

	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the Zeebe worker and the stale build reconciler",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if addr == "" {
				addr = cfg.Server.Address
			}
			return serve(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default server.address)")
	return cmd
}

func serve(ctx context.Context, addr string) error {
	log.Info("Starting template builder...", map[string]interface{}{
		"environment": cfg.App.Environment,
		"version":     cfg.App.Version,
	})

	a, err := newApp(ctx, cfg, log, appOptions{connectAttempts: 15, observe: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Camunda.Enabled {
		var zc *camunda.Client
		err := retryWithBackoff(ctx, func() error {
			var err error
			zc, err = camunda.NewClient(cfg.Camunda)
			return err
		}, 10, 2*time.Second, log, "Zeebe client initialization")
		if err != nil {
			return err
		}
		defer zc.Close()
		a.checks["zeebe"] = zc.HealthCheck

		handler := templatebuild.NewHandler(templatebuild.LoadConfig(cfg.Camunda), a.service, log)
		w := camunda.NewWorker(zc.GetClient(), templatebuild.TaskType, cfg.Camunda.MaxJobsActive, handler, log)
		defer w.Stop()
		log.Info("Zeebe client connected successfully", nil)
	}

	if cfg.Build.ReconcileInterval > 0 {
		go a.service.RunReconciler(ctx,
			config.GetDuration(cfg.Build.ReconcileInterval),
			config.GetDuration(cfg.Build.StaleAfter))
	}

	srv := api.NewServer(a.service, a.checks, log)
	err = srv.Run(ctx, addr, config.GetDuration(cfg.Server.ShutdownTimeout))
	log.Info("Template builder stopped", nil)
	return err
}
