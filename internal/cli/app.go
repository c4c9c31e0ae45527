package cli

import (
	"context"
	"fmt"
	"time"

	"template-builder/internal/alert"
	"template-builder/internal/api"
	"template-builder/internal/build"
	"template-builder/internal/codegen"
	"template-builder/internal/common/aws"
	"template-builder/internal/common/config"
	"template-builder/internal/common/database"
	"template-builder/internal/common/logger"
	"template-builder/internal/common/observability"
	"template-builder/internal/generator"
	"template-builder/internal/history"
	"template-builder/internal/repository"
	"template-builder/pkg/catalog"
)

type appOptions struct {
	// connectAttempts bounds the start-up retries for each backing service.
	connectAttempts int
	// observe wires the Prometheus meter and the tracer.
	observe bool
}

// app holds every collaborator of one command invocation.
type app struct {
	cfg       *config.Config
	log       logger.Logger
	reader    repository.Reader
	builds    repository.BuildRepo
	writer    catalog.Writer
	sqlStore  *repository.SQLStore
	generator *generator.ComponentGenerator
	service   *build.Service
	obs       *observability.Observability
	checks    map[string]api.ReadinessCheck
	closers   []func() error
}

func newApp(ctx context.Context, cfg *config.Config, log logger.Logger, opts appOptions) (*app, error) {
	if opts.connectAttempts < 1 {
		opts.connectAttempts = 1
	}
	a := &app{cfg: cfg, log: log, checks: make(map[string]api.ReadinessCheck)}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	if err := a.openStore(ctx, opts); err != nil {
		return nil, err
	}

	var lock build.Lock = build.NewLocalLock()
	if cfg.Database.Redis.Enabled {
		var rc *database.RedisClient
		err := retryWithBackoff(ctx, func() error {
			var err error
			if rc, err = database.NewRedis(cfg.Database.Redis); err != nil {
				return err
			}
			if err := rc.Ping(ctx); err != nil {
				rc.Close()
				return err
			}
			return nil
		}, opts.connectAttempts, 2*time.Second, log, "Redis connection")
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rc.Close)
		a.checks["redis"] = rc.Ping
		a.reader = repository.NewCachedReader(a.reader, rc.GetClient(), cfg.Cache.Prefix, config.GetDuration(cfg.Cache.TTL), log)
		lock = build.NewRedisLock(rc.GetClient(), cfg.Cache.Prefix)
		log.Info("Redis connected successfully", nil)
	}

	alerter, err := newAlerter(ctx, cfg.Alerts, log)
	if err != nil {
		return nil, err
	}

	var sink history.Sink = history.NopSink{}
	if cfg.History.Enabled {
		es, err := database.NewElasticsearch(cfg.History)
		if err != nil {
			return nil, err
		}
		a.checks["elasticsearch"] = func(ctx context.Context) error { return database.PingElasticsearch(ctx, es) }
		sink = history.NewElasticSink(es, cfg.History.Index, log)
	}

	a.obs = observability.NewNoop()
	if opts.observe {
		a.obs = observability.New(cfg.App.Name, cfg.Tracing)
		a.closers = append(a.closers, func() error { a.obs.Shutdown(); return nil })
	}

	a.generator = generator.NewComponentGenerator(a.reader, codegen.MustRenderer(),
		generator.Options{NameCollision: cfg.Build.NameCollision}, log)
	a.service = build.NewService(cfg.Build, build.Dependencies{
		Templates:     a.reader,
		Builds:        a.builds,
		Generator:     a.generator,
		Lock:          lock,
		Alerter:       alerter,
		History:       sink,
		Observability: a.obs,
	}, log)

	ok = true
	return a, nil
}

func (a *app) openStore(ctx context.Context, opts appOptions) error {
	if catalogFlag != "" {
		c, err := loadCatalog(catalogFlag)
		if err != nil {
			return err
		}
		mem := repository.NewMemoryStore()
		if err := catalog.Seed(ctx, mem, c); err != nil {
			return err
		}
		a.reader, a.builds, a.writer = mem, mem, mem
		a.log.Info("Using in-memory catalog", map[string]interface{}{
			"catalog":   catalogFlag,
			"templates": len(c.Templates),
		})
		return nil
	}

	var db *database.SQLClient
	err := retryWithBackoff(ctx, func() error {
		var err error
		if db, err = database.Open(a.cfg.Database); err != nil {
			return err
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return err
		}
		return nil
	}, opts.connectAttempts, 2*time.Second, a.log, "Database connection")
	if err != nil {
		return err
	}
	a.closers = append(a.closers, db.Close)
	a.checks["database"] = db.Ping

	store := repository.NewSQLStore(db.GetDB(), db.Driver, a.log)
	if db.Driver == config.DriverSQLite {
		if err := store.Migrate(ctx); err != nil {
			return err
		}
	}
	a.sqlStore = store
	a.reader, a.builds, a.writer = store, store, store
	a.log.Info("Database connected successfully", map[string]interface{}{"driver": db.Driver})
	return nil
}

func newAlerter(ctx context.Context, cfg config.AlertsConfig, log logger.Logger) (alert.Alerter, error) {
	alerters := alert.Multi{alert.NewLogAlerter(log)}
	if cfg.SNS.Enabled {
		client, err := aws.NewSNSClient(ctx, cfg.Region)
		if err != nil {
			return nil, err
		}
		alerters = append(alerters, alert.NewSNSAlerter(client, cfg.SNS.TopicARN))
	}
	if cfg.SES.Enabled {
		client, err := aws.NewSESClient(ctx, cfg.Region)
		if err != nil {
			return nil, err
		}
		alerters = append(alerters, alert.NewSESAlerter(client, cfg.SES.From, cfg.SES.To))
	}
	return alerters, nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	c, err := catalog.Load(path)
	if err != nil {
		return nil, err
	}
	if issues := catalog.Validate(c); len(issues) > 0 {
		return nil, fmt.Errorf("catalog %s has %d issue(s), first: %s", path, len(issues), issues[0])
	}
	return c, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("Error during shutdown", map[string]interface{}{"error": err.Error()})
		}
	}
	a.closers = nil
}
