// Package build runs template builds end to end: generation, artifact
// publication and the build record lifecycle.
package build

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"time"

	"template-builder/internal/alert"
	"template-builder/internal/artifact"
	"template-builder/internal/common/config"
	"template-builder/internal/common/errors"
	"template-builder/internal/common/logger"
	"template-builder/internal/common/metrics"
	"template-builder/internal/common/observability"
	"template-builder/internal/common/validation"
	"template-builder/internal/generator"
	"template-builder/internal/history"
	"template-builder/internal/models"
	"template-builder/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const terminalWriteTimeout = 30 * time.Second

// TemplateGenerator is the part of generator.ComponentGenerator the service uses.
type TemplateGenerator interface {
	Generate(ctx context.Context, tpl *models.IndustryTemplate) (*generator.Generation, error)
	GenerateTemplate(ctx context.Context, templateID string) (*generator.Generation, error)
}

// Dependencies are the collaborators of a Service. Lock, Alerter, History
// and Observability fall back to in-process or no-op versions when nil.
type Dependencies struct {
	Templates     repository.TemplateRepo
	Builds        repository.BuildRepo
	Generator     TemplateGenerator
	Lock          Lock
	Alerter       alert.Alerter
	History       history.Sink
	Observability *observability.Observability
	Clock         func() time.Time
}

type Service struct {
	cfg       config.BuildConfig
	templates repository.TemplateRepo
	builds    repository.BuildRepo
	generator TemplateGenerator
	lock      Lock
	alerter   alert.Alerter
	history   history.Sink
	obs       *observability.Observability
	clock     func() time.Time
	validator *validation.Validator
	log       logger.Logger
}

func NewService(cfg config.BuildConfig, deps Dependencies, log logger.Logger) *Service {
	s := &Service{
		cfg:       cfg,
		templates: deps.Templates,
		builds:    deps.Builds,
		generator: deps.Generator,
		lock:      deps.Lock,
		alerter:   deps.Alerter,
		history:   deps.History,
		obs:       deps.Observability,
		clock:     deps.Clock,
		validator: validation.MustValidator("build options", validation.BuildOptionsSchema),
		log:       logger.ForComponent(log, "build-service"),
	}
	if s.lock == nil {
		s.lock = NewLocalLock()
	}
	if s.alerter == nil {
		s.alerter = alert.NewLogAlerter(log)
	}
	if s.history == nil {
		s.history = history.NopSink{}
	}
	if s.obs == nil {
		s.obs = observability.NewNoop()
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	return s
}

// ==========================
// BuildTemplate
// ==========================

// BuildTemplate never returns an error: every failure is reported in the
// result with an error kind.
func (s *Service) BuildTemplate(ctx context.Context, opts models.BuildOptions) (result *models.BuildResult) {
	start := s.clock()
	opts = s.withDefaults(opts)

	metrics.BuildsInProgress.Inc()
	ctx, span := s.obs.StartSpan(ctx, "template.build",
		attribute.String("templateId", opts.TemplateID),
		attribute.Bool("createArtifacts", opts.CreateArtifacts),
	)
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Build panicked", map[string]interface{}{"templateId": opts.TemplateID, "panic": fmt.Sprint(r)})
			result = s.failure("", start, errors.NewGenerationFailedError(fmt.Errorf("panic: %v", r)))
		}
		metrics.BuildsInProgress.Dec()
		s.observe(ctx, opts, result, start)
		if !result.Success {
			span.SetStatus(codes.Error, result.ErrorKind)
		}
		span.SetAttributes(attribute.String("buildId", result.BuildID))
		span.End()
	}()

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.GetDuration(s.cfg.Timeout))
		defer cancel()
	}
	return s.run(ctx, opts, start)
}

func (s *Service) withDefaults(opts models.BuildOptions) models.BuildOptions {
	if opts.Optimization == "" {
		opts.Optimization = models.OptimizationMode(s.cfg.DefaultOptimization)
	}
	if opts.Optimization == "" {
		opts.Optimization = models.OptimizationProduction
	}
	return opts
}

// artifactRoot confines a caller-supplied output path to a relative
// directory under the configured output root.
func (s *Service) artifactRoot(outputPath string) (string, error) {
	if s.cfg.OutputPath == "" {
		return "", fmt.Errorf("build.output_path is not configured")
	}
	if outputPath == "" {
		return s.cfg.OutputPath, nil
	}
	if filepath.IsAbs(outputPath) || !filepath.IsLocal(outputPath) {
		return "", fmt.Errorf("outputPath must be a relative path inside the output root")
	}
	return filepath.Join(s.cfg.OutputPath, outputPath), nil
}

func (s *Service) run(ctx context.Context, opts models.BuildOptions, start time.Time) *models.BuildResult {
	log := s.log.With(map[string]interface{}{"templateId": opts.TemplateID})

	check, err := s.validator.Validate(opts)
	if err != nil {
		return s.failure("", start, errors.NewValidationFailedError(err.Error()))
	}
	if !check.Valid {
		log.Warn("Rejected build options", map[string]interface{}{"errors": check.Summary()})
		return s.failure("", start, errors.NewValidationFailedError(check.Summary()))
	}
	root, err := s.artifactRoot(opts.OutputPath)
	if err != nil && (opts.CreateArtifacts || opts.OutputPath != "") {
		log.Warn("Rejected output path", map[string]interface{}{"outputPath": opts.OutputPath, "error": err.Error()})
		return s.failure("", start, errors.NewValidationFailedError(err.Error()))
	}

	tpl, err := s.templates.GetTemplateWithComponents(ctx, opts.TemplateID)
	if err != nil {
		return s.failure("", start, errors.Normalize(err))
	}
	if tpl == nil {
		return s.failure("", start, errors.NewNotFoundError("template", opts.TemplateID))
	}

	buildID, err := NewBuildID(opts.TemplateID, start)
	if err != nil {
		return s.failure("", start, errors.NewGenerationFailedError(err))
	}
	bc := models.BuildContext{
		TemplateID:   opts.TemplateID,
		TenantID:     opts.TenantID,
		BuildID:      buildID,
		OutputPath:   root,
		Optimization: opts.Optimization,
	}
	log = log.With(map[string]interface{}{"buildId": buildID})

	if opts.CreateArtifacts {
		release, err := s.lock.Acquire(ctx, opts.TemplateID, buildID, config.GetDuration(s.cfg.LockTTL))
		if err != nil {
			log.Warn("Build lock unavailable", map[string]interface{}{"error": err.Error()})
			return s.failure(buildID, start, errors.Normalize(err))
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				log.Warn("Failed to release build lock", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	record := &models.TemplateBuild{
		BuildID:        buildID,
		TemplateID:     opts.TemplateID,
		TenantID:       opts.TenantID,
		Version:        tpl.Version,
		BuildStatus:    models.BuildStatusBuilding,
		BuildConfig:    opts,
		BuildStartedAt: start,
		RecordVersion:  1,
	}
	if err := s.builds.Create(ctx, record); err != nil {
		if errors.KindOf(err) != errors.ErrCodeDuplicateBuild {
			err = errors.NewPersistenceFailureError("create build record", err)
		}
		log.Error("Failed to create build record", map[string]interface{}{"error": err.Error()})
		return s.failure(buildID, start, err)
	}
	log.Info("Build started", map[string]interface{}{
		"optimization":    string(opts.Optimization),
		"createArtifacts": opts.CreateArtifacts,
		"components":      len(tpl.Components),
	})

	gen, err := s.generator.Generate(ctx, tpl)
	if err != nil {
		return s.fail(ctx, record, start, errors.Normalize(err), log)
	}

	var pub *artifact.Publication
	if opts.CreateArtifacts {
		manifest := artifact.NewManifest(bc, start, gen.Results)
		pub, err = artifact.NewPublisher(root, log).Publish(ctx, manifest, gen.Results)
		if err != nil {
			return s.fail(ctx, record, start, errors.Normalize(err), log)
		}
	}

	improvement := PerformanceImprovement(gen.Results)
	artifacts := artifact.Summarize(gen.Results)
	finished := s.clock()
	completion := models.BuildCompletion{
		CompletedAt: finished,
		Duration:    finished.Sub(start),
		Artifacts:   artifacts,
		PerformanceMetrics: map[string]interface{}{
			"performanceImprovement": improvement,
			"componentsGenerated":    len(gen.Results),
			"componentsSkipped":      len(gen.Skipped),
			"totalSize":              artifacts.TotalSize,
			"optimization":           string(opts.Optimization),
		},
	}
	attempts, err := s.writeTerminal(ctx, "complete build record", func(ctx context.Context) error {
		return s.builds.Complete(ctx, buildID, record.RecordVersion, completion)
	}, log)
	if err != nil && attempts > 1 && s.completionApplied(ctx, buildID, completion, log) {
		log.Warn("Completion write was applied by an earlier attempt", map[string]interface{}{
			"attempts": attempts,
			"error":    err.Error(),
		})
		err = nil
	}
	if err != nil {
		if rbErr := pub.Rollback(); rbErr != nil {
			log.Error("Failed to roll back artifacts", map[string]interface{}{"error": rbErr.Error()})
		}
		cause := err
		if k := errors.KindOf(err); k != errors.ErrCodeConflict && k != errors.ErrCodeTerminalState {
			cause = errors.NewPersistenceFailureError("complete build record", err)
		}
		return s.fail(ctx, record, start, errors.Normalize(cause), log)
	}
	if err := pub.Commit(); err != nil {
		log.Warn("Failed to remove previous artifacts", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Build completed", map[string]interface{}{
		"components":             len(gen.Results),
		"skipped":                len(gen.Skipped),
		"performanceImprovement": improvement,
		"durationMs":             completion.Duration.Milliseconds(),
	})
	return &models.BuildResult{
		Success:                true,
		BuildID:                buildID,
		BuildTime:              completion.Duration.Milliseconds(),
		ComponentsGenerated:    len(gen.Results),
		PerformanceImprovement: improvement,
		Artifacts:              artifacts,
		Skipped:                gen.Skipped,
	}
}

// completionApplied reports whether an earlier attempt whose acknowledgement
// was lost already stored completion. Only this build completes its record,
// so a completed status carrying the same completion time is ours.
func (s *Service) completionApplied(ctx context.Context, buildID string, completion models.BuildCompletion, log logger.Logger) bool {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), terminalWriteTimeout)
	defer cancel()
	rec, err := s.builds.Get(rctx, buildID)
	if err != nil {
		log.Warn("Failed to re-read build record", map[string]interface{}{"error": err.Error()})
		return false
	}
	return rec != nil &&
		rec.BuildStatus == models.BuildStatusCompleted &&
		rec.BuildCompletedAt != nil &&
		rec.BuildCompletedAt.UnixMilli() == completion.CompletedAt.UnixMilli()
}

// fail moves an existing record to failed and builds the caller's result.
func (s *Service) fail(ctx context.Context, record *models.TemplateBuild, start time.Time, cause *errors.StandardError, log logger.Logger) *models.BuildResult {
	finished := s.clock()
	failure := models.BuildFailure{
		CompletedAt: finished,
		Duration:    finished.Sub(start),
		ErrorLog:    cause.Error(),
		ErrorKind:   string(cause.Code),
	}
	log.Error("Build failed", map[string]interface{}{"errorKind": failure.ErrorKind, "error": failure.ErrorLog})

	attempts, err := s.writeTerminal(ctx, "fail build record", func(ctx context.Context) error {
		return s.builds.Fail(ctx, record.BuildID, record.RecordVersion, failure)
	}, log)
	if err != nil && errors.KindOf(err) != errors.ErrCodeTerminalState {
		metrics.TerminalWriteFailures.Inc()
		log.Error("Build record left in building state", map[string]interface{}{
			"attempts": attempts,
			"error":    err.Error(),
		})
		a := alert.Alert{
			ID:         uuid.NewString(),
			BuildID:    record.BuildID,
			TemplateID: record.TemplateID,
			Status:     string(models.BuildStatusFailed),
			ErrorKind:  failure.ErrorKind,
			Message:    err.Error(),
			Attempts:   attempts,
			OccurredAt: finished,
		}
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), terminalWriteTimeout)
		defer cancel()
		if aerr := s.alerter.Send(actx, a); aerr != nil {
			log.Error("Failed to send alert", map[string]interface{}{"error": aerr.Error()})
		}
	}
	return s.failure(record.BuildID, start, cause)
}

// writeTerminal retries a terminal status write. It survives cancellation of
// the build context so a timed-out build still gets recorded.
func (s *Service) writeTerminal(ctx context.Context, name string, write func(context.Context) error, log logger.Logger) (int, error) {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), terminalWriteTimeout)
	defer cancel()
	return retryWithBackoff(wctx, write, s.cfg.TerminalWriteRetries,
		config.GetDuration(s.cfg.TerminalWriteBackoff), log, name)
}

func (s *Service) failure(buildID string, start time.Time, err error) *models.BuildResult {
	stdErr := errors.Normalize(err)
	return &models.BuildResult{
		Success:   false,
		BuildID:   buildID,
		BuildTime: s.clock().Sub(start).Milliseconds(),
		Artifacts: models.BuildArtifacts{Components: []string{}, Pages: []string{}},
		Errors:    []string{stdErr.Error()},
		ErrorKind: string(stdErr.Code),
	}
}

func (s *Service) observe(ctx context.Context, opts models.BuildOptions, res *models.BuildResult, start time.Time) {
	status := string(models.BuildStatusCompleted)
	if !res.Success {
		status = string(models.BuildStatusFailed)
	}
	elapsed := s.clock().Sub(start)

	metrics.BuildsTotal.WithLabelValues(status, res.ErrorKind).Inc()
	metrics.BuildDuration.WithLabelValues(status).Observe(elapsed.Seconds())
	if res.Success {
		metrics.ComponentsGenerated.WithLabelValues("page").Add(float64(len(res.Artifacts.Pages)))
		metrics.ComponentsGenerated.WithLabelValues("component").Add(float64(len(res.Artifacts.Components)))
	}
	for _, sk := range res.Skipped {
		metrics.ComponentsSkipped.WithLabelValues(sk.Kind).Inc()
	}
	s.obs.RecordBuildProcessed(ctx, status, res.ErrorKind)
	s.obs.RecordBuildDuration(ctx, elapsed, status)

	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	err := s.history.Record(hctx, history.Entry{
		BuildID:                res.BuildID,
		TemplateID:             opts.TemplateID,
		TenantID:               opts.TenantID,
		Optimization:           string(opts.Optimization),
		Success:                res.Success,
		ErrorKind:              res.ErrorKind,
		Errors:                 res.Errors,
		ComponentsGenerated:    res.ComponentsGenerated,
		ComponentsSkipped:      len(res.Skipped),
		PerformanceImprovement: res.PerformanceImprovement,
		BuildTimeMs:            res.BuildTime,
		TotalSize:              res.Artifacts.TotalSize,
		Timestamp:              start.UTC(),
	})
	if err != nil {
		s.log.Warn("Failed to index build history", map[string]interface{}{"buildId": res.BuildID, "error": err.Error()})
	}
}

// ==========================
// Queries
// ==========================

// GetBuildStatus returns NOT_FOUND for an unknown build id.
func (s *Service) GetBuildStatus(ctx context.Context, buildID string) (*models.TemplateBuild, error) {
	rec, err := s.builds.Get(ctx, buildID)
	if err != nil {
		return nil, errors.NewPersistenceFailureError("get build record", err)
	}
	if rec == nil {
		return nil, errors.NewNotFoundError("build", buildID)
	}
	return rec, nil
}

// GetTemplateBuilds lists builds of a template, newest first.
func (s *Service) GetTemplateBuilds(ctx context.Context, templateID string) ([]models.TemplateBuild, error) {
	builds, err := s.builds.ListByTemplate(ctx, templateID)
	if err != nil {
		return nil, errors.NewPersistenceFailureError("list build records", err)
	}
	return builds, nil
}

// PreviewTemplate generates without recording or writing anything.
func (s *Service) PreviewTemplate(ctx context.Context, templateID string) (*generator.Generation, error) {
	return s.generator.GenerateTemplate(ctx, templateID)
}

// ==========================
// Reconciliation
// ==========================

// ReconcileStaleBuilds fails records stuck in building for longer than
// olderThan and returns how many it moved.
func (s *Service) ReconcileStaleBuilds(ctx context.Context, olderThan time.Duration) (int, error) {
	now := s.clock()
	stale, err := s.builds.ListStale(ctx, now.Add(-olderThan))
	if err != nil {
		return 0, errors.NewPersistenceFailureError("list stale builds", err)
	}

	var (
		moved int
		errs  []error
	)
	for _, b := range stale {
		age := now.Sub(b.BuildStartedAt)
		staleErr := errors.NewStaleBuildError(age)
		err := s.builds.Fail(ctx, b.BuildID, b.RecordVersion, models.BuildFailure{
			CompletedAt: now,
			Duration:    age,
			ErrorLog:    staleErr.Error(),
			ErrorKind:   string(staleErr.Code),
		})
		switch errors.KindOf(err) {
		case "":
			moved++
			s.log.Warn("Reconciled stale build", map[string]interface{}{
				"buildId":    b.BuildID,
				"templateId": b.TemplateID,
				"age":        age.String(),
			})
		case errors.ErrCodeConflict, errors.ErrCodeTerminalState:
			// finished concurrently
		default:
			errs = append(errs, fmt.Errorf("build %s: %w", b.BuildID, err))
		}
	}
	if moved > 0 {
		metrics.BuildsTotal.WithLabelValues(string(models.BuildStatusFailed), string(errors.ErrCodeStaleBuild)).Add(float64(moved))
	}
	return moved, stderrors.Join(errs...)
}

// RunReconciler calls ReconcileStaleBuilds every interval until ctx ends.
func (s *Service) RunReconciler(ctx context.Context, interval, olderThan time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.ReconcileStaleBuilds(ctx, olderThan); err != nil {
				s.log.Error("Stale build reconciliation failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}
}
