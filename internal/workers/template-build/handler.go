// Package templatebuild runs template builds as Zeebe jobs.
package templatebuild

import (
	"context"
	"encoding/json"
	"strings"

	"template-builder/internal/common/errors"
	"template-builder/internal/common/logger"
	"template-builder/internal/common/metrics"
	"template-builder/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "template-build"

// BuildService is the part of build.Service a job needs.
type BuildService interface {
	BuildTemplate(ctx context.Context, opts models.BuildOptions) *models.BuildResult
}

type Handler struct {
	config     *Config
	service    BuildService
	logger     logger.Logger
	errHandler *errors.JobErrorHandler
}

func NewHandler(config *Config, service BuildService, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		service:    service,
		logger:     l,
		errHandler: errors.NewJobErrorHandler(l),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := parseInput(job.Variables)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}
	h.completeJob(ctx, client, job, output)
}

// Execute runs one build. A failed build is returned as a StandardError
// carrying the build's error kind.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	res := h.service.BuildTemplate(ctx, *input)
	if !res.Success {
		return nil, errors.FromKind(errors.ErrorCode(res.ErrorKind), strings.Join(res.Errors, "; ")).
			WithMetadata("buildId", res.BuildID).
			WithMetadata("templateId", input.TemplateID)
	}
	return &Output{BuildResult: *res}, nil
}

func parseInput(variables string) (*Input, error) {
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewValidationFailedError("parse job variables: " + err.Error())
	}
	return &input, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"error": err.Error()})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err.Error()})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.logger.Info("job completed", map[string]interface{}{"jobKey": job.Key, "buildId": output.BuildID})
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.KindOf(err))).Inc()
	h.errHandler.HandleJobError(ctx, client, job, err)
}
