// internal/workers/assembly/get-component-info/handler.go
package getcomponentinfo

import (
	"context"
	"encoding/json"

	"docassembly-workers/internal/assembly"
	"docassembly-workers/internal/common/errors"
	"docassembly-workers/internal/common/logger"
	"docassembly-workers/internal/common/metrics"
	"docassembly-workers/internal/common/validation"
	"docassembly-workers/internal/engine"
	"docassembly-workers/internal/templatestore"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "get-component-info"

type InfoProvider interface {
	GetComponentInfo(ctx context.Context, logRef string, tmpl assembly.Template, includeDialogs bool) (*engine.ComponentInfo, error)
}

type Handler struct {
	config       *Config
	service      InfoProvider
	store        *templatestore.Store
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, service InfoProvider, store *templatestore.Store, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service,
		store:        store,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	timer := metrics.StartJob(TaskType)
	h.logger.Info("processing job", map[string]interface{}{"jobKey": job.Key})

	input, err := h.parseInput(job)
	if err != nil {
		h.failJob(client, job, timer, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.failJob(client, job, timer, err)
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.failJob(client, job, timer, errors.NewInternalError(err))
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err})
	}

	elapsed := timer.Done("")
	h.config.Observer.RecordJob(context.Background(), TaskType, "completed", elapsed)
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":    job.Key,
		"variables": len(output.VariableNames),
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	tmpl := h.store.Template(input.TemplateFile, "", "")
	info, err := h.service.GetComponentInfo(ctx, input.LogRef, tmpl, input.IncludeDialogs)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(info.Variables))
	for _, v := range info.Variables {
		names = append(names, v.Name)
	}
	return &Output{ComponentInfo: info, VariableNames: names}, nil
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	result, err := validation.ValidateJSON(h.config.InputSchema, job.Variables)
	if err != nil {
		return nil, errors.NewInputValidationError(err.Error())
	}
	if !result.Valid {
		return nil, errors.NewInputValidationError(result.Summary())
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInputValidationError("parse input: " + err.Error())
	}
	return &input, nil
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, timer *metrics.JobTimer, err error) {
	code := string(errors.Normalize(err).Code)
	h.errorHandler.HandleJobError(context.Background(), client, job, err)

	elapsed := timer.Done(code)
	h.config.Observer.RecordJob(context.Background(), TaskType, "failed", elapsed)
}
