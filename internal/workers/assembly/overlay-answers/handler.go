// internal/workers/assembly/overlay-answers/handler.go
package overlayanswers

import (
	"context"
	"encoding/json"

	"docassembly-workers/internal/common/errors"
	"docassembly-workers/internal/common/logger"
	"docassembly-workers/internal/common/metrics"
	"docassembly-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "overlay-answers"

type Overlayer interface {
	OverlayAnswers(ctx context.Context, logRef string, sources []string) (string, error)
}

type Handler struct {
	config       *Config
	service      Overlayer
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, service Overlayer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	timer := metrics.StartJob(TaskType)

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
	h.logger.Info("job completed", map[string]interface{}{"jobKey": job.Key, "sources": len(input.Answers)})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	merged, err := h.service.OverlayAnswers(ctx, input.LogRef, input.Answers)
	if err != nil {
		return nil, err
	}
	return &Output{Answers: merged}, nil
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
