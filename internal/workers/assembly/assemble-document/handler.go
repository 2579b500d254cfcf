// internal/workers/assembly/assemble-document/handler.go
package assembledocument

import (
	"context"
	"encoding/json"
	"strings"

	"docassembly-workers/internal/assembly"
	"docassembly-workers/internal/common/errors"
	"docassembly-workers/internal/common/logger"
	"docassembly-workers/internal/common/metrics"
	"docassembly-workers/internal/common/validation"
	"docassembly-workers/internal/templatestore"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "assemble-document"

// Assembler is the slice of the service this worker needs.
type Assembler interface {
	AssembleDocument(ctx context.Context, logRef string, tmpl assembly.Template, sources []string, docType assembly.DocumentType, settings *assembly.Settings) (*assembly.AssembledResult, error)
}

type Handler struct {
	config       *Config
	service      Assembler
	store        *templatestore.Store
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, service Assembler, store *templatestore.Store, log logger.Logger) *Handler {
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
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

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

	h.completeJob(client, job, timer, output)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	tmpl := h.store.Template(input.TemplateFile, input.TemplateKey, input.Switches)

	docType := assembly.DocumentNative
	if strings.TrimSpace(input.DocumentType) != "" {
		docType = assembly.ParseDocumentType(input.DocumentType)
	}

	settings := input.Settings
	if settings == nil {
		settings = &assembly.Settings{}
	}

	result, err := h.service.AssembleDocument(ctx, input.LogRef, tmpl, input.Answers, docType, settings)
	if err != nil {
		return nil, err
	}

	if result == nil {
		if h.config.RequireDocument {
			return nil, errors.NewNothingAssembledError(input.TemplateFile)
		}
		return &Output{
			Assembled:           false,
			PendingAssemblies:   []PendingAssembly{},
			SupportingFiles:     []string{},
			UnansweredVariables: []string{},
		}, nil
	}

	return h.buildOutput(result), nil
}

func (h *Handler) buildOutput(result *assembly.AssembledResult) *Output {
	out := &Output{
		Assembled:           true,
		DocumentType:        result.Document.Type.String(),
		Document:            result.Document.Data,
		PendingAssemblies:   make([]PendingAssembly, 0, len(result.PendingAssemblies)),
		SupportingFiles:     make([]string, 0, len(result.SupportingFiles)),
		UnansweredVariables: append([]string{}, result.UnansweredVariables...),
	}
	if result.HasAnswers() {
		out.Answers = *result.Answers
	}

	for _, p := range result.PendingAssemblies {
		file, err := h.store.RelativeID(p.Template)
		if err != nil {
			file = p.Template.FileName
		}
		out.PendingAssemblies = append(out.PendingAssemblies, PendingAssembly{
			TemplateFile: file,
			Switches:     p.Switches,
		})
	}
	for _, f := range result.SupportingFiles {
		out.SupportingFiles = append(out.SupportingFiles, f.Name)
	}
	return out
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

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, timer *metrics.JobTimer, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"error": err})
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
		"assembled": output.Assembled,
	})
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, timer *metrics.JobTimer, err error) {
	code := string(errors.Normalize(err).Code)
	h.errorHandler.HandleJobError(context.Background(), client, job, err)

	elapsed := timer.Done(code)
	h.config.Observer.RecordJob(context.Background(), TaskType, "failed", elapsed)
}
