// Package service composes the encoders, the template store, the engine
// transport and the decoders into the calls workers and the CLI make.
package service

import (
	"context"
	"strings"
	"time"

	"docassembly-workers/internal/answers"
	"docassembly-workers/internal/assembly"
	"docassembly-workers/internal/common/database"
	"docassembly-workers/internal/common/errors"
	"docassembly-workers/internal/common/logger"
	"docassembly-workers/internal/common/metrics"
	"docassembly-workers/internal/engine"
	"docassembly-workers/internal/templatestore"
)

const (
	OpAssembleDocument       = "assemble document"
	OpGetInterview           = "get interview"
	OpGetComponentInfo       = "get component info"
	OpGetInterviewDefinition = "get interview definition"
	OpOverlayAnswers         = "overlay answers"
)

// Options configures optional collaborators.
type Options struct {
	BillingRef string

	// Cache may be nil; component info is then fetched on every call.
	Cache    *database.RedisClient
	CacheTTL time.Duration

	// Interview URLs used when the caller's settings leave them blank.
	InterviewDefaults assembly.Settings

	// RequireLocalTemplates checks the template file exists under the
	// store before calling the engine.
	RequireLocalTemplates bool
}

type Service struct {
	store  *templatestore.Store
	engine engine.Client
	log    logger.Logger
	opts   Options
}

func New(store *templatestore.Store, client engine.Client, log logger.Logger, opts Options) *Service {
	return &Service{
		store:  store,
		engine: client,
		log:    log,
		opts:   opts,
	}
}

// AssembleDocument assembles tmpl with the given answer sources. A response
// without a document is not an error: the result is nil.
func (s *Service) AssembleDocument(ctx context.Context, logRef string, tmpl assembly.Template, sources []string, docType assembly.DocumentType, settings *assembly.Settings) (*assembly.AssembledResult, error) {
	if err := requireCall(OpAssembleDocument, logRef, &tmpl, settings); err != nil {
		return nil, err
	}
	log := logger.ForCall(s.log, logRef, OpAssembleDocument)

	templateID, err := s.resolve(tmpl)
	if err != nil {
		log.Error("template could not be resolved", map[string]interface{}{"template": tmpl.Path(), "error": err})
		return nil, err
	}

	payload, err := combineAnswers(sources)
	if err != nil {
		return nil, err
	}

	req := engine.AssembleRequest{
		TemplateID: templateID,
		Answers:    payload,
		Format:     assembly.EncodeOutputFormat(docType),
		Options:    assembly.EncodeAssemblyOptions(settings),
		BillingRef: s.opts.BillingRef,
	}

	log.Debug("assembling document", map[string]interface{}{
		"templateId": templateID,
		"format":     req.Format.String(),
		"options":    uint32(req.Options),
	})

	start := time.Now()
	resp, err := engine.Call(ctx, s.engine, log, OpAssembleDocument, func(sess engine.Session) (*assembly.AssemblyResponse, error) {
		return sess.Assemble(req)
	})
	observe(OpAssembleDocument, start, err)
	if err != nil {
		log.Error("engine assembly failed", map[string]interface{}{"templateId": templateID, "error": err})
		return nil, err
	}
	if resp == nil {
		resp = &assembly.AssemblyResponse{}
	}

	result := assembly.Decode(tmpl, *resp, docType)
	if result == nil {
		log.Info("nothing assembled", map[string]interface{}{
			"templateId": templateID,
			"parts":      len(resp.Parts),
		})
		return nil, nil
	}

	log.Info("document assembled", map[string]interface{}{
		"templateId":          templateID,
		"documentType":        result.Document.Type.String(),
		"bytes":               len(result.Document.Data),
		"pendingAssemblies":   len(result.PendingAssemblies),
		"supportingFiles":     len(result.SupportingFiles),
		"unansweredVariables": len(result.UnansweredVariables),
	})
	return result, nil
}

// GetInterviewDefinition fetches the interview definition for tmpl.
func (s *Service) GetInterviewDefinition(ctx context.Context, logRef string, tmpl assembly.Template, format engine.InterviewFormat) ([]byte, error) {
	if err := requireCall(OpGetInterviewDefinition, logRef, &tmpl, nil); err != nil {
		return nil, err
	}
	log := logger.ForCall(s.log, logRef, OpGetInterviewDefinition)

	templateID, err := s.resolve(tmpl)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	def, err := engine.Call(ctx, s.engine, log, OpGetInterviewDefinition, func(sess engine.Session) ([]byte, error) {
		return sess.GetInterviewDefinition(templateID, format)
	})
	observe(OpGetInterviewDefinition, start, err)
	if err != nil {
		log.Error("engine interview definition failed", map[string]interface{}{"templateId": templateID, "error": err})
		return nil, err
	}
	return def, nil
}

// OverlayAnswers consolidates answer sources into one answer set, later
// sources winning.
func (s *Service) OverlayAnswers(ctx context.Context, logRef string, sources []string) (string, error) {
	if strings.TrimSpace(logRef) == "" {
		return "", errors.NewContractViolationError(OpOverlayAnswers, "logRef")
	}
	log := logger.ForCall(s.log, logRef, OpOverlayAnswers)

	merged, err := answers.Overlay(sources)
	if err != nil {
		log.Error("answer overlay failed", map[string]interface{}{"sources": len(sources), "error": err})
		return "", err
	}
	log.Debug("answers overlaid", map[string]interface{}{"sources": len(sources)})
	return merged, nil
}

func (s *Service) resolve(tmpl assembly.Template) (string, error) {
	if s.opts.RequireLocalTemplates {
		if err := s.store.Exists(tmpl); err != nil {
			return "", err
		}
	}
	return s.store.RelativeID(tmpl)
}

// requireCall checks the arguments every engine call needs. settings is
// only checked when the call takes settings.
func requireCall(operation, logRef string, tmpl *assembly.Template, settings *assembly.Settings) error {
	if strings.TrimSpace(logRef) == "" {
		return errors.NewContractViolationError(operation, "logRef")
	}
	if tmpl == nil || strings.TrimSpace(tmpl.FileName) == "" {
		return errors.NewContractViolationError(operation, "template")
	}
	if settings == nil && (operation == OpAssembleDocument || operation == OpGetInterview) {
		return errors.NewContractViolationError(operation, "settings")
	}
	return nil
}

func combineAnswers(sources []string) (string, error) {
	if len(sources) == 0 {
		return "", nil
	}
	return answers.Overlay(sources)
}

func observe(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = string(errors.Normalize(err).Code)
	}
	metrics.EngineCalls.WithLabelValues(operation, status).Inc()
	metrics.EngineCallDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
