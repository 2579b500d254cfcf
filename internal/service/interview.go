package service

import (
	"context"
	"time"

	"docassembly-workers/internal/assembly"
	"docassembly-workers/internal/common/logger"
	"docassembly-workers/internal/engine"
)

// InterviewResult is what a host needs to render an interview page.
type InterviewResult struct {
	Markup     string
	Files      []assembly.NamedFile
	ImageQuery string
	Options    assembly.InterviewOptions
}

func (r *InterviewResult) FileNames() []string {
	names := make([]string, 0, len(r.Files))
	for _, f := range r.Files {
		names = append(names, f.Name)
	}
	return names
}

func (s *Service) GetInterview(ctx context.Context, logRef string, tmpl assembly.Template, sources []string, settings *assembly.Settings, markedVariables []string) (*InterviewResult, error) {
	if err := requireCall(OpGetInterview, logRef, &tmpl, settings); err != nil {
		return nil, err
	}
	log := logger.ForCall(s.log, logRef, OpGetInterview)

	templateID, err := s.resolve(tmpl)
	if err != nil {
		return nil, err
	}

	payload, err := combineAnswers(sources)
	if err != nil {
		return nil, err
	}

	effective := s.withInterviewDefaults(settings)
	req := engine.InterviewRequest{
		TemplateID:      templateID,
		Answers:         payload,
		Format:          engine.InterviewJavaScript,
		Options:         assembly.EncodeInterviewOptions(effective),
		ImageSource:     effective.InterviewImageSource(templateID),
		MarkedVariables: markedVariables,
		BillingRef:      s.opts.BillingRef,
		Extra:           effective.InterviewExtras(),
	}

	start := time.Now()
	parts, err := engine.Call(ctx, s.engine, log, OpGetInterview, func(sess engine.Session) ([]assembly.TaggedPart, error) {
		return sess.GetInterview(req)
	})
	observe(OpGetInterview, start, err)
	if err != nil {
		log.Error("engine interview failed", map[string]interface{}{"templateId": templateID, "error": err})
		return nil, err
	}

	result := &InterviewResult{
		ImageQuery: assembly.InterviewImageQuery(templateID),
		Options:    req.Options,
	}
	for _, p := range parts {
		if result.Markup == "" && (p.Format.Has(assembly.FormatHTML) || p.Format.Has(assembly.FormatHTMLWithDataURIs)) {
			result.Markup = string(p.Data)
			continue
		}
		result.Files = append(result.Files, assembly.NamedFile{Name: p.FileName, Data: p.Data})
	}

	log.Info("interview fetched", map[string]interface{}{
		"templateId": templateID,
		"files":      len(result.Files),
		"hasMarkup":  result.Markup != "",
	})
	return result, nil
}

// withInterviewDefaults fills blank interview URLs from the service
// defaults without touching the caller's settings.
func (s *Service) withInterviewDefaults(settings *assembly.Settings) *assembly.Settings {
	merged := *settings
	d := s.opts.InterviewDefaults
	if merged.InterviewImageURL == "" {
		merged.InterviewImageURL = d.InterviewImageURL
	}
	if merged.InterviewRuntimeURL == "" {
		merged.InterviewRuntimeURL = d.InterviewRuntimeURL
	}
	if merged.StylesheetURL == "" {
		merged.StylesheetURL = d.StylesheetURL
	}
	return &merged
}
