// Package engine is the transport to the remote assembly engine.
package engine

import (
	"context"

	"docassembly-workers/internal/assembly"
)

// Client hands out per-call sessions.
type Client interface {
	Open(ctx context.Context) (Session, error)
}

// Session is scoped to a single call. Close releases it gracefully; Abort
// tears it down and never fails.
type Session interface {
	Assemble(req AssembleRequest) (*assembly.AssemblyResponse, error)
	GetInterview(req InterviewRequest) ([]assembly.TaggedPart, error)
	GetComponentInfo(templateID string, includeDialogs bool) (*ComponentInfo, error)
	GetInterviewDefinition(templateID string, format InterviewFormat) ([]byte, error)
	Close() error
	Abort()
}

type AssembleRequest struct {
	TemplateID string
	Answers    string
	Format     assembly.OutputFormat
	Options    assembly.AssemblyOptions
	BillingRef string
	Extra      map[string]string
}

// InterviewFormat selects the interview runtime.
type InterviewFormat string

const (
	InterviewJavaScript  InterviewFormat = "JavaScript"
	InterviewSilverlight InterviewFormat = "Silverlight"
)

type InterviewRequest struct {
	TemplateID      string
	Answers         string
	Format          InterviewFormat
	Options         assembly.InterviewOptions
	ImageSource     string
	MarkedVariables []string
	BillingRef      string
	Extra           map[string]string
}

// ComponentInfo describes a template's variables and dialogs.
type ComponentInfo struct {
	Variables []VariableInfo `json:"variables"`
	Dialogs   []DialogInfo   `json:"dialogs,omitempty"`
}

type VariableInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type DialogInfo struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

func (c *ComponentInfo) HasVariable(name string) bool {
	for _, v := range c.Variables {
		if v.Name == name {
			return true
		}
	}
	return false
}
