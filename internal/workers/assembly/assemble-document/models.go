// internal/workers/assembly/assemble-document/models.go
package assembledocument

import "docassembly-workers/internal/assembly"

type Input struct {
	LogRef       string             `json:"logRef"`
	TemplateFile string             `json:"templateFile"`
	TemplateKey  string             `json:"templateKey,omitempty"`
	Switches     string             `json:"switches,omitempty"`
	DocumentType string             `json:"documentType,omitempty"` // blank means the template's own format
	Answers      []string           `json:"answers,omitempty"`
	Settings     *assembly.Settings `json:"settings,omitempty"`
}

type Output struct {
	Assembled           bool              `json:"assembled"`
	DocumentType        string            `json:"documentType,omitempty"`
	Document            []byte            `json:"document,omitempty"` // base64 in job variables
	Answers             string            `json:"answers,omitempty"`
	PendingAssemblies   []PendingAssembly `json:"pendingAssemblies"`
	SupportingFiles     []string          `json:"supportingFiles"`
	UnansweredVariables []string          `json:"unansweredVariables"`
}

type PendingAssembly struct {
	TemplateFile string `json:"templateFile"`
	Switches     string `json:"switches,omitempty"`
}
