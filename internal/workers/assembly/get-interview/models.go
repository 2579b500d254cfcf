// internal/workers/assembly/get-interview/models.go
package getinterview

import "docassembly-workers/internal/assembly"

type Input struct {
	LogRef          string             `json:"logRef"`
	TemplateFile    string             `json:"templateFile"`
	TemplateKey     string             `json:"templateKey,omitempty"`
	Answers         []string           `json:"answers,omitempty"`
	MarkedVariables []string           `json:"markedVariables,omitempty"`
	Settings        *assembly.Settings `json:"settings,omitempty"`
}

type Output struct {
	Markup     string   `json:"markup"`
	ImageQuery string   `json:"imageQuery"`
	Files      []string `json:"files"`
	Options    uint32   `json:"interviewOptions"`
}
