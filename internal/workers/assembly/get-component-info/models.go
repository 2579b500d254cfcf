// internal/workers/assembly/get-component-info/models.go
package getcomponentinfo

import "docassembly-workers/internal/engine"

type Input struct {
	LogRef         string `json:"logRef"`
	TemplateFile   string `json:"templateFile"`
	IncludeDialogs bool   `json:"includeDialogs"`
}

type Output struct {
	ComponentInfo *engine.ComponentInfo `json:"componentInfo"`
	VariableNames []string              `json:"variableNames"`
}
