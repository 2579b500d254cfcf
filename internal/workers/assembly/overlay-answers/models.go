// internal/workers/assembly/overlay-answers/models.go
package overlayanswers

type Input struct {
	LogRef  string   `json:"logRef"`
	Answers []string `json:"answers"`
}

type Output struct {
	Answers string `json:"answers"`
}
