// internal/assembly/options.go
package assembly

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// TriState is a three-valued flag. Only TriTrue turns a toggle on.
type TriState int

const (
	TriUnset TriState = iota
	TriTrue
	TriFalse
)

// ParseTriState accepts "true", "false" or an empty string.
func ParseTriState(s string) (TriState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return TriUnset, nil
	case "true":
		return TriTrue, nil
	case "false":
		return TriFalse, nil
	}
	return TriUnset, fmt.Errorf("invalid tri-state value %q", s)
}

func (t TriState) String() string {
	switch t {
	case TriTrue:
		return "true"
	case TriFalse:
		return "false"
	}
	return ""
}

func (t TriState) IsTrue() bool { return t == TriTrue }

// UnmarshalJSON accepts JSON booleans, strings and null.
func (t *TriState) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*t = TriUnset
	case bool:
		if v {
			*t = TriTrue
		} else {
			*t = TriFalse
		}
	case string:
		parsed, err := ParseTriState(v)
		if err != nil {
			return err
		}
		*t = parsed
	default:
		return fmt.Errorf("invalid tri-state value %s", string(data))
	}
	return nil
}

func (t TriState) MarshalJSON() ([]byte, error) {
	if t == TriUnset {
		return []byte("null"), nil
	}
	return json.Marshal(t == TriTrue)
}

// AssemblyOptions toggles engine behaviour during assembly.
type AssemblyOptions uint32

const (
	AssemblyNone       AssemblyOptions = 0
	AssemblyMarkupView AssemblyOptions = 1
)

func (o AssemblyOptions) Has(flag AssemblyOptions) bool { return o&flag == flag && flag != 0 }

// InterviewOptions toggles interview rendering.
type InterviewOptions uint32

const (
	InterviewNone                   InterviewOptions = 0
	InterviewOmitImages             InterviewOptions = 1
	InterviewNoPreview              InterviewOptions = 2
	InterviewNoSave                 InterviewOptions = 4
	InterviewExcludeStateFromOutput InterviewOptions = 8
)

func (o InterviewOptions) Has(flag InterviewOptions) bool { return o&flag == flag && flag != 0 }

// Settings is the caller-owned bag the encoders read from.
type Settings struct {
	UseMarkupSyntax        TriState `json:"useMarkupSyntax"`
	DisableDocumentPreview TriState `json:"disableDocumentPreview"`
	DisableSaveAnswers     TriState `json:"disableSaveAnswers"`
	ExcludeStateFromOutput TriState `json:"excludeStateFromOutput"`

	InterviewImageURL   string `json:"interviewImageUrl,omitempty"`
	InterviewRuntimeURL string `json:"interviewRuntimeUrl,omitempty"`
	StylesheetURL       string `json:"stylesheetUrl,omitempty"`
	PostInterviewURL    string `json:"postInterviewUrl,omitempty"`
	SaveAnswersURL      string `json:"saveAnswersUrl,omitempty"`
	DocumentPreviewURL  string `json:"documentPreviewUrl,omitempty"`
	Title               string `json:"title,omitempty"`
	Locale              string `json:"locale,omitempty"`
}

// EncodeAssemblyOptions adds MarkupView only for an explicit true.
func EncodeAssemblyOptions(s *Settings) AssemblyOptions {
	opts := AssemblyNone
	if s != nil && s.UseMarkupSyntax.IsTrue() {
		opts |= AssemblyMarkupView
	}
	return opts
}

// EncodeInterviewOptions always omits images; the host serves them.
func EncodeInterviewOptions(s *Settings) InterviewOptions {
	opts := InterviewOmitImages
	if s == nil {
		return opts
	}
	if s.DisableDocumentPreview.IsTrue() {
		opts |= InterviewNoPreview
	}
	if s.DisableSaveAnswers.IsTrue() {
		opts |= InterviewNoSave
	}
	if s.ExcludeStateFromOutput.IsTrue() {
		opts |= InterviewExcludeStateFromOutput
	}
	return opts
}

// InterviewImageQuery builds the query the interview appends image names to.
func InterviewImageQuery(locator string) string {
	return "?loc=" + url.QueryEscape(locator) + "&img="
}

// InterviewImageSource prefixes the image query with the configured image URL.
func (s *Settings) InterviewImageSource(locator string) string {
	base := ""
	if s != nil {
		base = s.InterviewImageURL
	}
	return base + InterviewImageQuery(locator)
}

// InterviewExtras returns the URL settings as call parameters, skipping blanks.
func (s *Settings) InterviewExtras() map[string]string {
	out := map[string]string{}
	if s == nil {
		return out
	}
	add := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	add("interviewruntimeurl", s.InterviewRuntimeURL)
	add("stylesheeturl", s.StylesheetURL)
	add("postinterviewurl", s.PostInterviewURL)
	add("saveanswersurl", s.SaveAnswersURL)
	add("documentpreviewurl", s.DocumentPreviewURL)
	add("title", s.Title)
	add("locale", s.Locale)
	return out
}
