// internal/answers/set.go
package answers

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const defaultVersion = "1.1"

// Answer is one variable. Value holds the raw inner XML (TextValue,
// NumValue, RptValue, ...) so every value type survives a round trip.
type Answer struct {
	XMLName        xml.Name `xml:"Answer"`
	Name           string   `xml:"name,attr"`
	Save           string   `xml:"save,attr,omitempty"`
	UserExtendible string   `xml:"userExtendible,attr,omitempty"`
	Value          string   `xml:",innerxml"`
}

// Set is an ordered answer collection in canonical form.
type Set struct {
	XMLName xml.Name `xml:"AnswerSet"`
	Title   string   `xml:"title,attr"`
	Version string   `xml:"version,attr"`
	Answers []Answer `xml:"Answer"`

	index map[string]int
}

func NewSet() *Set {
	return &Set{Version: defaultVersion, index: map[string]int{}}
}

func (s *Set) reindex() {
	s.index = make(map[string]int, len(s.Answers))
	for i, a := range s.Answers {
		s.index[a.Name] = i
	}
}

func (s *Set) Len() int { return len(s.Answers) }

// Get returns the named answer.
func (s *Set) Get(name string) (Answer, bool) {
	if s.index == nil {
		s.reindex()
	}
	i, ok := s.index[name]
	if !ok {
		return Answer{}, false
	}
	return s.Answers[i], true
}

func (s *Set) Names() []string {
	names := make([]string, len(s.Answers))
	for i, a := range s.Answers {
		names[i] = a.Name
	}
	return names
}

// Put replaces a same-named answer in place or appends a new one.
func (s *Set) Put(a Answer) {
	if s.index == nil {
		s.reindex()
	}
	a.XMLName = xml.Name{}
	if i, ok := s.index[a.Name]; ok {
		s.Answers[i] = a
		return
	}
	s.index[a.Name] = len(s.Answers)
	s.Answers = append(s.Answers, a)
}

// Merge overlays other onto s. Answers in other win; answers only in s are kept.
func (s *Set) Merge(other *Set) {
	if other == nil {
		return
	}
	if other.Title != "" {
		s.Title = other.Title
	}
	for _, a := range other.Answers {
		s.Put(a)
	}
}

// Encode renders the canonical XML text.
func (s *Set) Encode() (string, error) {
	out := Set{Title: s.Title, Version: s.Version, Answers: s.Answers}
	if out.Version == "" {
		out.Version = defaultVersion
	}
	data, err := xml.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to encode answer set: %w", err)
	}
	return xml.Header + string(data), nil
}

func parseCanonical(r io.Reader, charsetReader func(string, io.Reader) (io.Reader, error)) (*Set, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	var parsed Set
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse answer set: %w", err)
	}

	set := NewSet()
	set.Title = parsed.Title
	if parsed.Version != "" {
		set.Version = parsed.Version
	}
	for i, a := range parsed.Answers {
		if strings.TrimSpace(a.Name) == "" {
			return nil, fmt.Errorf("answer %d has no name", i)
		}
		set.Put(a)
	}
	return set, nil
}
