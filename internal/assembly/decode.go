// internal/assembly/decode.go
package assembly

import "strings"

// TaggedPart is one item of an engine response. Pending marks a
// sub-template that still has to be assembled; its FileName and Switches
// describe it and Format is ignored.
type TaggedPart struct {
	Format   OutputFormat
	FileName string
	Data     []byte
	Pending  bool
	Switches string
}

// AssemblyResponse is the ordered part list of one assembly call plus its
// envelope.
type AssemblyResponse struct {
	Parts               []TaggedPart
	UnansweredVariables []string
}

type PendingAssembly struct {
	Template Template
	Switches string
}

type NamedFile struct {
	Name string
	Data []byte
}

type Document struct {
	Type DocumentType
	Data []byte
}

// AssembledResult is what a successful assembly call produces.
type AssembledResult struct {
	Document            Document
	Answers             *string
	PendingAssemblies   []PendingAssembly
	SupportingFiles     []NamedFile
	UnansweredVariables []string
}

func (r *AssembledResult) HasAnswers() bool {
	return r != nil && r.Answers != nil
}

type partKind int

const (
	partDocument partKind = iota
	partPending
	partAnswers
	partImage
)

func classifyPart(p TaggedPart) partKind {
	switch {
	case p.Pending:
		return partPending
	case p.Format == FormatAnswers:
		return partAnswers
	case p.Format == FormatJPEG, p.Format == FormatPNG:
		return partImage
	}
	return partDocument
}

// BaseName drops any directory part. The engine may use either separator.
func BaseName(name string) string {
	return name[strings.LastIndexAny(name, `/\`)+1:]
}

// keepLatest resolves repeated document or answers parts. The engine sends
// at most one of each; when it does not, the part scanned last is kept.
func keepLatest[T any](_ *T, next *T) *T {
	return next
}

// Decode turns an assembly response into a result. It returns nil when the
// response carries no document, which means nothing was assembled.
func Decode(tmpl Template, resp AssemblyResponse, requested DocumentType) *AssembledResult {
	var (
		doc     *Document
		answers *string
		pending []PendingAssembly
		files   []NamedFile
	)

	for _, part := range resp.Parts {
		switch classifyPart(part) {
		case partPending:
			name := BaseName(part.FileName)
			pending = append(pending, PendingAssembly{
				Template: tmpl.Sibling(name, part.Switches),
				Switches: part.Switches,
			})
		case partAnswers:
			text := string(part.Data)
			answers = keepLatest(answers, &text)
		case partImage:
			files = append(files, NamedFile{Name: part.FileName, Data: part.Data})
		default:
			docType := requested
			if requested == DocumentNative {
				docType = DocumentTypeFromFileName(part.FileName)
			}
			doc = keepLatest(doc, &Document{Type: docType, Data: part.Data})
		}
	}

	if doc == nil {
		return nil
	}

	var unanswered []string
	if len(resp.UnansweredVariables) > 0 {
		unanswered = append(unanswered, resp.UnansweredVariables...)
	}

	return &AssembledResult{
		Document:            *doc,
		Answers:             answers,
		PendingAssemblies:   pending,
		SupportingFiles:     files,
		UnansweredVariables: unanswered,
	}
}
