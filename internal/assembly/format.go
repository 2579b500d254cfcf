// internal/assembly/format.go
package assembly

import (
	"path/filepath"
	"strings"
)

// DocumentType selects the kind of document a caller wants assembled.
type DocumentType int

const (
	DocumentUnknown DocumentType = iota
	DocumentHFD
	DocumentHPD
	DocumentHTML
	DocumentHTMLWithDataURIs
	DocumentMHTML
	DocumentNative
	DocumentPDF
	DocumentPlainText
	DocumentWordDOC
	DocumentWordDOCX
	DocumentWordPerfect
	DocumentWordRTF
	DocumentXML
)

var documentTypeNames = map[DocumentType]string{
	DocumentUnknown:          "Unknown",
	DocumentHFD:              "HFD",
	DocumentHPD:              "HPD",
	DocumentHTML:             "HTML",
	DocumentHTMLWithDataURIs: "HTMLwDataURIs",
	DocumentMHTML:            "MHTML",
	DocumentNative:           "Native",
	DocumentPDF:              "PDF",
	DocumentPlainText:        "PlainText",
	DocumentWordDOC:          "WordDOC",
	DocumentWordDOCX:         "WordDOCX",
	DocumentWordPerfect:      "WordPerfect",
	DocumentWordRTF:          "WordRTF",
	DocumentXML:              "XML",
}

func (d DocumentType) String() string {
	if name, ok := documentTypeNames[d]; ok {
		return name
	}
	return documentTypeNames[DocumentUnknown]
}

// ParseDocumentType matches a document type name case-insensitively.
// Unrecognised names yield DocumentUnknown.
func ParseDocumentType(name string) DocumentType {
	name = strings.TrimSpace(name)
	for d, n := range documentTypeNames {
		if strings.EqualFold(n, name) {
			return d
		}
	}
	return DocumentUnknown
}

// OutputFormat is a set of wire-level format tags.
type OutputFormat uint32

const (
	FormatNone             OutputFormat = 0
	FormatAnswers          OutputFormat = 1
	FormatNative           OutputFormat = 2
	FormatPDF              OutputFormat = 4
	FormatHTML             OutputFormat = 8
	FormatPlainText        OutputFormat = 16
	FormatHTMLWithDataURIs OutputFormat = 32
	FormatMHTML            OutputFormat = 64
	FormatJPEG             OutputFormat = 128
	FormatPNG              OutputFormat = 256
	FormatDOCX             OutputFormat = 512
	FormatRTF              OutputFormat = 1024
	FormatWPD              OutputFormat = 2048
	FormatHPD              OutputFormat = 4096
	FormatHFD              OutputFormat = 8192
)

// formatTags lists every single-bit tag in wire order.
var formatTags = []struct {
	tag  OutputFormat
	name string
}{
	{FormatAnswers, "Answers"},
	{FormatNative, "Native"},
	{FormatPDF, "PDF"},
	{FormatHTML, "HTML"},
	{FormatPlainText, "PlainText"},
	{FormatHTMLWithDataURIs, "HTMLwDataURIs"},
	{FormatMHTML, "MHTML"},
	{FormatJPEG, "JPEG"},
	{FormatPNG, "PNG"},
	{FormatDOCX, "DOCX"},
	{FormatRTF, "RTF"},
	{FormatWPD, "WPD"},
	{FormatHPD, "HPD"},
	{FormatHFD, "HFD"},
}

// Has reports whether every tag in other is present in f.
func (f OutputFormat) Has(other OutputFormat) bool {
	return other != FormatNone && f&other == other
}

func (f OutputFormat) Union(other OutputFormat) OutputFormat {
	return f | other
}

// Tags splits the set into its single-bit members.
func (f OutputFormat) Tags() []OutputFormat {
	var out []OutputFormat
	for _, t := range formatTags {
		if f&t.tag != 0 {
			out = append(out, t.tag)
		}
	}
	return out
}

func (f OutputFormat) String() string {
	if f == FormatNone {
		return "None"
	}
	names := make([]string, 0, 2)
	for _, t := range formatTags {
		if f&t.tag != 0 {
			names = append(names, t.name)
		}
	}
	return strings.Join(names, "|")
}

// documentFormats is the closed request-side lookup table. XML has no wire
// tag and deliberately maps to FormatNone.
var documentFormats = map[DocumentType]OutputFormat{
	DocumentHFD:              FormatHFD,
	DocumentHPD:              FormatHPD,
	DocumentHTML:             FormatHTML,
	DocumentHTMLWithDataURIs: FormatHTMLWithDataURIs,
	DocumentMHTML:            FormatMHTML,
	DocumentNative:           FormatNative,
	DocumentPDF:              FormatPDF,
	DocumentPlainText:        FormatPlainText,
	DocumentWordDOC:          FormatDOCX,
	DocumentWordDOCX:         FormatDOCX,
	DocumentWordPerfect:      FormatWPD,
	DocumentWordRTF:          FormatRTF,
	DocumentXML:              FormatNone,
}

// EncodeOutputFormat returns the wire format set for a requested document
// type. The answers tag is always included.
func EncodeOutputFormat(docType DocumentType) OutputFormat {
	return documentFormats[docType] | FormatAnswers
}

var extensionTypes = map[string]DocumentType{
	".docx":  DocumentWordDOCX,
	".doc":   DocumentWordDOC,
	".rtf":   DocumentWordRTF,
	".wpd":   DocumentWordPerfect,
	".pdf":   DocumentPDF,
	".htm":   DocumentHTML,
	".html":  DocumentHTML,
	".mht":   DocumentMHTML,
	".mhtml": DocumentMHTML,
	".txt":   DocumentPlainText,
	".hpd":   DocumentHPD,
	".hfd":   DocumentHFD,
	".xml":   DocumentXML,
}

// DocumentTypeFromFileName infers a document type from a file extension.
// Unknown extensions stay DocumentNative.
func DocumentTypeFromFileName(name string) DocumentType {
	ext := strings.ToLower(filepath.Ext(name))
	if d, ok := extensionTypes[ext]; ok {
		return d
	}
	return DocumentNative
}
