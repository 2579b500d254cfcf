// internal/assembly/format_test.go
package assembly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Output Format Encoding
// ==========================

func TestEncodeOutputFormat(t *testing.T) {
	tests := []struct {
		docType  DocumentType
		expected OutputFormat
	}{
		{DocumentHFD, FormatHFD},
		{DocumentHPD, FormatHPD},
		{DocumentHTML, FormatHTML},
		{DocumentHTMLWithDataURIs, FormatHTMLWithDataURIs},
		{DocumentMHTML, FormatMHTML},
		{DocumentNative, FormatNative},
		{DocumentPDF, FormatPDF},
		{DocumentPlainText, FormatPlainText},
		{DocumentWordDOC, FormatDOCX},
		{DocumentWordDOCX, FormatDOCX},
		{DocumentWordPerfect, FormatWPD},
		{DocumentWordRTF, FormatRTF},
	}

	for _, tt := range tests {
		t.Run(tt.docType.String(), func(t *testing.T) {
			got := EncodeOutputFormat(tt.docType)
			assert.Equal(t, tt.expected|FormatAnswers, got)
			assert.True(t, got.Has(tt.expected))
			assert.True(t, got.Has(FormatAnswers))
			assert.Len(t, got.Tags(), 2)
		})
	}
}

func TestEncodeOutputFormat_XMLHasNoWireTag(t *testing.T) {
	// XML has no wire representation; only the answers tag is requested.
	assert.Equal(t, FormatAnswers, EncodeOutputFormat(DocumentXML))
}

func TestEncodeOutputFormat_UnknownIsLenient(t *testing.T) {
	assert.Equal(t, FormatAnswers, EncodeOutputFormat(DocumentUnknown))
	assert.Equal(t, FormatAnswers, EncodeOutputFormat(DocumentType(99)))
}

func TestOutputFormat_String(t *testing.T) {
	assert.Equal(t, "None", FormatNone.String())
	assert.Equal(t, "Answers|PDF", (FormatPDF | FormatAnswers).String())
	assert.Equal(t, "JPEG|PNG", (FormatPNG | FormatJPEG).String())
}

func TestOutputFormat_HasNone(t *testing.T) {
	assert.False(t, FormatPDF.Has(FormatNone))
}

// ==========================
// Document Types
// ==========================

func TestParseDocumentType(t *testing.T) {
	assert.Equal(t, DocumentPDF, ParseDocumentType("pdf"))
	assert.Equal(t, DocumentWordDOCX, ParseDocumentType(" WordDOCX "))
	assert.Equal(t, DocumentHTMLWithDataURIs, ParseDocumentType("htmlwdatauris"))
	assert.Equal(t, DocumentUnknown, ParseDocumentType("odt"))
	assert.Equal(t, "Unknown", DocumentType(42).String())
}

func TestDocumentTypeFromFileName(t *testing.T) {
	tests := map[string]DocumentType{
		"out.docx":         DocumentWordDOCX,
		"OUT.DOC":          DocumentWordDOC,
		"letter.rtf":       DocumentWordRTF,
		"brief.wpd":        DocumentWordPerfect,
		"form.pdf":         DocumentPDF,
		"page.htm":         DocumentHTML,
		"page.html":        DocumentHTML,
		"archive.mhtml":    DocumentMHTML,
		"notes.txt":        DocumentPlainText,
		"form.hpd":         DocumentHPD,
		"form.hfd":         DocumentHFD,
		"data.xml":         DocumentXML,
		"mystery.bin":      DocumentNative,
		"no-extension":     DocumentNative,
		"dir/nested/x.pdf": DocumentPDF,
	}
	for name, expected := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, expected, DocumentTypeFromFileName(name))
		})
	}
}

// ==========================
// Option Encoding
// ==========================

func TestEncodeAssemblyOptions(t *testing.T) {
	tests := []struct {
		name     string
		markup   TriState
		expected AssemblyOptions
	}{
		{"markup unset", TriUnset, AssemblyNone},
		{"markup false", TriFalse, AssemblyNone},
		{"markup true", TriTrue, AssemblyMarkupView},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeAssemblyOptions(&Settings{UseMarkupSyntax: tt.markup})
			assert.Equal(t, tt.expected, got)
		})
	}

	assert.Equal(t, AssemblyNone, EncodeAssemblyOptions(nil))
}

func TestEncodeInterviewOptions(t *testing.T) {
	tests := []struct {
		name     string
		settings *Settings
		expected InterviewOptions
	}{
		{
			name:     "nil settings only omit images",
			settings: nil,
			expected: InterviewOmitImages,
		},
		{
			name:     "all unset",
			settings: &Settings{},
			expected: InterviewOmitImages,
		},
		{
			name: "explicit false leaves toggles off",
			settings: &Settings{
				DisableDocumentPreview: TriFalse,
				DisableSaveAnswers:     TriFalse,
				ExcludeStateFromOutput: TriFalse,
			},
			expected: InterviewOmitImages,
		},
		{
			name: "all true",
			settings: &Settings{
				DisableDocumentPreview: TriTrue,
				DisableSaveAnswers:     TriTrue,
				ExcludeStateFromOutput: TriTrue,
			},
			expected: InterviewOmitImages | InterviewNoPreview | InterviewNoSave | InterviewExcludeStateFromOutput,
		},
		{
			name:     "only save disabled",
			settings: &Settings{DisableSaveAnswers: TriTrue},
			expected: InterviewOmitImages | InterviewNoSave,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeInterviewOptions(tt.settings)
			assert.Equal(t, tt.expected, got)
			assert.True(t, got.Has(InterviewOmitImages))
		})
	}
}

func TestScenario_PDFWithoutMarkup(t *testing.T) {
	settings := &Settings{UseMarkupSyntax: TriFalse}

	assert.Equal(t, FormatPDF|FormatAnswers, EncodeOutputFormat(DocumentPDF))
	assert.Equal(t, AssemblyNone, EncodeAssemblyOptions(settings))
}

func TestInterviewImageQuery(t *testing.T) {
	assert.Equal(t, "?loc=pkg%2Fletter.docx&img=", InterviewImageQuery("pkg/letter.docx"))

	s := &Settings{InterviewImageURL: "https://host/images"}
	assert.Equal(t, "https://host/images?loc=abc&img=", s.InterviewImageSource("abc"))

	var nilSettings *Settings
	assert.Equal(t, "?loc=abc&img=", nilSettings.InterviewImageSource("abc"))
}

func TestSettings_InterviewExtras(t *testing.T) {
	s := &Settings{
		InterviewRuntimeURL: "https://cdn/runtime",
		Title:               "Engagement Letter",
	}
	assert.Equal(t, map[string]string{
		"interviewruntimeurl": "https://cdn/runtime",
		"title":               "Engagement Letter",
	}, s.InterviewExtras())
}

// ==========================
// Tri-State Parsing
// ==========================

func TestParseTriState(t *testing.T) {
	for in, expected := range map[string]TriState{"": TriUnset, "TRUE": TriTrue, " false ": TriFalse} {
		got, err := ParseTriState(in)
		require.NoError(t, err)
		assert.Equal(t, expected, got)
	}

	_, err := ParseTriState("maybe")
	assert.Error(t, err)
}

func TestTriState_JSON(t *testing.T) {
	var s Settings
	err := s.UseMarkupSyntax.UnmarshalJSON([]byte(`true`))
	require.NoError(t, err)
	assert.Equal(t, TriTrue, s.UseMarkupSyntax)

	require.NoError(t, s.DisableSaveAnswers.UnmarshalJSON([]byte(`"false"`)))
	assert.Equal(t, TriFalse, s.DisableSaveAnswers)

	require.NoError(t, s.DisableDocumentPreview.UnmarshalJSON([]byte(`null`)))
	assert.Equal(t, TriUnset, s.DisableDocumentPreview)

	assert.Error(t, s.ExcludeStateFromOutput.UnmarshalJSON([]byte(`3`)))

	out, err := TriTrue.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "true", string(out))
	out, err = TriUnset.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}
