// internal/answers/overlay_test.go
package answers

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"docassembly-workers/internal/common/errors"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// ==========================
// Test Helper Functions
// ==========================

func textAnswer(name, value string) string {
	return fmt.Sprintf(`<Answer name=%q><TextValue>%s</TextValue></Answer>`, name, value)
}

func answerSet(title string, answers ...string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?><AnswerSet title=%q version="1.1">%s</AnswerSet>`,
		title, strings.Join(answers, ""))
}

func valueOf(t *testing.T, set *Set, name string) string {
	t.Helper()
	a, ok := set.Get(name)
	require.True(t, ok, "answer %q missing", name)
	return a.Value
}

// ==========================
// Normalize
// ==========================

func TestNormalize_Canonical(t *testing.T) {
	set, err := Normalize(answerSet("Letter", textAnswer("Client Name", "Ada"), `<Answer name="Fee"><NumValue>250</NumValue></Answer>`))
	require.NoError(t, err)

	assert.Equal(t, "Letter", set.Title)
	assert.Equal(t, []string{"Client Name", "Fee"}, set.Names())
	assert.Equal(t, "<TextValue>Ada</TextValue>", valueOf(t, set, "Client Name"))
	assert.Equal(t, "<NumValue>250</NumValue>", valueOf(t, set, "Fee"))
}

func TestNormalize_BlankIsEmpty(t *testing.T) {
	for _, src := range []string{"", "   ", "\n\t"} {
		set, err := Normalize(src)
		require.NoError(t, err)
		assert.Equal(t, 0, set.Len())
	}
}

func TestNormalize_InterviewSubmission(t *testing.T) {
	canonical := answerSet("", textAnswer("A", "1"))
	src, err := Normalize(canonical)
	require.NoError(t, err)

	for _, compress := range []bool{false, true} {
		t.Run(fmt.Sprintf("compress=%v", compress), func(t *testing.T) {
			encoded, err := EncodeSubmission(src, compress)
			require.NoError(t, err)
			assert.False(t, strings.HasPrefix(encoded, "<"))

			set, err := Normalize(encoded)
			require.NoError(t, err)
			assert.Equal(t, "<TextValue>1</TextValue>", valueOf(t, set, "A"))
		})
	}
}

func TestNormalize_SubmissionWithLineBreaks(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte(answerSet("", textAnswer("A", "wrapped"))))
	wrapped := encoded[:10] + "\r\n" + encoded[10:]

	set, err := Normalize(wrapped)
	require.NoError(t, err)
	assert.Equal(t, "<TextValue>wrapped</TextValue>", valueOf(t, set, "A"))
}

func TestNormalize_DeclaredEncodings(t *testing.T) {
	body := `<AnswerSet title="Letter" version="1.1">` + textAnswer("Client", "Zoë") + `</AnswerSet>`
	utf16Decl := `<?xml version="1.0" encoding="utf-16" standalone="yes"?>`
	latinDecl := `<?xml version="1.0" encoding="ISO-8859-1"?>`

	utf16Bytes, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(utf16Decl + body))
	require.NoError(t, err)
	utf16NoBOM, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(utf16Decl + body))
	require.NoError(t, err)
	latinBytes, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(latinDecl + body))
	require.NoError(t, err)

	tests := []struct {
		name   string
		source string
	}{
		{"utf-16 declaration on text", utf16Decl + body},
		{"iso-8859-1 declaration on text", latinDecl + body},
		{"utf-16 submission with BOM", base64.StdEncoding.EncodeToString(utf16Bytes)},
		{"utf-16 submission without BOM", base64.StdEncoding.EncodeToString(utf16NoBOM)},
		{"utf-16 declaration on utf-8 submission", base64.StdEncoding.EncodeToString([]byte(utf16Decl + body))},
		{"iso-8859-1 submission", base64.StdEncoding.EncodeToString(latinBytes)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := Normalize(tt.source)
			require.NoError(t, err)
			assert.Equal(t, "Letter", set.Title)
			assert.Equal(t, "<TextValue>Zoë</TextValue>", valueOf(t, set, "Client"))
		})
	}
}

func TestNormalize_Malformed(t *testing.T) {
	tests := map[string]string{
		"not base64":           "!!!not-base64!!!",
		"base64 of plain text": base64.StdEncoding.EncodeToString([]byte("hello")),
		"wrong root":           `<Answers><Answer name="A"/></Answers>`,
		"broken xml":           `<AnswerSet><Answer name="A">`,
		"unnamed answer":       `<AnswerSet><Answer><TextValue>x</TextValue></Answer></AnswerSet>`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize(src)
			assert.Error(t, err)
		})
	}
}

func TestNormalize_DuplicateNamesKeepLast(t *testing.T) {
	set, err := Normalize(answerSet("", textAnswer("A", "first"), textAnswer("B", "b"), textAnswer("A", "second")))
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, set.Names())
	assert.Equal(t, "<TextValue>second</TextValue>", valueOf(t, set, "A"))
}

// ==========================
// Overlay
// ==========================

func TestOverlay_SingleSourceIsNormalize(t *testing.T) {
	src := answerSet("Letter", textAnswer("A", "1"), `<Answer name="R"><RptValue><TextValue>x</TextValue></RptValue></Answer>`)

	overlaid, err := Overlay([]string{src})
	require.NoError(t, err)

	set, err := Normalize(src)
	require.NoError(t, err)
	normalized, err := set.Encode()
	require.NoError(t, err)

	assert.Equal(t, normalized, overlaid)
}

func TestOverlay_LastWriteWins(t *testing.T) {
	first := answerSet("", textAnswer("X", "1"), textAnswer("OnlyFirst", "kept"))
	second := answerSet("", textAnswer("X", "2"), textAnswer("OnlySecond", "new"))

	out, err := Overlay([]string{first, second})
	require.NoError(t, err)

	set, err := Normalize(out)
	require.NoError(t, err)

	assert.Equal(t, "<TextValue>2</TextValue>", valueOf(t, set, "X"))
	assert.Equal(t, "<TextValue>kept</TextValue>", valueOf(t, set, "OnlyFirst"))
	assert.Equal(t, "<TextValue>new</TextValue>", valueOf(t, set, "OnlySecond"))
	if diff := cmp.Diff([]string{"X", "OnlyFirst", "OnlySecond"}, set.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestOverlay_EmptySourceIsNoOp(t *testing.T) {
	base := answerSet("", textAnswer("A", "1"))

	withEmpty, err := Overlay([]string{base, "", "  "})
	require.NoError(t, err)
	alone, err := Overlay([]string{base})
	require.NoError(t, err)

	assert.Equal(t, alone, withEmpty)
}

func TestOverlay_MixedEncodings(t *testing.T) {
	sub, err := Normalize(answerSet("", textAnswer("A", "from-interview")))
	require.NoError(t, err)
	encoded, err := EncodeSubmission(sub, true)
	require.NoError(t, err)

	out, err := Overlay([]string{answerSet("", textAnswer("A", "stored"), textAnswer("B", "b")), encoded})
	require.NoError(t, err)

	set, err := Normalize(out)
	require.NoError(t, err)
	assert.Equal(t, "<TextValue>from-interview</TextValue>", valueOf(t, set, "A"))
	assert.Equal(t, "<TextValue>b</TextValue>", valueOf(t, set, "B"))
}

func TestOverlay_UTF16DeclaredSource(t *testing.T) {
	first := `<?xml version="1.0" encoding="utf-16"?><AnswerSet title="" version="1.1">` +
		textAnswer("Client", "Zoë") + textAnswer("City", "Paris") + `</AnswerSet>`

	out, err := Overlay([]string{first, answerSet("", textAnswer("Client", "Ada"))})
	require.NoError(t, err)

	set, err := Normalize(out)
	require.NoError(t, err)
	assert.Equal(t, "<TextValue>Ada</TextValue>", valueOf(t, set, "Client"))
	assert.Equal(t, "<TextValue>Paris</TextValue>", valueOf(t, set, "City"))
}

func TestOverlay_NilSourcesIsContractViolation(t *testing.T) {
	_, err := Overlay(nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeContractViolation))
}

func TestOverlay_EmptySliceIsEmptySet(t *testing.T) {
	out, err := Overlay([]string{})
	require.NoError(t, err)

	set, err := Normalize(out)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestOverlay_MalformedSourceNamesPosition(t *testing.T) {
	good := answerSet("", textAnswer("A", "1"))

	_, err := Overlay([]string{good, good, "%%%"})
	require.Error(t, err)

	stdErr, ok := errors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeAnswerDecodeFailed, stdErr.Code)
	assert.Equal(t, 2, stdErr.Metadata["sourceIndex"])
}

func TestSet_EncodeDefaultsVersion(t *testing.T) {
	set := &Set{}
	set.Put(Answer{Name: "A", Value: "<TextValue>1</TextValue>"})

	out, err := set.Encode()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, `version="1.1"`)
	assert.Contains(t, out, `<Answer name="A"><TextValue>1</TextValue></Answer>`)
}
