// internal/answers/overlay.go
package answers

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"docassembly-workers/internal/common/errors"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	utf8BOM   = []byte{0xef, 0xbb, 0xbf}
)

// Normalize converts an answer source to canonical form. A source is either
// canonical XML or an interview submission: base64 of the XML, optionally
// gzip-compressed first. Blank sources yield an empty set.
//
// Text sources are already decoded, so their XML declaration's encoding is
// ignored. Submission bytes are converted according to their BOM and
// declaration.
func Normalize(source string) (*Set, error) {
	text := strings.TrimSpace(strings.TrimPrefix(source, "\ufeff"))
	if text == "" {
		return NewSet(), nil
	}
	if strings.HasPrefix(text, "<") {
		return parseCanonical(strings.NewReader(text), keepCharset)
	}

	decoded, err := decodeSubmission(text)
	if err != nil {
		return nil, err
	}
	return parseCanonical(bytes.NewReader(decoded), submissionCharset)
}

func decodeSubmission(text string) ([]byte, error) {
	compact := strings.Map(func(r rune) rune {
		switch r {
		case '\r', '\n', '\t', ' ':
			return -1
		}
		return r
	}, text)

	raw, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, fmt.Errorf("failed to decode interview submission: %w", err)
	}

	if bytes.HasPrefix(raw, gzipMagic) {
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to open compressed submission: %w", err)
		}
		defer zr.Close()
		if raw, err = io.ReadAll(zr); err != nil {
			return nil, fmt.Errorf("failed to decompress submission: %w", err)
		}
	}

	raw, err = utf16ToUTF8(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to transcode submission: %w", err)
	}

	decoded := bytes.TrimSpace(bytes.TrimPrefix(raw, utf8BOM))
	if !bytes.HasPrefix(decoded, []byte("<")) {
		return nil, fmt.Errorf("interview submission does not contain an answer set")
	}
	return decoded, nil
}

// utf16ToUTF8 transcodes UTF-16 payloads, detected by BOM or by the NUL
// byte next to the leading '<'. Anything else is returned unchanged.
func utf16ToUTF8(raw []byte) ([]byte, error) {
	var dec transform.Transformer
	switch {
	case bytes.HasPrefix(raw, []byte{0xff, 0xfe}), bytes.HasPrefix(raw, []byte{0xfe, 0xff}):
		dec = unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
	case len(raw) >= 2 && raw[0] == '<' && raw[1] == 0:
		dec = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	case len(raw) >= 2 && raw[0] == 0 && raw[1] == '<':
		dec = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	default:
		return raw, nil
	}
	out, _, err := transform.Bytes(dec, raw)
	return out, err
}

func keepCharset(_ string, input io.Reader) (io.Reader, error) {
	return input, nil
}

// submissionCharset converts single-byte encodings to UTF-8. UTF-16
// payloads were transcoded before parsing; a utf-16 label is also what
// .NET writes when it serialises to a string that is later sent as UTF-8.
func submissionCharset(label string, input io.Reader) (io.Reader, error) {
	l := strings.ToLower(strings.TrimSpace(label))
	if strings.HasPrefix(l, "utf-16") || l == "unicode" {
		return input, nil
	}
	return charset.NewReaderLabel(label, input)
}

// Overlay merges answer sources in order and returns canonical XML. Each
// variable takes its value from the last source defining it.
func Overlay(sources []string) (string, error) {
	set, err := OverlaySet(sources)
	if err != nil {
		return "", err
	}
	return set.Encode()
}

// OverlaySet is Overlay without the final encoding step.
func OverlaySet(sources []string) (*Set, error) {
	if sources == nil {
		return nil, errors.NewContractViolationError("overlay answers", "answer sources")
	}

	result := NewSet()
	for i, src := range sources {
		set, err := Normalize(src)
		if err != nil {
			return nil, errors.NewAnswerDecodeError(i, err)
		}
		if i == 0 {
			result.Title = set.Title
			result.Version = set.Version
		}
		result.Merge(set)
	}
	return result, nil
}

// EncodeSubmission renders a set the way an interview posts it back.
func EncodeSubmission(set *Set, compress bool) (string, error) {
	text, err := set.Encode()
	if err != nil {
		return "", err
	}
	payload := []byte(text)

	if compress {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(payload); err != nil {
			return "", fmt.Errorf("failed to compress submission: %w", err)
		}
		if err := zw.Close(); err != nil {
			return "", fmt.Errorf("failed to compress submission: %w", err)
		}
		payload = buf.Bytes()
	}

	return base64.StdEncoding.EncodeToString(payload), nil
}
