package engine

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"docassembly-workers/internal/assembly"
)

var contentTypeFormats = map[string]assembly.OutputFormat{
	"text/xml":                      assembly.FormatAnswers,
	"application/xml":               assembly.FormatAnswers,
	"application/pdf":               assembly.FormatPDF,
	"text/html":                     assembly.FormatHTML,
	"text/plain":                    assembly.FormatPlainText,
	"message/rfc822":                assembly.FormatMHTML,
	"multipart/related":             assembly.FormatMHTML,
	"image/jpeg":                    assembly.FormatJPEG,
	"image/png":                     assembly.FormatPNG,
	"application/rtf":               assembly.FormatRTF,
	"application/msword":            assembly.FormatDOCX,
	"application/vnd.wordperfect":   assembly.FormatWPD,
	"application/x-hotdocs-hpd":     assembly.FormatHPD,
	"application/x-hotdocs-hfd":     assembly.FormatHFD,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": assembly.FormatDOCX,
}

// parseParts splits an engine response body into tagged parts. A body that
// is not multipart is treated as a single part described by the envelope.
func parseParts(header http.Header, body []byte) ([]assembly.TaggedPart, error) {
	mediaType, params, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") || mediaType == "multipart/related" {
		if len(body) == 0 {
			return nil, nil
		}
		part, err := partFromHeader(textproto.MIMEHeader(header), body)
		if err != nil {
			return nil, err
		}
		return []assembly.TaggedPart{part}, nil
	}

	boundary := params["boundary"]
	if boundary == "" {
		return nil, fmt.Errorf("multipart response without boundary")
	}

	reader := multipart.NewReader(bytes.NewReader(body), boundary)
	var parts []assembly.TaggedPart
	for {
		p, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read part %d: %w", len(parts), err)
		}

		data, err := io.ReadAll(p)
		p.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read part %d: %w", len(parts), err)
		}

		part, err := partFromHeader(p.Header, data)
		if err != nil {
			return nil, fmt.Errorf("part %d: %w", len(parts), err)
		}
		parts = append(parts, part)
	}
	return parts, nil
}

func partFromHeader(h textproto.MIMEHeader, data []byte) (assembly.TaggedPart, error) {
	part := assembly.TaggedPart{
		Data:     data,
		FileName: partFileName(h.Get("Content-Disposition")),
		Pending:  strings.EqualFold(h.Get(headerPending), "true"),
		Switches: h.Get(headerSwitches),
	}

	if tag := h.Get(headerFormat); tag != "" {
		n, err := strconv.ParseUint(strings.TrimSpace(tag), 10, 32)
		if err != nil {
			return part, fmt.Errorf("invalid format tag %q: %w", tag, err)
		}
		part.Format = assembly.OutputFormat(n)
		return part, nil
	}

	part.Format = assembly.FormatNative
	if mediaType, _, err := mime.ParseMediaType(h.Get("Content-Type")); err == nil {
		if f, ok := contentTypeFormats[mediaType]; ok {
			part.Format = f
		}
	}
	return part, nil
}

func partFileName(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}
