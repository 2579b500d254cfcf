package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docassembly-workers/internal/answers"
	"docassembly-workers/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func writeConfig(t *testing.T, engineURL string) string {
	t.Helper()
	return writeFile(t, t.TempDir(), "config.yaml", fmt.Sprintf(`
camunda:
  broker_address: localhost:26500
engine:
  base_url: %s
  subscriber_id: acme
  signing_key: secret
  timeout: 5000
template_store:
  base_path: /srv/templates
`, engineURL))
}

const (
	firstAnswers  = `<AnswerSet version="1.1"><Answer name="Name"><TextValue>Ada</TextValue></Answer><Answer name="City"><TextValue>London</TextValue></Answer></AnswerSet>`
	secondAnswers = `<AnswerSet version="1.1"><Answer name="Name"><TextValue>Grace</TextValue></Answer></AnswerSet>`
)

// ==========================
// overlay
// ==========================

func TestOverlayCmd(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.xml", firstAnswers)

	out, err := runCLI(t, secondAnswers, "overlay", a, "-")
	require.NoError(t, err)

	set, err := answers.Normalize(out)
	require.NoError(t, err)
	name, _ := set.Get("Name")
	assert.Contains(t, name.Value, "Grace")
	assert.Equal(t, 2, set.Len())
}

func TestOverlayCmd_Submission(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.xml", firstAnswers)

	out, err := runCLI(t, "", "overlay", "--submission", "--gzip", a)
	require.NoError(t, err)

	set, err := answers.Normalize(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
}

func TestOverlayCmd_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.xml", "<AnswerSet><Answer")

	_, err := runCLI(t, "", "overlay", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Answer source 0")
}

// ==========================
// encode
// ==========================

func TestEncodeCmd(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want encodeReport
	}{
		{
			name: "pdf with markup",
			args: []string{"encode", "--type", "pdf", "--markup"},
			want: encodeReport{DocumentType: "PDF", OutputFormat: 5, OutputFormatTags: "Answers|PDF", AssemblyOptions: 1, InterviewOptions: 1},
		},
		{
			name: "native defaults",
			args: []string{"encode"},
			want: encodeReport{DocumentType: "Native", OutputFormat: 3, OutputFormatTags: "Answers|Native", InterviewOptions: 1},
		},
		{
			name: "interview toggles",
			args: []string{"encode", "--type", "WordDOCX", "--no-preview", "--no-save", "--exclude-state"},
			want: encodeReport{DocumentType: "WordDOCX", OutputFormat: 513, OutputFormatTags: "Answers|DOCX", InterviewOptions: 15},
		},
		{
			name: "xml carries only answers",
			args: []string{"encode", "--type", "XML"},
			want: encodeReport{DocumentType: "XML", OutputFormat: 1, OutputFormatTags: "Answers", InterviewOptions: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, "", tt.args...)
			require.NoError(t, err)

			var got encodeReport
			require.NoError(t, json.Unmarshal([]byte(out), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeCmd_UnknownType(t *testing.T) {
	_, err := runCLI(t, "", "encode", "--type", "bogus")
	require.Error(t, err)
}

// ==========================
// assemble / component-info
// ==========================

func TestAssembleCmd_WritesDocument(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="letter.pdf"`)
		w.Header().Set("X-HD-Format", "4")
		w.Header().Set("X-HD-Unanswered", "Amount")
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer server.Close()

	outDir := t.TempDir()
	out, err := runCLI(t, "", "--config", writeConfig(t, server.URL), "assemble", "letters/letter.docx", "--type", "PDF", "-o", outDir)
	require.NoError(t, err)

	assert.Equal(t, "/assemble/acme/letters/letter.docx", gotPath)
	data, err := os.ReadFile(filepath.Join(outDir, "letter-assembled.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(data))
	assert.Contains(t, out, "unanswered Amount")
}

func TestAssembleCmd_NothingAssembled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	out, err := runCLI(t, "", "--config", writeConfig(t, server.URL), "assemble", "letter.docx", "-o", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "nothing assembled")
}

func TestAssembleCmd_EngineRejects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad signature", http.StatusForbidden)
	}))
	defer server.Close()

	_, err := runCLI(t, "", "--config", writeConfig(t, server.URL), "assemble", "letter.docx", "-o", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENGINE_REJECTED")
}

func TestComponentInfoCmd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"variables":[{"name":"Name","type":"Text"}]}`))
	}))
	defer server.Close()

	out, err := runCLI(t, "", "--config", writeConfig(t, server.URL), "component-info", "letter.docx")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Name"`)
}

// ==========================
// registry
// ==========================

func TestRegistryValidateCmd_ShippedRegistry(t *testing.T) {
	out, err := runCLI(t, "", "registry", "validate", "--path", filepath.Join("..", "..", "configs", "activity-registry.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "Found 4 activities")
}

func TestRegistrySetCmd(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("..", "..", "configs", "activity-registry.json"))
	require.NoError(t, err)
	path := writeFile(t, t.TempDir(), "registry.json", string(src))

	_, err = runCLI(t, "", "registry", "set", "overlay-answers", "retries", "2", "--path", path)
	require.NoError(t, err)

	reg, err := registry.LoadRegistry(path)
	require.NoError(t, err)
	a, ok := reg.Find("overlay-answers")
	require.True(t, ok)
	assert.Equal(t, 2, a.Retries)

	_, err = runCLI(t, "", "registry", "set", "overlay-answers", "color", "blue", "--path", path)
	assert.Error(t, err)
}
