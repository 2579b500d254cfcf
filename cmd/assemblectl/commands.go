// cmd/assemblectl/commands.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"docassembly-workers/internal/answers"
	"docassembly-workers/internal/assembly"
	"docassembly-workers/internal/service"

	"github.com/spf13/cobra"
)

// readSources reads answer files in order; "-" reads stdin.
func readSources(cmd *cobra.Command, paths []string) ([]string, error) {
	sources := make([]string, 0, len(paths))
	for _, p := range paths {
		var data []byte
		var err error
		if p == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(p)
		}
		if err != nil {
			return nil, fmt.Errorf("read answers %s: %w", p, err)
		}
		sources = append(sources, string(data))
	}
	return sources, nil
}

func newOverlayCmd(opts *cliOptions) *cobra.Command {
	var submission, compress bool

	cmd := &cobra.Command{
		Use:   "overlay FILE...",
		Short: "Merge answer files, later files winning",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := readSources(cmd, args)
			if err != nil {
				return err
			}

			set, err := answers.OverlaySet(sources)
			if err != nil {
				return err
			}

			var out string
			if submission {
				out, err = answers.EncodeSubmission(set, compress)
			} else {
				out, err = set.Encode()
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&submission, "submission", false, "print as a base64 interview submission")
	cmd.Flags().BoolVar(&compress, "gzip", false, "gzip the submission before encoding")
	return cmd
}

type encodeReport struct {
	DocumentType     string `json:"documentType"`
	OutputFormat     uint32 `json:"outputFormat"`
	OutputFormatTags string `json:"outputFormatTags"`
	AssemblyOptions  uint32 `json:"assemblyOptions"`
	InterviewOptions uint32 `json:"interviewOptions"`
}

func newEncodeCmd() *cobra.Command {
	var docType string
	var markup, noPreview, noSave, excludeState bool

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Show the wire flags a request would carry",
		RunE: func(cmd *cobra.Command, args []string) error {
			dt := assembly.ParseDocumentType(docType)
			if dt == assembly.DocumentUnknown {
				return fmt.Errorf("unknown document type %q", docType)
			}

			settings := &assembly.Settings{
				UseMarkupSyntax:        triFlag(markup),
				DisableDocumentPreview: triFlag(noPreview),
				DisableSaveAnswers:     triFlag(noSave),
				ExcludeStateFromOutput: triFlag(excludeState),
			}
			format := assembly.EncodeOutputFormat(dt)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(encodeReport{
				DocumentType:     dt.String(),
				OutputFormat:     uint32(format),
				OutputFormatTags: format.String(),
				AssemblyOptions:  uint32(assembly.EncodeAssemblyOptions(settings)),
				InterviewOptions: uint32(assembly.EncodeInterviewOptions(settings)),
			})
		},
	}

	cmd.Flags().StringVar(&docType, "type", "Native", "requested document type")
	cmd.Flags().BoolVar(&markup, "markup", false, "assemble in markup view")
	cmd.Flags().BoolVar(&noPreview, "no-preview", false, "disable interview document preview")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "disable interview answer saving")
	cmd.Flags().BoolVar(&excludeState, "exclude-state", false, "exclude interview state from output")
	return cmd
}

func triFlag(set bool) assembly.TriState {
	if set {
		return assembly.TriTrue
	}
	return assembly.TriUnset
}

func newAssembleCmd(opts *cliOptions) *cobra.Command {
	var answerFiles []string
	var docType, outDir, key, switches string
	var markup bool

	cmd := &cobra.Command{
		Use:   "assemble TEMPLATE",
		Short: "Assemble a template on the engine and write the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			sources, err := readSources(cmd, answerFiles)
			if err != nil {
				return err
			}

			dt := assembly.DocumentTypeFromFileName(args[0])
			if docType != "" {
				if dt = assembly.ParseDocumentType(docType); dt == assembly.DocumentUnknown {
					return fmt.Errorf("unknown document type %q", docType)
				}
			}

			svc := service.NewFromConfig(cfg, nil, opts.logger())
			tmpl := svc.Store().Template(args[0], key, switches)
			settings := &assembly.Settings{UseMarkupSyntax: triFlag(markup)}

			result, err := svc.AssembleDocument(cmd.Context(), opts.logRef, tmpl, sources, dt, settings)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if result == nil {
				fmt.Fprintln(out, "nothing assembled")
				return nil
			}
			return writeResult(out, outDir, tmpl, result)
		},
	}

	cmd.Flags().StringSliceVarP(&answerFiles, "answers", "a", nil, "answer files to overlay, in order")
	cmd.Flags().StringVar(&docType, "type", "", "document type (defaults to the template's extension)")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory for the assembled files")
	cmd.Flags().StringVar(&key, "key", "", "template key")
	cmd.Flags().StringVar(&switches, "switches", "", "template switches")
	cmd.Flags().BoolVar(&markup, "markup", false, "assemble in markup view")
	return cmd
}

func writeResult(out io.Writer, outDir string, tmpl assembly.Template, result *assembly.AssembledResult) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	base := strings.TrimSuffix(tmpl.FileName, filepath.Ext(tmpl.FileName))
	docPath := filepath.Join(outDir, base+"-assembled"+extensionFor(result.Document.Type, tmpl.FileName))
	if err := os.WriteFile(docPath, result.Document.Data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(out, "document  %s (%s, %d bytes)\n", docPath, result.Document.Type, len(result.Document.Data))

	if result.HasAnswers() {
		answersPath := filepath.Join(outDir, base+"-answers.xml")
		if err := os.WriteFile(answersPath, []byte(*result.Answers), 0o644); err != nil {
			return err
		}
		fmt.Fprintf(out, "answers   %s\n", answersPath)
	}
	for _, f := range result.SupportingFiles {
		p := filepath.Join(outDir, assembly.BaseName(f.Name))
		if err := os.WriteFile(p, f.Data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(out, "file      %s\n", p)
	}
	for _, p := range result.PendingAssemblies {
		fmt.Fprintf(out, "pending   %s %s\n", p.Template.FileName, p.Switches)
	}
	if len(result.UnansweredVariables) > 0 {
		fmt.Fprintf(out, "unanswered %s\n", strings.Join(result.UnansweredVariables, ", "))
	}
	return nil
}

var typeExtensions = map[assembly.DocumentType]string{
	assembly.DocumentPDF:              ".pdf",
	assembly.DocumentHTML:             ".html",
	assembly.DocumentHTMLWithDataURIs: ".html",
	assembly.DocumentMHTML:            ".mht",
	assembly.DocumentPlainText:        ".txt",
	assembly.DocumentWordDOC:          ".doc",
	assembly.DocumentWordDOCX:         ".docx",
	assembly.DocumentWordPerfect:      ".wpd",
	assembly.DocumentWordRTF:          ".rtf",
	assembly.DocumentXML:              ".xml",
	assembly.DocumentHPD:              ".hpd",
	assembly.DocumentHFD:              ".hfd",
}

func extensionFor(dt assembly.DocumentType, templateFile string) string {
	if ext, ok := typeExtensions[dt]; ok {
		return ext
	}
	return filepath.Ext(templateFile)
}

func newComponentInfoCmd(opts *cliOptions) *cobra.Command {
	var dialogs bool

	cmd := &cobra.Command{
		Use:   "component-info TEMPLATE",
		Short: "List the variables and dialogs a template declares",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			svc := service.NewFromConfig(cfg, nil, opts.logger())

			info, err := svc.GetComponentInfo(cmd.Context(), opts.logRef, svc.Store().Template(args[0], "", ""), dialogs)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		},
	}

	cmd.Flags().BoolVar(&dialogs, "dialogs", false, "include dialog definitions")
	return cmd
}
