// internal/templatestore/store.go
package templatestore

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"docassembly-workers/internal/assembly"
	"docassembly-workers/internal/common/errors"
)

// Store resolves templates kept under a base directory.
type Store struct {
	basePath string
}

func New(basePath string) *Store {
	return &Store{basePath: filepath.Clean(basePath)}
}

func (s *Store) BasePath() string {
	return s.basePath
}

// Template builds a template reference for a file relative to the base
// path. The file's directory becomes the template location.
func (s *Store) Template(fileName, key, switches string) assembly.Template {
	full := filepath.Join(s.basePath, filepath.FromSlash(fileName))
	return assembly.NewTemplate(
		assembly.Location{Dir: filepath.Dir(full)},
		filepath.Base(full),
		key,
		switches,
	)
}

// Exists reports whether the template file is present on disk.
func (s *Store) Exists(t assembly.Template) error {
	info, err := os.Stat(t.Path())
	if err != nil || info.IsDir() {
		return errors.NewTemplateNotFoundError(t.Path())
	}
	return nil
}

// RelativeID strips the base path from a template's absolute location,
// ignoring case, and returns it with forward slashes.
func (s *Store) RelativeID(t assembly.Template) (string, error) {
	full := filepath.Clean(t.Path())
	base := s.basePath

	rest, ok := trimPrefixFold(full, base)
	if !ok || rest == "" {
		return "", errors.NewConfigurationMismatchError(full, base)
	}
	if !strings.HasPrefix(rest, string(filepath.Separator)) && !strings.HasSuffix(base, string(filepath.Separator)) {
		return "", errors.NewConfigurationMismatchError(full, base)
	}

	return filepath.ToSlash(strings.TrimLeft(rest, string(filepath.Separator))), nil
}

// trimPrefixFold removes prefix from s under Unicode case folding. Runes are
// compared one at a time since folded spellings can differ in byte length.
func trimPrefixFold(s, prefix string) (string, bool) {
	for prefix != "" {
		if s == "" {
			return "", false
		}
		pr, pn := utf8.DecodeRuneInString(prefix)
		sr, sn := utf8.DecodeRuneInString(s)
		if pr != sr && !strings.EqualFold(string(pr), string(sr)) {
			return "", false
		}
		prefix, s = prefix[pn:], s[sn:]
	}
	return s, true
}
