package tpl

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"unicode/utf8"
)

const FileSuffix = ".gotxt"

// TextTemplateStore holds the plain-text templates (notification mail
// bodies etc.), keyed by their path relative to the template root.
type TextTemplateStore struct {
	Base map[string]*template.Template
}

func NewTextTemplateStore() *TextTemplateStore {
	return &TextTemplateStore{
		Base: make(map[string]*template.Template),
	}
}

func (s *TextTemplateStore) Lookup(key string) (*template.Template, bool) {
	t, ok := s.Base[key]
	return t, ok
}

func (s *TextTemplateStore) LoadBaseTemplates(tplRoot string) error {
	// Normalize the root dir to avoid trailing slash issues
	tplRoot = filepath.Clean(tplRoot)
	err := filepath.WalkDir( // Pre-order Depth-first Traversal
		tplRoot,
		func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			name := d.Name()
			// Skip Hidden Files & Hidden Directories
			if strings.HasPrefix(name, ".") {
				if d.IsDir() {
					return fs.SkipDir // Do NOT walk into this directory
				}
				return nil // skip the file
			}
			if d.IsDir() {
				return nil // just walk into it
			}
			if !strings.HasSuffix(path, FileSuffix) {
				return nil
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if !utf8.Valid(data) {
				return fmt.Errorf("file %s is not valid UTF-8", path)
			}
			// template key: relative path to the template root without extension
			rel, _ := filepath.Rel(tplRoot, path)
			key := strings.TrimSuffix(filepath.ToSlash(rel), FileSuffix)
			if _, exists := s.Base[key]; exists {
				return fmt.Errorf("duplicate template key detected: %s (file=%s)", key, path)
			}
			t := template.New(key)
			t, err = t.Parse(string(data))
			if err != nil {
				return fmt.Errorf("parse error in %s: %w", path, err)
			}
			s.Base[key] = t
			return nil
		},
	)
	if err != nil {
		return err
	}
	log.Printf("[INFO][TEMPLATE] Loaded %d templates from %s", len(s.Base), tplRoot)
	return nil
}
