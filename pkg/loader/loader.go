// Package loader extracts plain text from uploaded document files.
//
// Supported formats: PDF, DOCX, TXT and Markdown. Each loader returns a
// Document carrying the extracted text and per-format metadata.
package loader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Document is the result of loading a single file.
type Document struct {
	// Source is the base name of the loaded file.
	Source string

	// Text is the extracted plain text.
	Text string

	// Metadata carries loader-specific details such as file type and
	// page count.
	Metadata map[string]any
}

// supportedExtensions maps file extensions to their loaders.
var supportedExtensions = map[string]func(path string) (*Document, error){
	".pdf":  loadPDF,
	".docx": loadDOCX,
	".txt":  loadText,
	".md":   loadMarkdown,
}

// IsSupported reports whether files with the given extension can be loaded.
// The extension must include the leading dot.
func IsSupported(ext string) bool {
	_, ok := supportedExtensions[strings.ToLower(ext)]
	return ok
}

// SupportedExtensions returns the loadable file extensions.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(supportedExtensions))
	for ext := range supportedExtensions {
		exts = append(exts, ext)
	}
	return exts
}

// Load reads the file at path and extracts its text based on the file
// extension.
func Load(path string) (*Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	load, ok := supportedExtensions[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
	return load(path)
}

// LoadDirectory loads every supported file directly under dir.
// Unsupported files are skipped; a failing file aborts the load.
func LoadDirectory(dir string) ([]*Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var docs []*Document
	for _, entry := range entries {
		if entry.IsDir() || !IsSupported(filepath.Ext(entry.Name())) {
			continue
		}
		doc, err := Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", entry.Name(), err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func loadText(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return &Document{
		Source: filepath.Base(path),
		Text:   string(bytes.ToValidUTF8(data, []byte(""))),
		Metadata: map[string]any{
			"type": "txt",
		},
	}, nil
}
