package loader

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// loadDOCX extracts paragraph text from the word/document.xml entry of a
// DOCX archive. Only w:t runs are collected; formatting is discarded.
func loadDOCX(path string) (*Document, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer func() { _ = archive.Close() }()

	var docFile *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("docx is missing word/document.xml")
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open document.xml: %w", err)
	}
	defer func() { _ = rc.Close() }()

	text, paragraphs, err := extractDocumentXML(rc)
	if err != nil {
		return nil, err
	}

	return &Document{
		Source: filepath.Base(path),
		Text:   text,
		Metadata: map[string]any{
			"type":            "docx",
			"paragraph_count": paragraphs,
		},
	}, nil
}

func extractDocumentXML(r io.Reader) (string, int, error) {
	decoder := xml.NewDecoder(r)

	var sb strings.Builder
	var inText bool
	paragraphs := 0

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", 0, fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				paragraphs++
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	return strings.TrimSpace(sb.String()), paragraphs, nil
}
