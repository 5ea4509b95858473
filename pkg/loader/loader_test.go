package loader

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported(".pdf"))
	assert.True(t, IsSupported(".DOCX"))
	assert.True(t, IsSupported(".txt"))
	assert.True(t, IsSupported(".md"))
	assert.False(t, IsSupported(".exe"))
	assert.False(t, IsSupported(""))
}

func TestLoadText(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.txt", "plain text content")

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", doc.Source)
	assert.Equal(t, "plain text content", doc.Text)
	assert.Equal(t, "txt", doc.Metadata["type"])
}

func TestLoadMarkdownStripsFormatting(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "readme.md", "# Title\n\nSome **bold** text and a [link](https://example.com).\n\n```\ncode line\n```\n")

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Contains(t, doc.Text, "Title")
	assert.Contains(t, doc.Text, "Some bold text and a link.")
	assert.Contains(t, doc.Text, "code line")
	assert.NotContains(t, doc.Text, "**")
	assert.NotContains(t, doc.Text, "](")
	assert.Equal(t, "md", doc.Metadata["type"])
}

func writeDOCX(t *testing.T, dir, name, documentXML string) string {
	t.Helper()
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return path
}

func TestLoadDOCX(t *testing.T) {
	const documentXML = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`

	dir := t.TempDir()
	path := writeDOCX(t, dir, "report.docx", documentXML)

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Contains(t, doc.Text, "First paragraph.")
	assert.Contains(t, doc.Text, "Second paragraph.")
	assert.Equal(t, "docx", doc.Metadata["type"])
	assert.Equal(t, 2, doc.Metadata["paragraph_count"])
}

func TestLoadDOCXMissingDocumentXML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.docx")

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "word/document.xml")
}

func TestLoadUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "binary.exe", "xx")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestLoadDirectorySkipsUnsupported(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "alpha")
	writeFile(t, dir, "b.md", "beta")
	writeFile(t, dir, "c.exe", "skip me")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	docs, err := LoadDirectory(dir)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}
