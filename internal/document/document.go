// Package document extracts per-page text from trading document files.
// Page boundaries matter downstream: page scoring and chunking both work in
// page units, so formats without native pages fall back to proportional
// splitting rather than returning one oversized page.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Pages is the per-page text of one document. Texts[i] is page i+1.
type Pages struct {
	PageCount int
	Texts     []string
}

// Source turns raw document bytes into per-page text.
type Source interface {
	// ExtractPages extracts page texts from content. ext is the file
	// extension including the leading dot (e.g. ".pdf").
	ExtractPages(content []byte, ext string) (*Pages, error)
}

// FileSource extracts pages from PDF, XLSX, ODS, DOCX, and plain-text
// take-off files, dispatching by extension.
type FileSource struct{}

// NewFileSource returns a new FileSource.
func NewFileSource() *FileSource {
	return &FileSource{}
}

// ExtractFile reads the file at path and extracts its pages.
func (s *FileSource) ExtractFile(path string) (*Pages, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return s.ExtractPages(content, strings.ToLower(filepath.Ext(path)))
}

// ExtractPages extracts page texts from content based on the extension.
// Unknown extensions are treated as plain text.
func (s *FileSource) ExtractPages(content []byte, ext string) (*Pages, error) {
	switch ext {
	case ".pdf":
		return extractPDFPages(content)
	case ".xlsx":
		return extractExcelPages(content)
	case ".ods":
		return extractODSPages(content)
	case ".docx":
		return extractDOCXPages(content)
	default:
		return extractPlainPages(content)
	}
}
