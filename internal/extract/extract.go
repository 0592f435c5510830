// Package extract turns resume documents into plain text.
package extract

import (
	"bytes"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"resumatch/internal/errors"
)

// Format is a supported document format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatText Format = "text"
)

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

var (
	pdfMagic = []byte("%PDF-")
	zipMagic = []byte("PK\x03\x04")
)

// DetectFormat determines the document format from the declared content type, the file
// name and finally the leading bytes.
func DetectFormat(contentType, filename string, data []byte) (Format, error) {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mediaType {
		case "application/pdf":
			return FormatPDF, nil
		case docxMIME:
			return FormatDOCX, nil
		case "text/plain", "text/markdown":
			return FormatText, nil
		}
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDOCX, nil
	case ".txt", ".md", ".markdown", ".text":
		return FormatText, nil
	}

	switch {
	case bytes.HasPrefix(data, pdfMagic):
		return FormatPDF, nil
	case bytes.HasPrefix(data, zipMagic):
		return FormatDOCX, nil
	case len(data) > 0 && utf8.Valid(data):
		return FormatText, nil
	}

	return "", errors.NewExtractionError(errors.ErrCodeUnsupportedFile,
		"Unsupported document type", nil).
		WithContext("content_type", contentType).
		WithContext("filename", filename)
}

// Extractor produces plain text from document bytes
type Extractor struct{}

// NewExtractor creates a new extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the text of data. Output that is empty after trimming is an
// extraction failure, distinct from a parser error.
func (e *Extractor) Extract(data []byte, format Format) (string, error) {
	if len(data) == 0 {
		return "", errors.NewExtractionError(errors.ErrCodeEmptyDocument, "Document is empty", nil)
	}

	var (
		text string
		err  error
	)
	switch format {
	case FormatPDF:
		text, err = extractPDF(data)
	case FormatDOCX:
		text, err = extractDOCX(data)
	case FormatText:
		if !utf8.Valid(data) {
			return "", errors.NewExtractionError(errors.ErrCodeExtractionFailed, "Text document is not valid UTF-8", nil)
		}
		text = string(data)
	default:
		return "", errors.NewExtractionError(errors.ErrCodeUnsupportedFile, "Unsupported document type: "+string(format), nil)
	}
	if err != nil {
		return "", err
	}

	text = CleanText(text)
	if text == "" {
		return "", errors.NewExtractionError(errors.ErrCodeEmptyDocument, emptyMessage(format), nil)
	}
	return text, nil
}

func emptyMessage(format Format) string {
	if format == FormatPDF {
		return "Could not extract text from PDF"
	}
	return "Could not extract text from document"
}

// CleanText trims every line and drops blank ones
func CleanText(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
