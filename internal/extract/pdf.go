package extract

import (
	"bytes"
	"fmt"
	"strings"

	"resumatch/internal/errors"

	"github.com/ledongthuc/pdf"
)

// extractPDF concatenates the plain text of every page.
func extractPDF(data []byte) (text string, err error) {
	// The parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = errors.NewExtractionError(errors.ErrCodeExtractionFailed,
				"PDF extraction error", fmt.Errorf("%v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewExtractionError(errors.ErrCodeExtractionFailed, "PDF extraction error", err)
	}

	return pagesText(reader.NumPage(), func(pageIndex int) (string, bool, error) {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			return "", false, nil
		}
		pageText, err := page.GetPlainText(nil)
		return pageText, true, err
	})
}

// pagesText joins the text of pages 1..numPages. A failing page is skipped while others
// yield text; when none does, the first page error is reported.
func pagesText(numPages int, pageText func(pageIndex int) (string, bool, error)) (string, error) {
	var (
		builder  strings.Builder
		firstErr error
	)
	for pageIndex := 1; pageIndex <= numPages; pageIndex++ {
		text, ok, err := pageText(pageIndex)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("page %d: %w", pageIndex, err)
			}
			continue
		}
		if !ok {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}

	if firstErr != nil && strings.TrimSpace(builder.String()) == "" {
		return "", errors.NewExtractionError(errors.ErrCodeExtractionFailed, "PDF extraction error", firstErr)
	}
	return builder.String(), nil
}
