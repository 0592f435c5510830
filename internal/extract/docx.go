package extract

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"resumatch/internal/errors"

	"github.com/nguyenthenguyen/docx"
)

// extractDOCX reads word/document.xml and keeps the text runs, one line per paragraph.
func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewExtractionError(errors.ErrCodeExtractionFailed, "DOCX extraction error", err)
	}
	defer doc.Close()

	text, err := documentXMLText(doc.Editable().GetContent())
	if err != nil {
		return "", errors.NewExtractionError(errors.ErrCodeExtractionFailed, "DOCX extraction error", err)
	}
	return text, nil
}

// documentXMLText collects w:t character data, breaking lines at paragraph ends and w:br.
func documentXMLText(content string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(content))

	var (
		builder strings.Builder
		inText  bool
	)
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				builder.WriteString("\t")
			case "br":
				builder.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				builder.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				builder.Write(t)
			}
		}
	}

	return builder.String(), nil
}
