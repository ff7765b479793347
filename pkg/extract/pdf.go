package extract

import (
	"bytes"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor pulls text out of PDF uploads. Image-only PDFs yield little
// or no text; the caller's minimum-length check rejects those.
type PDFExtractor struct{}

func (e *PDFExtractor) Extract(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", NewContentError("Could not parse PDF: %v", err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", NewContentError("Could not extract PDF text: %v", err)
	}

	var b strings.Builder
	if _, err := io.Copy(&b, textReader); err != nil {
		return "", NewContentError("Could not read PDF text: %v", err)
	}

	return strings.TrimSpace(b.String()), nil
}
