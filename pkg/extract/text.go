package extract

import (
	"strings"
	"unicode/utf8"
)

// TextExtractor handles plain .txt uploads
type TextExtractor struct{}

func (e *TextExtractor) Extract(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", NewContentError("File is not valid UTF-8 text.")
	}
	return strings.TrimSpace(string(data)), nil
}
