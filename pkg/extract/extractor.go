package extract

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ContentError marks a rejected upload (bad type, too large, empty). It is
// surfaced to the caller as a 4xx-style rejection, unlike internal errors.
type ContentError struct {
	Reason string
}

func (e *ContentError) Error() string {
	return e.Reason
}

func NewContentError(format string, args ...interface{}) *ContentError {
	return &ContentError{Reason: fmt.Sprintf(format, args...)}
}

// Extractor pulls plain text out of one file format
type Extractor interface {
	Extract(data []byte) (string, error)
}

// Service validates uploads and dispatches to the per-format extractor.
// Allowlist and byte-size checks run before any extraction is attempted.
type Service struct {
	maxFileSize int64
	extractors  map[string]Extractor
}

func NewService(maxFileSize int64) *Service {
	if maxFileSize <= 0 {
		maxFileSize = 2 * 1024 * 1024
	}
	return &Service{
		maxFileSize: maxFileSize,
		extractors: map[string]Extractor{
			".txt":  &TextExtractor{},
			".pdf":  &PDFExtractor{},
			".docx": &DocxExtractor{},
		},
	}
}

// AllowedTypes lists the accepted extensions for error messages
func (s *Service) AllowedTypes() []string {
	return []string{".pdf", ".docx", ".txt"}
}

// ExtractText validates filename and size, then extracts plain text.
// All rejections are ContentError values.
func (s *Service) ExtractText(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	extractor, ok := s.extractors[ext]
	if !ok {
		return "", NewContentError("Invalid file type. Allowed: %s", strings.Join(s.AllowedTypes(), ", "))
	}

	if int64(len(data)) > s.maxFileSize {
		mbSize := float64(len(data)) / (1024 * 1024)
		return "", NewContentError("File too large (%.2fMB). Limit is %dMB.", mbSize, s.maxFileSize/(1024*1024))
	}

	text, err := extractor.Extract(data)
	if err != nil {
		return "", err
	}
	return text, nil
}
