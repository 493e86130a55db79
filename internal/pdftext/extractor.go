package pdftext

import (
	"io"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractor pulls plain text out of a PDF file. Implementations never fail:
// any problem yields ok == false.
type Extractor interface {
	Extract(path string) (text string, ok bool)
}

// Func adapts a plain function to Extractor.
type Func func(path string) (string, bool)

// Extract calls f.
func (f Func) Extract(path string) (string, bool) {
	return f(path)
}

// Disabled never extracts anything.
var Disabled Extractor = Func(func(string) (string, bool) { return "", false })

// PDFExtractor reads text layers with github.com/ledongthuc/pdf.
type PDFExtractor struct {
	// MaxBytes caps how much text is read from one file. Zero means no cap.
	MaxBytes int64
	logger   *slog.Logger
}

// NewPDFExtractor creates a PDFExtractor.
func NewPDFExtractor(maxBytes int64) *PDFExtractor {
	return &PDFExtractor{
		MaxBytes: maxBytes,
		logger:   slog.Default(),
	}
}

// Extract returns the text of the PDF at path.
func (e *PDFExtractor) Extract(path string) (text string, ok bool) {
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("pdf extraction panicked", "path", path, "panic", r)
			text, ok = "", false
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		e.logger.Debug("failed to open pdf", "path", path, "error", err)
		return "", false
	}
	defer func() {
		_ = f.Close()
	}()

	plain, err := reader.GetPlainText()
	if err != nil {
		e.logger.Debug("failed to read pdf text", "path", path, "error", err)
		return "", false
	}
	if e.MaxBytes > 0 {
		plain = io.LimitReader(plain, e.MaxBytes)
	}

	raw, err := io.ReadAll(plain)
	if err != nil {
		e.logger.Debug("failed to read pdf text", "path", path, "error", err)
		return "", false
	}

	text = strings.TrimSpace(string(raw))
	if text == "" {
		return "", false
	}
	return text, true
}
