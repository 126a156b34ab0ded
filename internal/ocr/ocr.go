// Package ocr turns scanned or exported RFQ documents (PDFs and images)
// into plain text for the quote pipeline.
package ocr

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/quote-engine/internal/config"
)

// Extractor extracts text content from a PDF or image file.
type Extractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// Result is extracted text plus whatever recognition details the engine
// reports. Confidence is a 0-100 mean word confidence.
type Result struct {
	Text       string
	Confidence float64
	Enhanced   bool
	Summary    string
}

// Recognizer is an Extractor that also reports confidence.
type Recognizer interface {
	Recognize(ctx context.Context, path string) (Result, error)
}

// Extract runs ext on path. Recognizers fill in the confidence details;
// other extractors return text only.
func Extract(ctx context.Context, ext Extractor, path string) (Result, error) {
	if r, ok := ext.(Recognizer); ok {
		return r.Recognize(ctx, path)
	}
	text, err := ext.ExtractText(ctx, path)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: text}, nil
}

// Kind classifies a document by file extension.
type Kind int

const (
	KindUnsupported Kind = iota
	KindPDF
	KindImage
)

var imageMIME = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".bmp":  "image/bmp",
	".webp": "image/webp",
}

// KindOf reports whether path names a PDF, a supported image, or neither.
func KindOf(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".pdf" {
		return KindPDF
	}
	if _, ok := imageMIME[ext]; ok {
		return KindImage
	}
	return KindUnsupported
}

// mimeType returns the data-URL media type for path.
func mimeType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".pdf" {
		return "application/pdf"
	}
	return imageMIME[ext]
}

// NewExtractor creates an Extractor based on config.
func NewExtractor(cfg config.OCRConfig) (Extractor, error) {
	switch cfg.Provider {
	case "local", "":
		return NewLocal(NewPdfToText(cfg.PdfToTextPath), NewTesseract(cfg.TesseractPath)), nil
	case "mistral":
		if cfg.MistralKey == "" {
			return nil, eris.New("ocr: mistral provider requires mistral_api_key")
		}
		return NewMistralOCR(cfg.MistralKey, cfg.MistralModel), nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}

// Local routes PDFs to a text-layer extractor and images to an OCR engine.
type Local struct {
	pdf   Extractor
	image Extractor
}

// NewLocal creates a Local extractor.
func NewLocal(pdf, image Extractor) *Local {
	return &Local{pdf: pdf, image: image}
}

// ExtractText dispatches on the file extension.
func (l *Local) ExtractText(ctx context.Context, path string) (string, error) {
	switch KindOf(path) {
	case KindPDF:
		return l.pdf.ExtractText(ctx, path)
	case KindImage:
		return l.image.ExtractText(ctx, path)
	default:
		return "", eris.Errorf("ocr: unsupported file type %q", filepath.Ext(path))
	}
}

// Recognize dispatches on the file extension like ExtractText, keeping the
// recognition details of the chosen extractor.
func (l *Local) Recognize(ctx context.Context, path string) (Result, error) {
	switch KindOf(path) {
	case KindPDF:
		return Extract(ctx, l.pdf, path)
	case KindImage:
		return Extract(ctx, l.image, path)
	default:
		return Result{}, eris.Errorf("ocr: unsupported file type %q", filepath.Ext(path))
	}
}

// collapse joins all whitespace runs into single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
