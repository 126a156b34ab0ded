package ocr

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/rotisserie/eris"
)

// PdfToText extracts the text layer of PDFs using the pdftotext CLI tool.
type PdfToText struct {
	binPath string
}

// NewPdfToText creates a PdfToText extractor. If binPath is empty, "pdftotext" is used.
func NewPdfToText(binPath string) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PdfToText{binPath: binPath}
}

// ExtractText runs pdftotext -layout on the given PDF and returns the
// whitespace-collapsed output.
func (p *PdfToText) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	out, err := run(ctx, p.binPath, "-layout", pdfPath, "-")
	if err != nil {
		return "", eris.Wrapf(err, "ocr: pdftotext failed for %s", pdfPath)
	}
	return collapse(out), nil
}

func run(ctx context.Context, bin string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, bin, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrap(err, stderr.String())
	}
	return stdout.String(), nil
}
