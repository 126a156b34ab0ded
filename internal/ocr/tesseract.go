package ocr

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// LowConfidence is the mean word confidence below which an image is
// enhanced and recognised a second time.
const LowConfidence = 60.0

// Tesseract recognises text in images using the tesseract CLI tool.
type Tesseract struct {
	binPath string
}

// NewTesseract creates a Tesseract extractor. If binPath is empty, "tesseract" is used.
func NewTesseract(binPath string) *Tesseract {
	if binPath == "" {
		binPath = "tesseract"
	}
	return &Tesseract{binPath: binPath}
}

// ExtractText returns the recognised text of the image.
func (t *Tesseract) ExtractText(ctx context.Context, imagePath string) (string, error) {
	res, err := t.Recognize(ctx, imagePath)
	return res.Text, err
}

// Recognize runs tesseract in TSV mode and averages the word confidences.
// Below LowConfidence the image is binarised with Enhance and recognised
// again; the better of the two passes wins.
func (t *Tesseract) Recognize(ctx context.Context, imagePath string) (Result, error) {
	text, conf, err := t.recognize(ctx, imagePath)
	if err != nil {
		return Result{}, err
	}
	res := Result{Text: text, Confidence: conf}

	if conf < LowConfidence {
		res.Enhanced = true
		eText, eConf, err := t.recognizeEnhanced(ctx, imagePath)
		switch {
		case err != nil:
			zap.L().Warn("ocr: enhanced pass failed", zap.String("path", imagePath), zap.Error(err))
		case eConf > conf:
			res.Text, res.Confidence = eText, eConf
		}
	}

	res.Summary = fmt.Sprintf("Final Confidence: %.1f%%. Enhanced: %t.", res.Confidence, res.Enhanced)
	zap.L().Debug("ocr: tesseract done",
		zap.String("path", imagePath),
		zap.Float64("confidence", res.Confidence),
		zap.Bool("enhanced", res.Enhanced),
	)
	return res, nil
}

func (t *Tesseract) recognize(ctx context.Context, imagePath string) (string, float64, error) {
	out, err := run(ctx, t.binPath, imagePath, "stdout", "tsv")
	if err != nil {
		return "", 0, eris.Wrapf(err, "ocr: tesseract failed for %s", imagePath)
	}
	text, conf := parseTSV(out)
	return text, conf, nil
}

func (t *Tesseract) recognizeEnhanced(ctx context.Context, imagePath string) (string, float64, error) {
	enhanced, err := enhanceFile(imagePath)
	if err != nil {
		return "", 0, err
	}
	defer os.Remove(enhanced) //nolint:errcheck
	return t.recognize(ctx, enhanced)
}

// tsvColumns is the column count of tesseract's TSV output; conf and text
// are the last two.
const tsvColumns = 12

// parseTSV keeps words with a positive confidence and returns their text
// joined by spaces and their mean confidence (0 when there are none).
func parseTSV(tsv string) (string, float64) {
	var words []string
	var total float64
	for _, row := range strings.Split(tsv, "\n") {
		fields := strings.Split(strings.TrimRight(row, "\r"), "\t")
		if len(fields) < tsvColumns {
			continue
		}
		conf, err := strconv.ParseFloat(fields[10], 64)
		if err != nil || conf <= 0 {
			continue
		}
		word := strings.TrimSpace(fields[11])
		if word == "" {
			continue
		}
		words = append(words, word)
		total += conf
	}
	if len(words) == 0 {
		return "", 0
	}
	return collapse(strings.Join(words, " ")), total / float64(len(words))
}
