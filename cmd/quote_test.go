//go:build !integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/quote-engine/internal/model"
	"github.com/sells-group/quote-engine/internal/quote"
)

type fakeExtractor struct {
	text string
	err  error
	path string
}

func (f *fakeExtractor) ExtractText(_ context.Context, path string) (string, error) {
	f.path = path
	return f.text, f.err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRFQInput_Read(t *testing.T) {
	ctx := context.Background()

	t.Run("text", func(t *testing.T) {
		text, prefix, source, err := rfqInput{Text: "  20mm conduit 100m "}.read(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, "20mm conduit 100m", text)
		assert.Equal(t, quote.PrefixText, prefix)
		assert.Equal(t, "cli", source)
	})

	t.Run("file", func(t *testing.T) {
		path := writeTemp(t, "rfq.txt", "pls quote 20mm conduit 100m\n")
		text, prefix, source, err := rfqInput{File: path}.read(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, "pls quote 20mm conduit 100m", text)
		assert.Equal(t, quote.PrefixText, prefix)
		assert.Equal(t, "rfq.txt", source)
	})

	t.Run("image", func(t *testing.T) {
		ext := &fakeExtractor{text: "gi saddle clamp 25mm 10 nos"}
		text, prefix, source, err := rfqInput{Image: "/scans/rfq.pdf"}.read(ctx, ext)
		require.NoError(t, err)
		assert.Equal(t, "gi saddle clamp 25mm 10 nos", text)
		assert.Equal(t, quote.PrefixOCR, prefix)
		assert.Equal(t, "rfq.pdf", source)
		assert.Equal(t, "/scans/rfq.pdf", ext.path)
	})

	t.Run("table", func(t *testing.T) {
		path := writeTemp(t, "rfq.csv", "Description,Qty,UOM\nGI Saddle Clamp 25mm,10,nos\n")
		text, prefix, _, err := rfqInput{Table: path}.read(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, "GI Saddle Clamp 25mm 10 nos", text)
		assert.Equal(t, quote.PrefixCSV, prefix)
	})
}

func TestRFQInput_ReadErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		in      rfqInput
		ext     *fakeExtractor
		wantErr string
	}{
		{"nothing", rfqInput{}, nil, "one of --text, --file, --image or --csv is required"},
		{"missing file", rfqInput{File: "/nonexistent/rfq.txt"}, nil, "read rfq file"},
		{"unsupported image", rfqInput{Image: "rfq.docx"}, nil, "is not an image or PDF"},
		{"ocr error", rfqInput{Image: "rfq.png"}, &fakeExtractor{err: errors.New("no tesseract")}, "ocr"},
		{"ocr empty", rfqInput{Image: "rfq.png"}, &fakeExtractor{text: "  "}, "no RFQ text found in rfq.png"},
		{"table columns", rfqInput{Table: writeTemp(t, "bad.csv", "Item,Price\nclamp,4\n")}, nil, "description, quantity and uom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := tt.in.read(ctx, tt.ext)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWriteQuote(t *testing.T) {
	write := func(w io.Writer) error {
		_, err := w.Write([]byte("quote"))
		return err
	}

	var stdout bytes.Buffer
	require.NoError(t, writeQuote(&stdout, "", write))
	assert.Equal(t, "quote", stdout.String())

	path := filepath.Join(t.TempDir(), "q.txt")
	stdout.Reset()
	require.NoError(t, writeQuote(&stdout, path, write))
	assert.Empty(t, stdout.String())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "quote", string(data))

	err = writeQuote(&stdout, filepath.Join(t.TempDir(), "missing", "q.txt"), write)
	require.Error(t, err)
}

func TestQuoteCmd_EndToEnd(t *testing.T) {
	cfg = testConfig(t)
	out := filepath.Join(t.TempDir(), "quote.json")

	quoteText = "gi saddle clamp 16 swg 25mm 10 nos"
	quoteFormat = "json"
	quoteOutput = out
	quoteCurrency = ""
	quoteApprove = false
	quoteDiscount = 0
	defer func() {
		quoteText, quoteOutput = "", ""
	}()

	quoteCmd.SetContext(context.Background())
	defer quoteCmd.SetContext(context.TODO())

	require.NoError(t, quoteCmd.RunE(quoteCmd, nil))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var q model.Quote
	require.NoError(t, json.Unmarshal(data, &q))

	assert.Regexp(t, `^Q-TXT-[0-9A-F]{4}$`, q.ID)
	require.Len(t, q.Lines, 1)
	assert.Equal(t, "SC25", q.Lines[0].SKU)
	// 10 * 4 + 12% GST + freight below the threshold
	assert.InDelta(t, 1044.8, q.Totals.GrandTotal, 0.001)
}

func TestQuoteCmd_BadFormat(t *testing.T) {
	cfg = testConfig(t)
	quoteText = "x"
	quoteFormat = "docx"
	defer func() { quoteText, quoteFormat = "", "json" }()

	err := quoteCmd.RunE(quoteCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}
