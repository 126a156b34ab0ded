package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/quote-engine/internal/model"
	"github.com/sells-group/quote-engine/internal/ocr"
	"github.com/sells-group/quote-engine/internal/quote"
	"github.com/sells-group/quote-engine/internal/render"
	"github.com/sells-group/quote-engine/internal/rfq"
	"github.com/sells-group/quote-engine/internal/tabular"
)

// GenerateQuoteRequest is the /generate-quote body. ChatPayload["text"] is
// used when RFQText is empty.
type GenerateQuoteRequest struct {
	RFQText           string            `json:"rfq_text"`
	ChatPayload       map[string]string `json:"chat_payload,omitempty"`
	HeaderDiscountPct float64           `json:"header_discount_pct"`
	FreightIsTaxable  *bool             `json:"freight_is_taxable,omitempty"`
	TargetCurrency    string            `json:"target_currency"`
}

// ImageQuoteResponse is the /process-rfq-image response.
// OCRSummary is set when the OCR engine reports confidence.
type ImageQuoteResponse struct {
	OCRSummary    string      `json:"ocr_summary,omitempty"`
	ExtractedText string      `json:"extracted_rfq_text"`
	Quote         model.Quote `json:"generated_quote"`
}

// CSVQuoteResponse is the /process-rfq-csv response.
type CSVQuoteResponse struct {
	OriginalText string      `json:"original_csv_text"`
	Quote        model.Quote `json:"generated_quote"`
}

func (s *Server) handleGenerateQuote(w http.ResponseWriter, r *http.Request) {
	format, err := render.ParseFormat(queryParam(r, "format", "response_format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	approve, err := parseBoolParam(queryParam(r, "approve", "is_approved"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body GenerateQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	text := strings.TrimSpace(body.RFQText)
	if text == "" {
		text = strings.TrimSpace(body.ChatPayload["text"])
	}
	if text == "" {
		writeError(w, http.StatusBadRequest, "no valid RFQ text or chat_payload provided")
		return
	}

	freightTaxable := s.freightTaxable
	if body.FreightIsTaxable != nil {
		freightTaxable = *body.FreightIsTaxable
	}

	req := quote.Request{
		Text:           text,
		DiscountPct:    body.HeaderDiscountPct,
		FreightTaxable: freightTaxable,
		TargetCurrency: body.TargetCurrency,
		Approve:        approve,
		Source:         "api",
		IDPrefix:       quote.PrefixText,
	}
	q, ok := s.generate(w, r, req)
	if !ok {
		return
	}

	if format == render.FormatJSON {
		writeJSON(w, http.StatusOK, q)
		return
	}

	var buf bytes.Buffer
	if err := render.Write(&buf, format, q); err != nil {
		zap.L().Error("api: render quote", zap.String("format", string(format)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not render quote")
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, q.ID, format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes()) //nolint:errcheck
}

func (s *Server) handleProcessImage(w http.ResponseWriter, r *http.Request) {
	if s.ocr == nil {
		writeError(w, http.StatusServiceUnavailable, "ocr is not configured")
		return
	}

	data, name, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	if ocr.KindOf(name) == ocr.KindUnsupported {
		writeError(w, http.StatusBadRequest, "file is not an image or PDF")
		return
	}

	path, cleanup, err := spool(data, filepath.Ext(name))
	if err != nil {
		zap.L().Error("api: spool upload", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not store upload")
		return
	}
	defer cleanup()

	res, err := ocr.Extract(r.Context(), s.ocr, path)
	if err != nil {
		zap.L().Error("api: ocr failed", zap.String("file", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "OCR failed")
		return
	}
	text := strings.TrimSpace(res.Text)
	if text == "" {
		writeError(w, http.StatusBadRequest, "OCR could not extract text")
		return
	}

	q, ok := s.generate(w, r, quote.Request{
		Text:           text,
		FreightTaxable: s.freightTaxable,
		Source:         name,
		IDPrefix:       quote.PrefixOCR,
	})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ImageQuoteResponse{OCRSummary: res.Summary, ExtractedText: text, Quote: q})
}

func (s *Server) handleProcessCSV(w http.ResponseWriter, r *http.Request) {
	data, name, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	if !strings.EqualFold(filepath.Ext(name), ".csv") {
		writeError(w, http.StatusBadRequest, "file is not a CSV")
		return
	}

	table, err := tabular.ReadCSV(bytes.NewReader(data))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not parse CSV")
		return
	}
	text, err := rfq.FlattenTable(table)
	if err != nil {
		writeError(w, http.StatusBadRequest, "CSV must contain columns for description, quantity, and UOM")
		return
	}

	q, ok := s.generate(w, r, quote.Request{
		Text:           text,
		FreightTaxable: s.freightTaxable,
		Source:         name,
		IDPrefix:       quote.PrefixCSV,
	})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, CSVQuoteResponse{OriginalText: text, Quote: q})
}

// queryParam returns the first non-empty query value among names.
func queryParam(r *http.Request, names ...string) string {
	q := r.URL.Query()
	for _, n := range names {
		if v := strings.TrimSpace(q.Get(n)); v != "" {
			return v
		}
	}
	return ""
}

// parseBoolParam reads a boolean query value. Empty is false; yes/no and
// on/off are accepted alongside the strconv forms.
func parseBoolParam(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "":
		return false, nil
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off":
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, eris.Errorf("api: invalid approve value %q", v)
	}
	return b, nil
}

// generate runs the quoter and writes an error response on failure.
// Invalid per-request input is a 400; anything else is a 500.
func (s *Server) generate(w http.ResponseWriter, r *http.Request, req quote.Request) (model.Quote, bool) {
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return model.Quote{}, false
	}
	q, err := s.quoter.Generate(r.Context(), req)
	if err != nil {
		zap.L().Error("api: generate quote", zap.String("source", req.Source), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not generate quote")
		return model.Quote{}, false
	}
	return q, true
}

// readUpload reads the multipart "file" field, bounded by MaxUploadMB.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	limit := int64(max(s.cfg.MaxUploadMB, 1)) << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return nil, "", false
		}
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return nil, "", false
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read upload")
		return nil, "", false
	}
	return data, filepath.Base(header.Filename), true
}

// spool writes data to a temp file with the given extension, since the OCR
// tools dispatch on file type.
func spool(data []byte, ext string) (string, func(), error) {
	f, err := os.CreateTemp("", "rfq-*"+strings.ToLower(ext))
	if err != nil {
		return "", nil, eris.Wrap(err, "api: create temp file")
	}
	cleanup := func() { os.Remove(f.Name()) } //nolint:errcheck
	if _, err := f.Write(data); err != nil {
		f.Close() //nolint:errcheck
		cleanup()
		return "", nil, eris.Wrap(err, "api: write temp file")
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, eris.Wrap(err, "api: close temp file")
	}
	return f.Name(), cleanup, nil
}
