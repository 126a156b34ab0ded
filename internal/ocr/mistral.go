package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/quote-engine/internal/resilience"
)

const (
	mistralOCREndpoint  = "https://api.mistral.ai/v1/ocr"
	defaultMistralModel = "mistral-ocr-latest"

	mistralMaxAttempts    = 3
	mistralInitialBackoff = 500 * time.Millisecond
)

// MistralOCR extracts text from PDFs and images using the Mistral OCR API.
type MistralOCR struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	backoff  time.Duration
}

// NewMistralOCR creates a MistralOCR extractor. If model is empty, the default is used.
func NewMistralOCR(apiKey, model string) *MistralOCR {
	if model == "" {
		model = defaultMistralModel
	}
	return &MistralOCR{
		apiKey:   apiKey,
		model:    model,
		endpoint: mistralOCREndpoint,
		client:   &http.Client{Timeout: 2 * time.Minute},
		backoff:  mistralInitialBackoff,
	}
}

type mistralOCRRequest struct {
	Model    string             `json:"model"`
	Document mistralOCRDocument `json:"document"`
}

// mistralOCRDocument carries either a document_url (PDF) or an image_url.
type mistralOCRDocument struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

type mistralOCRResponse struct {
	Pages []mistralOCRPage `json:"pages"`
}

type mistralOCRPage struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

// statusError is a non-200 response from the OCR API.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("mistral API returned %d: %s", e.code, e.body)
}

// ExtractText reads a PDF or image, sends it to Mistral OCR, and returns the
// whitespace-collapsed text of all pages.
func (m *MistralOCR) ExtractText(ctx context.Context, path string) (string, error) {
	doc, err := m.document(path)
	if err != nil {
		return "", err
	}

	bodyBytes, err := json.Marshal(mistralOCRRequest{Model: m.model, Document: doc})
	if err != nil {
		return "", eris.Wrap(err, "ocr: marshal mistral request")
	}

	ocrResp, err := resilience.Retry(ctx, resilience.Policy{
		MaxAttempts:    mistralMaxAttempts,
		InitialBackoff: m.backoff,
		Name:           "mistral ocr",
	}, func(ctx context.Context) (mistralOCRResponse, error) {
		return m.call(ctx, bodyBytes)
	})
	if err != nil {
		return "", eris.Wrap(err, "ocr: extract")
	}

	pages := make([]string, len(ocrResp.Pages))
	for i, page := range ocrResp.Pages {
		pages[i] = page.Markdown
	}
	return collapse(strings.Join(pages, "\n\n")), nil
}

func (m *MistralOCR) document(path string) (mistralOCRDocument, error) {
	kind := KindOf(path)
	if kind == KindUnsupported {
		return mistralOCRDocument{}, eris.Errorf("ocr: unsupported file type for %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return mistralOCRDocument{}, eris.Wrapf(err, "ocr: read document %s", path)
	}

	dataURL := "data:" + mimeType(path) + ";base64," + base64.StdEncoding.EncodeToString(data)
	if kind == KindImage {
		return mistralOCRDocument{Type: "image_url", ImageURL: dataURL}, nil
	}
	return mistralOCRDocument{Type: "document_url", DocumentURL: dataURL}, nil
}

func (m *MistralOCR) call(ctx context.Context, body []byte) (mistralOCRResponse, error) {
	var out mistralOCRResponse

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return out, eris.Wrap(err, "ocr: create mistral request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return out, eris.Wrap(err, "ocr: mistral API call")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, eris.Wrap(err, "ocr: read mistral response")
	}

	if resp.StatusCode != http.StatusOK {
		err := &statusError{code: resp.StatusCode, body: string(respBody)}
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return out, resilience.NewTransientError(err, resp.StatusCode)
		}
		return out, err
	}

	if err := json.Unmarshal(respBody, &out); err != nil {
		return out, eris.Wrap(err, "ocr: unmarshal mistral response")
	}
	return out, nil
}
