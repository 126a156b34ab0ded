// Package quote composes the RFQ pipeline: segment and extract lines, match
// them to the catalog, optionally approve review lines, then price the quote.
package quote

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/quote-engine/internal/catalog"
	"github.com/sells-group/quote-engine/internal/config"
	"github.com/sells-group/quote-engine/internal/match"
	"github.com/sells-group/quote-engine/internal/model"
	"github.com/sells-group/quote-engine/internal/pricing"
	"github.com/sells-group/quote-engine/internal/rfq"
)

// Quote ID prefixes by RFQ channel.
const (
	PrefixText = "Q-TXT"
	PrefixOCR  = "Q-OCR"
	PrefixCSV  = "Q-CSV"
)

// Request is one quote to generate.
type Request struct {
	Text           string
	DiscountPct    float64
	FreightTaxable bool
	TargetCurrency string
	// Approve resolves every review line to its top candidate before pricing.
	Approve bool
	// Source labels the request in logs (file name, "api", ...).
	Source string
	// IDPrefix defaults to PrefixText.
	IDPrefix string
}

// Validate checks the per-quote inputs.
func (r Request) Validate() error {
	if r.DiscountPct < 0 || r.DiscountPct > 100 {
		return eris.Errorf("quote: header discount %v must be between 0 and 100", r.DiscountPct)
	}
	return nil
}

// Service generates quotes. It holds only immutable collaborators and is
// safe for concurrent use.
type Service struct {
	matcher       *match.Matcher
	pricer        *pricing.Engine
	buyerID       string
	maxConcurrent int
	newID         func(prefix string) string
}

// NewService wires a Service from its collaborators.
func NewService(m *match.Matcher, p *pricing.Engine, buyerID string, maxConcurrent int) (*Service, error) {
	if m == nil || p == nil {
		return nil, eris.New("quote: matcher and pricing engine are required")
	}
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Service{
		matcher:       m,
		pricer:        p,
		buyerID:       buyerID,
		maxConcurrent: maxConcurrent,
		newID:         NewID,
	}, nil
}

// Build creates a Service from loaded catalog data and the application config.
func Build(data *catalog.Data, cfg *config.Config) (*Service, error) {
	m, err := match.NewMatcher(data.Catalog, cfg.Match)
	if err != nil {
		return nil, err
	}
	p, err := pricing.NewEngine(data.Catalog, data.Taxes, data.Rates, pricing.ConfigFrom(cfg.Quote))
	if err != nil {
		return nil, err
	}
	return NewService(m, p, cfg.Quote.BuyerID, cfg.Batch.MaxConcurrent)
}

// NewID returns a short quote identifier such as "Q-TXT-3F9A".
func NewID(prefix string) string {
	if prefix == "" {
		prefix = PrefixText
	}
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return prefix + "-" + strings.ToUpper(hex[:4])
}

// Generate runs the full pipeline for one request. Unmatched text is data,
// not an error: it shows up as NEEDS_REVIEW or NOT_FOUND lines.
func (s *Service) Generate(ctx context.Context, req Request) (model.Quote, error) {
	if err := ctx.Err(); err != nil {
		return model.Quote{}, eris.Wrap(err, "quote: generate")
	}
	if err := req.Validate(); err != nil {
		return model.Quote{}, err
	}

	lines := s.matcher.MatchAll(rfq.Parse(req.Text))
	if req.Approve {
		lines = s.matcher.Approve(lines)
	}

	q := s.pricer.Price(model.Quote{
		ID:       s.newID(req.IDPrefix),
		Revision: 1,
		BuyerID:  s.buyerID,
		Lines:    lines,
	}, pricing.Options{
		DiscountPct:    req.DiscountPct,
		FreightTaxable: req.FreightTaxable,
		TargetCurrency: req.TargetCurrency,
	})

	resolved := 0
	for _, l := range q.Lines {
		if l.Resolved {
			resolved++
		}
	}
	zap.L().Info("quote: generated",
		zap.String("quote_id", q.ID),
		zap.String("source", req.Source),
		zap.Int("lines", len(q.Lines)),
		zap.Int("resolved", resolved),
		zap.String("currency", q.Currency),
		zap.Float64("grand_total", q.Totals.GrandTotal),
	)
	return q, nil
}

// BatchResult pairs a request with its quote or error.
type BatchResult struct {
	Source string
	Quote  model.Quote
	Err    error
}

// GenerateBatch quotes every request concurrently, at most maxConcurrent at
// a time. One failed request does not stop the others; results keep the
// request order.
func (s *Service) GenerateBatch(ctx context.Context, reqs []Request) []BatchResult {
	results := make([]BatchResult, len(reqs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	var succeeded, failed atomic.Int64
	for i, req := range reqs {
		g.Go(func() error {
			q, err := s.Generate(gCtx, req)
			results[i] = BatchResult{Source: req.Source, Quote: q, Err: err}
			if err != nil {
				failed.Add(1)
				zap.L().Error("quote: batch item failed",
					zap.String("source", req.Source),
					zap.Error(err),
				)
				return nil
			}
			succeeded.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	zap.L().Info("quote: batch complete",
		zap.Int("total", len(reqs)),
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return results
}
