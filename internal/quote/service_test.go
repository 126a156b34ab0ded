package quote

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/quote-engine/internal/catalog"
	"github.com/sells-group/quote-engine/internal/config"
	"github.com/sells-group/quote-engine/internal/model"
)

const sampleRFQ = `pls quote 20mm flex conduit 600m, 40mm corr pipe 150m FRPP, and 3" heavy hex fan box cpwd 25 nos`

func testData(t *testing.T) *catalog.Data {
	t.Helper()
	cat, err := catalog.New([]model.CatalogItem{
		{SKU: "PFC20L", Family: "PVC Flexible Conduit", Description: "PVC Flexible Conduit 20mm Light", TaxCode: "3917", UOM: model.UnitMeter, Material: model.MaterialPVC, SizeMM: model.Float(20), BaseRate: model.Float(12.5)},
		{SKU: "PFC20M", Family: "PVC Flexible Conduit", Description: "PVC Flexible Conduit 20mm Medium", TaxCode: "3917", UOM: model.UnitMeter, Material: model.MaterialPVC, SizeMM: model.Float(20), BaseRate: model.Float(14)},
		{SKU: "CP40L", Family: "Corrugated Pipe", Description: "Corrugated Pipe 40mm Light", TaxCode: "3917", UOM: model.UnitMeter, Material: model.MaterialPP, AltMaterial: model.MaterialFRPP, SizeMM: model.Float(40), BaseRate: model.Float(30), AltRate: model.Float(38)},
		{SKU: "CP40H", Family: "Corrugated Pipe", Description: "Corrugated Pipe 40mm Heavy", TaxCode: "3917", UOM: model.UnitMeter, Material: model.MaterialPP, AltMaterial: model.MaterialFRPP, SizeMM: model.Float(40), BaseRate: model.Float(36), AltRate: model.Float(45)},
		{SKU: "GFB3", Family: "GI Fan Box", Description: "GI Fan Box 3 inch Hex Heavy", TaxCode: "7326", UOM: model.UnitPiece, Material: model.MaterialGI, BaseRate: model.Float(85)},
		{SKU: "GFB3R", Family: "GI Fan Box", Description: "GI Fan Box 3 inch Round Light", TaxCode: "7326", UOM: model.UnitPiece, Material: model.MaterialGI, BaseRate: model.Float(70)},
		{SKU: "SC25", Family: "Saddle Clamp", Description: "GI Saddle Clamp 25mm", TaxCode: "7326", UOM: model.UnitPiece, Material: model.MaterialGI, Gauge: "16 SWG", SizeMM: model.Float(25), BaseRate: model.Float(4)},
	})
	require.NoError(t, err)
	rates, err := catalog.NewRateTable(map[string]float64{"USD": 83})
	require.NoError(t, err)
	return &catalog.Data{
		Catalog: cat,
		Taxes:   catalog.NewTaxTable([]model.TaxRate{{Code: "3917", Pct: 18}, {Code: "7326", Pct: 12}}),
		Rates:   rates,
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Quote: config.QuoteConfig{BaseCurrency: "INR", BuyerID: "BUYER-001", FreightThreshold: 50000, FreightCharge: 1000, DefaultTaxPct: 18},
		Match: config.MatchConfig{AutoMatchScore: 85, AutoMatchDelta: 15, SizeToleranceMM: 1, TopN: 5},
		Batch: config.BatchConfig{MaxConcurrent: 2},
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := Build(testData(t), testConfig())
	require.NoError(t, err)
	return svc
}

func TestNewID(t *testing.T) {
	t.Parallel()

	assert.Regexp(t, regexp.MustCompile(`^Q-TXT-[0-9A-F]{4}$`), NewID(""))
	assert.Regexp(t, regexp.MustCompile(`^Q-OCR-[0-9A-F]{4}$`), NewID(PrefixOCR))
}

func TestNewService_RequiresCollaborators(t *testing.T) {
	t.Parallel()

	_, err := NewService(nil, nil, "", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matcher and pricing engine are required")
}

func TestGenerate_SampleNeedsReview(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	q, err := svc.Generate(context.Background(), Request{Text: sampleRFQ})
	require.NoError(t, err)

	assert.Regexp(t, `^Q-TXT-`, q.ID)
	assert.Equal(t, 1, q.Revision)
	assert.Equal(t, "BUYER-001", q.BuyerID)
	assert.Equal(t, "INR", q.Currency)
	require.Len(t, q.Lines, 3)
	for i, l := range q.Lines {
		assert.Equal(t, i+1, l.LineNo)
		assert.False(t, l.Resolved, l.InputText)
		assert.Equal(t, model.StatusNeedsReview, l.Explain.Status)
		assert.Nil(t, l.Amount)
	}
	assert.Zero(t, q.Totals.Subtotal)
	assert.Contains(t, q.Notes, "3 line(s) are not resolved and are excluded from totals.")
}

func TestGenerate_ApproveResolvesEverything(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	q, err := svc.Generate(context.Background(), Request{Text: sampleRFQ, Approve: true})
	require.NoError(t, err)

	require.Len(t, q.Lines, 3)
	skus := make([]string, len(q.Lines))
	for i, l := range q.Lines {
		assert.True(t, l.Resolved)
		assert.Equal(t, model.StatusApproved, l.Explain.Status)
		skus[i] = l.SKU
	}
	assert.Equal(t, []string{"PFC20L", "CP40L", "GFB3"}, skus)

	// 600*12.5 + 150*38 (FRPP alternate rate) + 25*85
	assert.InDelta(t, 15325.0, q.Totals.Subtotal, 0.001)
	// 13200 at 18% + 2125 at 12%
	assert.InDelta(t, 2631.0, q.Totals.TotalTax, 0.001)
	assert.InDelta(t, 1000.0, q.Totals.Freight, 0.001)
	assert.InDelta(t, 18956.0, q.Totals.GrandTotal, 0.001)
	require.Len(t, q.Totals.TaxBreakup, 2)
	assert.Equal(t, "3917", q.Totals.TaxBreakup[0].TaxCode)
}

func TestGenerate_TerseLineIsApprovable(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	q, err := svc.Generate(context.Background(), Request{Text: "20mm 100 m"})
	require.NoError(t, err)
	require.Len(t, q.Lines, 1)
	assert.Equal(t, model.StatusNeedsReview, q.Lines[0].Explain.Status)
	assert.NotEmpty(t, q.Lines[0].Explain.Candidates)

	q, err = svc.Generate(context.Background(), Request{Text: "20mm 100 m", Approve: true})
	require.NoError(t, err)
	require.Len(t, q.Lines, 1)
	l := q.Lines[0]
	require.True(t, l.Resolved)
	assert.Equal(t, model.StatusApproved, l.Explain.Status)
	assert.Equal(t, "PFC20L", l.SKU)
	assert.InDelta(t, 1250.0, q.Totals.Subtotal, 0.001)
}

func TestGenerate_ConvertsCurrency(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	q, err := svc.Generate(context.Background(), Request{Text: "gi saddle clamp 16 swg 25mm 10 nos", TargetCurrency: "usd"})
	require.NoError(t, err)

	require.Len(t, q.Lines, 1)
	require.True(t, q.Lines[0].Resolved)
	assert.Equal(t, "USD", q.Currency)
	// (40 + 4.8 tax + 1000 freight) / 83
	assert.InDelta(t, 12.59, q.Totals.GrandTotal, 0.001)
	require.NotEmpty(t, q.Notes)
	assert.Contains(t, q.Notes[len(q.Notes)-1], "Converted to USD")
}

func TestGenerate_Degenerate(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	q, err := svc.Generate(context.Background(), Request{Text: "hi"})
	require.NoError(t, err)
	assert.Empty(t, q.Lines)
	assert.Zero(t, q.Totals.Subtotal)
	assert.InDelta(t, 1000.0, q.Totals.Freight, 0.001)
}

func TestGenerate_InvalidDiscount(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	_, err := svc.Generate(context.Background(), Request{Text: sampleRFQ, DiscountPct: 120})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header discount 120 must be between 0 and 100")
}

func TestGenerate_CancelledContext(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Generate(ctx, Request{Text: sampleRFQ})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateBatch(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	var reqs []Request
	for i := range 6 {
		reqs = append(reqs, Request{Text: sampleRFQ, Approve: true, Source: fmt.Sprintf("rfq-%d.txt", i)})
	}
	reqs = append(reqs, Request{Text: sampleRFQ, DiscountPct: -5, Source: "bad.txt"})

	results := svc.GenerateBatch(context.Background(), reqs)
	require.Len(t, results, 7)

	ids := make(map[string]bool)
	for i, r := range results[:6] {
		require.NoError(t, r.Err)
		assert.Equal(t, fmt.Sprintf("rfq-%d.txt", i), r.Source)
		assert.InDelta(t, 15325.0, r.Quote.Totals.Subtotal, 0.001)
		ids[r.Quote.ID] = true
	}
	assert.NotEmpty(t, ids)

	assert.Equal(t, "bad.txt", results[6].Source)
	require.Error(t, results[6].Err)
}
