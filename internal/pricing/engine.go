// Package pricing turns resolved quote lines into amounts and derives the
// quote totals: subtotal, discount, freight, per-tax-code GST and currency
// conversion.
package pricing

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/quote-engine/internal/catalog"
	"github.com/sells-group/quote-engine/internal/config"
	"github.com/sells-group/quote-engine/internal/model"
)

// FreightRule charges a flat amount when the discounted net is strictly
// below Threshold.
type FreightRule struct {
	Threshold float64
	Charge    float64
}

// Config is the fixed pricing policy of an Engine.
type Config struct {
	BaseCurrency  string
	Freight       FreightRule
	DefaultTaxPct float64
}

// ConfigFrom maps the application quote settings to a pricing Config.
func ConfigFrom(c config.QuoteConfig) Config {
	return Config{
		BaseCurrency:  strings.ToUpper(strings.TrimSpace(c.BaseCurrency)),
		Freight:       FreightRule{Threshold: c.FreightThreshold, Charge: c.FreightCharge},
		DefaultTaxPct: c.DefaultTaxPct,
	}
}

// Validate checks the pricing policy.
func (c Config) Validate() error {
	var errs []string
	if len(c.BaseCurrency) != 3 {
		errs = append(errs, fmt.Sprintf("base currency %q must be a 3-letter code", c.BaseCurrency))
	}
	if c.Freight.Threshold < 0 || c.Freight.Charge < 0 {
		errs = append(errs, "freight threshold and charge must be >= 0")
	}
	if c.DefaultTaxPct < 0 || c.DefaultTaxPct > 100 {
		errs = append(errs, "default tax pct must be between 0 and 100")
	}
	if len(errs) > 0 {
		return eris.Errorf("pricing: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Options are the per-quote pricing inputs.
type Options struct {
	DiscountPct    float64
	FreightTaxable bool
	TargetCurrency string
}

// Engine prices quotes against a catalog, tax table and rate table. It holds
// no mutable state.
type Engine struct {
	catalog *catalog.Catalog
	taxes   *catalog.TaxTable
	rates   *catalog.RateTable
	cfg     Config
}

// NewEngine validates cfg and builds an Engine. A nil rate table disables
// currency conversion.
func NewEngine(cat *catalog.Catalog, taxes *catalog.TaxTable, rates *catalog.RateTable, cfg Config) (*Engine, error) {
	if cat == nil {
		return nil, eris.New("pricing: catalog is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{catalog: cat, taxes: taxes, rates: rates, cfg: cfg}, nil
}

// BaseCurrency returns the currency catalog rates are quoted in.
func (e *Engine) BaseCurrency() string {
	return e.cfg.BaseCurrency
}

var hundred = decimal.NewFromInt(100)

type bucket struct {
	code   string
	pct    decimal.Decimal
	amount decimal.Decimal
}

// coilNoteSuffix ends the assumption recorded when a COIL quantity is
// rewritten in meters. The rewrite sticks to the line, so the note survives
// re-pricing.
const coilNoteSuffix = " m per coil."

// Price returns a priced copy of q. Line amounts, totals, the currency and
// every engine note are recomputed from scratch, so pricing an already priced
// quote gives the same result; q is not modified.
func (e *Engine) Price(q model.Quote, opts Options) model.Quote {
	out := q.Clone()
	out.Currency = e.cfg.BaseCurrency
	out.HeaderDiscountPct = opts.DiscountPct
	out.Notes = []string{}
	for i := range out.Lines {
		out.Lines[i].Explain.Assumptions = carriedAssumptions(out.Lines[i].Explain.Assumptions)
	}

	subtotal := decimal.Zero
	var buckets []*bucket
	byCode := make(map[string]*bucket)
	unresolved := 0

	for i := range out.Lines {
		line := &out.Lines[i]
		if !line.Resolved {
			unresolved++
			continue
		}
		amount, ok := e.priceLine(line)
		if !ok {
			continue
		}
		subtotal = subtotal.Add(amount)

		b, seen := byCode[line.TaxCode]
		if !seen {
			b = &bucket{code: line.TaxCode, pct: decimal.NewFromFloat(line.TaxPct), amount: decimal.Zero}
			byCode[line.TaxCode] = b
			buckets = append(buckets, b)
		}
		b.amount = b.amount.Add(amount)
	}

	out.Totals = e.totals(subtotal, buckets, opts)
	if unresolved > 0 {
		out.Notes = append(out.Notes, fmt.Sprintf("%d line(s) are not resolved and are excluded from totals.", unresolved))
	}
	e.convert(&out, opts.TargetCurrency)
	return out
}

func carriedAssumptions(in []string) []string {
	out := []string{}
	for _, a := range in {
		if strings.HasSuffix(a, coilNoteSuffix) {
			out = append(out, a)
		}
	}
	return out
}

// priceLine sets unit price, tax and amount on a resolved line and reports
// the amount. Lines with no quantity or no catalog rate stay unpriced.
func (e *Engine) priceLine(line *model.QuoteLine) (decimal.Decimal, bool) {
	line.UnitPrice = nil
	line.Amount = nil

	item, ok := e.catalog.BySKU(line.SKU)
	if !ok {
		line.Explain.Assumptions = append(line.Explain.Assumptions,
			fmt.Sprintf("SKU %s is not in the catalog; line left unpriced.", line.SKU))
		return decimal.Zero, false
	}

	line.TaxCode = item.TaxCode
	line.TaxPct = e.cfg.DefaultTaxPct
	if pct, ok := e.taxes.Rate(item.TaxCode); ok {
		line.TaxPct = pct
	}

	rate := item.BaseRate
	if line.Material != "" && line.Material == item.AltMaterial && item.AltRate != nil {
		rate = item.AltRate
	}
	if rate == nil {
		line.Explain.Assumptions = append(line.Explain.Assumptions,
			fmt.Sprintf("No catalog rate for SKU %s; line left unpriced.", item.SKU))
		return decimal.Zero, false
	}
	if line.Quantity == nil {
		line.Explain.Assumptions = append(line.Explain.Assumptions,
			"No quantity given; line left unpriced.")
		return decimal.Zero, false
	}

	if line.UOM != nil && *line.UOM == model.UnitCoil && item.CoilLengthM != nil {
		coils := *line.Quantity
		meters := decimal.NewFromFloat(coils).Mul(decimal.NewFromFloat(*item.CoilLengthM)).InexactFloat64()
		line.Quantity = model.Float(meters)
		line.UOM = model.Unit(model.UnitMeter)
		line.Explain.Assumptions = append(line.Explain.Assumptions,
			fmt.Sprintf("Converted %g COIL to %g M at %g", coils, meters, *item.CoilLengthM)+coilNoteSuffix)
	}

	price := decimal.NewFromFloat(*rate)
	amount := price.Mul(decimal.NewFromFloat(*line.Quantity)).Round(2)
	line.UnitPrice = model.Float(price.InexactFloat64())
	line.Amount = model.Float(amount.InexactFloat64())
	return amount, true
}

func (e *Engine) totals(subtotal decimal.Decimal, buckets []*bucket, opts Options) model.Totals {
	subtotal = subtotal.Round(2)
	discount := subtotal.Mul(decimal.NewFromFloat(opts.DiscountPct)).Div(hundred).Round(2)
	net := subtotal.Sub(discount)

	freight := decimal.Zero
	if net.LessThan(decimal.NewFromFloat(e.cfg.Freight.Threshold)) {
		freight = decimal.NewFromFloat(e.cfg.Freight.Charge)
	}

	taxable := net
	if opts.FreightTaxable {
		taxable = taxable.Add(freight)
	}

	ratio := decimal.Zero
	if subtotal.IsPositive() {
		ratio = discount.Div(subtotal)
	}
	keep := decimal.NewFromInt(1).Sub(ratio)

	breakup := make([]model.TaxBreakup, 0, len(buckets))
	totalTax := decimal.Zero
	for _, b := range buckets {
		bucketNet := b.amount.Mul(keep)
		tax := bucketNet.Mul(b.pct).Div(hundred).Round(2)
		totalTax = totalTax.Add(tax)
		breakup = append(breakup, model.TaxBreakup{
			TaxCode:       b.code,
			TaxableAmount: bucketNet.Round(2).InexactFloat64(),
			Pct:           b.pct.InexactFloat64(),
			Amount:        tax.InexactFloat64(),
		})
	}

	return model.Totals{
		Subtotal:          subtotal.InexactFloat64(),
		HeaderDiscountPct: opts.DiscountPct,
		DiscountAmount:    discount.InexactFloat64(),
		NetAfterDiscount:  net.InexactFloat64(),
		Freight:           freight.InexactFloat64(),
		TaxableAmount:     taxable.InexactFloat64(),
		TotalTax:          totalTax.InexactFloat64(),
		GrandTotal:        net.Add(totalTax).Add(freight).InexactFloat64(),
		TaxBreakup:        breakup,
	}
}

var notePrinter = message.NewPrinter(language.English)

// convert switches the grand total to target when the rate table knows it.
// An unknown currency leaves the quote in the base currency with a note.
func (e *Engine) convert(q *model.Quote, target string) {
	target = strings.ToUpper(strings.TrimSpace(target))
	if target == "" || target == e.cfg.BaseCurrency {
		return
	}

	rate, ok := e.rates.Rate(target)
	if !ok {
		q.Notes = append(q.Notes, fmt.Sprintf("currency %s not in rate table; quote left in %s", target, e.cfg.BaseCurrency))
		zap.L().Warn("pricing: unknown target currency",
			zap.String("currency", target),
			zap.String("base", e.cfg.BaseCurrency),
		)
		return
	}

	original := decimal.NewFromFloat(q.Totals.GrandTotal)
	converted := original.Div(decimal.NewFromFloat(rate)).Round(2)
	q.Notes = append(q.Notes, notePrinter.Sprintf(
		"Converted to %s at a rate of 1 %s = %.4f %s. Original grand total: %.2f %s",
		target, e.cfg.BaseCurrency, 1/rate, target, original.InexactFloat64(), e.cfg.BaseCurrency,
	))
	q.Totals.GrandTotal = converted.InexactFloat64()
	q.Currency = target
}
