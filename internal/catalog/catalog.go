// Package catalog holds the read-only price master, tax table and currency
// rate table, and loads them from files or a database.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/quote-engine/internal/model"
)

// Catalog is an immutable, SKU-indexed price master. It is safe for
// concurrent use because nothing mutates it after New returns.
type Catalog struct {
	items []model.CatalogItem
	bySKU map[string]int
}

// New indexes items by SKU. Blank and duplicate SKUs are rejected.
func New(items []model.CatalogItem) (*Catalog, error) {
	c := &Catalog{
		items: make([]model.CatalogItem, len(items)),
		bySKU: make(map[string]int, len(items)),
	}
	copy(c.items, items)

	var errs []string
	for i, item := range c.items {
		sku := strings.TrimSpace(item.SKU)
		if sku == "" {
			errs = append(errs, fmt.Sprintf("item %d has no sku", i+1))
			continue
		}
		if _, dup := c.bySKU[sku]; dup {
			errs = append(errs, fmt.Sprintf("duplicate sku %q", sku))
			continue
		}
		c.bySKU[sku] = i
	}
	if len(errs) > 0 {
		return nil, eris.Errorf("catalog: invalid items: %s", strings.Join(errs, "; "))
	}
	return c, nil
}

// Items returns the catalog entries in load order. The slice is shared and
// must not be modified.
func (c *Catalog) Items() []model.CatalogItem {
	return c.items
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	return len(c.items)
}

// BySKU returns the item with the given SKU.
func (c *Catalog) BySKU(sku string) (*model.CatalogItem, bool) {
	i, ok := c.bySKU[sku]
	if !ok {
		return nil, false
	}
	return &c.items[i], true
}

// Sized returns the items that carry an outer size, in load order.
func (c *Catalog) Sized() []*model.CatalogItem {
	var out []*model.CatalogItem
	for i := range c.items {
		if c.items[i].SizeMM != nil {
			out = append(out, &c.items[i])
		}
	}
	return out
}

// Families returns the distinct family names, sorted.
func (c *Catalog) Families() []string {
	seen := make(map[string]bool)
	var out []string
	for _, item := range c.items {
		if !seen[item.Family] {
			seen[item.Family] = true
			out = append(out, item.Family)
		}
	}
	sort.Strings(out)
	return out
}

// TaxTable maps tax codes to GST percentages.
type TaxTable struct {
	rates map[string]float64
}

// NewTaxTable builds a TaxTable. Later entries override earlier ones.
func NewTaxTable(rates []model.TaxRate) *TaxTable {
	t := &TaxTable{rates: make(map[string]float64, len(rates))}
	for _, r := range rates {
		t.rates[strings.TrimSpace(r.Code)] = r.Pct
	}
	return t
}

// Rate returns the percentage for code.
func (t *TaxTable) Rate(code string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	pct, ok := t.rates[strings.TrimSpace(code)]
	return pct, ok
}

// Len returns the number of tax codes.
func (t *TaxTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rates)
}

// RateTable maps a currency code to the number of base-currency units per
// unit of that currency (e.g. USD: 83.0 for an INR base).
type RateTable struct {
	rates map[string]float64
}

// NewRateTable builds a RateTable; codes are upper-cased and non-positive
// rates are rejected.
func NewRateTable(rates map[string]float64) (*RateTable, error) {
	t := &RateTable{rates: make(map[string]float64, len(rates))}
	for code, rate := range rates {
		if rate <= 0 {
			return nil, eris.Errorf("catalog: currency %s has non-positive rate %v", code, rate)
		}
		t.rates[strings.ToUpper(strings.TrimSpace(code))] = rate
	}
	return t, nil
}

// Rate returns the conversion rate for currency.
func (t *RateTable) Rate(currency string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	r, ok := t.rates[strings.ToUpper(strings.TrimSpace(currency))]
	return r, ok
}

// Currencies returns the known currency codes, sorted.
func (t *RateTable) Currencies() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.rates))
	for code := range t.rates {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
