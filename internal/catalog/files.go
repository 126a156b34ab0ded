package catalog

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/quote-engine/internal/model"
	"github.com/sells-group/quote-engine/internal/tabular"
)

// ItemColumns are the price master columns, in storage order.
var ItemColumns = []string{
	"sku_code", "product_family", "description", "hsn_code", "uom",
	"coil_length_m", "material", "gauge", "size_od_mm", "aux_size",
	"colour", "moq", "lead_time_days", "rate_inr", "rate_alt_inr", "alt_material",
}

var requiredItemColumns = []string{"sku_code", "product_family", "description", "hsn_code", "uom", "material"}

// LoadItemsFile reads a price master from a .csv or .xlsx file.
func LoadItemsFile(path string) ([]model.CatalogItem, error) {
	t, err := tabular.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: read items")
	}
	items, err := ParseItems(t)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: %s", path)
	}
	return items, nil
}

// LoadTaxesFile reads a tax table from a .csv or .xlsx file.
func LoadTaxesFile(path string) ([]model.TaxRate, error) {
	t, err := tabular.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: read taxes")
	}
	rates, err := ParseTaxes(t)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: %s", path)
	}
	return rates, nil
}

// LoadRatesFile reads a currency rate map (code: base units per unit) from
// YAML or JSON.
func LoadRatesFile(path string) (*RateTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: read rates")
	}
	var raw map[string]float64
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrapf(err, "catalog: parse rates %s", path)
	}
	return NewRateTable(raw)
}

// ParseItems converts price master rows into catalog items. Every bad row
// is reported, numbered from 1 for the first data row.
func ParseItems(t tabular.Table) ([]model.CatalogItem, error) {
	idx := make(map[string]int, len(ItemColumns))
	for _, col := range ItemColumns {
		idx[col] = t.Index(col)
	}
	var missing []string
	for _, col := range requiredItemColumns {
		if idx[col] < 0 {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, eris.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}

	items := make([]model.CatalogItem, 0, len(t.Rows))
	var errs []string
	for i, row := range t.Rows {
		item, err := parseItem(row, idx)
		if err != nil {
			errs = append(errs, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		items = append(items, item)
	}
	if len(errs) > 0 {
		return nil, eris.Errorf("invalid rows: %s", strings.Join(errs, "; "))
	}
	return items, nil
}

func parseItem(row []string, idx map[string]int) (model.CatalogItem, error) {
	cell := func(col string) string { return tabular.Cell(row, idx[col]) }

	item := model.CatalogItem{
		SKU:         cell("sku_code"),
		Family:      cell("product_family"),
		Description: cell("description"),
		TaxCode:     normalizeTaxCode(cell("hsn_code")),
		Material:    parseMaterial(cell("material")),
		AltMaterial: parseMaterial(cell("alt_material")),
		Gauge:       nullable(cell("gauge")),
		AuxSize:     nullable(cell("aux_size")),
		Colour:      nullable(cell("colour")),
	}
	if item.SKU == "" {
		return item, eris.New("sku_code is empty")
	}
	if item.Description == "" {
		return item, eris.Errorf("sku %s has no description", item.SKU)
	}

	uom, ok := model.ParseUnit(cell("uom"))
	if !ok {
		return item, eris.Errorf("sku %s has unknown uom %q", item.SKU, cell("uom"))
	}
	item.UOM = uom

	var err error
	floats := []struct {
		col string
		dst **float64
	}{
		{"coil_length_m", &item.CoilLengthM},
		{"size_od_mm", &item.SizeMM},
		{"rate_inr", &item.BaseRate},
		{"rate_alt_inr", &item.AltRate},
	}
	for _, f := range floats {
		if *f.dst, err = optFloat(cell(f.col)); err != nil {
			return item, eris.Wrapf(err, "sku %s %s", item.SKU, f.col)
		}
	}
	if item.MOQ, err = optInt(cell("moq")); err != nil {
		return item, eris.Wrapf(err, "sku %s moq", item.SKU)
	}
	if item.LeadTimeDays, err = optInt(cell("lead_time_days")); err != nil {
		return item, eris.Wrapf(err, "sku %s lead_time_days", item.SKU)
	}
	return item, nil
}

// ParseTaxes converts tax table rows (hsn_code, gst_pct) into rates.
func ParseTaxes(t tabular.Table) ([]model.TaxRate, error) {
	code, pct := t.Index("hsn_code"), t.Index("gst_pct")
	if code < 0 || pct < 0 {
		return nil, eris.New("missing columns: tax table needs hsn_code and gst_pct")
	}

	rates := make([]model.TaxRate, 0, len(t.Rows))
	var errs []string
	for i, row := range t.Rows {
		c := normalizeTaxCode(tabular.Cell(row, code))
		p, err := strconv.ParseFloat(tabular.Cell(row, pct), 64)
		switch {
		case c == "":
			errs = append(errs, fmt.Sprintf("row %d: hsn_code is empty", i+1))
		case err != nil:
			errs = append(errs, fmt.Sprintf("row %d: gst_pct %q is not a number", i+1, tabular.Cell(row, pct)))
		case p < 0 || p > 100:
			errs = append(errs, fmt.Sprintf("row %d: gst_pct %v out of range", i+1, p))
		default:
			rates = append(rates, model.TaxRate{Code: c, Pct: p})
		}
	}
	if len(errs) > 0 {
		return nil, eris.Errorf("invalid rows: %s", strings.Join(errs, "; "))
	}
	return rates, nil
}

// normalizeTaxCode drops a spreadsheet ".0" suffix so 3917.0 and 3917 agree.
func normalizeTaxCode(s string) string {
	return strings.TrimSuffix(strings.TrimSpace(s), ".0")
}

func parseMaterial(s string) model.Material {
	s = nullable(s)
	if s == "" {
		return ""
	}
	if m, ok := model.ParseMaterial(s); ok {
		return m
	}
	return model.Material(strings.ToUpper(s))
}

// nullable maps spreadsheet blanks to "".
func nullable(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "nan", "null", "none", "n/a", "-":
		return ""
	}
	return s
}

func optFloat(s string) (*float64, error) {
	s = nullable(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, eris.Errorf("%q is not a number", s)
	}
	return &v, nil
}

func optInt(s string) (*int, error) {
	f, err := optFloat(s)
	if err != nil || f == nil {
		return nil, err
	}
	v := int(*f)
	if float64(v) != *f {
		return nil, eris.Errorf("%v is not a whole number", *f)
	}
	return &v, nil
}
