package model

import "strings"

// CatalogItem is one row of the price master. Items are read-only once loaded.
type CatalogItem struct {
	SKU          string        `json:"sku"`
	Family       string        `json:"family"`
	Description  string        `json:"description"`
	TaxCode      string        `json:"tax_code"`
	UOM          UnitOfMeasure `json:"uom"`
	CoilLengthM  *float64      `json:"coil_length_m,omitempty"`
	Material     Material      `json:"material"`
	AltMaterial  Material      `json:"alt_material,omitempty"`
	Gauge        string        `json:"gauge,omitempty"`
	SizeMM       *float64      `json:"size_od_mm,omitempty"`
	AuxSize      string        `json:"aux_size,omitempty"`
	Colour       string        `json:"colour,omitempty"`
	MOQ          *int          `json:"moq,omitempty"`
	LeadTimeDays *int          `json:"lead_time_days,omitempty"`
	BaseRate     *float64      `json:"rate,omitempty"`
	AltRate      *float64      `json:"alt_rate,omitempty"`
}

// SearchText is the string the fuzzy scorer compares queries against.
func (c *CatalogItem) SearchText() string {
	return c.Description + " " + c.Family
}

// HasMaterial reports whether m is the item's primary or alternate material.
func (c *CatalogItem) HasMaterial(m Material) bool {
	if m == "" {
		return false
	}
	return m == c.Material || (c.AltMaterial != "" && m == c.AltMaterial)
}

// InFamily reports whether the item belongs to one of the given families
// (case-insensitive).
func (c *CatalogItem) InFamily(families []string) bool {
	for _, f := range families {
		if strings.EqualFold(strings.TrimSpace(c.Family), f) {
			return true
		}
	}
	return false
}

// TaxRate maps a tax (HSN) code to its GST percentage.
type TaxRate struct {
	Code string  `json:"hsn_code"`
	Pct  float64 `json:"gst_pct"`
}
