package storage

import "github.com/shopspring/decimal"

// TariffLine is one rate-catalogue entry. Catalogue rows are looked up by
// code and never mutated by the billing paths; only the admin routes write
// them.
type TariffLine struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Category    TariffCategory  `json:"category"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Unit        TariffUnit      `json:"unit"`
}
