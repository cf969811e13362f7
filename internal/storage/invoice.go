package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is the billing header plus its ordered lines. ID is the stable
// external identifier, Number the sequential one printed on the document.
type Invoice struct {
	ID              string          `json:"id"`
	Number          int64           `json:"number"`
	ClientCode      string          `json:"client_code"`
	TicketID        int64           `json:"ticket_id"`
	InterventionIDs []int64         `json:"intervention_ids"`
	Lines           []InvoiceLine   `json:"lines"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	VATRate         decimal.Decimal `json:"vat_rate"`
	VATAmount       decimal.Decimal `json:"vat_amount"`
	Total           decimal.Decimal `json:"total"`
	IsHoliday       bool            `json:"is_holiday"`
	IssueDate       time.Time       `json:"issue_date"`
	DueDate         time.Time       `json:"due_date"`
	Status          InvoiceStatus   `json:"status"`
}

type InvoiceLine struct {
	TariffCode  string          `json:"tariff_code"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// Client is the slice of the CRM client record billing needs: rate category,
// billing address and the cached one-way distance.
type Client struct {
	Code           string         `json:"code"`
	Name           string         `json:"name"`
	TariffCategory TariffCategory `json:"tariff_category"`
	Address        string         `json:"address"`
	City           string         `json:"city"`
	VATNumber      string         `json:"vat_number"`
	DistanceKm     *float64       `json:"distance_km"`
}
