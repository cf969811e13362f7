package invoice

import (
	"github.com/shopspring/decimal"

	"fieldcrm-billing/internal/storage"
)

// Round-trip distances below this never get a km surcharge.
const minSurchargeKm = 20.0

var two = decimal.NewFromInt(2)

// PriceInput is everything pricing needs, loaded up front. Price itself is
// pure: totals are always derived from the input, never cached.
type PriceInput struct {
	Interventions []storage.InterventionRecord
	Client        storage.Client
	Tariffs       []storage.TariffLine
	DistanceKm    *float64 // one-way, nil when unresolved
	IsHoliday     bool
	Extras        []ExtraLine
	VATRate       decimal.Decimal
}

// ExtraLine is an operator-added catalogue line, e.g. a fixed service fee.
// Quantity and price are editable; a nil UnitPrice takes the catalogue price.
type ExtraLine struct {
	TariffCode  string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   *decimal.Decimal
}

type Draft struct {
	Lines     []storage.InvoiceLine
	Subtotal  decimal.Decimal
	VATAmount decimal.Decimal
	Total     decimal.Decimal
}

// Price turns a batch of interventions into priced invoice lines.
//
// Labor counts only the hours not already covered by a contract; courtesy
// and warranty records contribute nothing. On holidays every hour-based
// tariff and the km tariff are billed at twice the catalogue price.
func Price(in PriceInput) (*Draft, error) {
	draft := &Draft{}

	var laborHours float64
	onsite := false
	for _, rec := range in.Interventions {
		laborHours += rec.InvoiceableHours()
		if rec.Mode == storage.ModeOnsite {
			onsite = true
		}
	}

	if laborHours > 0 {
		labor, ok := laborTariff(in.Tariffs, in.Client.TariffCategory)
		if !ok {
			return nil, storage.ErrMissingTariffSelection
		}
		price := holidayPrice(labor, in.IsHoliday)
		qty := decimal.NewFromFloat(laborHours)
		draft.Lines = append(draft.Lines, storage.InvoiceLine{
			TariffCode:  labor.Code,
			Description: labor.Description,
			Quantity:    qty,
			UnitPrice:   price,
			LineTotal:   qty.Mul(price).Round(2),
		})
	}

	if onsite && in.DistanceKm != nil {
		roundTrip := *in.DistanceKm * 2
		if roundTrip >= minSurchargeKm {
			if km, ok := kmTariff(in.Tariffs); ok {
				price := holidayPrice(km, in.IsHoliday)
				qty := decimal.NewFromFloat(roundTrip)
				draft.Lines = append(draft.Lines, storage.InvoiceLine{
					TariffCode:  km.Code,
					Description: km.Description,
					Quantity:    qty,
					UnitPrice:   price,
					LineTotal:   qty.Mul(price).Round(2),
				})
			}
		}
	}

	for _, extra := range in.Extras {
		tariff, ok := findTariff(in.Tariffs, extra.TariffCode)
		if !ok {
			return nil, storage.ErrTariffNotFound
		}
		price := tariff.UnitPrice
		if extra.UnitPrice != nil {
			price = *extra.UnitPrice
		}
		if in.IsHoliday && tariff.Unit == storage.UnitHour {
			price = price.Mul(two)
		}
		qty := extra.Quantity
		if qty.IsZero() {
			qty = decimal.NewFromInt(1)
		}
		desc := tariff.Description
		if extra.Description != "" {
			desc = extra.Description
		}
		draft.Lines = append(draft.Lines, storage.InvoiceLine{
			TariffCode:  tariff.Code,
			Description: desc,
			Quantity:    qty,
			UnitPrice:   price,
			LineTotal:   qty.Mul(price).Round(2),
		})
	}

	for _, line := range draft.Lines {
		draft.Subtotal = draft.Subtotal.Add(line.LineTotal)
	}
	if draft.Subtotal.LessThanOrEqual(decimal.Zero) {
		return nil, storage.ErrEmptyInvoice
	}

	draft.VATAmount = draft.Subtotal.Mul(in.VATRate).Round(2)
	draft.Total = draft.Subtotal.Add(draft.VATAmount)

	return draft, nil
}

// holidayPrice doubles hour-based tariffs and the km tariff on holidays.
// Fixed fees keep the catalogue price.
func holidayPrice(t storage.TariffLine, isHoliday bool) decimal.Decimal {
	if isHoliday && (t.Unit == storage.UnitHour || t.Unit == storage.UnitKm) {
		return t.UnitPrice.Mul(two)
	}
	return t.UnitPrice
}

func laborTariff(tariffs []storage.TariffLine, category storage.TariffCategory) (storage.TariffLine, bool) {
	if category != storage.CategoryHiTech {
		category = storage.CategoryStandard
	}
	for _, t := range tariffs {
		if t.Unit == storage.UnitHour && t.Category == category {
			return t, true
		}
	}
	return storage.TariffLine{}, false
}

func kmTariff(tariffs []storage.TariffLine) (storage.TariffLine, bool) {
	for _, t := range tariffs {
		if t.Unit == storage.UnitKm {
			return t, true
		}
	}
	return storage.TariffLine{}, false
}

func findTariff(tariffs []storage.TariffLine, code string) (storage.TariffLine, bool) {
	for _, t := range tariffs {
		if t.Code == code {
			return t, true
		}
	}
	return storage.TariffLine{}, false
}
