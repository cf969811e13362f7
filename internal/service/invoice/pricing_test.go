package invoice

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldcrm-billing/internal/storage"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func catalogue() []storage.TariffLine {
	return []storage.TariffLine{
		{Code: "LAB-STD", Description: "Labor, standard", Category: storage.CategoryStandard, UnitPrice: dec("60.00"), Unit: storage.UnitHour},
		{Code: "LAB-HT", Description: "Labor, hi-tech", Category: storage.CategoryHiTech, UnitPrice: dec("85.00"), Unit: storage.UnitHour},
		{Code: "KM", Description: "Travel", Category: storage.CategoryKm, UnitPrice: dec("0.80"), Unit: storage.UnitKm},
		{Code: "SRV-CHK", Description: "Safety checkup", Category: storage.CategoryService, UnitPrice: dec("120.00"), Unit: storage.UnitFixed},
	}
}

func stdClient() storage.Client {
	return storage.Client{Code: "ACME", Name: "Acme Srl", TariffCategory: storage.CategoryStandard}
}

func vat() decimal.Decimal { return dec("0.22") }

func TestPrice_LaborOnlyUncoveredHours(t *testing.T) {
	// 2.0 billable with 0.5 on contract, plus 1.0 fully on contract:
	// only 1.5 hours reach the invoice.
	in := PriceInput{
		Interventions: []storage.InterventionRecord{
			{Classification: storage.ClassContract, BillableHours: 2.0, HoursDeductedFromContract: 0.5, Mode: storage.ModeRemote},
			{Classification: storage.ClassContract, BillableHours: 1.0, HoursDeductedFromContract: 1.0, Mode: storage.ModeRemote},
		},
		Client:  stdClient(),
		Tariffs: catalogue(),
		VATRate: vat(),
	}

	draft, err := Price(in)
	require.NoError(t, err)
	require.Len(t, draft.Lines, 1)

	labor := draft.Lines[0]
	assert.Equal(t, "LAB-STD", labor.TariffCode)
	assert.True(t, labor.Quantity.Equal(dec("1.5")), "labor hours = %s", labor.Quantity)
	assert.True(t, labor.LineTotal.Equal(dec("90.00")), "labor total = %s", labor.LineTotal)
	assert.True(t, draft.VATAmount.Equal(dec("19.80")), "vat = %s", draft.VATAmount)
	assert.True(t, draft.Total.Equal(dec("109.80")), "total = %s", draft.Total)
}

func TestPrice_CourtesyAndWarrantyContributeNothing(t *testing.T) {
	in := PriceInput{
		Interventions: []storage.InterventionRecord{
			{Classification: storage.ClassCourtesy, BillableHours: 2.0},
			{Classification: storage.ClassWarranty, BillableHours: 3.0},
		},
		Client:  stdClient(),
		Tariffs: catalogue(),
		VATRate: vat(),
	}

	_, err := Price(in)
	assert.ErrorIs(t, err, storage.ErrEmptyInvoice)
}

func TestPrice_HiTechClientUsesHiTechRate(t *testing.T) {
	client := stdClient()
	client.TariffCategory = storage.CategoryHiTech

	in := PriceInput{
		Interventions: []storage.InterventionRecord{
			{Classification: storage.ClassPendingInvoice, BillableHours: 2.0, Mode: storage.ModeRemote},
		},
		Client:  client,
		Tariffs: catalogue(),
		VATRate: vat(),
	}

	draft, err := Price(in)
	require.NoError(t, err)
	assert.Equal(t, "LAB-HT", draft.Lines[0].TariffCode)
	assert.True(t, draft.Lines[0].LineTotal.Equal(dec("170.00")))
}

func TestPrice_HolidayDoublesHourAndKmRates(t *testing.T) {
	d := 15.0 // one-way; 30 km round trip
	in := PriceInput{
		Interventions: []storage.InterventionRecord{
			{Classification: storage.ClassPendingInvoice, BillableHours: 1.0, Mode: storage.ModeOnsite},
		},
		Client:     stdClient(),
		Tariffs:    catalogue(),
		DistanceKm: &d,
		IsHoliday:  true,
		Extras: []ExtraLine{
			{TariffCode: "SRV-CHK"},
		},
		VATRate: vat(),
	}

	draft, err := Price(in)
	require.NoError(t, err)
	require.Len(t, draft.Lines, 3)

	labor, km, fixed := draft.Lines[0], draft.Lines[1], draft.Lines[2]
	assert.True(t, labor.UnitPrice.Equal(dec("120.00")), "labor doubled")
	assert.True(t, km.UnitPrice.Equal(dec("1.60")), "km doubled")
	assert.True(t, km.Quantity.Equal(dec("30")), "km quantity is round trip")
	assert.True(t, fixed.UnitPrice.Equal(dec("120.00")), "fixed fee never doubled")
}

func TestPrice_KmSurchargeRules(t *testing.T) {
	base := func(mode storage.InterventionMode, distance *float64) PriceInput {
		return PriceInput{
			Interventions: []storage.InterventionRecord{
				{Classification: storage.ClassPendingInvoice, BillableHours: 1.0, Mode: mode},
			},
			Client:     stdClient(),
			Tariffs:    catalogue(),
			DistanceKm: distance,
			VATRate:    vat(),
		}
	}
	far := 25.0
	near := 5.0

	t.Run("onsite and far away gets surcharge", func(t *testing.T) {
		draft, err := Price(base(storage.ModeOnsite, &far))
		require.NoError(t, err)
		require.Len(t, draft.Lines, 2)
		assert.True(t, draft.Lines[1].Quantity.Equal(dec("50")))
		assert.True(t, draft.Lines[1].LineTotal.Equal(dec("40.00")))
	})

	t.Run("below threshold no surcharge", func(t *testing.T) {
		draft, err := Price(base(storage.ModeOnsite, &near))
		require.NoError(t, err)
		assert.Len(t, draft.Lines, 1)
	})

	t.Run("remote work no surcharge", func(t *testing.T) {
		draft, err := Price(base(storage.ModeRemote, &far))
		require.NoError(t, err)
		assert.Len(t, draft.Lines, 1)
	})

	t.Run("unresolved distance no surcharge", func(t *testing.T) {
		draft, err := Price(base(storage.ModeOnsite, nil))
		require.NoError(t, err)
		assert.Len(t, draft.Lines, 1)
	})
}

func TestPrice_ExtraLineOverrides(t *testing.T) {
	override := dec("99.50")
	in := PriceInput{
		Interventions: []storage.InterventionRecord{
			{Classification: storage.ClassPendingInvoice, BillableHours: 0.5, Mode: storage.ModeRemote},
		},
		Client:  stdClient(),
		Tariffs: catalogue(),
		Extras: []ExtraLine{
			{TariffCode: "SRV-CHK", Description: "Annual safety inspection", Quantity: dec("2"), UnitPrice: &override},
		},
		VATRate: vat(),
	}

	draft, err := Price(in)
	require.NoError(t, err)
	require.Len(t, draft.Lines, 2)

	extra := draft.Lines[1]
	assert.Equal(t, "Annual safety inspection", extra.Description)
	assert.True(t, extra.LineTotal.Equal(dec("199.00")))
}

func TestPrice_UnknownExtraTariff(t *testing.T) {
	in := PriceInput{
		Interventions: []storage.InterventionRecord{
			{Classification: storage.ClassPendingInvoice, BillableHours: 1.0, Mode: storage.ModeRemote},
		},
		Client:  stdClient(),
		Tariffs: catalogue(),
		Extras:  []ExtraLine{{TariffCode: "NOPE"}},
		VATRate: vat(),
	}

	_, err := Price(in)
	assert.ErrorIs(t, err, storage.ErrTariffNotFound)
}

func TestPrice_MissingLaborTariff(t *testing.T) {
	in := PriceInput{
		Interventions: []storage.InterventionRecord{
			{Classification: storage.ClassPendingInvoice, BillableHours: 1.0, Mode: storage.ModeRemote},
		},
		Client:  stdClient(),
		Tariffs: []storage.TariffLine{},
		VATRate: vat(),
	}

	_, err := Price(in)
	assert.ErrorIs(t, err, storage.ErrMissingTariffSelection)
}
