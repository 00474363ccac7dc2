package economics

import (
	"fmt"
	"testing"

	"github.com/rgehrsitz/solarplan/internal/domain"
	"github.com/rgehrsitz/solarplan/internal/tier"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}

func testPricing() domain.Pricing {
	return domain.Pricing{
		PricingType:         domain.PricingBasePlusIncremental,
		BasePanelThreshold:  10,
		BaseSystemPrice:     d("5000"),
		AdditionalPanelCost: d("250"),
		SEAIGrant:           d("1800"),
		DefaultEVGrant:      d("300"),
		Currency:            "EUR",
		FinanceTermYears:    10,
	}
}

func testEnergy() domain.Energy {
	return domain.Energy{
		GridRateDay:                d("0.30"),
		GridRateNight:              d("0.15"),
		ExportRate:                 d("0.20"),
		AnnualPriceIncrease:        decimal.Zero,
		BatteryRoundTripEfficiency: d("0.9"),
	}
}

func tier1(t *testing.T) *domain.TierEntry {
	t.Helper()
	entry, ok := tier.DefaultTable().ByName(tier.Tier1CompetitiveUrban)
	require.True(t, ok)
	return entry
}

func TestComputeCosts_AddOnsAndGrants(t *testing.T) {
	calc := NewCalculator()
	cfg := domain.SystemConfiguration{
		PanelCount:       12,
		IncludeBattery:   true,
		IncludeEVCharger: true,
		IncludeHeatPump:  true,
	}
	sel := &domain.SelectedEquipment{
		Battery:   &domain.EquipmentItem{ID: "bat"},
		EVCharger: &domain.EquipmentItem{ID: "ev", Price: dp("1200")},
		HeatPump:  &domain.EquipmentItem{ID: "hp"},
	}

	costs, err := calc.ComputeCosts(cfg, sel, testPricing(), tier1(t))
	require.NoError(t, err)

	assertDecimal(t, "5500", costs.BaseSystemCost)
	assertDecimal(t, "4500", costs.BatteryCost, "battery falls back to tier median")
	assertDecimal(t, "1200", costs.EVChargerCost, "catalog price wins")
	assertDecimal(t, "0", costs.HeatPumpCost)
	assertDecimal(t, "11200", costs.TotalSystemCost)
	assertDecimal(t, "1800", costs.SEAIGrant)
	assertDecimal(t, "300", costs.EVChargerGrant)
	assertDecimal(t, "2100", costs.TotalGrants)
	assertDecimal(t, "9100", costs.FinalPrice)
	assertDecimal(t, "75.83", costs.MonthlyFinancing)
	assert.True(t, costs.FinalPrice.Equal(costs.TotalSystemCost.Sub(costs.TotalGrants)))
}

func TestComputeCosts_NoEVChargerNoEVGrant(t *testing.T) {
	costs, err := NewCalculator().ComputeCosts(domain.SystemConfiguration{PanelCount: 8}, nil, testPricing(), nil)
	require.NoError(t, err)

	assertDecimal(t, "5000", costs.BaseSystemCost)
	assertDecimal(t, "0", costs.EVChargerGrant)
	assertDecimal(t, "1800", costs.TotalGrants)
	assertDecimal(t, "3200", costs.FinalPrice)
}

func TestComputeCosts_GrantsCappedAtTotal(t *testing.T) {
	pricing := testPricing()
	pricing.BaseSystemPrice = d("1000")

	costs, err := NewCalculator().ComputeCosts(domain.SystemConfiguration{PanelCount: 5}, nil, pricing, nil)
	require.NoError(t, err)

	assertDecimal(t, "1000", costs.TotalGrants)
	assertDecimal(t, "0", costs.FinalPrice)
	assertDecimal(t, "0", costs.MonthlyFinancing)
}

func TestComputeCosts_TierRequiredForUnpricedAddOn(t *testing.T) {
	cfg := domain.SystemConfiguration{PanelCount: 10, IncludeBattery: true}

	_, err := NewCalculator().ComputeCosts(cfg, nil, testPricing(), nil)
	assert.ErrorIs(t, err, ErrTierRequired)
}

func TestComputeCosts_UnknownPricingType(t *testing.T) {
	pricing := testPricing()
	pricing.PricingType = "per_kwp"

	_, err := NewCalculator().ComputeCosts(domain.SystemConfiguration{PanelCount: 10}, nil, pricing, nil)
	assert.ErrorIs(t, err, ErrUnknownPricingType)
}

func TestMonthlyPayment(t *testing.T) {
	tests := []struct {
		name      string
		principal string
		apr       string
		years     int
		want      string
	}{
		{"amortised", "10000", "0.12", 1, "888.49"},
		{"zero rate", "12000", "0", 10, "100"},
		{"no term", "12000", "0.05", 0, "0"},
		{"nothing to finance", "0", "0.05", 5, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundMoney(MonthlyPayment(d(tt.principal), d(tt.apr), tt.years), "EUR")
			assertDecimal(t, tt.want, got)
		})
	}
}

func TestComputeSpecs(t *testing.T) {
	calc := NewCalculator()
	panel := &domain.EquipmentItem{ID: "p400", Wattage: 400}

	specs := calc.ComputeSpecs(domain.SystemConfiguration{PanelCount: 10}, panel, testPricing(), testEnergy(), d("1200"))

	assertDecimal(t, "4", specs.SystemSizeKWp)
	assertDecimal(t, "3400", specs.AnnualGeneration)
	assertDecimal(t, "340", specs.PerPanelGeneration)
	assertDecimal(t, "1200", specs.AnnualBill)
}

func TestComputeSpecs_DefaultWattsAndZeroPanels(t *testing.T) {
	calc := NewCalculator()

	specs := calc.ComputeSpecs(domain.SystemConfiguration{PanelCount: 12}, nil, testPricing(), testEnergy(), d("0"))
	assertDecimal(t, "5.28", specs.SystemSizeKWp)

	empty := calc.ComputeSpecs(domain.SystemConfiguration{}, nil, testPricing(), testEnergy(), d("0"))
	assertDecimal(t, "0", empty.SystemSizeKWp)
	assertDecimal(t, "0", empty.PerPanelGeneration)
}

func TestComputeSavings_FullSystem(t *testing.T) {
	calc := NewCalculator()
	cfg := domain.SystemConfiguration{PanelCount: 10, IncludeBattery: true, IncludeEVCharger: true}
	specs := &domain.SystemSpecs{AnnualGeneration: d("3400"), AnnualBill: d("1200")}
	costs := &domain.Costs{FinalPrice: d("9100")}

	s := calc.ComputeSavings(cfg, specs, nil, costs, testEnergy())

	assertDecimal(t, "408", s.SolarSavings)
	assertDecimal(t, "408", s.ExportEarnings)
	assertDecimal(t, "105", s.BatterySavings)
	assertDecimal(t, "300", s.EVSavings)
	assertDecimal(t, "1221", s.TotalAnnualSavings)
	assertDecimal(t, "7", s.PaybackYears)
	assertDecimal(t, "100", s.BillOffsetPercent, "bill offset is capped")
	assertDecimal(t, "54.2", s.GridIndependencePercent)
	assertDecimal(t, "30525", s.LifetimeSavings)
}

func TestComputeSavings_SolarOnlyWithPriceIncrease(t *testing.T) {
	energy := testEnergy()
	energy.AnnualPriceIncrease = d("0.02")
	specs := &domain.SystemSpecs{AnnualGeneration: d("3400"), AnnualBill: d("1200")}

	s := NewCalculator().ComputeSavings(domain.SystemConfiguration{PanelCount: 10}, specs, nil, nil, energy)

	assertDecimal(t, "0", s.BatterySavings)
	assertDecimal(t, "0", s.EVSavings)
	assertDecimal(t, "816", s.TotalAnnualSavings)
	assertDecimal(t, "0", s.PaybackYears, "no costs means no payback")
	assertDecimal(t, "68", s.BillOffsetPercent)
	assertDecimal(t, "27.2", s.GridIndependencePercent)
	assertDecimal(t, "26136.72", s.LifetimeSavings)
}

func TestComputeSavings_BatteryCapacityLimitsShift(t *testing.T) {
	specs := &domain.SystemSpecs{AnnualGeneration: d("3400"), AnnualBill: d("1200")}
	battery := &domain.EquipmentItem{ID: "small", CapacityKWh: d("2")}

	s := NewCalculator().ComputeSavings(domain.SystemConfiguration{IncludeBattery: true}, specs, battery, nil, testEnergy())

	// 600 kWh shifted: 600*0.9*0.30 - 600*0.20
	assertDecimal(t, "42", s.BatterySavings)
}

func TestComputeSavings_ZeroBill(t *testing.T) {
	specs := &domain.SystemSpecs{AnnualGeneration: d("3400"), AnnualBill: decimal.Zero}

	s := NewCalculator().ComputeSavings(domain.SystemConfiguration{}, specs, nil, nil, testEnergy())

	assertDecimal(t, "0", s.SolarSavings)
	assertDecimal(t, "680", s.ExportEarnings)
	assertDecimal(t, "0", s.BillOffsetPercent)
	assertDecimal(t, "0", s.GridIndependencePercent)
}

func TestComputeSavings_NilSpecs(t *testing.T) {
	s := NewCalculator().ComputeSavings(domain.SystemConfiguration{}, nil, nil, nil, testEnergy())
	require.NotNil(t, s)
	assertDecimal(t, "0", s.TotalAnnualSavings)
}

func TestComputePropertyImpact(t *testing.T) {
	tests := []struct {
		kwp      string
		heatPump bool
		steps    int
		text     string
		pct      string
		uplift   string
	}{
		{"1.5", false, 0, "No change", "0", "0"},
		{"3.2", false, 1, "+1 BER grade", "1.5", "4500"},
		{"4", false, 2, "+2 BER grades", "3", "9000"},
		{"6.6", true, 3, "+3 BER grades", "4.5", "13500"},
	}
	calc := NewCalculator()
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s kWp hp=%v", tt.kwp, tt.heatPump), func(t *testing.T) {
			specs := &domain.SystemSpecs{SystemSizeKWp: d(tt.kwp)}
			cfg := domain.SystemConfiguration{IncludeHeatPump: tt.heatPump}

			impact := calc.ComputePropertyImpact(specs, cfg, d("300000"), "EUR")

			assert.Equal(t, tt.steps, impact.BERGradeSteps)
			assert.Equal(t, tt.text, impact.BERImprovement)
			assertDecimal(t, tt.pct, impact.ValueUpliftPercent)
			assertDecimal(t, tt.uplift, impact.ValueUplift)
		})
	}
}

func TestCompute_Pipeline(t *testing.T) {
	catalog := domain.Equipment{
		SolarPanels: []domain.EquipmentItem{{ID: "p400", Wattage: 400}, {ID: "p440", Wattage: 440}},
		Batteries:   []domain.EquipmentItem{{ID: "b5", CapacityKWh: d("5"), Price: dp("4000")}},
	}
	in := Input{
		Config:            domain.SystemConfiguration{PanelCount: 10, SolarPanelID: "p400", IncludeBattery: true},
		Catalog:           catalog,
		Pricing:           testPricing(),
		Energy:            testEnergy(),
		Tier:              tier1(t),
		AnnualBill:        d("1200"),
		PropertyBaseValue: d("300000"),
	}

	res, err := NewCalculator().Compute(in)
	require.NoError(t, err)

	require.NotNil(t, res.Equipment.SolarPanel)
	assert.Equal(t, "p400", res.Equipment.SolarPanel.ID)
	require.NotNil(t, res.Equipment.Battery)
	assert.Nil(t, res.Equipment.EVCharger)

	assertDecimal(t, "4", res.Specs.SystemSizeKWp)
	assertDecimal(t, "9000", res.Costs.TotalSystemCost)
	assertDecimal(t, "7200", res.Costs.FinalPrice)
	assertDecimal(t, "921", res.Savings.TotalAnnualSavings)
	assert.Equal(t, 2, res.PropertyImpact.BERGradeSteps)
}

type recordingLogger struct {
	NopLogger
	debug []string
}

func (r *recordingLogger) Debugf(format string, args ...any) {
	r.debug = append(r.debug, fmt.Sprintf(format, args...))
}

func TestCalculator_SetLogger(t *testing.T) {
	calc := NewCalculator()
	rec := &recordingLogger{}
	calc.SetLogger(rec)

	calc.ComputeSpecs(domain.SystemConfiguration{PanelCount: 10}, nil, testPricing(), testEnergy(), d("1000"))
	assert.NotEmpty(t, rec.debug)

	calc.SetLogger(nil)
	assert.NotPanics(t, func() {
		calc.ComputeSpecs(domain.SystemConfiguration{PanelCount: 10}, nil, testPricing(), testEnergy(), d("1000"))
	})
}
