// Package economics prices a configured solar system and estimates the
// savings, financing and property impact it brings.
package economics

import (
	"errors"
	"fmt"

	"github.com/rgehrsitz/solarplan/internal/domain"
	"github.com/rgehrsitz/solarplan/internal/tier"
	"github.com/shopspring/decimal"
)

// ErrTierRequired is returned when an add-on has no catalog price and no
// regional tier is available to estimate one
var ErrTierRequired = errors.New("regional tier required to estimate add-on price")

// Physical and behavioural assumptions used when a tenant leaves them unset
var (
	DefaultAnnualYieldPerKWp    = decimal.NewFromInt(850)
	DefaultSelfConsumptionRatio = decimal.NewFromFloat(0.4)
	DefaultRoundTripEfficiency  = decimal.NewFromFloat(0.9)
	DefaultEVAnnualKWh          = decimal.NewFromInt(2000)
	DefaultBatteryCapacityKWh   = decimal.NewFromInt(5)
)

const (
	// LifetimeYears is the horizon for lifetime savings
	LifetimeYears = 25
	// BatteryCyclesPerYear bounds how much export a battery can shift
	BatteryCyclesPerYear = 300
)

var (
	dayShare   = decimal.NewFromFloat(0.6)
	nightShare = decimal.NewFromFloat(0.4)
	hundred    = decimal.NewFromInt(100)
	thousand   = decimal.NewFromInt(1000)
	upliftStep = decimal.NewFromFloat(1.5)
	upliftCap  = decimal.NewFromInt(6)
	twelve     = decimal.NewFromInt(12)
)

const percentPlaces int32 = 1

// Input is everything needed to produce a full proposal
type Input struct {
	Config            domain.SystemConfiguration
	Catalog           domain.Equipment
	Pricing           domain.Pricing
	Energy            domain.Energy
	Tier              *domain.TierEntry
	AnnualBill        decimal.Decimal
	PropertyBaseValue decimal.Decimal
}

// Result groups the computed plan sections
type Result struct {
	Equipment      *domain.SelectedEquipment
	Specs          *domain.SystemSpecs
	Costs          *domain.Costs
	Savings        *domain.Savings
	PropertyImpact *domain.PropertyImpact
}

// Calculator computes plan economics. The zero value is not usable; use
// NewCalculator.
type Calculator struct {
	registry *StrategyRegistry
	logger   Logger
}

// NewCalculator creates a calculator with the built-in pricing strategies
func NewCalculator() *Calculator {
	return NewCalculatorWithRegistry(NewStrategyRegistry())
}

// NewCalculatorWithRegistry creates a calculator that builds pricing
// strategies from the given registry
func NewCalculatorWithRegistry(registry *StrategyRegistry) *Calculator {
	if registry == nil {
		registry = NewStrategyRegistry()
	}
	return &Calculator{registry: registry, logger: NopLogger{}}
}

// SetLogger sets the debug logger. nil restores the no-op logger.
func (c *Calculator) SetLogger(l Logger) {
	if l == nil {
		l = NopLogger{}
	}
	c.logger = l
}

// Registry exposes the strategy registry so callers can add pricing types
func (c *Calculator) Registry() *StrategyRegistry {
	return c.registry
}

// Compute runs the full pipeline: equipment selection, specs, costs,
// savings and property impact
func (c *Calculator) Compute(in Input) (*Result, error) {
	selected := SelectEquipment(in.Config, in.Catalog)

	specs := c.ComputeSpecs(in.Config, selected.SolarPanel, in.Pricing, in.Energy, in.AnnualBill)

	costs, err := c.ComputeCosts(in.Config, selected, in.Pricing, in.Tier)
	if err != nil {
		return nil, fmt.Errorf("failed to compute costs: %w", err)
	}

	savings := c.ComputeSavings(in.Config, specs, selected.Battery, costs, in.Energy)
	impact := c.ComputePropertyImpact(specs, in.Config, in.PropertyBaseValue, in.Pricing.Currency)

	return &Result{
		Equipment:      selected,
		Specs:          specs,
		Costs:          costs,
		Savings:        savings,
		PropertyImpact: impact,
	}, nil
}

// SelectEquipment resolves the configured catalog IDs. Add-ons are only
// selected when their include flag is set; an empty ID picks the first item.
func SelectEquipment(cfg domain.SystemConfiguration, catalog domain.Equipment) *domain.SelectedEquipment {
	sel := &domain.SelectedEquipment{}
	sel.SolarPanel, _ = domain.FindItem(catalog.SolarPanels, cfg.SolarPanelID)
	sel.Inverter, _ = domain.FindItem(catalog.Inverters, cfg.InverterID)
	if cfg.IncludeBattery {
		sel.Battery, _ = domain.FindItem(catalog.Batteries, cfg.BatteryID)
	}
	if cfg.IncludeEVCharger {
		sel.EVCharger, _ = domain.FindItem(catalog.EVChargers, cfg.EVChargerID)
	}
	if cfg.IncludeHeatPump {
		sel.HeatPump, _ = domain.FindItem(catalog.HeatPumps, cfg.HeatPumpID)
	}
	return sel
}

// ComputeSpecs derives system size and generation. The panel's own wattage
// wins over the tenant default.
func (c *Calculator) ComputeSpecs(cfg domain.SystemConfiguration, panel *domain.EquipmentItem, pricing domain.Pricing, energy domain.Energy, annualBill decimal.Decimal) *domain.SystemSpecs {
	watts := pricing.PanelWatts()
	if panel != nil && panel.Wattage > 0 {
		watts = panel.Wattage
	}
	panels := decimal.NewFromInt(int64(max(cfg.PanelCount, 0)))

	kwp := panels.Mul(decimal.NewFromInt(int64(watts))).Div(thousand)
	yield := orDefault(energy.AnnualYieldPerKWp, DefaultAnnualYieldPerKWp)
	generation := kwp.Mul(yield)

	perPanel := decimal.Zero
	if panels.IsPositive() {
		perPanel = generation.Div(panels)
	}

	c.logger.Debugf("specs: %s panels x %dW = %s kWp, %s kWh/yr", panels, watts, kwp, generation.Round(0))

	return &domain.SystemSpecs{
		SystemSizeKWp:      kwp.Round(2),
		AnnualGeneration:   generation.Round(0),
		PerPanelGeneration: perPanel.Round(1),
		AnnualBill:         RoundMoney(annualBill, pricing.Currency),
	}
}

// ComputeCosts prices the array with the tenant's strategy, adds the
// selected add-ons and applies grants
func (c *Calculator) ComputeCosts(cfg domain.SystemConfiguration, sel *domain.SelectedEquipment, pricing domain.Pricing, tierEntry *domain.TierEntry) (*domain.Costs, error) {
	if sel == nil {
		sel = &domain.SelectedEquipment{}
	}
	strategy, err := c.registry.Build(pricing)
	if err != nil {
		return nil, err
	}

	cur := pricing.Currency
	costs := &domain.Costs{
		BaseSystemCost: RoundMoney(strategy.ArrayPrice(cfg.PanelCount), cur),
	}

	if cfg.IncludeBattery {
		costs.BatteryCost, err = addOnPrice(sel.Battery, tierEntry, func(t *domain.TierEntry) domain.Range { return t.BatteryRange })
		if err != nil {
			return nil, fmt.Errorf("battery: %w", err)
		}
	}
	if cfg.IncludeEVCharger {
		costs.EVChargerCost, err = addOnPrice(sel.EVCharger, tierEntry, func(t *domain.TierEntry) domain.Range { return t.EVRange })
		if err != nil {
			return nil, fmt.Errorf("ev charger: %w", err)
		}
		costs.EVChargerGrant = RoundMoney(pricing.DefaultEVGrant, cur)
	}
	if cfg.IncludeHeatPump && sel.HeatPump != nil && sel.HeatPump.Price != nil {
		costs.HeatPumpCost = RoundMoney(*sel.HeatPump.Price, cur)
	}

	costs.BatteryCost = RoundMoney(costs.BatteryCost, cur)
	costs.EVChargerCost = RoundMoney(costs.EVChargerCost, cur)
	costs.TotalSystemCost = costs.BaseSystemCost.
		Add(costs.BatteryCost).
		Add(costs.EVChargerCost).
		Add(costs.HeatPumpCost)

	costs.SEAIGrant = RoundMoney(pricing.SEAIGrant, cur)
	costs.TotalGrants = decimal.Min(costs.SEAIGrant.Add(costs.EVChargerGrant), costs.TotalSystemCost)
	if costs.TotalGrants.IsNegative() {
		costs.TotalGrants = decimal.Zero
	}
	costs.FinalPrice = costs.TotalSystemCost.Sub(costs.TotalGrants)
	costs.MonthlyFinancing = RoundMoney(MonthlyPayment(costs.FinalPrice, pricing.FinanceAPR, pricing.FinanceTermYears), cur)

	c.logger.Debugf("costs: %s strategy, total %s, grants %s, final %s",
		strategy.Type(), costs.TotalSystemCost, costs.TotalGrants, costs.FinalPrice)

	return costs, nil
}

func addOnPrice(item *domain.EquipmentItem, tierEntry *domain.TierEntry, rangeOf func(*domain.TierEntry) domain.Range) (decimal.Decimal, error) {
	if item != nil && item.Price != nil {
		return *item.Price, nil
	}
	if tierEntry == nil {
		return decimal.Zero, ErrTierRequired
	}
	return tier.Median(rangeOf(tierEntry)), nil
}

// MonthlyPayment amortises principal over years at a nominal annual rate.
// A zero rate divides evenly; a non-positive term yields zero.
func MonthlyPayment(principal, apr decimal.Decimal, years int) decimal.Decimal {
	if years <= 0 || !principal.IsPositive() {
		return decimal.Zero
	}
	n := int64(years) * 12
	if !apr.IsPositive() {
		return principal.Div(decimal.NewFromInt(n))
	}
	r := apr.Div(twelve)
	growth := decimal.NewFromInt(1)
	onePlusR := growth.Add(r)
	for i := int64(0); i < n; i++ {
		growth = growth.Mul(onePlusR)
	}
	// P * r * (1+r)^n / ((1+r)^n - 1)
	return principal.Mul(r).Mul(growth).Div(growth.Sub(decimal.NewFromInt(1)))
}

// ComputeSavings estimates first-year and lifetime savings
func (c *Calculator) ComputeSavings(cfg domain.SystemConfiguration, specs *domain.SystemSpecs, battery *domain.EquipmentItem, costs *domain.Costs, energy domain.Energy) *domain.Savings {
	savings := &domain.Savings{
		SolarSavings:            decimal.Zero,
		ExportEarnings:          decimal.Zero,
		BatterySavings:          decimal.Zero,
		EVSavings:               decimal.Zero,
		TotalAnnualSavings:      decimal.Zero,
		PaybackYears:            decimal.Zero,
		BillOffsetPercent:       decimal.Zero,
		GridIndependencePercent: decimal.Zero,
		LifetimeSavings:         decimal.Zero,
	}
	if specs == nil {
		return savings
	}

	day, night, export := energy.GridRateDay, energy.GridRateNight, energy.ExportRate
	blended := day.Mul(dayShare).Add(night.Mul(nightShare))

	consumption := decimal.Zero
	if blended.IsPositive() && specs.AnnualBill.IsPositive() {
		consumption = specs.AnnualBill.Div(blended)
	}

	generation := specs.AnnualGeneration
	ratio := orDefault(energy.SelfConsumptionRatio, DefaultSelfConsumptionRatio)
	selfConsumed := decimal.Min(generation.Mul(ratio), consumption)
	exported := generation.Sub(selfConsumed)

	savings.SolarSavings = selfConsumed.Mul(day)
	savings.ExportEarnings = exported.Mul(export)

	rte := orDefault(energy.BatteryRoundTripEfficiency, DefaultRoundTripEfficiency)
	shifted := decimal.Zero
	if cfg.IncludeBattery {
		capacity := DefaultBatteryCapacityKWh
		if battery != nil && battery.CapacityKWh.IsPositive() {
			capacity = battery.CapacityKWh
		}
		shifted = decimal.Min(exported, capacity.Mul(decimal.NewFromInt(BatteryCyclesPerYear)))
		savings.BatterySavings = shifted.Mul(rte).Mul(day).Sub(shifted.Mul(export))
	}

	if cfg.IncludeEVCharger {
		evKWh := orDefault(energy.EVAnnualKWh, DefaultEVAnnualKWh)
		savings.EVSavings = evKWh.Mul(day.Sub(night))
	}

	total := savings.SolarSavings.Add(savings.ExportEarnings).Add(savings.BatterySavings).Add(savings.EVSavings)

	if costs != nil && total.IsPositive() {
		savings.PaybackYears = costs.FinalPrice.Div(total).Round(0)
	}
	if specs.AnnualBill.IsPositive() {
		savings.BillOffsetPercent = decimal.Min(hundred, total.Div(specs.AnnualBill).Mul(hundred)).Round(percentPlaces)
	}
	if consumption.IsPositive() {
		covered := selfConsumed.Add(shifted.Mul(rte))
		savings.GridIndependencePercent = decimal.Min(hundred, covered.Div(consumption).Mul(hundred)).Round(percentPlaces)
	}

	lifetime := decimal.Zero
	growth := decimal.NewFromInt(1)
	step := growth.Add(energy.AnnualPriceIncrease)
	for y := 0; y < LifetimeYears; y++ {
		lifetime = lifetime.Add(total.Mul(growth))
		growth = growth.Mul(step)
	}

	savings.SolarSavings = savings.SolarSavings.Round(2)
	savings.ExportEarnings = savings.ExportEarnings.Round(2)
	savings.BatterySavings = savings.BatterySavings.Round(2)
	savings.EVSavings = savings.EVSavings.Round(2)
	savings.TotalAnnualSavings = total.Round(2)
	savings.LifetimeSavings = lifetime.Round(2)

	c.logger.Debugf("savings: consumption %s kWh, self %s kWh, shifted %s kWh, total %s/yr",
		consumption.Round(0), selfConsumed.Round(0), shifted.Round(0), savings.TotalAnnualSavings)

	return savings
}

// ComputePropertyImpact estimates the BER improvement and the resulting
// value uplift on a property worth baseValue
func (c *Calculator) ComputePropertyImpact(specs *domain.SystemSpecs, cfg domain.SystemConfiguration, baseValue decimal.Decimal, currency string) *domain.PropertyImpact {
	steps := 0
	if specs != nil {
		switch {
		case specs.SystemSizeKWp.LessThan(decimal.NewFromInt(2)):
			steps = 0
		case specs.SystemSizeKWp.LessThan(decimal.NewFromInt(4)):
			steps = 1
		default:
			steps = 2
		}
	}
	if cfg.IncludeHeatPump {
		steps++
	}

	pct := decimal.Min(upliftStep.Mul(decimal.NewFromInt(int64(steps))), upliftCap)
	uplift := decimal.Zero
	if baseValue.IsPositive() {
		uplift = RoundMoney(baseValue.Mul(pct).Div(hundred), currency)
	}

	return &domain.PropertyImpact{
		BERImprovement:     BERImprovementText(steps),
		BERGradeSteps:      steps,
		ValueUplift:        uplift,
		ValueUpliftPercent: pct.Round(percentPlaces),
	}
}

// BERImprovementText renders a step count, e.g. "+2 BER grades"
func BERImprovementText(steps int) string {
	switch {
	case steps <= 0:
		return "No change"
	case steps == 1:
		return "+1 BER grade"
	default:
		return fmt.Sprintf("+%d BER grades", steps)
	}
}

func orDefault(v, def decimal.Decimal) decimal.Decimal {
	if v.IsPositive() {
		return v
	}
	return def
}
