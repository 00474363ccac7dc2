package tenant

import (
	"fmt"
	"regexp"

	"github.com/rgehrsitz/solarplan/internal/domain"
	"github.com/rgehrsitz/solarplan/internal/economics"
	"github.com/shopspring/decimal"
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

var one = decimal.NewFromInt(1)

// Validator checks bundles against the pricing strategies a calculator can
// build. Use the calculator's registry so custom pricing types are accepted.
type Validator struct {
	strategies *economics.StrategyRegistry
}

var defaultValidator = NewValidator(nil)

// NewValidator creates a validator over reg, or the built-in strategies
// when reg is nil
func NewValidator(reg *economics.StrategyRegistry) *Validator {
	if reg == nil {
		reg = economics.NewStrategyRegistry()
	}
	return &Validator{strategies: reg}
}

// Validate checks b against the built-in pricing strategies
func Validate(b *domain.TenantBranding) error {
	return defaultValidator.Validate(b)
}

// Validate checks that a bundle is complete enough to price a plan
func (v *Validator) Validate(b *domain.TenantBranding) error {
	if b == nil {
		return fmt.Errorf("%w: empty bundle", ErrInvalidBranding)
	}
	if b.Slug == "" {
		return fmt.Errorf("%w: slug is required", ErrInvalidBranding)
	}
	if b.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidBranding)
	}
	if err := validateColors(b.Colors); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBranding, err)
	}
	if err := v.validatePricing(b.Pricing); err != nil {
		return fmt.Errorf("%w: pricing: %v", ErrInvalidBranding, err)
	}
	if err := validateEnergy(b.Energy); err != nil {
		return fmt.Errorf("%w: energy: %v", ErrInvalidBranding, err)
	}
	if err := validateEquipment(b.Equipment); err != nil {
		return fmt.Errorf("%w: equipment: %v", ErrInvalidBranding, err)
	}
	return nil
}

func validateColors(c domain.Colors) error {
	for name, v := range map[string]string{"primary": c.Primary, "secondary": c.Secondary, "accent": c.Accent} {
		if v != "" && !hexColor.MatchString(v) {
			return fmt.Errorf("%s colour %q is not a hex colour", name, v)
		}
	}
	return nil
}

func (v *Validator) validatePricing(p domain.Pricing) error {
	if _, err := v.strategies.Build(p); err != nil {
		return err
	}
	if p.SEAIGrant.IsNegative() || p.DefaultEVGrant.IsNegative() {
		return fmt.Errorf("grants cannot be negative")
	}
	if p.FinanceAPR.IsNegative() {
		return fmt.Errorf("finance APR cannot be negative")
	}
	if p.FinanceTermYears < 0 {
		return fmt.Errorf("finance term cannot be negative")
	}
	if p.WattsPerPanel < 0 {
		return fmt.Errorf("watts per panel cannot be negative")
	}
	return nil
}

func validateEnergy(e domain.Energy) error {
	if e.GridRateDay.IsNegative() || e.GridRateNight.IsNegative() || e.ExportRate.IsNegative() {
		return fmt.Errorf("rates cannot be negative")
	}
	if e.BatteryRoundTripEfficiency.IsNegative() || e.BatteryRoundTripEfficiency.GreaterThan(one) {
		return fmt.Errorf("battery round trip efficiency must be between 0 and 1")
	}
	if e.SelfConsumptionRatio.IsNegative() || e.SelfConsumptionRatio.GreaterThan(one) {
		return fmt.Errorf("self consumption ratio must be between 0 and 1")
	}
	return nil
}

func validateEquipment(eq domain.Equipment) error {
	classes := map[string][]domain.EquipmentItem{
		"solar panels": eq.SolarPanels,
		"inverters":    eq.Inverters,
		"batteries":    eq.Batteries,
		"ev chargers":  eq.EVChargers,
		"heat pumps":   eq.HeatPumps,
	}
	for class, items := range classes {
		ids := make(map[string]bool, len(items))
		for _, item := range items {
			if item.ID == "" {
				return fmt.Errorf("%s: item without id", class)
			}
			if ids[item.ID] {
				return fmt.Errorf("%s: duplicate id %q", class, item.ID)
			}
			ids[item.ID] = true
			if item.Price != nil && item.Price.IsNegative() {
				return fmt.Errorf("%s: %s has a negative price", class, item.ID)
			}
		}
	}
	return nil
}
