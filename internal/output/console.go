package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rgehrsitz/solarplan/internal/domain"
	"github.com/rgehrsitz/solarplan/internal/economics"
	"github.com/shopspring/decimal"
)

// ConsoleFormatter renders a human-readable quote
type ConsoleFormatter struct{}

func (ConsoleFormatter) Name() string { return "console" }

func (ConsoleFormatter) Format(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	plan := r.Plan
	cur := r.Currency()
	money := func(d decimal.Decimal) string { return economics.FormatMoney(d, cur) }

	title := "SOLAR PROPOSAL"
	if r.Tenant != nil && r.Tenant.Name != "" {
		title = strings.ToUpper(r.Tenant.Name) + " SOLAR PROPOSAL"
	}
	fmt.Fprintln(&buf, strings.Repeat("=", 60))
	fmt.Fprintln(&buf, title)
	fmt.Fprintln(&buf, strings.Repeat("=", 60))

	if loc := plan.Location; loc != nil {
		fmt.Fprintf(&buf, "Address:            %s\n", loc.Address)
		tierName := loc.TierName
		if loc.TierDefaulted {
			tierName += " (default)"
		}
		if loc.County != "" {
			fmt.Fprintf(&buf, "County:             %s\n", loc.County)
		}
		fmt.Fprintf(&buf, "Pricing tier:       %s\n", tierName)
	}
	fmt.Fprintln(&buf)

	if cfg := plan.SystemConfiguration; cfg != nil {
		section(&buf, "SYSTEM")
		fmt.Fprintf(&buf, "  Property type:      %s\n", cfg.PropertyType)
		fmt.Fprintf(&buf, "  Panels:             %d\n", cfg.PanelCount)
		if specs := plan.SystemSpecs; specs != nil {
			fmt.Fprintf(&buf, "  System size:        %s kWp\n", specs.SystemSizeKWp.StringFixed(2))
			fmt.Fprintf(&buf, "  Annual generation:  %s kWh\n", specs.AnnualGeneration.StringFixed(0))
			fmt.Fprintf(&buf, "  Annual bill:        %s\n", money(specs.AnnualBill))
		}
		fmt.Fprintln(&buf)
	}

	if eq := plan.Equipment; eq != nil {
		section(&buf, "EQUIPMENT")
		item(&buf, "Solar panel", eq.SolarPanel)
		item(&buf, "Inverter", eq.Inverter)
		item(&buf, "Battery", eq.Battery)
		item(&buf, "EV charger", eq.EVCharger)
		item(&buf, "Heat pump", eq.HeatPump)
		fmt.Fprintln(&buf)
	}

	if c := plan.Costs; c != nil {
		section(&buf, "COSTS")
		fmt.Fprintf(&buf, "  Solar array:        %s\n", money(c.BaseSystemCost))
		optional(&buf, "  Battery:            %s\n", c.BatteryCost, money)
		optional(&buf, "  EV charger:         %s\n", c.EVChargerCost, money)
		optional(&buf, "  Heat pump:          %s\n", c.HeatPumpCost, money)
		fmt.Fprintf(&buf, "  Total:              %s\n", money(c.TotalSystemCost))
		fmt.Fprintf(&buf, "  Grants:            -%s\n", money(c.TotalGrants))
		fmt.Fprintf(&buf, "  FINAL PRICE:        %s\n", money(c.FinalPrice))
		optional(&buf, "  Finance:            %s/month\n", c.MonthlyFinancing, money)
		fmt.Fprintln(&buf)
	}

	if s := plan.Savings; s != nil {
		section(&buf, "SAVINGS (first year)")
		fmt.Fprintf(&buf, "  Solar:              %s\n", money(s.SolarSavings))
		fmt.Fprintf(&buf, "  Export:             %s\n", money(s.ExportEarnings))
		optional(&buf, "  Battery:            %s\n", s.BatterySavings, money)
		optional(&buf, "  EV charging:        %s\n", s.EVSavings, money)
		fmt.Fprintf(&buf, "  TOTAL:              %s\n", money(s.TotalAnnualSavings))
		fmt.Fprintf(&buf, "  Payback:            %s years\n", s.PaybackYears.String())
		fmt.Fprintf(&buf, "  Bill offset:        %s%%\n", s.BillOffsetPercent.StringFixed(1))
		fmt.Fprintf(&buf, "  Grid independence:  %s%%\n", s.GridIndependencePercent.StringFixed(1))
		fmt.Fprintf(&buf, "  25-year savings:    %s\n", money(s.LifetimeSavings))
		fmt.Fprintln(&buf)
	}

	if p := plan.PropertyImpact; p != nil {
		section(&buf, "PROPERTY")
		fmt.Fprintf(&buf, "  BER:                %s\n", p.BERImprovement)
		fmt.Fprintf(&buf, "  Value uplift:       %s (%s%%)\n", money(p.ValueUplift), p.ValueUpliftPercent.StringFixed(1))
		fmt.Fprintln(&buf)
	}

	if text := plan.Metadata.BusinessProposal; text != "" {
		fmt.Fprintln(&buf, text)
	}
	return buf.Bytes(), nil
}

func section(buf *bytes.Buffer, name string) {
	fmt.Fprintln(buf, name)
	fmt.Fprintln(buf, strings.Repeat("-", len(name)))
}

func item(buf *bytes.Buffer, label string, it *domain.EquipmentItem) {
	if it == nil {
		return
	}
	fmt.Fprintf(buf, "  %-19s %s %s\n", label+":", it.Brand, it.Model)
}

func optional(buf *bytes.Buffer, format string, v decimal.Decimal, money func(decimal.Decimal) string) {
	if v.IsPositive() {
		fmt.Fprintf(buf, format, money(v))
	}
}
