package wizard

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/solarplan/internal/domain"
	"github.com/rgehrsitz/solarplan/internal/economics"
)

var propertyLabels = map[domain.PropertyType]string{
	domain.PropertyDetached:     "detached home",
	domain.PropertySemiDetached: "semi-detached home",
	domain.PropertyTerraced:     "terraced home",
}

// BusinessProposal renders the plain-text proposal summary sent with a lead
func BusinessProposal(b *domain.TenantBranding, rec *domain.PlanRecord) string {
	if rec == nil || rec.SystemConfiguration == nil || rec.SystemSpecs == nil || rec.Costs == nil {
		return ""
	}
	cfg, specs, costs := rec.SystemConfiguration, rec.SystemSpecs, rec.Costs
	cur := b.Pricing.Currency

	home := propertyLabels[cfg.PropertyType]
	if home == "" {
		home = "home"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s proposes a %s kWp solar system of %d panels for your %s",
		b.Name, specs.SystemSizeKWp.StringFixed(2), cfg.PanelCount, home)
	if rec.Location != nil && rec.Location.County != "" {
		fmt.Fprintf(&sb, " in %s", rec.Location.County)
	}
	sb.WriteString(".")

	var extras []string
	if cfg.IncludeBattery {
		extras = append(extras, "battery storage")
	}
	if cfg.IncludeEVCharger {
		extras = append(extras, "an EV charger")
	}
	if cfg.IncludeHeatPump {
		extras = append(extras, "a heat pump")
	}
	if len(extras) > 0 {
		fmt.Fprintf(&sb, " Includes %s.", joinList(extras))
	}

	fmt.Fprintf(&sb, " Total %s less %s in grants: %s",
		economics.FormatMoney(costs.TotalSystemCost, cur),
		economics.FormatMoney(costs.TotalGrants, cur),
		economics.FormatMoney(costs.FinalPrice, cur))
	if costs.MonthlyFinancing.IsPositive() {
		fmt.Fprintf(&sb, " or %s/month", economics.FormatMoney(costs.MonthlyFinancing, cur))
	}
	sb.WriteString(".")

	if s := rec.Savings; s != nil && s.TotalAnnualSavings.IsPositive() {
		fmt.Fprintf(&sb, " Estimated savings %s a year", economics.FormatMoney(s.TotalAnnualSavings, cur))
		if s.PaybackYears.IsPositive() {
			fmt.Fprintf(&sb, " with payback in about %s years", s.PaybackYears.String())
		}
		sb.WriteString(".")
	}
	return sb.String()
}

func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
