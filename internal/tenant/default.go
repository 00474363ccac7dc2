package tenant

import (
	"github.com/rgehrsitz/solarplan/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultSlug identifies the built-in fallback tenant
const DefaultSlug = "solarplan"

func price(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// DefaultBranding returns a fresh copy of the built-in tenant used whenever
// resolution fails
func DefaultBranding() *domain.TenantBranding {
	return &domain.TenantBranding{
		Slug:    DefaultSlug,
		Name:    "SolarPlan Ireland",
		LogoURL: "/static/solarplan-logo.svg",
		Hosts:   []string{"localhost", "127.0.0.1"},
		Contact: domain.Contact{
			Phone:   "+353 1 555 0100",
			Email:   "hello@solarplan.ie",
			Website: "https://solarplan.ie",
			Address: "Unit 4, Sandyford Business Park, Dublin 18",
		},
		Colors: domain.Colors{
			Primary:   "#0B6E4F",
			Secondary: "#08A045",
			Accent:    "#F4B400",
		},
		Social: domain.Social{
			Facebook: "https://facebook.com/solarplanie",
			LinkedIn: "https://linkedin.com/company/solarplan",
		},
		Reviews: domain.Reviews{
			Rating: decimal.RequireFromString("4.8"),
			Count:  312,
			Source: "Google",
		},
		Equipment: domain.Equipment{
			SolarPanels: []domain.EquipmentItem{
				{ID: "jinko-tiger-440", Brand: "Jinko", Model: "Tiger Neo 440W", Wattage: 440, Warranty: "25 years"},
				{ID: "aiko-neostar-455", Brand: "Aiko", Model: "Neostar 455W", Wattage: 455, Warranty: "25 years"},
			},
			Inverters: []domain.EquipmentItem{
				{ID: "solis-s6-5k", Brand: "Solis", Model: "S6 Hybrid 5kW", Warranty: "10 years"},
			},
			Batteries: []domain.EquipmentItem{
				{ID: "solis-5kwh", Brand: "Solis", Model: "RAI 5kWh", CapacityKWh: decimal.NewFromInt(5), Warranty: "10 years"},
				{ID: "tesla-pw3", Brand: "Tesla", Model: "Powerwall 3", CapacityKWh: decimal.RequireFromString("13.5"), Warranty: "10 years", Price: price(9500)},
			},
			EVChargers: []domain.EquipmentItem{
				{ID: "zappi-v2", Brand: "myenergi", Model: "zappi 7kW", Warranty: "3 years"},
			},
			HeatPumps: []domain.EquipmentItem{
				{ID: "daikin-altherma-8", Brand: "Daikin", Model: "Altherma 3 8kW", Warranty: "7 years", Price: price(11500)},
			},
		},
		Pricing: domain.Pricing{
			PricingType:         domain.PricingBasePlusIncremental,
			BasePanelThreshold:  10,
			BaseSystemPrice:     decimal.NewFromInt(6500),
			AdditionalPanelCost: decimal.NewFromInt(280),
			SEAIGrant:           decimal.NewFromInt(1800),
			DefaultEVGrant:      decimal.NewFromInt(300),
			WattsPerPanel:       domain.DefaultWattsPerPanel,
			Currency:            "EUR",
			FinanceAPR:          decimal.RequireFromString("0.069"),
			FinanceTermYears:    10,
		},
		Energy: domain.Energy{
			GridRateDay:                decimal.RequireFromString("0.35"),
			GridRateNight:              decimal.RequireFromString("0.18"),
			ExportRate:                 decimal.RequireFromString("0.185"),
			AnnualPriceIncrease:        decimal.RequireFromString("0.03"),
			BatteryRoundTripEfficiency: decimal.RequireFromString("0.9"),
			AnnualYieldPerKWp:          decimal.NewFromInt(850),
			SelfConsumptionRatio:       decimal.RequireFromString("0.4"),
			EVAnnualKWh:                decimal.NewFromInt(2000),
		},
		EmailBranding: domain.EmailBranding{
			FromName:    "SolarPlan Ireland",
			ReplyTo:     "quotes@solarplan.ie",
			HeaderColor: "#0B6E4F",
			FooterText:  "SolarPlan Ireland. SEAI registered installer.",
		},
	}
}

// BuiltinDirectory serves only the default tenant
func BuiltinDirectory() *StaticDirectory {
	return NewStaticDirectory(*DefaultBranding())
}
