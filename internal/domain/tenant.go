package domain

import (
	"github.com/shopspring/decimal"
)

// PricingType selects the pricing strategy a tenant uses for the solar array
type PricingType string

const (
	PricingBasePlusIncremental PricingType = "base_plus_incremental"
	PricingSlab                PricingType = "slab"
)

// DefaultWattsPerPanel is used when a tenant does not configure panel wattage
const DefaultWattsPerPanel = 440

// TenantBranding is the full configuration bundle for one operator: identity,
// theme, equipment catalog, pricing model and energy tariffs.
type TenantBranding struct {
	Slug    string   `yaml:"slug" json:"slug"`
	Name    string   `yaml:"name" json:"name"`
	LogoURL string   `yaml:"logo_url" json:"logoUrl"`
	Hosts   []string `yaml:"hosts" json:"hosts"`

	Contact       Contact       `yaml:"contact" json:"contact"`
	Colors        Colors        `yaml:"colors" json:"colors"`
	Social        Social        `yaml:"social" json:"social"`
	Reviews       Reviews       `yaml:"reviews" json:"reviews"`
	Equipment     Equipment     `yaml:"equipment" json:"equipment"`
	Pricing       Pricing       `yaml:"pricing" json:"pricing"`
	Energy        Energy        `yaml:"energy" json:"energy"`
	EmailBranding EmailBranding `yaml:"email_branding" json:"emailBranding"`
}

// Contact holds the public contact details shown to visitors
type Contact struct {
	Phone   string `yaml:"phone" json:"phone"`
	Email   string `yaml:"email" json:"email"`
	Website string `yaml:"website" json:"website"`
	Address string `yaml:"address" json:"address"`
}

// Colors is the tenant colour theme as hex strings
type Colors struct {
	Primary   string `yaml:"primary" json:"primary"`
	Secondary string `yaml:"secondary" json:"secondary"`
	Accent    string `yaml:"accent" json:"accent"`
}

// Social links
type Social struct {
	Facebook  string `yaml:"facebook,omitempty" json:"facebook,omitempty"`
	Instagram string `yaml:"instagram,omitempty" json:"instagram,omitempty"`
	LinkedIn  string `yaml:"linkedin,omitempty" json:"linkedin,omitempty"`
	X         string `yaml:"x,omitempty" json:"x,omitempty"`
}

// Reviews summarises the tenant's public review score
type Reviews struct {
	Rating decimal.Decimal `yaml:"rating" json:"rating"`
	Count  int             `yaml:"count" json:"count"`
	Source string          `yaml:"source" json:"source"`
}

// EquipmentItem is one purchasable catalog entry. Price is optional; when it
// is absent the regional tier supplies an estimate.
type EquipmentItem struct {
	ID          string           `yaml:"id" json:"id"`
	Brand       string           `yaml:"brand" json:"brand"`
	Model       string           `yaml:"model" json:"model"`
	Wattage     int              `yaml:"wattage,omitempty" json:"wattage,omitempty"`
	CapacityKWh decimal.Decimal  `yaml:"capacity_kwh,omitempty" json:"capacityKwh,omitempty"`
	Warranty    string           `yaml:"warranty,omitempty" json:"warranty,omitempty"`
	Price       *decimal.Decimal `yaml:"price,omitempty" json:"price,omitempty"`
}

// Equipment is the tenant's catalog, one list per equipment class
type Equipment struct {
	SolarPanels []EquipmentItem `yaml:"solar_panels" json:"solarPanels"`
	Inverters   []EquipmentItem `yaml:"inverters" json:"inverters"`
	Batteries   []EquipmentItem `yaml:"batteries" json:"batteries"`
	EVChargers  []EquipmentItem `yaml:"ev_chargers" json:"evChargers"`
	HeatPumps   []EquipmentItem `yaml:"heat_pumps,omitempty" json:"heatPumps,omitempty"`
}

// Slab is one panel-count bracket of a slab price table
type Slab struct {
	MinPanels int             `yaml:"min_panels" json:"minPanels"`
	MaxPanels int             `yaml:"max_panels" json:"maxPanels"`
	Price     decimal.Decimal `yaml:"price" json:"price"`
}

// Pricing is the tenant's pricing model. Only the fields matching
// PricingType are read when pricing the array.
type Pricing struct {
	PricingType         PricingType     `yaml:"pricing_type" json:"pricingType"`
	BasePanelThreshold  int             `yaml:"base_panel_threshold" json:"basePanelThreshold"`
	BaseSystemPrice     decimal.Decimal `yaml:"base_system_price" json:"baseSystemPrice"`
	AdditionalPanelCost decimal.Decimal `yaml:"additional_panel_cost" json:"additionalPanelCost"`
	SlabPricing         []Slab          `yaml:"slab_pricing,omitempty" json:"slabPricing,omitempty"`
	SEAIGrant           decimal.Decimal `yaml:"seai_grant" json:"seaiGrant"`
	DefaultEVGrant      decimal.Decimal `yaml:"default_ev_grant" json:"defaultEVGrant"`

	WattsPerPanel    int             `yaml:"watts_per_panel,omitempty" json:"wattsPerPanel,omitempty"`
	Currency         string          `yaml:"currency,omitempty" json:"currency,omitempty"`
	FinanceAPR       decimal.Decimal `yaml:"finance_apr" json:"financeApr"`
	FinanceTermYears int             `yaml:"finance_term_years" json:"financeTermYears"`
}

// PanelWatts returns the configured panel wattage or the 440W default
func (p Pricing) PanelWatts() int {
	if p.WattsPerPanel > 0 {
		return p.WattsPerPanel
	}
	return DefaultWattsPerPanel
}

// Energy holds tariffs and the physical assumptions behind savings estimates
type Energy struct {
	GridRateDay                decimal.Decimal `yaml:"grid_rate_day" json:"gridRateDay"`
	GridRateNight              decimal.Decimal `yaml:"grid_rate_night" json:"gridRateNight"`
	ExportRate                 decimal.Decimal `yaml:"export_rate" json:"exportRate"`
	AnnualPriceIncrease        decimal.Decimal `yaml:"annual_price_increase" json:"annualPriceIncrease"`
	BatteryRoundTripEfficiency decimal.Decimal `yaml:"battery_round_trip_efficiency" json:"batteryRoundTripEfficiency"`

	AnnualYieldPerKWp    decimal.Decimal `yaml:"annual_yield_per_kwp,omitempty" json:"annualYieldPerKwp,omitempty"`
	SelfConsumptionRatio decimal.Decimal `yaml:"self_consumption_ratio,omitempty" json:"selfConsumptionRatio,omitempty"`
	EVAnnualKWh          decimal.Decimal `yaml:"ev_annual_kwh,omitempty" json:"evAnnualKwh,omitempty"`
}

// EmailBranding holds presentation fields for outbound communications
type EmailBranding struct {
	FromName    string `yaml:"from_name" json:"fromName"`
	ReplyTo     string `yaml:"reply_to" json:"replyTo"`
	HeaderColor string `yaml:"header_color" json:"headerColor"`
	FooterText  string `yaml:"footer_text" json:"footerText"`
}

// FindItem looks up a catalog item by ID. An empty ID selects the first item.
func FindItem(items []EquipmentItem, id string) (*EquipmentItem, bool) {
	if len(items) == 0 {
		return nil, false
	}
	if id == "" {
		item := items[0]
		return &item, true
	}
	for i := range items {
		if items[i].ID == id {
			item := items[i]
			return &item, true
		}
	}
	return nil, false
}
