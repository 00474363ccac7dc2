package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrentPlanVersion is bumped on every schema-incompatible change to PlanRecord.
//
// Version 1 records have no location or propertyImpact sections.
const CurrentPlanVersion = 2

// PropertyType is the declared dwelling type used for sizing limits
type PropertyType string

const (
	PropertyDetached     PropertyType = "detached"
	PropertySemiDetached PropertyType = "semi-detached"
	PropertyTerraced     PropertyType = "terraced"
	PropertyUnknown      PropertyType = "unknown"
)

// PlanRecord is the persisted wizard state. Every section is optional:
// readers must cope with records written by older versions.
type PlanRecord struct {
	SystemConfiguration *SystemConfiguration `json:"systemConfiguration,omitempty" yaml:"system_configuration,omitempty"`
	SystemSpecs         *SystemSpecs         `json:"systemSpecs,omitempty" yaml:"system_specs,omitempty"`
	Costs               *Costs               `json:"costs,omitempty" yaml:"costs,omitempty"`
	Savings             *Savings             `json:"savings,omitempty" yaml:"savings,omitempty"`
	Equipment           *SelectedEquipment   `json:"equipment,omitempty" yaml:"equipment,omitempty"`
	PropertyImpact      *PropertyImpact      `json:"propertyImpact,omitempty" yaml:"property_impact,omitempty"`
	Location            *Location            `json:"location,omitempty" yaml:"location,omitempty"`
	Metadata            Metadata             `json:"metadata" yaml:"metadata"`
	UserInfo            *UserInfo            `json:"userInfo,omitempty" yaml:"user_info,omitempty"`
}

// SystemConfiguration captures what the user chose
type SystemConfiguration struct {
	PanelCount       int          `json:"panelCount" yaml:"panel_count"`
	SolarPanelID     string       `json:"solarPanelId,omitempty" yaml:"solar_panel_id,omitempty"`
	InverterID       string       `json:"inverterId,omitempty" yaml:"inverter_id,omitempty"`
	BatteryID        string       `json:"batteryId,omitempty" yaml:"battery_id,omitempty"`
	EVChargerID      string       `json:"evChargerId,omitempty" yaml:"ev_charger_id,omitempty"`
	HeatPumpID       string       `json:"heatPumpId,omitempty" yaml:"heat_pump_id,omitempty"`
	IncludeBattery   bool         `json:"includeBattery" yaml:"include_battery"`
	IncludeEVCharger bool         `json:"includeEvCharger" yaml:"include_ev_charger"`
	IncludeHeatPump  bool         `json:"includeHeatPump" yaml:"include_heat_pump"`
	BackupCapability bool         `json:"backupCapability" yaml:"backup_capability"`
	PropertyType     PropertyType `json:"propertyType,omitempty" yaml:"property_type,omitempty"`
}

// SystemSpecs are the derived physical figures of the proposed system
type SystemSpecs struct {
	SystemSizeKWp      decimal.Decimal `json:"systemSizeKwp" yaml:"system_size_kwp"`
	AnnualGeneration   decimal.Decimal `json:"annualGeneration" yaml:"annual_generation"`
	PerPanelGeneration decimal.Decimal `json:"perPanelGeneration" yaml:"per_panel_generation"`
	AnnualBill         decimal.Decimal `json:"annualBill" yaml:"annual_bill"`
}

// Costs is the price breakdown. FinalPrice == TotalSystemCost - TotalGrants.
type Costs struct {
	BaseSystemCost   decimal.Decimal `json:"baseSystemCost" yaml:"base_system_cost"`
	BatteryCost      decimal.Decimal `json:"batteryCost" yaml:"battery_cost"`
	EVChargerCost    decimal.Decimal `json:"evChargerCost" yaml:"ev_charger_cost"`
	HeatPumpCost     decimal.Decimal `json:"heatPumpCost" yaml:"heat_pump_cost"`
	TotalSystemCost  decimal.Decimal `json:"totalSystemCost" yaml:"total_system_cost"`
	SEAIGrant        decimal.Decimal `json:"seaiGrant" yaml:"seai_grant"`
	EVChargerGrant   decimal.Decimal `json:"evChargerGrant" yaml:"ev_charger_grant"`
	TotalGrants      decimal.Decimal `json:"totalGrants" yaml:"total_grants"`
	FinalPrice       decimal.Decimal `json:"finalPrice" yaml:"final_price"`
	MonthlyFinancing decimal.Decimal `json:"monthlyFinancing" yaml:"monthly_financing"`
}

// Savings are first-year figures unless noted
type Savings struct {
	SolarSavings            decimal.Decimal `json:"solarSavings" yaml:"solar_savings"`
	ExportEarnings          decimal.Decimal `json:"exportEarnings" yaml:"export_earnings"`
	BatterySavings          decimal.Decimal `json:"batterySavings" yaml:"battery_savings"`
	EVSavings               decimal.Decimal `json:"evSavings" yaml:"ev_savings"`
	TotalAnnualSavings      decimal.Decimal `json:"totalAnnualSavings" yaml:"total_annual_savings"`
	PaybackYears            decimal.Decimal `json:"paybackYears" yaml:"payback_years"`
	BillOffsetPercent       decimal.Decimal `json:"billOffsetPercent" yaml:"bill_offset_percent"`
	GridIndependencePercent decimal.Decimal `json:"gridIndependencePercent" yaml:"grid_independence_percent"`
	LifetimeSavings         decimal.Decimal `json:"lifetimeSavings" yaml:"lifetime_savings"` // 25 years with price increases
}

// SelectedEquipment holds the resolved catalog entries actually chosen
type SelectedEquipment struct {
	SolarPanel *EquipmentItem `json:"solarPanel,omitempty" yaml:"solar_panel,omitempty"`
	Inverter   *EquipmentItem `json:"inverter,omitempty" yaml:"inverter,omitempty"`
	Battery    *EquipmentItem `json:"battery,omitempty" yaml:"battery,omitempty"`
	EVCharger  *EquipmentItem `json:"evCharger,omitempty" yaml:"ev_charger,omitempty"`
	HeatPump   *EquipmentItem `json:"heatPump,omitempty" yaml:"heat_pump,omitempty"`
}

// PropertyImpact estimates how the upgrade changes the property
type PropertyImpact struct {
	BERImprovement     string          `json:"berImprovement" yaml:"ber_improvement"`
	BERGradeSteps      int             `json:"berGradeSteps" yaml:"ber_grade_steps"`
	ValueUplift        decimal.Decimal `json:"valueUplift" yaml:"value_uplift"`
	ValueUpliftPercent decimal.Decimal `json:"valueUpliftPercent" yaml:"value_uplift_percent"`
}

// Location is the address the plan was priced for
type Location struct {
	Address       string  `json:"address" yaml:"address"`
	County        string  `json:"county,omitempty" yaml:"county,omitempty"`
	TierName      string  `json:"tierName,omitempty" yaml:"tier_name,omitempty"`
	TierDefaulted bool    `json:"tierDefaulted,omitempty" yaml:"tier_defaulted,omitempty"`
	Latitude      float64 `json:"lat,omitempty" yaml:"lat,omitempty"`
	Longitude     float64 `json:"lng,omitempty" yaml:"lng,omitempty"`
}

// Metadata identifies the plan and the schema it was written with
type Metadata struct {
	PlanID           string    `json:"planId,omitempty" yaml:"plan_id,omitempty"`
	PlanCreatedAt    time.Time `json:"planCreatedAt" yaml:"plan_created_at"`
	PlanVersion      int       `json:"planVersion" yaml:"plan_version"`
	BusinessProposal string    `json:"businessProposal,omitempty" yaml:"business_proposal,omitempty"`
	TenantSlug       string    `json:"tenantSlug,omitempty" yaml:"tenant_slug,omitempty"`
}

// UserInfo is captured at lead submission
type UserInfo struct {
	FullName     string    `json:"fullName" yaml:"full_name"`
	Email        string    `json:"email" yaml:"email"`
	AgreeToTerms bool      `json:"agreeToTerms" yaml:"agree_to_terms"`
	SubmittedAt  time.Time `json:"submittedAt" yaml:"submitted_at"`
}

// ContactInfo is the separately persisted contact summary
type ContactInfo struct {
	FullName    string    `json:"fullName"`
	Email       string    `json:"email"`
	SubmittedAt time.Time `json:"submittedAt"`
}
