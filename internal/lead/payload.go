// Package lead builds and submits the lead-capture payload for a finished plan.
package lead

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rgehrsitz/solarplan/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrInvalidLead is returned when a payload cannot be built
var ErrInvalidLead = errors.New("invalid lead")

// LeadDetails is what the visitor types into the signup form
type LeadDetails struct {
	Name    string `json:"name" yaml:"name"`
	Email   string `json:"email" yaml:"email"`
	Phone   string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Consent bool   `json:"consent" yaml:"consent"`
}

// Payload is the outbound lead body. Field names are fixed by the
// receiving endpoint.
type Payload struct {
	Name               string             `json:"name"`
	Email              string             `json:"email"`
	PhoneNumber        *string            `json:"phone_number"`
	BusinessProposal   string             `json:"business_proposal"`
	PersonaliseAnswers PersonaliseAnswers `json:"personalise_answers"`
	SelectedLocation   SelectedLocation   `json:"selectedLocation"`
	RoofArea           RoofArea           `json:"roof_area"`
	EnergyIndependence EnergyIndependence `json:"energy_independence"`
	FinanceInfo        FinanceInfo        `json:"financeInfo"`
	Consent            bool               `json:"consent"`

	// IdempotencyKey identifies the signup and is sent as a header
	IdempotencyKey string `json:"-"`
}

// PersonaliseAnswers echoes the wizard answers
type PersonaliseAnswers struct {
	PropertyType     domain.PropertyType `json:"propertyType"`
	AnnualBill       decimal.Decimal     `json:"annualBill"`
	IncludeBattery   bool                `json:"includeBattery"`
	IncludeEVCharger bool                `json:"includeEvCharger"`
	IncludeHeatPump  bool                `json:"includeHeatPump"`
	BackupCapability bool                `json:"backupCapability"`
}

// SelectedLocation is where the system would be installed
type SelectedLocation struct {
	Address string  `json:"address"`
	County  string  `json:"county,omitempty"`
	Tier    string  `json:"tier,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lng     float64 `json:"lng,omitempty"`
}

// RoofArea describes the proposed array
type RoofArea struct {
	PanelCount       int             `json:"panelCount"`
	SystemSizeKWp    decimal.Decimal `json:"systemSizeKwp"`
	AnnualGeneration decimal.Decimal `json:"annualGeneration"`
}

// EnergyIndependence summarises the savings
type EnergyIndependence struct {
	BillOffsetPercent       decimal.Decimal `json:"billOffsetPercent"`
	GridIndependencePercent decimal.Decimal `json:"gridIndependencePercent"`
	AnnualSavings           decimal.Decimal `json:"annualSavings"`
	LifetimeSavings         decimal.Decimal `json:"lifetimeSavings"`
}

// FinanceInfo summarises the price
type FinanceInfo struct {
	TotalSystemCost  decimal.Decimal `json:"totalSystemCost"`
	TotalGrants      decimal.Decimal `json:"totalGrants"`
	FinalPrice       decimal.Decimal `json:"finalPrice"`
	MonthlyFinancing decimal.Decimal `json:"monthlyFinancing"`
	PaybackYears     decimal.Decimal `json:"paybackYears"`
}

// BuildPayload derives the lead payload from a plan and the signup form.
// Missing plan sections leave the corresponding payload parts zero.
func BuildPayload(plan *domain.PlanRecord, details LeadDetails) (Payload, error) {
	if plan == nil {
		return Payload{}, fmt.Errorf("%w: no plan", ErrInvalidLead)
	}
	name := strings.TrimSpace(details.Name)
	if name == "" {
		return Payload{}, fmt.Errorf("%w: name is required", ErrInvalidLead)
	}
	email := strings.TrimSpace(details.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return Payload{}, fmt.Errorf("%w: email %q: %v", ErrInvalidLead, email, err)
	}

	p := Payload{
		Name:             name,
		Email:            email,
		BusinessProposal: plan.Metadata.BusinessProposal,
		Consent:          details.Consent,
	}
	if plan.Metadata.PlanID != "" {
		var submittedAt time.Time
		if plan.UserInfo != nil {
			submittedAt = plan.UserInfo.SubmittedAt
		}
		p.IdempotencyKey = SignupKey(plan.Metadata.PlanID, submittedAt)
	}
	if phone := strings.TrimSpace(details.Phone); phone != "" {
		p.PhoneNumber = &phone
	}

	if cfg := plan.SystemConfiguration; cfg != nil {
		p.PersonaliseAnswers = PersonaliseAnswers{
			PropertyType:     cfg.PropertyType,
			IncludeBattery:   cfg.IncludeBattery,
			IncludeEVCharger: cfg.IncludeEVCharger,
			IncludeHeatPump:  cfg.IncludeHeatPump,
			BackupCapability: cfg.BackupCapability,
		}
		p.RoofArea.PanelCount = cfg.PanelCount
	}
	if specs := plan.SystemSpecs; specs != nil {
		p.PersonaliseAnswers.AnnualBill = specs.AnnualBill
		p.RoofArea.SystemSizeKWp = specs.SystemSizeKWp
		p.RoofArea.AnnualGeneration = specs.AnnualGeneration
	}
	if loc := plan.Location; loc != nil {
		p.SelectedLocation = SelectedLocation{
			Address: loc.Address,
			County:  loc.County,
			Tier:    loc.TierName,
			Lat:     loc.Latitude,
			Lng:     loc.Longitude,
		}
	}
	if s := plan.Savings; s != nil {
		p.EnergyIndependence = EnergyIndependence{
			BillOffsetPercent:       s.BillOffsetPercent,
			GridIndependencePercent: s.GridIndependencePercent,
			AnnualSavings:           s.TotalAnnualSavings,
			LifetimeSavings:         s.LifetimeSavings,
		}
		p.FinanceInfo.PaybackYears = s.PaybackYears
	}
	if c := plan.Costs; c != nil {
		p.FinanceInfo.TotalSystemCost = c.TotalSystemCost
		p.FinanceInfo.TotalGrants = c.TotalGrants
		p.FinanceInfo.FinalPrice = c.FinalPrice
		p.FinanceInfo.MonthlyFinancing = c.MonthlyFinancing
	}
	return p, nil
}

// SignupKey derives a ULID from a plan id and its submission time. The same
// signup always maps to the same key, so a redelivery can be dropped.
func SignupKey(planID string, submittedAt time.Time) string {
	var ms uint64
	if !submittedAt.IsZero() {
		ms = ulid.Timestamp(submittedAt)
	}
	sum := sha256.Sum256([]byte(planID + "|" + submittedAt.UTC().Format(time.RFC3339Nano)))
	id, err := ulid.New(ms, bytes.NewReader(sum[:]))
	if err != nil {
		return ulid.Make().String()
	}
	return id.String()
}
