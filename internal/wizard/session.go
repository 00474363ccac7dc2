// Package wizard drives one visitor's plan through the proposal steps,
// persisting the plan after every step.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rgehrsitz/solarplan/internal/domain"
	"github.com/rgehrsitz/solarplan/internal/economics"
	"github.com/rgehrsitz/solarplan/internal/lead"
	"github.com/rgehrsitz/solarplan/internal/metrics"
	"github.com/rgehrsitz/solarplan/internal/planstore"
	"github.com/rgehrsitz/solarplan/internal/sizing"
	"github.com/rgehrsitz/solarplan/internal/tier"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	// ErrSaveFailed means a step computed a plan but could not persist it
	ErrSaveFailed = errors.New("failed to save plan")
	// ErrInvalidInput means a step rejected its arguments
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoPlan means the step needs a plan that has not been started
	ErrNoPlan = errors.New("no plan in progress")
	// ErrSubmitFailed means the lead could not be delivered
	ErrSubmitFailed = errors.New("submit lead failed")
)

// DefaultPanelCount seeds a new plan before the property type is known
const DefaultPanelCount = 12

// SystemChoice is the user's equipment selection. Nil fields are left as they are.
type SystemChoice struct {
	PanelCount       *int    `json:"panelCount,omitempty" yaml:"panel_count,omitempty"`
	SolarPanelID     *string `json:"solarPanelId,omitempty" yaml:"solar_panel_id,omitempty"`
	InverterID       *string `json:"inverterId,omitempty" yaml:"inverter_id,omitempty"`
	BatteryID        *string `json:"batteryId,omitempty" yaml:"battery_id,omitempty"`
	EVChargerID      *string `json:"evChargerId,omitempty" yaml:"ev_charger_id,omitempty"`
	HeatPumpID       *string `json:"heatPumpId,omitempty" yaml:"heat_pump_id,omitempty"`
	IncludeBattery   *bool   `json:"includeBattery,omitempty" yaml:"include_battery,omitempty"`
	IncludeEVCharger *bool   `json:"includeEvCharger,omitempty" yaml:"include_ev_charger,omitempty"`
	IncludeHeatPump  *bool   `json:"includeHeatPump,omitempty" yaml:"include_heat_pump,omitempty"`
	BackupCapability *bool   `json:"backupCapability,omitempty" yaml:"backup_capability,omitempty"`
}

// Session runs the wizard steps for one visitor against one tenant
type Session struct {
	store      *planstore.Store
	branding   *domain.TenantBranding
	classifier *tier.Classifier
	calc       *economics.Calculator
	submitter  lead.Submitter

	propertyBaseValue decimal.Decimal
	now               func() time.Time
	newID             func() string
}

// Option configures a Session
type Option func(*Session)

// WithClassifier replaces the default tier classifier
func WithClassifier(c *tier.Classifier) Option {
	return func(s *Session) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithCalculator replaces the default calculator
func WithCalculator(c *economics.Calculator) Option {
	return func(s *Session) {
		if c != nil {
			s.calc = c
		}
	}
}

// WithSubmitter sets where leads are sent
func WithSubmitter(sub lead.Submitter) Option {
	return func(s *Session) {
		if sub != nil {
			s.submitter = sub
		}
	}
}

// WithPropertyBaseValue sets the property value used for the uplift estimate
func WithPropertyBaseValue(v decimal.Decimal) Option {
	return func(s *Session) { s.propertyBaseValue = v }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator replaces the plan ID generator
func WithIDGenerator(fn func() string) Option {
	return func(s *Session) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewSession creates a session for branding over store
func NewSession(store *planstore.Store, branding *domain.TenantBranding, opts ...Option) *Session {
	s := &Session{
		store:      store,
		branding:   branding,
		classifier: tier.NewClassifier(nil),
		calc:       economics.NewCalculator(),
		submitter:  lead.LogSubmitter{},
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Branding returns the tenant this session prices for
func (s *Session) Branding() *domain.TenantBranding {
	return s.branding
}

// Store returns the session's plan store
func (s *Session) Store() *planstore.Store {
	return s.store
}

// Current returns the persisted plan, or nil
func (s *Session) Current(ctx context.Context) *domain.PlanRecord {
	return s.store.Load(ctx)
}

// Start returns the stored plan, creating and saving a new one if there is
// none or the stored one cannot be used
func (s *Session) Start(ctx context.Context) (*domain.PlanRecord, error) {
	rec, created, err := s.loadOrNew(ctx)
	if err != nil {
		return nil, err
	}
	if !created {
		return rec, nil
	}
	if err := s.recompute(rec); err != nil {
		return nil, err
	}
	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// AddressInput is the answer to the address step
type AddressInput struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// Update is a set of answers applied as one step. Nil fields are left as
// they are.
type Update struct {
	Address      *AddressInput        `json:"address,omitempty"`
	PropertyType *domain.PropertyType `json:"propertyType,omitempty"`
	AnnualBill   *decimal.Decimal     `json:"annualBill,omitempty"`
	System       *SystemChoice        `json:"system,omitempty"`
}

// Apply checks every answer in u, applies them in wizard order, then
// clamps, recomputes and saves once. If any answer is rejected nothing is
// saved. An empty update recomputes the stored plan.
func (s *Session) Apply(ctx context.Context, u Update) (*domain.PlanRecord, error) {
	var changes []func(*domain.PlanRecord) error
	if u.Address != nil {
		fn, err := s.addressChange(*u.Address)
		if err != nil {
			return nil, err
		}
		changes = append(changes, fn)
	}
	if u.PropertyType != nil {
		pt := *u.PropertyType
		changes = append(changes, func(rec *domain.PlanRecord) error {
			rec.SystemConfiguration.PropertyType = sizing.ParsePropertyType(string(pt))
			return nil
		})
	}
	if u.AnnualBill != nil {
		fn, err := billChange(*u.AnnualBill)
		if err != nil {
			return nil, err
		}
		changes = append(changes, fn)
	}
	if u.System != nil {
		fn, err := s.systemChange(*u.System)
		if err != nil {
			return nil, err
		}
		changes = append(changes, fn)
	}

	return s.step(ctx, func(rec *domain.PlanRecord) error {
		for _, change := range changes {
			if err := change(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetAddress records the address and prices the plan for its regional tier.
// Unmatched addresses get the default tier.
func (s *Session) SetAddress(ctx context.Context, address string, lat, lng float64) (*domain.PlanRecord, error) {
	return s.Apply(ctx, Update{Address: &AddressInput{Address: address, Lat: lat, Lng: lng}})
}

// DeclarePropertyType sets the dwelling type and clamps the array to its limit
func (s *Session) DeclarePropertyType(ctx context.Context, pt domain.PropertyType) (*domain.PlanRecord, error) {
	return s.Apply(ctx, Update{PropertyType: &pt})
}

// SetAnnualBill records the household's annual electricity bill
func (s *Session) SetAnnualBill(ctx context.Context, bill decimal.Decimal) (*domain.PlanRecord, error) {
	return s.Apply(ctx, Update{AnnualBill: &bill})
}

// ConfigureSystem applies an equipment selection
func (s *Session) ConfigureSystem(ctx context.Context, choice SystemChoice) (*domain.PlanRecord, error) {
	return s.Apply(ctx, Update{System: &choice})
}

// Recompute re-derives every computed section from the stored inputs
func (s *Session) Recompute(ctx context.Context) (*domain.PlanRecord, error) {
	return s.Apply(ctx, Update{})
}

func (s *Session) addressChange(in AddressInput) (func(*domain.PlanRecord) error, error) {
	address := strings.TrimSpace(in.Address)
	if address == "" {
		return nil, fmt.Errorf("%w: address is required", ErrInvalidInput)
	}
	return func(rec *domain.PlanRecord) error {
		entry, county, defaulted := s.classifier.ClassifyOrDefault(address)
		loc := &domain.Location{Address: address, County: county, TierDefaulted: defaulted, Latitude: in.Lat, Longitude: in.Lng}
		if entry != nil {
			loc.TierName = entry.Name
		}
		label := loc.TierName
		if defaulted {
			label = "default"
			log.Debug().Str("address", address).Str("tier", loc.TierName).Msg("Address matched no county, using default tier")
		}
		metrics.TierClassifications.WithLabelValues(label).Inc()
		rec.Location = loc
		return nil
	}, nil
}

func billChange(bill decimal.Decimal) (func(*domain.PlanRecord) error, error) {
	if bill.IsNegative() {
		return nil, fmt.Errorf("%w: annual bill cannot be negative", ErrInvalidInput)
	}
	return func(rec *domain.PlanRecord) error {
		if rec.SystemSpecs == nil {
			rec.SystemSpecs = &domain.SystemSpecs{}
		}
		rec.SystemSpecs.AnnualBill = bill
		return nil
	}, nil
}

func (s *Session) systemChange(choice SystemChoice) (func(*domain.PlanRecord) error, error) {
	if choice.PanelCount != nil && *choice.PanelCount < 1 {
		return nil, fmt.Errorf("%w: panel count must be at least 1", ErrInvalidInput)
	}
	return func(rec *domain.PlanRecord) error {
		cfg := rec.SystemConfiguration
		setInt(&cfg.PanelCount, choice.PanelCount)
		setString(&cfg.SolarPanelID, choice.SolarPanelID)
		setString(&cfg.InverterID, choice.InverterID)
		setString(&cfg.BatteryID, choice.BatteryID)
		setString(&cfg.EVChargerID, choice.EVChargerID)
		setString(&cfg.HeatPumpID, choice.HeatPumpID)
		setBool(&cfg.IncludeBattery, choice.IncludeBattery)
		setBool(&cfg.IncludeEVCharger, choice.IncludeEVCharger)
		setBool(&cfg.IncludeHeatPump, choice.IncludeHeatPump)
		setBool(&cfg.BackupCapability, choice.BackupCapability)
		if cfg.BackupCapability && !cfg.IncludeBattery {
			return fmt.Errorf("%w: backup capability requires a battery", ErrInvalidInput)
		}
		return s.checkCatalog(cfg)
	}, nil
}

// Submit stores the contact details on the plan and sends the lead once
func (s *Session) Submit(ctx context.Context, details lead.LeadDetails) error {
	rec := s.store.Load(ctx)
	if rec == nil {
		return ErrNoPlan
	}
	// Validate before touching the store.
	if _, err := lead.BuildPayload(rec, details); err != nil {
		return err
	}

	info := domain.UserInfo{FullName: details.Name, Email: details.Email, AgreeToTerms: details.Consent}
	if !s.store.PatchUserInfo(ctx, info) {
		return fmt.Errorf("%w: %w", ErrSaveFailed, s.store.LastError())
	}

	rec = s.store.Load(ctx)
	if rec == nil {
		return fmt.Errorf("%w: plan disappeared after update", ErrSaveFailed)
	}
	payload, err := lead.BuildPayload(rec, details)
	if err != nil {
		return err
	}
	if err := s.submitter.Submit(ctx, payload); err != nil {
		return fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}
	return nil
}

// loadOrNew returns the stored plan, or a new plan when there is none or
// the stored one cannot be used. Only a failing backend is an error.
func (s *Session) loadOrNew(ctx context.Context) (*domain.PlanRecord, bool, error) {
	if rec := s.store.Load(ctx); rec != nil {
		return rec, false, nil
	}
	if err := s.store.LastError(); err != nil {
		if !planstore.Replaceable(err) {
			return nil, false, fmt.Errorf("load plan: %w", err)
		}
		log.Warn().Err(err).Msg("Replacing unusable stored plan")
	}
	return s.newPlan(), true, nil
}

// step loads (or creates) the plan, applies fn, clamps, recomputes and saves
func (s *Session) step(ctx context.Context, fn func(*domain.PlanRecord) error) (*domain.PlanRecord, error) {
	rec, _, err := s.loadOrNew(ctx)
	if err != nil {
		return nil, err
	}
	if rec.SystemConfiguration == nil {
		rec.SystemConfiguration = &domain.SystemConfiguration{PanelCount: DefaultPanelCount, PropertyType: domain.PropertyUnknown}
	}

	if err := fn(rec); err != nil {
		return nil, err
	}
	if err := s.recompute(rec); err != nil {
		return nil, err
	}
	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Session) save(ctx context.Context, rec *domain.PlanRecord) error {
	if !s.store.Save(ctx, rec) {
		return fmt.Errorf("%w: %w", ErrSaveFailed, s.store.LastError())
	}
	return nil
}

func (s *Session) newPlan() *domain.PlanRecord {
	return &domain.PlanRecord{
		SystemConfiguration: &domain.SystemConfiguration{
			PanelCount:   DefaultPanelCount,
			PropertyType: domain.PropertyUnknown,
		},
		Metadata: domain.Metadata{
			PlanID:        s.newID(),
			PlanCreatedAt: s.now().UTC(),
			PlanVersion:   domain.CurrentPlanVersion,
			TenantSlug:    s.branding.Slug,
		},
	}
}

func (s *Session) checkCatalog(cfg *domain.SystemConfiguration) error {
	eq := s.branding.Equipment
	checks := []struct {
		class string
		id    string
		items []domain.EquipmentItem
	}{
		{"solar panel", cfg.SolarPanelID, eq.SolarPanels},
		{"inverter", cfg.InverterID, eq.Inverters},
		{"battery", cfg.BatteryID, eq.Batteries},
		{"ev charger", cfg.EVChargerID, eq.EVChargers},
		{"heat pump", cfg.HeatPumpID, eq.HeatPumps},
	}
	for _, c := range checks {
		if c.id == "" {
			continue
		}
		if _, ok := domain.FindItem(c.items, c.id); !ok {
			return fmt.Errorf("%w: unknown %s %q", ErrInvalidInput, c.class, c.id)
		}
	}
	return nil
}

// panelWatts is the wattage the array is sized with: the selected panel's
// own rating, or the tenant default
func (s *Session) panelWatts(cfg *domain.SystemConfiguration) int {
	if p, ok := domain.FindItem(s.branding.Equipment.SolarPanels, cfg.SolarPanelID); ok && p.Wattage > 0 {
		return p.Wattage
	}
	return s.branding.Pricing.PanelWatts()
}

func (s *Session) tierFor(rec *domain.PlanRecord) *domain.TierEntry {
	table := s.classifier.Table()
	if rec.Location != nil && rec.Location.TierName != "" {
		if e, ok := table.ByName(rec.Location.TierName); ok {
			return e
		}
	}
	e, _, _ := s.classifier.ClassifyOrDefault("")
	return e
}

func (s *Session) recompute(rec *domain.PlanRecord) error {
	cfg := rec.SystemConfiguration
	watts := s.panelWatts(cfg)
	clamped := sizing.ClampSystem(sizing.ProposalFor(cfg.PanelCount, watts), cfg.PropertyType, watts)
	if clamped.PanelCount != cfg.PanelCount {
		log.Debug().
			Int("requested", cfg.PanelCount).
			Int("allowed", clamped.PanelCount).
			Str("property_type", string(cfg.PropertyType)).
			Msg("Clamped panel count to property limit")
		cfg.PanelCount = clamped.PanelCount
	}

	bill := decimal.Zero
	if rec.SystemSpecs != nil {
		bill = rec.SystemSpecs.AnnualBill
	}

	res, err := s.calc.Compute(economics.Input{
		Config:            *cfg,
		Catalog:           s.branding.Equipment,
		Pricing:           s.branding.Pricing,
		Energy:            s.branding.Energy,
		Tier:              s.tierFor(rec),
		AnnualBill:        bill,
		PropertyBaseValue: s.propertyBaseValue,
	})
	if err != nil {
		return fmt.Errorf("compute plan: %w", err)
	}

	rec.Equipment = res.Equipment
	rec.SystemSpecs = res.Specs
	rec.Costs = res.Costs
	rec.Savings = res.Savings
	rec.PropertyImpact = res.PropertyImpact
	rec.Metadata.PlanVersion = domain.CurrentPlanVersion
	rec.Metadata.TenantSlug = s.branding.Slug
	rec.Metadata.BusinessProposal = BusinessProposal(s.branding, rec)
	return nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
