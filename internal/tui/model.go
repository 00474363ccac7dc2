// Package tui is the terminal front end of the quote wizard.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/solarplan/internal/domain"
	"github.com/rgehrsitz/solarplan/internal/lead"
	"github.com/rgehrsitz/solarplan/internal/wizard"
)

// propertyChoices are offered in this order on the property type step
var propertyChoices = []domain.PropertyType{
	domain.PropertyDetached,
	domain.PropertySemiDetached,
	domain.PropertyTerraced,
}

// Rows of the options step
const (
	optPanels = iota
	optBattery
	optEVCharger
	optHeatPump
	optBackup
	optCount
)

// Fields of the contact step
const (
	fieldName = iota
	fieldEmail
	fieldConsent
	fieldCount
)

// Model represents the entire wizard state
type Model struct {
	ctx  context.Context
	sess *wizard.Session

	step   Step
	width  int
	height int
	styles Styles

	plan *domain.PlanRecord

	address textinput.Model
	bill    textinput.Model
	name    textinput.Model
	email   textinput.Model

	propertyCursor int
	optionCursor   int
	contactField   int

	panels    int
	battery   bool
	evCharger bool
	heatPump  bool
	backup    bool
	consent   bool

	err  error
	busy bool
}

// NewModel creates a wizard bound to a session. ctx bounds every store and
// network call the wizard makes.
func NewModel(ctx context.Context, sess *wizard.Session) Model {
	m := Model{
		ctx:     ctx,
		sess:    sess,
		step:    StepAddress,
		width:   80,
		height:  24,
		styles:  NewStyles(sess.Branding().Colors),
		address: newInput("14 Oak Grove, Galway", 200),
		bill:    newInput("1800", 10),
		name:    newInput("Full name", 100),
		email:   newInput("you@example.ie", 200),
		panels:  wizard.DefaultPanelCount,
		busy:    true,
	}
	m.address.Focus()
	return m
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = 40
	return ti
}

// Init starts or resumes the stored plan
func (m Model) Init() tea.Cmd {
	return startCmd(m.ctx, m.sess)
}

// Step returns the current wizard step
func (m Model) Step() Step { return m.step }

// Plan returns the last plan the wizard saw
func (m Model) Plan() *domain.PlanRecord { return m.plan }

// Err returns the error being shown, if any
func (m Model) Err() error { return m.err }

func startCmd(ctx context.Context, sess *wizard.Session) tea.Cmd {
	return func() tea.Msg {
		rec, err := sess.Start(ctx)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return PlanLoadedMsg{Plan: rec}
	}
}

// restartCmd discards the stored plan and begins a fresh one
func restartCmd(ctx context.Context, sess *wizard.Session) tea.Cmd {
	return func() tea.Msg {
		if !sess.Store().Clear(ctx) {
			return ErrorMsg{Err: sess.Store().LastError()}
		}
		rec, err := sess.Start(ctx)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return PlanLoadedMsg{Plan: rec}
	}
}

// stepCmd runs one wizard step and reports where to go on success
func stepCmd(next Step, fn func() (*domain.PlanRecord, error)) tea.Cmd {
	return func() tea.Msg {
		rec, err := fn()
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return PlanUpdatedMsg{Plan: rec, Next: next}
	}
}

func (m Model) submitAddress() tea.Cmd {
	addr := strings.TrimSpace(m.address.Value())
	return stepCmd(StepPropertyType, func() (*domain.PlanRecord, error) {
		return m.sess.SetAddress(m.ctx, addr, 0, 0)
	})
}

func (m Model) submitPropertyType() tea.Cmd {
	pt := propertyChoices[m.propertyCursor]
	return stepCmd(StepBill, func() (*domain.PlanRecord, error) {
		return m.sess.DeclarePropertyType(m.ctx, pt)
	})
}

func (m Model) submitBill() tea.Cmd {
	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(m.bill.Value()), "€"))
	bill, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return func() tea.Msg {
			return ErrorMsg{Err: wizard.ErrInvalidInput}
		}
	}
	return stepCmd(StepOptions, func() (*domain.PlanRecord, error) {
		return m.sess.SetAnnualBill(m.ctx, bill)
	})
}

func (m Model) submitOptions() tea.Cmd {
	choice := wizard.SystemChoice{
		PanelCount:       &m.panels,
		IncludeBattery:   &m.battery,
		IncludeEVCharger: &m.evCharger,
		IncludeHeatPump:  &m.heatPump,
		BackupCapability: &m.backup,
	}
	return stepCmd(StepResults, func() (*domain.PlanRecord, error) {
		return m.sess.ConfigureSystem(m.ctx, choice)
	})
}

func (m Model) submitContact() tea.Cmd {
	details := lead.LeadDetails{
		Name:    strings.TrimSpace(m.name.Value()),
		Email:   strings.TrimSpace(m.email.Value()),
		Consent: m.consent,
	}
	return func() tea.Msg {
		if err := m.sess.Submit(m.ctx, details); err != nil {
			return ErrorMsg{Err: err}
		}
		return LeadSubmittedMsg{}
	}
}

func (m *Model) resetForm() {
	for _, ti := range []*textinput.Model{&m.address, &m.bill, &m.name, &m.email} {
		ti.SetValue("")
	}
	m.propertyCursor, m.optionCursor, m.contactField = 0, 0, fieldName
	m.panels = wizard.DefaultPanelCount
	m.battery, m.evCharger, m.heatPump, m.backup, m.consent = false, false, false, false, false
}

// syncFromPlan copies the stored answers into the form so a resumed plan
// shows what the visitor entered last time
func (m *Model) syncFromPlan(rec *domain.PlanRecord) {
	if rec == nil {
		return
	}
	if rec.Location != nil {
		m.address.SetValue(rec.Location.Address)
	}
	if rec.SystemSpecs != nil && rec.SystemSpecs.AnnualBill.IsPositive() {
		m.bill.SetValue(rec.SystemSpecs.AnnualBill.String())
	}
	if cfg := rec.SystemConfiguration; cfg != nil {
		m.panels = cfg.PanelCount
		m.battery = cfg.IncludeBattery
		m.evCharger = cfg.IncludeEVCharger
		m.heatPump = cfg.IncludeHeatPump
		m.backup = cfg.BackupCapability
		for i, pt := range propertyChoices {
			if pt == cfg.PropertyType {
				m.propertyCursor = i
			}
		}
	}
	if rec.UserInfo != nil {
		m.name.SetValue(rec.UserInfo.FullName)
		m.email.SetValue(rec.UserInfo.Email)
		m.consent = rec.UserInfo.AgreeToTerms
	}
}

// resumeStep picks the first step the stored plan has not answered
func resumeStep(rec *domain.PlanRecord) Step {
	switch {
	case rec == nil || rec.Location == nil:
		return StepAddress
	case rec.SystemConfiguration == nil || rec.SystemConfiguration.PropertyType == "" ||
		rec.SystemConfiguration.PropertyType == domain.PropertyUnknown:
		return StepPropertyType
	case rec.SystemSpecs == nil || !rec.SystemSpecs.AnnualBill.IsPositive():
		return StepBill
	default:
		return StepResults
	}
}
