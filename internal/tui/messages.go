package tui

import (
	"github.com/rgehrsitz/solarplan/internal/domain"
)

// Step is one screen of the wizard
type Step int

const (
	StepAddress Step = iota
	StepPropertyType
	StepBill
	StepOptions
	StepResults
	StepContact
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepAddress:
		return "Address"
	case StepPropertyType:
		return "Property type"
	case StepBill:
		return "Electricity bill"
	case StepOptions:
		return "System options"
	case StepResults:
		return "Your proposal"
	case StepContact:
		return "Contact details"
	case StepDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// Message types for the Bubble Tea update cycle

// PlanLoadedMsg carries the plan resumed or started on launch
type PlanLoadedMsg struct {
	Plan *domain.PlanRecord
}

// PlanUpdatedMsg carries the plan after a step succeeded and where to go next
type PlanUpdatedMsg struct {
	Plan *domain.PlanRecord
	Next Step
}

// LeadSubmittedMsg signals the lead was delivered
type LeadSubmittedMsg struct{}

// ErrorMsg displays an error to the user
type ErrorMsg struct {
	Err error
}
