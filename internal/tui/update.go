package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

var (
	keyQuit   = key.NewBinding(key.WithKeys("ctrl+c"))
	keyBack   = key.NewBinding(key.WithKeys("esc"))
	keyEnter  = key.NewBinding(key.WithKeys("enter"))
	keyUp     = key.NewBinding(key.WithKeys("up", "k"))
	keyDown   = key.NewBinding(key.WithKeys("down", "j"))
	keyLess   = key.NewBinding(key.WithKeys("left", "h", "-"))
	keyMore   = key.NewBinding(key.WithKeys("right", "l", "+"))
	keyToggle = key.NewBinding(key.WithKeys(" ", "x"))
	keyNext   = key.NewBinding(key.WithKeys("tab"))
	keyPrev   = key.NewBinding(key.WithKeys("shift+tab"))
	keyQuitQ  = key.NewBinding(key.WithKeys("q"))
	keyRedo   = key.NewBinding(key.WithKeys("n"))
	keyApply  = key.NewBinding(key.WithKeys("a"))
)

// Update handles all messages and updates the model state
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case PlanLoadedMsg:
		m.busy = false
		m.plan = msg.Plan
		m.resetForm()
		m.syncFromPlan(msg.Plan)
		m.step = resumeStep(msg.Plan)
		return m, m.focusStep()

	case PlanUpdatedMsg:
		m.busy = false
		m.err = nil
		m.plan = msg.Plan
		m.syncFromPlan(msg.Plan)
		m.step = msg.Next
		return m, m.focusStep()

	case LeadSubmittedMsg:
		m.busy = false
		m.err = nil
		m.plan = m.sess.Current(m.ctx)
		m.step = StepDone
		return m, m.focusStep()

	case ErrorMsg:
		m.busy = false
		m.err = msg.Err
		return m, nil
	}

	return m.updateInput(msg)
}

// handleKeyPress processes keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keyQuit) {
		return m, tea.Quit
	}
	if m.busy {
		return m, nil
	}
	// Any key dismisses an error; the key itself still applies
	m.err = nil

	if key.Matches(msg, keyBack) {
		return m.back()
	}

	switch m.step {
	case StepAddress:
		if key.Matches(msg, keyEnter) {
			return m.run(m.submitAddress())
		}
		return m.updateInput(msg)

	case StepPropertyType:
		switch {
		case key.Matches(msg, keyUp):
			m.propertyCursor = (m.propertyCursor + len(propertyChoices) - 1) % len(propertyChoices)
		case key.Matches(msg, keyDown):
			m.propertyCursor = (m.propertyCursor + 1) % len(propertyChoices)
		case key.Matches(msg, keyEnter):
			return m.run(m.submitPropertyType())
		case key.Matches(msg, keyQuitQ):
			return m, tea.Quit
		}
		return m, nil

	case StepBill:
		if key.Matches(msg, keyEnter) {
			return m.run(m.submitBill())
		}
		return m.updateInput(msg)

	case StepOptions:
		return m.handleOptionsKey(msg)

	case StepResults:
		switch {
		case key.Matches(msg, keyEnter), key.Matches(msg, keyApply):
			m.step = StepContact
			m.contactField = fieldName
			return m, m.focusStep()
		case key.Matches(msg, keyRedo):
			return m.run(restartCmd(m.ctx, m.sess))
		case key.Matches(msg, keyQuitQ):
			return m, tea.Quit
		}
		return m, nil

	case StepContact:
		return m.handleContactKey(msg)

	case StepDone:
		if key.Matches(msg, keyEnter) || key.Matches(msg, keyQuitQ) {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) handleOptionsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keyUp):
		m.optionCursor = (m.optionCursor + optCount - 1) % optCount
	case key.Matches(msg, keyDown):
		m.optionCursor = (m.optionCursor + 1) % optCount
	case key.Matches(msg, keyLess):
		if m.optionCursor == optPanels && m.panels > 1 {
			m.panels--
		}
	case key.Matches(msg, keyMore):
		if m.optionCursor == optPanels {
			m.panels++
		}
	case key.Matches(msg, keyToggle):
		switch m.optionCursor {
		case optBattery:
			m.battery = !m.battery
			if !m.battery {
				m.backup = false
			}
		case optEVCharger:
			m.evCharger = !m.evCharger
		case optHeatPump:
			m.heatPump = !m.heatPump
		case optBackup:
			m.backup = !m.backup
		}
	case key.Matches(msg, keyEnter):
		return m.run(m.submitOptions())
	case key.Matches(msg, keyQuitQ):
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleContactKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keyNext):
		m.contactField = (m.contactField + 1) % fieldCount
		return m, m.focusStep()
	case key.Matches(msg, keyPrev):
		m.contactField = (m.contactField + fieldCount - 1) % fieldCount
		return m, m.focusStep()
	case key.Matches(msg, keyEnter):
		return m.run(m.submitContact())
	case m.contactField == fieldConsent && key.Matches(msg, keyToggle):
		m.consent = !m.consent
		return m, nil
	}
	return m.updateInput(msg)
}

// back returns to the previous step without discarding answers
func (m Model) back() (tea.Model, tea.Cmd) {
	switch m.step {
	case StepPropertyType:
		m.step = StepAddress
	case StepBill:
		m.step = StepPropertyType
	case StepOptions:
		m.step = StepBill
	case StepResults:
		m.step = StepOptions
	case StepContact:
		m.step = StepResults
	default:
		return m, nil
	}
	return m, m.focusStep()
}

// run marks the wizard busy until cmd reports back
func (m Model) run(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.busy = true
	return m, cmd
}

// focusStep focuses the text input that belongs to the current step
func (m *Model) focusStep() tea.Cmd {
	m.address.Blur()
	m.bill.Blur()
	m.name.Blur()
	m.email.Blur()

	switch {
	case m.step == StepAddress:
		return m.address.Focus()
	case m.step == StepBill:
		return m.bill.Focus()
	case m.step == StepContact && m.contactField == fieldName:
		return m.name.Focus()
	case m.step == StepContact && m.contactField == fieldEmail:
		return m.email.Focus()
	}
	return nil
}

// updateInput forwards a message to the focused text input
func (m Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.step == StepAddress:
		m.address, cmd = m.address.Update(msg)
	case m.step == StepBill:
		m.bill, cmd = m.bill.Update(msg)
	case m.step == StepContact && m.contactField == fieldName:
		m.name, cmd = m.name.Update(msg)
	case m.step == StepContact && m.contactField == fieldEmail:
		m.email, cmd = m.email.Update(msg)
	}
	return m, cmd
}
