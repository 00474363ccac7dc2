package tui

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rgehrsitz/solarplan/internal/domain"
	"github.com/rgehrsitz/solarplan/internal/economics"
	"github.com/rgehrsitz/solarplan/internal/lead"
	"github.com/rgehrsitz/solarplan/internal/output"
	"github.com/rgehrsitz/solarplan/internal/wizard"
)

// View renders the current state of the wizard
func (m Model) View() string {
	var content string
	switch m.step {
	case StepAddress:
		content = m.renderAddress()
	case StepPropertyType:
		content = m.renderPropertyType()
	case StepBill:
		content = m.renderBill()
	case StepOptions:
		content = m.renderOptions()
	case StepResults:
		content = m.renderResults()
	case StepContact:
		content = m.renderContact()
	case StepDone:
		content = m.renderDone()
	default:
		content = "Unknown step"
	}

	if m.err != nil {
		content += "\n\n" + m.styles.Error.Render("Error: "+friendlyError(m.err))
	}
	return m.renderApp(m.styles.Border.Render(content))
}

// renderApp wraps content with title bar and status bar
func (m Model) renderApp(content string) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderTitleBar(),
		content,
		m.renderStatusBar(),
	)
}

func (m Model) renderTitleBar() string {
	title := m.styles.Title.Render(m.sess.Branding().Name + " solar quote")
	progress := fmt.Sprintf("Step %d of %d: %s", min(int(m.step), int(StepContact))+1, int(StepContact)+1, m.step)
	if m.busy {
		progress += " (working...)"
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, m.styles.Subtitle.Render(progress))
}

func (m Model) renderStatusBar() string {
	var shortcuts []string
	switch m.step {
	case StepPropertyType:
		shortcuts = []string{formatShortcut(m.styles, "↑/↓", "choose"), formatShortcut(m.styles, "enter", "next")}
	case StepOptions:
		shortcuts = []string{
			formatShortcut(m.styles, "↑/↓", "move"),
			formatShortcut(m.styles, "←/→", "panels"),
			formatShortcut(m.styles, "space", "toggle"),
			formatShortcut(m.styles, "enter", "price it"),
		}
	case StepResults:
		shortcuts = []string{formatShortcut(m.styles, "enter", "request a callback"), formatShortcut(m.styles, "n", "start over")}
	case StepContact:
		shortcuts = []string{formatShortcut(m.styles, "tab", "next field"), formatShortcut(m.styles, "enter", "send")}
	case StepDone:
		shortcuts = []string{formatShortcut(m.styles, "enter", "exit")}
	default:
		shortcuts = []string{formatShortcut(m.styles, "enter", "next")}
	}
	if m.step != StepAddress && m.step != StepDone {
		shortcuts = append(shortcuts, formatShortcut(m.styles, "esc", "back"))
	}
	shortcuts = append(shortcuts, formatShortcut(m.styles, "ctrl+c", "quit"))
	return m.styles.StatusBar.Width(m.width).Render(strings.Join(shortcuts, " • "))
}

// formatShortcut formats a keyboard shortcut with key and description
func formatShortcut(s Styles, key, desc string) string {
	return s.StatusKey.Render(key) + " " + desc
}

func (m Model) renderAddress() string {
	return "What is the address of the property?\n\n" + m.address.View()
}

func (m Model) renderPropertyType() string {
	var b strings.Builder
	b.WriteString("What type of home is it?\n")
	if loc := m.planLocation(); loc != "" {
		b.WriteString(m.styles.Subtitle.Render(loc) + "\n")
	}
	b.WriteString("\n")
	for i, pt := range propertyChoices {
		line := "  " + propertyLabel(pt)
		style := m.styles.Unselected
		if i == m.propertyCursor {
			line = "> " + propertyLabel(pt)
			style = m.styles.Selected
		}
		b.WriteString(style.Render(line) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderBill() string {
	return fmt.Sprintf("Roughly how much is your annual electricity bill (%s)?\n\n%s",
		economics.CurrencySymbol(m.currency()), m.bill.View())
}

func (m Model) renderOptions() string {
	rows := []string{
		fmt.Sprintf("Solar panels      < %d >", m.panels),
		"Battery storage   " + checkbox(m.battery),
		"EV charger        " + checkbox(m.evCharger),
		"Heat pump         " + checkbox(m.heatPump),
		"Backup power      " + checkbox(m.backup),
	}

	var b strings.Builder
	b.WriteString("Build your system\n\n")
	for i, row := range rows {
		if i == m.optionCursor {
			b.WriteString(m.styles.Selected.Render("> "+row) + "\n")
			continue
		}
		b.WriteString(m.styles.Unselected.Render("  "+row) + "\n")
	}
	if specs := m.planSpecs(); specs != "" {
		b.WriteString("\n" + m.styles.Subtitle.Render(specs))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderResults() string {
	if m.plan == nil || m.plan.Costs == nil {
		return "No quote yet."
	}
	cur := m.currency()
	costs := m.plan.Costs

	var b strings.Builder
	b.WriteString(m.styles.Highlight.Render("Your price: "+economics.FormatMoney(costs.FinalPrice, cur)) + "\n\n")
	if specs := m.plan.SystemSpecs; specs != nil {
		b.WriteString(m.metric("System size", specs.SystemSizeKWp.StringFixed(2)+" kWp"))
	}
	b.WriteString(m.metric("Total before grants", economics.FormatMoney(costs.TotalSystemCost, cur)))
	b.WriteString(m.metric("Grants", economics.FormatMoney(costs.TotalGrants, cur)))
	if costs.MonthlyFinancing.IsPositive() {
		b.WriteString(m.metric("Finance from", economics.FormatMoney(costs.MonthlyFinancing, cur)+"/month"))
	}
	if s := m.plan.Savings; s != nil {
		b.WriteString(m.metric("Annual savings", economics.FormatMoney(s.TotalAnnualSavings, cur)))
		if s.PaybackYears.IsPositive() {
			b.WriteString(m.metric("Payback", s.PaybackYears.StringFixed(1)+" years"))
		}
	}
	if pi := m.plan.PropertyImpact; pi != nil && pi.BERImprovement != "" {
		b.WriteString(m.metric("BER", pi.BERImprovement))
	}
	if p := m.plan.Metadata.BusinessProposal; p != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Width(max(40, m.width-8)).Render(p))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderContact() string {
	consent := "  " + checkbox(m.consent) + " I agree to be contacted about this quote"
	if m.contactField == fieldConsent {
		consent = m.styles.Selected.Render(consent)
	}
	return strings.Join([]string{
		"Where should we send your quote?",
		"",
		m.styles.Label.Render("Name") + m.name.View(),
		m.styles.Label.Render("Email") + m.email.View(),
		consent,
	}, "\n")
}

func (m Model) renderDone() string {
	var buf bytes.Buffer
	buf.WriteString(m.styles.Highlight.Render("Thanks! Your quote is on its way.") + "\n\n")
	if err := output.WriteFormatted(&buf, "console", &output.Report{Tenant: m.sess.Branding(), Plan: m.plan}); err != nil {
		buf.WriteString(m.styles.Error.Render(err.Error()))
	}
	return strings.TrimRight(buf.String(), "\n")
}

func (m Model) metric(label, value string) string {
	return m.styles.Label.Render(label) + m.styles.Value.Render(value) + "\n"
}

func (m Model) currency() string {
	r := output.Report{Tenant: m.sess.Branding()}
	return r.Currency()
}

func (m Model) planLocation() string {
	if m.plan == nil || m.plan.Location == nil {
		return ""
	}
	loc := m.plan.Location
	if loc.County == "" {
		return loc.Address
	}
	return fmt.Sprintf("%s (Co. %s)", loc.Address, loc.County)
}

func (m Model) planSpecs() string {
	if m.plan == nil || m.plan.SystemSpecs == nil || m.plan.SystemConfiguration == nil {
		return ""
	}
	return fmt.Sprintf("Current plan: %d panels, %s kWp",
		m.plan.SystemConfiguration.PanelCount, m.plan.SystemSpecs.SystemSizeKWp.StringFixed(2))
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func propertyLabel(pt domain.PropertyType) string {
	switch pt {
	case domain.PropertyDetached:
		return "Detached"
	case domain.PropertySemiDetached:
		return "Semi-detached"
	case domain.PropertyTerraced:
		return "Terraced"
	default:
		return string(pt)
	}
}

// friendlyError turns wizard failures into a sentence for the visitor
func friendlyError(err error) string {
	switch {
	case errors.Is(err, lead.ErrInvalidLead):
		return "please check your contact details and consent"
	case errors.Is(err, wizard.ErrInvalidInput):
		return "that answer was not accepted, please check it"
	case errors.Is(err, wizard.ErrSaveFailed):
		return "your plan could not be saved"
	case errors.Is(err, wizard.ErrSubmitFailed):
		return "we could not send your details, please try again"
	default:
		return err.Error()
	}
}
