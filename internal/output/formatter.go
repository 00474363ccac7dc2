// Package output renders quotes for the CLI in the supported formats.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rgehrsitz/solarplan/internal/domain"
)

// Report is what a formatter renders: a computed plan and the tenant that
// priced it
type Report struct {
	Tenant *domain.TenantBranding `json:"tenant" yaml:"tenant"`
	Plan   *domain.PlanRecord     `json:"plan" yaml:"plan"`
}

// Currency returns the tenant's currency or the default
func (r *Report) Currency() string {
	if r.Tenant != nil && r.Tenant.Pricing.Currency != "" {
		return r.Tenant.Pricing.Currency
	}
	return "EUR"
}

// Formatter renders a report
type Formatter interface {
	Name() string
	Format(r *Report) ([]byte, error)
}

// FormatterFunc adapts a function to Formatter
type FormatterFunc struct {
	ID string
	F  func(r *Report) ([]byte, error)
}

func (f FormatterFunc) Name() string { return f.ID }

func (f FormatterFunc) Format(r *Report) ([]byte, error) { return f.F(r) }

var formatters = map[string]Formatter{}

var aliases = map[string]string{
	"text":  "console",
	"table": "console",
	"yml":   "yaml",
}

func init() {
	Register(ConsoleFormatter{})
	Register(JSONFormatter{})
	Register(YAMLFormatter{})
	Register(CSVFormatter{})
}

// Register adds f under its name, replacing any formatter with that name
func Register(f Formatter) {
	formatters[f.Name()] = f
}

// GetFormatterByName returns the formatter for name or an alias of it, or nil
func GetFormatterByName(name string) Formatter {
	name = strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	return formatters[name]
}

// AvailableFormats lists the registered formatter names
func AvailableFormats() []string {
	names := make([]string, 0, len(formatters))
	for name := range formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AvailableFormatAliases lists the accepted alternative names
func AvailableFormatAliases() []string {
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WriteFormatted renders r with the named formatter into w
func WriteFormatted(w io.Writer, format string, r *Report) error {
	f := GetFormatterByName(format)
	if f == nil {
		return fmt.Errorf("unsupported format: %s (available: %s)", format, strings.Join(AvailableFormats(), ", "))
	}
	if r == nil || r.Plan == nil {
		return fmt.Errorf("report has no plan")
	}
	data, err := f.Format(r)
	if err != nil {
		return fmt.Errorf("format %s: %w", f.Name(), err)
	}
	_, err = w.Write(data)
	return err
}
