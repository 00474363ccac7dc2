package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rgehrsitz/solarplan/internal/economics"
	"github.com/rgehrsitz/solarplan/internal/output"
	"github.com/rgehrsitz/solarplan/internal/tier"
)

func (c *cli) tierCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "tier <address>",
		Short: "Show the regional pricing tier for an address",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address := strings.Join(args, " ")
			entry, county, defaulted := tier.NewClassifier(nil).ClassifyOrDefault(address)
			if entry == nil {
				return fmt.Errorf("no tiers configured")
			}
			result := tierResult{
				Address:   address,
				County:    county,
				Tier:      entry.Name,
				Defaulted: defaulted,
				Solar:     rangeText(entry.SolarRange.Min, entry.SolarRange.Max),
				Battery:   rangeText(entry.BatteryRange.Min, entry.BatteryRange.Max),
				EV:        rangeText(entry.EVRange.Min, entry.EVRange.Max),
			}
			return writeValue(cmd.OutOrStdout(), format, result, result.text)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, json, yaml)")
	return cmd
}

type tierResult struct {
	Address   string `json:"address" yaml:"address"`
	County    string `json:"county,omitempty" yaml:"county,omitempty"`
	Tier      string `json:"tier" yaml:"tier"`
	Defaulted bool   `json:"defaulted" yaml:"defaulted"`
	Solar     string `json:"solarRange" yaml:"solar_range"`
	Battery   string `json:"batteryRange" yaml:"battery_range"`
	EV        string `json:"evRange" yaml:"ev_range"`
}

func (r tierResult) text(w io.Writer) error {
	county := r.County
	if county == "" {
		county = "(not recognised)"
	}
	tierName := r.Tier
	if r.Defaulted {
		tierName += " (default)"
	}
	_, err := fmt.Fprintf(w, "Address:        %s\nCounty:         %s\nTier:           %s\nSolar range:    %s\nBattery range:  %s\nEV range:       %s\n",
		r.Address, county, tierName, r.Solar, r.Battery, r.EV)
	return err
}

// Tier ranges are euro estimates
func rangeText(lo, hi decimal.Decimal) string {
	return economics.FormatMoney(lo, "EUR") + " - " + economics.FormatMoney(hi, "EUR")
}

func (c *cli) brandingCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "branding [host]",
		Short: "Resolve a hostname to its tenant branding",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host := c.host
			if len(args) == 1 {
				host = args[0]
			}
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res := a.Resolver.Resolve(cmd.Context(), host)
			if res.Err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v; showing the default tenant\n", res.Err)
			}
			b := res.Branding
			return writeValue(cmd.OutOrStdout(), format, b, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Tenant:    %s (%s)\nHosts:     %s\nPricing:   %s, %s\nPhone:     %s\nEmail:     %s\nWebsite:   %s\n",
					b.Name, b.Slug, strings.Join(b.Hosts, ", "),
					b.Pricing.PricingType, (&output.Report{Tenant: b}).Currency(),
					b.Contact.Phone, b.Contact.Email, b.Contact.Website)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, json, yaml)")
	return cmd
}

// writeValue renders v as json or yaml, or calls text for the text format
func writeValue(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch strings.ToLower(format) {
	case "", "text":
		return text(w)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format: %s (available: text, json, yaml)", format)
	}
}
