package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rgehrsitz/solarplan/internal/domain"
	"github.com/rgehrsitz/solarplan/internal/output"
	"github.com/rgehrsitz/solarplan/internal/wizard"
)

// QuoteRequest is the input file of the quote command: the wizard's answers
// in one document
type QuoteRequest struct {
	Host         string              `yaml:"host,omitempty"`
	Address      string              `yaml:"address"`
	PropertyType domain.PropertyType `yaml:"property_type,omitempty"`
	AnnualBill   decimal.Decimal     `yaml:"annual_bill"`
	System       wizard.SystemChoice `yaml:"system"`
}

// LoadQuoteRequest reads a quote request YAML file
func LoadQuoteRequest(path string) (*QuoteRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	var req QuoteRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if req.Address == "" {
		return nil, fmt.Errorf("%s: address is required", path)
	}
	return &req, nil
}

func (c *cli) quoteCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "quote <input.yaml>",
		Short: "Price a system from a quote request file",
		Long: "Runs every wizard step from a YAML quote request and prints the proposal.\n" +
			"The saved plan is not touched.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := LoadQuoteRequest(args[0])
			if err != nil {
				return err
			}
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			host := c.host
			if req.Host != "" {
				host = req.Host
			}
			sess, _ := a.ScratchSession(cmd.Context(), host)
			plan, err := runQuote(cmd.Context(), sess, req)
			if err != nil {
				return err
			}
			return output.WriteFormatted(cmd.OutOrStdout(), format, &output.Report{Tenant: sess.Branding(), Plan: plan})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "console",
		"Output format ("+strings.Join(output.AvailableFormats(), ", ")+")")
	return cmd
}

// runQuote applies the request to sess in wizard order
func runQuote(ctx context.Context, sess *wizard.Session, req *QuoteRequest) (*domain.PlanRecord, error) {
	if _, err := sess.SetAddress(ctx, req.Address, 0, 0); err != nil {
		return nil, fmt.Errorf("address: %w", err)
	}
	if req.PropertyType != "" {
		if _, err := sess.DeclarePropertyType(ctx, req.PropertyType); err != nil {
			return nil, fmt.Errorf("property type: %w", err)
		}
	}
	if !req.AnnualBill.IsZero() {
		if _, err := sess.SetAnnualBill(ctx, req.AnnualBill); err != nil {
			return nil, fmt.Errorf("annual bill: %w", err)
		}
	}
	plan, err := sess.ConfigureSystem(ctx, req.System)
	if err != nil {
		return nil, fmt.Errorf("system: %w", err)
	}
	return plan, nil
}
