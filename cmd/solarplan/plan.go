package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rgehrsitz/solarplan/internal/lead"
	"github.com/rgehrsitz/solarplan/internal/output"
	"github.com/rgehrsitz/solarplan/internal/planstore"
)

func (c *cli) planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Inspect or act on the saved plan",
	}
	cmd.AddCommand(c.planShowCmd(), c.planClearCmd(), c.planSubmitCmd())
	return cmd
}

func (c *cli) planShowCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the saved plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			sess, _ := a.Session(cmd.Context(), c.host, "")
			plan := sess.Current(cmd.Context())
			if plan == nil {
				if err := sess.Store().LastError(); err != nil && !planstore.Replaceable(err) {
					return fmt.Errorf("load plan: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "No saved plan.")
				return nil
			}
			return output.WriteFormatted(cmd.OutOrStdout(), format, &output.Report{Tenant: sess.Branding(), Plan: plan})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "console",
		"Output format ("+strings.Join(output.AvailableFormats(), ", ")+")")
	return cmd
}

func (c *cli) planClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the saved plan and contact details",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			sess, _ := a.Session(cmd.Context(), c.host, "")
			if !sess.Store().Clear(cmd.Context()) {
				return fmt.Errorf("clear plan: %w", sess.Store().LastError())
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Plan cleared.")
			return nil
		},
	}
}

func (c *cli) planSubmitCmd() *cobra.Command {
	var details lead.LeadDetails
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Send the saved plan as a lead",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			sess, _ := a.Session(cmd.Context(), c.host, "")
			if err := sess.Submit(cmd.Context(), details); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Lead submitted for %s.\n", details.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&details.Name, "name", "", "Full name (required)")
	cmd.Flags().StringVar(&details.Email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&details.Phone, "phone", "", "Phone number")
	cmd.Flags().BoolVar(&details.Consent, "consent", false, "Agree to be contacted")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
