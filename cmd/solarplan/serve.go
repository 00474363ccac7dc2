package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rgehrsitz/solarplan/internal/api"
	"github.com/rgehrsitz/solarplan/internal/config"
)

func (c *cli) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the wizard HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.cfg.Server.ListenAddr
			}
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return api.Run(cmd.Context(), addr, a.Handler(version))
		},
	}
	cmd.Flags().StringVar(&addr, "listen", "", "Listen address (default: server.listen_addr)")
	return cmd
}

func (c *cli) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loader.Load(args[0])
			if err != nil {
				return err
			}
			if cfg.Tenants.Source == config.SourceFile {
				if _, err := cfg.Tenants.Directory(nil); err != nil {
					return fmt.Errorf("tenants: %w", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ %s is valid (tenants: %s, store: %s)\n", args[0], cfg.Tenants.Source, cfg.Store.Backend)
			return nil
		},
	}
}
