package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rgehrsitz/solarplan/internal/app"
	"github.com/rgehrsitz/solarplan/internal/config"
	"github.com/rgehrsitz/solarplan/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// cli holds the global flags and the configuration they produce
type cli struct {
	configPath string
	host       string
	logLevel   string
	logFormat  string

	loader *config.Loader
	cfg    *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{loader: config.NewLoader()}

	root := &cobra.Command{
		Use:   "solarplan",
		Short: "Solar PV quote wizard",
		Long: "Prices residential solar PV systems for multiple installers.\n" +
			"Each installer is chosen by hostname and brings its own branding, catalog and pricing.",
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Path to solarplan.yaml (defaults apply when empty)")
	root.PersistentFlags().StringVar(&c.host, "host", "", "Hostname used to pick the tenant (default: tenants.default_host)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&c.logFormat, "log-format", "", "Log format override (auto, json, console)")

	root.AddCommand(
		c.tierCmd(),
		c.brandingCmd(),
		c.quoteCmd(),
		c.planCmd(),
		c.serveCmd(),
		c.validateCmd(),
		versionCmd(),
	)
	return root
}

// setup loads the configuration and starts logging before any subcommand
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := c.loader.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	if c.logFormat != "" {
		cfg.Logging.Format = c.logFormat
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	logging.Init(logging.Config{
		Format:    cfg.Logging.Format,
		Level:     cfg.Logging.Level,
		Component: "cli",
		Output:    cmd.ErrOrStderr(),
	})
	c.cfg = cfg
	return nil
}

func (c *cli) open(ctx context.Context) (*app.App, error) {
	return app.New(ctx, c.cfg)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "solarplan %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.Main.Path + " " + bi.GoVersion
	}
	return ""
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
