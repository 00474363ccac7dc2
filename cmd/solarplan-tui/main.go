package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rgehrsitz/solarplan/internal/app"
	"github.com/rgehrsitz/solarplan/internal/config"
	"github.com/rgehrsitz/solarplan/internal/logging"
	"github.com/rgehrsitz/solarplan/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "Path to solarplan.yaml")
	host := flag.String("host", "", "Hostname used to pick the tenant")
	logFile := flag.String("log-file", "", "Write logs to this file (logs are discarded otherwise)")
	flag.Parse()

	if err := run(*configPath, *host, *logFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, host, logFile string) error {
	cfg, err := config.NewLoader().Load(configPath)
	if err != nil {
		return err
	}

	// The wizard owns the terminal, so logs go to a file or nowhere
	var logOut io.Writer = io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logging.Init(logging.Config{Format: "json", Level: cfg.Logging.Level, Component: "tui", Output: logOut})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, _ := a.Session(ctx, host, "")
	model := tui.NewModel(ctx, sess)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
