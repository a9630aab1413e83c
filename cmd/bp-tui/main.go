// Command bp-tui is the interactive battle pass screen.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/cardastika/battlepass/internal/config"
	"github.com/cardastika/battlepass/internal/profile"
	"github.com/cardastika/battlepass/internal/tui/app"
	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	envPath := flag.String("env", ".env", "Path to dotenv file")
	dataDir := flag.String("data", "", "Override profile directory")
	logPath := flag.String("log", "", "Write logs to this file (default: discard)")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.ApplyEnv(config.Environ(*envPath))
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	// The alt screen owns the terminal; stray log lines would corrupt it.
	if *logPath != "" {
		f, err := tea.LogToFile(*logPath, "bp-tui")
		if err != nil {
			log.Fatalf("Failed to open log: %v", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	p, err := profile.Open(cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	poller, err := p.NewPoller()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	m := app.New(p.Ledger, app.Options{
		Poller:    poller,
		Formatter: p.Format,
		Interval:  cfg.SyncInterval,
		Account:   p.ActiveName(),
	})
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
