// cmd/hearthside/main.go
//
// This is the entry point for Hearthside.
//
// Flow:
// 1. Resolve the data directory (~/.hearthside or HEARTHSIDE_HOME)
// 2. Create its structure and a default config on first run
// 3. Launch the TUI

package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kindred-labs/hearthside/internal/config"
	"github.com/kindred-labs/hearthside/internal/gateway"
	"github.com/kindred-labs/hearthside/internal/tui"
)

func main() {
	dataDir, err := config.DataDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving data directory: %v\n", err)
		os.Exit(1)
	}
	if err := config.InitDataDir(dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing %s: %v\n", dataDir, err)
		os.Exit(1)
	}

	app, err := tui.NewApp(dataDir)
	if err != nil {
		if errors.Is(err, gateway.ErrMissingAPIKey) {
			fmt.Fprintln(os.Stderr, "Hearthside needs a Gemini API key.")
			fmt.Fprintln(os.Stderr, "Set GEMINI_API_KEY (or GOOGLE_API_KEY) and try again.")
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error starting Hearthside: %v\n", err)
		os.Exit(1)
	}

	// tea.NewProgram creates a new bubbletea application; Run blocks until
	// the user quits.
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
