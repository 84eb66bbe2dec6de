package commands

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/ten/app"
	"github.com/teranos/ten/errors"
	"github.com/teranos/ten/startgraph"
)

var validateConfigPath string

// ValidateCmd parses and validates an App configuration's predefined
// graphs without starting an App (no addon registry, no wire listener,
// no engines) — a supplement to spec §6's bare run surface, useful while
// authoring a predefined_graphs entry. Exits 0 or 2 only.
var ValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate an App configuration without running it",
	RunE: func(cmd *cobra.Command, args []string) error {
		os.Exit(runValidate(validateConfigPath))
		return nil
	},
}

func init() {
	ValidateCmd.Flags().StringVar(&validateConfigPath, "config", "ten.json", "Path to the App configuration file")
}

func runValidate(configPath string) int {
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		pterm.Error.Printf("tenrun: %s\n", err)
		return 2
	}

	for _, pg := range cfg.PredefinedGraphs {
		graphID := pg.GraphName
		if graphID == "" {
			graphID = "predefined"
		}
		cmd := app.BuildStartGraphCmd(pg)
		if _, err := startgraph.Parse(cmd, cfg.URI, graphID); err != nil {
			pterm.Error.Printf("tenrun: graph %q: %s (%s)\n", graphID, err, errors.GetCode(err))
			return 2
		}
	}

	pterm.Success.Printf("tenrun: %s is valid (%d predefined graph(s))\n", configPath, len(cfg.PredefinedGraphs))
	return 0
}
