package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/ten/cmd/tenrun/commands"
)

var rootCmd = &cobra.Command{
	Use:   "tenrun",
	Short: "tenrun runs a TEN App process",
	Long: `tenrun loads an App configuration, opens the addon registry and wire
listener it describes, and runs the resulting graph-oriented dataflow
process until it's closed.`,
}

func init() {
	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.ValidateCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
