package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/skillscan/internal/analyzer"
	"github.com/steveyegge/skillscan/internal/config"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available analyzers",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := newRegistry(config.Default())
		if err != nil {
			return err
		}
		listAnalyzers(cmd.OutOrStdout(), registry)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

// listAnalyzers prints every registered analyzer in run order
func listAnalyzers(w io.Writer, registry *analyzer.Registry) {
	cyan := color.New(color.FgCyan).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Fprintf(w, "\nAvailable analyzers (%d):\n\n", registry.Len())
	for _, a := range registry.List() {
		fmt.Fprintf(w, "  %-12s %s\n", cyan(a.Name()), gray("["+string(a.Category())+"]"))
		fmt.Fprintf(w, "    %s\n", a.Description())
	}
	fmt.Fprintln(w)
}
