package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/skillscan/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init [root]",
	Short: "Write a starter .skillscan.yaml",
	Long: `Write a commented .skillscan.yaml with every setting at its default.
An existing file is never overwritten.

Example:
  cd ~/myproject
  skillscan init`,
	Args: usageArgs(cobra.MaximumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot(args)
		if err != nil {
			return err
		}
		return runInit(cmd.OutOrStdout(), root)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(w io.Writer, root string) error {
	path := filepath.Join(root, config.FileName)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, os.ErrExist) {
		return usageErr(fmt.Errorf("%s already exists", path))
	}
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := io.WriteString(f, config.ExampleConfigFile()); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	green := color.New(color.FgGreen).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintf(w, "%s Wrote %s\n", green("✓"), cyan(path))
	return nil
}
