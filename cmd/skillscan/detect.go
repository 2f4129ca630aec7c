package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/steveyegge/skillscan/internal/config"
	"github.com/steveyegge/skillscan/internal/logging"
	"github.com/steveyegge/skillscan/internal/types"
)

var detectFormat string

var detectCmd = &cobra.Command{
	Use:   "detect [root]",
	Short: "Print the detected tech stack",
	Long: `Detect the repository's tech stack and print it. No analyzers run and
nothing is written.

Examples:
  skillscan detect                 # YAML for the current directory
  skillscan detect --format=json   # JSON, e.g. for jq`,
	Args: usageArgs(cobra.MaximumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		if detectFormat != "yaml" && detectFormat != "json" {
			return usageErr(fmt.Errorf("unknown format %q (valid: yaml, json)", detectFormat))
		}
		root, err := resolveRoot(args)
		if err != nil {
			return err
		}
		cfg, err := loadConfig(cmd, root)
		if err != nil {
			return err
		}
		s, err := runDetect(cmd.Context(), logger, root, cfg)
		if err != nil {
			return err
		}
		return writeStack(cmd.OutOrStdout(), s, detectFormat)
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
	detectCmd.Flags().StringVar(&detectFormat, "format", "yaml", "Output format: yaml or json")
}

func runDetect(ctx context.Context, log logging.Logger, root string, cfg config.Config) (*types.TechStack, error) {
	fs, err := newReader(root, cfg)
	if err != nil {
		return nil, err
	}
	defer fs.Close()
	return newStackBuilder(log, cfg).Build(ctx, fs)
}

func writeStack(w io.Writer, s *types.TechStack, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode stack: %w", err)
	}
	return enc.Close()
}
