package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/skillscan/internal/analyzer"
	"github.com/steveyegge/skillscan/internal/analyzer/analyzers"
	"github.com/steveyegge/skillscan/internal/config"
	"github.com/steveyegge/skillscan/internal/fsprobe"
	"github.com/steveyegge/skillscan/internal/logging"
	"github.com/steveyegge/skillscan/internal/orchestrator"
	"github.com/steveyegge/skillscan/internal/probe"
	"github.com/steveyegge/skillscan/internal/sink"
	"github.com/steveyegge/skillscan/internal/stack"
	"github.com/steveyegge/skillscan/internal/types"
)

var (
	generateOutput      string
	generateAnalyzers   []string
	generateDryRun      bool
	generateSinks       []string
	generateTimeout     time.Duration
	generateConcurrency int
	generateFormat      string
)

var generateCmd = &cobra.Command{
	Use:   "generate [root]",
	Short: "Detect the tech stack and write skills for it",
	Long: `Detect the repository's tech stack, run every analyzer against it and
write the resulting skills.

Skills are written to <output>/<category>/<name>/SKILL.md. Analyzers run
concurrently; one failing analyzer is reported and the rest still write
their skills. The command only fails when the repository itself cannot be
scanned.

Settings come from .skillscan.yaml in the root, SKILLSCAN_* environment
variables and the flags below, in increasing precedence.

Examples:
  skillscan generate                           # Scan the current directory
  skillscan generate --dry-run                 # Report without writing
  skillscan generate --analyzers=security,api  # Run selected analyzers
  skillscan generate --sink=files,sqlite       # Also index skills in skills.db
  skillscan generate --format=json             # Machine-readable report`,
	Args: usageArgs(cobra.MaximumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot(args)
		if err != nil {
			return err
		}
		cfg, err := loadConfig(cmd, root)
		if err != nil {
			return err
		}
		if generateFormat != "text" && generateFormat != "json" {
			return usageErr(fmt.Errorf("unknown format %q (valid: text, json)", generateFormat))
		}

		report, err := runGenerate(cmd.Context(), logger, root, cfg)
		if err != nil {
			return err
		}
		return writeReport(cmd.OutOrStdout(), report, generateFormat)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Output directory (default .claude/skills under the root)")
	generateCmd.Flags().StringSliceVar(&generateAnalyzers, "analyzers", nil, "Comma-separated analyzer names (default all)")
	generateCmd.Flags().BoolVar(&generateDryRun, "dry-run", false, "Report skills without writing them")
	generateCmd.Flags().StringSliceVar(&generateSinks, "sink", nil, "Where to write skills: files, sqlite")
	generateCmd.Flags().DurationVar(&generateTimeout, "timeout", 0, "Per-analyzer deadline (0 disables)")
	generateCmd.Flags().IntVar(&generateConcurrency, "concurrency", 0, "Analyzers running at once (0 = no cap)")
	generateCmd.Flags().StringVar(&generateFormat, "format", "text", "Report format: text or json")
}

// loadConfig layers command-line flags over the file and environment
// configuration. Only flags the user actually set override. An unusable
// root is reported as fatal before any configuration is read from it.
func loadConfig(cmd *cobra.Command, root string) (config.Config, error) {
	if err := stack.ValidateRoot(root); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return cfg, usageErr(err)
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.OutputDir = generateOutput
	}
	if flags.Changed("analyzers") {
		cfg.Analyzers = generateAnalyzers
	}
	if flags.Changed("dry-run") {
		cfg.DryRun = generateDryRun
	}
	if flags.Changed("sink") {
		cfg.Sinks = generateSinks
	}
	if flags.Changed("timeout") {
		cfg.AnalyzerTimeout = generateTimeout
	}
	if flags.Changed("concurrency") {
		cfg.MaxConcurrency = generateConcurrency
	}

	if err := cfg.Validate(); err != nil {
		return cfg, usageErr(fmt.Errorf("invalid configuration: %w", err))
	}
	return cfg, nil
}

// newReader opens the workspace with the configured limits
func newReader(root string, cfg config.Config) (*fsprobe.OSReader, error) {
	r, err := fsprobe.NewOSReader(root, fsprobe.Options{
		Ignore:       cfg.Ignore,
		MaxReadBytes: cfg.MaxReadBytes,
		CacheBytes:   cfg.CacheBytes,
	})
	if err != nil {
		return nil, usageErr(fmt.Errorf("invalid ignore pattern: %w", err))
	}
	return r, nil
}

func newStackBuilder(log logging.Logger, cfg config.Config) *stack.Builder {
	return stack.New(log, probe.DefaultSet(probe.Options{
		MaxMarkerFiles: cfg.MaxMarkerFiles,
		MaxReadBytes:   cfg.MaxReadBytes,
	})...)
}

func newRegistry(cfg config.Config) (*analyzer.Registry, error) {
	registry := analyzer.NewRegistry()
	if err := analyzers.RegisterAll(registry, analyzers.Options{MaxMarkerFiles: cfg.MaxMarkerFiles}); err != nil {
		return nil, fmt.Errorf("failed to register analyzers: %w", err)
	}
	return registry, nil
}

// runGenerate performs one full run and returns its report. Errors are either
// usage errors (bad analyzer names, unknown sinks) or the fatal path.
func runGenerate(ctx context.Context, log logging.Logger, root string, cfg config.Config) (*types.AnalysisReport, error) {
	registry, err := newRegistry(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := registry.Resolve(cfg.Analyzers); err != nil {
		return nil, usageErr(err)
	}

	fs, err := newReader(root, cfg)
	if err != nil {
		return nil, err
	}
	defer fs.Close()

	var s sink.Sink
	if !cfg.DryRun {
		if s, err = sink.FromNames(cfg.Sinks); err != nil {
			return nil, usageErr(err)
		}
		defer func() {
			if cerr := sink.Close(s); cerr != nil {
				log.Error("failed to close sink", "error", cerr)
			}
		}()
	}

	o := orchestrator.New(registry, newStackBuilder(log, cfg), s, log, orchestrator.Options{
		OutputDir:       cfg.ResolveOutputDir(root),
		Analyzers:       cfg.Analyzers,
		AnalyzerTimeout: cfg.AnalyzerTimeout,
		MaxConcurrency:  cfg.MaxConcurrency,
		DryRun:          cfg.DryRun,
	})
	res, err := o.Run(ctx, fs)
	if err != nil {
		return nil, err
	}
	return res.Report, nil
}

func writeReport(w io.Writer, report *types.AnalysisReport, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(w, report)
	return nil
}
