package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/steveyegge/skillscan/internal/logging"
)

// Exit codes
const (
	exitOK    = 0
	exitFatal = 1 // the run could not happen (workspace unreadable, I/O setup)
	exitUsage = 2 // bad flags or configuration, detected before any work
)

var (
	verbose bool
	logJSON bool

	logger     logging.Logger = logging.Nop()
	syncLogger                = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "skillscan",
	Short: "Generate coding-assistant skills from a repository's tech stack",
	Long: `skillscan inspects a repository, works out its tech stack from manifests
and marker files, and writes best-practice skill documents tailored to it.

Examples:
  skillscan generate                  # Scan the current directory
  skillscan generate ~/src/app        # Scan another repository
  skillscan detect --format json      # Print the detected stack only
  skillscan list                      # Show available analyzers`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, sync, err := logging.New(logging.Options{Verbose: verbose, JSON: logJSON})
		if err != nil {
			return err
		}
		logger, syncLogger = l, sync
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Log as JSON instead of console text")
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageErr(err)
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	syncLogger()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// usageError marks errors caused by invalid input rather than a failed run
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usageErr(err error) error {
	if err == nil {
		return nil
	}
	return &usageError{err: err}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ue *usageError
	if errors.As(err, &ue) {
		return exitUsage
	}
	return exitFatal
}

// resolveRoot returns the absolute workspace root from the optional argument
func resolveRoot(args []string) (string, error) {
	root := "."
	if len(args) > 0 && args[0] != "" {
		root = args[0]
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	return abs, nil
}

// usageArgs makes argument validation failures exit as usage errors
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return usageErr(fn(cmd, args))
	}
}
