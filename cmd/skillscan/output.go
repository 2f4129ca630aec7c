package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/steveyegge/skillscan/internal/types"
)

// printReport renders a run summary for humans
func printReport(w io.Writer, report *types.AnalysisReport) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Fprintf(w, "\n%s Scanned %s\n\n", gray("→"), cyan(report.Root))

	if s := report.TechStack; s != nil {
		printList(w, "Languages", s.Languages(), cyan)
		printList(w, "Frameworks", s.Frameworks(), cyan)
		printList(w, "Databases", s.Databases(), cyan)
		printList(w, "Build tools", s.BuildTools(), cyan)
		printList(w, "Cloud", s.CloudProviders(), cyan)
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Analyzers:")
	for _, a := range report.Analyzers {
		switch a.Status {
		case types.StatusFailed:
			fmt.Fprintf(w, "  %s %-12s %s\n", red("✗"), a.Name, red(a.Error))
		default:
			fmt.Fprintf(w, "  %s %-12s %d skill(s) %s\n", green("✓"), a.Name, a.SkillsGenerated,
				gray(a.Duration.Round(time.Millisecond).String()))
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Skills generated: %s\n", cyan(fmt.Sprintf("%d", report.TotalSkillsGenerated)))
	if n := len(report.Persisted); n > 0 {
		failed := report.PersistFailures()
		fmt.Fprintf(w, "  Skills written: %s\n", green(fmt.Sprintf("%d", n-failed)))
		if failed > 0 {
			fmt.Fprintf(w, "\n%s Failed to write %d skill(s):\n", yellow("⚠"), failed)
			for _, p := range report.Persisted {
				if !p.OK() {
					fmt.Fprintf(w, "  - %s/%s: %s\n", p.Category, p.Name, gray(p.Error))
				}
			}
		}
	} else if report.TotalSkillsGenerated > 0 {
		fmt.Fprintf(w, "  %s Dry run: nothing written\n", yellow("⚠"))
	}
	fmt.Fprintf(w, "  Duration: %s\n", cyan(report.Duration.Round(time.Millisecond).String()))

	if failed := report.FailedAnalyzers(); len(failed) > 0 {
		fmt.Fprintf(w, "\n%s %d analyzer(s) failed: %s\n", yellow("⚠"), len(failed), strings.Join(failed, ", "))
	}
	fmt.Fprintln(w)
}

func printList(w io.Writer, label string, items []string, style func(a ...interface{}) string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "  %-12s %s\n", label+":", style(strings.Join(items, ", ")))
}
