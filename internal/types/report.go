package types

import (
	"fmt"
	"strings"
	"time"
)

// Status is the terminal state of one analyzer invocation
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// IsValid checks if the status value is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusSuccess, StatusFailed:
		return true
	}
	return false
}

// AnalyzerOutcome is what one launched analyzer resolved to.
// Skills is empty and Err is set iff Status is StatusFailed.
type AnalyzerOutcome struct {
	AnalyzerName string
	Status       Status
	Skills       []Skill
	Err          error
	Duration     time.Duration
}

// Failed reports whether the analyzer failed
func (o AnalyzerOutcome) Failed() bool {
	return o.Status == StatusFailed
}

// AnalyzerSummary is the per-analyzer line of a report
type AnalyzerSummary struct {
	Name            string        `json:"name"`
	SkillsGenerated int           `json:"skills_generated"`
	Status          Status        `json:"status"`
	Error           string        `json:"error,omitempty"`
	Duration        time.Duration `json:"duration_ns"`
}

// PersistResult records what happened to one skill handed to a sink
type PersistResult struct {
	Category Category `json:"category"`
	Name     string   `json:"name"`
	Path     string   `json:"path,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// OK reports whether the skill was persisted
func (p PersistResult) OK() bool {
	return p.Error == ""
}

// AnalysisReport aggregates one run. Analyzers is in registration order and
// has exactly one entry per launched analyzer.
type AnalysisReport struct {
	RunID                string            `json:"run_id"`
	Root                 string            `json:"root"`
	TechStack            *TechStack        `json:"tech_stack"`
	StackFingerprint     string            `json:"stack_fingerprint"`
	TotalSkillsGenerated int               `json:"total_skills_generated"`
	Analyzers            []AnalyzerSummary `json:"analyzers"`
	Timestamp            time.Time         `json:"timestamp"`
	Duration             time.Duration     `json:"duration_ns"`
	Persisted            []PersistResult   `json:"persisted,omitempty"`
}

// FailedAnalyzers returns the names of analyzers that failed, in report order.
func (r *AnalysisReport) FailedAnalyzers() []string {
	var names []string
	for _, a := range r.Analyzers {
		if a.Status == StatusFailed {
			names = append(names, a.Name)
		}
	}
	return names
}

// PersistFailures counts skills the sink could not write.
func (r *AnalysisReport) PersistFailures() int {
	n := 0
	for _, p := range r.Persisted {
		if !p.OK() {
			n++
		}
	}
	return n
}

// Summary returns a human-readable summary of the report
func (r *AnalysisReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Skill generation for %s\n", r.Root)
	fmt.Fprintf(&b, "Run: %s\n", r.RunID)
	if r.TechStack != nil {
		langs := r.TechStack.Languages()
		if len(langs) == 0 {
			b.WriteString("Languages: (none detected)\n")
		} else {
			fmt.Fprintf(&b, "Languages: %s\n", strings.Join(langs, ", "))
		}
		if fw := r.TechStack.Frameworks(); len(fw) > 0 {
			fmt.Fprintf(&b, "Frameworks: %s\n", strings.Join(fw, ", "))
		}
		if dbs := r.TechStack.Databases(); len(dbs) > 0 {
			fmt.Fprintf(&b, "Databases: %s\n", strings.Join(dbs, ", "))
		}
	}
	fmt.Fprintf(&b, "Analyzers: %d (%d failed)\n", len(r.Analyzers), len(r.FailedAnalyzers()))
	for _, a := range r.Analyzers {
		switch a.Status {
		case StatusFailed:
			fmt.Fprintf(&b, "  - %s: failed: %s\n", a.Name, a.Error)
		default:
			fmt.Fprintf(&b, "  - %s: %d skill(s)\n", a.Name, a.SkillsGenerated)
		}
	}
	fmt.Fprintf(&b, "Skills generated: %d\n", r.TotalSkillsGenerated)
	if len(r.Persisted) > 0 {
		fmt.Fprintf(&b, "Skills written: %d (%d failed)\n",
			len(r.Persisted)-r.PersistFailures(), r.PersistFailures())
	}
	fmt.Fprintf(&b, "Duration: %v\n", r.Duration.Round(time.Millisecond))
	return b.String()
}
