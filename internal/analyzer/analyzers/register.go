// Package analyzers provides the built-in skill analyzers.
//
// Each analyzer owns one category and emits at most one skill per run. An
// analyzer whose domain is missing from the tech stack returns no skills at
// all, so a Go CLI never receives React advice.
//
// Usage:
//
//	registry := analyzer.NewRegistry()
//	if err := analyzers.RegisterAll(registry, analyzers.DefaultOptions()); err != nil {
//		return err
//	}
package analyzers

import (
	"github.com/steveyegge/skillscan/internal/analyzer"
)

// Options tunes workspace lookups performed by analyzers
type Options struct {
	// MaxMarkerFiles caps how many files a content search may read
	MaxMarkerFiles int
}

// DefaultOptions returns the standard analyzer options
func DefaultOptions() Options {
	return Options{MaxMarkerFiles: 50}
}

// All returns every built-in analyzer in registration order.
func All(opts Options) []analyzer.Analyzer {
	if opts.MaxMarkerFiles <= 0 {
		opts.MaxMarkerFiles = DefaultOptions().MaxMarkerFiles
	}
	return []analyzer.Analyzer{
		NewSecurityAnalyzer(opts),
		NewPerformanceAnalyzer(),
		NewReactAnalyzer(opts),
		NewBackendAnalyzer(),
		NewFrontendAnalyzer(),
		NewDatabaseAnalyzer(),
		NewAPIAnalyzer(),
		NewTestingAnalyzer(),
		NewDevOpsAnalyzer(),
	}
}

// RegisterAll registers all built-in analyzers with the given registry.
func RegisterAll(registry *analyzer.Registry, opts Options) error {
	for _, a := range All(opts) {
		if err := registry.Register(a); err != nil {
			return err
		}
	}
	return nil
}
