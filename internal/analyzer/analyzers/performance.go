package analyzers

import (
	"context"

	"github.com/steveyegge/skillscan/internal/analyzer"
	"github.com/steveyegge/skillscan/internal/types"
)

// PerformanceAnalyzer emits profiling and efficiency guidelines
type PerformanceAnalyzer struct{}

// NewPerformanceAnalyzer creates a new performance analyzer.
func NewPerformanceAnalyzer() analyzer.Analyzer {
	return &PerformanceAnalyzer{}
}

// Name implements Analyzer.
func (a *PerformanceAnalyzer) Name() string { return "performance" }

// Category implements Analyzer.
func (a *PerformanceAnalyzer) Category() types.Category { return types.CategoryPerformance }

// Description implements Analyzer.
func (a *PerformanceAnalyzer) Description() string {
	return "Profiling, caching and runtime efficiency for the detected stack"
}

// Analyze implements Analyzer.
func (a *PerformanceAnalyzer) Analyze(ctx context.Context, env analyzer.Env) ([]types.Skill, error) {
	stack := env.Stack
	if len(stack.Languages()) == 0 {
		return nil, nil
	}

	b := analyzer.NewSkill("performance-optimization", types.CategoryPerformance).
		DisplayName("Performance Optimization").
		Description("Measure-first performance practices for this repository.").
		TechStack(stack.Languages()...).
		Guidelines(
			"Profile before optimizing and keep a benchmark for every hot path you change.",
			"Set timeouts on every outbound network call.",
		)

	b.GuidelinesIf(stack.HasLanguage("go"),
		"Use pprof and go test -bench with -benchmem to find allocation hot spots.",
		"Preallocate slices and maps when the size is known; reuse buffers with sync.Pool on hot paths.",
	)
	b.GuidelinesIf(stack.HasLanguage("python"),
		"Profile with cProfile or py-spy; move tight loops to vectorized or compiled code.",
	)
	b.GuidelinesIf(stack.HasLanguage("rust"),
		"Benchmark with criterion and avoid needless clones in hot loops.",
	)
	b.GuidelinesIf(stack.HasLanguage("java"),
		"Size JVM heap explicitly and inspect GC logs before tuning collectors.",
	)
	b.GuidelinesIf(stack.Has(types.FlagNode),
		"Keep the event loop free: move CPU-heavy work to worker threads.",
	)
	b.GuidelinesIf(stack.Has(types.FlagReact),
		"Split bundles with lazy-loaded routes and memoize only components that measurably re-render.",
	)
	b.GuidelinesIf(stack.HasBuildTool("vite", "webpack", "esbuild", "rollup"),
		"Track bundle size in CI and fail on unexpected growth.",
	)
	b.GuidelinesIf(len(stack.Databases()) > 0,
		"Index columns used in filters and joins; watch for N+1 query patterns.",
	)
	b.GuidelinesIf(stack.HasDatabase("redis"),
		"Give every Redis cache entry a TTL and bound key cardinality.",
	)
	return []types.Skill{b.Build()}, nil
}
