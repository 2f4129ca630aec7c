package analyzers

import (
	"context"
	"strings"

	"github.com/steveyegge/skillscan/internal/analyzer"
	"github.com/steveyegge/skillscan/internal/types"
)

// TestingAnalyzer emits exactly one testing skill for any workspace with
// code. General guidelines come first, then one block per detected test
// framework.
type TestingAnalyzer struct{}

// NewTestingAnalyzer creates a new testing analyzer.
func NewTestingAnalyzer() analyzer.Analyzer {
	return &TestingAnalyzer{}
}

// Name implements Analyzer.
func (a *TestingAnalyzer) Name() string { return "testing" }

// Category implements Analyzer.
func (a *TestingAnalyzer) Category() types.Category { return types.CategoryTesting }

// Description implements Analyzer.
func (a *TestingAnalyzer) Description() string {
	return "Test structure and framework-specific practices"
}

// Test frameworks in guideline order
var testFrameworks = []struct {
	name       string
	guidelines []string
}{
	{"jest", []string{
		"Use jest.mock only at module boundaries and reset mocks between tests.",
		"Prefer fake timers (jest.useFakeTimers) over real waits.",
	}},
	{"vitest", []string{
		"Run vitest in watch mode locally and with --run in CI.",
		"Use vi.mock and vi.spyOn sparingly; restore them with vi.restoreAllMocks.",
	}},
	{"mocha", []string{
		"Return promises or use async functions in mocha tests instead of done callbacks.",
	}},
	{"cypress", []string{
		"Select elements in Cypress with data-testid attributes and avoid fixed cy.wait delays.",
	}},
	{"playwright", []string{
		"Use Playwright locators with auto-waiting and web-first assertions.",
	}},
	{"pytest", []string{
		"Share setup with pytest fixtures and parametrize instead of looping inside tests.",
	}},
	{"testify", []string{
		"Use require for preconditions and assert for checks with testify.",
	}},
	{"junit", []string{
		"Use JUnit 5 @ParameterizedTest for input grids and @Nested for grouping.",
	}},
}

// Analyze implements Analyzer.
func (a *TestingAnalyzer) Analyze(ctx context.Context, env analyzer.Env) ([]types.Skill, error) {
	stack := env.Stack
	if len(stack.Languages()) == 0 {
		return nil, nil
	}

	b := analyzer.NewSkill("testing-best-practices", types.CategoryTesting).
		DisplayName("Testing Best Practices").
		Description("How tests in this repository are structured and which frameworks they use.").
		TechStack(stack.Languages()...).
		Guidelines(
			"Test behavior through public interfaces, not implementation details.",
			"Keep tests deterministic: no sleeps, no shared mutable state, no network.",
			"Name tests after the behavior they verify.",
			"Cover edge cases and error paths, not only the happy path.",
		)

	b.GuidelinesIf(stack.HasLanguage("go"),
		"Write table-driven Go tests with t.Run subtests and use t.TempDir for filesystem fixtures.",
		"Run go test -race in CI.",
	)
	b.GuidelinesIf(stack.HasLanguage("rust"),
		"Keep Rust unit tests in a #[cfg(test)] module and integration tests under tests/.",
	)

	var used []string
	for _, tf := range testFrameworks {
		if stack.HasFramework(tf.name) {
			used = append(used, tf.name)
			b.Guidelines(tf.guidelines...)
		}
	}
	if len(used) > 0 {
		b.Meta("frameworks", strings.Join(used, ","))
	}

	if stack.Has(types.FlagNode) {
		b.Meta("test_command", packageScript(env.FS, "test"))
	}
	return []types.Skill{b.Build()}, nil
}
