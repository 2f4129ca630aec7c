package analyzers

import (
	"context"

	"github.com/steveyegge/skillscan/internal/analyzer"
	"github.com/steveyegge/skillscan/internal/types"
)

// ReactAnalyzer emits React component and hook guidelines. It only runs when
// the stack has React.
type ReactAnalyzer struct {
	opts Options
}

// NewReactAnalyzer creates a new React analyzer.
func NewReactAnalyzer(opts Options) analyzer.Analyzer {
	return &ReactAnalyzer{opts: opts}
}

// Name implements Analyzer.
func (a *ReactAnalyzer) Name() string { return "react" }

// Category implements Analyzer.
func (a *ReactAnalyzer) Category() types.Category { return types.CategoryReact }

// Description implements Analyzer.
func (a *ReactAnalyzer) Description() string {
	return "Component structure, hooks and state management for React projects"
}

var classComponentMarkers = []string{"extends React.Component", "extends Component"}

// Analyze implements Analyzer.
func (a *ReactAnalyzer) Analyze(ctx context.Context, env analyzer.Env) ([]types.Skill, error) {
	stack := env.Stack
	if !stack.Has(types.FlagReact) {
		return nil, nil
	}

	b := analyzer.NewSkill("react-best-practices", types.CategoryReact).
		DisplayName("React Best Practices").
		Description("Conventions for React components, hooks and state in this repository.").
		TechStack(stack.Languages()...).
		Guidelines(
			"Write function components and follow the Rules of Hooks.",
			"Give list items stable keys derived from data, never array indexes.",
			"Keep state as close as possible to where it is used; lift it only when siblings share it.",
			"Derive values during render instead of mirroring props into state.",
			"Clean up subscriptions and timers in effect cleanup functions.",
		)

	b.GuidelinesIf(stack.Has(types.FlagTypeScript),
		"Type props with explicit interfaces and avoid React.FC for children typing.",
	)
	b.GuidelinesIf(stack.HasFramework("next"),
		"Default to Server Components in Next.js and mark client components with 'use client' only where needed.",
	)
	b.GuidelinesIf(stack.HasFramework("jest", "vitest"),
		"Test components through React Testing Library queries by role and text, not implementation details.",
	)

	if file, ok := env.FS.FirstContaining(ctx, "**/*.{jsx,tsx}", classComponentMarkers, a.opts.MaxMarkerFiles); ok {
		b.Meta("class_component", file)
		b.Guidelines("Class components remain (e.g. " + file + "); migrate them to function components when touched.")
	}
	if stack.Has(types.FlagTypeScript) {
		b.Meta("typescript", "true")
	}
	return []types.Skill{b.Build()}, nil
}
