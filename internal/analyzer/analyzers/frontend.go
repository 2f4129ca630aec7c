package analyzers

import (
	"context"

	"github.com/steveyegge/skillscan/internal/analyzer"
	"github.com/steveyegge/skillscan/internal/types"
)

// FrontendAnalyzer emits browser UI guidelines
type FrontendAnalyzer struct{}

// NewFrontendAnalyzer creates a new frontend analyzer.
func NewFrontendAnalyzer() analyzer.Analyzer {
	return &FrontendAnalyzer{}
}

// Name implements Analyzer.
func (a *FrontendAnalyzer) Name() string { return "frontend" }

// Category implements Analyzer.
func (a *FrontendAnalyzer) Category() types.Category { return types.CategoryFrontend }

// Description implements Analyzer.
func (a *FrontendAnalyzer) Description() string {
	return "Accessibility, styling and build tooling for browser UIs"
}

// Analyze implements Analyzer.
func (a *FrontendAnalyzer) Analyze(ctx context.Context, env analyzer.Env) ([]types.Skill, error) {
	stack := env.Stack
	ui := detected(stack, uiFrameworks)
	if len(ui) == 0 && !stack.Has(types.FlagReact) {
		return nil, nil
	}

	b := analyzer.NewSkill("frontend-best-practices", types.CategoryFrontend).
		DisplayName("Frontend Best Practices").
		Description("Accessibility, styling and tooling conventions for the UI code in this repository.").
		TechStack(stack.Languages()...).
		Guidelines(
			"Use semantic HTML elements and label every interactive control.",
			"Support keyboard navigation and visible focus states.",
			"Keep design tokens (colors, spacing, typography) in one place.",
			"Load images lazily and serve them at the size they are displayed.",
		)

	b.GuidelinesIf(stack.HasFramework("vue"),
		"Use the Composition API with <script setup> for new Vue components.",
	)
	b.GuidelinesIf(stack.HasFramework("angular"),
		"Use OnPush change detection and standalone components in Angular.",
	)
	b.GuidelinesIf(stack.HasFramework("svelte"),
		"Keep Svelte stores small and derive values with derived stores.",
	)
	b.GuidelinesIf(stack.Has(types.FlagTypeScript),
		"Enable strict mode in tsconfig.json and avoid any in component props.",
	)
	b.GuidelinesIf(stack.HasBuildTool("vite"),
		"Expose only VITE_-prefixed variables to client code; everything else stays server-side.",
	)
	b.GuidelinesIf(stack.HasBuildTool("webpack"),
		"Enable webpack content hashing for long-term caching of emitted assets.",
	)

	if stack.Has(types.FlagNode) {
		if lint := packageScript(env.FS, "lint"); lint != "" {
			b.Meta("lint_command", lint)
			b.Guidelines("Run the lint script before committing.")
		} else {
			b.Guidelines("Add a lint script to package.json and run it in CI.")
		}
		b.Meta("build_command", packageScript(env.FS, "build"))
	}
	return []types.Skill{b.Build()}, nil
}
