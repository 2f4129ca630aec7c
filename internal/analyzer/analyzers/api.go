package analyzers

import (
	"context"
	"strings"

	"github.com/steveyegge/skillscan/internal/analyzer"
	"github.com/steveyegge/skillscan/internal/types"
)

// APIAnalyzer emits API design guidelines for HTTP and RPC services
type APIAnalyzer struct{}

// NewAPIAnalyzer creates a new API analyzer.
func NewAPIAnalyzer() analyzer.Analyzer {
	return &APIAnalyzer{}
}

// Name implements Analyzer.
func (a *APIAnalyzer) Name() string { return "api" }

// Category implements Analyzer.
func (a *APIAnalyzer) Category() types.Category { return types.CategoryAPI }

// Description implements Analyzer.
func (a *APIAnalyzer) Description() string {
	return "Resource design, versioning and error contracts for HTTP and RPC APIs"
}

// Analyze implements Analyzer.
func (a *APIAnalyzer) Analyze(ctx context.Context, env analyzer.Env) ([]types.Skill, error) {
	stack := env.Stack
	servers := detected(stack, serverFrameworks)
	if len(servers) == 0 {
		return nil, nil
	}

	b := analyzer.NewSkill("api-design", types.CategoryAPI).
		DisplayName("API Design").
		Description("Contracts, versioning and error conventions for the APIs this repository serves.").
		TechStack(stack.Languages()...).
		Guidelines(
			"Name resources with plural nouns and use HTTP methods for verbs.",
			"Return a consistent error body with a machine-readable code and a human message.",
			"Version the API explicitly and never break an existing version.",
			"Paginate every list endpoint and cap the page size.",
			"Make retried writes safe with idempotency keys.",
		)

	b.GuidelinesIf(stack.HasFramework("grpc"),
		"Keep protobuf field numbers stable and reserve removed fields.",
		"Return gRPC status codes with details instead of encoding errors in messages.",
	)
	b.GuidelinesIf(stack.HasFramework("fastapi", "nestjs"),
		"Publish the generated OpenAPI document and review it in pull requests.",
	)

	if specs := env.FS.Glob(ctx, "**/{openapi,swagger}.{yaml,yml,json}", 1); len(specs) > 0 {
		b.Meta("openapi", specs[0])
		b.Guidelines("Keep " + specs[0] + " in sync with handlers and validate it in CI.")
	} else if !stack.HasFramework("grpc") {
		b.Guidelines("Describe public endpoints in an OpenAPI document checked into the repository.")
	}
	if protos := env.FS.Glob(ctx, "**/*.proto", 1); len(protos) > 0 {
		b.Meta("proto", protos[0])
		b.Guidelines("Lint and break-check .proto files with buf before merging.")
	}

	b.Meta("frameworks", strings.Join(servers, ","))
	return []types.Skill{b.Build()}, nil
}
