package analyzers

import (
	"context"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/steveyegge/skillscan/internal/analyzer"
	"github.com/steveyegge/skillscan/internal/types"
)

// BackendAnalyzer emits service-side guidelines for server languages and
// frameworks.
type BackendAnalyzer struct{}

// NewBackendAnalyzer creates a new backend analyzer.
func NewBackendAnalyzer() analyzer.Analyzer {
	return &BackendAnalyzer{}
}

// Name implements Analyzer.
func (a *BackendAnalyzer) Name() string { return "backend" }

// Category implements Analyzer.
func (a *BackendAnalyzer) Category() types.Category { return types.CategoryBackend }

// Description implements Analyzer.
func (a *BackendAnalyzer) Description() string {
	return "Service structure, error handling and configuration for backend code"
}

var frameworkGuidelines = map[string][]string{
	"gin":         {"Group Gin routes by resource and register middleware per group, not globally."},
	"echo":        {"Return errors from Echo handlers and map them in a central HTTPErrorHandler."},
	"fiber":       {"Remember Fiber reuses request buffers; copy values before keeping them past the handler."},
	"chi":         {"Compose chi middleware with r.With and mount sub-routers per resource."},
	"gorilla-mux": {"Constrain gorilla/mux routes with Methods() and path variable patterns."},
	"express":     {"Use a single error-handling middleware and always call next(err) from async handlers."},
	"fastify":     {"Declare JSON schemas on Fastify routes for validation and fast serialization."},
	"nestjs":      {"Keep NestJS controllers thin; put logic in providers and validate DTOs with pipes."},
	"django":      {"Keep Django views thin and push business rules into models or services."},
	"flask":       {"Structure Flask apps with blueprints and an application factory."},
	"fastapi":     {"Declare request and response models in FastAPI and use dependencies for shared resources."},
	"spring-boot": {"Prefer constructor injection in Spring Boot and externalize configuration in profiles."},
	"axum":        {"Share state in axum through State extractors and keep handlers free of blocking calls."},
	"actix-web":   {"Move blocking work off actix-web workers with web::block."},
	"rocket":      {"Use Rocket request guards for authentication and validation."},
}

// Analyze implements Analyzer.
func (a *BackendAnalyzer) Analyze(ctx context.Context, env analyzer.Env) ([]types.Skill, error) {
	stack := env.Stack
	servers := detected(stack, serverFrameworks)
	hasBackendLang := false
	for _, lang := range backendLanguages {
		if stack.HasLanguage(lang) {
			hasBackendLang = true
		}
	}
	// Node alone is not a backend; it needs a server framework
	if !hasBackendLang && len(servers) == 0 {
		return nil, nil
	}

	b := analyzer.NewSkill("backend-best-practices", types.CategoryBackend).
		DisplayName("Backend Best Practices").
		Description("How services in this repository handle requests, errors and configuration.").
		TechStack(stack.Languages()...).
		Guidelines(
			"Read configuration from the environment once at startup and fail fast when it is invalid.",
			"Propagate request context and deadlines through every layer.",
			"Return structured errors from handlers and log them once at the boundary.",
			"Shut down gracefully: stop accepting work, drain in-flight requests, then close resources.",
		)

	if stack.HasLanguage("go") {
		b.Guidelines(
			"Wrap errors with fmt.Errorf(\"...: %w\", err) and match them with errors.Is and errors.As.",
			"Pass context.Context as the first parameter of blocking functions.",
		)
		if v, ok := stack.Version("go"); ok {
			b.Meta("go_version", v)
			b.Guidelines(goVersionGuidelines(v)...)
		}
	}

	for _, fw := range servers {
		b.Guidelines(frameworkGuidelines[fw]...)
	}
	if len(servers) > 0 {
		b.Meta("frameworks", strings.Join(servers, ","))
	}
	return []types.Skill{b.Build()}, nil
}

// goVersionGuidelines picks advice based on the go directive.
func goVersionGuidelines(version string) []string {
	v := "v" + strings.TrimPrefix(version, "go")
	if !semver.IsValid(v) {
		return nil
	}
	var out []string
	if semver.Compare(v, "v1.21") >= 0 {
		out = append(out, "Use log/slog for structured logging.")
	} else {
		out = append(out, "The go directive predates Go 1.21; upgrading unlocks log/slog and the min/max builtins.")
	}
	if semver.Compare(v, "v1.22") >= 0 {
		out = append(out, "Use net/http ServeMux method and wildcard patterns instead of hand-rolled routing.")
	}
	return out
}
