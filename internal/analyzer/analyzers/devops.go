package analyzers

import (
	"context"
	"strings"

	"github.com/steveyegge/skillscan/internal/analyzer"
	"github.com/steveyegge/skillscan/internal/types"
)

// DevOpsAnalyzer emits delivery guidelines for containers, orchestration,
// CI and infrastructure-as-code.
type DevOpsAnalyzer struct{}

// NewDevOpsAnalyzer creates a new DevOps analyzer.
func NewDevOpsAnalyzer() analyzer.Analyzer {
	return &DevOpsAnalyzer{}
}

// Name implements Analyzer.
func (a *DevOpsAnalyzer) Name() string { return "devops" }

// Category implements Analyzer.
func (a *DevOpsAnalyzer) Category() types.Category { return types.CategoryDevOps }

// Description implements Analyzer.
func (a *DevOpsAnalyzer) Description() string {
	return "Containers, CI pipelines and infrastructure-as-code"
}

var ciGuidelines = map[string]string{
	"github-actions":      "Pin third-party GitHub Actions to a commit SHA and grant workflows least-privilege permissions.",
	"gitlab-ci":           "Use GitLab CI rules and needs to keep pipelines fast and explicit.",
	"jenkins":             "Keep the Jenkinsfile declarative and load credentials through the credentials binding plugin.",
	"circleci":            "Cache dependencies in CircleCI by lockfile checksum.",
	"azure-pipelines":     "Store Azure Pipelines secrets in variable groups backed by Key Vault.",
	"bitbucket-pipelines": "Use Bitbucket deployment environments to gate production releases.",
}

// Analyze implements Analyzer.
func (a *DevOpsAnalyzer) Analyze(ctx context.Context, env analyzer.Env) ([]types.Skill, error) {
	stack := env.Stack
	hasInfra := stack.Has(types.FlagDocker) || stack.Has(types.FlagKubernetes) || stack.Has(types.FlagCI) ||
		len(stack.CloudProviders()) > 0 || stack.HasBuildTool("terraform")
	if !hasInfra {
		return nil, nil
	}

	b := analyzer.NewSkill("devops-practices", types.CategoryDevOps).
		DisplayName("DevOps Practices").
		Description("Build, delivery and infrastructure conventions for this repository.").
		TechStack(stack.Languages()...).
		Guidelines(
			"Keep builds reproducible: pin tool versions and commit lockfiles.",
			"Promote the same artifact through every environment instead of rebuilding.",
		)

	if stack.Has(types.FlagDocker) {
		b.Guidelines(
			"Use multi-stage Docker builds and copy only the runtime artifacts into the final image.",
			"Pin base images by digest or an exact tag.",
		)
		if !env.FS.Exists(".dockerignore") {
			b.Guidelines("Add a .dockerignore so build contexts exclude VCS data, dependencies and secrets.")
		}
	}
	b.GuidelinesIf(stack.Has(types.FlagKubernetes),
		"Set resource requests and limits plus readiness and liveness probes on every workload.",
		"Keep Kubernetes manifests declarative and apply them from CI, not from laptops.",
	)
	b.GuidelinesIf(stack.HasBuildTool("helm"),
		"Version Helm charts and lint them with helm lint in CI.",
	)
	b.GuidelinesIf(stack.HasBuildTool("terraform"),
		"Store Terraform state remotely with locking and run terraform plan in pull requests.",
	)

	var ci []string
	for _, tool := range stack.BuildTools() {
		if g, ok := ciGuidelines[tool]; ok {
			ci = append(ci, tool)
			b.Guidelines(g)
		}
	}
	b.GuidelinesIf(stack.Has(types.FlagCI),
		"Run tests, linters and security scans on every pull request.",
	)

	if clouds := stack.CloudProviders(); len(clouds) > 0 {
		b.Meta("cloud_providers", strings.Join(clouds, ","))
		b.Guidelines("Grant deployment credentials least privilege and prefer short-lived OIDC tokens over static keys.")
	}
	if len(ci) > 0 {
		b.Meta("ci", strings.Join(ci, ","))
	}
	return []types.Skill{b.Build()}, nil
}
