// Package analyzer defines the contract every skill analyzer implements, the
// ordered registry that holds them, and a fluent builder for skills.
package analyzer

import (
	"context"

	"github.com/steveyegge/skillscan/internal/fsprobe"
	"github.com/steveyegge/skillscan/internal/logging"
	"github.com/steveyegge/skillscan/internal/types"
)

// Env is everything an analyzer may look at. Stack is shared by every
// analyzer of a run and has no mutators; FS is read-only.
type Env struct {
	Root  string
	Stack *types.TechStack
	FS    fsprobe.Reader
	Log   logging.Logger
}

// Analyzer turns a tech stack into zero or more skills.
//
// Implementations must:
//   - return no skills (and no error) when their domain is absent from the stack
//   - treat missing or unreadable files as less evidence, not as errors
//   - select guidelines deterministically from the stack and workspace content
//   - never write to the workspace
//
// An error return means the analyzer itself broke; the orchestrator records it
// as a failed outcome and carries on with the others.
type Analyzer interface {
	// Name returns the unique analyzer identifier (e.g., "security")
	Name() string

	// Category returns the category of the skills this analyzer emits
	Category() types.Category

	// Description returns a one-line summary for listings
	Description() string

	// Analyze produces skills for the workspace
	Analyze(ctx context.Context, env Env) ([]types.Skill, error)
}
