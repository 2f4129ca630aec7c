package probe

import (
	"context"

	"golang.org/x/mod/modfile"

	"github.com/steveyegge/skillscan/internal/fsprobe"
	"github.com/steveyegge/skillscan/internal/types"
)

// GoModProbe detects Go modules from go.mod
type GoModProbe struct {
	opts Options
}

func (p *GoModProbe) Name() string { return "gomod" }

func (p *GoModProbe) Probe(ctx context.Context, fs fsprobe.Reader) Evidence {
	var e Evidence

	path := "go.mod"
	if !fs.Exists(path) {
		// Fall back to the first nested module, e.g. a monorepo with ./backend/go.mod
		nested := fs.Glob(ctx, "**/go.mod", 1)
		if len(nested) == 0 {
			return e
		}
		path = nested[0]
	}

	e.AddLanguage("go")
	e.SetFlag(types.FlagGo)
	e.AddBuildTool("go")
	e.AddPackageManager("go-modules")

	content, ok := fs.ReadText(path, p.opts.MaxReadBytes)
	if !ok {
		return e
	}
	f, err := modfile.Parse(path, []byte(content), nil)
	if err != nil {
		// A malformed go.mod still proves this is a Go module
		return e
	}

	if f.Go != nil {
		e.SetVersion("go", f.Go.Version)
	}
	deps := make([]string, 0, len(f.Require))
	for _, req := range f.Require {
		deps = append(deps, req.Mod.Path)
	}
	applyPrefix(&e, goRules, deps...)
	return e
}
