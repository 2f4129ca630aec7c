package probe

import (
	"context"

	"github.com/steveyegge/skillscan/internal/fsprobe"
	"github.com/steveyegge/skillscan/internal/types"
)

// ExtensionsProbe is the manifest-less fallback: a single source file with a
// known extension is enough to record the language.
type ExtensionsProbe struct{}

func (p *ExtensionsProbe) Name() string { return "extensions" }

var sourceExtensions = []struct {
	pattern  string
	language string
	flag     types.Flag
}{
	{"**/*.go", "go", types.FlagGo},
	{"**/*.rs", "rust", types.FlagRust},
	{"**/*.py", "python", types.FlagPython},
	{"**/*.java", "java", types.FlagJava},
	{"**/*.{ts,tsx}", "typescript", types.FlagTypeScript},
	{"**/*.{js,jsx,mjs,cjs}", "javascript", ""},
}

func (p *ExtensionsProbe) Probe(ctx context.Context, fs fsprobe.Reader) Evidence {
	var e Evidence
	for _, ext := range sourceExtensions {
		if len(fs.Glob(ctx, ext.pattern, 1)) == 0 {
			continue
		}
		e.AddLanguage(ext.language)
		if ext.flag != "" {
			e.SetFlag(ext.flag)
		}
	}
	return e
}
