package probe

import (
	"context"
	"slices"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/steveyegge/skillscan/internal/fsprobe"
	"github.com/steveyegge/skillscan/internal/types"
)

// PackageJSONProbe detects Node projects from package.json
type PackageJSONProbe struct {
	opts Options
}

func (p *PackageJSONProbe) Name() string { return "packagejson" }

// lockfiles in precedence order
var lockfiles = []struct {
	file    string
	manager string
}{
	{"pnpm-lock.yaml", "pnpm"},
	{"yarn.lock", "yarn"},
	{"bun.lockb", "bun"},
	{"bun.lock", "bun"},
	{"package-lock.json", "npm"},
}

func (p *PackageJSONProbe) Probe(ctx context.Context, fs fsprobe.Reader) Evidence {
	var e Evidence
	if !fs.Exists("package.json") {
		return e
	}

	e.SetFlag(types.FlagNode)

	content, ok := fs.ReadText("package.json", p.opts.MaxReadBytes)
	e.AddPackageManager(detectNodePackageManager(fs, content))

	deps := []string{}
	if ok && gjson.Valid(content) {
		deps = PackageJSONDeps(content)
		e.SetVersion("node", gjson.Get(content, "engines.node").String())
	}

	if slices.Contains(deps, "typescript") || fs.Exists("tsconfig.json") {
		e.AddLanguage("typescript")
		e.SetFlag(types.FlagTypeScript)
	}
	e.AddLanguage("javascript")

	applyExact(&e, nodeRules, deps...)
	if slices.Contains(deps, "react") || slices.Contains(deps, "next") {
		e.SetFlag(types.FlagReact)
	}
	return e
}

// PackageJSONDeps returns the sorted names from dependencies and devDependencies.
func PackageJSONDeps(content string) []string {
	seen := make(map[string]bool)
	for _, field := range []string{"dependencies", "devDependencies", "peerDependencies"} {
		gjson.Get(content, field).ForEach(func(key, _ gjson.Result) bool {
			seen[key.String()] = true
			return true
		})
	}
	deps := make([]string, 0, len(seen))
	for d := range seen {
		deps = append(deps, d)
	}
	sort.Strings(deps)
	return deps
}

// detectNodePackageManager prefers the packageManager field of the manifest
// content, then lockfiles.
func detectNodePackageManager(fs fsprobe.Reader, manifest string) string {
	// "packageManager": "pnpm@9.1.0"
	if pm := gjson.Get(manifest, "packageManager").String(); pm != "" {
		name, _, _ := strings.Cut(pm, "@")
		return name
	}
	for _, lf := range lockfiles {
		if fs.Exists(lf.file) {
			return lf.manager
		}
	}
	return "npm"
}
