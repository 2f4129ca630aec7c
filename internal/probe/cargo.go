package probe

import (
	"context"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/steveyegge/skillscan/internal/fsprobe"
	"github.com/steveyegge/skillscan/internal/types"
)

// CargoProbe detects Rust crates from Cargo.toml
type CargoProbe struct {
	opts Options
}

func (p *CargoProbe) Name() string { return "cargo" }

type cargoManifest struct {
	Package struct {
		RustVersion string `toml:"rust-version"`
	} `toml:"package"`
	Dependencies    map[string]interface{} `toml:"dependencies"`
	DevDependencies map[string]interface{} `toml:"dev-dependencies"`
	Workspace       struct {
		Dependencies map[string]interface{} `toml:"dependencies"`
	} `toml:"workspace"`
}

// SQL crates whose backend is chosen through cargo features
var sqlCrates = []string{"sqlx", "diesel", "sea-orm"}

var sqlFeatures = []struct {
	feature  string
	database string
}{
	{"postgres", "postgresql"},
	{"mysql", "mysql"},
	{"sqlite", "sqlite"},
}

func (p *CargoProbe) Probe(ctx context.Context, fs fsprobe.Reader) Evidence {
	var e Evidence
	if !fs.Exists("Cargo.toml") {
		return e
	}

	e.AddLanguage("rust")
	e.SetFlag(types.FlagRust)
	e.AddBuildTool("cargo")
	e.AddPackageManager("cargo")

	content, ok := fs.ReadText("Cargo.toml", p.opts.MaxReadBytes)
	if !ok {
		return e
	}
	var m cargoManifest
	if _, err := toml.Decode(content, &m); err != nil {
		return e
	}
	e.SetVersion("rust", m.Package.RustVersion)

	all := make(map[string]interface{})
	for _, table := range []map[string]interface{}{m.Workspace.Dependencies, m.Dependencies, m.DevDependencies} {
		for name, spec := range table {
			if _, ok := all[name]; !ok {
				all[name] = spec
			}
		}
	}
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	applyExact(&e, cargoRules, names...)
	for _, crate := range sqlCrates {
		spec, ok := all[crate]
		if !ok {
			continue
		}
		for _, feat := range crateFeatures(spec) {
			for _, sf := range sqlFeatures {
				if strings.Contains(feat, sf.feature) {
					e.AddDatabase(sf.database)
				}
			}
		}
	}
	return e
}

// crateFeatures extracts the features list from a dependency spec like
// sqlx = { version = "0.7", features = ["postgres", "runtime-tokio"] }
func crateFeatures(spec interface{}) []string {
	table, ok := spec.(map[string]interface{})
	if !ok {
		return nil
	}
	raw, ok := table["features"].([]interface{})
	if !ok {
		return nil
	}
	features := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			features = append(features, s)
		}
	}
	return features
}
