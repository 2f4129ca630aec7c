package probe

import (
	"bufio"
	"context"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/steveyegge/skillscan/internal/fsprobe"
	"github.com/steveyegge/skillscan/internal/types"
)

// PythonProbe detects Python projects from requirements files, pyproject.toml,
// Pipfile and setup.py
type PythonProbe struct {
	opts Options
}

func (p *PythonProbe) Name() string { return "python" }

type pyProject struct {
	Project struct {
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
		RequiresPython       string              `toml:"requires-python"`
	} `toml:"project"`
	DependencyGroups map[string][]interface{} `toml:"dependency-groups"`
	Tool             struct {
		Poetry *struct {
			Dependencies    map[string]interface{} `toml:"dependencies"`
			DevDependencies map[string]interface{} `toml:"dev-dependencies"`
			Group           map[string]struct {
				Dependencies map[string]interface{} `toml:"dependencies"`
			} `toml:"group"`
		} `toml:"poetry"`
		UV *struct{} `toml:"uv"`
	} `toml:"tool"`
}

func (p *PythonProbe) Probe(ctx context.Context, fs fsprobe.Reader) Evidence {
	var e Evidence
	var deps []string
	found := false

	for _, req := range []string{"requirements.txt", "requirements-dev.txt", "requirements/base.txt"} {
		if content, ok := fs.ReadText(req, p.opts.MaxReadBytes); ok {
			found = true
			e.AddPackageManager("pip")
			deps = append(deps, ParseRequirements(content)...)
		}
	}

	if content, ok := fs.ReadText("pyproject.toml", p.opts.MaxReadBytes); ok {
		found = true
		var proj pyProject
		if _, err := toml.Decode(content, &proj); err == nil {
			deps = append(deps, pyProjectDeps(&proj)...)
			e.SetVersion("python", proj.Project.RequiresPython)
			if proj.Tool.Poetry != nil {
				e.AddPackageManager("poetry")
				if v, ok := proj.Tool.Poetry.Dependencies["python"].(string); ok {
					e.SetVersion("python", v)
				}
			}
			if proj.Tool.UV != nil {
				e.AddPackageManager("uv")
			}
		}
	}

	if fs.Exists("Pipfile") {
		found = true
		e.AddPackageManager("pipenv")
	}
	if fs.Exists("setup.py") || fs.Exists("setup.cfg") {
		found = true
		e.AddPackageManager("pip")
	}
	if fs.Exists("poetry.lock") {
		e.AddPackageManager("poetry")
	}
	if fs.Exists("uv.lock") {
		e.AddPackageManager("uv")
	}

	if !found {
		return Evidence{}
	}
	e.AddLanguage("python")
	e.SetFlag(types.FlagPython)
	applyExact(&e, pythonRules, deps...)
	return e
}

// ParseRequirements extracts normalized distribution names from a
// requirements.txt body. Options, includes and URLs are skipped.
func ParseRequirements(content string) []string {
	var names []string
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if i := strings.Index(line, "#"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" || strings.HasPrefix(line, "-") || strings.Contains(line, "://") {
			continue
		}
		if name := requirementName(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// requirementName turns "Flask[async]>=2.0 ; python_version>'3.8'" into "flask".
func requirementName(spec string) string {
	end := strings.IndexAny(spec, "=<>!~[;@ \t(")
	if end >= 0 {
		spec = spec[:end]
	}
	return normalizePyName(spec)
}

func normalizePyName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("_", "-", ".", "-").Replace(name)
}

func pyProjectDeps(proj *pyProject) []string {
	var deps []string
	for _, d := range proj.Project.Dependencies {
		deps = append(deps, requirementName(d))
	}
	groups := make([]string, 0, len(proj.Project.OptionalDependencies))
	for g := range proj.Project.OptionalDependencies {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	for _, g := range groups {
		for _, d := range proj.Project.OptionalDependencies[g] {
			deps = append(deps, requirementName(d))
		}
	}
	for _, items := range proj.DependencyGroups {
		for _, item := range items {
			// Entries are requirement strings or {include-group = "..."} tables
			if d, ok := item.(string); ok {
				deps = append(deps, requirementName(d))
			}
		}
	}
	if poetry := proj.Tool.Poetry; poetry != nil {
		for name := range poetry.Dependencies {
			deps = append(deps, normalizePyName(name))
		}
		for name := range poetry.DevDependencies {
			deps = append(deps, normalizePyName(name))
		}
		for _, group := range poetry.Group {
			for name := range group.Dependencies {
				deps = append(deps, normalizePyName(name))
			}
		}
	}
	sort.Strings(deps)
	return deps
}
