// Package probe contains the independent filesystem checks that feed the stack builder.
//
// A probe inspects the workspace through an fsprobe.Reader and reports what it saw as
// Evidence. Probes never fail: unreadable or malformed inputs simply produce less
// evidence. They share nothing with each other, so they can run in any order.
package probe

import (
	"context"
	"slices"

	"github.com/steveyegge/skillscan/internal/fsprobe"
	"github.com/steveyegge/skillscan/internal/types"
)

// Probe is a single side-effect-free workspace check
type Probe interface {
	// Name returns the probe identifier (e.g., "gomod")
	Name() string

	// Probe inspects the workspace. It must not panic on bad input and
	// must not write anything.
	Probe(ctx context.Context, fs fsprobe.Reader) Evidence
}

// Evidence is what one probe contributed. Fields only ever grow; the stack
// builder folds evidence from every probe into one TechStack.
type Evidence struct {
	Languages       []string
	Frameworks      []string
	Databases       []string
	BuildTools      []string
	PackageManagers []string
	CloudProviders  []string
	Flags           map[types.Flag]bool
	Versions        map[string]string
}

// AddLanguage appends languages in detection order, skipping ones already present.
func (e *Evidence) AddLanguage(names ...string) {
	e.Languages = appendUnique(e.Languages, names...)
}

func (e *Evidence) AddFramework(names ...string) {
	e.Frameworks = appendUnique(e.Frameworks, names...)
}

func (e *Evidence) AddDatabase(names ...string) {
	e.Databases = appendUnique(e.Databases, names...)
}

func (e *Evidence) AddBuildTool(names ...string) {
	e.BuildTools = appendUnique(e.BuildTools, names...)
}

func (e *Evidence) AddPackageManager(names ...string) {
	e.PackageManagers = appendUnique(e.PackageManagers, names...)
}

func (e *Evidence) AddCloudProvider(names ...string) {
	e.CloudProviders = appendUnique(e.CloudProviders, names...)
}

// SetFlag turns a capability flag on. Flags are never turned off.
func (e *Evidence) SetFlag(flags ...types.Flag) {
	if e.Flags == nil {
		e.Flags = make(map[types.Flag]bool)
	}
	for _, f := range flags {
		e.Flags[f] = true
	}
}

// SetVersion records a toolchain version. The first non-empty value wins.
func (e *Evidence) SetVersion(key, version string) {
	if version == "" {
		return
	}
	if e.Versions == nil {
		e.Versions = make(map[string]string)
	}
	if _, ok := e.Versions[key]; !ok {
		e.Versions[key] = version
	}
}

// IsEmpty reports whether the probe found nothing
func (e Evidence) IsEmpty() bool {
	return len(e.Languages) == 0 && len(e.Frameworks) == 0 && len(e.Databases) == 0 &&
		len(e.BuildTools) == 0 && len(e.PackageManagers) == 0 &&
		len(e.CloudProviders) == 0 && len(e.Flags) == 0 && len(e.Versions) == 0
}

func appendUnique(dst []string, names ...string) []string {
	for _, n := range names {
		if n != "" && !slices.Contains(dst, n) {
			dst = append(dst, n)
		}
	}
	return dst
}

// Options tunes the default probe set
type Options struct {
	// MaxMarkerFiles caps how many candidate files a marker search may read
	MaxMarkerFiles int

	// MaxReadBytes bounds manifest reads (0 = reader default)
	MaxReadBytes int
}

// DefaultOptions returns the standard probe options
func DefaultOptions() Options {
	return Options{
		MaxMarkerFiles: 50,
	}
}

// DefaultSet returns every built-in probe in registration order.
// The order only matters for the order of detected languages.
func DefaultSet(opts Options) []Probe {
	if opts.MaxMarkerFiles <= 0 {
		opts.MaxMarkerFiles = DefaultOptions().MaxMarkerFiles
	}
	return []Probe{
		&GoModProbe{opts: opts},
		&PackageJSONProbe{opts: opts},
		&PythonProbe{opts: opts},
		&CargoProbe{opts: opts},
		&JVMProbe{opts: opts},
		&ContainersProbe{opts: opts},
		&CIProbe{},
		&CloudProbe{opts: opts},
		&ExtensionsProbe{},
		&ReactMarkerProbe{opts: opts},
	}
}

// Func adapts a plain function into a Probe
type Func struct {
	ProbeName string
	Fn        func(ctx context.Context, fs fsprobe.Reader) Evidence
}

func (f Func) Name() string { return f.ProbeName }

func (f Func) Probe(ctx context.Context, fs fsprobe.Reader) Evidence {
	return f.Fn(ctx, fs)
}
