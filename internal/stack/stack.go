// Package stack builds the immutable TechStack for a workspace.
//
// Building has exactly one fatal condition: the workspace root itself cannot be
// read. Everything after that is best-effort. Probes run concurrently, a probe
// that panics contributes nothing, and the results are folded in registration
// order so the stack is identical no matter how the probes were scheduled.
package stack

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/steveyegge/skillscan/internal/fsprobe"
	"github.com/steveyegge/skillscan/internal/logging"
	"github.com/steveyegge/skillscan/internal/probe"
	"github.com/steveyegge/skillscan/internal/types"
)

// ErrWorkspaceInaccessible means the root does not exist, is not a directory,
// or cannot be listed.
var ErrWorkspaceInaccessible = errors.New("workspace inaccessible")

// Builder runs probes and folds their evidence
type Builder struct {
	probes []probe.Probe
	log    logging.Logger
}

// New creates a builder over the given probes. Registration order is fold order.
func New(log logging.Logger, probes ...probe.Probe) *Builder {
	if log == nil {
		log = logging.Nop()
	}
	return &Builder{probes: probes, log: log.With("component", "stack")}
}

// Probes returns the registered probes in fold order
func (b *Builder) Probes() []probe.Probe {
	return append([]probe.Probe(nil), b.probes...)
}

// Build validates the workspace root and produces its TechStack.
func (b *Builder) Build(ctx context.Context, fs fsprobe.Reader) (*types.TechStack, error) {
	if err := ValidateRoot(fs.Root()); err != nil {
		return nil, err
	}

	start := time.Now()
	evidence := make([]probe.Evidence, len(b.probes))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range b.probes {
		g.Go(func() error {
			evidence[i] = b.runProbe(gctx, p, fs)
			return nil
		})
	}
	// Probe goroutines never return errors
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("stack build cancelled: %w", err)
	}

	s := Fold(evidence...)
	b.log.Info("tech stack built",
		"languages", s.Languages(),
		"frameworks", s.Frameworks(),
		"databases", s.Databases(),
		"probes", len(b.probes),
		"duration", time.Since(start))
	return s, nil
}

// runProbe isolates one probe: a panic becomes empty evidence.
func (b *Builder) runProbe(ctx context.Context, p probe.Probe, fs fsprobe.Reader) (ev probe.Evidence) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Debug("probe panicked", "probe", p.Name(), "panic", fmt.Sprint(r))
			ev = probe.Evidence{}
		}
	}()
	ev = p.Probe(ctx, fs)
	if ev.IsEmpty() {
		b.log.Debug("probe found nothing", "probe", p.Name())
	} else {
		b.log.Debug("probe found evidence", "probe", p.Name(), "languages", ev.Languages)
	}
	return ev
}

// ValidateRoot checks that root exists, is a directory and can be listed.
func ValidateRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWorkspaceInaccessible, root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrWorkspaceInaccessible, root)
	}
	if _, err := os.ReadDir(root); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWorkspaceInaccessible, root, err)
	}
	return nil
}

// Fold merges evidence in the order given. It is a monotonic union: nothing
// one probe contributes can be removed by another. Languages keep first-seen
// order, versions keep the first value, everything else is a sorted set.
func Fold(evidence ...probe.Evidence) *types.TechStack {
	var v types.StackView
	v.Flags = make(map[types.Flag]bool)
	v.Versions = make(map[string]string)

	for _, ev := range evidence {
		v.Languages = append(v.Languages, ev.Languages...)
		v.Frameworks = append(v.Frameworks, ev.Frameworks...)
		v.Databases = append(v.Databases, ev.Databases...)
		v.BuildTools = append(v.BuildTools, ev.BuildTools...)
		v.PackageManagers = append(v.PackageManagers, ev.PackageManagers...)
		v.CloudProviders = append(v.CloudProviders, ev.CloudProviders...)
		for f, on := range ev.Flags {
			if on {
				v.Flags[f] = true
			}
		}
		for k, ver := range ev.Versions {
			if _, ok := v.Versions[k]; !ok && ver != "" {
				v.Versions[k] = ver
			}
		}
	}
	return types.NewTechStack(v)
}
