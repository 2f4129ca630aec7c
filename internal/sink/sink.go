// Package sink persists generated skills.
//
// A Sink is handed one skill at a time, in report order. Failures are returned
// as values and recorded per skill; one bad write never stops the others.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/steveyegge/skillscan/internal/types"
)

// ErrInvalidSkill is returned when a skill fails validation before writing
var ErrInvalidSkill = errors.New("invalid skill")

// ErrSinkPanic marks a skill whose Persist call panicked
var ErrSinkPanic = errors.New("sink panicked")

// Sink writes a skill under destRoot, deriving the location from its
// category and name. Implementations create directories as needed and
// report failures as errors, never panics.
type Sink interface {
	Persist(ctx context.Context, skill types.Skill, destRoot string) error
}

// Locator is implemented by sinks that can say where a skill ends up.
type Locator interface {
	Location(skill types.Skill, destRoot string) string
}

// Names of the built-in sinks, as used in configuration
const (
	NameFiles  = "files"
	NameSQLite = "sqlite"
)

// IsValidName reports whether name is a built-in sink
func IsValidName(name string) bool {
	return name == NameFiles || name == NameSQLite
}

// FromNames builds the sink for a configuration list. Several names fan out
// through a MultiSink. The result should be closed with Close.
func FromNames(names []string) (Sink, error) {
	if len(names) == 0 {
		names = []string{NameFiles}
	}
	sinks := make([]Sink, 0, len(names))
	for _, name := range names {
		switch name {
		case NameFiles:
			sinks = append(sinks, NewFileSink())
		case NameSQLite:
			sinks = append(sinks, NewSQLiteSink())
		default:
			return nil, fmt.Errorf("unknown sink %q (valid: %s, %s)", name, NameFiles, NameSQLite)
		}
	}
	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return NewMultiSink(sinks...), nil
}

// Close releases resources held by s if it has any.
func Close(s Sink) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// PersistAll hands every skill to the sink in order and records one result
// per skill. It never stops early; after cancellation the remaining skills
// are recorded with the context error.
func PersistAll(ctx context.Context, s Sink, skills []types.Skill, destRoot string) []types.PersistResult {
	results := make([]types.PersistResult, 0, len(skills))
	loc, _ := s.(Locator)

	for _, skill := range skills {
		res := types.PersistResult{Category: skill.Category, Name: skill.Name}
		if loc != nil {
			res.Path = loc.Location(skill, destRoot)
		}

		var err error
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		} else {
			err = persistOne(ctx, s, skill, destRoot)
		}
		if err != nil {
			res.Error = err.Error()
			res.Path = ""
		}
		results = append(results, res)
	}
	return results
}

// persistOne turns a panicking Persist into an error for that skill only
func persistOne(ctx context.Context, s Sink, skill types.Skill, destRoot string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSinkPanic, r)
		}
	}()
	return s.Persist(ctx, skill, destRoot)
}

// validate wraps a validation failure with ErrInvalidSkill
func validate(skill types.Skill) error {
	if err := skill.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSkill, err)
	}
	return nil
}

// MultiSink fans a skill out to several sinks
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a sink that writes to every given sink in order
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Persist writes to every sink and joins their errors.
func (m *MultiSink) Persist(ctx context.Context, skill types.Skill, destRoot string) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Persist(ctx, skill, destRoot); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Location reports the first location any child sink knows about
func (m *MultiSink) Location(skill types.Skill, destRoot string) string {
	for _, s := range m.sinks {
		if loc, ok := s.(Locator); ok {
			if p := loc.Location(skill, destRoot); p != "" {
				return p
			}
		}
	}
	return ""
}

// Close closes every child sink
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := Close(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
