// Package orchestrator runs one skill-generation pass over a workspace.
//
// A run builds the tech stack once, launches every selected analyzer
// concurrently, waits for all of them to settle, aggregates their outcomes
// in registration order and hands the resulting skills to a sink. Only a
// workspace that cannot be scanned fails the run; everything an individual
// analyzer does wrong becomes a failed outcome in the report.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/steveyegge/skillscan/internal/analyzer"
	"github.com/steveyegge/skillscan/internal/fsprobe"
	"github.com/steveyegge/skillscan/internal/logging"
	"github.com/steveyegge/skillscan/internal/sink"
	"github.com/steveyegge/skillscan/internal/stack"
	"github.com/steveyegge/skillscan/internal/types"
)

var (
	// ErrAnalyzerPanic marks an analyzer that panicked
	ErrAnalyzerPanic = errors.New("analyzer panicked")

	// ErrAnalyzerTimeout marks an analyzer that missed its deadline
	ErrAnalyzerTimeout = errors.New("analyzer timed out")

	// ErrAnalyzerExited marks an analyzer whose goroutine exited without
	// returning, e.g. through runtime.Goexit
	ErrAnalyzerExited = errors.New("analyzer exited without returning")

	// ErrInvalidOutput marks an analyzer that returned a skill failing validation
	ErrInvalidOutput = errors.New("analyzer returned an invalid skill")
)

// DefaultOutputDir is used when Options.OutputDir is empty, relative to the root
const DefaultOutputDir = ".claude/skills"

// Options controls a run
type Options struct {
	// OutputDir is the destination root handed to the sink.
	// Empty means DefaultOutputDir under the workspace root.
	OutputDir string

	// Analyzers selects analyzers by name; empty runs every registered one
	Analyzers []string

	// AnalyzerTimeout bounds each analyzer (0 = no deadline)
	AnalyzerTimeout time.Duration

	// MaxConcurrency caps analyzers running at once (0 = no cap)
	MaxConcurrency int

	// DryRun skips persistence
	DryRun bool
}

// Result is everything one run produced. Report is nil when the run failed.
type Result struct {
	Report   *types.AnalysisReport
	Outcomes []types.AnalyzerOutcome
	States   []State
}

// Orchestrator coordinates the stack builder, the analyzers and the sink
type Orchestrator struct {
	registry *analyzer.Registry
	builder  *stack.Builder
	sink     sink.Sink
	log      logging.Logger
	opts     Options

	now   func() time.Time
	newID func() string
}

// New creates an orchestrator. The sink may be nil only for dry runs.
func New(registry *analyzer.Registry, builder *stack.Builder, s sink.Sink, log logging.Logger, opts Options) *Orchestrator {
	if log == nil {
		log = logging.Nop()
	}
	return &Orchestrator{
		registry: registry,
		builder:  builder,
		sink:     s,
		log:      log.With("component", "orchestrator"),
		opts:     opts,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Run performs one pass over the workspace behind fs.
//
// The returned Result is never nil; on error it carries the state trace
// ending in StateFailed and no report.
func (o *Orchestrator) Run(ctx context.Context, fs fsprobe.Reader) (*Result, error) {
	m := newMachine(o.log)
	res := &Result{}
	fail := func(err error) (*Result, error) {
		if terr := m.transition(StateFailed); terr != nil {
			err = errors.Join(err, terr)
		}
		res.States = m.states()
		o.log.Error("skill generation failed", "error", err)
		return res, err
	}

	if o.sink == nil && !o.opts.DryRun {
		return fail(fmt.Errorf("no sink configured"))
	}
	analyzers, err := o.registry.Resolve(o.opts.Analyzers)
	if err != nil {
		return fail(err)
	}

	runID := o.newID()
	start := o.now()
	log := o.log.With("run_id", runID)

	techStack, err := o.builder.Build(ctx, fs)
	if err != nil {
		return fail(err)
	}
	if err := m.transition(StateStackBuilt); err != nil {
		return fail(err)
	}
	if err := ctx.Err(); err != nil {
		return fail(fmt.Errorf("run cancelled: %w", err))
	}

	if err := m.transition(StateAnalyzersRunning); err != nil {
		return fail(err)
	}
	env := analyzer.Env{Root: fs.Root(), Stack: techStack, FS: fs, Log: log}
	res.Outcomes = o.runAnalyzers(ctx, analyzers, env)

	if err := m.transition(StateAggregated); err != nil {
		return fail(err)
	}
	report := aggregate(res.Outcomes)
	report.RunID = runID
	report.Root = fs.Root()
	report.TechStack = techStack
	report.StackFingerprint = techStack.Fingerprint()
	report.Timestamp = start

	if o.opts.DryRun {
		log.Info("dry run, skipping persistence", "skills", report.TotalSkillsGenerated)
	} else {
		dest := o.outputDir(fs.Root())
		report.Persisted = sink.PersistAll(ctx, o.sink, collectSkills(res.Outcomes), dest)
		for _, p := range report.Persisted {
			if !p.OK() {
				log.Error("failed to persist skill", "category", string(p.Category), "skill", p.Name, "error", p.Error)
			}
		}
	}
	// Aggregated → Persisted → Done cannot fail
	_ = m.transition(StatePersisted)
	_ = m.transition(StateDone)

	report.Duration = o.now().Sub(start)
	res.Report = report
	res.States = m.states()

	log.Info("skill generation complete",
		"analyzers", len(report.Analyzers),
		"failed", len(report.FailedAnalyzers()),
		"skills", report.TotalSkillsGenerated,
		"duration", report.Duration)
	return res, nil
}

func (o *Orchestrator) outputDir(root string) string {
	dir := o.opts.OutputDir
	if dir == "" {
		dir = DefaultOutputDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}

// runAnalyzers launches every analyzer and waits for all of them. Each
// goroutine writes only its own slot, so the result is in registration order
// whatever order they finish in.
func (o *Orchestrator) runAnalyzers(ctx context.Context, analyzers []analyzer.Analyzer, env analyzer.Env) []types.AnalyzerOutcome {
	outcomes := make([]types.AnalyzerOutcome, len(analyzers))

	var g errgroup.Group
	if o.opts.MaxConcurrency > 0 {
		g.SetLimit(o.opts.MaxConcurrency)
	}
	for i, a := range analyzers {
		g.Go(func() error {
			outcomes[i] = o.runAnalyzer(ctx, a, env)
			return nil
		})
	}
	// Analyzer goroutines never return errors
	_ = g.Wait()
	return outcomes
}

type analyzeResult struct {
	skills []types.Skill
	err    error
}

// runAnalyzer isolates one analyzer behind its own deadline and panic guard
// and settles it into an outcome.
func (o *Orchestrator) runAnalyzer(ctx context.Context, a analyzer.Analyzer, env analyzer.Env) types.AnalyzerOutcome {
	start := time.Now()
	name := a.Name()
	env.Log = env.Log.With("analyzer", name)

	actx, cancel := ctx, context.CancelFunc(func() {})
	if o.opts.AnalyzerTimeout > 0 {
		actx, cancel = context.WithTimeout(ctx, o.opts.AnalyzerTimeout)
	}
	defer cancel()

	done := make(chan analyzeResult, 1)
	go func() {
		sent := false
		defer func() {
			if r := recover(); r != nil {
				done <- analyzeResult{err: fmt.Errorf("%w: %v", ErrAnalyzerPanic, r)}
			} else if !sent {
				done <- analyzeResult{err: ErrAnalyzerExited}
			}
		}()
		skills, err := a.Analyze(actx, env)
		done <- analyzeResult{skills: skills, err: err}
		sent = true
	}()

	var r analyzeResult
	select {
	case r = <-done:
	case <-actx.Done():
		r.err = actx.Err()
	}
	// An analyzer that noticed its own deadline reports the same timeout
	if r.err != nil && errors.Is(actx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		r.err = fmt.Errorf("%w after %v", ErrAnalyzerTimeout, o.opts.AnalyzerTimeout)
	}
	if r.err == nil {
		r.err = validateSkills(r.skills)
	}

	outcome := types.AnalyzerOutcome{AnalyzerName: name, Duration: time.Since(start)}
	if r.err != nil {
		outcome.Status = types.StatusFailed
		outcome.Err = r.err
		env.Log.Error("analyzer failed", "error", r.err, "duration", outcome.Duration)
		return outcome
	}
	outcome.Status = types.StatusSuccess
	outcome.Skills = r.skills
	env.Log.Debug("analyzer finished", "skills", len(r.skills), "duration", outcome.Duration)
	return outcome
}

func validateSkills(skills []types.Skill) error {
	for i := range skills {
		if err := skills[i].Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidOutput, err)
		}
	}
	return nil
}

// aggregate folds outcomes into a report, keeping their order
func aggregate(outcomes []types.AnalyzerOutcome) *types.AnalysisReport {
	report := &types.AnalysisReport{
		Analyzers: make([]types.AnalyzerSummary, 0, len(outcomes)),
	}
	for _, out := range outcomes {
		summary := types.AnalyzerSummary{
			Name:     out.AnalyzerName,
			Status:   out.Status,
			Duration: out.Duration,
		}
		if out.Failed() {
			summary.Error = out.Err.Error()
		} else {
			summary.SkillsGenerated = len(out.Skills)
			report.TotalSkillsGenerated += len(out.Skills)
		}
		report.Analyzers = append(report.Analyzers, summary)
	}
	return report
}

// collectSkills flattens successful outcomes in report order
func collectSkills(outcomes []types.AnalyzerOutcome) []types.Skill {
	var skills []types.Skill
	for _, out := range outcomes {
		if !out.Failed() {
			skills = append(skills, out.Skills...)
		}
	}
	return skills
}
