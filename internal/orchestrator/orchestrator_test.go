package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/steveyegge/skillscan/internal/analyzer"
	"github.com/steveyegge/skillscan/internal/analyzer/analyzers"
	"github.com/steveyegge/skillscan/internal/fsprobe"
	"github.com/steveyegge/skillscan/internal/logging"
	"github.com/steveyegge/skillscan/internal/probe"
	"github.com/steveyegge/skillscan/internal/sink"
	"github.com/steveyegge/skillscan/internal/stack"
	"github.com/steveyegge/skillscan/internal/types"
)

type stubAnalyzer struct {
	name string
	cat  types.Category
	fn   func(ctx context.Context, env analyzer.Env) ([]types.Skill, error)
}

func (s *stubAnalyzer) Name() string             { return s.name }
func (s *stubAnalyzer) Category() types.Category { return s.cat }
func (s *stubAnalyzer) Description() string      { return "stub " + s.name }

func (s *stubAnalyzer) Analyze(ctx context.Context, env analyzer.Env) ([]types.Skill, error) {
	return s.fn(ctx, env)
}

func skillFor(name string, cat types.Category) types.Skill {
	return analyzer.NewSkill(name, cat).
		DisplayName("Skill " + name).
		Guidelines("Do the thing for " + name + ".").
		Build()
}

// emits returns a stub analyzer that produces one skill after an optional delay
func emits(name string, cat types.Category, delay time.Duration) *stubAnalyzer {
	return &stubAnalyzer{name: name, cat: cat, fn: func(ctx context.Context, _ analyzer.Env) ([]types.Skill, error) {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return []types.Skill{skillFor(name+"-skill", cat)}, nil
	}}
}

func fails(name string, err error) *stubAnalyzer {
	return &stubAnalyzer{name: name, cat: types.CategoryBackend, fn: func(context.Context, analyzer.Env) ([]types.Skill, error) {
		return nil, err
	}}
}

// recordingSink remembers every skill it was handed, in order
type recordingSink struct {
	mu     sync.Mutex
	skills []types.Skill
	dests  []string
	fail   map[string]bool
}

func (r *recordingSink) Persist(_ context.Context, skill types.Skill, destRoot string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[skill.Name] {
		return errors.New("write refused")
	}
	r.skills = append(r.skills, skill)
	r.dests = append(r.dests, destRoot)
	return nil
}

func (r *recordingSink) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for _, s := range r.skills {
		names = append(names, s.Name)
	}
	return names
}

func registry(t *testing.T, as ...analyzer.Analyzer) *analyzer.Registry {
	t.Helper()
	r := analyzer.NewRegistry()
	for _, a := range as {
		require.NoError(t, r.Register(a))
	}
	return r
}

func workspace(t *testing.T, files map[string]string) *fsprobe.OSReader {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
	return reader(t, root)
}

func reader(t *testing.T, root string) *fsprobe.OSReader {
	t.Helper()
	r, err := fsprobe.NewOSReader(root, fsprobe.Options{Ignore: []string{"node_modules"}})
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

func builder() *stack.Builder {
	return stack.New(logging.Nop(), probe.DefaultSet(probe.DefaultOptions())...)
}

func summaryNames(report *types.AnalysisReport) []string {
	var names []string
	for _, a := range report.Analyzers {
		names = append(names, a.Name)
	}
	return names
}

func TestReportOrderIndependentOfCompletionOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	var mu sync.Mutex
	var finished []string
	tracked := func(name string, cat types.Category, delay time.Duration) *stubAnalyzer {
		inner := emits(name, cat, delay)
		return &stubAnalyzer{name: name, cat: cat, fn: func(ctx context.Context, env analyzer.Env) ([]types.Skill, error) {
			skills, err := inner.fn(ctx, env)
			mu.Lock()
			finished = append(finished, name)
			mu.Unlock()
			return skills, err
		}}
	}

	// Earlier registrations sleep longer, so they finish last
	reg := registry(t,
		tracked("first", types.CategorySecurity, 150*time.Millisecond),
		tracked("second", types.CategoryTesting, 75*time.Millisecond),
		tracked("third", types.CategoryAPI, 0),
	)
	rec := &recordingSink{}
	o := New(reg, builder(), rec, logging.Nop(), Options{})

	res, err := o.Run(context.Background(), workspace(t, nil))
	require.NoError(t, err)

	assert.Equal(t, []string{"third", "second", "first"}, finished)
	assert.Equal(t, []string{"first", "second", "third"}, summaryNames(res.Report))
	assert.Equal(t, []string{"first-skill", "second-skill", "third-skill"}, rec.names())
	assert.Equal(t, 3, res.Report.TotalSkillsGenerated)
}

func TestTwoFailuresDoNotAffectOthers(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := registry(t,
		emits("security", types.CategorySecurity, 0),
		fails("broken", errors.New("manifest exploded")),
		emits("testing", types.CategoryTesting, 0),
		&stubAnalyzer{name: "panicky", cat: types.CategoryReact, fn: func(context.Context, analyzer.Env) ([]types.Skill, error) {
			panic("nil map")
		}},
	)
	rec := &recordingSink{}
	res, err := New(reg, builder(), rec, logging.Nop(), Options{}).Run(context.Background(), workspace(t, nil))
	require.NoError(t, err, "analyzer failures never fail the run")

	report := res.Report
	require.Len(t, report.Analyzers, 4)
	assert.Equal(t, []string{"security", "broken", "testing", "panicky"}, summaryNames(report))
	assert.Equal(t, []string{"broken", "panicky"}, report.FailedAnalyzers())
	assert.Equal(t, 2, report.TotalSkillsGenerated)

	assert.Equal(t, types.StatusFailed, report.Analyzers[1].Status)
	assert.Equal(t, "manifest exploded", report.Analyzers[1].Error)
	assert.Equal(t, 0, report.Analyzers[1].SkillsGenerated)
	assert.True(t, errors.Is(res.Outcomes[3].Err, ErrAnalyzerPanic))
	assert.Contains(t, report.Analyzers[3].Error, "nil map")

	assert.Equal(t, []string{"security-skill", "testing-skill"}, rec.names())
	summary := report.Summary()
	assert.Contains(t, summary, "Analyzers: 4 (2 failed)")
	assert.Contains(t, summary, "  - broken: failed: manifest exploded")
}

func TestMissingRootFailsRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	missing := filepath.Join(t.TempDir(), "gone")
	rec := &recordingSink{}
	called := false
	reg := registry(t, &stubAnalyzer{name: "x", cat: types.CategoryAPI, fn: func(context.Context, analyzer.Env) ([]types.Skill, error) {
		called = true
		return nil, nil
	}})

	res, err := New(reg, builder(), rec, logging.Nop(), Options{}).Run(context.Background(), reader(t, missing))
	require.Error(t, err)
	assert.ErrorIs(t, err, stack.ErrWorkspaceInaccessible)
	require.NotNil(t, res)
	assert.Nil(t, res.Report)
	assert.Equal(t, []State{StateIdle, StateFailed}, res.States)
	assert.False(t, called, "no analyzer runs without a stack")
	assert.Empty(t, rec.names())
}

func TestAnalyzerTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := registry(t,
		&stubAnalyzer{name: "slow", cat: types.CategoryPerformance, fn: func(ctx context.Context, _ analyzer.Env) ([]types.Skill, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}},
		emits("fast", types.CategoryAPI, 0),
	)
	res, err := New(reg, builder(), &recordingSink{}, logging.Nop(), Options{AnalyzerTimeout: 50 * time.Millisecond}).
		Run(context.Background(), workspace(t, nil))
	require.NoError(t, err)

	assert.True(t, res.Outcomes[0].Failed())
	assert.ErrorIs(t, res.Outcomes[0].Err, ErrAnalyzerTimeout)
	assert.False(t, res.Outcomes[1].Failed())
	assert.Equal(t, 1, res.Report.TotalSkillsGenerated)
}

func TestAnalyzerGoexitWithoutTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := registry(t,
		&stubAnalyzer{name: "quitter", cat: types.CategoryTesting, fn: func(context.Context, analyzer.Env) ([]types.Skill, error) {
			runtime.Goexit()
			return nil, nil
		}},
		emits("fast", types.CategoryAPI, 0),
	)

	fs := workspace(t, nil)
	finished := make(chan struct{})
	var res *Result
	var err error
	go func() {
		defer close(finished)
		res, err = New(reg, builder(), &recordingSink{}, logging.Nop(), Options{}).
			Run(context.Background(), fs)
	}()
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not settle after an analyzer called runtime.Goexit")
	}

	require.NoError(t, err)
	assert.True(t, res.Outcomes[0].Failed())
	assert.ErrorIs(t, res.Outcomes[0].Err, ErrAnalyzerExited)
	assert.False(t, res.Outcomes[1].Failed())
	assert.Equal(t, 1, res.Report.TotalSkillsGenerated)
}

func TestInvalidSkillFailsAnalyzer(t *testing.T) {
	reg := registry(t, &stubAnalyzer{name: "sloppy", cat: types.CategoryAPI, fn: func(context.Context, analyzer.Env) ([]types.Skill, error) {
		return []types.Skill{{Name: "Not A Slug", Category: types.CategoryAPI, DisplayName: "x"}}, nil
	}})
	rec := &recordingSink{}
	res, err := New(reg, builder(), rec, logging.Nop(), Options{}).Run(context.Background(), workspace(t, nil))
	require.NoError(t, err)

	assert.ErrorIs(t, res.Outcomes[0].Err, ErrInvalidOutput)
	assert.Equal(t, 0, res.Report.TotalSkillsGenerated)
	assert.Empty(t, rec.names())
}

func TestZeroSkillsIsSuccess(t *testing.T) {
	reg := registry(t, &stubAnalyzer{name: "quiet", cat: types.CategoryDatabase, fn: func(context.Context, analyzer.Env) ([]types.Skill, error) {
		return nil, nil
	}})
	res, err := New(reg, builder(), &recordingSink{}, logging.Nop(), Options{}).Run(context.Background(), workspace(t, nil))
	require.NoError(t, err)
	assert.Equal(t, types.StatusSuccess, res.Report.Analyzers[0].Status)
	assert.Equal(t, 0, res.Report.Analyzers[0].SkillsGenerated)
	assert.Empty(t, res.Report.FailedAnalyzers())
}

func TestDryRunSkipsSink(t *testing.T) {
	reg := registry(t, emits("a", types.CategoryAPI, 0))
	res, err := New(reg, builder(), nil, logging.Nop(), Options{DryRun: true}).Run(context.Background(), workspace(t, nil))
	require.NoError(t, err)
	assert.Empty(t, res.Report.Persisted)
	assert.Equal(t, 1, res.Report.TotalSkillsGenerated)
	assert.Equal(t, []State{
		StateIdle, StateStackBuilt, StateAnalyzersRunning, StateAggregated, StatePersisted, StateDone,
	}, res.States)
}

func TestNoSinkWithoutDryRun(t *testing.T) {
	reg := registry(t, emits("a", types.CategoryAPI, 0))
	res, err := New(reg, builder(), nil, logging.Nop(), Options{}).Run(context.Background(), workspace(t, nil))
	require.Error(t, err)
	assert.Nil(t, res.Report)
}

func TestUnknownAnalyzerSelection(t *testing.T) {
	reg := registry(t, emits("a", types.CategoryAPI, 0))
	_, err := New(reg, builder(), &recordingSink{}, logging.Nop(), Options{Analyzers: []string{"nope"}}).
		Run(context.Background(), workspace(t, nil))
	assert.ErrorIs(t, err, analyzer.ErrUnknownAnalyzer)
}

func TestSelectedAnalyzersKeepRegistrationOrder(t *testing.T) {
	reg := registry(t,
		emits("a", types.CategoryAPI, 0),
		emits("b", types.CategorySecurity, 0),
		emits("c", types.CategoryTesting, 0),
	)
	res, err := New(reg, builder(), &recordingSink{}, logging.Nop(), Options{Analyzers: []string{"c", "a"}}).
		Run(context.Background(), workspace(t, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, summaryNames(res.Report))
}

func TestMaxConcurrency(t *testing.T) {
	defer goleak.VerifyNone(t)

	var running, peak atomic.Int32
	gated := func(name string) *stubAnalyzer {
		return &stubAnalyzer{name: name, cat: types.CategoryAPI, fn: func(context.Context, analyzer.Env) ([]types.Skill, error) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			running.Add(-1)
			return nil, nil
		}}
	}
	reg := registry(t, gated("a"), gated("b"), gated("c"), gated("d"))
	_, err := New(reg, builder(), &recordingSink{}, logging.Nop(), Options{MaxConcurrency: 1}).
		Run(context.Background(), workspace(t, nil))
	require.NoError(t, err)
	assert.Equal(t, int32(1), peak.Load())
}

func TestPersistFailuresAreRecorded(t *testing.T) {
	reg := registry(t, emits("a", types.CategoryAPI, 0), emits("b", types.CategoryTesting, 0))
	rec := &recordingSink{fail: map[string]bool{"a-skill": true}}
	res, err := New(reg, builder(), rec, logging.Nop(), Options{OutputDir: "out"}).Run(context.Background(), workspace(t, nil))
	require.NoError(t, err)

	require.Len(t, res.Report.Persisted, 2)
	assert.False(t, res.Report.Persisted[0].OK())
	assert.True(t, res.Report.Persisted[1].OK())
	assert.Equal(t, 1, res.Report.PersistFailures())
	assert.Equal(t, []string{filepath.Join(res.Report.Root, "out")}, rec.dests)
}

func TestEndToEndWithFileSink(t *testing.T) {
	defer goleak.VerifyNone(t)

	fs := workspace(t, map[string]string{
		"package.json": `{
  "scripts": {"test": "jest"},
  "dependencies": {"express": "^4.19.0", "react": "^18.0.0"},
  "devDependencies": {"jest": "^29.7.0"}
}`,
		"src/App.jsx": "export default function App() { return null }",
	})
	reg := analyzer.NewRegistry()
	require.NoError(t, analyzers.RegisterAll(reg, analyzers.DefaultOptions()))
	o := New(reg, builder(), sink.NewFileSink(), logging.Nop(), Options{AnalyzerTimeout: 10 * time.Second})

	res, err := o.Run(context.Background(), fs)
	require.NoError(t, err)
	report := res.Report

	assert.Len(t, report.Analyzers, reg.Len())
	assert.Empty(t, report.FailedAnalyzers())
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, report.TechStack.Fingerprint(), report.StackFingerprint)
	require.Equal(t, report.TotalSkillsGenerated, len(report.Persisted))
	assert.Zero(t, report.PersistFailures())

	for _, p := range report.Persisted {
		assert.FileExists(t, p.Path)
		skill, err := sink.ReadSkill(p.Path)
		require.NoError(t, err)
		assert.Equal(t, p.Name, skill.Name)
	}

	var react *types.AnalyzerSummary
	for i := range report.Analyzers {
		if report.Analyzers[i].Name == "react" {
			react = &report.Analyzers[i]
		}
	}
	require.NotNil(t, react)
	assert.Equal(t, 1, react.SkillsGenerated)

	// A second run over the same workspace produces the same skills
	again, err := o.Run(context.Background(), fs)
	require.NoError(t, err)
	for i := range res.Outcomes {
		assert.Equal(t, res.Outcomes[i].Skills, again.Outcomes[i].Skills)
	}
	assert.Equal(t, report.StackFingerprint, again.Report.StackFingerprint)
}

func TestStateTransitions(t *testing.T) {
	assert.True(t, StateIdle.CanTransitionTo(StateStackBuilt))
	assert.True(t, StateIdle.CanTransitionTo(StateFailed))
	assert.True(t, StateStackBuilt.CanTransitionTo(StateFailed))
	assert.False(t, StateAnalyzersRunning.CanTransitionTo(StateFailed))
	assert.False(t, StateIdle.CanTransitionTo(StateDone))
	assert.True(t, StateDone.IsTerminal())
	assert.Empty(t, StateFailed.ValidTransitions())

	m := newMachine(logging.Nop())
	require.NoError(t, m.transition(StateStackBuilt))
	err := m.transition(StatePersisted)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, []State{StateIdle, StateStackBuilt}, m.states())
}
