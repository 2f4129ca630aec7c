package stack

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/steveyegge/skillscan/internal/fsprobe"
	"github.com/steveyegge/skillscan/internal/logging"
	"github.com/steveyegge/skillscan/internal/probe"
	"github.com/steveyegge/skillscan/internal/types"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
	return root
}

func reader(t *testing.T, root string) *fsprobe.OSReader {
	t.Helper()
	r, err := fsprobe.NewOSReader(root, fsprobe.Options{Ignore: []string{"node_modules"}, CacheBytes: 1 << 20})
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

var polyglot = map[string]string{
	"go.mod":                   "module x\n\ngo 1.22\n\nrequire github.com/lib/pq v1.10.9\n",
	"package.json":             `{"dependencies": {"react": "18", "express": "4"}, "devDependencies": {"jest": "29"}}`,
	"requirements.txt":         "flask\nredis\n",
	"Dockerfile":               "FROM scratch",
	".github/workflows/ci.yml": "on: push",
	"web/App.jsx":              "import React from 'react'",
}

func TestBuildIsDeterministic(t *testing.T) {
	root := writeTree(t, polyglot)
	b := New(logging.Nop(), probe.DefaultSet(probe.DefaultOptions())...)

	first, err := b.Build(context.Background(), reader(t, root))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := b.Build(context.Background(), reader(t, root))
		require.NoError(t, err)
		if diff := cmp.Diff(first.View(), again.View()); diff != "" {
			t.Fatalf("run %d produced a different stack (-first +again):\n%s", i, diff)
		}
		assert.Equal(t, first.Fingerprint(), again.Fingerprint())
	}

	assert.Equal(t, []string{"go", "javascript", "python"}, first.Languages())
	assert.Equal(t, []string{"express", "flask", "jest", "react"}, first.Frameworks())
	assert.Equal(t, []string{"postgresql", "redis"}, first.Databases())
	assert.True(t, first.Has(types.FlagReact))
	assert.True(t, first.Has(types.FlagDocker))
	assert.True(t, first.Has(types.FlagCI))
}

func TestConcurrentBuildMatchesSequentialFold(t *testing.T) {
	root := writeTree(t, polyglot)
	r := reader(t, root)
	probes := probe.DefaultSet(probe.DefaultOptions())

	built, err := New(logging.Nop(), probes...).Build(context.Background(), r)
	require.NoError(t, err)

	var evidence []probe.Evidence
	for _, p := range probes {
		evidence = append(evidence, p.Probe(context.Background(), r))
	}
	folded := Fold(evidence...)

	if diff := cmp.Diff(folded.View(), built.View()); diff != "" {
		t.Errorf("concurrent build differs from sequential fold (-want +got):\n%s", diff)
	}
}

func TestFoldIsMonotonic(t *testing.T) {
	base := []probe.Evidence{
		{Languages: []string{"go"}, Frameworks: []string{"gin"}, Flags: map[types.Flag]bool{types.FlagGo: true}},
		{Databases: []string{"postgresql"}},
	}
	extra := probe.Evidence{
		Languages:  []string{"python"},
		Frameworks: []string{"flask"},
		Databases:  []string{"redis"},
		Flags:      map[types.Flag]bool{types.FlagPython: true, types.FlagGo: false},
	}

	before := Fold(base...)
	after := Fold(append(base, extra)...)

	for _, l := range before.Languages() {
		assert.True(t, after.HasLanguage(l), "language %s retracted", l)
	}
	for _, f := range before.Frameworks() {
		assert.True(t, after.HasFramework(f), "framework %s retracted", f)
	}
	for _, d := range before.Databases() {
		assert.True(t, after.HasDatabase(d), "database %s retracted", d)
	}
	assert.True(t, after.Has(types.FlagGo), "a false flag must not clear a true one")
	assert.True(t, after.Has(types.FlagPython))
}

func TestFoldLanguageOrderAndSetOrder(t *testing.T) {
	a := probe.Evidence{Languages: []string{"typescript", "javascript"}, Frameworks: []string{"react"}, Versions: map[string]string{"node": "20"}}
	b := probe.Evidence{Languages: []string{"javascript", "go"}, Frameworks: []string{"express"}, Versions: map[string]string{"node": "18", "go": "1.22"}}

	ab := Fold(a, b)
	ba := Fold(b, a)

	assert.Equal(t, []string{"typescript", "javascript", "go"}, ab.Languages())
	assert.Equal(t, []string{"javascript", "go", "typescript"}, ba.Languages())
	// Set-valued fields do not depend on fold order
	assert.Equal(t, ab.Frameworks(), ba.Frameworks())
	v, _ := ab.Version("node")
	assert.Equal(t, "20", v)
}

func TestBuildMissingRoot(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	b := New(logging.Nop(), probe.DefaultSet(probe.DefaultOptions())...)

	s, err := b.Build(context.Background(), reader(t, missing))
	require.Error(t, err)
	assert.Nil(t, s)
	assert.True(t, errors.Is(err, ErrWorkspaceInaccessible))
	assert.Contains(t, err.Error(), missing)
}

func TestBuildRootIsFile(t *testing.T) {
	root := writeTree(t, map[string]string{"file.txt": "x"})
	err := ValidateRoot(filepath.Join(root, "file.txt"))
	require.ErrorIs(t, err, ErrWorkspaceInaccessible)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestPanickingProbeContributesNothing(t *testing.T) {
	root := writeTree(t, map[string]string{"go.mod": "module x\n"})
	core, logs := observer.New(zapcore.DebugLevel)

	boom := probe.Func{ProbeName: "boom", Fn: func(context.Context, fsprobe.Reader) probe.Evidence {
		panic("unexpected manifest")
	}}
	b := New(logging.FromZap(zap.New(core)), boom, &probe.GoModProbe{})

	s, err := b.Build(context.Background(), reader(t, root))
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, s.Languages())
	assert.Equal(t, 1, logs.FilterMessage("probe panicked").Len())
}

func TestProbesRunConcurrently(t *testing.T) {
	root := writeTree(t, nil)
	release := make(chan struct{})
	started := make(chan struct{}, 2)
	waiting := func(name, lang string) probe.Probe {
		return probe.Func{ProbeName: name, Fn: func(context.Context, fsprobe.Reader) probe.Evidence {
			started <- struct{}{}
			<-release
			return probe.Evidence{Languages: []string{lang}}
		}}
	}
	b := New(logging.Nop(), waiting("a", "go"), waiting("b", "rust"))
	r := reader(t, root)

	done := make(chan *types.TechStack)
	go func() {
		s, _ := b.Build(context.Background(), r)
		done <- s
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(5 * time.Second):
			t.Fatal("probes did not start concurrently")
		}
	}
	close(release)
	s := <-done
	assert.Equal(t, []string{"go", "rust"}, s.Languages())
}

func TestEmptyWorkspaceBuildsEmptyStack(t *testing.T) {
	root := writeTree(t, nil)
	s, err := New(logging.Nop(), probe.DefaultSet(probe.DefaultOptions())...).Build(context.Background(), reader(t, root))
	require.NoError(t, err)
	assert.True(t, s.IsEmpty())
}
