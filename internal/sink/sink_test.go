package sink

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/skillscan/internal/types"
)

func sampleSkill() types.Skill {
	return types.Skill{
		Name:        "testing-best-practices",
		DisplayName: "Testing Best Practices",
		Description: "Testing guidance for go and typescript.",
		Guidelines: []string{
			"Test behavior through public interfaces, not implementation details.",
			"Use table-driven tests with t.Run subtests.",
		},
		Category:  types.CategoryTesting,
		TechStack: []string{"go", "typescript"},
		Metadata:  map[string]string{"frameworks": "jest", "test_command": "jest --coverage"},
	}
}

func TestFileSinkRoundTrip(t *testing.T) {
	dest := t.TempDir()
	s := NewFileSink()
	skill := sampleSkill()

	require.NoError(t, s.Persist(context.Background(), skill, dest))

	path := filepath.Join(dest, "testing", "testing-best-practices", SkillFileName)
	assert.FileExists(t, path)
	assert.Equal(t, path, s.Location(skill, dest))

	got, err := ReadSkill(path)
	require.NoError(t, err)
	if diff := cmp.Diff(skill, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "---\nname: testing-best-practices\n"))
	assert.Contains(t, text, "generated_by: skillscan\n")
	assert.Contains(t, text, "# Testing Best Practices\n")
	assert.Contains(t, text, "- Use table-driven tests with t.Run subtests.")
	assert.Contains(t, text, "go, typescript")
	assert.Contains(t, text, "- frameworks: jest\n- test_command: jest --coverage")
}

func TestFileSinkOverwrites(t *testing.T) {
	dest := t.TempDir()
	s := NewFileSink()
	skill := sampleSkill()
	require.NoError(t, s.Persist(context.Background(), skill, dest))

	skill.Guidelines = []string{"Only one guideline now."}
	require.NoError(t, s.Persist(context.Background(), skill, dest))

	got, err := ReadSkill(s.Location(skill, dest))
	require.NoError(t, err)
	assert.Equal(t, []string{"Only one guideline now."}, got.Guidelines)

	entries, err := os.ReadDir(filepath.Dir(s.Location(skill, dest)))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestRenderEmptyTechStack(t *testing.T) {
	skill := sampleSkill()
	skill.TechStack = nil
	skill.Metadata = nil

	data, err := Render(skill)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tech_stack: []\n")
	assert.Contains(t, string(data), "All languages in this repository")
	assert.NotContains(t, string(data), "## Detected")
}

func TestParseRejectsMissingFrontmatter(t *testing.T) {
	_, err := Parse([]byte("# Just markdown\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("---\nname: x\n"))
	assert.Error(t, err)
}

func TestInvalidSkillIsRejected(t *testing.T) {
	dest := t.TempDir()
	for _, s := range []Sink{NewFileSink(), NewSQLiteSink()} {
		skill := sampleSkill()
		skill.Name = "../../escape"
		err := s.Persist(context.Background(), skill, dest)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidSkill))
		require.NoError(t, Close(s))
	}

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is written for an invalid skill")
}

func TestFileSinkPathStaysUnderDest(t *testing.T) {
	dest := t.TempDir()
	skill := sampleSkill()
	skill.Name = "../../../etc"

	p, err := NewFileSink().Path(skill, dest)
	require.NoError(t, err)
	rel, err := filepath.Rel(dest, p)
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(rel, ".."), "path %s escapes %s", p, dest)
}

func TestSQLiteSinkUpsertAndLoad(t *testing.T) {
	dest := t.TempDir()
	s := NewSQLiteSink()
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	skill := sampleSkill()
	require.NoError(t, s.Persist(ctx, skill, dest))
	assert.FileExists(t, filepath.Join(dest, DatabaseFileName))

	got, err := s.Load(ctx, dest, types.CategoryTesting, "testing-best-practices")
	require.NoError(t, err)
	if diff := cmp.Diff(skill, got); diff != "" {
		t.Errorf("load mismatch (-want +got):\n%s", diff)
	}

	skill.Description = "Updated."
	skill.Metadata = nil
	require.NoError(t, s.Persist(ctx, skill, dest))

	all, err := s.List(ctx, dest)
	require.NoError(t, err)
	require.Len(t, all, 1, "same category and name must upsert")
	assert.Equal(t, "Updated.", all[0].Description)
	assert.Nil(t, all[0].Metadata)

	_, err = s.Load(ctx, dest, types.CategorySecurity, "missing")
	assert.ErrorIs(t, err, ErrSkillNotFound)
}

func TestSQLiteSinkListOrder(t *testing.T) {
	dest := t.TempDir()
	s := NewSQLiteSink()
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	for _, c := range []types.Category{types.CategoryTesting, types.CategoryAPI, types.CategorySecurity} {
		skill := sampleSkill()
		skill.Category = c
		require.NoError(t, s.Persist(ctx, skill, dest))
	}

	all, err := s.List(ctx, dest)
	require.NoError(t, err)
	var got []types.Category
	for _, sk := range all {
		got = append(got, sk.Category)
	}
	assert.Equal(t, []types.Category{types.CategoryAPI, types.CategorySecurity, types.CategoryTesting}, got)
}

type failingSink struct{ fail map[string]bool }

func (f failingSink) Persist(_ context.Context, skill types.Skill, _ string) error {
	if f.fail[skill.Name] {
		return errors.New("disk full")
	}
	return nil
}

func TestPersistAllRecordsFailuresAndContinues(t *testing.T) {
	skills := []types.Skill{sampleSkill(), sampleSkill(), sampleSkill()}
	skills[0].Name = "a"
	skills[1].Name = "b"
	skills[2].Name = "c"

	results := PersistAll(context.Background(), failingSink{fail: map[string]bool{"b": true}}, skills, t.TempDir())
	require.Len(t, results, 3)
	assert.True(t, results[0].OK())
	assert.False(t, results[1].OK())
	assert.Equal(t, "disk full", results[1].Error)
	assert.True(t, results[2].OK())
	assert.Equal(t, "c", results[2].Name)
}

type panickingSink struct{ on string }

func (p panickingSink) Persist(_ context.Context, skill types.Skill, _ string) error {
	if skill.Name == p.on {
		panic("nil map write")
	}
	return nil
}

func TestPersistAllRecoversPanickingSink(t *testing.T) {
	skills := []types.Skill{sampleSkill(), sampleSkill(), sampleSkill()}
	skills[0].Name = "a"
	skills[1].Name = "b"
	skills[2].Name = "c"

	var results []types.PersistResult
	require.NotPanics(t, func() {
		results = PersistAll(context.Background(), panickingSink{on: "b"}, skills, t.TempDir())
	})
	require.Len(t, results, 3)
	assert.True(t, results[0].OK())
	assert.False(t, results[1].OK())
	assert.Equal(t, "sink panicked: nil map write", results[1].Error)
	assert.Empty(t, results[1].Path)
	assert.True(t, results[2].OK())
}

func TestPersistAllAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := PersistAll(ctx, NewFileSink(), []types.Skill{sampleSkill()}, t.TempDir())
	require.Len(t, results, 1)
	assert.Equal(t, context.Canceled.Error(), results[0].Error)
	assert.Empty(t, results[0].Path)
}

func TestMultiSinkWritesEverywhere(t *testing.T) {
	dest := t.TempDir()
	s, err := FromNames([]string{NameFiles, NameSQLite})
	require.NoError(t, err)
	t.Cleanup(func() { Close(s) })

	results := PersistAll(context.Background(), s, []types.Skill{sampleSkill()}, dest)
	require.Len(t, results, 1)
	require.True(t, results[0].OK(), results[0].Error)
	assert.Equal(t, filepath.Join(dest, "testing", "testing-best-practices", SkillFileName), results[0].Path)
	assert.FileExists(t, results[0].Path)
	assert.FileExists(t, filepath.Join(dest, DatabaseFileName))
}

func TestMultiSinkJoinsErrors(t *testing.T) {
	m := NewMultiSink(failingSink{fail: map[string]bool{"a": true}}, failingSink{fail: map[string]bool{"a": true}})
	skill := sampleSkill()
	skill.Name = "a"
	err := m.Persist(context.Background(), skill, t.TempDir())
	require.Error(t, err)
	assert.Equal(t, "disk full\ndisk full", err.Error())
}

func TestFromNames(t *testing.T) {
	s, err := FromNames(nil)
	require.NoError(t, err)
	assert.IsType(t, &FileSink{}, s)

	_, err = FromNames([]string{"s3"})
	assert.ErrorContains(t, err, `unknown sink "s3"`)
}
