package types

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestNewTechStackNormalizes(t *testing.T) {
	s := NewTechStack(StackView{
		Languages:  []string{"typescript", "javascript", "typescript", "", "go"},
		Frameworks: []string{"react", "jest", "react", "express"},
		Databases:  []string{"redis", "postgresql", "redis"},
		Flags:      map[Flag]bool{FlagReact: true, FlagNode: true, FlagRust: false},
		Versions:   map[string]string{"go": "1.22", "rust": ""},
	})

	want := StackView{
		Languages:       []string{"typescript", "javascript", "go"},
		Frameworks:      []string{"express", "jest", "react"},
		Databases:       []string{"postgresql", "redis"},
		BuildTools:      []string{},
		PackageManagers: []string{},
		CloudProviders:  []string{},
		Flags: map[Flag]bool{
			FlagReact: true, FlagTypeScript: false, FlagNode: true, FlagPython: false,
			FlagJava: false, FlagGo: false, FlagRust: false, FlagDocker: false,
			FlagKubernetes: false, FlagCI: false,
		},
		Versions: map[string]string{"go": "1.22"},
	}
	if diff := cmp.Diff(want, s.View()); diff != "" {
		t.Errorf("View() mismatch (-want +got):\n%s", diff)
	}
}

func TestTechStackAccessorsReturnCopies(t *testing.T) {
	s := NewTechStack(StackView{
		Languages:  []string{"go"},
		Frameworks: []string{"cobra"},
	})
	before := s.Fingerprint()

	langs := s.Languages()
	langs[0] = "cobol"
	fw := s.Frameworks()
	fw[0] = "rails"
	v := s.View()
	v.Languages[0] = "perl"
	v.Flags[FlagJava] = true

	if got := s.Languages(); got[0] != "go" {
		t.Errorf("Languages() leaked internal slice: %v", got)
	}
	if !s.HasFramework("cobra") || s.HasFramework("rails") {
		t.Errorf("Frameworks() leaked internal slice: %v", s.Frameworks())
	}
	if s.Has(FlagJava) {
		t.Error("View() flags leaked into stack")
	}
	if after := s.Fingerprint(); after != before {
		t.Errorf("fingerprint changed after mutating copies: %s != %s", before, after)
	}
}

func TestTechStackPredicates(t *testing.T) {
	s := NewTechStack(StackView{
		Languages:      []string{"python"},
		Databases:      []string{"postgresql"},
		BuildTools:     []string{"github-actions"},
		CloudProviders: []string{"aws"},
		Flags:          map[Flag]bool{FlagPython: true},
	})

	if !s.HasLanguage("python") || s.HasLanguage("go") {
		t.Error("HasLanguage mismatch")
	}
	if !s.HasDatabase("mysql", "postgresql") {
		t.Error("HasDatabase should match any of its arguments")
	}
	if s.HasDatabase() {
		t.Error("HasDatabase with no arguments should be false")
	}
	if !s.HasBuildTool("github-actions") {
		t.Error("HasBuildTool mismatch")
	}
	if !s.HasCloudProvider("aws") || s.HasCloudProvider("gcp") {
		t.Error("HasCloudProvider mismatch")
	}
	if !s.Has(FlagPython) || s.Has(FlagGo) {
		t.Error("Has mismatch")
	}
	if _, ok := s.Version("python"); ok {
		t.Error("Version should be absent")
	}
}

func TestTechStackIsEmpty(t *testing.T) {
	if !NewTechStack(StackView{}).IsEmpty() {
		t.Error("zero view should produce an empty stack")
	}
	if !NewTechStack(StackView{Flags: map[Flag]bool{FlagGo: false}}).IsEmpty() {
		t.Error("false flags should not count as evidence")
	}
	if NewTechStack(StackView{Flags: map[Flag]bool{FlagCI: true}}).IsEmpty() {
		t.Error("a set flag is evidence")
	}
}

func TestFingerprintDependsOnLanguageOrder(t *testing.T) {
	a := NewTechStack(StackView{Languages: []string{"go", "python"}})
	b := NewTechStack(StackView{Languages: []string{"python", "go"}})
	c := NewTechStack(StackView{Languages: []string{"go", "python"}})

	if a.Fingerprint() == b.Fingerprint() {
		t.Error("language order must be part of the fingerprint")
	}
	if a.Fingerprint() != c.Fingerprint() {
		t.Error("equal stacks must have equal fingerprints")
	}
}

func TestTechStackMarshal(t *testing.T) {
	s := NewTechStack(StackView{
		Languages: []string{"rust"},
		Flags:     map[Flag]bool{FlagRust: true},
	})

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}
	var decoded StackView
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal failed: %v", err)
	}
	if diff := cmp.Diff(s.View(), decoded); diff != "" {
		t.Errorf("JSON round trip mismatch (-want +got):\n%s", diff)
	}

	out, err := yaml.Marshal(s)
	if err != nil {
		t.Fatalf("yaml.Marshal failed: %v", err)
	}
	if !strings.Contains(string(out), "languages:\n    - rust") {
		t.Errorf("unexpected YAML:\n%s", out)
	}
}

func TestSkillValidate(t *testing.T) {
	valid := Skill{
		Name:        "testing-best-practices",
		DisplayName: "Testing Best Practices",
		Category:    CategoryTesting,
		Guidelines:  []string{"Write tests"},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid skill rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Skill)
		errMsg string
	}{
		{"uppercase name", func(s *Skill) { s.Name = "Testing" }, "lowercase slug"},
		{"trailing dash", func(s *Skill) { s.Name = "testing-" }, "lowercase slug"},
		{"empty name", func(s *Skill) { s.Name = "" }, "lowercase slug"},
		{"unknown category", func(s *Skill) { s.Category = "mobile" }, "invalid category"},
		{"no display name", func(s *Skill) { s.DisplayName = " " }, "display name"},
		{"blank guideline", func(s *Skill) { s.Guidelines = []string{"ok", ""} }, "guideline 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid.Clone()
			tt.mutate(&s)
			err := s.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error %q does not contain %q", err, tt.errMsg)
			}
		})
	}
}

func TestSkillClone(t *testing.T) {
	orig := Skill{
		Name:       "api-design",
		Category:   CategoryAPI,
		Guidelines: []string{"a", "b"},
		TechStack:  []string{"go"},
		Metadata:   map[string]string{"k": "v"},
	}
	c := orig.Clone()
	c.Guidelines[0] = "changed"
	c.TechStack[0] = "changed"
	c.Metadata["k"] = "changed"

	if orig.Guidelines[0] != "a" || orig.TechStack[0] != "go" || orig.Metadata["k"] != "v" {
		t.Errorf("Clone shares state with original: %+v", orig)
	}
	if orig.ID() != "api/api-design" {
		t.Errorf("ID() = %q", orig.ID())
	}
}

func TestCategoryAndStatusIsValid(t *testing.T) {
	for _, c := range AllCategories() {
		if !c.IsValid() {
			t.Errorf("category %q should be valid", c)
		}
	}
	if Category("mobile").IsValid() {
		t.Error("unknown category reported valid")
	}
	if !StatusSuccess.IsValid() || !StatusFailed.IsValid() || Status("skipped").IsValid() {
		t.Error("status validity mismatch")
	}
	if !FlagDocker.IsValid() || Flag("php").IsValid() {
		t.Error("flag validity mismatch")
	}
}

func TestReportSummary(t *testing.T) {
	r := &AnalysisReport{
		RunID:     "run-1",
		Root:      "/work/app",
		TechStack: NewTechStack(StackView{Languages: []string{"typescript"}, Frameworks: []string{"react"}}),
		Analyzers: []AnalyzerSummary{
			{Name: "react", SkillsGenerated: 1, Status: StatusSuccess},
			{Name: "security", Status: StatusFailed, Error: errors.New("boom").Error()},
		},
		TotalSkillsGenerated: 1,
		Persisted: []PersistResult{
			{Category: CategoryReact, Name: "react-best-practices", Path: "/x"},
		},
	}

	summary := r.Summary()
	for _, want := range []string{
		"Languages: typescript",
		"Frameworks: react",
		"Analyzers: 2 (1 failed)",
		"react: 1 skill(s)",
		"security: failed: boom",
		"Skills generated: 1",
		"Skills written: 1 (0 failed)",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
	if got := r.FailedAnalyzers(); len(got) != 1 || got[0] != "security" {
		t.Errorf("FailedAnalyzers() = %v", got)
	}
}
