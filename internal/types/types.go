package types

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"sort"
)

// Flag is a boolean capability derived from probe evidence.
// Flags are independent of each other: a workspace can be both Node and Python.
type Flag string

const (
	FlagReact      Flag = "react"
	FlagTypeScript Flag = "typescript"
	FlagNode       Flag = "node"
	FlagPython     Flag = "python"
	FlagJava       Flag = "java"
	FlagGo         Flag = "go"
	FlagRust       Flag = "rust"
	FlagDocker     Flag = "docker"
	FlagKubernetes Flag = "kubernetes"
	FlagCI         Flag = "ci"
)

// AllFlags returns every known flag in a stable order.
func AllFlags() []Flag {
	return []Flag{
		FlagReact, FlagTypeScript, FlagNode, FlagPython, FlagJava,
		FlagGo, FlagRust, FlagDocker, FlagKubernetes, FlagCI,
	}
}

// IsValid checks if the flag is one of the known flags
func (f Flag) IsValid() bool {
	return slices.Contains(AllFlags(), f)
}

// StackView is an exported, freely mutable copy of a TechStack.
// It is what gets serialized into reports and what tests compare against.
type StackView struct {
	Languages       []string          `json:"languages" yaml:"languages"`
	Frameworks      []string          `json:"frameworks" yaml:"frameworks"`
	Databases       []string          `json:"databases" yaml:"databases"`
	BuildTools      []string          `json:"build_tools" yaml:"build_tools"`
	PackageManagers []string          `json:"package_managers" yaml:"package_managers"`
	CloudProviders  []string          `json:"cloud_providers" yaml:"cloud_providers"`
	Flags           map[Flag]bool     `json:"flags" yaml:"flags"`
	Versions        map[string]string `json:"versions,omitempty" yaml:"versions,omitempty"`
}

// TechStack is the immutable snapshot of everything the probes detected in a
// workspace. It is built once per run and shared read-only by every analyzer,
// so all fields are unexported and every accessor returns a copy.
type TechStack struct {
	languages       []string
	frameworks      []string
	databases       []string
	buildTools      []string
	packageManagers []string
	cloudProviders  []string
	flags           map[Flag]bool
	versions        map[string]string
}

// NewTechStack freezes a view into a TechStack. Languages keep their order with
// later duplicates dropped; set-valued fields are deduplicated and sorted.
func NewTechStack(v StackView) *TechStack {
	s := &TechStack{
		languages:       orderedUnique(v.Languages),
		frameworks:      sortedSet(v.Frameworks),
		databases:       sortedSet(v.Databases),
		buildTools:      sortedSet(v.BuildTools),
		packageManagers: sortedSet(v.PackageManagers),
		cloudProviders:  sortedSet(v.CloudProviders),
		flags:           make(map[Flag]bool),
		versions:        make(map[string]string),
	}
	for f, on := range v.Flags {
		if on {
			s.flags[f] = true
		}
	}
	for k, ver := range v.Versions {
		if ver != "" {
			s.versions[k] = ver
		}
	}
	return s
}

// Languages returns detected languages in detection order.
func (s *TechStack) Languages() []string { return slices.Clone(s.languages) }

// Frameworks returns detected frameworks, sorted.
func (s *TechStack) Frameworks() []string { return slices.Clone(s.frameworks) }

// Databases returns detected databases, sorted.
func (s *TechStack) Databases() []string { return slices.Clone(s.databases) }

// BuildTools returns detected build tools and CI systems, sorted.
func (s *TechStack) BuildTools() []string { return slices.Clone(s.buildTools) }

// PackageManagers returns detected package managers, sorted.
func (s *TechStack) PackageManagers() []string { return slices.Clone(s.packageManagers) }

// CloudProviders returns detected cloud providers, sorted.
func (s *TechStack) CloudProviders() []string { return slices.Clone(s.cloudProviders) }

// Has reports whether a capability flag is set.
func (s *TechStack) Has(f Flag) bool { return s.flags[f] }

// HasLanguage reports whether the language was detected.
func (s *TechStack) HasLanguage(lang string) bool { return slices.Contains(s.languages, lang) }

// HasFramework reports whether any of the given frameworks was detected.
func (s *TechStack) HasFramework(names ...string) bool { return containsAny(s.frameworks, names) }

// HasDatabase reports whether any of the given databases was detected.
func (s *TechStack) HasDatabase(names ...string) bool { return containsAny(s.databases, names) }

// HasBuildTool reports whether any of the given build tools was detected.
func (s *TechStack) HasBuildTool(names ...string) bool { return containsAny(s.buildTools, names) }

// HasCloudProvider reports whether any of the given providers was detected.
func (s *TechStack) HasCloudProvider(names ...string) bool {
	return containsAny(s.cloudProviders, names)
}

// Version returns the detected version for a language or toolchain.
func (s *TechStack) Version(key string) (string, bool) {
	v, ok := s.versions[key]
	return v, ok
}

// IsEmpty reports whether no evidence at all was folded into the stack.
func (s *TechStack) IsEmpty() bool {
	return len(s.languages) == 0 && len(s.frameworks) == 0 && len(s.databases) == 0 &&
		len(s.buildTools) == 0 && len(s.packageManagers) == 0 &&
		len(s.cloudProviders) == 0 && len(s.flags) == 0
}

// View returns a deep copy of the stack as an exported struct.
// Every known flag is present in the map so the encoding is stable.
func (s *TechStack) View() StackView {
	v := StackView{
		Languages:       nonNil(s.languages),
		Frameworks:      nonNil(s.frameworks),
		Databases:       nonNil(s.databases),
		BuildTools:      nonNil(s.buildTools),
		PackageManagers: nonNil(s.packageManagers),
		CloudProviders:  nonNil(s.cloudProviders),
		Flags:           make(map[Flag]bool, len(AllFlags())),
	}
	for _, f := range AllFlags() {
		v.Flags[f] = s.flags[f]
	}
	if len(s.versions) > 0 {
		v.Versions = make(map[string]string, len(s.versions))
		for k, ver := range s.versions {
			v.Versions[k] = ver
		}
	}
	return v
}

// Fingerprint returns a SHA-256 over the canonical JSON encoding of the stack.
// Two stacks with the same fingerprint are byte-identical, list order included.
func (s *TechStack) Fingerprint() string {
	data, err := json.Marshal(s.View())
	if err != nil {
		// StackView only holds strings, bools and maps of them
		panic("types: marshal stack view: " + err.Error())
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// MarshalJSON encodes the stack through its view.
func (s *TechStack) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.View())
}

// MarshalYAML encodes the stack through its view.
func (s *TechStack) MarshalYAML() (interface{}, error) {
	return s.View(), nil
}

func orderedUnique(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func sortedSet(in []string) []string {
	out := orderedUnique(in)
	sort.Strings(out)
	return out
}

func containsAny(haystack, needles []string) bool {
	for _, n := range needles {
		if slices.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return slices.Clone(in)
}
