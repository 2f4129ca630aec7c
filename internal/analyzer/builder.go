package analyzer

import (
	"maps"
	"slices"

	"github.com/steveyegge/skillscan/internal/types"
)

// SkillBuilder provides a fluent API for assembling skills.
//
// Example:
//
//	skill := analyzer.NewSkill("testing-best-practices", types.CategoryTesting).
//		DisplayName("Testing Best Practices").
//		Description("Conventions for this repository's test suites").
//		Guidelines(general...).
//		GuidelinesIf(stack.HasFramework("jest"), jestGuidelines...).
//		TechStack(stack.Languages()...).
//		Build()
type SkillBuilder struct {
	skill types.Skill
}

// NewSkill starts a skill with a name and category
func NewSkill(name string, category types.Category) *SkillBuilder {
	return &SkillBuilder{
		skill: types.Skill{
			Name:     name,
			Category: category,
		},
	}
}

// DisplayName sets the human-readable title
func (b *SkillBuilder) DisplayName(name string) *SkillBuilder {
	b.skill.DisplayName = name
	return b
}

// Description sets the one-paragraph summary
func (b *SkillBuilder) Description(desc string) *SkillBuilder {
	b.skill.Description = desc
	return b
}

// Guidelines appends guidelines, skipping exact duplicates.
func (b *SkillBuilder) Guidelines(guidelines ...string) *SkillBuilder {
	for _, g := range guidelines {
		if !slices.Contains(b.skill.Guidelines, g) {
			b.skill.Guidelines = append(b.skill.Guidelines, g)
		}
	}
	return b
}

// GuidelinesIf appends guidelines only when cond holds.
func (b *SkillBuilder) GuidelinesIf(cond bool, guidelines ...string) *SkillBuilder {
	if cond {
		return b.Guidelines(guidelines...)
	}
	return b
}

// TechStack records the languages the skill applies to
func (b *SkillBuilder) TechStack(languages ...string) *SkillBuilder {
	for _, l := range languages {
		if l != "" && !slices.Contains(b.skill.TechStack, l) {
			b.skill.TechStack = append(b.skill.TechStack, l)
		}
	}
	return b
}

// Meta sets a metadata entry; empty values are dropped.
func (b *SkillBuilder) Meta(key, value string) *SkillBuilder {
	if value == "" {
		return b
	}
	if b.skill.Metadata == nil {
		b.skill.Metadata = make(map[string]string)
	}
	b.skill.Metadata[key] = value
	return b
}

// GuidelineCount returns how many guidelines have been added so far
func (b *SkillBuilder) GuidelineCount() int {
	return len(b.skill.Guidelines)
}

// Build returns a copy of the assembled skill. The builder can keep being used.
func (b *SkillBuilder) Build() types.Skill {
	s := b.skill
	s.Guidelines = slices.Clone(b.skill.Guidelines)
	s.TechStack = slices.Clone(b.skill.TechStack)
	if s.TechStack == nil {
		s.TechStack = []string{}
	}
	if b.skill.Metadata != nil {
		s.Metadata = maps.Clone(b.skill.Metadata)
	}
	return s
}
