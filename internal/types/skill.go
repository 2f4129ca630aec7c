package types

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
)

// Category is the fixed set of skill categories
type Category string

const (
	CategorySecurity    Category = "security"
	CategoryPerformance Category = "performance"
	CategoryReact       Category = "react"
	CategoryBackend     Category = "backend"
	CategoryFrontend    Category = "frontend"
	CategoryDatabase    Category = "database"
	CategoryAPI         Category = "api"
	CategoryTesting     Category = "testing"
	CategoryDevOps      Category = "devops"
)

// AllCategories returns the known categories in declaration order.
func AllCategories() []Category {
	return []Category{
		CategorySecurity, CategoryPerformance, CategoryReact, CategoryBackend,
		CategoryFrontend, CategoryDatabase, CategoryAPI, CategoryTesting, CategoryDevOps,
	}
}

// IsValid checks if the category value is valid
func (c Category) IsValid() bool {
	return slices.Contains(AllCategories(), c)
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// IsSlug reports whether s is a lowercase, dash-separated identifier.
func IsSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// Skill is a structured best-practice document produced by one analyzer.
type Skill struct {
	Name        string            `json:"name" yaml:"name"`
	DisplayName string            `json:"display_name" yaml:"display_name"`
	Description string            `json:"description" yaml:"description"`
	Guidelines  []string          `json:"guidelines" yaml:"guidelines"`
	Category    Category          `json:"category" yaml:"category"`
	TechStack   []string          `json:"tech_stack" yaml:"tech_stack"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Validate checks if the skill has valid field values
func (s *Skill) Validate() error {
	if !IsSlug(s.Name) {
		return fmt.Errorf("invalid skill name %q: must be a lowercase slug", s.Name)
	}
	if !s.Category.IsValid() {
		return fmt.Errorf("invalid category %q for skill %s", s.Category, s.Name)
	}
	if strings.TrimSpace(s.DisplayName) == "" {
		return fmt.Errorf("skill %s: display name is required", s.Name)
	}
	for i, g := range s.Guidelines {
		if strings.TrimSpace(g) == "" {
			return fmt.Errorf("skill %s: guideline %d is empty", s.Name, i)
		}
	}
	return nil
}

// ID returns the category-qualified identifier, e.g. "testing/testing-best-practices".
func (s *Skill) ID() string {
	return string(s.Category) + "/" + s.Name
}

// Clone returns a deep copy of the skill.
func (s Skill) Clone() Skill {
	c := s
	c.Guidelines = slices.Clone(s.Guidelines)
	c.TechStack = slices.Clone(s.TechStack)
	if s.Metadata != nil {
		c.Metadata = maps.Clone(s.Metadata)
	}
	return c
}
