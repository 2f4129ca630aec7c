package sink

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"gopkg.in/yaml.v3"

	"github.com/steveyegge/skillscan/internal/types"
)

// SkillFileName is the document written for every skill
const SkillFileName = "SKILL.md"

// GeneratedBy is stamped into every frontmatter block
const GeneratedBy = "skillscan"

const frontmatterDelim = "---\n"

// frontmatter is the YAML header of a SKILL.md document
type frontmatter struct {
	Name        string            `yaml:"name"`
	DisplayName string            `yaml:"display_name"`
	Description string            `yaml:"description"`
	Category    types.Category    `yaml:"category"`
	TechStack   []string          `yaml:"tech_stack"`
	Guidelines  []string          `yaml:"guidelines"`
	Metadata    map[string]string `yaml:"metadata,omitempty"`
	GeneratedBy string            `yaml:"generated_by"`
}

// FileSink writes each skill to <dest>/<category>/<name>/SKILL.md
type FileSink struct{}

// NewFileSink creates a filesystem sink
func NewFileSink() *FileSink {
	return &FileSink{}
}

// Path resolves the document path for a skill, refusing anything that would
// land outside destRoot.
func (s *FileSink) Path(skill types.Skill, destRoot string) (string, error) {
	rel := filepath.Join(string(skill.Category), skill.Name, SkillFileName)
	p, err := securejoin.SecureJoin(destRoot, rel)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path for %s: %w", skill.ID(), err)
	}
	return p, nil
}

// Location implements Locator.
func (s *FileSink) Location(skill types.Skill, destRoot string) string {
	p, err := s.Path(skill, destRoot)
	if err != nil {
		return ""
	}
	return p
}

// Persist implements Sink. The document is written to a temporary file and
// renamed into place so readers never see a partial skill.
func (s *FileSink) Persist(ctx context.Context, skill types.Skill, destRoot string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validate(skill); err != nil {
		return err
	}
	p, err := s.Path(skill, destRoot)
	if err != nil {
		return err
	}

	content, err := Render(skill)
	if err != nil {
		return err
	}

	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create skill directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".skill-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", p, err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	return nil
}

// Render produces the SKILL.md document: YAML frontmatter followed by a
// Markdown body.
func Render(skill types.Skill) ([]byte, error) {
	fm := frontmatter{
		Name:        skill.Name,
		DisplayName: skill.DisplayName,
		Description: skill.Description,
		Category:    skill.Category,
		TechStack:   skill.TechStack,
		Guidelines:  skill.Guidelines,
		Metadata:    skill.Metadata,
		GeneratedBy: GeneratedBy,
	}
	if fm.TechStack == nil {
		fm.TechStack = []string{}
	}
	if fm.Guidelines == nil {
		fm.Guidelines = []string{}
	}

	header, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frontmatter for %s: %w", skill.ID(), err)
	}

	var buf bytes.Buffer
	buf.WriteString(frontmatterDelim)
	buf.Write(header)
	buf.WriteString(frontmatterDelim)
	buf.WriteString("\n")
	buf.WriteString(renderTemplate("skill.md.tmpl", skill))
	return buf.Bytes(), nil
}

// Parse reads a SKILL.md document back into a skill. Only the frontmatter is
// authoritative; the body is derived from it.
func Parse(data []byte) (types.Skill, error) {
	text := string(data)
	if !strings.HasPrefix(text, frontmatterDelim) {
		return types.Skill{}, fmt.Errorf("missing frontmatter")
	}
	rest := text[len(frontmatterDelim):]
	end := strings.Index(rest, "\n"+frontmatterDelim)
	if end < 0 {
		return types.Skill{}, fmt.Errorf("unterminated frontmatter")
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(rest[:end+1]), &fm); err != nil {
		return types.Skill{}, fmt.Errorf("failed to parse frontmatter: %w", err)
	}
	return types.Skill{
		Name:        fm.Name,
		DisplayName: fm.DisplayName,
		Description: fm.Description,
		Guidelines:  fm.Guidelines,
		Category:    fm.Category,
		TechStack:   fm.TechStack,
		Metadata:    fm.Metadata,
	}, nil
}

// ReadSkill loads a SKILL.md document from disk
func ReadSkill(path string) (types.Skill, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Skill{}, fmt.Errorf("failed to read skill: %w", err)
	}
	skill, err := Parse(data)
	if err != nil {
		return types.Skill{}, fmt.Errorf("%s: %w", path, err)
	}
	return skill, nil
}
