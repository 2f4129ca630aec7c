package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/steveyegge/skillscan/internal/types"
)

// DatabaseFileName is the catalog written under the destination root
const DatabaseFileName = "skills.db"

// ErrSkillNotFound is returned by Load when no row matches
var ErrSkillNotFound = errors.New("skill not found")

const schema = `
CREATE TABLE IF NOT EXISTS skills (
    category TEXT NOT NULL,
    name TEXT NOT NULL,
    display_name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    guidelines TEXT NOT NULL DEFAULT '[]',
    tech_stack TEXT NOT NULL DEFAULT '[]',
    metadata TEXT NOT NULL DEFAULT '{}',
    generated_by TEXT NOT NULL DEFAULT '',
    updated_at DATETIME NOT NULL,
    PRIMARY KEY (category, name)
);

CREATE INDEX IF NOT EXISTS idx_skills_updated_at ON skills(updated_at);
`

// SQLiteSink upserts skills into <dest>/skills.db, keyed by category and name.
// One database is opened per destination root and kept until Close.
type SQLiteSink struct {
	mu  sync.Mutex
	dbs map[string]*sql.DB
	now func() time.Time
}

// NewSQLiteSink creates a sink backed by SQLite
func NewSQLiteSink() *SQLiteSink {
	return &SQLiteSink{
		dbs: make(map[string]*sql.DB),
		now: time.Now,
	}
}

// Location implements Locator.
func (s *SQLiteSink) Location(_ types.Skill, destRoot string) string {
	return filepath.Join(destRoot, DatabaseFileName)
}

// open returns the database for destRoot, creating it on first use
func (s *SQLiteSink) open(ctx context.Context, destRoot string) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(destRoot, DatabaseFileName)
	if db, ok := s.dbs[path]; ok {
		return db, nil
	}

	if err := os.MkdirAll(destRoot, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Pragmas are per connection; a single connection keeps them in force.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s.dbs[path] = db
	return db, nil
}

// Persist implements Sink.
func (s *SQLiteSink) Persist(ctx context.Context, skill types.Skill, destRoot string) error {
	if err := validate(skill); err != nil {
		return err
	}
	db, err := s.open(ctx, destRoot)
	if err != nil {
		return err
	}

	guidelines, err := json.Marshal(nonNil(skill.Guidelines))
	if err != nil {
		return fmt.Errorf("failed to marshal guidelines: %w", err)
	}
	techStack, err := json.Marshal(nonNil(skill.TechStack))
	if err != nil {
		return fmt.Errorf("failed to marshal tech stack: %w", err)
	}
	metadata := []byte("{}")
	if len(skill.Metadata) > 0 {
		if metadata, err = json.Marshal(skill.Metadata); err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO skills (
			category, name, display_name, description,
			guidelines, tech_stack, metadata, generated_by, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(category, name) DO UPDATE SET
			display_name = excluded.display_name,
			description = excluded.description,
			guidelines = excluded.guidelines,
			tech_stack = excluded.tech_stack,
			metadata = excluded.metadata,
			generated_by = excluded.generated_by,
			updated_at = excluded.updated_at
	`, string(skill.Category), skill.Name, skill.DisplayName, skill.Description,
		string(guidelines), string(techStack), string(metadata), GeneratedBy, s.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert skill %s: %w", skill.ID(), err)
	}
	return nil
}

// Load reads one skill back from the catalog under destRoot
func (s *SQLiteSink) Load(ctx context.Context, destRoot string, category types.Category, name string) (types.Skill, error) {
	db, err := s.open(ctx, destRoot)
	if err != nil {
		return types.Skill{}, err
	}
	row := db.QueryRowContext(ctx, `
		SELECT category, name, display_name, description, guidelines, tech_stack, metadata
		FROM skills WHERE category = ? AND name = ?
	`, string(category), name)

	skill, err := scanSkill(row)
	if err == sql.ErrNoRows {
		return types.Skill{}, fmt.Errorf("%w: %s/%s", ErrSkillNotFound, category, name)
	}
	if err != nil {
		return types.Skill{}, fmt.Errorf("failed to load skill %s/%s: %w", category, name, err)
	}
	return skill, nil
}

// List returns every skill in the catalog ordered by category then name
func (s *SQLiteSink) List(ctx context.Context, destRoot string) ([]types.Skill, error) {
	db, err := s.open(ctx, destRoot)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT category, name, display_name, description, guidelines, tech_stack, metadata
		FROM skills ORDER BY category, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	defer rows.Close()

	var skills []types.Skill
	for rows.Next() {
		skill, err := scanSkill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		skills = append(skills, skill)
	}
	return skills, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSkill(row scanner) (types.Skill, error) {
	var (
		skill                          types.Skill
		category                       string
		guidelines, techStack, metaRaw string
	)
	if err := row.Scan(&category, &skill.Name, &skill.DisplayName, &skill.Description,
		&guidelines, &techStack, &metaRaw); err != nil {
		return types.Skill{}, err
	}
	skill.Category = types.Category(category)

	if err := json.Unmarshal([]byte(guidelines), &skill.Guidelines); err != nil {
		return types.Skill{}, fmt.Errorf("failed to unmarshal guidelines: %w", err)
	}
	if err := json.Unmarshal([]byte(techStack), &skill.TechStack); err != nil {
		return types.Skill{}, fmt.Errorf("failed to unmarshal tech stack: %w", err)
	}
	var metadata map[string]string
	if err := json.Unmarshal([]byte(metaRaw), &metadata); err != nil {
		return types.Skill{}, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	if len(metadata) > 0 {
		skill.Metadata = metadata
	}
	return skill, nil
}

// Close closes every database this sink opened
func (s *SQLiteSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for path, db := range s.dbs {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s: %w", path, err))
		}
		delete(s.dbs, path)
	}
	return errors.Join(errs...)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
