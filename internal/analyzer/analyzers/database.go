package analyzers

import (
	"context"
	"strings"

	"github.com/steveyegge/skillscan/internal/analyzer"
	"github.com/steveyegge/skillscan/internal/types"
)

// DatabaseAnalyzer emits data-access guidelines. It only runs when the stack
// has at least one database.
type DatabaseAnalyzer struct{}

// NewDatabaseAnalyzer creates a new database analyzer.
func NewDatabaseAnalyzer() analyzer.Analyzer {
	return &DatabaseAnalyzer{}
}

// Name implements Analyzer.
func (a *DatabaseAnalyzer) Name() string { return "database" }

// Category implements Analyzer.
func (a *DatabaseAnalyzer) Category() types.Category { return types.CategoryDatabase }

// Description implements Analyzer.
func (a *DatabaseAnalyzer) Description() string {
	return "Schema, migration and query practices for detected databases"
}

var databaseGuidelines = map[string][]string{
	"postgresql": {
		"Use PostgreSQL constraints (NOT NULL, CHECK, foreign keys) to enforce invariants in the schema.",
		"Create indexes CONCURRENTLY on large PostgreSQL tables.",
	},
	"mysql": {
		"Use utf8mb4 and InnoDB for every MySQL table.",
	},
	"sqlite": {
		"Enable WAL mode and a busy timeout for concurrent SQLite access.",
	},
	"mongodb": {
		"Define MongoDB indexes in code and validate documents with JSON schema.",
	},
	"redis": {
		"Treat Redis as a cache or broker, not the system of record, unless persistence is configured.",
	},
}

var migrationDirs = []string{"migrations", "db/migrations", "migrate", "alembic", "prisma/migrations"}

// Analyze implements Analyzer.
func (a *DatabaseAnalyzer) Analyze(ctx context.Context, env analyzer.Env) ([]types.Skill, error) {
	stack := env.Stack
	dbs := stack.Databases()
	if len(dbs) == 0 {
		return nil, nil
	}

	b := analyzer.NewSkill("database-best-practices", types.CategoryDatabase).
		DisplayName("Database Best Practices").
		Description("How this repository models, migrates and queries its databases.").
		TechStack(stack.Languages()...).
		Guidelines(
			"Change schemas only through versioned, reviewed migrations.",
			"Keep transactions short and never hold one open across network calls.",
			"Use connection pooling and set pool limits explicitly.",
		)
	for _, db := range dbs {
		b.Guidelines(databaseGuidelines[db]...)
	}

	migrations := ""
	for _, dir := range migrationDirs {
		if env.FS.IsDir(dir) {
			migrations = dir
			break
		}
	}
	if migrations != "" {
		b.Meta("migrations_dir", migrations)
		b.Guidelines("Add new migrations under " + migrations + "/ and never edit one that has been applied.")
	} else {
		b.Guidelines("No migrations directory was found; adopt a migration tool before the schema grows.")
	}

	b.Meta("databases", strings.Join(dbs, ","))
	return []types.Skill{b.Build()}, nil
}
