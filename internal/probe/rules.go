package probe

import "strings"

type ruleKind int

const (
	kindFramework ruleKind = iota
	kindDatabase
	kindBuildTool
	kindCloud
)

// depRule maps a dependency identifier to stack evidence. A match ending in "/"
// is a prefix; anything else must match the whole dependency name unless the
// table is applied with prefix matching.
type depRule struct {
	match string
	kind  ruleKind
	name  string
}

func (r depRule) apply(e *Evidence) {
	switch r.kind {
	case kindFramework:
		e.AddFramework(r.name)
	case kindDatabase:
		e.AddDatabase(r.name)
	case kindBuildTool:
		e.AddBuildTool(r.name)
	case kindCloud:
		e.AddCloudProvider(r.name)
	}
}

// Go module paths, matched as prefixes so major-version suffixes and subpackages hit.
var goRules = []depRule{
	{"github.com/gin-gonic/gin", kindFramework, "gin"},
	{"github.com/labstack/echo", kindFramework, "echo"},
	{"github.com/gofiber/fiber", kindFramework, "fiber"},
	{"github.com/go-chi/chi", kindFramework, "chi"},
	{"github.com/gorilla/mux", kindFramework, "gorilla-mux"},
	{"github.com/spf13/cobra", kindFramework, "cobra"},
	{"google.golang.org/grpc", kindFramework, "grpc"},
	{"github.com/stretchr/testify", kindFramework, "testify"},
	{"github.com/lib/pq", kindDatabase, "postgresql"},
	{"github.com/jackc/pgx", kindDatabase, "postgresql"},
	{"gorm.io/driver/postgres", kindDatabase, "postgresql"},
	{"github.com/go-sql-driver/mysql", kindDatabase, "mysql"},
	{"gorm.io/driver/mysql", kindDatabase, "mysql"},
	{"github.com/mattn/go-sqlite3", kindDatabase, "sqlite"},
	{"modernc.org/sqlite", kindDatabase, "sqlite"},
	{"github.com/ncruces/go-sqlite3", kindDatabase, "sqlite"},
	{"gorm.io/driver/sqlite", kindDatabase, "sqlite"},
	{"go.mongodb.org/mongo-driver", kindDatabase, "mongodb"},
	{"github.com/redis/go-redis", kindDatabase, "redis"},
	{"github.com/go-redis/redis", kindDatabase, "redis"},
	{"github.com/gomodule/redigo", kindDatabase, "redis"},
	{"github.com/aws/aws-sdk-go", kindCloud, "aws"},
	{"cloud.google.com/go", kindCloud, "gcp"},
	{"github.com/Azure/azure-sdk-for-go", kindCloud, "azure"},
}

// npm package names
var nodeRules = []depRule{
	{"react", kindFramework, "react"},
	{"next", kindFramework, "next"},
	{"vue", kindFramework, "vue"},
	{"@angular/core", kindFramework, "angular"},
	{"svelte", kindFramework, "svelte"},
	{"express", kindFramework, "express"},
	{"fastify", kindFramework, "fastify"},
	{"@nestjs/core", kindFramework, "nestjs"},
	{"jest", kindFramework, "jest"},
	{"vitest", kindFramework, "vitest"},
	{"mocha", kindFramework, "mocha"},
	{"cypress", kindFramework, "cypress"},
	{"@playwright/test", kindFramework, "playwright"},
	{"playwright", kindFramework, "playwright"},
	{"pg", kindDatabase, "postgresql"},
	{"postgres", kindDatabase, "postgresql"},
	{"mysql", kindDatabase, "mysql"},
	{"mysql2", kindDatabase, "mysql"},
	{"sqlite3", kindDatabase, "sqlite"},
	{"better-sqlite3", kindDatabase, "sqlite"},
	{"mongodb", kindDatabase, "mongodb"},
	{"mongoose", kindDatabase, "mongodb"},
	{"redis", kindDatabase, "redis"},
	{"ioredis", kindDatabase, "redis"},
	{"vite", kindBuildTool, "vite"},
	{"webpack", kindBuildTool, "webpack"},
	{"esbuild", kindBuildTool, "esbuild"},
	{"rollup", kindBuildTool, "rollup"},
	{"turbo", kindBuildTool, "turbo"},
	{"aws-sdk", kindCloud, "aws"},
	{"@aws-sdk/", kindCloud, "aws"},
	{"@google-cloud/", kindCloud, "gcp"},
	{"firebase-admin", kindCloud, "gcp"},
	{"@azure/", kindCloud, "azure"},
}

// PyPI distribution names, normalized to lowercase with dashes
var pythonRules = []depRule{
	{"django", kindFramework, "django"},
	{"flask", kindFramework, "flask"},
	{"fastapi", kindFramework, "fastapi"},
	{"pytest", kindFramework, "pytest"},
	{"psycopg2", kindDatabase, "postgresql"},
	{"psycopg2-binary", kindDatabase, "postgresql"},
	{"psycopg", kindDatabase, "postgresql"},
	{"asyncpg", kindDatabase, "postgresql"},
	{"mysqlclient", kindDatabase, "mysql"},
	{"pymysql", kindDatabase, "mysql"},
	{"mysql-connector-python", kindDatabase, "mysql"},
	{"pymongo", kindDatabase, "mongodb"},
	{"motor", kindDatabase, "mongodb"},
	{"redis", kindDatabase, "redis"},
	{"boto3", kindCloud, "aws"},
	{"botocore", kindCloud, "aws"},
	{"google-cloud-", kindCloud, "gcp"},
	{"azure-", kindCloud, "azure"},
}

// crates.io names
var cargoRules = []depRule{
	{"actix-web", kindFramework, "actix-web"},
	{"axum", kindFramework, "axum"},
	{"rocket", kindFramework, "rocket"},
	{"tokio", kindFramework, "tokio"},
	{"postgres", kindDatabase, "postgresql"},
	{"tokio-postgres", kindDatabase, "postgresql"},
	{"rusqlite", kindDatabase, "sqlite"},
	{"mongodb", kindDatabase, "mongodb"},
	{"redis", kindDatabase, "redis"},
	{"aws-sdk-", kindCloud, "aws"},
	{"aws-config", kindCloud, "aws"},
}

// Substrings searched in pom.xml and Gradle build files
var jvmRules = []depRule{
	{"spring-boot", kindFramework, "spring-boot"},
	{"junit", kindFramework, "junit"},
	{"org.postgresql", kindDatabase, "postgresql"},
	{"mysql-connector", kindDatabase, "mysql"},
	{"mongodb-driver", kindDatabase, "mongodb"},
	{"spring-boot-starter-data-mongodb", kindDatabase, "mongodb"},
	{"jedis", kindDatabase, "redis"},
	{"lettuce-core", kindDatabase, "redis"},
	{"spring-boot-starter-data-redis", kindDatabase, "redis"},
	{"software.amazon.awssdk", kindCloud, "aws"},
	{"com.amazonaws", kindCloud, "aws"},
	{"com.google.cloud", kindCloud, "gcp"},
	{"com.azure", kindCloud, "azure"},
}

// applyExact applies every rule whose match equals dep, or prefixes it when
// the match ends in "/" or "-".
func applyExact(e *Evidence, rules []depRule, deps ...string) {
	for _, dep := range deps {
		for _, r := range rules {
			if dep == r.match || (isPrefixRule(r.match) && strings.HasPrefix(dep, r.match)) {
				r.apply(e)
			}
		}
	}
}

func isPrefixRule(match string) bool {
	return strings.HasSuffix(match, "/") || strings.HasSuffix(match, "-")
}

// applyPrefix applies every rule whose match prefixes dep.
func applyPrefix(e *Evidence, rules []depRule, deps ...string) {
	for _, dep := range deps {
		for _, r := range rules {
			if strings.HasPrefix(dep, r.match) {
				r.apply(e)
			}
		}
	}
}

// applyContains applies every rule whose match occurs anywhere in text.
func applyContains(e *Evidence, rules []depRule, text string) {
	for _, r := range rules {
		if strings.Contains(text, r.match) {
			r.apply(e)
		}
	}
}
