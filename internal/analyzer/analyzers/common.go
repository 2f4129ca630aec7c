package analyzers

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/steveyegge/skillscan/internal/fsprobe"
	"github.com/steveyegge/skillscan/internal/types"
)

// Frameworks that serve HTTP or RPC traffic
var serverFrameworks = []string{
	"gin", "echo", "fiber", "chi", "gorilla-mux", "grpc",
	"express", "fastify", "nestjs", "next",
	"django", "flask", "fastapi",
	"spring-boot",
	"axum", "actix-web", "rocket",
}

// Frameworks that render a browser UI
var uiFrameworks = []string{"react", "next", "vue", "angular", "svelte"}

// Languages that usually run on a server
var backendLanguages = []string{"go", "python", "java", "rust"}

// sourceGlob returns a doublestar pattern matching source files of the
// detected languages, or "" when none have a known extension.
func sourceGlob(stack *types.TechStack) string {
	var exts []string
	for _, lang := range stack.Languages() {
		switch lang {
		case "go":
			exts = append(exts, "go")
		case "python":
			exts = append(exts, "py")
		case "java":
			exts = append(exts, "java")
		case "rust":
			exts = append(exts, "rs")
		case "typescript":
			exts = append(exts, "ts", "tsx")
		case "javascript":
			exts = append(exts, "js", "jsx")
		}
	}
	switch len(exts) {
	case 0:
		return ""
	case 1:
		return "**/*." + exts[0]
	}
	return "**/*.{" + strings.Join(exts, ",") + "}"
}

// packageScript returns a package.json script body, e.g. scripts.test.
func packageScript(fs fsprobe.Reader, name string) string {
	content, ok := fs.ReadText("package.json", 0)
	if !ok {
		return ""
	}
	return gjson.Get(content, "scripts."+name).String()
}

// detected returns the subset of names present in the stack's frameworks, in list order
func detected(stack *types.TechStack, names []string) []string {
	var out []string
	for _, n := range names {
		if stack.HasFramework(n) {
			out = append(out, n)
		}
	}
	return out
}

// containsLine reports whether an ignore-style file lists entry, allowing a
// leading slash or a trailing wildcard.
func containsLine(content, entry string) bool {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		switch line {
		case entry, "/" + entry, entry + "*", "/" + entry + "*":
			return true
		}
	}
	return false
}
