package sink

import (
	"bytes"
	"embed"
	"maps"
	"slices"
	"strings"
	"text/template"
)

//go:embed templates/*.md.tmpl
var templatesFS embed.FS

var skillTemplates *template.Template

func init() {
	funcs := template.FuncMap{
		"joinStrings": strings.Join,
		"sortedKeys": func(m map[string]string) []string {
			return slices.Sorted(maps.Keys(m))
		},
	}
	skillTemplates = template.Must(
		template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.md.tmpl"),
	)
}

// renderTemplate executes a named template with the given data and returns the result.
func renderTemplate(name string, data any) string {
	var buf bytes.Buffer
	if err := skillTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		// Templates are embedded and exercised by tests
		panic("sink: failed to render template " + name + ": " + err.Error())
	}
	return buf.String()
}
