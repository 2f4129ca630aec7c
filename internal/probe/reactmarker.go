package probe

import (
	"context"

	"github.com/tidwall/gjson"

	"github.com/steveyegge/skillscan/internal/fsprobe"
	"github.com/steveyegge/skillscan/internal/types"
)

// ReactMarkerProbe finds React in projects whose manifest does not declare it,
// e.g. vendored bundles or workspaces with package.json in a subdirectory.
type ReactMarkerProbe struct {
	opts Options
}

func (p *ReactMarkerProbe) Name() string { return "reactmarker" }

var reactImportMarkers = []string{
	`from 'react'`, `from "react"`, `require('react')`, `require("react")`,
}

func (p *ReactMarkerProbe) Probe(ctx context.Context, fs fsprobe.Reader) Evidence {
	var e Evidence
	if content, ok := fs.ReadText("package.json", p.opts.MaxReadBytes); ok {
		if gjson.Get(content, "dependencies.react").Exists() || gjson.Get(content, "devDependencies.react").Exists() {
			// Already covered by the package.json probe
			return e
		}
	}
	if _, ok := fs.FirstContaining(ctx, "**/*.{jsx,tsx}", reactImportMarkers, p.opts.MaxMarkerFiles); ok {
		e.SetFlag(types.FlagReact)
		e.AddFramework("react")
	}
	return e
}
