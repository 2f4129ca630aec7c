package probe

import (
	"context"
	"strings"

	"github.com/steveyegge/skillscan/internal/fsprobe"
)

// CloudProbe detects infrastructure-as-code and hosting configuration
type CloudProbe struct {
	opts Options
}

func (p *CloudProbe) Name() string { return "cloud" }

var terraformProviders = []struct {
	markers  []string
	provider string
}{
	{[]string{`provider "aws"`, "hashicorp/aws"}, "aws"},
	{[]string{`provider "google"`, "hashicorp/google"}, "gcp"},
	{[]string{`provider "azurerm"`, "hashicorp/azurerm"}, "azure"},
}

var serverlessProviders = []struct {
	marker   string
	provider string
}{
	{"name: aws", "aws"},
	{"name: google", "gcp"},
	{"name: azure", "azure"},
}

func (p *CloudProbe) Probe(ctx context.Context, fs fsprobe.Reader) Evidence {
	var e Evidence

	if len(fs.Glob(ctx, "**/*.tf", 1)) > 0 {
		e.AddBuildTool("terraform")
		for _, tp := range terraformProviders {
			if _, ok := fs.FirstContaining(ctx, "**/*.tf", tp.markers, p.opts.MaxMarkerFiles); ok {
				e.AddCloudProvider(tp.provider)
			}
		}
	}

	if fs.Exists("vercel.json") || fs.IsDir(".vercel") {
		e.AddCloudProvider("vercel")
	}
	if fs.Exists("netlify.toml") {
		e.AddCloudProvider("netlify")
	}
	if fs.Exists("fly.toml") {
		e.AddCloudProvider("fly")
	}

	for _, name := range []string{"serverless.yml", "serverless.yaml"} {
		content, ok := fs.ReadText(name, p.opts.MaxReadBytes)
		if !ok {
			continue
		}
		e.AddBuildTool("serverless")
		for _, sp := range serverlessProviders {
			if strings.Contains(content, sp.marker) {
				e.AddCloudProvider(sp.provider)
			}
		}
	}

	// App Engine descriptor
	if content, ok := fs.ReadText("app.yaml", p.opts.MaxReadBytes); ok && strings.Contains(content, "runtime:") {
		e.AddCloudProvider("gcp")
	}
	if fs.Exists("cdk.json") {
		e.AddCloudProvider("aws")
		e.AddBuildTool("aws-cdk")
	}
	return e
}
