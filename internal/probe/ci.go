package probe

import (
	"context"

	"github.com/steveyegge/skillscan/internal/fsprobe"
	"github.com/steveyegge/skillscan/internal/types"
)

// CIProbe detects hosted CI configuration
type CIProbe struct{}

func (p *CIProbe) Name() string { return "ci" }

var ciSystems = []struct {
	path   string
	system string
}{
	{".github/workflows", "github-actions"},
	{".gitlab-ci.yml", "gitlab-ci"},
	{"Jenkinsfile", "jenkins"},
	{".circleci", "circleci"},
	{"azure-pipelines.yml", "azure-pipelines"},
	{"bitbucket-pipelines.yml", "bitbucket-pipelines"},
}

func (p *CIProbe) Probe(ctx context.Context, fs fsprobe.Reader) Evidence {
	var e Evidence
	for _, ci := range ciSystems {
		if fs.Exists(ci.path) {
			e.SetFlag(types.FlagCI)
			e.AddBuildTool(ci.system)
		}
	}
	return e
}
