package probe

import (
	"context"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/steveyegge/skillscan/internal/fsprobe"
	"github.com/steveyegge/skillscan/internal/types"
)

// ContainersProbe detects Docker, Compose services and Kubernetes manifests
type ContainersProbe struct {
	opts Options
}

func (p *ContainersProbe) Name() string { return "containers" }

var composeFiles = []string{
	"docker-compose.yml", "docker-compose.yaml", "compose.yml", "compose.yaml",
}

// Image names (last path segment, no tag) that identify a database service
var serviceImages = map[string]string{
	"postgres": "postgresql",
	"postgis":  "postgresql",
	"mysql":    "mysql",
	"mariadb":  "mysql",
	"mongo":    "mongodb",
	"redis":    "redis",
	"valkey":   "redis",
}

var kubernetesMarkers = []string{
	"kind: Deployment", "kind: StatefulSet", "kind: DaemonSet", "kind: CronJob",
}

type composeFile struct {
	Services map[string]struct {
		Image string `yaml:"image"`
	} `yaml:"services"`
}

func (p *ContainersProbe) Probe(ctx context.Context, fs fsprobe.Reader) Evidence {
	var e Evidence

	if fs.Exists("Dockerfile") || len(fs.Glob(ctx, "**/Dockerfile", 1)) > 0 {
		e.SetFlag(types.FlagDocker)
		e.AddBuildTool("docker")
	}

	for _, name := range composeFiles {
		content, ok := fs.ReadText(name, p.opts.MaxReadBytes)
		if !ok {
			continue
		}
		e.SetFlag(types.FlagDocker)
		e.AddBuildTool("docker-compose")

		var cf composeFile
		if err := yaml.Unmarshal([]byte(content), &cf); err != nil {
			continue
		}
		services := make([]string, 0, len(cf.Services))
		for svc := range cf.Services {
			services = append(services, svc)
		}
		sort.Strings(services)
		for _, svc := range services {
			if db, ok := serviceImages[ImageName(cf.Services[svc].Image)]; ok {
				e.AddDatabase(db)
			}
		}
	}

	if fs.Exists("Chart.yaml") || len(fs.Glob(ctx, "**/Chart.yaml", 1)) > 0 {
		e.SetFlag(types.FlagKubernetes)
		e.AddBuildTool("helm")
	}
	if !e.Flags[types.FlagKubernetes] {
		if _, ok := fs.FirstContaining(ctx, "**/*.{yaml,yml}", kubernetesMarkers, p.opts.MaxMarkerFiles); ok {
			e.SetFlag(types.FlagKubernetes)
		}
	}
	if fs.Exists("kustomization.yaml") {
		e.SetFlag(types.FlagKubernetes)
		e.AddBuildTool("kustomize")
	}
	return e
}

// ImageName reduces "docker.io/bitnami/postgresql:16-alpine" to "postgresql".
func ImageName(image string) string {
	image = strings.TrimSpace(image)
	if i := strings.Index(image, "@"); i >= 0 {
		image = image[:i]
	}
	if i := strings.LastIndex(image, "/"); i >= 0 {
		image = image[i+1:]
	}
	if i := strings.Index(image, ":"); i >= 0 {
		image = image[:i]
	}
	return strings.ToLower(image)
}
