package probe

import (
	"context"

	"github.com/steveyegge/skillscan/internal/fsprobe"
	"github.com/steveyegge/skillscan/internal/types"
)

// JVMProbe detects Maven and Gradle builds
type JVMProbe struct {
	opts Options
}

func (p *JVMProbe) Name() string { return "jvm" }

var jvmBuildFiles = []struct {
	file string
	tool string
}{
	{"pom.xml", "maven"},
	{"build.gradle", "gradle"},
	{"build.gradle.kts", "gradle"},
}

func (p *JVMProbe) Probe(ctx context.Context, fs fsprobe.Reader) Evidence {
	var e Evidence
	for _, bf := range jvmBuildFiles {
		content, ok := fs.ReadText(bf.file, p.opts.MaxReadBytes)
		if !ok {
			continue
		}
		e.AddLanguage("java")
		e.SetFlag(types.FlagJava)
		e.AddBuildTool(bf.tool)
		e.AddPackageManager(bf.tool)
		applyContains(&e, jvmRules, content)
	}
	return e
}
