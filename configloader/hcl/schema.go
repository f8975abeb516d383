// Package hcl is a reference (non-core, swappable) implementation of the
// "opaque configuration loader" external contract (§1, §3): it parses a
// small HCL dialect into the model.Workspace data model the engine
// consumes, so the core is testable end-to-end without a full scripting
// host.
package hcl

// fileSchema is the top-level shape of a single configuration file:
// zero or more project blocks and zero or more workspace-owned job blocks.
type fileSchema struct {
	Projects []projectBlock `hcl:"project,block"`
	Jobs     []jobBlock     `hcl:"job,block"`
}

type projectBlock struct {
	Name        string           `hcl:"name,label"`
	Dir         string           `hcl:"dir"`
	Version     string           `hcl:"version,optional"`
	Description string           `hcl:"description,optional"`
	Group       string           `hcl:"group,optional"`
	SourceSets  []sourceSetBlock `hcl:"sourceset,block"`
	Jobs        []jobBlock       `hcl:"job,block"`
	Artifacts   []artifactBlock  `hcl:"artifact,block"`
}

type sourceSetBlock struct {
	Name     string   `hcl:"name,label"`
	Includes []string `hcl:"includes"`
	Excludes []string `hcl:"excludes,optional"`
}

type jobBlock struct {
	Name        string        `hcl:"name,label"`
	Description string        `hcl:"description,optional"`
	DependsOn   []string      `hcl:"depends_on,optional"`
	Blocking    *bool         `hcl:"blocking,optional"`
	Actions     []actionBlock `hcl:"action,block"`
}

type actionBlock struct {
	Kind    string   `hcl:"kind,label"`
	Program string   `hcl:"program,optional"`
	Args    []string `hcl:"args,optional"`
	Dir     string   `hcl:"dir,optional"`
	Env     []string `hcl:"env,optional"`
	Level   string   `hcl:"level,optional"`
	Message string   `hcl:"message,optional"`
}

type artifactBlock struct {
	Name        string     `hcl:"name,label"`
	Description string     `hcl:"description,optional"`
	Blueprint   string     `hcl:"blueprint,optional"`
	DependsOn   []string   `hcl:"depends_on,optional"`
	Jobs        []jobBlock `hcl:"job,block"`
}
