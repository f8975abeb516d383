package hcl

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"

	"github.com/forgebuild/forge/common/berror"
	"github.com/forgebuild/forge/common/model"
)

// Load parses every *.forge.hcl file directly under dir and assembles a
// model.Workspace rooted at dir.
func Load(dir string) (*model.Workspace, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.forge.hcl"))
	if err != nil {
		return nil, errors.Wrapf(err, "globbing configuration files under %s", dir)
	}

	parser := hclparse.NewParser()
	evalCtx := buildEvalContext()
	ws := model.NewWorkspace(dir)

	for _, path := range matches {
		file, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return nil, berror.Newf(berror.KindScripting, berror.CodeScriptingFailed, "parsing %s", path).Wrap(diags)
		}

		var schema fileSchema
		if diags := gohcl.DecodeBody(file.Body, evalCtx, &schema); diags.HasErrors() {
			return nil, berror.Newf(berror.KindScripting, berror.CodeScriptingFailed, "decoding %s", path).Wrap(diags)
		}

		if err := applyFile(ws, &schema); err != nil {
			return nil, err
		}
	}

	return ws, nil
}

// buildEvalContext exposes the process environment as an `env` object so
// configuration files can reference e.g. env.HOME.
func buildEvalContext() *hcl.EvalContext {
	envVars := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			envVars[parts[0]] = cty.StringVal(parts[1])
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(envVars),
		},
	}
}

func applyFile(ws *model.Workspace, schema *fileSchema) error {
	for _, jb := range schema.Jobs {
		job := buildJob(jb, ws, "")
		ws.Jobs[job.Name.String()] = job
	}

	for _, pb := range schema.Projects {
		project, err := buildProject(ws, pb)
		if err != nil {
			return err
		}
		ws.Projects[project.ID] = project
	}
	return nil
}

func buildProject(ws *model.Workspace, pb projectBlock) (*model.Project, error) {
	dir := pb.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(ws.RootDir, dir)
	}
	rel, err := filepath.Rel(ws.RootDir, dir)
	if err != nil {
		return nil, berror.Newf(berror.KindConfiguration, berror.CodeMissingSource, "project %q dir not under workspace", pb.Name).Wrap(err)
	}
	id := strings.ReplaceAll(filepath.ToSlash(rel), "/", ":")

	project := model.NewProject(model.Name(pb.Name), id, dir, ws)
	project.Version = pb.Version
	project.Description = pb.Description
	project.Group = pb.Group

	for _, sb := range pb.SourceSets {
		project.SourceSets[sb.Name] = &model.SourceSet{
			Root:     dir,
			Includes: sb.Includes,
			Excludes: sb.Excludes,
		}
	}

	for _, jb := range pb.Jobs {
		job := buildJob(jb, project, "")
		project.Jobs[job.Name.String()] = job
	}

	for _, ab := range pb.Artifacts {
		art := &model.Artifact{
			Name:        model.Name(ab.Name),
			Description: ab.Description,
			Project:     project,
			Blueprint:   model.PluginComponentRef{URI: ab.Blueprint},
		}
		for _, depRef := range ab.DependsOn {
			dep, err := parseArtifactDependencyRef(depRef)
			if err != nil {
				return nil, err
			}
			art.Dependencies = append(art.Dependencies, dep)
		}
		for _, jb := range ab.Jobs {
			job := buildJob(jb, project, ab.Name)
			art.Jobs = append(art.Jobs, job)
		}
		project.Artifacts[ab.Name] = art
	}

	return project, nil
}

func buildJob(jb jobBlock, owner model.Component, artifactName string) *model.Job {
	job := model.NewJob(model.Name(jb.Name), owner, artifactName)
	job.Description = jb.Description
	job.DependsOn = jb.DependsOn
	if jb.Blocking != nil {
		job.Blocking = *jb.Blocking
	}
	for _, ab := range jb.Actions {
		job.Actions = append(job.Actions, buildAction(ab))
	}
	return job
}

func buildAction(ab actionBlock) model.Action {
	switch ab.Kind {
	case "shell":
		return model.NewShellAction(ab.Program, ab.Args, ab.Dir, ab.Env)
	case "log":
		return model.NewLogAction(ab.Level, ab.Message)
	default:
		return model.NewLogAction("warn", "unsupported action kind: "+ab.Kind)
	}
}

// parseArtifactDependencyRef parses a "<project-id>:<artifact-name>"
// reference into the built-in ArtifactDependency kind.
func parseArtifactDependencyRef(ref string) (*model.ArtifactDependency, error) {
	idx := strings.LastIndex(ref, ":")
	if idx < 0 {
		return nil, berror.Newf(berror.KindConfiguration, berror.CodeInvalidIdentifier,
			"artifact dependency %q must be \"<project>:<artifact>\"", ref)
	}
	return model.ParseArtifactDependency(map[string]string{
		"project":  ref[:idx],
		"artifact": ref[idx+1:],
	})
}
