package model

import "fmt"

// ResolveContext is the view of the build graph a Dependency's Resolve
// operation is given. Implemented by the Execution Graph component so that
// dependency resolution never needs direct pointer access to jobs (§3:
// "Dependencies reference jobs by identifier... to avoid cycles through
// ownership").
type ResolveContext interface {
	Artifact() *Artifact
	Project() *Project
	Workspace() *Workspace
	// AddJobDependency records that dependentJobID depends on
	// dependsOnJobID, attaching it to the execution graph.
	AddJobDependency(dependentJobID, dependsOnJobID string) error
}

// Dependency is a polymorphic object contributed by a plugin (§3, §4.H).
// The core requires only a Resolve operation.
type Dependency interface {
	// Resolve attaches implied job dependencies for the given artifact and
	// records any inter-artifact links.
	Resolve(ctx ResolveContext) error
}

// ArtifactDependency is the only Dependency kind the core itself ships.
// It records that the current artifact's build job must run after the
// "build" job of artifact ArtifactName in project ProjectID, whose
// canonical id is <ProjectID>/<ArtifactName>:build.
type ArtifactDependency struct {
	ProjectID    string
	ArtifactName string
}

func (d *ArtifactDependency) Resolve(ctx ResolveContext) error {
	artifact := ctx.Artifact()
	if artifact == nil {
		return fmt.Errorf("artifact dependency resolved with no owning artifact")
	}
	buildJobID := JobID{Component: artifact.Project.ID, Artifact: artifact.Name.String(), Job: "build"}.String()
	dependsOn := JobID{Component: d.ProjectID, Artifact: d.ArtifactName, Job: "build"}.String()
	return ctx.AddJobDependency(buildJobID, dependsOn)
}

// ParseArtifactDependency implements the static Parse(args) contract
// described for plugin Dependency kinds (§4.H.3), for the built-in kind.
func ParseArtifactDependency(args map[string]string) (*ArtifactDependency, error) {
	project, ok := args["project"]
	if !ok || project == "" {
		return nil, fmt.Errorf("artifact dependency requires a \"project\" argument")
	}
	artifact, ok := args["artifact"]
	if !ok || artifact == "" {
		return nil, fmt.Errorf("artifact dependency requires an \"artifact\" argument")
	}
	return &ArtifactDependency{ProjectID: project, ArtifactName: artifact}, nil
}
