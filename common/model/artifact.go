package model

// PluginComponentRef identifies the plugin-contributed blueprint that
// builds an Artifact, by URI (group:name@version:component, §6).
type PluginComponentRef struct {
	URI string
}

// Artifact groups the jobs that produce a deliverable (§3).
type Artifact struct {
	Name         Name
	Description  string
	Project      *Project
	Jobs         []*Job
	Dependencies []Dependency
	Blueprint    PluginComponentRef

	// LogCache holds the log entries recorded the last time this
	// artifact's blueprint ran to completion, for cache-hit replay.
	LogCache []ReplayLogEntry
}

func (a *Artifact) ComponentIdentifier() string {
	if a.Project == nil {
		return ""
	}
	return a.Project.ID
}

// BuildJobID returns the canonical identifier of this artifact's "build"
// job, the conventional predecessor that ArtifactDependency attaches to.
func (a *Artifact) BuildJobID() JobID {
	return JobID{Component: a.ComponentIdentifier(), Artifact: a.Name.String(), Job: "build"}
}
