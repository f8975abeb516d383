package model

// Job is a single executable step (§3).
type Job struct {
	Name Name
	// Owner is the Component (Workspace or Project) that exclusively owns
	// this job.
	Owner Component
	// ArtifactName is the owning Artifact's name, or "" if this job is not
	// part of an artifact.
	ArtifactName string
	Description  string
	// DependsOn is an ordered list of canonical job identifiers this job
	// depends on. Dependencies are referenced by identifier, never by
	// pointer, so ownership structures never form cycles (§3).
	DependsOn []string
	Actions   []Action
	// Blocking is true (the default) for jobs that must complete before
	// subsequent layers begin. Background jobs set this to false.
	Blocking bool
	// RuntimeID is assigned fresh for each execution of this job.
	RuntimeID string
}

// NewJob constructs a Job with the default Blocking=true.
func NewJob(name Name, owner Component, artifactName string) *Job {
	return &Job{
		Name:         name,
		Owner:        owner,
		ArtifactName: artifactName,
		Blocking:     true,
	}
}

// ID returns the canonical identifier for this job.
func (j *Job) ID() JobID {
	return JobID{
		Component: j.Owner.ComponentIdentifier(),
		Artifact:  j.ArtifactName,
		Job:       j.Name.String(),
	}
}

func (j *Job) CanonicalID() string {
	return j.ID().String()
}
