package model

import "strings"

// Project is a buildable unit rooted at a subdirectory of the workspace
// (§3).
type Project struct {
	Name        Name
	ID          string
	Version     string
	Description string
	Group       string
	Dir         string

	Artifacts  map[string]*Artifact
	SourceSets map[string]*SourceSet
	// Jobs holds jobs owned directly by the project (not part of any
	// artifact), e.g. a project-level "clean" job.
	Jobs map[string]*Job

	Workspace *Workspace
}

// NewProject constructs a Project, lowercasing name per the data model
// invariant that a Project's name is always lowercased.
func NewProject(name Name, id, dir string, workspace *Workspace) *Project {
	return &Project{
		Name:       Name(strings.ToLower(name.String())),
		ID:         id,
		Dir:        dir,
		Artifacts:  make(map[string]*Artifact),
		SourceSets: make(map[string]*SourceSet),
		Jobs:       make(map[string]*Job),
		Workspace:  workspace,
	}
}

func (p *Project) ComponentIdentifier() string {
	return p.ID
}

// AllJobs returns every Job owned directly by this project and by each of
// its artifacts.
func (p *Project) AllJobs() []*Job {
	jobs := make([]*Job, 0, len(p.Jobs))
	for _, job := range p.Jobs {
		jobs = append(jobs, job)
	}
	for _, artifact := range p.Artifacts {
		jobs = append(jobs, artifact.Jobs...)
	}
	return jobs
}
