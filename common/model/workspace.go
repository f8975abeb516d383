package model

// Workspace is the root of a build (§3). One Workspace exists per
// invocation; it is populated by the configuration loader and becomes
// immutable once the build phase starts.
type Workspace struct {
	RootDir     string
	Projects    map[string]*Project
	FilterHooks []ProjectFilterHook
	// Jobs holds jobs owned directly by the workspace (no component
	// prefix in their canonical identifier).
	Jobs map[string]*Job
}

func NewWorkspace(rootDir string) *Workspace {
	return &Workspace{
		RootDir:  rootDir,
		Projects: make(map[string]*Project),
		Jobs:     make(map[string]*Job),
	}
}

func (w *Workspace) ComponentIdentifier() string {
	return ""
}

// AllJobs collects every Job in the workspace: workspace-owned jobs, every
// project-owned job, and every artifact-owned job (Engine Facade step 2).
func (w *Workspace) AllJobs() []*Job {
	jobs := make([]*Job, 0, len(w.Jobs))
	for _, job := range w.Jobs {
		jobs = append(jobs, job)
	}
	for _, project := range w.Projects {
		jobs = append(jobs, project.AllJobs()...)
	}
	return jobs
}

// ApplyProjectFilterHooks invokes each registered hook's callback for
// every project whose identifier matches the hook's filter.
func (w *Workspace) ApplyProjectFilterHooks() {
	for _, hook := range w.FilterHooks {
		for id, project := range w.Projects {
			if hook.Filter.Matches(id) {
				hook.Callback(project)
			}
		}
	}
}
