// Package engine implements the Engine Facade (§4.J): it binds the
// Workspace produced by a configuration loader to the Job Registry,
// Execution Graph, Executor and Artifact Manager, and drives a single
// build of a target job.
package engine

import (
	"context"

	"github.com/benbjohnson/clock"

	"github.com/forgebuild/forge/common/berror"
	"github.com/forgebuild/forge/common/logger"
	"github.com/forgebuild/forge/common/model"
	"github.com/forgebuild/forge/engine/artifact"
	"github.com/forgebuild/forge/engine/eventbus"
	"github.com/forgebuild/forge/engine/executor"
	"github.com/forgebuild/forge/engine/filehashcache"
	"github.com/forgebuild/forge/engine/graph"
	"github.com/forgebuild/forge/engine/jobregistry"
	"github.com/forgebuild/forge/engine/plugin"
)

// Engine binds together every core component and drives one build per
// Run call.
type Engine struct {
	Workspace *model.Workspace
	Stage     *model.StageTracker

	Registry *jobregistry.Registry
	Graph    *graph.Graph
	Bus      *eventbus.Bus

	Extensions *plugin.ExtensionManager
	Artifacts  *artifact.Manager
	FileHashes *filehashcache.Cache

	clock clock.Clock
	log   logger.Log
}

// New constructs an Engine over a populated Workspace. extensions and
// fileHashes may be nil for the invocations that don't need a plugin or a
// file-hash cache.
func New(
	ws *model.Workspace,
	bus *eventbus.Bus,
	artifactIndex *artifact.Index,
	fileHashes *filehashcache.Cache,
	extensions *plugin.ExtensionManager,
	c clock.Clock,
	log logger.Log,
) *Engine {
	if c == nil {
		c = clock.New()
	}
	if extensions == nil {
		extensions = plugin.NewExtensionManager()
	}
	e := &Engine{
		Workspace:  ws,
		Stage:      model.NewStageTracker(),
		Registry:   jobregistry.New(),
		Graph:      graph.New(),
		Bus:        bus,
		Extensions: extensions,
		FileHashes: fileHashes,
		clock:      c,
		log:        log,
	}
	e.Artifacts = artifact.NewManager(artifactIndex, bus, extensions, c)
	return e
}

// Run executes the five steps of the Engine Facade (§4.J) against
// targetJobID, then flushes both caches regardless of outcome.
func (e *Engine) Run(ctx context.Context, targetJobID string, invalidate bool) error {
	if err := e.Stage.TransitionTo(model.StageRuntime); err != nil {
		return berror.Newf(berror.KindInternal, berror.CodeGraphInvariant, "cannot enter runtime stage").Wrap(err)
	}

	if err := e.BuildGraph(); err != nil {
		e.flushCaches()
		return err
	}

	layers, err := e.Graph.GetExecutionLayers(targetJobID)
	if err != nil {
		e.flushCaches()
		return err
	}

	exec := executor.New(e.Bus, e.clock, e.log, e.Artifacts)
	root := eventbus.RootScope()
	runErr := exec.Run(ctx, root, layers)

	e.flushCaches()
	return runErr
}

// BuildGraph performs Engine Facade steps 2-3: it registers every job in
// the Workspace, lets each Artifact's plugin Dependencies attach their
// implied job dependency, then attaches every job's declared dependencies
// into the Execution Graph. Exposed separately from Run so diagnostics
// tooling (httpapi) can inspect the graph without driving a build.
func (e *Engine) BuildGraph() error {
	jobs := e.Workspace.AllJobs()

	for _, job := range jobs {
		if err := e.Registry.RegisterJob(job); err != nil {
			return err
		}
		e.Graph.Add(job)
	}

	if err := e.resolvePluginDependencies(); err != nil {
		return err
	}

	for _, job := range jobs {
		depIDs := make([]string, 0, len(job.DependsOn))
		for _, depID := range job.DependsOn {
			if !e.Registry.HasJob(depID) {
				return berror.NewMissingDependency(job.CanonicalID(), depID)
			}
			depIDs = append(depIDs, depID)
		}
		if err := e.Graph.Attach(job.CanonicalID(), depIDs); err != nil {
			return err
		}
	}
	return nil
}

// resolvePluginDependencies walks every Artifact's plugin-contributed
// Dependencies and lets each attach its implied job dependency by
// appending to the dependent job's DependsOn list, before the graph is
// built (§3 "Dependency... Resolve").
func (e *Engine) resolvePluginDependencies() error {
	for _, project := range e.Workspace.Projects {
		for _, art := range project.Artifacts {
			for _, dep := range art.Dependencies {
				ctx := &resolveContext{engine: e, artifact: art, project: project}
				if err := dep.Resolve(ctx); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

type resolveContext struct {
	engine   *Engine
	artifact *model.Artifact
	project  *model.Project
}

func (c *resolveContext) Artifact() *model.Artifact   { return c.artifact }
func (c *resolveContext) Project() *model.Project     { return c.project }
func (c *resolveContext) Workspace() *model.Workspace { return c.engine.Workspace }

func (c *resolveContext) AddJobDependency(dependentJobID, dependsOnJobID string) error {
	job, ok := c.engine.Registry.GetJob(dependentJobID)
	if !ok {
		return berror.NewMissingDependency(dependentJobID, dependsOnJobID)
	}
	for _, existing := range job.DependsOn {
		if existing == dependsOnJobID {
			return nil
		}
	}
	job.DependsOn = append(job.DependsOn, dependsOnJobID)
	return nil
}

func (e *Engine) flushCaches() {
	if e.Artifacts != nil {
		if err := e.Artifacts.Flush(); err != nil && e.log != nil {
			e.log.Warnf("failed to flush artifact cache: %v", err)
		}
	}
	if e.FileHashes != nil {
		if err := e.FileHashes.Flush(); err != nil && e.log != nil {
			e.log.Warnf("failed to flush file-hash cache: %v", err)
		}
	}
}
