// Package executor runs a layered execution graph with the
// blocking/background job semantics of §4.F/§5: a goroutine-and-waitgroup
// concurrency style with an injected clock for duration measurement.
package executor

import (
	"context"
	"os/exec"
	"sync"

	"github.com/alessio/shellescape"
	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/forgebuild/forge/common/berror"
	"github.com/forgebuild/forge/common/logger"
	"github.com/forgebuild/forge/common/model"
	"github.com/forgebuild/forge/engine/eventbus"
	"github.com/forgebuild/forge/engine/graph"
)

// ArtifactRunner is invoked by the executor for any job that belongs to an
// artifact, so the Artifact Manager (§4.G) can intercept it with the
// cache-lookup/replay protocol instead of running its actions directly.
// A nil ArtifactRunner means every job's actions are always run.
type ArtifactRunner interface {
	RunArtifactJob(ctx context.Context, scope *eventbus.Scope, job *model.Job) error
}

// Executor drives a sequence of graph.ExecutionLayer values to completion.
type Executor struct {
	bus   *eventbus.Bus
	clock clock.Clock
	log   logger.Log

	artifacts ArtifactRunner
}

func New(bus *eventbus.Bus, c clock.Clock, log logger.Log, artifacts ArtifactRunner) *Executor {
	if c == nil {
		c = clock.New()
	}
	return &Executor{bus: bus, clock: c, log: log, artifacts: artifacts}
}

// Run executes every layer in order. Within a layer, blocking jobs start
// concurrently and are awaited before the layer is considered complete;
// background jobs start concurrently but are only collected and awaited
// once, after the last layer. A job failure cancels all not-yet-started
// blocking jobs in the current and later layers and causes Run to return
// a build/failed error after already-started blocking jobs drain.
func (e *Executor) Run(ctx context.Context, root *eventbus.Scope, layers []graph.ExecutionLayer) error {
	start := e.clock.Now()
	e.bus.Emit(eventbus.NewEvent(root, eventbus.LevelInfo, eventbus.KindBuildStarted, nil))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu            sync.Mutex
		failedJob     string
		failedErr     error
		background    sync.WaitGroup
		backgroundErr *multierror.Error
	)

	recordFailure := func(jobID string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if failedErr == nil {
			failedJob = jobID
			failedErr = err
			cancel()
		}
	}

	recordBackgroundFailure := func(jobID string, err error) {
		mu.Lock()
		defer mu.Unlock()
		backgroundErr = multierror.Append(backgroundErr, berror.NewBuildFailed(jobID, err))
	}

	for _, layer := range layers {
		select {
		case <-ctx.Done():
		default:
			e.bus.Emit(eventbus.NewEvent(root, eventbus.LevelInfo, eventbus.KindBuildLayerStarted, nil))

			var wg sync.WaitGroup
			for _, node := range layer.Nodes {
				node := node
				if ctx.Err() != nil {
					continue
				}
				if node.Job.Blocking {
					wg.Add(1)
					go func() {
						defer wg.Done()
						if err := e.runJob(ctx, root, node.Job); err != nil {
							recordFailure(node.ID, err)
						}
					}()
				} else {
					background.Add(1)
					go func() {
						defer background.Done()
						if err := e.runJob(ctx, root, node.Job); err != nil {
							recordBackgroundFailure(node.ID, err)
						}
					}()
				}
			}
			wg.Wait()

			e.bus.Emit(eventbus.NewEvent(root, eventbus.LevelInfo, eventbus.KindBuildLayerCompleted, nil))
		}
	}

	background.Wait()

	duration := e.clock.Now().Sub(start)
	mu.Lock()
	defer mu.Unlock()

	if backgroundErr != nil && e.log != nil {
		e.log.Warnf("background job(s) failed: %v", backgroundErr.ErrorOrNil())
	}

	if failedErr != nil {
		e.bus.Emit(eventbus.NewEvent(root, eventbus.LevelError, eventbus.KindBuildFailed, map[string]interface{}{
			"job": failedJob, "duration_ms": duration.Milliseconds(),
		}))
		return berror.NewBuildFailed(failedJob, failedErr)
	}

	e.bus.Emit(eventbus.NewEvent(root, eventbus.LevelInfo, eventbus.KindBuildCompleted, map[string]interface{}{
		"duration_ms": duration.Milliseconds(),
	}))
	return nil
}

// runJob pushes a new logging scope, runs the job's actions (or delegates
// to the ArtifactRunner for artifact-owned jobs), and always emits a
// terminal job-finished/job-failed event.
func (e *Executor) runJob(ctx context.Context, parent *eventbus.Scope, job *model.Job) error {
	scope, release := parent.Push()
	defer release()

	job.RuntimeID = uuid.NewString()

	e.bus.Emit(eventbus.NewEvent(scope, eventbus.LevelInfo, eventbus.KindJobStarted, map[string]interface{}{
		"job": job.CanonicalID(),
	}))

	var err error
	if job.ArtifactName != "" && e.artifacts != nil {
		err = e.artifacts.RunArtifactJob(ctx, scope, job)
	} else {
		err = e.runActions(ctx, scope, job)
	}

	if err != nil {
		e.bus.Emit(eventbus.NewEvent(scope, eventbus.LevelError, eventbus.KindJobFailed, map[string]interface{}{
			"job": job.CanonicalID(), "message": err.Error(),
		}))
		return err
	}

	e.bus.Emit(eventbus.NewEvent(scope, eventbus.LevelInfo, eventbus.KindJobFinished, map[string]interface{}{
		"job": job.CanonicalID(),
	}))
	return nil
}

// runActions runs a job's actions sequentially in insertion order; the
// first failing action aborts the remaining actions.
func (e *Executor) runActions(ctx context.Context, scope *eventbus.Scope, job *model.Job) error {
	for _, action := range job.Actions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.runAction(ctx, scope, action); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) runAction(ctx context.Context, scope *eventbus.Scope, action model.Action) error {
	switch action.Kind {
	case model.ActionKindLog:
		e.bus.Emit(eventbus.NewEvent(scope, eventbus.Level(action.Log.Level), eventbus.KindScriptLog, map[string]interface{}{
			"message": action.Log.Message,
		}))
		return nil

	case model.ActionKindShell:
		return e.runShellAction(ctx, scope, action.Shell)

	case model.ActionKindExternal:
		signal := action.External(ctx)
		return signal.Err

	default:
		return berror.Newf(berror.KindInternal, berror.CodeGraphInvariant, "unknown action kind %q", action.Kind)
	}
}

func (e *Executor) runShellAction(ctx context.Context, scope *eventbus.Scope, sh *model.ShellAction) error {
	quoted := make([]string, 0, len(sh.Args)+1)
	quoted = append(quoted, sh.Program)
	for _, a := range sh.Args {
		quoted = append(quoted, shellescape.Quote(a))
	}

	cmd := exec.CommandContext(ctx, sh.Program, sh.Args...)
	cmd.Dir = sh.Dir
	cmd.Env = sh.Env

	stdout, stderr := newLineEmitter(e.bus, scope, eventbus.KindCommandStdout), newLineEmitter(e.bus, scope, eventbus.KindCommandStderr)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return berror.Newf(berror.KindBuild, berror.CodeCommandFailed, "command %q failed", joinArgs(quoted)).Wrap(err)
	}
	return nil
}

func joinArgs(args []string) string {
	out := args[0]
	for _, a := range args[1:] {
		out += " " + a
	}
	return out
}
