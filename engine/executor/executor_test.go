package executor_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgebuild/forge/common/logger"
	"github.com/forgebuild/forge/common/model"
	"github.com/forgebuild/forge/engine/eventbus"
	"github.com/forgebuild/forge/engine/executor"
	"github.com/forgebuild/forge/engine/graph"
)

type recordingSink struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func newRecordingSink() *recordingSink { return &recordingSink{} }

func (r *recordingSink) Emit(e eventbus.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingSink) kinds() []eventbus.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]eventbus.Kind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

func singleNodeLayer(job *model.Job) []graph.ExecutionLayer {
	return []graph.ExecutionLayer{{Nodes: []*graph.Node{{ID: job.CanonicalID(), Job: job}}}}
}

func logJob(t *testing.T, name string, blocking bool) *model.Job {
	job := model.NewJob(model.Name(name), workspaceOwner{}, "")
	job.Blocking = blocking
	job.Actions = []model.Action{model.NewLogAction("info", "hi")}
	return job
}

type workspaceOwner struct{}

func (workspaceOwner) ComponentIdentifier() string { return "" }

func TestExecutor_RunEmitsStartedAndCompleted(t *testing.T) {
	bus := eventbus.NewBus(clock.New())
	sink := newRecordingSink()
	bus.AddSink(sink)

	job := logJob(t, "build", true)
	exec := executor.New(bus, clock.New(), logger.NewNoOpLog(), nil)

	err := exec.Run(context.Background(), eventbus.RootScope(), singleNodeLayer(job))
	require.NoError(t, err)

	kinds := sink.kinds()
	assert.Contains(t, kinds, eventbus.KindBuildStarted)
	assert.Contains(t, kinds, eventbus.KindBuildCompleted)
	assert.NotContains(t, kinds, eventbus.KindBuildFailed)
	assert.NotEmpty(t, job.RuntimeID, "runJob must stamp a fresh runtime instance id")
}

// failingRunner fails any artifact job it's asked to run.
type failingRunner struct{ err error }

func (f failingRunner) RunArtifactJob(ctx context.Context, scope *eventbus.Scope, job *model.Job) error {
	return f.err
}

func TestExecutor_BlockingFailureFailsBuild(t *testing.T) {
	bus := eventbus.NewBus(clock.New())
	sink := newRecordingSink()
	bus.AddSink(sink)

	job := model.NewJob("build", workspaceOwner{}, "artifact")
	job.Blocking = true

	exec := executor.New(bus, clock.New(), logger.NewNoOpLog(), failingRunner{err: errors.New("boom")})
	err := exec.Run(context.Background(), eventbus.RootScope(), singleNodeLayer(job))

	require.Error(t, err)
	assert.Contains(t, sink.kinds(), eventbus.KindBuildFailed)
}

// TestExecutor_BackgroundJobFailureDoesNotFailBuild covers §8 scenario 6:
// a background job's failure is recorded but does not fail the overall
// build, and the build does not wait for it before finishing its own
// layer.
func TestExecutor_BackgroundJobFailureDoesNotFailBuild(t *testing.T) {
	bus := eventbus.NewBus(clock.New())
	sink := newRecordingSink()
	bus.AddSink(sink)

	bg := model.NewJob("watch", workspaceOwner{}, "artifact")
	bg.Blocking = false

	exec := executor.New(bus, clock.New(), logger.NewNoOpLog(), failingRunner{err: errors.New("background boom")})

	done := make(chan error, 1)
	go func() {
		done <- exec.Run(context.Background(), eventbus.RootScope(), singleNodeLayer(bg))
	}()

	select {
	case err := <-done:
		assert.NoError(t, err, "a background job's failure must not fail the build")
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return promptly")
	}
}
