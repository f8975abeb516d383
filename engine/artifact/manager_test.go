package artifact_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgebuild/forge/common/model"
	"github.com/forgebuild/forge/engine/artifact"
	"github.com/forgebuild/forge/engine/eventbus"
	"github.com/forgebuild/forge/engine/plugin"
)

// countingBlueprint writes one output file per invocation and records how
// many times Run was actually invoked.
type countingBlueprint struct {
	calls   int32
	dir     string
	content string
}

func (b *countingBlueprint) BuildConfigType() string { return "counting" }

func (b *countingBlueprint) Run(ctx context.Context, art *model.Artifact, project *model.Project, cfg interface{}, sink plugin.LogSink) ([]string, error) {
	atomic.AddInt32(&b.calls, 1)
	sink.Log("info", "building "+art.Name.String(), nil)
	out := filepath.Join(b.dir, "out.bin")
	if err := os.WriteFile(out, []byte(b.content), 0644); err != nil {
		return nil, err
	}
	return []string{out}, nil
}

func newManager(t *testing.T) (*artifact.Manager, *artifact.Index) {
	t.Helper()
	base := t.TempDir()
	idx, err := artifact.OpenIndex(filepath.Join(base, "cache.json"), filepath.Join(base, "artifacts"))
	require.NoError(t, err)
	m := artifact.NewManager(idx, eventbus.NewBus(clock.New()), plugin.NewExtensionManager(), clock.New())
	return m, idx
}

// TestBuildFromDependencies_CacheHitReplaysLog covers §8 scenario 4: a
// second build of an unchanged artifact is served from cache (P7).
func TestBuildFromDependencies_CacheHitReplaysLog(t *testing.T) {
	base := t.TempDir()
	idx, err := artifact.OpenIndex(filepath.Join(base, "cache.json"), filepath.Join(base, "artifacts"))
	require.NoError(t, err)
	bus := eventbus.NewBus(clock.New())
	m := artifact.NewManager(idx, bus, plugin.NewExtensionManager(), clock.New())
	project := newProjectWithSource(t, "package main")
	art := &model.Artifact{Name: "app", Project: project}
	cfg := fixedContributor{}

	scratchDir := t.TempDir()
	bp := &countingBlueprint{dir: scratchDir, content: "built-once"}

	first := m.BuildFromDependencies(context.Background(), eventbus.RootScope(), bp, art, project, cfg, false)
	require.NoError(t, first.Cause)
	assert.False(t, first.Cached)
	require.Len(t, first.Outputs, 1)
	firstContent, err := os.ReadFile(first.Outputs[0])
	require.NoError(t, err)

	recorder := eventbus.NewReplaySink()
	bus.AddSink(recorder)

	second := m.BuildFromDependencies(context.Background(), eventbus.RootScope(), bp, art, project, cfg, false)
	require.NoError(t, second.Cause)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Outputs, second.Outputs)

	var replayed []model.ReplayLogEntry
	for _, entry := range recorder.Entries() {
		if entry.Kind == string(eventbus.KindScriptLog) && entry.Fields["replayed"] == "true" {
			replayed = append(replayed, entry)
		}
	}
	require.Len(t, replayed, 1, "the cached script-log output must be replayed on a cache hit")
	assert.Equal(t, "building app", replayed[0].Message)

	secondContent, err := os.ReadFile(second.Outputs[0])
	require.NoError(t, err)
	assert.Equal(t, firstContent, secondContent)

	assert.EqualValues(t, 1, atomic.LoadInt32(&bp.calls), "blueprint must run exactly once across both builds")
}

// TestBuildFromDependencies_InvalidateForcesRebuild covers §8 scenario 5:
// invalidate=true bypasses the cache even though the fingerprint is
// unchanged.
func TestBuildFromDependencies_InvalidateForcesRebuild(t *testing.T) {
	m, _ := newManager(t)
	project := newProjectWithSource(t, "package main")
	art := &model.Artifact{Name: "app", Project: project}
	cfg := fixedContributor{}

	scratchDir := t.TempDir()
	bp := &countingBlueprint{dir: scratchDir, content: "v1"}

	first := m.BuildFromDependencies(context.Background(), eventbus.RootScope(), bp, art, project, cfg, false)
	require.NoError(t, first.Cause)

	second := m.BuildFromDependencies(context.Background(), eventbus.RootScope(), bp, art, project, cfg, true)
	require.NoError(t, second.Cause)
	assert.False(t, second.Cached)
	assert.EqualValues(t, 2, atomic.LoadInt32(&bp.calls))
}

// barrierBlueprint records how many Run calls are in flight at once,
// spinning briefly between entering and leaving Run, so tests can assert
// concurrent calls never overlap for the same fingerprint (P9).
type barrierBlueprint struct {
	mu         sync.Mutex
	inFlight   int
	maxInFlight int
	dir        string
}

func (b *barrierBlueprint) BuildConfigType() string { return "barrier" }

func (b *barrierBlueprint) Run(ctx context.Context, art *model.Artifact, project *model.Project, cfg interface{}, sink plugin.LogSink) ([]string, error) {
	b.mu.Lock()
	b.inFlight++
	if b.inFlight > b.maxInFlight {
		b.maxInFlight = b.inFlight
	}
	b.mu.Unlock()

	// Spin briefly so a racing goroutine has a chance to enter Run concurrently
	// if the fingerprint lock were not actually serializing invocations.
	for i := 0; i < 1000; i++ {
	}

	b.mu.Lock()
	b.inFlight--
	b.mu.Unlock()

	out := filepath.Join(b.dir, "out.bin")
	if err := os.WriteFile(out, []byte("x"), 0644); err != nil {
		return nil, err
	}
	return []string{out}, nil
}

func TestBuildFromDependencies_SerializesPerFingerprint(t *testing.T) {
	m, _ := newManager(t)
	project := newProjectWithSource(t, "package main")
	art := &model.Artifact{Name: "app", Project: project}
	cfg := fixedContributor{}

	bp := &barrierBlueprint{dir: t.TempDir()}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.BuildFromDependencies(context.Background(), eventbus.RootScope(), bp, art, project, cfg, true)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, bp.maxInFlight, "no two concurrent blueprint invocations may share a fingerprint")
}
