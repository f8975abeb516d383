package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgebuild/forge/common/model"
	"github.com/forgebuild/forge/engine/graph"
)

func newJob(t *testing.T, ws *model.Workspace, id string) *model.Job {
	t.Helper()
	parsed, err := model.ParseJobID(id)
	require.NoError(t, err)
	var owner model.Component = ws
	if parsed.Component != "" {
		p, ok := ws.Projects[parsed.Component]
		if !ok {
			p = model.NewProject(model.Name(parsed.Component), parsed.Component, "", ws)
			ws.Projects[parsed.Component] = p
		}
		owner = p
	}
	job := model.NewJob(model.Name(parsed.Job), owner, parsed.Artifact)
	require.Equal(t, id, job.CanonicalID())
	return job
}

// linearChain builds the :clean -> app:build -> app:run scenario (§8
// scenario 1).
func linearChain(t *testing.T) (*graph.Graph, *model.Job, *model.Job, *model.Job) {
	ws := model.NewWorkspace(t.TempDir())
	clean := newJob(t, ws, "clean")
	build := newJob(t, ws, "app:build")
	run := newJob(t, ws, "app:run")
	build.DependsOn = []string{clean.CanonicalID()}
	run.DependsOn = []string{build.CanonicalID()}

	g := graph.New()
	g.Add(clean)
	g.Add(build)
	g.Add(run)

	require.NoError(t, g.Attach(build.CanonicalID(), build.DependsOn))
	require.NoError(t, g.Attach(run.CanonicalID(), run.DependsOn))
	return g, clean, build, run
}

func TestGetExecutionLayers_LinearChain(t *testing.T) {
	g, clean, build, run := linearChain(t)

	layers, err := g.GetExecutionLayers(run.CanonicalID())
	require.NoError(t, err)
	require.Len(t, layers, 3)

	assert.Equal(t, []string{clean.CanonicalID()}, layerIDs(layers[0]))
	assert.Equal(t, []string{build.CanonicalID()}, layerIDs(layers[1]))
	assert.Equal(t, []string{run.CanonicalID()}, layerIDs(layers[2]))
}

func TestGetExecutionLayers_RestrictsToTargetAncestors(t *testing.T) {
	g, clean, build, _ := linearChain(t)

	// Requesting app:build must not pull in app:run, which depends on it.
	layers, err := g.GetExecutionLayers(build.CanonicalID())
	require.NoError(t, err)
	require.Len(t, layers, 2)
	assert.Equal(t, []string{clean.CanonicalID()}, layerIDs(layers[0]))
	assert.Equal(t, []string{build.CanonicalID()}, layerIDs(layers[1]))
}

// fanOut builds the app:a, app:b, app:c scenario where b and c both depend
// on a and may run in parallel (§8 scenario 2).
func fanOut(t *testing.T) (*graph.Graph, *model.Job, *model.Job, *model.Job) {
	ws := model.NewWorkspace(t.TempDir())
	a := newJob(t, ws, "app:a")
	b := newJob(t, ws, "app:b")
	c := newJob(t, ws, "app:c")
	b.DependsOn = []string{a.CanonicalID()}
	c.DependsOn = []string{a.CanonicalID()}

	g := graph.New()
	g.Add(a)
	g.Add(b)
	g.Add(c)
	require.NoError(t, g.Attach(b.CanonicalID(), b.DependsOn))
	require.NoError(t, g.Attach(c.CanonicalID(), c.DependsOn))
	return g, a, b, c
}

func TestGetExecutionLayers_Parallelism(t *testing.T) {
	g, a, b, c := fanOut(t)

	// Query against a synthetic root that depends on both b and c so both
	// land in the ancestor set of a single target.
	ws := model.NewWorkspace(t.TempDir())
	_ = ws
	root := &model.Job{Name: "root", Owner: noopOwner{}, Blocking: true}
	root.DependsOn = []string{b.CanonicalID(), c.CanonicalID()}
	g.Add(root)
	require.NoError(t, g.Attach(root.CanonicalID(), root.DependsOn))

	layers, err := g.GetExecutionLayers(root.CanonicalID())
	require.NoError(t, err)
	require.Len(t, layers, 3)
	assert.Equal(t, []string{a.CanonicalID()}, layerIDs(layers[0]))
	assert.ElementsMatch(t, []string{b.CanonicalID(), c.CanonicalID()}, layerIDs(layers[1]))
	assert.Equal(t, []string{root.CanonicalID()}, layerIDs(layers[2]))
}

// TestGetExecutionLayers_Cycle covers §8 scenario 3: x depends on y and y
// depends on x must surface as a cycle rather than hang or silently drop
// jobs (P5).
func TestGetExecutionLayers_Cycle(t *testing.T) {
	ws := model.NewWorkspace(t.TempDir())
	x := newJob(t, ws, "x")
	y := newJob(t, ws, "y")
	x.DependsOn = []string{y.CanonicalID()}
	y.DependsOn = []string{x.CanonicalID()}

	g := graph.New()
	g.Add(x)
	g.Add(y)
	require.NoError(t, g.Attach(x.CanonicalID(), x.DependsOn))
	require.NoError(t, g.Attach(y.CanonicalID(), y.DependsOn))

	_, err := g.GetExecutionLayers(x.CanonicalID())
	assert.Error(t, err)
}

// TestAncestors_ClosedTransitively covers P2: attaching a dependency closes
// the graph so a dependency's dependency is also an ancestor.
func TestAncestors_ClosedTransitively(t *testing.T) {
	g, clean, build, run := linearChain(t)

	ancestors, err := g.Ancestors(run.CanonicalID())
	require.NoError(t, err)
	assert.True(t, ancestors[clean.CanonicalID()])
	assert.True(t, ancestors[build.CanonicalID()])
	assert.True(t, ancestors[run.CanonicalID()])
}

// TestGetExecutionLayers_EveryAncestorAppearsExactlyOnce covers P4: every
// ancestor of the target appears in exactly one layer.
func TestGetExecutionLayers_EveryAncestorAppearsExactlyOnce(t *testing.T) {
	g, _, _, run := linearChain(t)

	ancestors, err := g.Ancestors(run.CanonicalID())
	require.NoError(t, err)

	layers, err := g.GetExecutionLayers(run.CanonicalID())
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, layer := range layers {
		for _, id := range layerIDs(layer) {
			seen[id]++
		}
	}
	assert.Equal(t, len(ancestors), len(seen))
	for id, count := range seen {
		assert.Equalf(t, 1, count, "job %s appeared in %d layers", id, count)
	}
}

// TestGetExecutionLayers_NoJobPrecedesItsDependency covers P3: within the
// returned layer sequence a dependency never appears in a later layer than
// one of its dependents.
func TestGetExecutionLayers_NoJobPrecedesItsDependency(t *testing.T) {
	g, a, b, c := fanOut(t)
	root := &model.Job{Name: "root", Owner: noopOwner{}, Blocking: true}
	root.DependsOn = []string{b.CanonicalID(), c.CanonicalID()}
	g.Add(root)
	require.NoError(t, g.Attach(root.CanonicalID(), root.DependsOn))

	layers, err := g.GetExecutionLayers(root.CanonicalID())
	require.NoError(t, err)

	layerOf := make(map[string]int)
	for i, layer := range layers {
		for _, id := range layerIDs(layer) {
			layerOf[id] = i
		}
	}
	assert.Less(t, layerOf[a.CanonicalID()], layerOf[b.CanonicalID()])
	assert.Less(t, layerOf[a.CanonicalID()], layerOf[c.CanonicalID()])
	assert.Less(t, layerOf[b.CanonicalID()], layerOf[root.CanonicalID()])
	assert.Less(t, layerOf[c.CanonicalID()], layerOf[root.CanonicalID()])
}

func layerIDs(layer graph.ExecutionLayer) []string {
	ids := make([]string, 0, len(layer.Nodes))
	for _, n := range layer.Nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

type noopOwner struct{}

func (noopOwner) ComponentIdentifier() string { return "" }
