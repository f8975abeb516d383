// Package graph implements the execution dependency graph (§4.E): a small
// self-contained adjacency-list graph, closed under transitive dependencies
// at Attach time so GetExecutionLayers needs only a single Kahn's-algorithm
// pass.
package graph

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/forgebuild/forge/common/berror"
	"github.com/forgebuild/forge/common/model"
)

// Node wraps a job as a graph vertex, addressed by its canonical id.
type Node struct {
	ID  string
	Job *model.Job
}

// Graph is a directed dependency graph over job ids. Parent -> child edges
// point from a dependency to its dependent, so that a dependency's layer is
// always < its dependent's layer. Attach does not reject cycles;
// GetExecutionLayers reports a cycle among the target's ancestors as
// internal/cycle-detected.
type Graph struct {
	mu          sync.Mutex
	nodes       map[string]*Node
	parents     map[string]map[string]bool
	children    map[string]map[string]bool
	ancestors   map[string]map[string]bool // transitive closure of parents, excludes self
	descendants map[string]map[string]bool // transitive closure of children, excludes self
}

func New() *Graph {
	return &Graph{
		nodes:       make(map[string]*Node),
		parents:     make(map[string]map[string]bool),
		children:    make(map[string]map[string]bool),
		ancestors:   make(map[string]map[string]bool),
		descendants: make(map[string]map[string]bool),
	}
}

// Add inserts job as a vertex if it is not already present.
func (g *Graph) Add(job *model.Job) *Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := job.CanonicalID()
	if n, ok := g.nodes[id]; ok {
		return n
	}
	n := &Node{ID: id, Job: job}
	g.nodes[id] = n
	g.parents[id] = make(map[string]bool)
	g.children[id] = make(map[string]bool)
	g.ancestors[id] = make(map[string]bool)
	g.descendants[id] = make(map[string]bool)
	return n
}

// Connect adds a direct parentID -> childID edge. Both vertices must
// already exist.
func (g *Graph) Connect(parentID, childID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connectLocked(parentID, childID)
}

func (g *Graph) connectLocked(parentID, childID string) error {
	if _, ok := g.nodes[parentID]; !ok {
		return berror.NewUnknownJob(parentID)
	}
	if _, ok := g.nodes[childID]; !ok {
		return berror.NewUnknownJob(childID)
	}
	g.parents[childID][parentID] = true
	g.children[parentID][childID] = true
	return nil
}

// Attach ensures every id in depIDs is a parent of mainID, closing the
// graph under transitive dependencies: each dependency becomes a
// transitive ancestor of every existing descendant of mainID, and
// mainID's descendants are propagated symmetrically into each
// dependency's descendants (P2).
func (g *Graph) Attach(mainID string, depIDs []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[mainID]; !ok {
		return berror.NewUnknownJob(mainID)
	}
	for _, depID := range depIDs {
		if err := g.connectLocked(depID, mainID); err != nil {
			return err
		}
	}
	g.recomputeClosuresLocked()
	return nil
}

// recomputeClosuresLocked rebuilds the transitive ancestor/descendant sets
// for every node by BFS over the direct edges. Called with mu held.
func (g *Graph) recomputeClosuresLocked() {
	for id := range g.nodes {
		g.ancestors[id] = bfs(id, g.parents)
		g.descendants[id] = bfs(id, g.children)
	}
}

func bfs(start string, adjacency map[string]map[string]bool) map[string]bool {
	visited := make(map[string]bool)
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for next := range adjacency[cur] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return visited
}

// Ancestors returns the ancestor set of id, including id itself.
func (g *Graph) Ancestors(id string) (map[string]bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[id]; !ok {
		return nil, berror.NewUnknownJob(id)
	}
	set := make(map[string]bool, len(g.ancestors[id])+1)
	for a := range g.ancestors[id] {
		set[a] = true
	}
	set[id] = true
	return set, nil
}

// ExecutionLayer is one wave of jobs that may run concurrently.
type ExecutionLayer struct {
	Nodes []*Node
}

// GetExecutionLayers computes the layered execution order for targetJobID
// per §4.E: locate the target, compute its ancestor set, build restricted
// in-degrees over that set, then run a single-pass Kahn's algorithm.
// Intra-layer order is arbitrary and callers must not depend on it (P3/P4).
func (g *Graph) GetExecutionLayers(targetJobID string) ([]ExecutionLayer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[targetJobID]; !ok {
		return nil, berror.NewUnknownJob(targetJobID)
	}

	ancestorSet := make(map[string]bool, len(g.ancestors[targetJobID])+1)
	for a := range g.ancestors[targetJobID] {
		ancestorSet[a] = true
	}
	ancestorSet[targetJobID] = true

	inDegree := make(map[string]int, len(ancestorSet))
	for id := range ancestorSet {
		count := 0
		for p := range g.parents[id] {
			if ancestorSet[p] {
				count++
			}
		}
		inDegree[id] = count
	}

	var frontier []string
	for id, deg := range inDegree {
		if deg == 0 {
			frontier = append(frontier, id)
		}
	}
	sort.Strings(frontier)

	var layers []ExecutionLayer
	processed := 0
	for len(frontier) > 0 {
		layer := ExecutionLayer{}
		for _, id := range frontier {
			layer.Nodes = append(layer.Nodes, g.nodes[id])
		}
		layers = append(layers, layer)
		processed += len(frontier)

		var next []string
		for _, id := range frontier {
			for child := range g.children[id] {
				if !ancestorSet[child] {
					continue
				}
				inDegree[child]--
				if inDegree[child] == 0 {
					next = append(next, child)
				}
			}
		}
		sort.Strings(next)
		frontier = next
	}

	if processed != len(ancestorSet) {
		return nil, berror.NewCycleDetected()
	}
	return layers, nil
}

// ToMermaid renders the full graph as a Mermaid flowchart for diagnostics.
// It is a pure function of current state.
func (g *Graph) ToMermaid() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString("flowchart TD\n")
	for _, id := range ids {
		children := make([]string, 0, len(g.children[id]))
		for c := range g.children[id] {
			children = append(children, c)
		}
		sort.Strings(children)
		for _, c := range children {
			fmt.Fprintf(&b, "  %q --> %q\n", id, c)
		}
		if len(children) == 0 && len(g.parents[id]) == 0 {
			fmt.Fprintf(&b, "  %q\n", id)
		}
	}
	return b.String()
}
