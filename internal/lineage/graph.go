package lineage

import (
	"sort"

	"github.com/metalake-labs/dremiometa/pkg/meta"
)

// Graph is the table-level dependency graph of an edge set: an edge from A
// to B means B was written from A. Views defined on each other can form
// cycles in a misconfigured source, so the graph reports them instead of
// assuming acyclicity.
type Graph struct {
	nodes    map[string]meta.TableRef
	children map[string][]string // source key -> target keys
	parents  map[string][]string // target key -> source keys
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:    make(map[string]meta.TableRef),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}
}

// AddEdge records that target was written from source. Duplicate and
// self-referencing edges are ignored.
func (g *Graph) AddEdge(source, target meta.TableRef) {
	sk, tk := source.Key(), target.Key()
	if sk == tk {
		return
	}
	g.addNode(sk, source)
	g.addNode(tk, target)
	if !contains(g.children[sk], tk) {
		g.children[sk] = append(g.children[sk], tk)
	}
	if !contains(g.parents[tk], sk) {
		g.parents[tk] = append(g.parents[tk], sk)
	}
}

func (g *Graph) addNode(key string, ref meta.TableRef) {
	if _, ok := g.nodes[key]; !ok {
		g.nodes[key] = ref
	}
}

// NodeCount returns the number of distinct relations in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of distinct table edges.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, targets := range g.children {
		count += len(targets)
	}
	return count
}

// Upstream returns the FQNs of every relation the given one transitively
// derives from, sorted.
func (g *Graph) Upstream(ref meta.TableRef) []string {
	seen := make(map[string]bool)
	var visit func(key string)
	visit = func(key string) {
		for _, parent := range g.parents[key] {
			if !seen[parent] {
				seen[parent] = true
				visit(parent)
			}
		}
	}
	visit(ref.Key())

	result := make([]string, 0, len(seen))
	for key := range seen {
		result = append(result, g.nodes[key].FQN())
	}
	sort.Strings(result)
	return result
}

// Cycle returns one dependency cycle as a list of FQNs, if any exists. The
// search order is deterministic.
func (g *Graph) Cycle() []string {
	keys := make([]string, 0, len(g.nodes))
	for key := range g.nodes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, targets := range g.children {
		sort.Strings(targets)
	}

	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	cameFrom := make(map[string]string)

	var cycle []string
	var dfs func(key string) bool
	dfs = func(key string) bool {
		visited[key] = true
		onStack[key] = true
		for _, child := range g.children[key] {
			if !visited[child] {
				cameFrom[child] = key
				if dfs(child) {
					return true
				}
			} else if onStack[child] {
				cycle = []string{g.nodes[child].FQN()}
				for curr := key; curr != child; curr = cameFrom[curr] {
					cycle = append([]string{g.nodes[curr].FQN()}, cycle...)
				}
				cycle = append([]string{g.nodes[child].FQN()}, cycle...)
				return true
			}
		}
		onStack[key] = false
		return false
	}

	for _, key := range keys {
		if !visited[key] {
			if dfs(key) {
				return cycle
			}
		}
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
