package callgraph

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/panbanda/focal/pkg/models"
)

// Cycles reports mutually recursive method groups and directly
// self-recursive methods.
func (g *Graph) Cycles() models.CycleReport {
	report := models.CycleReport{
		Components:    [][]models.NodeKey{},
		SelfRecursive: []models.NodeKey{},
	}

	directed := simple.NewDirectedGraph()
	for id := range g.nodes {
		directed.AddNode(simple.Node(int64(id)))
	}
	// simple graphs reject self-loops
	for id, n := range g.nodes {
		for _, to := range n.out {
			if to == int64(id) {
				report.SelfRecursive = append(report.SelfRecursive, n.key)
				continue
			}
			directed.SetEdge(simple.Edge{F: simple.Node(int64(id)), T: simple.Node(to)})
		}
	}

	var components [][]int64
	for _, scc := range topo.TarjanSCC(directed) {
		if len(scc) < 2 {
			continue
		}
		ids := make([]int64, len(scc))
		for i, n := range scc {
			ids[i] = n.ID()
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		components = append(components, ids)
	}
	sort.Slice(components, func(i, j int) bool {
		return components[i][0] < components[j][0]
	})

	for _, ids := range components {
		keys := make([]models.NodeKey, len(ids))
		for i, id := range ids {
			keys[i] = g.nodes[id].key
		}
		report.Components = append(report.Components, keys)
	}
	return report
}

// IsCyclic reports whether any method can reach itself.
func (g *Graph) IsCyclic() bool {
	r := g.Cycles()
	return len(r.Components) > 0 || len(r.SelfRecursive) > 0
}
