// Package callgraph builds a directed method call graph from analyzer
// dependency edges and answers caller, callee and class-scoped queries.
package callgraph

import (
	"encoding/json"

	"github.com/panbanda/focal/pkg/models"
)

type edgeKey struct {
	from, to int64
}

type node struct {
	key    models.NodeKey
	detail models.MethodDetail
	out    []int64
	in     []int64
}

// Graph is a directed call graph keyed by interned (signature, class) IDs.
// Node and adjacency order follow first insertion. A Graph is immutable once
// Build returns and is safe for concurrent readers.
type Graph struct {
	ids   map[models.NodeKey]int64
	nodes []*node
	edges map[edgeKey]models.EdgeAttributes
}

func newGraph() *Graph {
	return &Graph{
		ids:   make(map[models.NodeKey]int64),
		edges: make(map[edgeKey]models.EdgeAttributes),
	}
}

// upsertNode interns detail's key and replaces its payload.
func (g *Graph) upsertNode(detail models.MethodDetail) int64 {
	key := detail.Key()
	if id, ok := g.ids[key]; ok {
		g.nodes[id].detail = detail
		return id
	}
	id := int64(len(g.nodes))
	g.ids[key] = id
	g.nodes = append(g.nodes, &node{key: key, detail: detail})
	return id
}

// setEdge inserts from->to or overwrites the attributes of an existing pair
// without moving it in adjacency order.
func (g *Graph) setEdge(from, to int64, attrs models.EdgeAttributes) {
	k := edgeKey{from: from, to: to}
	if _, ok := g.edges[k]; !ok {
		g.nodes[from].out = append(g.nodes[from].out, to)
		g.nodes[to].in = append(g.nodes[to].in, from)
	}
	g.edges[k] = attrs
}

func (g *Graph) lookup(class, signature string) (*node, int64, bool) {
	id, ok := g.ids[models.NodeKey{Signature: signature, Class: class}]
	if !ok {
		return nil, 0, false
	}
	return g.nodes[id], id, true
}

// NodeCount returns the number of distinct methods.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of distinct caller/callee pairs.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Node returns the payload stored for a method.
func (g *Graph) Node(class, signature string) (models.MethodDetail, bool) {
	n, _, ok := g.lookup(class, signature)
	if !ok {
		return models.MethodDetail{}, false
	}
	return n.detail, true
}

// Nodes returns every method in insertion order.
func (g *Graph) Nodes() []models.MethodDetail {
	out := make([]models.MethodDetail, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.detail
	}
	return out
}

// Edge returns the attributes of the edge between two methods.
func (g *Graph) Edge(from, to models.NodeKey) (models.EdgeAttributes, bool) {
	fromID, ok := g.ids[from]
	if !ok {
		return models.EdgeAttributes{}, false
	}
	toID, ok := g.ids[to]
	if !ok {
		return models.EdgeAttributes{}, false
	}
	attrs, ok := g.edges[edgeKey{from: fromID, to: toID}]
	return attrs, ok
}

// Callers returns every method with an edge into (class, signature).
// An unknown method yields a nil TargetMethod and no callers.
func (g *Graph) Callers(class, signature string) models.CallersResult {
	result := models.CallersResult{CallerDetails: []models.CallerDetail{}}
	n, id, ok := g.lookup(class, signature)
	if !ok {
		return result
	}
	target := n.detail
	result.TargetMethod = &target
	for _, from := range n.in {
		attrs := g.edges[edgeKey{from: from, to: id}]
		result.CallerDetails = append(result.CallerDetails, models.CallerDetail{
			CallerMethod: g.nodes[from].detail,
			CallingLines: lines(attrs.CallingLines),
		})
	}
	return result
}

// Callees returns every method (class, signature) has an edge to.
// An unknown method yields a nil SourceMethod and no callees.
func (g *Graph) Callees(class, signature string) models.CalleesResult {
	result := models.CalleesResult{CalleeDetails: []models.CalleeDetail{}}
	n, id, ok := g.lookup(class, signature)
	if !ok {
		return result
	}
	source := n.detail
	result.SourceMethod = &source
	for _, to := range n.out {
		attrs := g.edges[edgeKey{from: id, to: to}]
		result.CalleeDetails = append(result.CalleeDetails, models.CalleeDetail{
			CalleeMethod: g.nodes[to].detail,
			CallingLines: lines(attrs.CallingLines),
		})
	}
	return result
}

// ClassCallGraph returns the outgoing edges of every method in class, or of
// the single method whose signature equals method when it is non-empty.
// Only direct edges are returned; callees are not expanded further.
func (g *Graph) ClassCallGraph(class, method string) []models.ClassEdge {
	edges := []models.ClassEdge{}
	for _, n := range g.nodes {
		if n.key.Class != class {
			continue
		}
		if method != "" && n.key.Signature != method {
			continue
		}
		for _, to := range n.out {
			edges = append(edges, models.ClassEdge{Source: n.detail, Target: g.nodes[to].detail})
		}
	}
	return edges
}

// Records flattens every edge into a CallGraphRecord, ordered by source
// insertion then adjacency.
func (g *Graph) Records() []models.CallGraphRecord {
	records := make([]models.CallGraphRecord, 0, len(g.edges))
	for id, n := range g.nodes {
		for _, to := range n.out {
			target := g.nodes[to]
			attrs := g.edges[edgeKey{from: int64(id), to: to}]
			records = append(records, models.CallGraphRecord{
				SourceMethodSignature: n.key.Signature,
				SourceMethodBody:      n.detail.Code(),
				SourceClass:           n.key.Class,
				TargetMethodSignature: target.key.Signature,
				TargetMethodBody:      target.detail.Code(),
				TargetClass:           target.key.Class,
				CallingLines:          lines(attrs.CallingLines),
			})
		}
	}
	return records
}

// JSON encodes Records as a JSON array.
func (g *Graph) JSON() ([]byte, error) {
	return json.Marshal(g.Records())
}

func lines(l []int) []int {
	if l == nil {
		return []int{}
	}
	return l
}
