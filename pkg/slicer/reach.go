package slicer

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/focal/pkg/java"
)

// memberMap indexes the declarations of one kind (methods or classes) in a
// single buffer. Declarations sharing a name, such as overloads, are one
// member with several nodes.
type memberMap struct {
	names []string
	index map[string]uint32
	nodes [][]*sitter.Node
}

func newMemberMap() *memberMap {
	return &memberMap{index: make(map[string]uint32)}
}

func (m *memberMap) add(name string, node *sitter.Node) {
	id, ok := m.index[name]
	if !ok {
		id = uint32(len(m.names))
		m.index[name] = id
		m.names = append(m.names, name)
		m.nodes = append(m.nodes, nil)
	}
	m.nodes[id] = append(m.nodes[id], node)
}

func (m *memberMap) len() int {
	return len(m.names)
}

func (m *memberMap) nameSet() java.NameSet {
	return java.NewNameSet(m.names...)
}

// workingSet is the mark-and-sweep state of one reachability pass.
type workingSet struct {
	members   *memberMap
	toProcess []string
	processed *roaring.Bitmap
	remaining java.NameSet
}

func newWorkingSet(members *memberMap, seed string) *workingSet {
	return &workingSet{
		members:   members,
		toProcess: []string{seed},
		processed: roaring.New(),
		remaining: members.nameSet(),
	}
}

// referencesFunc returns the member names referenced by the declarations of
// one member.
type referencesFunc func(nodes []*sitter.Node) (java.NameSet, error)

// sweep drains the stack, marking every member transitively referenced from
// the seed. Names that are not members are ignored.
func (w *workingSet) sweep(refs referencesFunc) error {
	for len(w.toProcess) > 0 {
		name := w.toProcess[len(w.toProcess)-1]
		w.toProcess = w.toProcess[:len(w.toProcess)-1]

		id, ok := w.members.index[name]
		if !ok || w.processed.Contains(id) {
			continue
		}
		w.processed.Add(id)
		delete(w.remaining, name)

		targets, err := refs(w.members.nodes[id])
		if err != nil {
			return err
		}
		for _, target := range targets.Sorted() {
			if tid, ok := w.members.index[target]; ok && !w.processed.Contains(tid) {
				w.toProcess = append(w.toProcess, target)
			}
		}
	}
	return nil
}

// reachedCount returns how many members were marked.
func (w *workingSet) reachedCount() int {
	return int(w.processed.GetCardinality())
}

// unreachedSpans returns the spans of every member left in remaining.
func (w *workingSet) unreachedSpans() []java.Span {
	var spans []java.Span
	for name := range w.remaining {
		for _, n := range w.members.nodes[w.members.index[name]] {
			spans = append(spans, java.NodeSpan(n))
		}
	}
	return spans
}

// kept and removed return member names in declaration order.
func (w *workingSet) kept() []string {
	var out []string
	for id, name := range w.members.names {
		if w.processed.Contains(uint32(id)) {
			out = append(out, name)
		}
	}
	return out
}

func (w *workingSet) removed() []string {
	out := w.remaining.Sorted()
	sort.SliceStable(out, func(i, j int) bool {
		return w.members.index[out[i]] < w.members.index[out[j]]
	})
	return out
}
