package models

// EdgeType is the kind of dependency reported by the analyzer.
type EdgeType string

const (
	EdgeCallDep    EdgeType = "CALL_DEP"
	EdgeControlDep EdgeType = "CONTROL_DEP"
	EdgeDataDep    EdgeType = "DATA_DEP"
)

// IsCallGraphEdge reports whether edges of this type become call graph edges.
func (t EdgeType) IsCallGraphEdge() bool {
	return t == EdgeCallDep || t == EdgeControlDep
}

// DependencyEdge is one record of the analyzer's dependency feed.
type DependencyEdge struct {
	Source          MethodDetail `json:"source" yaml:"source"`
	Target          MethodDetail `json:"target" yaml:"target"`
	Type            EdgeType     `json:"type" yaml:"type"`
	Weight          string       `json:"weight,omitempty" yaml:"weight,omitempty"`
	SourceKind      string       `json:"source_kind,omitempty" yaml:"source_kind,omitempty"`
	DestinationKind string       `json:"destination_kind,omitempty" yaml:"destination_kind,omitempty"`
}

// EdgeAttributes annotate a call graph edge.
type EdgeAttributes struct {
	Type         EdgeType `json:"type"`
	Weight       string   `json:"weight"`
	CallingLines []int    `json:"calling_lines"`
}

// CallerDetail is one incoming edge of a method.
type CallerDetail struct {
	CallerMethod MethodDetail `json:"caller_method"`
	CallingLines []int        `json:"calling_lines"`
}

// CalleeDetail is one outgoing edge of a method.
type CalleeDetail struct {
	CalleeMethod MethodDetail `json:"callee_method"`
	CallingLines []int        `json:"calling_lines"`
}

// CallersResult lists the callers of a method. TargetMethod is nil when the
// method is not in the graph.
type CallersResult struct {
	TargetMethod  *MethodDetail  `json:"target_method"`
	CallerDetails []CallerDetail `json:"caller_details"`
}

// CalleesResult lists the callees of a method. SourceMethod is nil when the
// method is not in the graph.
type CalleesResult struct {
	SourceMethod  *MethodDetail  `json:"source_method"`
	CalleeDetails []CalleeDetail `json:"callee_details"`
}

// CallGraphRecord is the flattened JSON form of a call graph edge.
type CallGraphRecord struct {
	SourceMethodSignature string `json:"source_method_signature" toon:"source_method_signature"`
	SourceMethodBody      string `json:"source_method_body" toon:"source_method_body"`
	SourceClass           string `json:"source_class" toon:"source_class"`
	TargetMethodSignature string `json:"target_method_signature" toon:"target_method_signature"`
	TargetMethodBody      string `json:"target_method_body" toon:"target_method_body"`
	TargetClass           string `json:"target_class" toon:"target_class"`
	CallingLines          []int  `json:"calling_lines" toon:"calling_lines"`
}

// ClassEdge is a caller/callee pair from a class-scoped query.
type ClassEdge struct {
	Source MethodDetail `json:"source"`
	Target MethodDetail `json:"target"`
}

// CycleReport summarizes recursion in a call graph.
type CycleReport struct {
	// Components are strongly connected groups of two or more methods.
	Components [][]NodeKey `json:"components"`
	// SelfRecursive lists methods that call themselves directly.
	SelfRecursive []NodeKey `json:"self_recursive"`
}
