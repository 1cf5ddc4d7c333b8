package models

// CallableParameter is a formal parameter of a callable.
type CallableParameter struct {
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	Type        string   `json:"type" yaml:"type"`
	Annotations []string `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	Modifiers   []string `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
}

// Callable is the analyzer's description of a method or constructor.
// Only Signature is required; every other field may be absent in a feed.
type Callable struct {
	Signature            string              `json:"signature" yaml:"signature"`
	Declaration          string              `json:"declaration,omitempty" yaml:"declaration,omitempty"`
	Code                 string              `json:"code,omitempty" yaml:"code,omitempty"`
	IsImplicit           bool                `json:"is_implicit,omitempty" yaml:"is_implicit,omitempty"`
	IsConstructor        bool                `json:"is_constructor,omitempty" yaml:"is_constructor,omitempty"`
	IsEntryPoint         bool                `json:"is_entry_point,omitempty" yaml:"is_entry_point,omitempty"`
	Comment              string              `json:"comment,omitempty" yaml:"comment,omitempty"`
	Annotations          []string            `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	Modifiers            []string            `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	ThrownExceptions     []string            `json:"thrown_exceptions,omitempty" yaml:"thrown_exceptions,omitempty"`
	Parameters           []CallableParameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	ReturnType           string              `json:"return_type,omitempty" yaml:"return_type,omitempty"`
	StartLine            int                 `json:"start_line,omitempty" yaml:"start_line,omitempty"`
	EndLine              int                 `json:"end_line,omitempty" yaml:"end_line,omitempty"`
	ReferencedTypes      []string            `json:"referenced_types,omitempty" yaml:"referenced_types,omitempty"`
	AccessedFields       []string            `json:"accessed_fields,omitempty" yaml:"accessed_fields,omitempty"`
	CyclomaticComplexity int                 `json:"cyclomatic_complexity,omitempty" yaml:"cyclomatic_complexity,omitempty"`
}

// MethodDetail identifies a method within its enclosing class.
type MethodDetail struct {
	Declaration string    `json:"method_declaration" yaml:"method_declaration"`
	Class       string    `json:"klass" yaml:"klass"`
	Method      *Callable `json:"method,omitempty" yaml:"method,omitempty"`
}

// Signature returns the callable signature, or the declaration text when the
// callable is absent.
func (m MethodDetail) Signature() string {
	if m.Method != nil && m.Method.Signature != "" {
		return m.Method.Signature
	}
	return m.Declaration
}

// Code returns the callable's source text, if known.
func (m MethodDetail) Code() string {
	if m.Method == nil {
		return ""
	}
	return m.Method.Code
}

// DeclarationText returns the declaration used to recover the bare method
// name, preferring the detail's own declaration over the callable's.
func (m MethodDetail) DeclarationText() string {
	if m.Declaration != "" {
		return m.Declaration
	}
	if m.Method != nil {
		return m.Method.Declaration
	}
	return ""
}

// IsImplicit reports whether the method is compiler-generated.
func (m MethodDetail) IsImplicit() bool {
	return m.Method != nil && m.Method.IsImplicit
}

// Key returns the graph key of the method.
func (m MethodDetail) Key() NodeKey {
	return NodeKey{Signature: m.Signature(), Class: m.Class}
}

// NodeKey identifies a call graph node.
type NodeKey struct {
	Signature string `json:"signature"`
	Class     string `json:"class"`
}

// String renders the key as Class#Signature.
func (k NodeKey) String() string {
	return k.Class + "#" + k.Signature
}
