// Package java provides simple-name analysis of Java source built on
// tree-sitter queries: call targets, calling lines, identifiers, type
// references and comment removal.
package java

import (
	"log/slog"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/focal/pkg/parser"
	"github.com/panbanda/focal/pkg/query"
)

// Query patterns shared by the Java helpers and the slicer.
const (
	QueryMethodInvocation  = "(method_invocation name: (identifier) @method)"
	QueryMethodName        = "(method_declaration name: (identifier) @method_name)"
	QueryMethodDeclaration = "((method_declaration) @method_declaration)"
	QueryConstructor       = "((constructor_declaration) @constructor_declaration)"
	QueryFieldDeclaration  = "((field_declaration) @field_declaration)"
	QueryImportDeclaration = "((import_declaration) @import)"
	QueryClassDeclaration  = "((class_declaration) @class_declaration)"
	QueryClassName         = "(class_declaration name: (identifier) @name)"
	QueryTypeIdentifier    = "((type_identifier) @type_id)"
	QueryIdentifier        = "((identifier) @identifier)"
	QueryBlockComment      = "((block_comment) @comment_block)"
	QueryComment           = "[(block_comment) (line_comment)] @comment"
)

const snippetClass = "class FocalSnippet {\n"

// Sitter runs Java analyses through an injected query engine.
type Sitter struct {
	engine *query.Engine
	logger *slog.Logger
}

// Option configures a Sitter.
type Option func(*Sitter)

// WithLogger sets the logger used for degraded-input diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sitter) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Sitter backed by engine.
func New(engine *query.Engine, opts ...Option) *Sitter {
	s := &Sitter{
		engine: engine,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the query engine the Sitter evaluates patterns with.
func (s *Sitter) Engine() *query.Engine {
	return s.engine
}

// snippet is a parsed fragment of Java. Fragments that are not a valid
// compilation unit on their own (a bare method, a body-less declaration) are
// parsed inside a synthetic class, and lineOffset records how many lines the
// wrapper added.
type snippet struct {
	result     *parser.ParseResult
	lineOffset int
}

func (s *Sitter) parseSnippet(code string) (*snippet, error) {
	direct, err := s.engine.ParseString(code)
	if err != nil {
		return nil, err
	}
	if !direct.Root().HasError() {
		return &snippet{result: direct}, nil
	}

	trimmed := strings.TrimSpace(code)
	wrapped := snippetClass + code
	if !strings.HasSuffix(trimmed, "}") && !strings.HasSuffix(trimmed, ";") {
		wrapped += ";"
	}
	wrapped += "\n}"

	inner, err := s.engine.ParseString(wrapped)
	if err != nil || inner.Root().HasError() {
		return &snippet{result: direct}, nil
	}
	return &snippet{result: inner, lineOffset: 1}, nil
}

// CallTargets returns the simple names invoked in body that are also in
// declared. The result may contain the enclosing method's own name.
func (s *Sitter) CallTargets(body string, declared NameSet) (NameSet, error) {
	sn, err := s.parseSnippet(body)
	if err != nil {
		return nil, err
	}
	return s.CallTargetsIn(sn.result.Root(), sn.result.Source, declared)
}

// CallTargetsIn is CallTargets over an already parsed node.
func (s *Sitter) CallTargetsIn(node *sitter.Node, source []byte, declared NameSet) (NameSet, error) {
	captures, err := s.engine.CapturesIn(QueryMethodInvocation, node, source)
	if err != nil {
		return nil, err
	}
	targets := make(NameSet)
	for _, c := range captures {
		name := c.Text()
		if declared.Has(name) {
			targets.Add(name)
		}
	}
	return targets, nil
}

// MethodNameFromDeclaration returns the bare method name of a declaration
// such as "public int add(int a, int b)". It reports false when no method
// name can be parsed.
func (s *Sitter) MethodNameFromDeclaration(decl string) (string, bool) {
	if strings.TrimSpace(decl) == "" {
		return "", false
	}
	sn, err := s.parseSnippet(decl)
	if err != nil {
		return "", false
	}
	captures, err := s.engine.CapturesIn(QueryMethodName, sn.result.Root(), sn.result.Source)
	if err != nil {
		return "", false
	}
	// Error recovery can insert a zero-width MISSING identifier
	for _, c := range captures {
		if name := c.Text(); name != "" && !c.Node.IsMissing() {
			return name, true
		}
	}
	return "", false
}

// CallingLines returns the 0-based lines of body, in source order, on which
// a method named like targetDecl is invoked. A declaration whose name cannot
// be parsed yields an empty slice.
func (s *Sitter) CallingLines(body, targetDecl string) []int {
	lines := []int{}

	name, ok := s.MethodNameFromDeclaration(targetDecl)
	if !ok {
		s.logger.Debug("unparseable target declaration",
			slog.String("declaration", targetDecl))
		return lines
	}

	sn, err := s.parseSnippet(body)
	if err != nil {
		s.logger.Debug("failed to parse calling method body", slog.String("error", err.Error()))
		return lines
	}
	captures, err := s.engine.CapturesIn(QueryMethodInvocation, sn.result.Root(), sn.result.Source)
	if err != nil {
		return lines
	}
	for _, c := range captures {
		if c.Text() == name {
			lines = append(lines, c.StartLine()-sn.lineOffset)
		}
	}
	return lines
}

// TypeReferences returns every type identifier referenced in code.
func (s *Sitter) TypeReferences(code string) (NameSet, error) {
	sn, err := s.parseSnippet(code)
	if err != nil {
		return nil, err
	}
	return s.collect(QueryTypeIdentifier, sn.result.Root(), sn.result.Source, nil)
}

// Identifiers returns the text of every identifier under node.
func (s *Sitter) Identifiers(node *sitter.Node, source []byte) (NameSet, error) {
	return s.collect(QueryIdentifier, node, source, nil)
}

// collect gathers capture texts of pattern under node, ignoring captures
// inside any of the skip nodes.
func (s *Sitter) collect(pattern string, node *sitter.Node, source []byte, skip []Span) (NameSet, error) {
	captures, err := s.engine.CapturesIn(pattern, node, source)
	if err != nil {
		return nil, err
	}
	names := make(NameSet)
	for _, c := range captures {
		if within(c.Node, skip) {
			continue
		}
		names.Add(c.Text())
	}
	return names, nil
}

// TypeReferencesExcluding returns the type identifiers under node that do not
// fall inside any of the excluded spans.
func (s *Sitter) TypeReferencesExcluding(node *sitter.Node, source []byte, excluded []Span) (NameSet, error) {
	return s.collect(QueryTypeIdentifier, node, source, excluded)
}

func within(node *sitter.Node, spans []Span) bool {
	start, end := node.StartByte(), node.EndByte()
	for _, sp := range spans {
		if start >= sp.Start && end <= sp.End {
			return true
		}
	}
	return false
}

// HasWildcard reports whether an import_declaration node ends in ".*".
func HasWildcard(importDecl *sitter.Node) bool {
	for i := range int(importDecl.ChildCount()) {
		if importDecl.Child(i).Type() == "asterisk" {
			return true
		}
	}
	return false
}

// ImportedName returns the last dotted segment of an import_declaration,
// e.g. "List" for "import java.util.List;".
func ImportedName(importDecl *sitter.Node, source []byte) (string, bool) {
	for i := range int(importDecl.ChildCount()) {
		child := importDecl.Child(i)
		switch child.Type() {
		case "scoped_identifier":
			if name := child.ChildByFieldName("name"); name != nil {
				return parser.GetNodeText(name, source), true
			}
			text := parser.GetNodeText(child, source)
			return text[strings.LastIndex(text, ".")+1:], true
		case "identifier":
			return parser.GetNodeText(child, source), true
		}
	}
	return "", false
}

// DeclarationName returns the text of the node's "name" field.
func DeclarationName(decl *sitter.Node, source []byte) (string, bool) {
	name := decl.ChildByFieldName("name")
	if name == nil {
		return "", false
	}
	return parser.GetNodeText(name, source), true
}
