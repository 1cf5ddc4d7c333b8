package slicer

import (
	"fmt"
	"log/slog"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/focal/pkg/java"
	"github.com/panbanda/focal/pkg/parser"
)

// buffer is one stage's parsed, immutable view of the current text.
type buffer struct {
	result *parser.ParseResult
}

func (s *Slicer) parse(code string) (*buffer, error) {
	result, err := s.sitter.Engine().ParseString(code)
	if err != nil {
		return nil, fmt.Errorf("parse source: %w", err)
	}
	return &buffer{result: result}, nil
}

func (b *buffer) root() *sitter.Node {
	return b.result.Root()
}

func (b *buffer) source() []byte {
	return b.result.Source
}

func (b *buffer) nodes(s *Slicer, pattern string) ([]*sitter.Node, error) {
	captures, err := s.sitter.Engine().CapturesIn(pattern, b.root(), b.source())
	if err != nil {
		return nil, err
	}
	nodes := make([]*sitter.Node, captures.Len())
	for i, c := range captures {
		nodes[i] = c.Node
	}
	return nodes, nil
}

// splice removes spans from the buffer and prettifies what is left.
func (s *Slicer) splice(b *buffer, spans []java.Span) (string, error) {
	return s.sitter.Prettify(java.Splice(b.source(), spans))
}

// inAnonymousClass reports whether a member belongs to the body of an
// anonymous class expression rather than to a declared class.
func inAnonymousClass(n *sitter.Node) bool {
	body := n.Parent()
	if body == nil || body.Type() != "class_body" {
		return false
	}
	owner := body.Parent()
	return owner != nil && owner.Type() == "object_creation_expression"
}

func (s *Slicer) keepReachableMethods(code, focal string, res *Result) (string, error) {
	buf, err := s.parse(code)
	if err != nil {
		return "", err
	}

	decls, err := buf.nodes(s, java.QueryMethodDeclaration)
	if err != nil {
		return "", err
	}
	methods := newMemberMap()
	for _, d := range decls {
		if inAnonymousClass(d) {
			continue
		}
		if name, ok := java.DeclarationName(d, buf.source()); ok {
			methods.add(name, d)
		}
	}

	declared := methods.nameSet()
	ws := newWorkingSet(methods, focal)
	err = ws.sweep(func(nodes []*sitter.Node) (java.NameSet, error) {
		targets := make(java.NameSet)
		for _, n := range nodes {
			t, err := s.sitter.CallTargetsIn(n, buf.source(), declared)
			if err != nil {
				return nil, err
			}
			targets.Union(t)
		}
		return targets, nil
	})
	if err != nil {
		return "", err
	}

	if len(ws.remaining) >= methods.len() {
		return "", fmt.Errorf("%w: %q", ErrFocalMethodNotFound, focal)
	}

	res.KeptMethods = ws.kept()
	res.RemovedMethods = ws.removed()
	s.logger.Debug("method reachability",
		slog.Int("declared", methods.len()),
		slog.Int("reached", ws.reachedCount()))

	return s.splice(buf, ws.unreachedSpans())
}

func (s *Slicer) removeUnusedFields(code string, res *Result) (string, error) {
	buf, err := s.parse(code)
	if err != nil {
		return "", err
	}

	used := make(java.NameSet)
	for _, pattern := range []string{java.QueryMethodDeclaration, java.QueryConstructor} {
		nodes, err := buf.nodes(s, pattern)
		if err != nil {
			return "", err
		}
		for _, n := range nodes {
			ids, err := s.sitter.Identifiers(n, buf.source())
			if err != nil {
				return "", err
			}
			used.Union(ids)
		}
	}

	fields, err := buf.nodes(s, java.QueryFieldDeclaration)
	if err != nil {
		return "", err
	}
	var spans []java.Span
	for _, f := range fields {
		ids, err := s.sitter.Identifiers(f, buf.source())
		if err != nil {
			return "", err
		}
		if ids.Intersects(used) {
			continue
		}
		spans = append(spans, java.NodeSpan(f))
		res.RemovedFields = append(res.RemovedFields, ids.Sorted()...)
	}

	return s.splice(buf, spans)
}

func (s *Slicer) removeUnusedImports(code string, res *Result) (string, error) {
	buf, err := s.parse(code)
	if err != nil {
		return "", err
	}

	classes, err := buf.nodes(s, java.QueryClassDeclaration)
	if err != nil {
		return "", err
	}
	names := make(java.NameSet)
	for _, c := range classes {
		for _, pattern := range []string{java.QueryTypeIdentifier, java.QueryIdentifier} {
			captures, err := s.sitter.Engine().CapturesIn(pattern, c, buf.source())
			if err != nil {
				return "", err
			}
			for _, name := range captures.Texts() {
				names.Add(name)
			}
		}
	}

	imports, err := buf.nodes(s, java.QueryImportDeclaration)
	if err != nil {
		return "", err
	}
	var spans []java.Span
	for _, imp := range imports {
		if java.HasWildcard(imp) {
			continue
		}
		name, ok := java.ImportedName(imp, buf.source())
		if !ok || names.Has(name) {
			continue
		}
		spans = append(spans, java.NodeSpan(imp))
		res.RemovedImports = append(res.RemovedImports, parser.GetNodeText(imp, buf.source()))
	}

	return s.splice(buf, spans)
}

// focalClass returns the name of the first class declared in code.
func (s *Slicer) focalClass(code string) (string, bool, error) {
	buf, err := s.parse(code)
	if err != nil {
		return "", false, err
	}
	captures, err := s.sitter.Engine().CapturesIn(java.QueryClassName, buf.root(), buf.source())
	if err != nil {
		return "", false, err
	}
	if captures.Len() == 0 {
		return "", false, nil
	}
	return captures.At(0).Text(), true, nil
}

func (s *Slicer) removeUnusedClasses(code, focalClass string, res *Result) (string, error) {
	buf, err := s.parse(code)
	if err != nil {
		return "", err
	}

	decls, err := buf.nodes(s, java.QueryClassDeclaration)
	if err != nil {
		return "", err
	}
	classes := newMemberMap()
	for _, d := range decls {
		if name, ok := java.DeclarationName(d, buf.source()); ok {
			classes.add(name, d)
		}
	}

	ws := newWorkingSet(classes, focalClass)
	err = ws.sweep(func(nodes []*sitter.Node) (java.NameSet, error) {
		refs := make(java.NameSet)
		for _, n := range nodes {
			t, err := s.sitter.TypeReferencesExcluding(n, buf.source(), memberClassSpans(n, buf.source()))
			if err != nil {
				return nil, err
			}
			refs.Union(t)
		}
		return refs, nil
	})
	if err != nil {
		return "", err
	}

	res.KeptClasses = ws.kept()
	res.RemovedClasses = ws.removed()

	return s.splice(buf, ws.unreachedSpans())
}

// memberClassSpans returns the spans of class declarations that are members
// of a class body inside class, at any depth.
func memberClassSpans(class *sitter.Node, source []byte) []java.Span {
	var spans []java.Span
	for i := range int(class.ChildCount()) {
		child := class.Child(i)
		for _, n := range parser.FindNodesByType(child, source, "class_declaration") {
			if p := n.Parent(); p != nil && p.Type() == "class_body" {
				spans = append(spans, java.NodeSpan(n))
			}
		}
	}
	return spans
}
