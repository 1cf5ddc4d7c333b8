// Package query runs tree-sitter query patterns against source text and
// returns the matched nodes as ordered captures.
package query

import (
	"bytes"
	"fmt"

	"github.com/panbanda/focal/pkg/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// Capture is a named node matched by a query.
type Capture struct {
	Name   string
	Node   *sitter.Node
	source []byte
}

// Text returns the source text spanned by the captured node.
func (c Capture) Text() string {
	return parser.GetNodeText(c.Node, c.source)
}

// StartLine returns the 0-based line the captured node starts on.
func (c Capture) StartLine() int {
	return int(c.Node.StartPoint().Row)
}

// Captures is an ordered sequence of captures in document order.
type Captures []Capture

// Len returns the number of captures.
func (cs Captures) Len() int {
	return len(cs)
}

// At returns the i-th capture.
func (cs Captures) At(i int) Capture {
	return cs[i]
}

// Texts returns the text of every capture, preserving order.
func (cs Captures) Texts() []string {
	texts := make([]string, len(cs))
	for i, c := range cs {
		texts[i] = c.Text()
	}
	return texts
}

// Named returns the captures whose name equals name.
func (cs Captures) Named(name string) Captures {
	var out Captures
	for _, c := range cs {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Engine parses source text and evaluates query patterns for one language.
// Compiled patterns are cached per engine. An Engine owns a single
// tree-sitter parser and is not safe for concurrent use; create one per
// goroutine.
type Engine struct {
	lang       parser.Language
	sitterLang *sitter.Language
	cache      *parser.Cache
	parser     *parser.Parser
	queries    map[string]*sitter.Query
}

// Option configures an Engine.
type Option func(*Engine)

// WithCacheSize sets the number of parse trees memoized by content.
// Zero disables the cache.
func WithCacheSize(size int) Option {
	return func(e *Engine) {
		e.cache = parser.NewCache(size)
	}
}

// New creates a query engine for lang.
func New(lang parser.Language, opts ...Option) (*Engine, error) {
	tsLang, err := parser.GetTreeSitterLanguage(lang)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		lang:       lang,
		sitterLang: tsLang,
		cache:      parser.NewCache(parser.DefaultCacheSize),
		parser:     parser.New(),
		queries:    make(map[string]*sitter.Query),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// NewJava creates a query engine for Java sources.
func NewJava(opts ...Option) (*Engine, error) {
	return New(parser.LangJava, opts...)
}

// Language returns the engine's language.
func (e *Engine) Language() parser.Language {
	return e.lang
}

// Parse parses source, reusing a cached tree when the content is unchanged.
func (e *Engine) Parse(source []byte) (*parser.ParseResult, error) {
	if result, ok := e.cache.Get(source, e.lang); ok {
		return result, nil
	}

	result, err := e.parser.Parse(bytes.Clone(source), e.lang, "")
	if err != nil {
		return nil, err
	}

	e.cache.Add(result)
	return result, nil
}

// ParseString parses source text.
func (e *Engine) ParseString(source string) (*parser.ParseResult, error) {
	return e.Parse([]byte(source))
}

// Captures parses source and returns every capture of pattern.
func (e *Engine) Captures(pattern string, source string) (Captures, error) {
	result, err := e.ParseString(source)
	if err != nil {
		return nil, err
	}
	return e.CapturesIn(pattern, result.Root(), result.Source)
}

// CapturesIn evaluates pattern against an already parsed node.
// source must be the buffer node was parsed from.
func (e *Engine) CapturesIn(pattern string, node *sitter.Node, source []byte) (Captures, error) {
	q, err := e.compile(pattern)
	if err != nil {
		return nil, err
	}

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, node)

	var captures Captures
	for {
		match, index, ok := qc.NextCapture()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)
		if int(index) >= len(match.Captures) {
			continue
		}
		c := match.Captures[index]
		captures = append(captures, Capture{
			Name:   q.CaptureNameForId(c.Index),
			Node:   c.Node,
			source: source,
		})
	}
	return captures, nil
}

// compile returns the cached compiled form of pattern.
func (e *Engine) compile(pattern string) (*sitter.Query, error) {
	if q, ok := e.queries[pattern]; ok {
		return q, nil
	}
	q, err := sitter.NewQuery([]byte(pattern), e.sitterLang)
	if err != nil {
		return nil, fmt.Errorf("compile query %q: %w", pattern, err)
	}
	e.queries[pattern] = q
	return q, nil
}

// Close releases the parser and compiled queries.
func (e *Engine) Close() {
	for key, q := range e.queries {
		q.Close()
		delete(e.queries, key)
	}
	e.parser.Close()
}
