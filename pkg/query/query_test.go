package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/focal/pkg/parser"
)

const source = `class Calc {
    int add(int a, int b) {
        return sum(a, b);
    }

    int sum(int a, int b) {
        log("sum");
        return a + b;
    }
}
`

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := NewJava(opts...)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestCapturesDocumentOrder(t *testing.T) {
	e := newEngine(t)

	caps, err := e.Captures("(method_invocation name: (identifier) @call)", source)
	require.NoError(t, err)

	assert.Equal(t, 2, caps.Len())
	assert.Equal(t, []string{"sum", "log"}, caps.Texts())
	assert.Equal(t, "call", caps.At(0).Name)
	assert.Equal(t, 2, caps.At(0).StartLine())
	assert.Equal(t, 6, caps.At(1).StartLine())
}

func TestCapturesNamed(t *testing.T) {
	e := newEngine(t)

	caps, err := e.Captures("(method_declaration type: (_) @type name: (identifier) @name)", source)
	require.NoError(t, err)

	assert.Equal(t, []string{"add", "sum"}, caps.Named("name").Texts())
	assert.Equal(t, []string{"int", "int"}, caps.Named("type").Texts())
	assert.Empty(t, caps.Named("missing"))
}

func TestCapturesPredicates(t *testing.T) {
	e := newEngine(t)

	caps, err := e.Captures(`((method_invocation name: (identifier) @call) (#eq? @call "log"))`, source)
	require.NoError(t, err)
	assert.Equal(t, []string{"log"}, caps.Texts())
}

func TestCapturesNoMatch(t *testing.T) {
	e := newEngine(t)

	caps, err := e.Captures("(constructor_declaration) @ctor", source)
	require.NoError(t, err)
	assert.Equal(t, 0, caps.Len())
}

func TestInvalidPattern(t *testing.T) {
	e := newEngine(t)

	_, err := e.Captures("(method_declaration", source)
	assert.Error(t, err)

	_, err = e.Captures("(no_such_node) @x", source)
	assert.Error(t, err)
}

func TestCapturesIn(t *testing.T) {
	e := newEngine(t)

	result, err := e.ParseString(source)
	require.NoError(t, err)

	methods, err := e.Captures("(method_declaration) @m", source)
	require.NoError(t, err)
	require.Equal(t, 2, methods.Len())

	// Restricting to the second method only sees its call
	caps, err := e.CapturesIn("(method_invocation name: (identifier) @call)", methods.At(1).Node, result.Source)
	require.NoError(t, err)
	assert.Equal(t, []string{"log"}, caps.Texts())
}

func TestParseCache(t *testing.T) {
	e := newEngine(t)

	first, err := e.ParseString(source)
	require.NoError(t, err)
	second, err := e.ParseString(source)
	require.NoError(t, err)
	assert.Same(t, first, second)

	edited, err := e.ParseString(source + "\n")
	require.NoError(t, err)
	assert.NotSame(t, first, edited)
}

func TestParseCacheDisabled(t *testing.T) {
	e := newEngine(t, WithCacheSize(0))

	first, err := e.ParseString(source)
	require.NoError(t, err)
	second, err := e.ParseString(source)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestParseDoesNotAliasInput(t *testing.T) {
	e := newEngine(t)

	buf := []byte("class A {}")
	result, err := e.Parse(buf)
	require.NoError(t, err)

	buf[6] = 'B'
	assert.Equal(t, "class A {}", string(result.Source))
}

func TestNewUnknownLanguage(t *testing.T) {
	_, err := New(parser.LangUnknown)
	assert.Error(t, err)

	e := newEngine(t)
	assert.Equal(t, parser.LangJava, e.Language())
}
