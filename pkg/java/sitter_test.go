package java

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/focal/pkg/query"
)

func newTestSitter(t *testing.T) *Sitter {
	t.Helper()
	engine, err := query.NewJava()
	require.NoError(t, err)
	t.Cleanup(engine.Close)
	return New(engine)
}

const calculatorSource = `package demo;

public class Calculator {
    public int add(int a, int b) {
        return sum(a, b);
    }

    private int sum(int a, int b) {
        log("sum");
        return a + b;
    }

    private void log(String msg) {
        System.out.println(msg);
    }
}
`

func TestCallTargets(t *testing.T) {
	s := newTestSitter(t)

	tests := []struct {
		name     string
		body     string
		declared NameSet
		want     []string
	}{
		{
			name:     "keeps only declared names",
			body:     calculatorSource,
			declared: NewNameSet("add", "sum", "log"),
			want:     []string{"log", "sum"},
		},
		{
			name:     "undeclared call is ignored",
			body:     calculatorSource,
			declared: NewNameSet("sum"),
			want:     []string{"sum"},
		},
		{
			name:     "no declared names",
			body:     calculatorSource,
			declared: NewNameSet(),
			want:     []string{},
		},
		{
			name:     "self recursion",
			body:     "class R { int fact(int n) { return n <= 1 ? 1 : n * fact(n - 1); } }",
			declared: NewNameSet("fact"),
			want:     []string{"fact"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.CallTargets(tt.body, tt.declared)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Sorted())
		})
	}
}

func TestMethodNameFromDeclaration(t *testing.T) {
	s := newTestSitter(t)

	tests := []struct {
		name   string
		decl   string
		want   string
		wantOK bool
	}{
		{name: "signature without body", decl: "public int add(int a, int b)", want: "add", wantOK: true},
		{name: "declaration with body", decl: "void run() { go(); }", want: "run", wantOK: true},
		{name: "throws clause", decl: "public static void main(String[] args) throws Exception", want: "main", wantOK: true},
		{name: "empty", decl: "", wantOK: false},
		{name: "not a declaration", decl: "int x = 3;", wantOK: false},
		{name: "constructor without body", decl: "public Foo()", wantOK: false},
		{name: "constructor with parameters", decl: "Foo(int x)", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.MethodNameFromDeclaration(tt.decl)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCallingLines(t *testing.T) {
	s := newTestSitter(t)

	body := `public void process() {
    validate();
    int n = 0;
    validate();
    other();
}`

	t.Run("reports every call site in order", func(t *testing.T) {
		assert.Equal(t, []int{1, 3}, s.CallingLines(body, "private void validate()"))
	})

	t.Run("no call sites", func(t *testing.T) {
		lines := s.CallingLines(body, "void missing()")
		assert.NotNil(t, lines)
		assert.Empty(t, lines)
	})

	t.Run("unparseable target declaration", func(t *testing.T) {
		lines := s.CallingLines(body, "???")
		assert.NotNil(t, lines)
		assert.Empty(t, lines)
	})
}

func TestTypeReferences(t *testing.T) {
	s := newTestSitter(t)

	refs, err := s.TypeReferences("class A { List<Item> items; Helper h = new Helper(); }")
	require.NoError(t, err)
	assert.True(t, refs.Has("List"))
	assert.True(t, refs.Has("Item"))
	assert.True(t, refs.Has("Helper"))
	assert.False(t, refs.Has("A"))
}

func TestIdentifiers(t *testing.T) {
	s := newTestSitter(t)

	result, err := s.Engine().ParseString("class A { int count; void inc() { count = count + step; } }")
	require.NoError(t, err)

	ids, err := s.Identifiers(result.Root(), result.Source)
	require.NoError(t, err)
	assert.True(t, ids.Has("count"))
	assert.True(t, ids.Has("step"))
	assert.True(t, ids.Has("inc"))
}

func TestImportHelpers(t *testing.T) {
	s := newTestSitter(t)

	src := "import java.util.List;\nimport java.io.*;\nclass A {}\n"
	result, err := s.Engine().ParseString(src)
	require.NoError(t, err)

	imports, err := s.Engine().CapturesIn(QueryImportDeclaration, result.Root(), result.Source)
	require.NoError(t, err)
	require.Equal(t, 2, imports.Len())

	name, ok := ImportedName(imports.At(0).Node, result.Source)
	assert.True(t, ok)
	assert.Equal(t, "List", name)
	assert.False(t, HasWildcard(imports.At(0).Node))

	assert.True(t, HasWildcard(imports.At(1).Node))
}
