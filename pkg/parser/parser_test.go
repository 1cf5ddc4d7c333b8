package parser

import (
	"os"
	"path/filepath"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
)

const sample = `class Greeter {
    void hello() {}
    void bye() {}
}
`

func TestNew(t *testing.T) {
	p := New()
	if p == nil {
		t.Fatal("New() returned nil")
	}
	if p.parser == nil {
		t.Error("parser field is nil")
	}
	p.Close()
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want Language
	}{
		{"Main.java", LangJava},
		{"src/main/java/com/acme/Service.java", LangJava},
		{"LEGACY.JAVA", LangJava},
		{"build.gradle", LangUnknown},
		{"Main.kt", LangUnknown},
		{"java", LangUnknown},
		{"", LangUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := DetectLanguage(tt.path); got != tt.want {
				t.Errorf("DetectLanguage(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestGetTreeSitterLanguage(t *testing.T) {
	lang, err := GetTreeSitterLanguage(LangJava)
	if err != nil || lang == nil {
		t.Fatalf("GetTreeSitterLanguage(java) = %v, %v", lang, err)
	}

	if _, err := GetTreeSitterLanguage(LangUnknown); err == nil {
		t.Error("GetTreeSitterLanguage(unknown) should error")
	}
}

func TestParse(t *testing.T) {
	p := New()
	defer p.Close()

	result, err := p.Parse([]byte(sample), LangJava, "Greeter.java")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if result.Root().Type() != "program" {
		t.Errorf("root type = %q, want program", result.Root().Type())
	}
	if result.Root().HasError() {
		t.Error("valid source should parse without errors")
	}
	if result.Path != "Greeter.java" || result.Language != LangJava {
		t.Errorf("result metadata = %q %q", result.Path, result.Language)
	}

	broken, err := p.Parse([]byte("class {"), LangJava, "")
	if err != nil {
		t.Fatalf("Parse() should not fail on malformed source: %v", err)
	}
	if !broken.Root().HasError() {
		t.Error("malformed source should produce error nodes")
	}

	if _, err := p.Parse([]byte(sample), LangUnknown, ""); err == nil {
		t.Error("Parse() should reject an unknown language")
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Greeter.java")
	if err := os.WriteFile(path, []byte(sample), 0644); err != nil {
		t.Fatal(err)
	}

	p := New()
	defer p.Close()

	result, err := p.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}
	if string(result.Source) != sample {
		t.Error("ParseFile() should keep the source bytes")
	}

	if _, err := p.ParseFile(filepath.Join(dir, "missing.java")); err == nil {
		t.Error("ParseFile() should fail for a missing file")
	}

	other := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(other, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := p.ParseFile(other); err == nil {
		t.Error("ParseFile() should fail for a non-Java file")
	}
}

func TestWalk(t *testing.T) {
	p := New()
	defer p.Close()

	result, err := p.Parse([]byte(sample), LangJava, "")
	if err != nil {
		t.Fatal(err)
	}

	found := make(map[string]bool)
	Walk(result.Root(), result.Source, func(node *sitter.Node, source []byte) bool {
		found[node.Type()] = true
		return true
	})
	for _, want := range []string{"program", "class_declaration", "class_body", "method_declaration"} {
		if !found[want] {
			t.Errorf("Walk() did not visit %q", want)
		}
	}

	// Returning false prunes the subtree
	visited := 0
	Walk(result.Root(), result.Source, func(node *sitter.Node, source []byte) bool {
		visited++
		return node.Type() != "class_declaration"
	})
	if visited != 2 {
		t.Errorf("pruned walk visited %d nodes, want 2", visited)
	}
}

func TestWalkNil(t *testing.T) {
	Walk(nil, nil, func(node *sitter.Node, source []byte) bool {
		t.Error("Visitor should not be called for nil node")
		return true
	})
}

func TestFindNodes(t *testing.T) {
	p := New()
	defer p.Close()

	result, err := p.Parse([]byte(sample), LangJava, "")
	if err != nil {
		t.Fatal(err)
	}

	methods := FindNodesByType(result.Root(), result.Source, "method_declaration")
	if len(methods) != 2 {
		t.Fatalf("found %d method_declaration nodes, want 2", len(methods))
	}
	if got := GetNodeText(methods[0], result.Source); got != "void hello() {}" {
		t.Errorf("GetNodeText() = %q", got)
	}
	if got := GetNodeText(methods[1].ChildByFieldName("name"), result.Source); got != "bye" {
		t.Errorf("second method name = %q, want bye", got)
	}

	idents := FindNodes(result.Root(), result.Source, func(n *sitter.Node) bool {
		return n.Type() == "identifier"
	})
	if len(idents) != 3 {
		t.Errorf("found %d identifiers, want 3", len(idents))
	}
}

func TestGetNodeTextBounds(t *testing.T) {
	if GetNodeText(nil, []byte("x")) != "" {
		t.Error("nil node should yield empty text")
	}

	p := New()
	defer p.Close()
	result, err := p.Parse([]byte(sample), LangJava, "")
	if err != nil {
		t.Fatal(err)
	}
	if got := GetNodeText(result.Root(), []byte("short")); got != "" {
		t.Errorf("out of bounds node should yield empty text, got %q", got)
	}
}

func TestCache(t *testing.T) {
	p := New()
	defer p.Close()

	c := NewCache(2)
	if c == nil {
		t.Fatal("NewCache(2) returned nil")
	}

	src := []byte(sample)
	if _, ok := c.Get(src, LangJava); ok {
		t.Error("empty cache should miss")
	}

	result, err := p.Parse(src, LangJava, "")
	if err != nil {
		t.Fatal(err)
	}
	c.Add(result)

	got, ok := c.Get([]byte(sample), LangJava)
	if !ok || got != result {
		t.Error("cache should hit on identical bytes")
	}
	if _, ok := c.Get([]byte(sample+" "), LangJava); ok {
		t.Error("cache should miss on edited text")
	}

	for _, s := range []string{"class A {}", "class B {}"} {
		r, err := p.Parse([]byte(s), LangJava, "")
		if err != nil {
			t.Fatal(err)
		}
		c.Add(r)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
	if _, ok := c.Get(src, LangJava); ok {
		t.Error("least recently used entry should be evicted")
	}
}

func TestNilCache(t *testing.T) {
	if NewCache(0) != nil {
		t.Error("NewCache(0) should return nil")
	}

	var c *Cache
	c.Add(&ParseResult{Source: []byte("x"), Language: LangJava})
	if _, ok := c.Get([]byte("x"), LangJava); ok {
		t.Error("nil cache should always miss")
	}
	if c.Len() != 0 {
		t.Error("nil cache should be empty")
	}
}
