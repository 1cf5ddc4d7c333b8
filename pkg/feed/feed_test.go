package feed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/focal/pkg/models"
)

const validJSON = `[
  {
    "source": {
      "method_declaration": "public void run()",
      "klass": "com.acme.Job",
      "method": {"signature": "run()", "code": "public void run() {\n  step();\n}"}
    },
    "target": {
      "method_declaration": "private void step()",
      "klass": "com.acme.Job",
      "method": {"signature": "step()", "is_implicit": false}
    },
    "type": "CALL_DEP",
    "weight": "1",
    "source_kind": null
  }
]`

const validYAML = `
- source:
    method_declaration: public void run()
    klass: com.acme.Job
    method:
      signature: run()
      start_line: 3
  target:
    method_declaration: private void step()
    klass: com.acme.Job
    method:
      signature: step()
  type: CONTROL_DEP
  weight: "2"
`

func TestDecode(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		edges, err := Decode([]byte(validJSON), FormatJSON)
		require.NoError(t, err)
		require.Len(t, edges, 1)

		e := edges[0]
		assert.Equal(t, models.EdgeCallDep, e.Type)
		assert.Equal(t, "1", e.Weight)
		assert.Equal(t, "com.acme.Job", e.Source.Class)
		assert.Equal(t, "run()", e.Source.Signature())
		assert.Contains(t, e.Source.Code(), "step();")
		assert.Equal(t, "private void step()", e.Target.Declaration)
		assert.Empty(t, e.SourceKind)
	})

	t.Run("yaml", func(t *testing.T) {
		edges, err := Decode([]byte(validYAML), FormatYAML)
		require.NoError(t, err)
		require.Len(t, edges, 1)
		assert.Equal(t, models.EdgeControlDep, edges[0].Type)
		assert.Equal(t, 3, edges[0].Source.Method.StartLine)
		assert.Equal(t, "step()", edges[0].Target.Signature())
	})

	t.Run("empty array", func(t *testing.T) {
		edges, err := Decode([]byte("[]"), FormatJSON)
		require.NoError(t, err)
		assert.NotNil(t, edges)
		assert.Empty(t, edges)
	})
}

func TestDecodeRejectsInvalidFeeds(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{name: "not json", data: "{", format: FormatJSON},
		{name: "object instead of array", data: `{"source": {}}`, format: FormatJSON},
		{name: "missing type", data: `[{"source": {"klass": "A", "method": {"signature": "a()"}}, "target": {"klass": "A", "method": {"signature": "b()"}}}]`, format: FormatJSON},
		{name: "missing klass", data: `[{"source": {"method": {"signature": "a()"}}, "target": {"klass": "A", "method": {"signature": "b()"}}, "type": "CALL_DEP"}]`, format: FormatJSON},
		{name: "missing signature", data: `[{"source": {"klass": "A", "method": {}}, "target": {"klass": "A", "method": {"signature": "b()"}}, "type": "CALL_DEP"}]`, format: FormatJSON},
		{name: "wrong field type", data: `[{"source": {"klass": "A", "method": {"signature": "a()", "is_implicit": "yes"}}, "target": {"klass": "A", "method": {"signature": "b()"}}, "type": "CALL_DEP"}]`, format: FormatJSON},
		{name: "bad yaml", data: "- source: [", format: FormatYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data), tt.format)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidFeed)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "edges.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(validJSON), 0o644))
	yamlPath := filepath.Join(dir, "edges.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(validYAML), 0o644))

	edges, err := Load(jsonPath)
	require.NoError(t, err)
	assert.Len(t, edges, 1)

	edges, err = Load(yamlPath)
	require.NoError(t, err)
	assert.Len(t, edges, 1)

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidFeed)
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatForPath("a/b.yaml"))
	assert.Equal(t, FormatYAML, FormatForPath("B.YML"))
	assert.Equal(t, FormatJSON, FormatForPath("edges.json"))
	assert.Equal(t, FormatJSON, FormatForPath("edges"))
}
