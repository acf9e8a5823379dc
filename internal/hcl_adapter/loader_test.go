package hcl_adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

const pipelineHCL = `
pipeline "rnaseq" {
  desc   = "Count reads"
  config = { forks = 4, scheduler_opts = { queue = "short" } }
  fixed  = { plugin_opts = { args_dump = true } }
  outdir = "/data/out"
}

group "QC" {
  doc      = "Quality control"
  defaults = { threshold = 0.5 }
}

process "Count" {
  requires = ["Align"]
  output   = ["counts:file"]
  group    = "QC"
  cache    = "false"
}

process "Align" {
  doc        = <<-EOT
    Align reads.

    Input:
        reads: The reads
    EOT
  input      = ["reads:files", "ref"]
  envs       = { threads = 2, tool = { name = "bwa" } }
  envs_depth = 2
  input_data = [{ reads = "a.fq", ref = "hg38" }]
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	writeFile(t, dir, "pipeline.hcl", pipelineHCL)

	// --- Act ---
	p, err := NewLoader().Load(context.Background(), dir)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "rnaseq", p.Name)
	assert.Equal(t, "Count reads", p.Desc)
	assert.Equal(t, "/data/out", p.Outdir)
	assert.True(t, p.IsFixed("outdir"))
	assert.Equal(t, 4, p.Value("forks"))
	assert.Equal(t, map[string]any{"args_dump": true}, p.Value("plugin_opts"))

	require.NoError(t, p.Build())
	procs := p.Processes()
	require.Len(t, procs, 2)
	align, count := procs[0], procs[1]
	assert.Equal(t, "Align", align.Name)
	assert.Equal(t, 2, align.EnvsDepth)
	assert.Equal(t, map[string]any{"threads": 2, "tool": map[string]any{"name": "bwa"}}, align.Envs)
	assert.Contains(t, align.Doc, "reads: The reads")
	require.NotNil(t, align.InputData)
	assert.Equal(t, []string{"reads", "ref"}, align.InputData.Columns)
	assert.Equal(t, [][]any{{"a.fq", "hg38"}}, align.InputData.Rows)

	require.NotNil(t, count.Group)
	assert.Equal(t, "QC", count.Group.Name)
	assert.Equal(t, 0.5, count.Group.Defaults["threshold"])
	require.NotNil(t, count.Cache)
	assert.Equal(t, "false", *count.Cache)
	assert.True(t, count.IsTerminal())
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"no pipeline", `process "P" {}`},
		{"two pipelines", `
pipeline "a" {}
pipeline "b" {}`},
		{"unknown requirement", `
pipeline "a" {}
process "P" { requires = ["Q"] }`},
		{"unknown group", `
pipeline "a" {}
process "P" { group = "G" }`},
		{"envs not an object", `
pipeline "a" {}
process "P" { envs = [1, 2] }`},
		{"syntax", `pipeline "a" {`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "p.hcl", tc.content)
			_, err := NewLoader().Load(context.Background(), path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_NoFiles(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), t.TempDir())
	assert.Error(t, err)
}

func TestToNative(t *testing.T) {
	v := cty.ObjectVal(map[string]cty.Value{
		"i": cty.NumberIntVal(3),
		"f": cty.NumberFloatVal(1.5),
		"l": cty.TupleVal([]cty.Value{cty.StringVal("a"), cty.True}),
		"n": cty.NullVal(cty.String),
	})

	got, err := ToNative(v)

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"i": 3, "f": 1.5, "l": []any{"a", true}, "n": nil}, got)
	nilVal, err := ToNative(cty.NilVal)
	require.NoError(t, err)
	assert.Nil(t, nilVal)
}
