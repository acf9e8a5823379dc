package writeback

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/pipeargs/internal/pipeline"
	"github.com/vk/pipeargs/internal/resolve"
)

func TestInputTable(t *testing.T) {
	testCases := []struct {
		name    string
		in      map[string]any
		want    *pipeline.InputTable
		wantErr error
	}{
		{
			name: "unit column broadcasts",
			in:   map[string]any{"a": []any{"1", "2", "3"}, "b": []any{"x"}},
			want: &pipeline.InputTable{
				Columns: []string{"a", "b"},
				Rows:    [][]any{{"1", "x"}, {"2", "x"}, {"3", "x"}},
			},
		},
		{
			name: "scalar counts as one value",
			in:   map[string]any{"a": "only", "b": nil},
			want: &pipeline.InputTable{
				Columns: []string{"a"},
				Rows:    [][]any{{"only"}},
			},
		},
		{
			name:    "mismatched lengths",
			in:      map[string]any{"a": []any{"1", "2"}, "b": []any{"x", "y", "z"}},
			wantErr: ErrInputShape,
		},
	}

	proc := &pipeline.Process{Name: "P", Input: []string{"a", "b"}}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := InputTable(proc, tc.in)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("InputTable() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func newPipeline(t *testing.T) (*pipeline.Pipeline, *pipeline.Process, *pipeline.Process) {
	t.Helper()
	p1 := &pipeline.Process{
		Name:      "P1",
		Input:     []string{"a", "b"},
		Envs:      map[string]any{"x": 1, "opts": map[string]any{"k": "v", "n": 1}},
		EnvsDepth: 2,
	}
	p2 := &pipeline.Process{
		Name:       "P2",
		Requires:   []*pipeline.Process{p1},
		Envs:       map[string]any{"x": 1},
		PluginOpts: map[string]any{"keep": true},
	}
	p := pipeline.New("pipe")
	require.NoError(t, p.Add(p1, p2))
	require.NoError(t, p.Build())
	return p, p1, p2
}

func TestApply(t *testing.T) {
	// --- Arrange ---
	p, p1, p2 := newPipeline(t)
	cfg := &resolve.Config{Procs: map[string]map[string]any{
		"P1": {
			"in":   map[string]any{"a": []any{"1", "2"}, "b": []any{"z"}},
			"envs": map[string]any{"x": 5, "opts": map[string]any{"n": 2}},
		},
		"P2": {
			"envs":        map[string]any{"x": 1},
			"forks":       4,
			"cache":       "FORCE",
			"export":      true,
			"plugin_opts": map[string]any{"report": "html"},
		},
	}}

	// --- Act ---
	warnings, err := Apply(cfg, p)

	// --- Assert ---
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.NotNil(t, p1.InputData)
	assert.Equal(t, 2, p1.InputData.Len())
	assert.Equal(t, []any{"z", "z"}, p1.InputData.Column("b"))

	wantEnvs := map[string]any{"x": 5, "opts": map[string]any{"k": "v", "n": 2}}
	if diff := cmp.Diff(wantEnvs, p1.Envs); diff != "" {
		t.Errorf("P1 envs mismatch (-want +got):\n%s", diff)
	}
	require.NotNil(t, p2.Forks)
	assert.Equal(t, 4, *p2.Forks)
	assert.Equal(t, "force", *p2.Cache)
	assert.True(t, *p2.Export)
	assert.Nil(t, p1.Forks)
	assert.Equal(t, map[string]any{"keep": true, "report": "html"}, p2.PluginOpts)
}

func TestApply_Idempotent(t *testing.T) {
	p, p1, _ := newPipeline(t)
	cfg := &resolve.Config{Procs: map[string]map[string]any{
		"P1": {"envs": map[string]any{"opts": map[string]any{"n": 2}}},
	}}

	_, err := Apply(cfg, p)
	require.NoError(t, err)
	first := p1.Envs
	_, err = Apply(cfg, p)
	require.NoError(t, err)

	if diff := cmp.Diff(first, p1.Envs); diff != "" {
		t.Errorf("second Apply changed envs (-first +second):\n%s", diff)
	}
}

func TestApply_InputDataWins(t *testing.T) {
	p, p1, _ := newPipeline(t)
	given := &pipeline.InputTable{Columns: []string{"a"}, Rows: [][]any{{"orig"}}}
	p1.InputData = given
	cfg := &resolve.Config{Procs: map[string]map[string]any{
		"P1": {"in": map[string]any{"a": []any{"cli"}}},
	}}

	warnings, err := Apply(cfg, p)

	require.NoError(t, err)
	assert.Same(t, given, p1.InputData)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "[P1] `input_data` is given")
}

func TestApply_AllNilInputIsNoop(t *testing.T) {
	p, p1, _ := newPipeline(t)
	cfg := &resolve.Config{Procs: map[string]map[string]any{
		"P1": {"in": map[string]any{"a": nil, "b": nil}},
	}}

	warnings, err := Apply(cfg, p)

	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Nil(t, p1.InputData)
}

func TestApply_ShapeError(t *testing.T) {
	p, _, _ := newPipeline(t)
	cfg := &resolve.Config{Procs: map[string]map[string]any{
		"P1": {"in": map[string]any{"a": []any{"1", "2"}, "b": []any{"x", "y", "z"}}},
	}}

	_, err := Apply(cfg, p)

	require.ErrorIs(t, err, ErrInputShape)
}

func TestApply_Groups(t *testing.T) {
	g := &pipeline.Group{Name: "G", Defaults: map[string]any{"depth": 1}}
	p1 := &pipeline.Process{Name: "P1"}
	g.Add(p1)
	p := pipeline.New("pipe")
	require.NoError(t, p.Add(p1))
	cfg := &resolve.Config{Groups: map[string]map[string]any{"G": {"depth": 3}}}

	_, err := Apply(cfg, p)

	require.NoError(t, err)
	v, ok := g.Option("depth")
	require.True(t, ok)
	assert.Equal(t, 3, v)
}
