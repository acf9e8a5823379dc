package resolve

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/pipeargs/internal/argparse"
	"github.com/vk/pipeargs/internal/pipeline"
	"github.com/vk/pipeargs/internal/schema"
)

type stubLoader struct {
	tables map[string]map[string]any
	asked  string
}

func (l *stubLoader) Load(_ context.Context, profile string, _ ...string) (map[string]any, error) {
	l.asked = profile
	return l.tables[profile], nil
}

// setup builds a P1 -> P2 pipeline rooted in a temporary workdir and parses args.
func setup(t *testing.T, args []string, opts ...pipeline.Option) (*pipeline.Pipeline, *schema.Schema, *argparse.Namespace) {
	t.Helper()
	p1 := &pipeline.Process{
		Name:  "P1",
		Input: []string{"a"},
		Envs:  map[string]any{"x": 1},
	}
	p2 := &pipeline.Process{
		Name:     "P2",
		Requires: []*pipeline.Process{p1},
		Envs:     map[string]any{"x": 1},
	}
	all := append([]pipeline.Option{pipeline.WithConfig(map[string]any{"workdir": t.TempDir()})}, opts...)
	p := pipeline.New("pipe", all...)
	require.NoError(t, p.Add(p1, p2))
	return parse(t, p, args)
}

// record returns the precedence record of key.
func record(t *testing.T, res *Result, key string) Record {
	t.Helper()
	for _, r := range res.Records {
		if r.Key == key {
			return r
		}
	}
	require.Failf(t, "no precedence record", "key %q", key)
	return Record{}
}

func parse(t *testing.T, p *pipeline.Pipeline, args []string) (*pipeline.Pipeline, *schema.Schema, *argparse.Namespace) {
	t.Helper()
	s, err := schema.Build(p, schema.BuildOptions{})
	require.NoError(t, err)
	parser := argparse.New(p.Name, nil)
	parser.Bind(s)
	ns, err := parser.Parse(args)
	require.NoError(t, err)
	return p, s, ns
}

func TestResolve_Defaults(t *testing.T) {
	// --- Arrange ---
	p, s, ns := setup(t, nil)

	// --- Act ---
	res, err := Resolve(context.Background(), ns, p, s, Options{})

	// --- Assert ---
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	cfg := res.Config
	assert.Equal(t, "pipe", cfg.Name)
	assert.Equal(t, "default", cfg.Profile)
	assert.True(t, filepath.IsAbs(cfg.Outdir))
	assert.Equal(t, "pipe-output", filepath.Base(cfg.Outdir))
	assert.Equal(t, 1, cfg.Pipeline["forks"])
	assert.DirExists(t, cfg.Workdir)
	assert.Equal(t, "pipe", filepath.Base(cfg.Workdir))
}

func TestResolve_NameDrivesOutdirAndWorkdir(t *testing.T) {
	p, s, ns := setup(t, []string{"--name", "foo"})

	res, err := Resolve(context.Background(), ns, p, s, Options{})

	require.NoError(t, err)
	assert.Equal(t, "foo", res.Config.Name)
	assert.Equal(t, "foo-output", filepath.Base(res.Config.Outdir))
	assert.Equal(t, "foo", filepath.Base(res.Config.Workdir))
	assert.DirExists(t, res.Config.Workdir)
	v, ok := res.Config.Value("outdir")
	require.True(t, ok)
	assert.Equal(t, res.Config.Outdir, v)
}

func TestResolve_CLIOutdir(t *testing.T) {
	out := filepath.Join(t.TempDir(), "results")
	p, s, ns := setup(t, []string{"--outdir", out, "--name", "foo"})

	res, err := Resolve(context.Background(), ns, p, s, Options{})

	require.NoError(t, err)
	assert.Equal(t, out, res.Config.Outdir)
}

func TestResolve_FixedBeatsCLI(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		fixed    pipeline.Option
		key      string
		want     any
		warnings int
	}{
		{
			name:     "conflicting value warns once",
			args:     []string{"--forks", "8"},
			fixed:    pipeline.WithFixed("forks", 2),
			key:      "forks",
			want:     2,
			warnings: 1,
		},
		{
			name:     "equal value is silent",
			args:     []string{"--forks", "2"},
			fixed:    pipeline.WithFixed("forks", 2),
			key:      "forks",
			want:     2,
			warnings: 0,
		},
		{
			name:     "absent cli value is silent",
			fixed:    pipeline.WithFixed("scheduler", "sge"),
			key:      "scheduler",
			want:     "sge",
			warnings: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, s, ns := setup(t, tc.args, tc.fixed)

			res, err := Resolve(context.Background(), ns, p, s, Options{})

			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Config.Pipeline[tc.key])
			require.Len(t, res.Warnings, tc.warnings)
			if tc.warnings > 0 {
				assert.Contains(t, res.Warnings[0], "`"+tc.key+"`")
			}
			rec := record(t, res, tc.key)
			assert.Equal(t, TierFixed, rec.Winner)
			assert.Equal(t, tc.want, rec.FinalValue)
		})
	}
}

func TestResolve_FixedOutdirWarns(t *testing.T) {
	fixed := filepath.Join(t.TempDir(), "fixed")
	p, s, ns := setup(t, []string{"--outdir", "elsewhere"}, pipeline.WithFixed("outdir", fixed))

	res, err := Resolve(context.Background(), ns, p, s, Options{})

	require.NoError(t, err)
	assert.Equal(t, fixed, res.Config.Outdir)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "outdir")
}

func TestResolve_FixedWorkdir(t *testing.T) {
	fixed := filepath.Join(t.TempDir(), "wd")
	p, s, ns := setup(t, []string{"--workdir", t.TempDir()}, pipeline.WithFixed("workdir", fixed))

	res, err := Resolve(context.Background(), ns, p, s, Options{})

	require.NoError(t, err)
	assert.Equal(t, fixed, res.Config.Workdir)
	assert.DirExists(t, fixed)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "workdir")
}

func TestResolve_Profile(t *testing.T) {
	testCases := []struct {
		name        string
		args        []string
		opts        []pipeline.Option
		wantProfile string
		wantForks   any
		wantWinner  Tier
		warnings    int
	}{
		{
			name:        "default profile table applies",
			wantProfile: "default",
			wantForks:   3,
			wantWinner:  TierProfile,
		},
		{
			name:        "cli selects profile",
			args:        []string{"--profile", "hpc"},
			wantProfile: "hpc",
			wantForks:   16,
			wantWinner:  TierProfile,
		},
		{
			name:        "cli beats profile",
			args:        []string{"--profile", "hpc", "--forks", "5"},
			wantProfile: "hpc",
			wantForks:   5,
			wantWinner:  TierCLI,
		},
		{
			name:        "profile set in code wins",
			args:        []string{"--profile", "hpc"},
			opts:        []pipeline.Option{pipeline.WithFixed("profile", "local")},
			wantProfile: "local",
			wantForks:   2,
			wantWinner:  TierProfile,
			warnings:    1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			loader := &stubLoader{tables: map[string]map[string]any{
				"default": {"forks": 3},
				"hpc":     {"forks": 16, "scheduler_opts": map[string]any{"queue": "long"}},
				"local":   {"forks": 2},
			}}
			p, s, ns := setup(t, tc.args, tc.opts...)

			// --- Act ---
			res, err := Resolve(context.Background(), ns, p, s, Options{Loader: loader})

			// --- Assert ---
			require.NoError(t, err)
			assert.Equal(t, tc.wantProfile, loader.asked)
			assert.Equal(t, tc.wantProfile, res.Config.Profile)
			assert.Equal(t, tc.wantForks, res.Config.Pipeline["forks"])
			assert.Len(t, res.Warnings, tc.warnings)
			forks := record(t, res, "forks")
			assert.Equal(t, tc.wantWinner, forks.Winner)
			assert.Equal(t, tc.wantForks, forks.FinalValue)
			wantProfileTier := TierCLI
			if tc.opts != nil {
				wantProfileTier = TierFixed
			} else if tc.args == nil {
				wantProfileTier = TierDefault
			}
			assert.Equal(t, wantProfileTier, record(t, res, "profile").Winner)
		})
	}
}

func TestResolve_ProfileDict(t *testing.T) {
	loader := &stubLoader{tables: map[string]map[string]any{
		"hpc": {"scheduler_opts": map[string]any{"queue": "long", "mem": "4G"}},
	}}
	p, s, ns := setup(t, []string{"--profile", "hpc", "--scheduler_opts", `{"mem": "8G"}`})

	res, err := Resolve(context.Background(), ns, p, s, Options{Loader: loader})

	require.NoError(t, err)
	want := map[string]any{"queue": "long", "mem": "8G"}
	if diff := cmp.Diff(want, res.Config.Pipeline["scheduler_opts"]); diff != "" {
		t.Errorf("scheduler_opts mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_DictFixedKeys(t *testing.T) {
	p, s, ns := setup(t,
		[]string{"--plugin_opts", `{"report": "html", "verbose": true}`},
		pipeline.WithFixed("plugin_opts", map[string]any{"report": "pdf"}),
	)

	res, err := Resolve(context.Background(), ns, p, s, Options{})

	require.NoError(t, err)
	want := map[string]any{"report": "pdf", "verbose": true}
	if diff := cmp.Diff(want, res.Config.Pipeline["plugin_opts"]); diff != "" {
		t.Errorf("plugin_opts mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "`plugin_opts.report`")
}

func TestResolve_ReservedOptionsDropped(t *testing.T) {
	p, s, ns := setup(t, []string{"--plugin_opts", `{"args_hide": true, "args_flatten": true, "keep": 1}`})

	res, err := Resolve(context.Background(), ns, p, s, Options{})

	require.NoError(t, err)
	want := map[string]any{"keep": 1}
	if diff := cmp.Diff(want, res.Config.Pipeline["plugin_opts"]); diff != "" {
		t.Errorf("plugin_opts mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, res.Warnings, 2)
	for _, w := range res.Warnings {
		assert.Contains(t, w, "should not be passed via command line")
	}
}

func TestResolve_ProcessTrees(t *testing.T) {
	p, s, ns := setup(t, []string{"--P1.envs.x", "5", "--P1.in.a", "1", "2", "--P2.forks", "4"})

	res, err := Resolve(context.Background(), ns, p, s, Options{})

	require.NoError(t, err)
	p1 := res.Config.Procs["P1"]
	p2 := res.Config.Procs["P2"]
	assert.Equal(t, map[string]any{"x": 5}, p1["envs"])
	assert.Equal(t, map[string]any{"x": 1}, p2["envs"])
	assert.Equal(t, map[string]any{"a": []any{"1", "2"}}, p1["in"])
	assert.Equal(t, 4, p2["forks"])
	assert.Nil(t, p1["forks"])
	_, hasOut := p2["out"]
	assert.False(t, hasOut)
}

func TestResolve_FlattenedProcessGetsPipelineValues(t *testing.T) {
	forks := 4
	p := pipeline.New("single", pipeline.WithConfig(map[string]any{"workdir": t.TempDir()}))
	require.NoError(t, p.Add(&pipeline.Process{Name: "P", Input: []string{"a"}, Forks: &forks}))
	p, s, ns := parse(t, p, []string{"--in.a", "x"})

	res, err := Resolve(context.Background(), ns, p, s, Options{})

	require.NoError(t, err)
	assert.True(t, res.Config.Flatten)
	proc := res.Config.Procs["P"]
	assert.Equal(t, 4, proc["forks"])
	assert.Equal(t, 4, res.Config.Pipeline["forks"])
	assert.Equal(t, map[string]any{"a": []any{"x"}}, proc["in"])
}

func TestResolve_ProcessAttrsRankAboveProfile(t *testing.T) {
	testCases := []struct {
		name      string
		procs     int
		args      []string
		fixed     []pipeline.Option
		wantForks int
	}{
		{name: "flattened", procs: 1, wantForks: 4},
		{name: "nested", procs: 2, wantForks: 4},
		{name: "flattened with pipeline value fixed", procs: 1, fixed: []pipeline.Option{pipeline.WithFixed("forks", 2)}, wantForks: 4},
		{name: "flattened cli overrides", procs: 1, args: []string{"--forks", "6"}, wantForks: 6},
		{name: "nested cli overrides", procs: 2, args: []string{"--P1.forks", "6"}, wantForks: 6},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			forks := 4
			p1 := &pipeline.Process{Name: "P1", Input: []string{"a"}, Forks: &forks}
			opts := append([]pipeline.Option{pipeline.WithConfig(map[string]any{"workdir": t.TempDir()})}, tc.fixed...)
			p := pipeline.New("pipe", opts...)
			require.NoError(t, p.Add(p1))
			if tc.procs > 1 {
				require.NoError(t, p.Add(&pipeline.Process{Name: "P2", Requires: []*pipeline.Process{p1}}))
			}
			p, s, ns := parse(t, p, tc.args)
			loader := &stubLoader{tables: map[string]map[string]any{"default": {"forks": 8}}}

			// --- Act ---
			res, err := Resolve(context.Background(), ns, p, s, Options{Loader: loader})

			// --- Assert ---
			require.NoError(t, err)
			assert.Equal(t, tc.procs == 1, res.Config.Flatten)
			got := forks
			if v, ok := res.Config.Procs["P1"]["forks"]; ok && v != nil {
				got = v.(int)
			}
			assert.Equal(t, tc.wantForks, got, "effective forks of P1")
			assert.NotEqual(t, 4, res.Config.Pipeline["forks"], "pipeline-wide value still follows the profile or fixed value")
		})
	}
}

func TestResolve_GroupOptions(t *testing.T) {
	g := &pipeline.Group{
		Name:     "G",
		Doc:      "Group\n\nArgs:\n    depth (type:int): depth\n    mode: mode\n",
		Defaults: map[string]any{"depth": 1, "mode": "fast"},
		Options:  map[string]any{"mode": "safe"},
	}
	p1 := &pipeline.Process{Name: "P1", Input: []string{"a"}}
	p2 := &pipeline.Process{Name: "P2", Requires: []*pipeline.Process{p1}}
	g.Add(p1, p2)
	p := pipeline.New("pipe", pipeline.WithConfig(map[string]any{"workdir": t.TempDir()}))
	require.NoError(t, p.Add(p1, p2))
	p, s, ns := parse(t, p, []string{"--G.depth", "3", "--G.mode", "slow"})

	res, err := Resolve(context.Background(), ns, p, s, Options{})

	require.NoError(t, err)
	want := map[string]any{"depth": 3, "mode": "safe"}
	if diff := cmp.Diff(want, res.Config.Groups["G"]); diff != "" {
		t.Errorf("group options mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "`G.mode`")
}

func TestResolve_InvalidSettings(t *testing.T) {
	p, s, ns := setup(t, []string{"--forks", "0"})

	_, err := Resolve(context.Background(), ns, p, s, Options{})

	require.ErrorIs(t, err, pipeline.ErrInvalidSettings)
	assert.Contains(t, err.Error(), "Forks")
}

func TestResolve_WorkdirUnwritable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	p, s, ns := setup(t, []string{"--workdir", blocker})

	_, err := Resolve(context.Background(), ns, p, s, Options{})

	require.Error(t, err)
}
