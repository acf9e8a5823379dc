package annotate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullDoc = `Short summary.

    Longer description
    spanning two lines.

    Input:
        a: input a
        b (required): input b
            continued here
    Output:
        out: the output
    Envs:
        f (flag): a flag
        x (choices): pick one
            - fast: quick mode
            - full: slow mode
        y (type:int; hidden): hidden int
        w (ns): a namespace
            - a (type:int): item a
            - b: item b
                - deep: nested term
        <more>: anything else
    Examples:
        run it
`

func TestParseSections(t *testing.T) {
	// --- Act ---
	secs, err := ParseSections(fullDoc)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, Summary{Short: "Short summary.", Long: "Longer description\nspanning two lines."}, secs.Summary)

	var titles []string
	for _, s := range secs.Sections {
		titles = append(titles, s.Title)
	}
	assert.Equal(t, []string{"Input", "Output", "Envs", "Examples"}, titles)

	input, ok := secs.Get("Input")
	require.True(t, ok)
	want := Items{
		{Name: "a", Help: "input a", Attrs: map[string]string{}},
		{Name: "b", Help: "input b\ncontinued here", Attrs: map[string]string{"required": ""}},
	}
	if diff := cmp.Diff(want, input.Items); diff != "" {
		t.Errorf("Input mismatch (-want +got):\n%s", diff)
	}

	envs, _ := secs.Get("Envs")
	assert.Equal(t, []string{"f", "x", "y", "w", "<more>"}, envs.Items.Names())

	x, _ := envs.Items.Get("x")
	assert.Equal(t, []string{"fast", "full"}, x.Terms.Names())
	assert.True(t, x.Has("choices"))

	y, _ := envs.Items.Get("y")
	typ, ok := y.Attr("type")
	assert.True(t, ok)
	assert.Equal(t, "int", typ)
	assert.True(t, y.Has("hidden"))

	w, _ := envs.Items.Get("w")
	require.Len(t, w.Terms, 2)
	assert.Equal(t, "int", w.Terms[0].Attrs["type"])
	assert.Equal(t, []string{"deep"}, w.Terms[1].Terms.Names())

	examples, _ := secs.Get("Examples")
	assert.Equal(t, "run it", examples.Text)
	assert.Empty(t, examples.Items)
}

func TestParseSections_Errors(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
	}{
		{name: "unindented body", doc: "Summary\n\nInput:\nnot indented\n"},
		{name: "malformed item", doc: "Summary\n\nEnvs:\n    no colon here\n"},
		{name: "bad term", doc: "S\n\nEnvs:\n    x: help\n        - ok: fine\n        stray\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseSections(tc.doc)
			assert.Error(t, err)
		})
	}
}

func TestParseAttrs(t *testing.T) {
	got := parseAttrs(" type:int ; choices:1,2,3;flag ; default=a:b")
	want := map[string]string{"type": "int", "choices": "1,2,3", "flag": "", "default": "a:b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseAttrs mismatch (-want +got):\n%s", diff)
	}
}
