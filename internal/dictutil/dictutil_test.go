package dictutil

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	existing := map[string]any{
		"a": 1,
		"b": map[string]any{"x": 1, "y": map[string]any{"p": 1, "q": 2}},
	}
	fragment := map[string]any{
		"b": map[string]any{"y": map[string]any{"p": 9}},
		"c": 3,
	}

	testCases := []struct {
		name     string
		depth    int
		expected map[string]any
	}{
		{
			name:  "depth 1 replaces nested tables wholesale",
			depth: 1,
			expected: map[string]any{
				"a": 1,
				"b": map[string]any{"y": map[string]any{"p": 9}},
				"c": 3,
			},
		},
		{
			name:  "depth 2 merges one level",
			depth: 2,
			expected: map[string]any{
				"a": 1,
				"b": map[string]any{"x": 1, "y": map[string]any{"p": 9}},
				"c": 3,
			},
		},
		{
			name:  "unbounded depth merges all the way down",
			depth: 0,
			expected: map[string]any{
				"a": 1,
				"b": map[string]any{"x": 1, "y": map[string]any{"p": 9, "q": 2}},
				"c": 3,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Act ---
			got := Merge(existing, fragment, tc.depth)

			// --- Assert ---
			if diff := cmp.Diff(tc.expected, got); diff != "" {
				t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
			}
			again := Merge(got, fragment, tc.depth)
			if diff := cmp.Diff(got, again); diff != "" {
				t.Errorf("Merge() is not idempotent (-first +second):\n%s", diff)
			}
		})
	}

	assert.Equal(t, 1, existing["b"].(map[string]any)["y"].(map[string]any)["p"], "existing must not be mutated")
}

func TestMerge_NilExisting(t *testing.T) {
	got := Merge(nil, map[string]any{"a": 1}, 1)
	assert.Equal(t, map[string]any{"a": 1}, got)
}

func TestSetGet(t *testing.T) {
	// --- Arrange ---
	m := map[string]any{"scalar": 1}

	// --- Act ---
	require.NoError(t, Set(m, []string{"P1", "envs", "x"}, 5))
	err := Set(m, []string{"scalar", "x"}, 1)

	// --- Assert ---
	require.Error(t, err)
	v, ok := Get(m, []string{"P1", "envs", "x"})
	require.True(t, ok)
	assert.Equal(t, 5, v)

	_, ok = Get(m, []string{"P1", "nope"})
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	in := map[string]any{
		"i64":  int64(3),
		"f32":  float32(1.5),
		"strs": []string{"a", "b"},
		"nest": map[string]any{"u": uint8(2)},
	}

	got := Normalize(in)

	want := map[string]any{
		"i64":  3,
		"f32":  1.5,
		"strs": []any{"a", "b"},
		"nest": map[string]any{"u": 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, Equal([]string{"x"}, []any{"x"}))
	assert.False(t, Equal(1, "1"))
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(nil))
	assert.True(t, IsEmpty([]string{}))
	assert.True(t, IsEmpty(map[string]any{}))
	assert.False(t, IsEmpty(0))
	assert.False(t, IsEmpty([]any{nil}))
}
