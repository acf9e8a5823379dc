package argparse

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/pipeargs/internal/pipeline"
)

func TestAddExtra_Validation(t *testing.T) {
	testCases := []struct {
		name string
		arg  ExtraArg
		ok   bool
	}{
		{name: "valid", arg: ExtraArg{Name: "config", Fallback: Default("")}, ok: true},
		{name: "zero fallback is still a fallback", arg: ExtraArg{Name: "dry", Switch: true, Fallback: Default(false)}, ok: true},
		{name: "missing fallback", arg: ExtraArg{Name: "config"}},
		{name: "missing name", arg: ExtraArg{Fallback: Default(1)}},
		{name: "bad name", arg: ExtraArg{Name: "a b", Fallback: Default(1)}},
		{name: "long short", arg: ExtraArg{Name: "x", Short: "xy", Fallback: Default(1)}},
		{name: "unknown type", arg: ExtraArg{Name: "x", Type: "decimal", Fallback: Default(1)}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := New("prog", nil).AddExtra(tc.arg)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrExtraRequired), "got %v", err)
		})
	}
}

func TestParseExtra(t *testing.T) {
	// --- Arrange ---
	p, _ := twoProcessParser(t)
	require.NoError(t, p.AddExtra(ExtraArg{Name: "variant", Short: "v", Fallback: Default("small"), Choices: []string{"small", "large"}}))
	require.NoError(t, p.AddExtra(ExtraArg{Name: "samples", Type: "int", Fallback: Default(1)}))
	require.NoError(t, p.AddExtra(ExtraArg{Name: "dry", Switch: true, Fallback: Default(false)}))

	// --- Act ---
	pv, err := p.ParseExtra([]string{"--forks", "2", "-v", "large", "--dry", "--P1.envs.x", "3"})

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "large", pv.Get("variant"))
	assert.Equal(t, 1, pv.Get("samples"), "fallback")
	assert.Equal(t, true, pv.Get("dry"))
	assert.Equal(t, []string{"--forks", "2", "--P1.envs.x", "3"}, p.Remaining())

	ns, err := p.Parse(p.Remaining())
	require.NoError(t, err)
	pv.Promote(ns)
	v, ok := ns.Extra("variant")
	assert.True(t, ok)
	assert.Equal(t, "large", v)
	assert.Equal(t, 3, get(t, ns, "P1.envs.x"))
}

func TestParseExtra_HelpUsesFallbacks(t *testing.T) {
	p := New("prog", nil)
	require.NoError(t, p.AddExtra(ExtraArg{Name: "variant", Fallback: Default("small")}))

	pv, err := p.ParseExtra([]string{"--variant", "large", "-h"})

	require.NoError(t, err)
	assert.Equal(t, "small", pv.Get("variant"))
	assert.Equal(t, []string{"--variant", "large", "-h"}, p.Remaining())
}

func TestParseExtra_BadValue(t *testing.T) {
	p := New("prog", nil)
	require.NoError(t, p.AddExtra(ExtraArg{Name: "variant", Fallback: Default("small"), Choices: []string{"small", "large"}}))

	_, err := p.ParseExtra([]string{"--variant=huge"})

	assert.Error(t, err)
}

func TestParseGroupOptions(t *testing.T) {
	g := &pipeline.Group{
		Name:     "G",
		Doc:      "Group\n\nArgs:\n    depth (type:int): How deep\n",
		Defaults: map[string]any{"depth": 1, "mode": "a", "keep": "x"},
		Options:  map[string]any{"keep": "code"},
	}

	err := ParseGroupOptions(g, []string{"--forks", "3", "--G.depth", "4", "--G.keep", "cli", "--other"})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"depth": 4, "keep": "code"}, g.Options)
	v, _ := g.Option("mode")
	assert.Equal(t, "a", v)
}
