// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file models a process group: a named bundle of processes sharing a
// set of group-level options.
package pipeline

// Group bundles processes under a common name and option set.
type Group struct {
	Name string
	// Doc is the annotated documentation block of the group.
	Doc string
	// Defaults holds the declared option defaults.
	Defaults map[string]any
	// Options holds the effective options once arguments are resolved.
	// Values set here before resolution take precedence over the command line.
	Options map[string]any
	// PluginOpts holds group-level plugin options such as args_hide.
	PluginOpts map[string]any

	Processes []*Process
}

// Add attaches processes to the group.
func (g *Group) Add(procs ...*Process) {
	for _, p := range procs {
		p.Group = g
		g.Processes = append(g.Processes, p)
	}
}

// Hidden reports whether the group's processes are hidden from basic help.
// Group members are hidden unless the group says otherwise.
func (g *Group) Hidden() bool {
	if v, ok := g.PluginOpts["args_hide"].(bool); ok {
		return v
	}
	return true
}

// Option returns the effective value of a group option.
func (g *Group) Option(key string) (any, bool) {
	if v, ok := g.Options[key]; ok {
		return v, true
	}
	v, ok := g.Defaults[key]
	return v, ok
}
