// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file models the pipeline aggregate and its dependency wiring.
package pipeline

import (
	"github.com/pkg/errors"

	"github.com/vk/pipeargs/internal/dag"
	"github.com/vk/pipeargs/internal/dictutil"
)

// Pipeline is an ordered set of processes plus the settings they run under.
type Pipeline struct {
	Name    string
	Desc    string
	Outdir  string
	Workdir string
	Profile string

	// Config holds the run settings, seeded from DefaultConfig.
	Config map[string]any
	// Fixed holds values set in code. They outrank every other source.
	Fixed map[string]any

	procs  []*Process
	starts []*Process
	built  bool
}

// Option configures a Pipeline at construction time.
type Option func(*Pipeline)

// WithDesc sets the pipeline description shown in help.
func WithDesc(desc string) Option {
	return func(p *Pipeline) { p.Desc = desc }
}

// WithConfig overlays run settings onto the defaults. These are ordinary
// defaults and may be overridden from profiles or the command line.
func WithConfig(cfg map[string]any) Option {
	return func(p *Pipeline) { p.Config = dictutil.Merge(p.Config, cfg, 1) }
}

// WithFixed pins a setting in code. name, outdir, workdir and profile also
// update the corresponding field.
func WithFixed(key string, value any) Option {
	return func(p *Pipeline) {
		p.Fixed[key] = value
		s, _ := dictutil.AsString(value)
		switch key {
		case "name":
			p.Name = s
		case "outdir":
			p.Outdir = s
		case "workdir":
			p.Workdir = s
		case "profile":
			p.Profile = s
		}
	}
}

// New creates a pipeline with the compiled-in default settings.
func New(name string, opts ...Option) *Pipeline {
	p := &Pipeline{
		Name:    name,
		Profile: "default",
		Config:  DefaultConfig(),
		Fixed:   make(map[string]any),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Add registers processes in declaration order.
func (p *Pipeline) Add(procs ...*Process) error {
	for _, proc := range procs {
		if _, ok := p.Process(proc.Name); ok {
			return errors.Wrapf(ErrDuplicateProcess, "process %q", proc.Name)
		}
		p.procs = append(p.procs, proc)
		p.built = false
	}
	return nil
}

// SetStarts declares the start processes. Without it, every process with no
// requirements is a start.
func (p *Pipeline) SetStarts(procs ...*Process) {
	p.starts = procs
	p.built = false
}

// Process looks up a process by name.
func (p *Pipeline) Process(name string) (*Process, bool) {
	for _, proc := range p.procs {
		if proc.Name == name {
			return proc, true
		}
	}
	return nil, false
}

// Processes returns the processes; after Build they are in dependency order.
func (p *Pipeline) Processes() []*Process {
	return p.procs
}

// Starts returns the start processes. Valid after Build.
func (p *Pipeline) Starts() []*Process {
	return p.starts
}

// IsStart reports whether proc is a start process.
func (p *Pipeline) IsStart(proc *Process) bool {
	for _, s := range p.starts {
		if s == proc {
			return true
		}
	}
	return false
}

// Groups returns the process groups in order of first appearance.
func (p *Pipeline) Groups() []*Group {
	var out []*Group
	seen := make(map[*Group]bool)
	for _, proc := range p.procs {
		if proc.Group != nil && !seen[proc.Group] {
			seen[proc.Group] = true
			out = append(out, proc.Group)
		}
	}
	return out
}

// IsFixed reports whether key was pinned in code.
func (p *Pipeline) IsFixed(key string) bool {
	_, ok := p.Fixed[key]
	return ok
}

// Value returns the code-pinned value for key, falling back to Config.
func (p *Pipeline) Value(key string) any {
	if v, ok := p.Fixed[key]; ok {
		return v
	}
	return p.Config[key]
}

// Build wires dependency edges, orders the processes and determines the
// start processes. It is safe to call more than once.
func (p *Pipeline) Build() error {
	if p.built {
		return nil
	}
	if len(p.procs) == 0 {
		return errors.Wrapf(ErrNoProcesses, "pipeline %q", p.Name)
	}

	g := dag.New()
	byName := make(map[string]*Process, len(p.procs))
	for _, proc := range p.procs {
		g.AddNode(proc.Name)
		byName[proc.Name] = proc
	}
	for _, proc := range p.procs {
		for _, req := range proc.Requires {
			if byName[req.Name] != req {
				return errors.Wrapf(ErrUnknownProcess, "%q requires %q", proc.Name, req.Name)
			}
			if err := g.AddEdge(req.Name, proc.Name); err != nil {
				return errors.Wrapf(ErrCycle, "%s", err)
			}
		}
	}

	order, err := g.Order()
	if err != nil {
		return errors.Wrapf(ErrCycle, "%s", err)
	}
	ordered := make([]*Process, len(order))
	for i, name := range order {
		proc := byName[name]
		dependents, err := g.Dependents(name)
		if err != nil {
			return err
		}
		proc.nexts = proc.nexts[:0]
		for _, d := range dependents {
			proc.nexts = append(proc.nexts, byName[d])
		}
		ordered[i] = proc
	}
	p.procs = ordered

	if len(p.starts) == 0 {
		roots, err := g.Roots()
		if err != nil {
			return err
		}
		for _, name := range roots {
			p.starts = append(p.starts, byName[name])
		}
	}
	for _, s := range p.starts {
		if byName[s.Name] != s {
			return errors.Wrapf(ErrUnknownProcess, "start process %q", s.Name)
		}
	}

	p.built = true
	return nil
}
