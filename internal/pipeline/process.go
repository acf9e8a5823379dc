// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file models a single process and its declared inputs and outputs.
package pipeline

import "strings"

// Process is one step of a pipeline. Pointer fields are nil when the process
// inherits the pipeline-wide setting.
type Process struct {
	Name string
	// Doc is the annotated documentation block of the process.
	Doc string
	// Group is the process group the process belongs to, if any.
	Group *Group

	// Input and Output are declared as "name" or "name:type" entries.
	Input  []string
	Output []string
	// InputData is set when the caller supplies input rows directly.
	InputData *InputTable

	Envs      map[string]any
	EnvsDepth int

	Cache           *string
	DirSig          *int
	Lang            *string
	ErrorStrategy   *string
	NumRetries      *int
	Forks           *int
	SubmissionBatch *int
	Scheduler       *string
	Order           *int
	Export          *bool

	SchedulerOpts map[string]any
	PluginOpts    map[string]any

	// Requires lists the processes whose outputs this process consumes.
	Requires []*Process

	nexts []*Process
}

// Field is a parsed input or output declaration.
type Field struct {
	Name string
	// Type is the declared field type, "var" when omitted.
	Type string
}

// InputFields parses the input declarations.
func (p *Process) InputFields() []Field {
	return parseFields(p.Input)
}

// OutputFields parses the output declarations.
func (p *Process) OutputFields() []Field {
	return parseFields(p.Output)
}

// Nexts returns the processes that require p. It is populated by
// Pipeline.Build.
func (p *Process) Nexts() []*Process {
	return p.nexts
}

// IsTerminal reports whether no process depends on p.
func (p *Process) IsTerminal() bool {
	return len(p.nexts) == 0
}

// Option returns the plugin option key of the process, if set.
func (p *Process) Option(key string) (any, bool) {
	v, ok := p.PluginOpts[key]
	return v, ok
}

// parseFields splits "name:type" declarations. Output declarations may carry
// a template after a second colon, e.g. "outfile:file:{{in.infile}}".
func parseFields(decls []string) []Field {
	fields := make([]Field, 0, len(decls))
	for _, decl := range decls {
		for _, part := range strings.Split(decl, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			name, typ, found := strings.Cut(part, ":")
			f := Field{Name: strings.TrimSpace(name), Type: "var"}
			if found {
				typ, _, _ = strings.Cut(typ, ":")
				f.Type = strings.TrimSpace(typ)
			}
			fields = append(fields, f)
		}
	}
	return fields
}

// IsMultiPath reports whether a field type collects a list of paths per job.
func (f Field) IsMultiPath() bool {
	return f.Type == "files" || f.Type == "dirs"
}
