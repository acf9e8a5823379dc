package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/pipeargs/internal/ctxlog"
	"github.com/vk/pipeargs/internal/fsutil"
	"github.com/vk/pipeargs/internal/pipeline"
)

// Loader reads pipeline declarations from HCL files.
type Loader struct{}

// NewLoader creates a new HCL declaration loader.
func NewLoader() *Loader {
	return &Loader{}
}

type decoded struct {
	pipe   *pipelineBlock
	groups []*groupBlock
	procs  []*processBlock
}

// Load parses the .hcl files found under paths and assembles the pipeline
// they declare. Exactly one pipeline block must be present.
func (l *Loader) Load(ctx context.Context, paths ...string) (*pipeline.Pipeline, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFiles(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	var all decoded
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		for _, p := range root.Pipelines {
			if all.pipe != nil {
				return nil, fmt.Errorf("pipeline %q in %s: only one pipeline may be declared (already have %q)", p.Name, file, all.pipe.Name)
			}
			all.pipe = p
		}
		all.groups = append(all.groups, root.Groups...)
		all.procs = append(all.procs, root.Processes...)
	}
	if all.pipe == nil {
		return nil, fmt.Errorf("no pipeline block found in %v", files)
	}

	p, err := assemble(all)
	if err != nil {
		return nil, err
	}
	logger.Debug("HCL loading complete.", "pipeline", p.Name, "processes", len(p.Processes()), "groups", len(all.groups))
	return p, nil
}

func assemble(d decoded) (*pipeline.Pipeline, error) {
	pb := d.pipe
	var opts []pipeline.Option
	if pb.Desc != nil {
		opts = append(opts, pipeline.WithDesc(*pb.Desc))
	}
	cfg, err := toMap(pb.Config, "pipeline config")
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		opts = append(opts, pipeline.WithConfig(cfg))
	}
	fixed, err := toMap(pb.Fixed, "pipeline fixed")
	if err != nil {
		return nil, err
	}
	for k, v := range fixed {
		opts = append(opts, pipeline.WithFixed(k, v))
	}
	for key, v := range map[string]*string{"outdir": pb.Outdir, "workdir": pb.Workdir, "profile": pb.Profile} {
		if v != nil {
			opts = append(opts, pipeline.WithFixed(key, *v))
		}
	}
	p := pipeline.New(pb.Name, opts...)

	groups := make(map[string]*pipeline.Group, len(d.groups))
	for _, gb := range d.groups {
		if _, dup := groups[gb.Name]; dup {
			return nil, fmt.Errorf("group %q declared twice", gb.Name)
		}
		g, err := translateGroup(gb)
		if err != nil {
			return nil, err
		}
		groups[gb.Name] = g
	}

	procs := make(map[string]*pipeline.Process, len(d.procs))
	for _, b := range d.procs {
		proc, err := translateProcess(b)
		if err != nil {
			return nil, err
		}
		if b.Group != nil {
			g, ok := groups[*b.Group]
			if !ok {
				return nil, fmt.Errorf("process %q: unknown group %q", b.Name, *b.Group)
			}
			g.Add(proc)
		}
		if err := p.Add(proc); err != nil {
			return nil, err
		}
		procs[b.Name] = proc
	}

	for _, b := range d.procs {
		for _, req := range b.Requires {
			dep, ok := procs[req]
			if !ok {
				return nil, fmt.Errorf("process %q requires unknown process %q", b.Name, req)
			}
			procs[b.Name].Requires = append(procs[b.Name].Requires, dep)
		}
	}

	if len(pb.Starts) > 0 {
		starts := make([]*pipeline.Process, 0, len(pb.Starts))
		for _, name := range pb.Starts {
			proc, ok := procs[name]
			if !ok {
				return nil, fmt.Errorf("pipeline %q: unknown start process %q", pb.Name, name)
			}
			starts = append(starts, proc)
		}
		p.SetStarts(starts...)
	}
	return p, nil
}

func translateGroup(b *groupBlock) (*pipeline.Group, error) {
	g := &pipeline.Group{Name: b.Name}
	if b.Doc != nil {
		g.Doc = *b.Doc
	}
	var err error
	if g.Defaults, err = toMap(b.Defaults, "group "+b.Name+" defaults"); err != nil {
		return nil, err
	}
	if g.Options, err = toMap(b.Options, "group "+b.Name+" options"); err != nil {
		return nil, err
	}
	if g.PluginOpts, err = toMap(b.PluginOpts, "group "+b.Name+" plugin_opts"); err != nil {
		return nil, err
	}
	return g, nil
}

func translateProcess(b *processBlock) (*pipeline.Process, error) {
	proc := &pipeline.Process{
		Name:            b.Name,
		Input:           b.Input,
		Output:          b.Output,
		Cache:           b.Cache,
		DirSig:          b.DirSig,
		Lang:            b.Lang,
		ErrorStrategy:   b.ErrorStrategy,
		NumRetries:      b.NumRetries,
		Forks:           b.Forks,
		SubmissionBatch: b.SubmissionBatch,
		Scheduler:       b.Scheduler,
		Order:           b.Order,
		Export:          b.Export,
	}
	if b.Doc != nil {
		proc.Doc = *b.Doc
	}
	if b.EnvsDepth != nil {
		proc.EnvsDepth = *b.EnvsDepth
	}

	what := "process " + b.Name
	var err error
	if proc.Envs, err = toMap(b.Envs, what+" envs"); err != nil {
		return nil, err
	}
	if proc.SchedulerOpts, err = toMap(b.SchedulerOpts, what+" scheduler_opts"); err != nil {
		return nil, err
	}
	if proc.PluginOpts, err = toMap(b.PluginOpts, what+" plugin_opts"); err != nil {
		return nil, err
	}
	if proc.InputData, err = translateInputData(b, what); err != nil {
		return nil, err
	}
	return proc, nil
}

// translateInputData reads input_data as a list of rows, each row an object
// keyed by input name.
func translateInputData(b *processBlock, what string) (*pipeline.InputTable, error) {
	native, err := ToNative(b.InputData)
	if err != nil {
		return nil, fmt.Errorf("%s input_data: %w", what, err)
	}
	if native == nil {
		return nil, nil
	}
	rows, ok := native.([]any)
	if !ok {
		return nil, fmt.Errorf("%s input_data: expected a list of objects", what)
	}

	var columns []string
	for _, f := range (&pipeline.Process{Input: b.Input}).InputFields() {
		columns = append(columns, f.Name)
	}
	table := &pipeline.InputTable{Columns: columns}
	for i, r := range rows {
		obj, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s input_data row %d: expected an object", what, i)
		}
		row := make([]any, len(columns))
		for j, c := range columns {
			row[j] = obj[c]
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}
