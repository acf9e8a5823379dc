package schema

import (
	"fmt"
	"strings"

	"github.com/vk/pipeargs/internal/annotate"
	"github.com/vk/pipeargs/internal/dictutil"
	"github.com/vk/pipeargs/internal/nodeid"
	"github.com/vk/pipeargs/internal/pipeline"
)

// DefaultGroupTitle is the title of the pipeline options section.
const DefaultGroupTitle = "Pipeline options"

const (
	configFileNote = "Use `@configfile` to load default values for the options."
	otherHelp      = "Other process options (cache, forks, scheduler, ...) are shown with -h+ / --help+"
	processLevel   = "(process level) "
)

// FlattenMode controls whether a single process's options are lifted to the
// top level.
type FlattenMode int

const (
	// FlattenDefault reads the mode from the pipeline's args_flatten plugin
	// option, falling back to FlattenAuto.
	FlattenDefault FlattenMode = iota
	// FlattenAuto flattens when there is exactly one process outside any group.
	FlattenAuto
	FlattenOn
	FlattenOff
)

// ParseFlattenMode converts an args_flatten value: true, false or "auto".
func ParseFlattenMode(v any) (FlattenMode, error) {
	switch x := v.(type) {
	case nil:
		return FlattenAuto, nil
	case bool:
		if x {
			return FlattenOn, nil
		}
		return FlattenOff, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "", "auto":
			return FlattenAuto, nil
		case "true":
			return FlattenOn, nil
		case "false":
			return FlattenOff, nil
		}
	}
	return FlattenDefault, fmt.Errorf("invalid args_flatten value %v: want true, false or \"auto\"", v)
}

// BuildOptions tunes schema generation.
type BuildOptions struct {
	Flatten FlattenMode
	// GroupTitle overrides the title of the pipeline options section.
	GroupTitle string
}

// Prefix returns the destination prefix of a process's options.
func Prefix(proc *pipeline.Process, flatten bool) nodeid.Address {
	switch {
	case flatten:
		return nodeid.Address{}
	case proc.Group != nil:
		return nodeid.New(proc.Group.Name, proc.Name)
	default:
		return nodeid.New(proc.Name)
	}
}

type builder struct {
	p       *pipeline.Pipeline
	s       *Schema
	flatten bool
}

// Build generates the option schema of p. It wires p's process relationships
// first, so p must be complete.
func Build(p *pipeline.Pipeline, opts BuildOptions) (*Schema, error) {
	if err := p.Build(); err != nil {
		return nil, fmt.Errorf("building process relationships: %w", err)
	}

	pluginOpts, _ := dictutil.AsMap(p.Value("plugin_opts"))
	mode := opts.Flatten
	if mode == FlattenDefault {
		m, err := ParseFlattenMode(pluginOpts["args_flatten"])
		if err != nil {
			return nil, err
		}
		mode = m
	}

	procs := p.Processes()
	b := &builder{p: p, s: New()}
	switch mode {
	case FlattenOn:
		if len(procs) > 1 {
			return nil, fmt.Errorf("%w: %d processes", ErrFlattenMultiProcess, len(procs))
		}
		b.flatten = true
	case FlattenAuto:
		b.flatten = len(procs) == 1 && procs[0].Group == nil
	}
	b.s.Flatten = b.flatten

	title := opts.GroupTitle
	if title == "" {
		title, _ = pluginOpts["args_group"].(string)
	}
	if title == "" {
		title = DefaultGroupTitle
	}
	if err := b.addPipelineArgs(title); err != nil {
		return nil, err
	}

	order := 1
	seen := make(map[*pipeline.Group]bool)
	for _, proc := range procs {
		if g := proc.Group; g != nil && !seen[g] {
			seen[g] = true
			if err := b.addGroup(g, order); err != nil {
				return nil, err
			}
			order++
		}
		if err := b.addProcess(proc, order); err != nil {
			return nil, err
		}
		order++
	}

	desc := p.Desc
	if b.flatten {
		ann := annotate.ForProcess(procs[0])
		desc = strings.TrimSpace(ann.Summary.Short + "\n" + ann.Summary.Long)
	}
	b.s.Description = strings.TrimSpace(desc + "\n" + configFileNote)
	return b.s, nil
}

func (b *builder) addPipelineArgs(title string) error {
	sec := b.s.AddSection(&Section{Kind: SectionPipeline, Title: title, Order: -99})
	for _, spec := range pipelineArgs {
		f := &Flag{
			Dest:     nodeid.New(spec.name),
			Help:     spec.help,
			Kind:     spec.kind,
			Type:     spec.typ,
			Choices:  spec.choices,
			Hidden:   spec.hidden,
			Internal: spec.internal,
			Default:  b.pipelineDefault(spec.name),
			Section:  sec,
		}
		if err := b.s.Add(f); err != nil {
			return err
		}
	}
	return nil
}

// pipelineDefault is the current pipeline value of a pipeline-level option.
// In a flattened schema the sole process's own settings take precedence.
func (b *builder) pipelineDefault(name string) any {
	switch name {
	case "name":
		return b.p.Name
	case "profile":
		return b.p.Profile
	case "outdir":
		if b.p.Outdir == "" {
			return nil
		}
		return b.p.Outdir
	}

	v := dictutil.CopyValue(dictutil.Normalize(b.p.Value(name)))
	if !b.flatten {
		return v
	}
	proc := b.p.Processes()[0]
	switch name {
	case "scheduler_opts", "plugin_opts":
		base, _ := dictutil.AsMap(v)
		own, _ := proc.Attr(name)
		ownMap, _ := dictutil.AsMap(own)
		return dictutil.Merge(base, ownMap, 1)
	}
	if own, ok := proc.Attr(name); ok {
		return own
	}
	return v
}

// hidden tells whether a process's options are left out of basic help.
func hidden(proc *pipeline.Process) bool {
	if v, ok := proc.Option("args_hide"); ok {
		h, _ := dictutil.AsBool(v)
		return h
	}
	if proc.Group != nil {
		return proc.Group.Hidden()
	}
	return false
}

func (b *builder) addProcess(proc *pipeline.Process, order int) error {
	ann := annotate.ForProcess(proc)
	prefix := Prefix(proc, b.flatten)
	isStart := b.p.IsStart(proc)
	hide := hidden(proc) && !isStart

	sec := &Section{Kind: SectionProcess, Name: proc.Name, Order: order, Hidden: hide}
	switch {
	case b.flatten:
		sec.Title = "Process options"
	case proc.Group != nil:
		sec.Group = proc.Group.Name
		sec.Title = fmt.Sprintf("Process <%s/%s>", proc.Group.Name, proc.Name)
	default:
		sec.Title = fmt.Sprintf("Process <%s>", proc.Name)
	}
	b.s.AddSection(sec)

	if isStart {
		fields := proc.InputFields()
		for _, item := range ann.Input {
			f := b.itemFlag(prefix.Child("in").Child(item.Name), item, nil, KindList, sec, hide)
			for _, field := range fields {
				if field.Name == item.Name && field.IsMultiPath() && f.Kind == KindList {
					f.Append = true
				}
			}
			if err := b.s.Add(f); err != nil {
				return err
			}
		}
	}

	if proc.IsTerminal() {
		for _, item := range ann.Output {
			f := &Flag{
				Dest:     prefix.Child("out").Child(item.Name),
				Help:     item.Help,
				Kind:     KindScalar,
				Type:     "str",
				Default:  NotComputed,
				Hidden:   hide,
				Internal: true,
				Section:  sec,
			}
			if err := b.s.Add(f); err != nil {
				return err
			}
		}
	}

	if len(proc.Envs) > 0 {
		depth := proc.EnvsDepth
		if depth == 0 {
			depth = 1
		}
		envs, _ := dictutil.AsMap(proc.Envs)
		ns := &Flag{
			Dest:       prefix.Child("envs"),
			Help:       "Environment variables for the process",
			Kind:       KindNamespace,
			Type:       "json",
			Default:    dictutil.Copy(envs),
			Hidden:     hide,
			MergeDepth: depth,
			Section:    sec,
		}
		if err := b.s.Add(ns); err != nil {
			return err
		}
		if err := b.addTree(ns.Dest, ann.Envs, envs, sec, hide, depth); err != nil {
			return err
		}
	}

	if b.flatten {
		return nil
	}

	for _, name := range processArgNames {
		spec := lookupArg(name)
		def, _ := proc.Attr(name)
		if name == "order" && def == nil {
			def = 0
		}
		f := &Flag{
			Dest:     prefix.Child(name),
			Help:     spec.help,
			Kind:     spec.kind,
			Type:     spec.typ,
			Choices:  spec.choices,
			Hidden:   true,
			Internal: spec.internal,
			Default:  def,
			Section:  sec,
		}
		if IsPipelineArg(name) {
			f.Help = processLevel + f.Help
		}
		if err := b.s.Add(f); err != nil {
			return err
		}
	}
	return b.s.Add(&Flag{
		Dest:          prefix.Child("__other"),
		Help:          otherHelp,
		Type:          "str",
		Hidden:        hide,
		Informational: true,
		Section:       sec,
	})
}

func (b *builder) addGroup(g *pipeline.Group, order int) error {
	ann := annotate.ForGroup(g)
	if len(ann.Args) == 0 {
		return nil
	}
	hide := false
	if v, ok := g.PluginOpts["args_hide"].(bool); ok {
		hide = v
	}

	sec := b.s.AddSection(&Section{
		Kind:   SectionGroup,
		Name:   g.Name,
		Title:  fmt.Sprintf("Process Group <%s>", g.Name),
		Order:  order,
		Hidden: hide,
	})

	defaults, _ := dictutil.AsMap(g.Defaults)
	options, _ := dictutil.AsMap(g.Options)
	values := dictutil.Merge(defaults, options, 1)
	ns := &Flag{
		Dest:    nodeid.New(g.Name),
		Help:    "Process group options, as a JSON string",
		Kind:    KindNamespace,
		Type:    "json",
		Default: dictutil.Copy(values),
		Hidden:  hide,
		Section: sec,
	}
	if err := b.s.Add(ns); err != nil {
		return err
	}
	for _, item := range ann.Args {
		f := b.itemFlag(ns.Dest.Child(item.Name), item, values[item.Name], KindScalar, sec, hide)
		if err := b.s.Add(f); err != nil {
			return err
		}
		if f.Kind == KindNamespace {
			sub, _ := values[item.Name].(map[string]any)
			if err := b.addTree(f.Dest, annotate.Complete(item.Terms, sub), sub, sec, hide, 0); err != nil {
				return err
			}
		}
	}
	return nil
}

// addTree emits one option per key of values below parent, descending into
// namespace-valued keys.
func (b *builder) addTree(parent nodeid.Address, items annotate.Items, values map[string]any, sec *Section, hide bool, depth int) error {
	for _, item := range items {
		def, ok := values[item.Name]
		if !ok {
			continue
		}
		if err := nodeid.ValidateSegment(item.Name); err != nil {
			return fmt.Errorf("option %s: %w", parent.Flag(), err)
		}
		f := b.itemFlag(parent.Child(item.Name), item, def, KindScalar, sec, hide)
		if f.Kind == KindDict && depth > 1 {
			f.MergeDepth = depth - 1
		}
		if err := b.s.Add(f); err != nil {
			return err
		}
		if f.Kind != KindNamespace {
			continue
		}
		sub, _ := def.(map[string]any)
		if err := b.addTree(f.Dest, annotate.Complete(item.Terms, sub), sub, sec, hide, depth-1); err != nil {
			return err
		}
	}
	return nil
}

// itemFlag builds an option from a documented item and its default. The
// item's attributes win over what the default suggests.
func (b *builder) itemFlag(dest nodeid.Address, item annotate.Item, def any, base Kind, sec *Section, hide bool) *Flag {
	def = dictutil.Normalize(def)
	f := &Flag{
		Dest:    dest,
		Help:    item.Help,
		Kind:    base,
		Default: def,
		Hidden:  hide || item.Has("hidden"),
		Section: sec,
	}

	typ, hasType := item.Attr("type")
	switch {
	case item.Has("ns") || item.Has("namespace"):
		f.Kind = KindNamespace
	case item.Has("flag"):
		f.Kind = KindFlag
	case item.Has("list") || item.Has("array"):
		f.Kind = KindList
	default:
		switch def.(type) {
		case map[string]any:
			f.Kind = KindNamespace
			if typ == "json" {
				f.Kind = KindDict
			}
		case []any:
			f.Kind = KindList
		}
	}

	switch {
	case f.Kind == KindFlag:
		f.Type = "bool"
		if f.Default == nil {
			f.Default = false
		}
	case f.Kind == KindNamespace || f.Kind == KindDict:
		f.Type = "json"
	case hasType && KnownType(typ):
		f.Type = typ
	case def != nil:
		f.Type = inferType(def)
	default:
		f.Type = "str"
	}

	if raw, ok := item.Attr("choices"); ok && f.Kind != KindNamespace {
		if raw == "" || raw == "true" {
			f.Choices = item.Terms.Names()
		} else {
			for _, c := range strings.Split(raw, ",") {
				f.Choices = append(f.Choices, strings.TrimSpace(c))
			}
		}
	}

	if raw, ok := item.Attr("default"); ok && f.Default == nil {
		f.Default = raw
		if v, err := f.Coerce(raw); err == nil {
			f.Default = v
		}
	}
	f.Required = item.Has("required") && f.Default == nil
	return f
}

// GroupSchema builds the options of a single process group, for parsing
// them before the pipeline schema exists.
func GroupSchema(g *pipeline.Group) (*Schema, error) {
	b := &builder{s: New()}
	if err := b.addGroup(g, 0); err != nil {
		return nil, err
	}
	return b.s, nil
}
