// Package resolve reconciles parsed arguments with profile files and values
// fixed in code.
//
// Precedence, highest first: values fixed on the pipeline in code, values
// given on the command line or in argument files, the selected profile, and
// the compiled-in defaults. A command-line value that loses to a fixed value
// is dropped with a warning; it is never an error.
package resolve

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vk/pipeargs/internal/argparse"
	"github.com/vk/pipeargs/internal/ctxlog"
	"github.com/vk/pipeargs/internal/dictutil"
	"github.com/vk/pipeargs/internal/fsutil"
	"github.com/vk/pipeargs/internal/nodeid"
	"github.com/vk/pipeargs/internal/pipeline"
	"github.com/vk/pipeargs/internal/profile"
	"github.com/vk/pipeargs/internal/schema"
)

// ReservedOptions are the plugin options that shape the schema itself. They
// cannot be set from the command line.
var ReservedOptions = []string{"args_flatten", "args_group", "args_hide"}

// scalarKeys are the pipeline settings resolved value by value.
var scalarKeys = []string{
	"loglevel", "cache", "dirsig", "lang", "error_strategy", "num_retries",
	"forks", "submission_batch", "scheduler", "plugins",
}

// dictKeys are the pipeline settings merged key by key.
var dictKeys = []string{"plugin_opts", "template_opts", "scheduler_opts"}

// Options configures Resolve.
type Options struct {
	// Loader reads profile files. Profiles are skipped when nil.
	Loader profile.Loader
	// ConfigPaths is the profile search path; profile.DefaultPaths when nil.
	ConfigPaths []string
}

type resolver struct {
	ns   *argparse.Namespace
	p    *pipeline.Pipeline
	sch  *schema.Schema
	tree map[string]any
	res  *Result
}

func split(dest string) []string {
	if dest == "" {
		return nil
	}
	return strings.Split(dest, ".")
}

func (r *resolver) warnf(format string, args ...any) {
	r.res.Warnings = append(r.res.Warnings, fmt.Sprintf(format, args...))
}

func (r *resolver) higherPriority(key string) {
	r.warnf("`%s` is given by a higher priority, ignore the value from cli arguments", key)
}

// cli returns the value given on the command line for a top-level key.
func (r *resolver) cli(key string) (any, bool) {
	if !r.ns.Explicit(key) {
		return nil, false
	}
	v, ok := r.tree[key]
	return v, ok
}

// Resolve computes the final configuration of p from the parsed namespace.
// It creates the pipeline's working directory.
func Resolve(ctx context.Context, ns *argparse.Namespace, p *pipeline.Pipeline, sch *schema.Schema, opts Options) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	r := &resolver{
		ns:   ns,
		p:    p,
		sch:  sch,
		tree: ns.Tree(),
		res:  &Result{},
	}
	cfg := &Config{
		Flatten:  sch.Flatten,
		Pipeline: dictutil.Copy(p.Config),
		Procs:    make(map[string]map[string]any),
		Groups:   make(map[string]map[string]any),
		Extra:    ns.Extras(),
	}
	r.res.Config = cfg

	r.dropReserved()

	cfg.Profile = r.resolveProfile()
	var prof map[string]any
	if opts.Loader != nil {
		paths := opts.ConfigPaths
		if paths == nil {
			paths = profile.DefaultPaths()
		}
		var err error
		prof, err = opts.Loader.Load(ctx, cfg.Profile, paths...)
		if err != nil {
			return nil, fmt.Errorf("loading profile %q: %w", cfg.Profile, err)
		}
		logger.Debug("Profile loaded.", "profile", cfg.Profile, "keys", len(prof))
	}
	r.tree["profile"] = cfg.Profile

	for _, key := range scalarKeys {
		cfg.Pipeline[key] = r.resolveScalar(key, prof)
		r.tree[key] = cfg.Pipeline[key]
	}
	if err := r.resolveDirs(cfg, prof); err != nil {
		return nil, err
	}
	for _, key := range dictKeys {
		cfg.Pipeline[key] = r.resolveDict(key, prof)
		r.tree[key] = dictutil.Copy(cfg.Pipeline[key].(map[string]any))
	}

	if err := pipeline.SettingsFromConfig(cfg.Name, cfg.Pipeline).Validate(); err != nil {
		return nil, err
	}

	for _, proc := range p.Processes() {
		cfg.Procs[proc.Name] = r.procTree(proc)
	}
	for _, g := range p.Groups() {
		cfg.Groups[g.Name] = r.groupOptions(g)
	}

	cfg.tree = r.tree
	logger.Debug("Arguments resolved.", "warnings", len(r.res.Warnings), "processes", len(cfg.Procs))
	return r.res, nil
}

// dropReserved removes schema wiring options given on the command line.
func (r *resolver) dropReserved() {
	for _, f := range r.sch.Flags() {
		if f.Dest.Last() != "plugin_opts" || !r.ns.Explicit(f.Name()) {
			continue
		}
		v, _ := dictutil.Get(r.tree, f.Dest.Path)
		opts, ok := v.(map[string]any)
		if !ok {
			continue
		}
		def, _ := dictutil.AsMap(f.Default)
		for _, key := range ReservedOptions {
			given, ok := opts[key]
			if !ok {
				continue
			}
			if !dictutil.Equal(given, def[key]) {
				r.warnf("`plugin_opts.%s` should not be passed via command line or config file via `@configfile`", key)
			}
			if d, ok := def[key]; ok {
				opts[key] = d
			} else {
				delete(opts, key)
			}
		}
	}
}

// resolveProfile picks the profile: one set in code wins over the command line.
func (r *resolver) resolveProfile() string {
	given, hasCLI := r.cli("profile")
	cliProfile, _ := dictutil.AsString(given)
	current := r.p.Profile
	if current == "" {
		current = profile.DefaultProfile
	}

	rec := Record{Key: "profile", Winner: TierDefault, CLIValue: given, FinalValue: current}
	defer func() { r.res.Records = append(r.res.Records, rec) }()

	if current != profile.DefaultProfile || r.p.IsFixed("profile") {
		rec.Winner = TierFixed
		if hasCLI && cliProfile != current {
			r.higherPriority("profile")
		}
		return current
	}
	if hasCLI && cliProfile != "" {
		rec.Winner = TierCLI
		rec.FinalValue = cliProfile
		return cliProfile
	}
	return current
}

func (r *resolver) resolveScalar(key string, prof map[string]any) any {
	rec := Record{Key: key, Winner: TierDefault, FinalValue: r.p.Config[key]}
	if v, ok := r.tree[key]; ok {
		rec.FinalValue = v
	}
	if v, ok := prof[key]; ok {
		rec.Winner, rec.FinalValue = TierProfile, v
	}
	given, hasCLI := r.cli(key)
	if hasCLI {
		rec.CLIValue = given
		rec.Winner, rec.FinalValue = TierCLI, given
	}
	if fixed, ok := r.p.Fixed[key]; ok {
		if hasCLI && !dictutil.Equal(given, fixed) {
			r.higherPriority(key)
		}
		rec.Winner, rec.FinalValue = TierFixed, fixed
	}
	r.res.Records = append(r.res.Records, rec)
	return dictutil.CopyValue(dictutil.Normalize(rec.FinalValue))
}

// resolveDirs settles the name and the directories derived from it.
func (r *resolver) resolveDirs(cfg *Config, prof map[string]any) error {
	cfg.Name = r.p.Name
	nameRec := Record{Key: "name", Winner: TierDefault, FinalValue: r.p.Name}
	if given, ok := r.cli("name"); ok {
		nameRec.CLIValue = given
		name, _ := dictutil.AsString(given)
		switch {
		case r.p.IsFixed("name"):
			nameRec.Winner = TierFixed
			if name != r.p.Name {
				r.higherPriority("name")
			}
		case name != "":
			cfg.Name = name
			nameRec.Winner, nameRec.FinalValue = TierCLI, name
		}
	}
	r.res.Records = append(r.res.Records, nameRec)
	r.tree["name"] = cfg.Name

	outRec := Record{Key: "outdir", Winner: TierDefault}
	givenOut, hasOut := r.cli("outdir")
	outRec.CLIValue = givenOut
	switch {
	case r.p.IsFixed("outdir") || r.p.Outdir != "":
		outRec.Winner = TierFixed
		cfg.Outdir = absPath(r.p.Outdir)
		if hasOut && absPath(fmt.Sprint(givenOut)) != cfg.Outdir {
			r.warnf("Pipeline `outdir` is given by a higher priority, ignore the value from cli arguments")
		}
	case hasOut && givenOut != nil:
		outRec.Winner = TierCLI
		cfg.Outdir = absPath(fmt.Sprint(givenOut))
	default:
		cfg.Outdir = absPath("./" + cfg.Name + "-output")
	}
	outRec.FinalValue = cfg.Outdir
	r.res.Records = append(r.res.Records, outRec)
	r.tree["outdir"] = cfg.Outdir

	// The workdir option names the root; a fixed workdir is the full path.
	rootRec := Record{Key: "workdir", Winner: TierDefault, FinalValue: r.p.Config["workdir"]}
	if v, ok := prof["workdir"]; ok {
		rootRec.Winner, rootRec.FinalValue = TierProfile, v
	}
	givenWork, hasWork := r.cli("workdir")
	rootRec.CLIValue = givenWork
	if hasWork && givenWork != nil {
		rootRec.Winner, rootRec.FinalValue = TierCLI, givenWork
	}
	root, _ := dictutil.AsString(rootRec.FinalValue)
	cfg.Pipeline["workdir"] = absPath(root)

	if r.p.IsFixed("workdir") || r.p.Workdir != "" {
		cfg.Workdir = absPath(r.p.Workdir)
		rootRec.Winner = TierFixed
		if hasWork && givenWork != nil && absPath(fmt.Sprint(givenWork)) != cfg.Workdir {
			r.warnf("Pipeline `workdir` is given by a higher priority, ignore the value from cli arguments")
		}
	} else {
		cfg.Workdir = filepath.Join(absPath(root), cfg.Name)
	}
	rootRec.FinalValue = cfg.Workdir
	r.res.Records = append(r.res.Records, rootRec)
	r.tree["workdir"] = cfg.Pipeline["workdir"]

	return fsutil.EnsureDir(cfg.Workdir)
}

func absPath(p string) string {
	abs, err := filepath.Abs(fsutil.ExpandHome(p))
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}

// resolveDict merges a dict setting: default, profile, command line, then
// the keys fixed in code.
func (r *resolver) resolveDict(key string, prof map[string]any) map[string]any {
	base, _ := dictutil.AsMap(r.p.Config[key])
	out := dictutil.Copy(base)
	def := base
	if f, ok := r.sch.Lookup(key); ok {
		if m, ok := dictutil.AsMap(f.Default); ok && len(m) > 0 {
			def = m
		}
	}
	rec := Record{Key: key, Winner: TierDefault}

	if v, ok := prof[key]; ok {
		if m, ok := dictutil.AsMap(v); ok {
			out = dictutil.Merge(out, m, 1)
			rec.Winner = TierProfile
		}
	}
	var given map[string]any
	if v, ok := r.cli(key); ok {
		given, _ = dictutil.AsMap(v)
		out = dictutil.Merge(out, given, 1)
		rec.Winner, rec.CLIValue = TierCLI, given
	}
	fixed, _ := dictutil.AsMap(r.p.Fixed[key])
	for _, k := range dictutil.Keys(fixed) {
		v := fixed[k]
		if cv, ok := given[k]; ok && !dictutil.Equal(cv, def[k]) && !dictutil.Equal(cv, v) {
			r.higherPriority(key + "." + k)
		}
		out[k] = dictutil.CopyValue(v)
		rec.Winner = TierFixed
	}
	rec.FinalValue = out
	r.res.Records = append(r.res.Records, rec)
	return out
}

// procKeys are the keys of a process's option tree used after resolution.
var procKeys = append([]string{"in", "envs", "export"}, schema.ProcessArgNames()...)

func (r *resolver) procTree(proc *pipeline.Process) map[string]any {
	prefix := schema.Prefix(proc, r.sch.Flatten)
	sub := r.tree
	if !prefix.IsRoot() {
		v, _ := dictutil.Get(r.tree, prefix.Path)
		sub, _ = v.(map[string]any)
	}
	out := make(map[string]any)
	for _, k := range procKeys {
		if v, ok := sub[k]; ok {
			out[k] = dictutil.CopyValue(v)
		}
	}
	if prefix.IsRoot() {
		r.keepOwnAttrs(proc, out)
	}
	return out
}

// keepOwnAttrs restores the control attributes a flattened process sets in
// code. The shared top-level options carry profile and fixed pipeline values,
// which rank below the process's own settings; only the command line
// overrides them, as it does for a nested process.
func (r *resolver) keepOwnAttrs(proc *pipeline.Process, out map[string]any) {
	for _, k := range schema.ProcessArgNames() {
		own, ok := proc.Attr(k)
		if !ok || r.ns.Explicit(k) {
			continue
		}
		if _, isMap := own.(map[string]any); isMap {
			continue
		}
		if _, ok := out[k]; !ok || dictutil.Equal(out[k], own) {
			continue
		}
		r.res.Records = append(r.res.Records, Record{
			Key:        proc.Name + "." + k,
			Winner:     TierDefault,
			FinalValue: own,
		})
		out[k] = dictutil.CopyValue(own)
	}
}

// groupOptions resolves a group's options: declared defaults, values given
// on the command line, then options set in code.
func (r *resolver) groupOptions(g *pipeline.Group) map[string]any {
	out := dictutil.Copy(g.Defaults)
	if out == nil {
		out = make(map[string]any)
	}
	for _, f := range r.sch.Children(nodeid.New(g.Name)) {
		if f.Section == nil || f.Section.Kind != schema.SectionGroup {
			continue
		}
		key := f.Dest.Last()
		if !r.ns.Touched(f.Name()) {
			continue
		}
		given, _ := dictutil.Get(r.tree, f.Dest.Path)
		if fixed, ok := g.Options[key]; ok && !dictutil.Equal(fixed, given) {
			r.higherPriority(f.Name())
			continue
		}
		out[key] = dictutil.CopyValue(given)
	}
	for k, v := range g.Options {
		out[k] = dictutil.CopyValue(v)
	}
	if sub, ok := r.tree[g.Name].(map[string]any); ok {
		r.tree[g.Name] = dictutil.Merge(sub, out, 1)
	}
	return out
}
