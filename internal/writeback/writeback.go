// Package writeback copies resolved arguments onto the pipeline's processes
// and groups.
package writeback

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vk/pipeargs/internal/dictutil"
	"github.com/vk/pipeargs/internal/pipeline"
	"github.com/vk/pipeargs/internal/resolve"
)

// ErrInputShape is returned when input columns have incompatible lengths.
var ErrInputShape = errors.New("input columns have different lengths")

// scalarAttrs are the control attributes set on a process when resolved.
var scalarAttrs = []string{
	"cache", "dirsig", "lang", "error_strategy", "num_retries", "forks",
	"scheduler", "submission_batch", "order",
}

// Apply writes cfg onto p. It returns warnings about values it ignored.
func Apply(cfg *resolve.Config, p *pipeline.Pipeline) ([]string, error) {
	var warnings []string
	for _, proc := range p.Processes() {
		args, ok := cfg.Procs[proc.Name]
		if !ok {
			continue
		}
		warn, err := applyProcess(proc, args)
		if err != nil {
			return warnings, fmt.Errorf("process %s: %w", proc.Name, err)
		}
		if warn != "" {
			warnings = append(warnings, warn)
		}
	}
	for _, g := range p.Groups() {
		if opts, ok := cfg.Groups[g.Name]; ok {
			g.Options = dictutil.Copy(opts)
		}
	}
	return warnings, nil
}

func applyProcess(proc *pipeline.Process, args map[string]any) (string, error) {
	var warning string
	if in, ok := args["in"].(map[string]any); ok && !allNil(in) {
		if proc.InputData != nil {
			warning = fmt.Sprintf("[%s] `input_data` is given, ignore input from cli arguments", proc.Name)
		} else {
			table, err := InputTable(proc, in)
			if err != nil {
				return "", err
			}
			if table.Len() > 0 {
				proc.InputData = table
			}
		}
	}

	if envs, ok := args["envs"].(map[string]any); ok && proc.Envs != nil {
		depth := proc.EnvsDepth
		if depth == 0 {
			depth = 1
		}
		proc.Envs = dictutil.Merge(proc.Envs, envs, depth)
	}

	for _, key := range scalarAttrs {
		if v := args[key]; v != nil {
			if err := proc.SetAttr(key, v); err != nil {
				return "", err
			}
		}
	}
	if v, ok := args["export"]; ok && v != nil {
		if err := proc.SetAttr("export", v); err != nil {
			return "", err
		}
	}

	if m, _ := dictutil.AsMap(args["plugin_opts"]); len(m) > 0 {
		proc.PluginOpts = dictutil.Merge(proc.PluginOpts, m, 1)
	}
	if m, _ := dictutil.AsMap(args["scheduler_opts"]); len(m) > 0 {
		proc.SchedulerOpts = dictutil.Merge(proc.SchedulerOpts, m, 1)
	}
	return warning, nil
}

func allNil(m map[string]any) bool {
	for _, v := range m {
		if v != nil {
			return false
		}
	}
	return true
}

// InputTable builds a process's input data from per-field values. Scalars
// count as one-element columns, and one-element columns are repeated to the
// length of the longest one. Fields without values are left out.
func InputTable(proc *pipeline.Process, in map[string]any) (*pipeline.InputTable, error) {
	columns := make(map[string][]any, len(in))
	maxLen := 0
	for name, v := range in {
		var col []any
		switch x := dictutil.Normalize(v).(type) {
		case nil:
			continue
		case []any:
			col = x
		default:
			col = []any{x}
		}
		if len(col) == 0 {
			continue
		}
		columns[name] = col
		if len(col) > maxLen {
			maxLen = len(col)
		}
	}

	table := &pipeline.InputTable{}
	for _, name := range fieldOrder(proc, columns) {
		col := columns[name]
		switch {
		case len(col) == maxLen:
		case len(col) == 1:
			col = repeat(col[0], maxLen)
		default:
			return nil, fmt.Errorf("%w: %s has %d values, expected 1 or %d", ErrInputShape, name, len(col), maxLen)
		}
		table.Columns = append(table.Columns, name)
		if table.Rows == nil {
			table.Rows = make([][]any, maxLen)
		}
		for i, v := range col {
			table.Rows[i] = append(table.Rows[i], v)
		}
	}
	return table, nil
}

func repeat(v any, n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = dictutil.CopyValue(v)
	}
	return out
}

// fieldOrder lists the given columns in declaration order, then any others
// sorted by name.
func fieldOrder(proc *pipeline.Process, columns map[string][]any) []string {
	var out []string
	seen := make(map[string]bool, len(columns))
	for _, f := range proc.InputFields() {
		if _, ok := columns[f.Name]; ok && !seen[f.Name] {
			out = append(out, f.Name)
			seen[f.Name] = true
		}
	}
	var rest []string
	for name := range columns {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
