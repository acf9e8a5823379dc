// Package dump renders resolved arguments as a TOML argument file.
//
// The file can be passed back with @<path> to reproduce a run. Options are
// preceded by their help text as comments, options without a value are
// written commented out, and each process group and process gets a banner.
package dump

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/vk/pipeargs/internal/dictutil"
	"github.com/vk/pipeargs/internal/nodeid"
	"github.com/vk/pipeargs/internal/pipeline"
	"github.com/vk/pipeargs/internal/resolve"
	"github.com/vk/pipeargs/internal/schema"
)

// FileName is the name of the argument file written to the output directory.
const FileName = "args.toml"

// bannerWidth is the inner width of section banners.
const bannerWidth = 76

// Enabled reports whether the resolved plugin options ask for a dump.
func Enabled(cfg *resolve.Config) bool {
	v, _ := cfg.Value("plugin_opts.args_dump")
	on, _ := dictutil.AsBool(v)
	return on
}

// Path returns where the argument file of cfg is written.
func Path(cfg *resolve.Config) string {
	return filepath.Join(cfg.Outdir, FileName)
}

// Write renders the arguments and writes them to path, creating parent
// directories as needed.
func Write(path string, cfg *resolve.Config, sch *schema.Schema, p *pipeline.Pipeline) error {
	out, err := Render(cfg, sch, p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("writing arguments to %s: %w", path, err)
	}
	return nil
}

// Render returns the argument file for cfg.
func Render(cfg *resolve.Config, sch *schema.Schema, p *pipeline.Pipeline) (string, error) {
	w := newWriter(sch, p)
	lines, err := w.table(nodeid.Address{}, cfg.Tree())
	if err != nil {
		return "", err
	}
	return strings.Join(lines, ""), nil
}

type class int

const (
	classScalar class = iota
	classDict
	classNamespace
	classGroup
	classProcess
)

type entry struct {
	key   string
	dest  nodeid.Address
	value any
	flag  *schema.Flag
	class class
	order int
}

type writer struct {
	sch *schema.Schema
	// order ranks a destination by the first option registered at or below it.
	order  map[string]int
	procs  map[string]bool
	groups map[string]bool
}

func newWriter(sch *schema.Schema, p *pipeline.Pipeline) *writer {
	w := &writer{
		sch:    sch,
		order:  make(map[string]int),
		procs:  make(map[string]bool),
		groups: make(map[string]bool),
	}
	for i, f := range sch.Flags() {
		for _, a := range append(f.Dest.Ancestors(), f.Dest) {
			if _, ok := w.order[a.String()]; !ok {
				w.order[a.String()] = i
			}
		}
	}
	if !sch.Flatten {
		for _, proc := range p.Processes() {
			w.procs[schema.Prefix(proc, false).String()] = true
		}
		for _, g := range p.Groups() {
			w.groups[g.Name] = true
		}
	}
	return w
}

func (w *writer) classify(base nodeid.Address, m map[string]any) []entry {
	entries := make([]entry, 0, len(m))
	for key, v := range m {
		dest := base.Child(key)
		f, isFlag := w.sch.Lookup(dest.String())
		if isFlag && (f.Internal || f.Informational) {
			continue
		}
		e := entry{key: key, dest: dest, value: v, flag: f, order: len(w.order)}
		if o, ok := w.order[dest.String()]; ok {
			e.order = o
		}
		_, isMap := v.(map[string]any)
		switch {
		case w.procs[dest.String()]:
			e.class = classProcess
		case w.groups[dest.String()]:
			e.class = classGroup
		case !isMap:
			e.class = classScalar
		case isFlag && f.Kind == schema.KindDict:
			e.class = classDict
		case isFlag || w.sch.IsPrefix(dest.String()):
			e.class = classNamespace
		default:
			e.class = classDict
		}
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.class != b.class {
			return a.class < b.class
		}
		if a.order != b.order {
			return a.order < b.order
		}
		return a.key < b.key
	})
	return entries
}

// table renders the contents of the table at base. Its header, if any, is
// written by the caller.
func (w *writer) table(base nodeid.Address, m map[string]any) ([]string, error) {
	var lines []string
	for _, e := range w.classify(base, m) {
		switch e.class {
		case classScalar:
			lines = append(lines, w.comment(e.flag)...)
			kv, err := keyValue(e.key, e.value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", e.dest, err)
			}
			lines = append(lines, kv, "\n")

		case classDict:
			value, _ := dictutil.AsMap(e.value)
			if e.flag != nil && e.flag.MergeDepth > 0 {
				def, _ := dictutil.AsMap(e.flag.Default)
				value = dictutil.Merge(def, value, e.flag.MergeDepth)
			}
			lines = append(lines, w.comment(e.flag)...)
			lines = append(lines, header(e.dest))
			for _, k := range dictutil.Keys(value) {
				kv, err := keyValue(k, value[k])
				if err != nil {
					return nil, fmt.Errorf("%s.%s: %w", e.dest, k, err)
				}
				lines = append(lines, kv)
			}
			lines = append(lines, "\n")

		default:
			sub, _ := e.value.(map[string]any)
			body, err := w.table(e.dest, sub)
			if err != nil {
				return nil, err
			}
			if len(body) == 0 && e.flag == nil && e.class == classNamespace {
				continue
			}
			switch e.class {
			case classGroup:
				lines = append(lines, banner("Arguments for process group: "+e.key)...)
			case classProcess:
				lines = append(lines, banner("Arguments for process: "+strings.Join(e.dest.Path, "/"))...)
			}
			lines = append(lines, w.comment(e.flag)...)
			lines = append(lines, header(e.dest))
			if len(body) == 0 {
				lines = append(lines, "\n")
			}
			lines = append(lines, body...)
		}
	}
	return lines, nil
}

func (w *writer) comment(f *schema.Flag) []string {
	if f == nil || strings.TrimSpace(f.Help) == "" {
		return nil
	}
	var out []string
	for _, line := range strings.Split(strings.TrimRight(f.Help, "\n"), "\n") {
		out = append(out, strings.TrimRight("# "+line, " ")+"\n")
	}
	return out
}

// keyValue encodes one key and value as a TOML line, tables inline. Null
// values are written commented out.
func keyValue(key string, v any) (string, error) {
	if v == nil {
		return "## " + quoteKey(key) + " =\n", nil
	}
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf).SetTablesInline(true).SetArraysMultiline(false)
	if err := enc.Encode(map[string]any{key: dropNulls(v)}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// dropNulls removes null table entries, which TOML cannot represent.
func dropNulls(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			if e != nil {
				out[k] = dropNulls(e)
			}
		}
		return out
	case []any:
		out := make([]any, 0, len(x))
		for _, e := range x {
			if e != nil {
				out = append(out, dropNulls(e))
			}
		}
		return out
	}
	return v
}

var bareKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func quoteKey(k string) string {
	if bareKey.MatchString(k) {
		return k
	}
	return strconv.Quote(k)
}

func header(dest nodeid.Address) string {
	parts := make([]string, len(dest.Path))
	for i, seg := range dest.Path {
		parts[i] = quoteKey(seg)
	}
	return "[" + strings.Join(parts, ".") + "]\n"
}

func banner(title string) []string {
	rule := "# +" + strings.Repeat("-", bannerWidth) + "+\n"
	if len(title) > bannerWidth-2 {
		title = title[:bannerWidth-2]
	}
	return []string{
		rule,
		fmt.Sprintf("# | %-*s|\n", bannerWidth-1, title),
		rule,
	}
}
