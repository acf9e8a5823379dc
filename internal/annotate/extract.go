package annotate

import (
	"sort"

	"github.com/vk/pipeargs/internal/pipeline"
)

// Extract parses doc into an Annotation. It never fails: malformed
// documentation yields an empty Annotation.
func Extract(doc string) Annotation {
	secs, err := ParseSections(doc)
	if err != nil {
		return Annotation{}
	}
	a := Annotation{Summary: secs.Summary}
	if s, ok := secs.Get("Input"); ok {
		a.Input = s.Items
	}
	if s, ok := secs.Get("Output"); ok {
		a.Output = s.Items
	}
	if s, ok := secs.Get("Envs"); ok {
		a.Envs = s.Items
	}
	if s, ok := secs.Get("Args"); ok {
		a.Args = s.Items
	}
	return a
}

// ForProcess extracts the annotation of p and completes it with every
// declared input, output and environment variable, in declaration order.
// Declared entries without documentation get Undescribed as help.
func ForProcess(p *pipeline.Process) Annotation {
	a := Extract(p.Doc)

	inputs := make([]string, 0, len(p.Input))
	for _, f := range p.InputFields() {
		inputs = append(inputs, f.Name)
	}
	outputs := make([]string, 0, len(p.Output))
	for _, f := range p.OutputFields() {
		outputs = append(outputs, f.Name)
	}

	a.Input = complete(a.Input, inputs, false)
	a.Output = complete(a.Output, outputs, false)
	a.Envs = complete(a.Envs, sortedKeys(p.Envs), true)
	return a
}

// ForGroup extracts the annotation of g, completed with the declared defaults.
func ForGroup(g *pipeline.Group) Annotation {
	a := Extract(g.Doc)
	keys := sortedKeys(g.Defaults)
	for _, it := range a.Args {
		if _, ok := g.Defaults[it.Name]; !ok {
			keys = append(keys, it.Name)
		}
	}
	a.Args = complete(a.Args, keys, true)
	return a
}

// complete returns one item per declared name. When docOrder is set,
// documented names come first in documentation order.
func complete(documented Items, declared []string, docOrder bool) Items {
	want := make(map[string]bool, len(declared))
	for _, n := range declared {
		want[n] = true
	}

	out := make(Items, 0, len(declared))
	seen := make(map[string]bool, len(declared))
	add := func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		it, ok := documented.Get(name)
		if !ok {
			it = Item{Name: name}
		}
		if it.Help == "" {
			it.Help = Undescribed
		}
		out = append(out, it)
	}

	if docOrder {
		for _, it := range documented {
			if want[it.Name] {
				add(it.Name)
			}
		}
	}
	for _, n := range declared {
		add(n)
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Complete returns one item per key of values: documented terms first, in
// documentation order, then the remaining keys sorted.
func Complete(documented Items, values map[string]any) Items {
	return complete(documented, sortedKeys(values), true)
}
