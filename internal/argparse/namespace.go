package argparse

import (
	"strings"

	"github.com/vk/pipeargs/internal/dictutil"
	"github.com/vk/pipeargs/internal/schema"
)

// Namespace holds the parsed values as a tree keyed by destination segments,
// together with the set of destinations the user supplied.
type Namespace struct {
	tree     map[string]any
	explicit map[string]bool
	touched  map[string]bool
	extras   map[string]any
}

func newNamespace() *Namespace {
	return &Namespace{
		tree:     make(map[string]any),
		explicit: make(map[string]bool),
		touched:  make(map[string]bool),
		extras:   make(map[string]any),
	}
}

// NewNamespace returns a namespace holding the defaults of s.
func NewNamespace(s *schema.Schema) (*Namespace, error) {
	ns := newNamespace()
	for _, f := range s.Flags() {
		if f.Informational {
			continue
		}
		if err := dictutil.Set(ns.tree, f.Dest.Path, dictutil.CopyValue(f.Default)); err != nil {
			return nil, err
		}
	}
	return ns, nil
}

func split(dest string) []string {
	if dest == "" {
		return nil
	}
	return strings.Split(dest, ".")
}

// Get returns the value at a dotted destination. The empty destination is
// the whole tree.
func (n *Namespace) Get(dest string) (any, bool) {
	if dest == "" {
		return n.tree, true
	}
	return dictutil.Get(n.tree, split(dest))
}

// Sub returns the table at dest, or nil when dest is not a table.
func (n *Namespace) Sub(dest string) map[string]any {
	v, _ := n.Get(dest)
	m, _ := v.(map[string]any)
	return m
}

// Explicit reports whether dest was given on the command line or in an
// argument file, directly or as a key of a namespace value.
func (n *Namespace) Explicit(dest string) bool {
	return n.explicit[dest]
}

// Touched reports whether dest or anything below it was supplied.
func (n *Namespace) Touched(dest string) bool {
	return n.touched[dest]
}

// Tree returns a copy of the whole value tree.
func (n *Namespace) Tree() map[string]any {
	return dictutil.Copy(n.tree)
}

// Set stores v at dest and marks it as supplied.
func (n *Namespace) Set(dest string, v any) error {
	if err := dictutil.Set(n.tree, split(dest), v); err != nil {
		return err
	}
	n.mark(dest)
	return nil
}

// Extra returns the value of a promoted extra option.
func (n *Namespace) Extra(name string) (any, bool) {
	v, ok := n.extras[name]
	return v, ok
}

// Extras returns a copy of the promoted extra options.
func (n *Namespace) Extras() map[string]any {
	return dictutil.Copy(n.extras)
}

func (n *Namespace) mark(dest string) {
	n.explicit[dest] = true
	parts := split(dest)
	for i := 1; i <= len(parts); i++ {
		n.touched[strings.Join(parts[:i], ".")] = true
	}
}

func (n *Namespace) markTree(dest string, m map[string]any) {
	for k, v := range m {
		child := dest + "." + k
		if dest == "" {
			child = k
		}
		n.mark(child)
		if sub, ok := v.(map[string]any); ok {
			n.markTree(child, sub)
		}
	}
}

// apply records one occurrence of an option.
//
// The first occurrence of a list option replaces its default and later ones
// extend it; appending options add one row per occurrence. Namespace values
// are merged into the subtree, everything else replaces.
func (n *Namespace) apply(ev event) error {
	f := ev.flag
	dest := f.Name()
	path := f.Dest.Path

	switch {
	case f.Kind == schema.KindList && !ev.whole:
		var list []any
		if n.explicit[dest] {
			cur, _ := dictutil.Get(n.tree, path)
			list, _ = cur.([]any)
		}
		if f.Append {
			list = append(list, ev.value)
		} else {
			items, _ := ev.value.([]any)
			list = append(list, items...)
		}
		if err := dictutil.Set(n.tree, path, list); err != nil {
			return err
		}

	case f.Kind == schema.KindNamespace:
		cur, _ := dictutil.Get(n.tree, path)
		curMap, _ := cur.(map[string]any)
		frag, _ := ev.value.(map[string]any)
		if err := dictutil.Set(n.tree, path, dictutil.Merge(curMap, frag, 0)); err != nil {
			return err
		}
		n.markTree(dest, frag)

	default:
		if err := dictutil.Set(n.tree, path, ev.value); err != nil {
			return err
		}
	}
	n.mark(dest)
	return nil
}
