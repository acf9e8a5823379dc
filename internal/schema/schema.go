package schema

import (
	"fmt"
	"sort"

	"github.com/vk/pipeargs/internal/nodeid"
)

// Schema is the ordered set of options generated for one pipeline.
type Schema struct {
	// Flatten is true when the sole process's options live at the top level.
	Flatten     bool
	Description string
	Sections    []*Section

	flags    []*Flag
	index    map[string]*Flag
	prefixes map[string]bool
}

// New returns an empty schema.
func New() *Schema {
	return &Schema{
		index:    make(map[string]*Flag),
		prefixes: make(map[string]bool),
	}
}

// AddSection appends a section and returns it.
func (s *Schema) AddSection(sec *Section) *Section {
	s.Sections = append(s.Sections, sec)
	return sec
}

// Add registers an option. A destination may only be registered once, and
// options may only nest below namespace options.
func (s *Schema) Add(f *Flag) error {
	name := f.Name()
	if _, ok := s.index[name]; ok {
		return fmt.Errorf("%w: %s registered twice", ErrDuplicateFlag, f.Dest.Flag())
	}
	if _, ok := coercers[f.Type]; !ok {
		return fmt.Errorf("%w: %q for %s", ErrUnknownType, f.Type, f.Dest.Flag())
	}
	for _, anc := range f.Dest.Ancestors() {
		if parent, ok := s.index[anc.String()]; ok && parent.Kind != KindNamespace {
			return fmt.Errorf("%w: %s cannot nest under %s option %s", ErrDuplicateFlag, f.Dest.Flag(), parent.Kind, parent.Dest.Flag())
		}
	}
	if f.Kind != KindNamespace && s.prefixes[name] {
		return fmt.Errorf("%w: %s is already used as a namespace", ErrDuplicateFlag, f.Dest.Flag())
	}

	for _, anc := range f.Dest.Ancestors() {
		s.prefixes[anc.String()] = true
	}
	s.flags = append(s.flags, f)
	s.index[name] = f
	return nil
}

// Flags returns every option in registration order.
func (s *Schema) Flags() []*Flag {
	return s.flags
}

// Lookup finds an option by dotted destination.
func (s *Schema) Lookup(dest string) (*Flag, bool) {
	f, ok := s.index[dest]
	return f, ok
}

// IsPrefix reports whether dest is an ancestor of some registered option.
func (s *Schema) IsPrefix(dest string) bool {
	return s.prefixes[dest]
}

// SectionFlags returns the options of one section in registration order.
func (s *Schema) SectionFlags(sec *Section) []*Flag {
	var out []*Flag
	for _, f := range s.flags {
		if f.Section == sec {
			out = append(out, f)
		}
	}
	return out
}

// Children returns the options directly below parent.
func (s *Schema) Children(parent nodeid.Address) []*Flag {
	var out []*Flag
	for _, f := range s.flags {
		if f.Dest.Len() == parent.Len()+1 && f.Dest.HasPrefix(parent) {
			out = append(out, f)
		}
	}
	return out
}

// SortedSections returns the sections ordered for display.
func (s *Schema) SortedSections() []*Section {
	out := make([]*Section, len(s.Sections))
	copy(out, s.Sections)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
