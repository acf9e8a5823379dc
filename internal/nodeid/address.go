package nodeid

import (
	"slices"
	"strings"
)

// String serializes the Address into its canonical dotted form.
func (a Address) String() string {
	return strings.Join(a.Path, ".")
}

// Flag returns the command-line spelling of the address, e.g. `--in.infile`.
func (a Address) Flag() string {
	return "--" + a.String()
}

// Equal checks for equality between two addresses.
func (a Address) Equal(other Address) bool {
	return slices.Equal(a.Path, other.Path)
}

// Child returns a new address with name appended. The receiver is not modified.
func (a Address) Child(name string) Address {
	path := make([]string, 0, len(a.Path)+1)
	path = append(path, a.Path...)
	return Address{Path: append(path, name)}
}

// Join appends all segments of other to a copy of a.
func (a Address) Join(other Address) Address {
	path := make([]string, 0, len(a.Path)+len(other.Path))
	path = append(path, a.Path...)
	return Address{Path: append(path, other.Path...)}
}

// Parent returns the address without its last segment.
func (a Address) Parent() Address {
	if len(a.Path) == 0 {
		return a
	}
	return New(a.Path[:len(a.Path)-1]...)
}

// HasPrefix reports whether prefix is an ancestor of, or equal to, a.
func (a Address) HasPrefix(prefix Address) bool {
	if len(prefix.Path) > len(a.Path) {
		return false
	}
	return slices.Equal(a.Path[:len(prefix.Path)], prefix.Path)
}

// TrimPrefix returns a relative to prefix. If prefix is not an ancestor of a,
// a is returned unchanged.
func (a Address) TrimPrefix(prefix Address) Address {
	if !a.HasPrefix(prefix) {
		return a
	}
	return New(a.Path[len(prefix.Path):]...)
}

// Ancestors returns every proper, non-root ancestor from the outermost inward.
func (a Address) Ancestors() []Address {
	var out []Address
	for i := 1; i < len(a.Path); i++ {
		out = append(out, New(a.Path[:i]...))
	}
	return out
}
