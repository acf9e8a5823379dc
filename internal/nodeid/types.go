package nodeid

// Address is a parsed option destination.
type Address struct {
	Path []string
}

// New builds an Address from already validated segments.
func New(segments ...string) Address {
	path := make([]string, len(segments))
	copy(path, segments)
	return Address{Path: path}
}

// IsRoot reports whether the address has no segments. The root address is
// used as the prefix of a flattened, single-process schema.
func (a Address) IsRoot() bool {
	return len(a.Path) == 0
}

// Len returns the number of segments.
func (a Address) Len() int {
	return len(a.Path)
}

// Last returns the final segment, or "" for the root.
func (a Address) Last() string {
	if len(a.Path) == 0 {
		return ""
	}
	return a.Path[len(a.Path)-1]
}
