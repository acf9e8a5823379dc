package schema

import (
	"github.com/vk/pipeargs/internal/nodeid"
)

// NotComputed is the default of output options. Outputs are computed when
// the pipeline runs; the option only documents them.
const NotComputed = "<not computed>"

// Kind describes how an option consumes values from the command line.
type Kind int

const (
	// KindScalar takes exactly one value.
	KindScalar Kind = iota
	// KindList takes one or more values; repeating the option extends the
	// list, or adds a row when the option appends.
	KindList
	// KindDict takes a JSON object that replaces the value as a whole.
	KindDict
	// KindNamespace takes a JSON object merged into the subtree, and owns
	// the options nested below it.
	KindNamespace
	// KindFlag is a boolean switch that needs no value.
	KindFlag
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	case KindNamespace:
		return "namespace"
	case KindFlag:
		return "flag"
	}
	return "unknown"
}

// SectionKind tells what a section documents.
type SectionKind int

const (
	SectionPipeline SectionKind = iota
	SectionGroup
	SectionProcess
	SectionExtra
)

// Section is a titled block of options in help output, and a banner in the
// dumped argument file.
type Section struct {
	Kind SectionKind
	// Name is the process or group name. Empty for the pipeline section.
	Name string
	// Group is the owning group of a process section.
	Group string
	Title string
	// Order sorts sections in help output.
	Order int
	// Hidden sections only show in the extended help.
	Hidden bool
}

// Flag is a single option.
type Flag struct {
	Dest nodeid.Address
	Help string
	Kind Kind
	// Type names the coercion applied to each value; see Coerce.
	Type     string
	Default  any
	Choices  []string
	Hidden   bool
	Required bool
	// Append makes each occurrence of a list option add one row.
	Append bool
	// Internal options are parsed but left out of the dumped argument file.
	Internal bool
	// Informational options are help text only; they are never parsed.
	Informational bool
	// MergeDepth is the depth at which a table value is merged into the
	// existing one on write-back.
	MergeDepth int
	Section    *Section
}

// Name returns the destination in dotted form.
func (f *Flag) Name() string {
	return f.Dest.String()
}
