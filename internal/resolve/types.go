package resolve

import (
	"github.com/vk/pipeargs/internal/dictutil"
)

// Tier is a source of configuration values, lowest priority first.
type Tier int

const (
	TierDefault Tier = iota
	TierProfile
	TierCLI
	TierFixed
)

func (t Tier) String() string {
	switch t {
	case TierDefault:
		return "default"
	case TierProfile:
		return "profile"
	case TierCLI:
		return "cli"
	case TierFixed:
		return "fixed"
	}
	return "unknown"
}

// Record tells which tier won a pipeline-level setting.
type Record struct {
	Key        string
	Winner     Tier
	CLIValue   any
	FinalValue any
}

// Config is the resolved configuration of one run.
type Config struct {
	Flatten bool

	Name    string
	Profile string
	// Outdir and Workdir are absolute. Workdir already includes the
	// pipeline name.
	Outdir  string
	Workdir string

	// Pipeline holds the run settings in the shape of pipeline.Config;
	// its workdir is the root the pipeline name is appended to.
	Pipeline map[string]any
	// Procs holds each process's option tree: in, envs and control options.
	Procs map[string]map[string]any
	// Groups holds each group's resolved options.
	Groups map[string]map[string]any
	// Extra holds promoted extra options.
	Extra map[string]any

	tree map[string]any
}

// Tree returns a copy of the resolved option tree, keyed like the schema.
func (c *Config) Tree() map[string]any {
	return dictutil.Copy(c.tree)
}

// Value returns the resolved value of an option by dotted destination.
func (c *Config) Value(dest string) (any, bool) {
	return dictutil.Get(c.tree, split(dest))
}

// Result is the outcome of Resolve. Warnings and Infos are meant to be
// logged by the caller once startup output is done.
type Result struct {
	Config   *Config
	Warnings []string
	Infos    []string
	Records  []Record
}
