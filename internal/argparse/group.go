package argparse

import (
	"fmt"

	"github.com/vk/pipeargs/internal/dictutil"
	"github.com/vk/pipeargs/internal/pipeline"
	"github.com/vk/pipeargs/internal/schema"
)

// ParseGroupOptions resolves the options of g from args before the pipeline
// schema exists, so the group can shape its processes from them. Options
// already set in code win over the command line. Unrelated arguments are
// ignored.
func ParseGroupOptions(g *pipeline.Group, args []string) error {
	gs, err := schema.GroupSchema(g)
	if err != nil {
		return err
	}
	ns, err := NewNamespace(gs)
	if err != nil {
		return err
	}

	occ, _, err := scanKnown(args, func(tok string) (*schema.Flag, bool) {
		if len(tok) < 3 || tok[:2] != "--" {
			return nil, false
		}
		f, ok := gs.Lookup(tok[2:])
		if !ok || f.Informational {
			return nil, false
		}
		return f, true
	})
	if err != nil {
		return err
	}
	for _, o := range occ {
		v, err := o.flag.Coerce(o.raw)
		if err != nil {
			return err
		}
		if err := ns.apply(event{flag: o.flag, value: v, whole: true}); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrUsage, o.flag.Dest.Flag(), err)
		}
	}

	given := make(map[string]any)
	for k, v := range ns.Sub(g.Name) {
		if ns.Touched(g.Name + "." + k) {
			given[k] = v
		}
	}
	g.Options = dictutil.Merge(given, g.Options, 1)
	return nil
}
