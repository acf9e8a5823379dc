package argparse

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Help writes the help text. The extended form also lists hidden sections
// and options.
func (p *Parser) Help(plus bool) error {
	if p.schema == nil {
		return ErrNotBound
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Usage: %s [-h | -h+] [options]\n", p.prog)
	if p.schema.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", p.schema.Description)
	}

	all := p.flagSet(nil, plus)
	for _, sec := range p.schema.SortedSections() {
		if sec.Hidden && !plus {
			continue
		}
		fs := pflag.NewFlagSet(sec.Title, pflag.ContinueOnError)
		fs.SortFlags = false
		for _, f := range p.schema.SectionFlags(sec) {
			fs.AddFlag(all.Lookup(f.Name()))
		}
		if usages := fs.FlagUsages(); strings.TrimSpace(usages) != "" {
			fmt.Fprintf(&b, "\n%s:\n%s", sec.Title, usages)
		}
	}

	if extra := p.extraFlagSet(nil); extra.HasFlags() {
		fmt.Fprintf(&b, "\n%s:\n%s", p.extraTitle(), extra.FlagUsages())
	}

	if !plus {
		b.WriteString("\nUse -h+ / --help+ to show all options.\n")
	}
	_, err := fmt.Fprint(p.out, b.String())
	return err
}
