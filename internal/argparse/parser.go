package argparse

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/vk/pipeargs/internal/schema"
)

// Parser parses command lines against a bound schema.
type Parser struct {
	prog   string
	out    io.Writer
	schema *schema.Schema

	extras    []*extraOption
	remaining []string
}

// New creates a parser. Help is written to out.
func New(prog string, out io.Writer) *Parser {
	if out == nil {
		out = os.Stdout
	}
	return &Parser{prog: prog, out: out}
}

// Bind attaches the schema to parse against.
func (p *Parser) Bind(s *schema.Schema) {
	p.schema = s
}

// Schema returns the bound schema.
func (p *Parser) Schema() *schema.Schema {
	return p.schema
}

// Remaining returns the arguments left over by ParseExtra.
func (p *Parser) Remaining() []string {
	return p.remaining
}

// helpRequested looks for a help token. plus is set for the extended form.
func helpRequested(args []string) (plus, ok bool) {
	for _, a := range args {
		switch a {
		case "--":
			return false, false
		case "-h", "--help":
			ok = true
		case "-h+", "--help+":
			return true, true
		}
	}
	return false, ok
}

// segment is a run of argv tokens followed by an optional argument file.
type segment struct {
	tokens []string
	file   string
}

func splitSegments(args []string) []segment {
	var out []segment
	cur := segment{}
	for i, a := range args {
		if a == "--" {
			cur.tokens = append(cur.tokens, args[i:]...)
			break
		}
		if len(a) > 1 && strings.HasPrefix(a, "@") {
			cur.file = a[1:]
			out = append(out, cur)
			cur = segment{}
			continue
		}
		cur.tokens = append(cur.tokens, a)
	}
	return append(out, cur)
}

// startsOption tells whether a token ends the values of a list option.
func startsOption(tok string) bool {
	if strings.HasPrefix(tok, "--") || strings.HasPrefix(tok, "@") {
		return true
	}
	if len(tok) > 1 && tok[0] == '-' {
		c := tok[1]
		return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
	}
	return false
}

// normalize rewrites list occurrences `--x v1 v2` into `--x=v1<sep>v2` so
// pflag sees one value per occurrence.
func (p *Parser) normalize(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok == "--" {
			return append(out, tokens[i:]...)
		}
		if !strings.HasPrefix(tok, "--") || strings.Contains(tok, "=") {
			out = append(out, tok)
			continue
		}
		f, ok := p.schema.Lookup(tok[2:])
		if !ok || f.Kind != schema.KindList {
			out = append(out, tok)
			continue
		}
		var values []string
		for i+1 < len(tokens) && !startsOption(tokens[i+1]) {
			i++
			values = append(values, tokens[i])
		}
		if len(values) == 0 {
			out = append(out, tok)
			continue
		}
		out = append(out, tok+"="+strings.Join(values, listSep))
	}
	return out
}

func (p *Parser) flagSet(rec *recorder, plus bool) *pflag.FlagSet {
	fs := pflag.NewFlagSet(p.prog, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.SortFlags = false
	for _, f := range p.schema.Flags() {
		if f.Informational && rec != nil {
			continue
		}
		fs.Var(&optionValue{flag: f, rec: rec}, f.Name(), usage(f))
		pf := fs.Lookup(f.Name())
		if f.Kind == schema.KindFlag {
			pf.NoOptDefVal = "true"
		}
		if f.Hidden && !plus {
			pf.Hidden = true
		}
	}
	return fs
}

func usage(f *schema.Flag) string {
	help := f.Help
	if len(f.Choices) > 0 {
		help += "\nChoices: " + strings.Join(f.Choices, ", ")
	}
	if f.Required {
		help += " (required)"
	}
	return help
}

// Parse parses args into a namespace seeded with the schema defaults. Help
// tokens print help and return ErrHelp.
func (p *Parser) Parse(args []string) (*Namespace, error) {
	if p.schema == nil {
		return nil, ErrNotBound
	}
	if plus, ok := helpRequested(args); ok {
		if err := p.Help(plus); err != nil {
			return nil, err
		}
		return nil, ErrHelp
	}

	ns, err := NewNamespace(p.schema)
	if err != nil {
		return nil, fmt.Errorf("seeding defaults: %w", err)
	}

	rec := &recorder{}
	fs := p.flagSet(rec, true)
	for _, seg := range splitSegments(args) {
		if len(seg.tokens) > 0 {
			if err := fs.Parse(p.normalize(seg.tokens)); err != nil {
				return nil, wrapParseError(err)
			}
			if fs.NArg() > 0 {
				return nil, fmt.Errorf("%w: unrecognized arguments: %s", ErrUsage, strings.Join(fs.Args(), " "))
			}
		}
		if seg.file != "" {
			evs, err := p.fileEvents(seg.file)
			if err != nil {
				return nil, err
			}
			rec.events = append(rec.events, evs...)
		}
	}

	for _, ev := range rec.events {
		if err := ns.apply(ev); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUsage, ev.flag.Dest.Flag(), err)
		}
	}

	var missing []string
	for _, f := range p.schema.Flags() {
		if f.Required && !ns.Explicit(f.Name()) {
			missing = append(missing, f.Dest.Flag())
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: the following arguments are required: %s", ErrUsage, strings.Join(missing, ", "))
	}
	return ns, nil
}

func wrapParseError(err error) error {
	msg := err.Error()
	if strings.HasPrefix(msg, "unknown flag") || strings.HasPrefix(msg, "unknown shorthand flag") {
		return fmt.Errorf("%w: %s", ErrUnknownFlag, strings.TrimPrefix(msg, "unknown flag: "))
	}
	return fmt.Errorf("%w: %s", ErrUsage, strings.ReplaceAll(msg, listSep, " "))
}
