package argparse

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"

	"github.com/vk/pipeargs/internal/nodeid"
	"github.com/vk/pipeargs/internal/schema"
)

var validate = validator.New()

// DefaultExtraTitle titles the extra options in help output.
const DefaultExtraTitle = "Extra options"

// Fallback wraps the value an extra option takes when it is not given.
// A nil *Fallback means no fallback was declared.
type Fallback struct {
	Value any
}

// Default declares the fallback of an extra option.
func Default(v any) *Fallback {
	return &Fallback{Value: v}
}

// ExtraArg is an option parsed before the pipeline schema exists, e.g. to
// pick which pipeline to build.
type ExtraArg struct {
	Name  string `validate:"required"`
	Short string `validate:"omitempty,len=1"`
	// Group titles the help section; all extras share one section.
	Group string
	Help  string
	// Type is a coercion type name; empty means string.
	Type string
	// Switch makes the option a boolean that takes no value.
	Switch   bool
	Fallback *Fallback `validate:"required"`
	Choices  []string
}

// Validate checks that the option can be registered.
func (a ExtraArg) Validate() error {
	if err := validate.Struct(a); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+" "+fe.Tag())
			}
			return fmt.Errorf("%w %q: %s", ErrExtraRequired, a.Name, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w %q: %v", ErrExtraRequired, a.Name, err)
	}
	if _, err := nodeid.Parse(a.Name); err != nil {
		return fmt.Errorf("%w %q: %v", ErrExtraRequired, a.Name, err)
	}
	if a.Type != "" && !schema.KnownType(a.Type) {
		return fmt.Errorf("%w %q: unknown type %q", ErrExtraRequired, a.Name, a.Type)
	}
	return nil
}

type extraOption struct {
	arg  ExtraArg
	flag *schema.Flag
}

// AddExtra registers an extra option. Every extra option must declare a
// fallback.
func (p *Parser) AddExtra(arg ExtraArg) error {
	if err := arg.Validate(); err != nil {
		return err
	}
	for _, e := range p.extras {
		if e.arg.Name == arg.Name {
			return fmt.Errorf("%w %q: registered twice", ErrExtraRequired, arg.Name)
		}
	}
	addr, _ := nodeid.Parse(arg.Name)
	f := &schema.Flag{
		Dest:    addr,
		Help:    arg.Help,
		Type:    arg.Type,
		Default: arg.Fallback.Value,
		Choices: arg.Choices,
	}
	if arg.Switch {
		f.Kind = schema.KindFlag
		f.Type = "bool"
	}
	p.extras = append(p.extras, &extraOption{arg: arg, flag: f})
	return nil
}

func (p *Parser) extraTitle() string {
	for _, e := range p.extras {
		if e.arg.Group != "" {
			return e.arg.Group
		}
	}
	return DefaultExtraTitle
}

func (p *Parser) extraFlagSet(rec *recorder) *pflag.FlagSet {
	fs := pflag.NewFlagSet(p.prog, pflag.ContinueOnError)
	fs.SortFlags = false
	for _, e := range p.extras {
		fs.VarP(&optionValue{flag: e.flag, rec: rec}, e.arg.Name, e.arg.Short, usage(e.flag))
		if e.flag.Kind == schema.KindFlag {
			fs.Lookup(e.arg.Name).NoOptDefVal = "true"
		}
	}
	return fs
}

// Provisional holds extra option values before the pipeline schema is built.
type Provisional struct {
	values map[string]any
}

// Get returns the value of an extra option: the given one, or its fallback.
func (pv *Provisional) Get(name string) any {
	return pv.values[name]
}

// Promote copies the extra option values into the final namespace.
func (pv *Provisional) Promote(ns *Namespace) {
	for k, v := range pv.values {
		ns.extras[k] = v
	}
}

// ParseExtra consumes the registered extra options from args. The other
// arguments are kept, in order, for the main parse; see Remaining. When help
// is requested nothing is consumed and every extra takes its fallback.
func (p *Parser) ParseExtra(args []string) (*Provisional, error) {
	pv := &Provisional{values: make(map[string]any, len(p.extras))}
	for _, e := range p.extras {
		pv.values[e.arg.Name] = e.arg.Fallback.Value
	}
	p.remaining = append([]string(nil), args...)
	if _, ok := helpRequested(args); ok || len(p.extras) == 0 {
		return pv, nil
	}

	byName := make(map[string]*extraOption, len(p.extras))
	for _, e := range p.extras {
		byName["--"+e.arg.Name] = e
		if e.arg.Short != "" {
			byName["-"+e.arg.Short] = e
		}
	}
	occ, rest, err := scanKnown(args, func(tok string) (*schema.Flag, bool) {
		e, ok := byName[tok]
		if !ok {
			return nil, false
		}
		return e.flag, true
	})
	if err != nil {
		return nil, err
	}
	for _, o := range occ {
		v, err := o.flag.Coerce(o.raw)
		if err != nil {
			return nil, err
		}
		pv.values[o.flag.Name()] = v
	}
	p.remaining = rest
	return pv, nil
}

type occurrence struct {
	flag *schema.Flag
	raw  any
}

// scanKnown picks the occurrences of known options out of args and returns
// the remaining arguments untouched. Options are matched by their spelling
// before any `=`.
func scanKnown(args []string, known func(tok string) (*schema.Flag, bool)) ([]occurrence, []string, error) {
	var (
		occ  []occurrence
		rest []string
	)
	for i := 0; i < len(args); i++ {
		tok := args[i]
		if tok == "--" {
			rest = append(rest, args[i:]...)
			break
		}
		name, inline, hasInline := strings.Cut(tok, "=")
		f, ok := known(name)
		if !ok {
			rest = append(rest, tok)
			continue
		}

		switch {
		case hasInline:
			occ = append(occ, occurrence{flag: f, raw: inline})
		case f.Kind == schema.KindFlag:
			occ = append(occ, occurrence{flag: f, raw: ""})
		case f.Kind == schema.KindList:
			var values []any
			for i+1 < len(args) && !startsOption(args[i+1]) {
				i++
				values = append(values, args[i])
			}
			if len(values) == 0 {
				return nil, nil, fmt.Errorf("%w: %s expects at least one value", ErrUsage, name)
			}
			occ = append(occ, occurrence{flag: f, raw: values})
		default:
			if i+1 >= len(args) {
				return nil, nil, fmt.Errorf("%w: %s expects a value", ErrUsage, name)
			}
			i++
			occ = append(occ, occurrence{flag: f, raw: args[i]})
		}
	}
	return occ, rest, nil
}
