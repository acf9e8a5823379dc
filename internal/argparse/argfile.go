package argparse

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/vk/pipeargs/internal/dictutil"
	"github.com/vk/pipeargs/internal/nodeid"
	"github.com/vk/pipeargs/internal/schema"
)

// LoadArgFile reads a TOML argument file into a normalized table.
func LoadArgFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading argument file: %v", ErrUsage, err)
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parsing argument file %s: %v", ErrUsage, path, err)
	}
	m, _ := dictutil.AsMap(raw)
	return m, nil
}

// fileEvents turns the keys of an argument file into option occurrences.
// Tables descend into process prefixes and namespace options; keys of a
// namespace table without an option of their own are merged into it.
func (p *Parser) fileEvents(path string) ([]event, error) {
	data, err := LoadArgFile(path)
	if err != nil {
		return nil, err
	}

	var evs []event
	var walk func(prefix nodeid.Address, m map[string]any) error
	walk = func(prefix nodeid.Address, m map[string]any) error {
		for _, k := range dictutil.Keys(m) {
			v := m[k]
			dest := prefix.Child(k)
			sub, isMap := v.(map[string]any)
			f, ok := p.schema.Lookup(dest.String())

			switch {
			case ok && f.Informational:
				return fmt.Errorf("%w: %s in %s", ErrUnknownFlag, dest, path)

			case ok && f.Kind == schema.KindNamespace && isMap:
				known := make(map[string]any)
				rest := make(map[string]any)
				for ck, cv := range sub {
					child := dest.Child(ck).String()
					if _, has := p.schema.Lookup(child); has || p.schema.IsPrefix(child) {
						known[ck] = cv
					} else {
						rest[ck] = cv
					}
				}
				if len(rest) > 0 {
					val, err := f.Coerce(rest)
					if err != nil {
						return fmt.Errorf("%w (in %s)", err, path)
					}
					evs = append(evs, event{flag: f, value: val, whole: true})
				}
				if err := walk(dest, known); err != nil {
					return err
				}

			case ok:
				val, err := f.Coerce(v)
				if err != nil {
					return fmt.Errorf("%w (in %s)", err, path)
				}
				evs = append(evs, event{flag: f, value: val, whole: true})

			case isMap && p.schema.IsPrefix(dest.String()):
				if err := walk(dest, sub); err != nil {
					return err
				}

			default:
				return fmt.Errorf("%w: %s in %s", ErrUnknownFlag, dest, path)
			}
		}
		return nil
	}
	if err := walk(nodeid.Address{}, data); err != nil {
		return nil, err
	}
	return evs, nil
}
