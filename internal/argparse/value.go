package argparse

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vk/pipeargs/internal/schema"
)

// listSep joins the values of one list occurrence into a single pflag value.
const listSep = "\x1f"

// event is one occurrence of an option, in command-line order.
type event struct {
	flag  *schema.Flag
	value any
	// whole marks values that assign a list as a whole, as argument files do.
	whole bool
}

type recorder struct {
	events []event
}

// optionValue adapts a schema option to pflag.Value. Set coerces the value
// and records it; the namespace is only updated once parsing succeeded.
type optionValue struct {
	flag *schema.Flag
	rec  *recorder
}

func (v *optionValue) String() string {
	return formatValue(v.flag.Default)
}

func (v *optionValue) Set(s string) error {
	if v.flag.Kind != schema.KindList {
		val, err := v.flag.Coerce(s)
		if err != nil {
			return err
		}
		v.rec.events = append(v.rec.events, event{flag: v.flag, value: val})
		return nil
	}

	parts := strings.Split(s, listSep)
	items := make([]any, 0, len(parts))
	for _, p := range parts {
		val, err := v.flag.CoerceElem(p)
		if err != nil {
			return err
		}
		items = append(items, val)
	}
	v.rec.events = append(v.rec.events, event{flag: v.flag, value: items})
	return nil
}

// Type names the value in help output.
func (v *optionValue) Type() string {
	switch v.flag.Kind {
	case schema.KindList:
		return "list"
	case schema.KindDict, schema.KindNamespace:
		return "json"
	case schema.KindFlag:
		return "bool"
	}
	switch v.flag.Type {
	case "", "str", "upper", "lower":
		return "string"
	case "path":
		return "path"
	case "bool":
		return "boolean"
	case "auto":
		return "value"
	}
	return v.flag.Type
}

// formatValue renders a default for help output.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
	return fmt.Sprint(v)
}
