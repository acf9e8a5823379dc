package annotate

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	headerRegex = regexp.MustCompile(`^([A-Z][A-Za-z0-9 _]*):\s*$`)
	itemRegex   = regexp.MustCompile(`^([^\s():]+)\s*(?:\(([^)]*)\))?\s*:\s*(.*)$`)

	itemSections = map[string]bool{"Input": true, "Output": true, "Envs": true, "Args": true}
)

type docLine struct {
	indent int
	text   string
}

func (l docLine) blank() bool { return l.text == "" }

// ParseSections splits a documentation string into its summary and sections.
func ParseSections(doc string) (Sections, error) {
	var out Sections
	lines := splitLines(doc)

	i := 0
	var summary []docLine
	for ; i < len(lines); i++ {
		if lines[i].indent == 0 && headerRegex.MatchString(lines[i].text) {
			break
		}
		summary = append(summary, lines[i])
	}
	out.Summary = parseSummary(summary)

	for i < len(lines) {
		title := headerRegex.FindStringSubmatch(lines[i].text)[1]
		i++
		var body []docLine
		for ; i < len(lines); i++ {
			l := lines[i]
			if l.blank() {
				continue
			}
			if l.indent == 0 {
				if headerRegex.MatchString(l.text) {
					break
				}
				return Sections{}, fmt.Errorf("section %q: unindented line %q", title, l.text)
			}
			body = append(body, l)
		}

		sec := Section{Title: title, Text: joinText(body)}
		if itemSections[title] {
			items, err := parseItems(body, false)
			if err != nil {
				return Sections{}, fmt.Errorf("section %q: %w", title, err)
			}
			sec.Items = items
		}
		out.Sections = append(out.Sections, sec)
	}
	return out, nil
}

// splitLines expands tabs, drops trailing whitespace and removes the common
// indentation. The first line is exempt from the common indentation, since
// documentation often starts right after the opening quote.
func splitLines(doc string) []docLine {
	raw := strings.Split(strings.ReplaceAll(doc, "\t", "    "), "\n")
	common := -1
	for i, r := range raw {
		if i == 0 || strings.TrimSpace(r) == "" {
			continue
		}
		ind := len(r) - len(strings.TrimLeft(r, " "))
		if common < 0 || ind < common {
			common = ind
		}
	}
	if common < 0 {
		common = 0
	}

	lines := make([]docLine, 0, len(raw))
	for i, r := range raw {
		r = strings.TrimRight(r, " \r")
		if strings.TrimSpace(r) == "" {
			lines = append(lines, docLine{})
			continue
		}
		if i > 0 {
			r = r[common:]
		} else {
			r = strings.TrimLeft(r, " ")
		}
		text := strings.TrimLeft(r, " ")
		lines = append(lines, docLine{indent: len(r) - len(text), text: text})
	}
	return lines
}

func parseSummary(lines []docLine) Summary {
	var paragraphs []string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			paragraphs = append(paragraphs, strings.Join(cur, "\n"))
			cur = nil
		}
	}
	for _, l := range lines {
		if l.blank() {
			flush()
			continue
		}
		cur = append(cur, strings.Repeat(" ", l.indent)+l.text)
	}
	flush()

	if len(paragraphs) == 0 {
		return Summary{}
	}
	return Summary{
		Short: paragraphs[0],
		Long:  strings.Join(paragraphs[1:], "\n\n"),
	}
}

// parseItems parses lines sharing the indentation of the first line as
// items; deeper lines belong to the item above them.
func parseItems(lines []docLine, bullet bool) (Items, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	base := lines[0].indent
	var items Items

	for i := 0; i < len(lines); {
		l := lines[i]
		if l.indent != base {
			return nil, fmt.Errorf("unexpected indentation at %q", l.text)
		}
		text := l.text
		if bullet {
			if !strings.HasPrefix(text, "- ") {
				return nil, fmt.Errorf("expected a `- term` line, got %q", text)
			}
			text = strings.TrimSpace(text[2:])
		}
		m := itemRegex.FindStringSubmatch(text)
		if m == nil {
			return nil, fmt.Errorf("malformed item %q", text)
		}
		item := Item{Name: m[1], Attrs: parseAttrs(m[2]), Help: m[3]}

		j := i + 1
		for j < len(lines) && lines[j].indent > base {
			j++
		}
		children := lines[i+1 : j]

		k := 0
		for k < len(children) && !strings.HasPrefix(children[k].text, "- ") {
			k++
		}
		if k > 0 {
			cont := joinText(children[:k])
			if item.Help == "" {
				item.Help = cont
			} else {
				item.Help += "\n" + cont
			}
		}
		if k < len(children) {
			terms, err := parseItems(children[k:], true)
			if err != nil {
				return nil, fmt.Errorf("item %q: %w", item.Name, err)
			}
			item.Terms = terms
		}
		item.Help = strings.TrimSpace(item.Help)
		items = append(items, item)
		i = j
	}
	return items, nil
}

// parseAttrs parses `type:int; choices` into a map. Bare keys map to "".
func parseAttrs(raw string) map[string]string {
	attrs := make(map[string]string)
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, val, _ := strings.Cut(part, ":")
		if k, v, ok := strings.Cut(part, "="); ok && len(k) < len(key) {
			key, val = k, v
		}
		attrs[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(val)
	}
	return attrs
}

// joinText rebuilds text from lines, keeping indentation relative to the
// shallowest line.
func joinText(lines []docLine) string {
	if len(lines) == 0 {
		return ""
	}
	base := lines[0].indent
	for _, l := range lines {
		if l.indent < base {
			base = l.indent
		}
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.Repeat(" ", l.indent-base) + l.text
	}
	return strings.Join(out, "\n")
}
