package annotate

// Undescribed is the help text given to declared fields without documentation.
const Undescribed = "Undescribed."

// Item is one documented entry, e.g. an input field or an environment variable.
type Item struct {
	Name  string
	Help  string
	Attrs map[string]string
	Terms Items
}

// Items is an ordered list of documented entries.
type Items []Item

// Get returns the item named name.
func (is Items) Get(name string) (Item, bool) {
	for _, it := range is {
		if it.Name == name {
			return it, true
		}
	}
	return Item{}, false
}

// Names returns the item names in order.
func (is Items) Names() []string {
	out := make([]string, len(is))
	for i, it := range is {
		out[i] = it.Name
	}
	return out
}

// Attr returns the raw value of an attribute. Bare attributes have an empty value.
func (it Item) Attr(key string) (string, bool) {
	v, ok := it.Attrs[key]
	return v, ok
}

// Has reports whether a marker attribute such as `hidden` or `flag` is set.
func (it Item) Has(key string) bool {
	v, ok := it.Attrs[key]
	return ok && v != "false"
}

// Summary is the text before the first section.
type Summary struct {
	Short string
	Long  string
}

// Section is one titled block of a documentation string. Item sections carry
// parsed Items; other sections only keep their text.
type Section struct {
	Title string
	Items Items
	Text  string
}

// Sections is the parsed form of a documentation string.
type Sections struct {
	Summary  Summary
	Sections []Section
}

// Get returns the section with the given title.
func (s Sections) Get(title string) (Section, bool) {
	for _, sec := range s.Sections {
		if sec.Title == title {
			return sec, true
		}
	}
	return Section{}, false
}

// Annotation is the metadata extracted for one process or group.
type Annotation struct {
	Summary Summary
	Input   Items
	Output  Items
	Envs    Items
	Args    Items
}
