package frontmatter

import (
	"slices"
	"time"
)

// DateLayout is the layout used for created/modified dates.
const DateLayout = "2006-01-02"

const (
	tagStr       = "!!str"
	tagNull      = "!!null"
	tagTimestamp = "!!timestamp"
)

// Value is a frontmatter value: either a scalar (string, date, number,
// boolean, null) or a list of strings. Scalars keep their YAML tag so a
// rewrite emits them with the same type they were read with.
type Value struct {
	list  bool
	text  string
	tag   string
	items []string
}

// String returns a string scalar.
func String(s string) Value {
	return Value{text: s, tag: tagStr}
}

// Date returns a date scalar formatted with DateLayout.
func Date(t time.Time) Value {
	return Value{text: t.Format(DateLayout), tag: tagTimestamp}
}

// List returns a list of strings. A call with no items yields an empty list,
// which serializes as [].
func List(items ...string) Value {
	out := make([]string, len(items))
	copy(out, items)
	return Value{list: true, items: out}
}

func scalar(text, tag string) Value {
	if tag == "" {
		tag = tagStr
	}
	if tag == tagNull {
		text = ""
	}
	return Value{text: text, tag: tag}
}

// IsList reports whether v holds a list.
func (v Value) IsList() bool { return v.list }

// IsNull reports whether v is a null scalar (e.g. "related:" with nothing after it).
func (v Value) IsNull() bool { return !v.list && v.tag == tagNull }

// Text returns the scalar text, or "" for lists.
func (v Value) Text() string {
	if v.list {
		return ""
	}
	return v.text
}

// Items returns the list items. A non-empty scalar is returned as a
// one-element list; null and empty scalars yield nil.
func (v Value) Items() []string {
	if v.list {
		return slices.Clone(v.items)
	}
	if v.tag == tagNull || v.text == "" {
		return nil
	}
	return []string{v.text}
}

// Time parses a date or RFC 3339 timestamp scalar.
func (v Value) Time() (time.Time, bool) {
	if v.list {
		return time.Time{}, false
	}
	for _, layout := range []string{DateLayout, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, v.text); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Equal reports whether two values hold the same data and type.
func (v Value) Equal(o Value) bool {
	if v.list != o.list {
		return false
	}
	if v.list {
		return slices.Equal(v.items, o.items)
	}
	return v.text == o.text && v.tag == o.tag
}
