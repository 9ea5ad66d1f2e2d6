package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FieldValue holds one document field: either a plain string or an ordered
// list of strings (authors, keywords). It round-trips through JSON as a bare
// string or an array of strings.
type FieldValue struct {
	items []string
	list  bool
}

// String wraps a scalar field value.
func String(s string) FieldValue {
	return FieldValue{items: []string{s}}
}

// List wraps an ordered list field value.
func List(items ...string) FieldValue {
	return FieldValue{items: items, list: true}
}

// IsList reports whether the value is list-shaped.
func (v FieldValue) IsList() bool { return v.list }

// Items returns the list elements, or nil for scalar values.
func (v FieldValue) Items() []string {
	if !v.list {
		return nil
	}
	out := make([]string, len(v.items))
	copy(out, v.items)
	return out
}

// Flatten returns the value as a single string. List elements are joined
// with single spaces, which is also how list fields are fed to the tokenizer.
func (v FieldValue) Flatten() string {
	if len(v.items) == 0 {
		return ""
	}
	if !v.list {
		return v.items[0]
	}
	return strings.Join(v.items, " ")
}

func (v FieldValue) MarshalJSON() ([]byte, error) {
	if v.list {
		items := v.items
		if items == nil {
			items = []string{}
		}
		return json.Marshal(items)
	}
	return json.Marshal(v.Flatten())
}

func (v *FieldValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = FieldValue{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = String(s)
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err == nil {
		*v = List(items...)
		return nil
	}
	return fmt.Errorf("field value must be a string or an array of strings, got %s", string(data))
}

// Document is a flexible field map. The engine weighs the title, authors,
// keywords, year and abstract fields; any other fields (publication_link,
// profile_link, ...) are carried through untouched.
type Document map[string]FieldValue

// Field returns the flattened text of the named field. A missing field
// yields the empty string, never an error.
func (d Document) Field(name string) string {
	v, ok := d[name]
	if !ok {
		return ""
	}
	return v.Flatten()
}
