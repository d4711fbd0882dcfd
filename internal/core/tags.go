package core

import (
	"encoding/json"
	"sort"
	"strings"
)

// TagSet is an unordered set of free-form labels. Order only appears when a
// set is serialized, and then it is always sorted.
type TagSet map[string]struct{}

// NewTagSet builds a set from tags, trimming whitespace and dropping blanks.
func NewTagSet(tags ...string) TagSet {
	set := make(TagSet, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		set[t] = struct{}{}
	}
	return set
}

// ParseTagList splits a comma-separated list, e.g. a CSV "tags" cell.
func ParseTagList(s string) TagSet {
	if strings.TrimSpace(s) == "" {
		return TagSet{}
	}
	return NewTagSet(strings.Split(s, ",")...)
}

// Sorted returns the tags in lexical order. Never nil.
func (t TagSet) Sorted() []string {
	out := make([]string, 0, len(t))
	for tag := range t {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Has reports whether tag is in the set.
func (t TagSet) Has(tag string) bool {
	_, ok := t[tag]
	return ok
}

// Equal reports set equality; nil and empty sets are equal.
func (t TagSet) Equal(other TagSet) bool {
	if len(t) != len(other) {
		return false
	}
	for tag := range t {
		if !other.Has(tag) {
			return false
		}
	}
	return true
}

// String joins the sorted tags with commas, the CSV cell form.
func (t TagSet) String() string {
	return strings.Join(t.Sorted(), ",")
}

func (t TagSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Sorted())
}

func (t *TagSet) UnmarshalJSON(data []byte) error {
	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return err
	}
	*t = NewTagSet(tags...)
	return nil
}
