package config

import (
	"fmt"

	yaml "gopkg.in/yaml.v3"
)

// Specification of entry ordering policy for the assembled document. Applied
// once at build time, entries are never re-sorted later.
type EntryOrder int

const (
	// pages by publish date ascending, then posts by publish date ascending
	EntryOrderPagesFirst EntryOrder = iota
	// all entries by publish date ascending regardless of kind
	EntryOrderChronological
)

var entryOrderNames = []string{"pagesFirst", "chronological"}

func EntryOrderNames() []string {
	return append([]string{}, entryOrderNames...)
}

func ParseEntryOrder(name string) (EntryOrder, error) {
	for i, n := range entryOrderNames {
		if n == name {
			return EntryOrder(i), nil
		}
	}
	return EntryOrderPagesFirst, fmt.Errorf("%q is not a valid EntryOrder", name)
}

func (o EntryOrder) String() string {
	if int(o) >= 0 && int(o) < len(entryOrderNames) {
		return entryOrderNames[o]
	}
	// this should never happen
	panic("unsupported entry order requested")
}

func (o EntryOrder) MarshalYAML() (any, error) {
	return o.String(), nil
}

func (o *EntryOrder) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	v, err := ParseEntryOrder(name)
	if err != nil {
		return err
	}
	*o = v
	return nil
}
