// Package header resolves a user supplied column declaration into the ordered
// list of (field id, display title) pairs used by the CSV writers.
package header

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fluxo/csv-writer/pkg/errs"
)

// Entry is one column declaration. It is either a bare field id or a field id
// paired with a display title; build it with ID or Titled.
type Entry struct {
	id     string
	title  string
	titled bool
}

// ID declares a column whose title is the field id itself.
func ID(fieldID string) Entry {
	return Entry{id: fieldID}
}

// Titled declares a column with an explicit display title.
func Titled(fieldID, title string) Entry {
	return Entry{id: fieldID, title: title, titled: true}
}

// FieldID returns the record key of the entry.
func (e Entry) FieldID() string { return e.id }

// IsTitled reports whether the entry carries its own title.
func (e Entry) IsTitled() bool { return e.titled }

// Spec is an ordered column declaration. All entries share one shape.
type Spec []Entry

// IDs builds a Spec of bare field ids.
func IDs(fieldIDs ...string) Spec {
	spec := make(Spec, len(fieldIDs))
	for i, id := range fieldIDs {
		spec[i] = ID(id)
	}
	return spec
}

// Column is a resolved column.
type Column struct {
	ID    string
	Title string
}

// Header is the normalized, validated form of a Spec.
type Header struct {
	Columns []Column
	// Titled is set when the spec was given in titled form. Only titled
	// headers produce a header row.
	Titled bool
}

// Resolve validates spec and normalizes it into a Header.
func Resolve(spec Spec) (*Header, error) {
	if len(spec) == 0 {
		return nil, errs.Configuration("header", "at least one column is required")
	}

	titled := spec[0].titled
	seen := make(map[string]int, len(spec))
	columns := make([]Column, len(spec))

	for i, entry := range spec {
		if entry.titled != titled {
			return nil, errs.Configuration("header", "entry %d mixes field ids with titled entries", i)
		}
		if entry.id == "" {
			return nil, errs.Configuration("header", "entry %d has no field id", i)
		}
		if prev, dup := seen[entry.id]; dup {
			return nil, errs.Configuration("header", "duplicate field id %q at entries %d and %d", entry.id, prev, i)
		}
		seen[entry.id] = i

		title := entry.id
		if entry.titled {
			title = entry.title
		}
		columns[i] = Column{ID: entry.id, Title: title}
	}

	return &Header{Columns: columns, Titled: titled}, nil
}

// IDs returns the field ids in column order.
func (h *Header) IDs() []string {
	ids := make([]string, len(h.Columns))
	for i, c := range h.Columns {
		ids[i] = c.ID
	}
	return ids
}

// Titles returns the display titles in column order.
func (h *Header) Titles() []string {
	titles := make([]string, len(h.Columns))
	for i, c := range h.Columns {
		titles[i] = c.Title
	}
	return titles
}

// ParseFlags builds a Spec from command line values. "name" declares a bare
// id and "name=NAME" a titled column.
func ParseFlags(values []string) Spec {
	spec := make(Spec, 0, len(values))
	for _, v := range values {
		id, title, found := strings.Cut(v, "=")
		id = strings.TrimSpace(id)
		if found {
			spec = append(spec, Titled(id, title))
		} else {
			spec = append(spec, ID(id))
		}
	}
	return spec
}

type titledEntry struct {
	ID    string  `yaml:"id"`
	Title *string `yaml:"title"`
}

// UnmarshalYAML accepts a sequence of field ids or a sequence of
// {id, title} mappings. Shape mixing is left for Resolve to reject.
func (s *Spec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("header must be a sequence, got line %d", node.Line)
	}

	spec := make(Spec, 0, len(node.Content))
	for _, item := range node.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			spec = append(spec, ID(item.Value))
		case yaml.MappingNode:
			var te titledEntry
			if err := item.Decode(&te); err != nil {
				return fmt.Errorf("failed to decode header entry at line %d: %w", item.Line, err)
			}
			title := te.ID
			if te.Title != nil {
				title = *te.Title
			}
			spec = append(spec, Titled(te.ID, title))
		default:
			return fmt.Errorf("unsupported header entry at line %d", item.Line)
		}
	}

	*s = spec
	return nil
}
