package models

import (
	"sort"
	"strings"
)

// Document is the field-name keyed representation of an entity shared by all
// store adapters and the cache layer.
type Document map[string]any

// String returns the string value of field, or "" when absent.
func (d Document) String(field string) string {
	if v, ok := d[field].(string); ok {
		return v
	}
	return ""
}

// Int returns the integer value of field, treating a missing or non-numeric
// field as zero.
func (d Document) Int(field string) int64 {
	switch v := d[field].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// Entity is a persistent document type understood by the store adapters.
type Entity interface {
	EntityID() string
	Document() Document
}

// Kind describes an entity type: where it lives, which fields are public,
// which fields are counters and which named views exist.
type Kind struct {
	Name       string
	Collection string
	IDField    string
	SortField  string

	// Public lists the fields returned by the default view, in output order.
	Public []string
	// Counters is the allow-list of fields that may be atomically incremented.
	Counters []string
	// Views maps a named view to its fields, in output order.
	Views map[string][]string

	columns   map[string]string
	newEntity func() Entity
}

// New allocates an empty entity of this kind for decoding.
func (k *Kind) New() Entity {
	return k.newEntity()
}

// Column returns the SQL column backing a document field.
func (k *Kind) Column(field string) (string, bool) {
	col, ok := k.columns[field]
	return col, ok
}

// BSONField returns the MongoDB field name for a document field.
func (k *Kind) BSONField(field string) string {
	if field == k.IDField {
		return "_id"
	}
	return field
}

// IsCounter reports whether field is in the counter allow-list.
func (k *Kind) IsCounter(field string) bool {
	for _, c := range k.Counters {
		if c == field {
			return true
		}
	}
	return false
}

// HasField reports whether field is a known document field.
func (k *Kind) HasField(field string) bool {
	_, ok := k.columns[field]
	return ok
}

// ViewFields returns the projection for view. The empty view is the default
// public projection.
func (k *Kind) ViewFields(view string) ([]string, bool) {
	if view == "" {
		return k.Public, true
	}
	fields, ok := k.Views[view]
	return fields, ok
}

// ViewsWithField lists the named views whose projection includes field.
func (k *Kind) ViewsWithField(field string) []string {
	var out []string
	for name, fields := range k.Views {
		for _, f := range fields {
			if f == field {
				out = append(out, name)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

var kinds = map[string]*Kind{}

func register(k *Kind) *Kind {
	kinds[k.Name] = k
	return k
}

// LookupKind resolves an entity type name such as "post".
func LookupKind(name string) (*Kind, bool) {
	k, ok := kinds[strings.ToLower(strings.TrimSpace(name))]
	return k, ok
}

// Kinds returns every registered kind ordered by name.
func Kinds() []*Kind {
	out := make([]*Kind, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
