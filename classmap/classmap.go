// Package classmap implements the core conversion model: a normalized
// mapping from CSS class name to its declarations, grouped by declaration
// context (unconditional vs. media-query-scoped), together with its PHP
// serialization, the matching reader and the multi-source merger.
package classmap

import (
	"time"
)

// PropertySet maps property name to verbatim property value. Keys are
// unique, repeated insertion of the same key keeps the last value.
type PropertySet map[string]string

// Clone returns an independent copy of the set.
func (p PropertySet) Clone() PropertySet {
	out := make(PropertySet, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// ClassEntry holds declarations of one class key: Default collects
// properties declared without a media context, Media groups properties by
// verbatim media-query text.
type ClassEntry struct {
	Default PropertySet
	Media   map[string]PropertySet
}

// NewClassEntry creates an empty entry.
func NewClassEntry() *ClassEntry {
	return &ClassEntry{
		Default: make(PropertySet),
		Media:   make(map[string]PropertySet),
	}
}

// IsEmpty reports whether the entry carries no declarations at all. Empty
// entries are omitted from serialized output.
func (e *ClassEntry) IsEmpty() bool {
	return len(e.Default) == 0 && len(e.Media) == 0
}

// Clone returns an independent deep copy of the entry.
func (e *ClassEntry) Clone() *ClassEntry {
	out := NewClassEntry()
	out.Default = e.Default.Clone()
	for q, props := range e.Media {
		out.Media[q] = props.Clone()
	}
	return out
}

// MediaSet returns the property set for the given media-query text,
// inserting an empty one on first use.
func (e *ClassEntry) MediaSet(query string) PropertySet {
	props, ok := e.Media[query]
	if !ok {
		props = make(PropertySet)
		e.Media[query] = props
	}
	return props
}

// ClassMap maps normalized class key to its entry. A key may contain a
// single ':' separating the base class from a pseudo-classifier
// (e.g. "btn:hover"). Order is irrelevant in memory, serialization imposes
// lexicographic order.
type ClassMap map[string]*ClassEntry

// Ensure returns the entry for key, explicitly inserting an empty entry the
// first time the key is written.
func (m ClassMap) Ensure(key string) *ClassEntry {
	entry, ok := m[key]
	if !ok {
		entry = NewClassEntry()
		m[key] = entry
	}
	return entry
}

// Counters accumulate per-occurrence statistics of a single parse pass.
// They increment once per processed (selector, context) occurrence, not once
// per unique class key.
type Counters struct {
	Classes       int
	MediaQueries  int
	PseudoClasses int
}

// Stats describes one completed conversion. Derived data only - attached to
// the pipeline result and rendered into the file header, never parsed back.
type Stats struct {
	InputBytes  int
	OutputBytes int
	Elapsed     time.Duration
	Counters
	Valid      bool
	Diagnostic string
}

// DuplicateRegistry records, for every class key seen in more than one merge
// source, the ordered list of source identifiers beyond the first.
type DuplicateRegistry map[string][]string

// Add records that source also declared key.
func (r DuplicateRegistry) Add(key, source string) {
	r[key] = append(r[key], source)
}
