package classmap

import (
	"maps"
	"slices"
	"sort"

	"github.com/maruel/natural"

	"cssmap/utils/debug"
)

// String returns a readable tree of the whole class map. Keys are listed in
// natural order so "col2" sorts before "col10". It exists solely for manual
// inspection during debugging.
func (m ClassMap) String() string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "Class map: %d entries", len(m))

	keys := slices.Collect(maps.Keys(m))
	sort.Sort(natural.StringSlice(keys))
	for _, key := range keys {
		entry := m[key]
		tw.Line(1, "Class[%q] default[%d] media[%d]", key, len(entry.Default), len(entry.Media))
		if len(entry.Default) > 0 {
			tw.TextBlock(2, "default", propertyString(entry.Default))
		}
		queries := slices.Collect(maps.Keys(entry.Media))
		sort.Sort(natural.StringSlice(queries))
		for _, q := range queries {
			tw.TextBlock(2, q, propertyString(entry.Media[q]))
		}
	}
	return tw.String()
}

// String returns a readable listing of duplicate provenance accumulated
// during a merge.
func (r DuplicateRegistry) String() string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "Duplicate classes: %d", len(r))

	keys := slices.Collect(maps.Keys(r))
	sort.Sort(natural.StringSlice(keys))
	for _, key := range keys {
		tw.Line(1, "Class[%q] also declared by %d source(s)", key, len(r[key]))
		for _, src := range r[key] {
			tw.Line(2, "%s", src)
		}
	}
	return tw.String()
}
