package classmap

import (
	"sort"
)

// Source is a single merge input: a class map read back from a previously
// generated file together with its identifier and the raw byte size of the
// serialized text (used for priority ordering).
type Source struct {
	ID   string
	Map  ClassMap
	Size int
}

// OrderSources arranges merge inputs by priority: the designated primary
// source first when present, the rest in descending order of serialized byte
// size. Ordering is stable for equal sizes.
func OrderSources(sources []Source, primary string) []Source {
	out := make([]Source, len(sources))
	copy(out, sources)

	sort.SliceStable(out, func(i, j int) bool {
		if primary != "" {
			if out[i].ID == primary {
				return out[j].ID != primary
			}
			if out[j].ID == primary {
				return false
			}
		}
		return out[i].Size > out[j].Size
	})
	return out
}

// Merge folds sources, strictly in the given order, into a single class map.
// The first source to declare a class installs its entry, every later source
// declaring the same class is recorded in the duplicate registry and merged
// at property granularity: its properties overwrite (or add to) the
// accumulated default set, and each of its media-query sets overwrites the
// accumulated one per property. The net effect is that the last processed
// source to define a given property wins - resolution is per property, not
// per class.
func Merge(sources []Source) (ClassMap, DuplicateRegistry) {
	merged := make(ClassMap)
	dups := make(DuplicateRegistry)

	for _, src := range sources {
		for _, key := range sortedKeys(src.Map) {
			incoming := src.Map[key]

			accumulated, seen := merged[key]
			if !seen {
				merged[key] = incoming.Clone()
				continue
			}

			dups.Add(key, src.ID)
			for name, value := range incoming.Default {
				accumulated.Default[name] = value
			}
			for query, props := range incoming.Media {
				existing, ok := accumulated.Media[query]
				if !ok {
					accumulated.Media[query] = props.Clone()
					continue
				}
				for name, value := range props {
					existing[name] = value
				}
			}
		}
	}
	return merged, dups
}
