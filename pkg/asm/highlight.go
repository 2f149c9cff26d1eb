package asm

import (
	"slices"
	"sort"
)

// LineRange is a half-open range of line indices [From, To).
type LineRange struct{ From, To int }

// HighlightSet is a sorted set of original line indices.
type HighlightSet struct {
	list []int
}

// Add adds index to the set.
func (hs *HighlightSet) Add(index int) {
	at := sort.SearchInts(hs.list, index)
	if at >= len(hs.list) {
		hs.list = append(hs.list, index)
	} else if hs.list[at] != index {
		hs.list = slices.Insert(hs.list, at, index)
	}
}

// Has reports whether index is in the set.
func (hs HighlightSet) Has(index int) bool {
	at := sort.SearchInts(hs.list, index)
	return at < len(hs.list) && hs.list[at] == index
}

func (hs HighlightSet) Len() int { return len(hs.list) }

// Indices returns a copy of the indices in ascending order.
func (hs HighlightSet) Indices() []int {
	return slices.Clone(hs.list)
}

// Ranges merges consecutive indices.
func (hs HighlightSet) Ranges() []LineRange {
	if len(hs.list) == 0 {
		return nil
	}

	var all []LineRange

	current := LineRange{From: hs.list[0], To: hs.list[0] + 1}
	for _, index := range hs.list[1:] {
		if index <= current.To {
			current.To = index + 1
		} else {
			all = append(all, current)
			current = LineRange{From: index, To: index + 1}
		}
	}
	all = append(all, current)

	return all
}

// Project maps an original index set onto display positions through
// indexMap. Filtered out lines contribute nothing.
func Project(set HighlightSet, indexMap []int) []int {
	if set.Len() == 0 {
		return nil
	}
	var out []int
	for display, orig := range indexMap {
		if set.Has(orig) {
			out = append(out, display)
		}
	}
	return out
}
