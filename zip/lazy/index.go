package lazy

import (
	"cmp"
	"slices"
)

// index is an immutable snapshot of a parsed central directory.
type index struct {
	entries []Entry
	// byName maps names to entries; duplicate names resolve to the last one.
	byName map[string]int
	// offsets is sorted ascending by local header offset.
	offsets []offsetIndex
}

type offsetIndex struct {
	offset uint32
	index  int
}

func compareOffset(o offsetIndex, target uint32) int {
	return cmp.Compare(o.offset, target)
}

// newIndex builds the name map and offset list in one pass.
//
// Archives are usually written in offset order so the sort is skipped if offsets are already non-decreasing.
func newIndex(entries []Entry) *index {
	idx := &index{
		entries: entries,
		byName:  make(map[string]int, len(entries)),
		offsets: make([]offsetIndex, len(entries)),
	}

	sorted := true
	for i := range entries {
		e := &entries[i]
		idx.byName[e.Name] = i
		idx.offsets[i] = offsetIndex{offset: e.LocalHeaderOffset, index: i}
		if i > 0 && idx.offsets[i-1].offset > e.LocalHeaderOffset {
			sorted = false
		}
	}

	if !sorted {
		slices.SortStableFunc(idx.offsets, func(a, b offsetIndex) int {
			return cmp.Compare(a.offset, b.offset)
		})
	}

	return idx
}

func (idx *index) lookup(name string) (*Entry, bool) {
	i, ok := idx.byName[name]
	if !ok {
		return nil, false
	}

	return &idx.entries[i], true
}

// nextOffset returns the smallest local header offset strictly greater than start.
//
// found is false if start itself is not in the list, in which case next is meaningless.
func (idx *index) nextOffset(start uint32) (next uint32, hasNext, found bool) {
	i, found := slices.BinarySearchFunc(idx.offsets, start, compareOffset)
	if !found {
		return 0, false, false
	}

	// entries sharing a local header (e.g. duplicates) would otherwise yield an empty range.
	for i++; i < len(idx.offsets); i++ {
		if o := idx.offsets[i].offset; o > start {
			return o, true, true
		}
	}

	return 0, false, true
}
