package objinspect

import "sort"

// rangeEntry is one (offset, size, name) tuple of a SectionIndex.
type rangeEntry struct {
	offset uint64
	size   uint64
	name   string
}

// SectionIndex maps a file or virtual offset to the containing section name
// (spec.md §4.2). Entries are kept sorted by offset; lookup uses a binary
// search (upper-bound) to find the candidate and then validates containment.
//
// Behavior on overlapping ranges is implementation-defined — the index picks
// whichever candidate the upper-bound search lands on, matching spec.md's
// explicit "not intended to handle overlapping ranges" note.
type SectionIndex struct {
	entries []rangeEntry
	sorted  bool
}

// NewSectionIndex returns an empty index ready for Insert calls.
func NewSectionIndex() *SectionIndex {
	return &SectionIndex{}
}

// Insert adds a (offset, size, name) range. Insertion is O(log n) amortized:
// it appends and defers re-sorting until the next Lookup (equivalent cost,
// simpler than maintaining sorted-insert on every call for the bulk-load
// pattern the inspectors use — all sections of a file are known up front).
func (s *SectionIndex) Insert(offset, size uint64, name string) {
	s.entries = append(s.entries, rangeEntry{offset: offset, size: size, name: name})
	s.sorted = false
}

func (s *SectionIndex) ensureSorted() {
	if s.sorted {
		return
	}
	sort.Slice(s.entries, func(i, j int) bool { return s.entries[i].offset < s.entries[j].offset })
	s.sorted = true
}

// Lookup returns the name of the section containing offset o, and whether
// one was found. The containing section is the one whose start is the
// greatest value <= o AND whose start+size strictly exceeds o.
func (s *SectionIndex) Lookup(o uint64) (string, bool) {
	s.ensureSorted()
	// upper-bound: first index whose offset is > o
	idx := sort.Search(len(s.entries), func(i int) bool { return s.entries[i].offset > o })
	if idx == 0 {
		return "", false
	}
	cand := s.entries[idx-1]
	if cand.offset <= o && o < cand.offset+cand.size {
		return cand.name, true
	}
	return "", false
}

// Len reports the number of ranges currently held.
func (s *SectionIndex) Len() int { return len(s.entries) }
