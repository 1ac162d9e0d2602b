package mpi

// selectIndex picks the merge target from the combined accepted positions.
// No match is a normal outcome (-1), not an error. With more than one
// survivor the first position in input order wins and ambiguous is set, so
// callers can surface the collision: candidates are expected to arrive
// pre-sorted, typically by creation time.
func selectIndex(selectable []int) (chosen int, ambiguous bool) {
	switch len(selectable) {
	case 0:
		return -1, false
	case 1:
		return selectable[0], false
	default:
		return selectable[0], true
	}
}

// Select picks the merge target from a set of matched records, with the
// same first-wins semantics the matcher pipeline applies to candidate
// positions.
func Select(matches []Record) (chosen Record, ok bool, ambiguous bool) {
	idx := make([]int, len(matches))
	for i := range matches {
		idx[i] = i
	}
	i, amb := selectIndex(idx)
	if i < 0 {
		return Record{}, false, false
	}
	return matches[i], true, amb
}
