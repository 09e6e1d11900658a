package sat

import "math"

// endOfList terminates a watch-list chain, mirroring the source's use of a
// small negative sentinel rather than a zero/nil value (0 is a valid cell
// index: the database's own origin sentinel).
const endOfList int32 = -9

// database is the flat, append-only arena of integer cells backing the
// clause store (spec §3/§4.1). Every clause reference is an index into
// cells, never a pointer, so growth never invalidates a reference held
// elsewhere in the solver.
type database struct {
	cells []int32

	// used is the high-water mark of allocated cells; fixed is the boundary
	// between the irredundant prefix ([0, fixed)) and the redundant suffix
	// ([fixed, used)).
	used  int32
	fixed int32

	// maxCells bounds arena growth. Zero means unbounded.
	maxCells int32

	numLearnt int32
}

func newDatabase(maxCells int32) *database {
	return &database{
		cells:    []int32{0}, // cells[0]: the origin sentinel clause-link cell
		used:     1,
		fixed:    1,
		maxCells: maxCells,
	}
}

// allocate reserves n contiguous cells, growing the backing slice by 1.5x of
// the new requirement if it doesn't already have room. It returns the index
// of the first reserved cell.
func (d *database) allocate(n int32) (int32, error) {
	need := d.used + n
	if need > int32(cap(d.cells)) {
		newCap := int32(math.Ceil(1.5 * float64(need)))
		if d.maxCells > 0 && newCap > d.maxCells {
			newCap = d.maxCells
		}
		if newCap < need {
			if d.maxCells > 0 {
				return 0, ErrOutOfMemory
			}
			newCap = need
		}
		grown := make([]int32, len(d.cells), newCap)
		copy(grown, d.cells)
		d.cells = grown
	}
	idx := d.used
	d.cells = append(d.cells, make([]int32, n)...)
	d.used = need
	return idx, nil
}

// addClause reserves k+3 cells, writes the two link cells followed by lits
// and a zero terminator, and returns the index of lits[0] (spec §4.1). The
// caller is responsible for installing watches via installWatches once the
// clause has at least two literals.
func (d *database) addClause(lits []Literal, irredundant bool) (int32, error) {
	k := int32(len(lits))
	idx, err := d.allocate(k + 3)
	if err != nil {
		return 0, err
	}
	d.cells[idx] = endOfList
	d.cells[idx+1] = endOfList
	ref := idx + 2
	for i, l := range lits {
		d.cells[ref+int32(i)] = int32(l)
	}
	d.cells[ref+k] = 0

	if irredundant {
		d.fixed = d.used
	} else {
		d.numLearnt++
	}
	return ref, nil
}

// installWatches links a newly added clause at the head of the watch lists
// of its first two literals (spec §4.1). Only valid for clauses of length
// >= 2; unit clauses carry no watches.
func (d *database) installWatches(ref int32, watchHeads []int32) {
	l0 := Literal(d.cells[ref])
	l1 := Literal(d.cells[ref+1])
	d.cells[ref-2] = watchHeads[litIndex(l0)]
	watchHeads[litIndex(l0)] = ref
	d.cells[ref-1] = watchHeads[litIndex(l1)]
	watchHeads[litIndex(l1)] = ref
}

// removeFromWatch splices ref out of l's watch list. Used by reduceDB when it
// drops learned clauses, outside of propagation's own in-place splice.
func (d *database) removeFromWatch(watchHeads []int32, l Literal, ref int32) {
	ptr := &watchHeads[litIndex(l)]
	for *ptr != endOfList {
		cur := *ptr
		var slot *int32
		if Literal(d.cells[cur]) == l {
			slot = &d.cells[cur-2]
		} else {
			slot = &d.cells[cur-1]
		}
		if cur == ref {
			*ptr = *slot
			return
		}
		ptr = slot
	}
}

// length returns the number of literals in the clause referenced by ref, by
// scanning to the zero terminator (spec §9: the clause header occupies
// exactly literals+3 cells, load-bearing for reduceDB's traversal).
func (d *database) length(ref int32) int32 {
	n := int32(0)
	for d.cells[ref+n] != 0 {
		n++
	}
	return n
}

// literals returns the clause's literals as a freshly built slice. Used by
// cold paths (analysis, reduceDB, final-conflict extraction) where an
// allocation is not performance-critical.
func (d *database) literals(ref int32) []Literal {
	n := d.length(ref)
	lits := make([]Literal, n)
	for i := int32(0); i < n; i++ {
		lits[i] = Literal(d.cells[ref+i])
	}
	return lits
}
