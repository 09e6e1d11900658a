package sat

// vmtf is the variable-move-to-front decision list (spec §4.4): a doubly
// linked list over variables 1..=n with a head. Bumping a variable splices
// it out of its current position and reinserts it directly after head,
// which then becomes the new head. Decisions are picked by walking prev
// from head until an unassigned variable turns up.
//
// next[v] points toward head (more recently bumped); prev[v] points away
// from head (less recently bumped). 0 is the list terminator since
// variables are numbered from 1.
type vmtf struct {
	next []int32
	prev []int32
	head int32

	// phase[v] is the saved polarity of v (spec §4.4): true means v's last
	// assigned value was true. The zero value is false, so the first
	// decision on any fresh variable is its negative literal (spec §9 open
	// question, resolved literally per DESIGN.md).
	phase []bool
}

func newVMTF(n int32) *vmtf {
	t := &vmtf{
		next:  make([]int32, n+1),
		prev:  make([]int32, n+1),
		phase: make([]bool, n+1),
	}
	for v := int32(1); v <= n; v++ {
		t.prev[v] = v - 1
		if v < n {
			t.next[v] = v + 1
		}
	}
	t.head = n
	return t
}

// unlink splices v out of the list. v must currently be linked in.
func (t *vmtf) unlink(v int32) {
	p, n := t.prev[v], t.next[v]
	if n != 0 {
		t.prev[n] = p
	}
	if p != 0 {
		t.next[p] = n
	}
	if t.head == v {
		t.head = n
	}
}

// bump moves v's variable to the front of the list, making it head.
func (t *vmtf) bump(v int32) {
	if t.head == v {
		return
	}
	t.unlink(v)
	old := t.head
	t.prev[v] = old
	t.next[v] = 0
	if old != 0 {
		t.next[old] = v
	}
	t.head = v
}

// decisionLiteral returns the next unassigned variable to branch on
// starting the search at from (spec §4.6 step e), walking prev toward the
// tail, using phase saving to pick the polarity (spec §4.6 step f). Returns
// 0 if the list is exhausted, meaning every variable is assigned.
func (t *vmtf) decisionLiteral(from int32, assigned func(int32) bool) (Literal, int32) {
	v := from
	for v != 0 && assigned(v) {
		v = t.prev[v]
	}
	if v == 0 {
		return 0, 0
	}
	if t.phase[v] {
		return Literal(v), v
	}
	return Literal(-v), v
}
