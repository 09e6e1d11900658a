package sat

// falseState values multiplex a literal's assignment status with transient
// conflict-analysis marks onto a single byte per spec §3/§9: 0 means
// unassigned, any nonzero means the literal is currently false. Apart from
// stateImplied's second use for literals forced at level 0, the codes above
// stateFalse are set only during conflict analysis and are cleared again
// before the next propagation round.
const (
	stateUnassigned byte = 0
	stateFalse      byte = 1 // assigned false by propagation or decision
	stateMark       byte = 2 // marked as relevant to the conflict being analyzed
	stateImpliedM1  byte = 5 // implied == false, memoized
	stateImplied    byte = 6 // implied == true, memoized; also: forced at level 0
)

// isFalse reports whether l is currently assigned false.
func (s *Solver) isFalse(l Literal) bool {
	return s.falseState[litIndex(l)] != stateUnassigned
}

// isTrue reports whether l is currently assigned true, i.e. its opposite is
// false.
func (s *Solver) isTrue(l Literal) bool {
	return s.falseState[litIndex(-l)] != stateUnassigned
}

// isUnassigned reports whether neither l nor its opposite is false.
func (s *Solver) isUnassigned(l Literal) bool {
	return !s.isFalse(l) && !s.isTrue(l)
}

// litValue reports the lifted boolean value of l under the current
// assignment, mirroring the teacher's LBool convention for callers (tests,
// debugging helpers) that want a three-valued read instead of two booleans.
func (s *Solver) litValue(l Literal) LBool {
	switch {
	case s.isTrue(l):
		return True
	case s.isFalse(l):
		return False
	default:
		return Unknown
	}
}
