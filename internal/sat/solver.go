// Package sat implements the solving core of a compact CDCL satisfiability
// solver: the clause database, two-watched-literal propagation, first-UIP
// conflict analysis with recursive self-subsumption, the VMTF decision
// heuristic, the restart controller, database reduction, and
// assumption-based incremental solving with final-conflict extraction.
//
// The DIMACS parser, CLI driver, and statistics reporting are external
// collaborators and live outside this package.
package sat

import "math"

// Options configures a Solver at construction time.
type Options struct {
	// MaxCells bounds the clause database's arena growth. Zero means
	// unbounded (growth only fails if the host runs out of memory).
	MaxCells int32

	// InitialMaxLemmas is the starting learned-clause budget before the
	// first database reduction (spec §4.5).
	InitialMaxLemmas int32
}

// DefaultOptions mirrors the source's own constants.
var DefaultOptions = Options{
	MaxCells:         0,
	InitialMaxLemmas: 1000,
}

// Solver is a single-threaded CDCL solver instance (spec §5: strictly
// single-threaded, no shared state, deterministic given identical input).
type Solver struct {
	db         *database
	watchHeads []int32 // indexed by litIndex(l); head of l's watch list, or endOfList
	falseState []byte  // indexed by litIndex(l); spec §3/§9 sentinel-multiplexed flags
	reason     []int32 // indexed by variable; clause ref that forced it, or 0
	trailPos   []int32 // indexed by variable; position of its trail entry

	trail            []Literal // falseStack: literals currently false, in assignment order
	forced           int32     // trail cursor: boundary of permanent level-0 truths
	processed        int32     // trail cursor: everything below this has been propagated
	pendingDecisions int32     // number of decision literals currently on the trail

	order   *vmtf
	numVars int32

	assumptions   []Literal
	finalConflict []Literal

	maxLemmas int32

	// Restart controller statistics, reset at the start of every Solve call.
	resConflicts int64
	setCount     int64
	notCount     int64

	unsat bool

	TotalConflicts  int64
	TotalRestarts   int64
	TotalLearned    int64
	TotalIterations int64
}

// NewSolver allocates a solver for a formula over 1..=nVars variables.
func NewSolver(nVars int32, opts Options) *Solver {
	size := nVars + 1
	watchSize := 2*nVars + 2
	maxLemmas := opts.InitialMaxLemmas
	if maxLemmas <= 0 {
		maxLemmas = 1000
	}
	s := &Solver{
		db:         newDatabase(opts.MaxCells),
		watchHeads: make([]int32, watchSize),
		falseState: make([]byte, watchSize),
		reason:     make([]int32, size),
		trailPos:   make([]int32, size),
		order:      newVMTF(nVars),
		numVars:    nVars,
		maxLemmas:  maxLemmas,
	}
	for i := range s.watchHeads {
		s.watchHeads[i] = endOfList
	}
	return s
}

// NumVariables returns the number of variables the solver was built for.
func (s *Solver) NumVariables() int32 { return s.numVars }

// NumLearnts returns the number of redundant (learned) clauses currently in
// the database.
func (s *Solver) NumLearnts() int32 { return s.db.numLearnt }

// MemUsed returns the arena's current cell count (spec §6 CLI stats line).
func (s *Solver) MemUsed() int32 { return s.db.used }

// MaxLemmas returns the current learned-clause budget before the next
// reduction (spec §6 CLI stats line).
func (s *Solver) MaxLemmas() int32 { return s.maxLemmas }

// IsUnsat reports whether the solver has already determined the formula is
// unsatisfiable at the root level, independent of assumptions.
func (s *Solver) IsUnsat() bool { return s.unsat }

// GetModel returns the saved phase of variable v, valid after Solve returns
// True (spec §6 get_model).
func (s *Solver) GetModel(v int32) bool {
	return s.order.phase[v]
}

// FinalConflict returns the clause produced by the most recent final-conflict
// extraction (spec §4.7), valid after Solve returns False with assumptions in
// effect.
func (s *Solver) FinalConflict() []Literal {
	return s.finalConflict
}

// Assume appends lit to the assumption sequence (spec §6 assume).
func (s *Solver) Assume(lit Literal) {
	s.assumptions = append(s.assumptions, lit)
}

// ResetAssumptions clears the assumption sequence (spec §6 reset_assumptions).
func (s *Solver) ResetAssumptions() {
	s.assumptions = s.assumptions[:0]
}

// AddClauseInput adds an irredundant (input) clause. Unit clauses are
// immediately enqueued as forced literals; an empty clause marks the
// formula unsatisfiable immediately (spec §6/§7 - a normal verdict, not an
// error).
func (s *Solver) AddClauseInput(lits []Literal) error {
	if len(lits) == 0 {
		s.unsat = true
		return nil
	}
	ref, err := s.db.addClause(lits, true)
	if err != nil {
		return err
	}
	if len(lits) >= 2 {
		s.db.installWatches(ref, s.watchHeads)
		return nil
	}
	if !s.assign(Literal(s.db.cells[ref]), ref, true) {
		s.unsat = true
	}
	return nil
}

// assign assigns lit to true, pushing its complement onto the trail (spec
// §3 falseStack convention) and updating restart statistics and phase
// saving. Returns false if lit was already assigned false (a conflict the
// caller must handle).
func (s *Solver) assign(lit Literal, reason int32, forced bool) bool {
	if s.isTrue(lit) {
		return true
	}
	if s.isFalse(lit) {
		return false
	}

	v := lit.Var()
	state := stateFalse
	if forced {
		state = stateImplied
	}
	s.falseState[litIndex(-lit)] = state
	s.reason[v] = reason
	s.trailPos[v] = int32(len(s.trail))
	s.trail = append(s.trail, -lit)

	s.setCount++
	positive := lit > 0
	if s.order.phase[v] != positive {
		s.notCount++
	}
	s.order.phase[v] = positive

	return true
}

// unassignTrailTop pops the most recent trail entry, restoring its literal
// to unassigned.
func (s *Solver) unassignTrailTop() {
	l := s.trail[len(s.trail)-1]
	v := l.Var()
	if s.reason[v] == 0 {
		s.pendingDecisions--
	}
	s.falseState[litIndex(l)] = stateUnassigned
	s.reason[v] = 0
	s.trail = s.trail[:len(s.trail)-1]
}

// cancelTo unassigns the trail down to (and including) position target,
// then sets processed to target (spec §4.3 step 5).
func (s *Solver) cancelTo(target int32) {
	for int32(len(s.trail)) > target {
		s.unassignTrailTop()
	}
	s.processed = target
}

// pushDecision assigns lit with no reason, marking it a decision (spec
// §4.6 step f).
func (s *Solver) pushDecision(lit Literal) {
	s.pendingDecisions++
	s.assign(lit, 0, false)
}

// clauseAntecedents returns the literals of reason clause ref other than
// its asserted literal (ref's literals[0]), which are the literals that
// forced it false-to-true (spec §4.3 resolution step).
func (s *Solver) clauseAntecedents(ref int32) []Literal {
	lits := s.db.literals(ref)
	return lits[1:]
}

// propagateOnce drains the trail from processed to its current end,
// returning the ref of the first conflicting clause found, or 0 if
// propagation completed cleanly (spec §4.2).
func (s *Solver) propagateOnce() int32 {
	for s.processed < int32(len(s.trail)) {
		negL := s.trail[s.processed]
		s.processed++

		ptr := &s.watchHeads[litIndex(negL)]
		for *ptr != endOfList {
			ref := *ptr
			cells := s.db.cells

			if Literal(cells[ref]) == negL {
				// Link cells belong to slots, so they move with the literals.
				cells[ref], cells[ref+1] = cells[ref+1], cells[ref]
				cells[ref-2], cells[ref-1] = cells[ref-1], cells[ref-2]
			}
			other := Literal(cells[ref])

			if s.isTrue(other) {
				ptr = &cells[ref-1]
				continue
			}

			replaced := false
			for i := ref + 2; cells[i] != 0; i++ {
				x := Literal(cells[i])
				if !s.isFalse(x) {
					next := cells[ref-1]
					cells[ref+1], cells[i] = cells[i], cells[ref+1]
					*ptr = next
					cells[ref-1] = s.watchHeads[litIndex(x)]
					s.watchHeads[litIndex(x)] = ref
					replaced = true
					break
				}
			}
			if replaced {
				continue
			}

			if s.isFalse(other) {
				return ref
			}
			s.assign(other, ref, s.pendingDecisions == 0)
			ptr = &cells[ref-1]
		}
	}
	return 0
}

// propagate drains the trail, resolving conflicts via analyze/record as
// they're found and resuming propagation (spec §4.2 step 3). It reports
// true if a root-level conflict was found, meaning the formula is
// unsatisfiable.
func (s *Solver) propagate() (bool, error) {
	for {
		conflictRef := s.propagateOnce()
		if conflictRef == 0 {
			return false, nil
		}
		if s.pendingDecisions == 0 {
			return true, nil
		}

		learned, target := s.analyze(conflictRef)
		s.cancelTo(target)
		if _, err := s.record(learned); err != nil {
			return false, err
		}
		s.TotalConflicts++
		s.resConflicts++
	}
}

// record adds a learned clause to the database and enqueues its asserted
// literal (spec: record the analyzed clause and re-derive its unit).
func (s *Solver) record(lits []Literal) (int32, error) {
	ref, err := s.db.addClause(lits, false)
	if err != nil {
		return 0, err
	}
	if len(lits) >= 2 {
		s.db.installWatches(ref, s.watchHeads)
	}
	s.assign(lits[0], ref, s.pendingDecisions == 0)
	s.TotalLearned++
	return ref, nil
}

// analyze performs first-UIP conflict analysis with recursive
// self-subsuming minimization (spec §4.3), returning the learned clause
// (its first literal is the asserted first-UIP literal) and the trail
// position to backjump to.
func (s *Solver) analyze(conflictRef int32) ([]Literal, int32) {
	lastDecision := int32(len(s.trail)) - 1
	for lastDecision >= s.forced && s.reason[s.trail[lastDecision].Var()] != 0 {
		lastDecision--
	}

	var touched []Literal
	var earlier []Literal // marked false literals from earlier levels; candidates for the learned clause as they are
	nImplicationPoints := int32(0)

	mark := func(l Literal) {
		idx := litIndex(l)
		st := s.falseState[idx]
		if st == stateImplied || st == stateMark {
			return
		}
		s.falseState[idx] = stateMark
		touched = append(touched, l)
		s.order.bump(l.Var())
		if s.trailPos[l.Var()] >= lastDecision {
			nImplicationPoints++
		} else {
			earlier = append(earlier, l)
		}
	}

	for _, l := range s.db.literals(conflictRef) {
		mark(l)
	}

	var fuip Literal
	idx := int32(len(s.trail)) - 1
	for {
		for idx >= s.forced && s.falseState[litIndex(s.trail[idx])] != stateMark {
			idx--
		}
		t := s.trail[idx]
		nImplicationPoints--
		if nImplicationPoints == 0 {
			fuip = t
			break
		}
		if r := s.reason[t.Var()]; r != 0 {
			for _, a := range s.clauseAntecedents(r) {
				mark(a)
			}
		}
		idx--
	}

	learned := make([]Literal, 1, len(earlier)+1)
	learned[0] = fuip
	deepest := int32(-1)
	for _, l := range earlier {
		if !s.implied(l, &touched) {
			learned = append(learned, l)
			if p := s.trailPos[l.Var()]; p > deepest {
				deepest = p
			}
		}
	}

	// Backjump to the first decision after the deepest retained literal, so
	// that literal's whole decision level (all of it already propagated)
	// stays assigned.
	target := s.forced
	if deepest >= 0 {
		target = deepest + 1
		for s.reason[s.trail[target].Var()] != 0 {
			target++
		}
	}

	// touched only ever holds literals whose falseState was freshly set during
	// this call: both mark() and implied() bail out before mutating anything
	// once a literal already carries stateImplied, so a genuinely root-forced
	// (permanent) literal can never appear here. Every entry is therefore safe
	// - and, for implied()'s memoized stateImplied/stateImplied-1 results,
	// necessary - to revert once it stops being relevant to this analysis.
	for _, l := range touched {
		if p := s.trailPos[l.Var()]; p < target {
			switch s.falseState[litIndex(l)] {
			case stateMark, stateImplied, stateImpliedM1:
				s.falseState[litIndex(l)] = stateFalse
			}
		}
	}

	return learned, target
}

// implied reports whether the false literal l is entailed by the other
// literals already implicated in the current analysis (spec §4.3 step 3:
// recursive self-subsumption), memoizing the result via the IMPLIED /
// IMPLIED-1 sentinels. Every literal whose falseState it sets is appended to
// touched so analyze's end-of-call cleanup can find and clear it again - the
// recursion reaches antecedents that mark() never visited directly.
func (s *Solver) implied(l Literal, touched *[]Literal) bool {
	idx := litIndex(l)
	switch s.falseState[idx] {
	case stateImplied:
		return true
	case stateImpliedM1:
		return false
	}

	r := s.reason[l.Var()]
	if r == 0 {
		s.falseState[idx] = stateImpliedM1
		*touched = append(*touched, l)
		return false
	}
	for _, a := range s.clauseAntecedents(r) {
		st := s.falseState[litIndex(a)]
		if st == stateMark || st == stateImplied {
			continue
		}
		if !s.implied(a, touched) {
			s.falseState[idx] = stateImpliedM1
			*touched = append(*touched, l)
			return false
		}
	}
	s.falseState[idx] = stateImplied
	*touched = append(*touched, l)
	return true
}

// analyzeFinal produces the complement-of-assumptions clause that proves
// the falsified assumption lit (and transitively, the assumption set)
// infeasible (spec §4.7).
func (s *Solver) analyzeFinal(lit Literal) {
	buf := []Literal{-lit}
	var touched []Literal

	mark := func(l Literal) {
		idx := litIndex(l)
		st := s.falseState[idx]
		if st == stateMark || st == stateImplied {
			return
		}
		s.falseState[idx] = stateMark
		touched = append(touched, l)
	}

	mark(lit)
	for i := int32(len(s.trail)) - 1; i >= s.forced; i-- {
		t := s.trail[i]
		if s.falseState[litIndex(t)] != stateMark {
			continue
		}
		if r := s.reason[t.Var()]; r != 0 {
			for _, a := range s.clauseAntecedents(r) {
				mark(a)
			}
		} else {
			// t has no reason, so it was itself decided by pushing -t (assign
			// always trails the complement of what it asserts); the blocking
			// literal that rules out deciding -t again is t itself.
			buf = append(buf, t)
		}
	}

	for _, l := range touched {
		if s.falseState[litIndex(l)] == stateMark {
			s.falseState[litIndex(l)] = stateFalse
		}
	}

	s.cancelTo(s.forced)

	ref, err := s.db.addClause(buf, false)
	if err == nil && len(buf) >= 2 {
		s.db.installWatches(ref, s.watchHeads)
	}
	s.finalConflict = buf
}

// shouldRestart evaluates the restart heuristic (spec §4.4/§9):
// base = (set/not)^16, restart when res > floor(base).
func (s *Solver) shouldRestart() bool {
	if s.notCount == 0 {
		return false
	}
	ratio := float64(s.setCount) / float64(s.notCount)
	for i := 0; i < 4; i++ {
		ratio *= ratio
	}
	return float64(s.resConflicts) > math.Floor(ratio)
}

// restart unassigns everything down to forced, preserving phase saving and
// the VMTF list (spec §4.4).
func (s *Solver) restart() {
	s.cancelTo(s.forced)
	s.resConflicts = 0
	s.setCount = 0
	s.notCount = 0
	s.TotalRestarts++
}

// satisfiesPhase reports whether l is satisfied under the currently saved
// phase, used by reduceDB to preferentially keep phase-aligned lemmas.
func (s *Solver) satisfiesPhase(l Literal) bool {
	return (l > 0) == s.order.phase[l.Var()]
}

// reduceDB purges learned clauses that are insufficiently phase-aligned
// (spec §4.5). The caller must ensure no pending decision currently
// references a clause in the redundant region (solve() guarantees this by
// restarting immediately before calling reduceDB).
func (s *Solver) reduceDB(k int32) error {
	for s.maxLemmas <= s.db.numLearnt {
		s.maxLemmas += 300
	}

	oldUsed := s.db.used
	fixed := s.db.fixed

	for idx := fixed; idx < oldUsed; {
		ref := idx + 2
		n := s.db.length(ref)
		if n >= 2 {
			l0 := Literal(s.db.cells[ref])
			l1 := Literal(s.db.cells[ref+1])
			s.db.removeFromWatch(s.watchHeads, l0, ref)
			s.db.removeFromWatch(s.watchHeads, l1, ref)
		}
		idx = ref + n + 1
	}

	// old keeps the redundant region readable after truncation. Re-added
	// clauses are written at or below the clause being read, so they never
	// overwrite a clause that has not been read yet.
	old := s.db.cells[:oldUsed]
	s.db.cells = s.db.cells[:fixed]
	s.db.used = fixed
	s.db.numLearnt = 0

	for idx := fixed; idx < oldUsed; {
		ref := idx + 2
		n := int32(0)
		for old[ref+n] != 0 {
			n++
		}
		lits := make([]Literal, n)
		satisfied := int32(0)
		for i := int32(0); i < n; i++ {
			l := Literal(old[ref+i])
			lits[i] = l
			if s.satisfiesPhase(l) {
				satisfied++
			}
		}
		if satisfied >= k {
			newRef, err := s.db.addClause(lits, false)
			if err != nil {
				return err
			}
			if n >= 2 {
				s.db.installWatches(newRef, s.watchHeads)
			}
		}
		idx = ref + n + 1
	}
	return nil
}

// saveModel is a no-op placeholder kept for symmetry with the teacher's own
// search loop: the VMTF phase array already holds the final model once
// every variable is assigned, so there is nothing further to capture.
func (s *Solver) saveModel() {}

// Solve runs the main CDCL loop (spec §4.6) until it reaches SAT, UNSAT, or
// exhausts conflictLimit newly-learned lemmas (returning Unknown, a valid
// resumption point per spec §5).
func (s *Solver) Solve(conflictLimit int64) (LBool, error) {
	if s.unsat {
		return False, nil
	}

	s.resConflicts = 0
	s.setCount = 0
	s.notCount = 0
	decision := s.order.head

	for {
		s.TotalIterations++

		oldLearnt := s.db.numLearnt
		rootConflict, err := s.propagate()
		if err != nil {
			return Unknown, err
		}
		if rootConflict {
			s.unsat = true
			return False, nil
		}
		if s.pendingDecisions == 0 {
			s.forced = s.processed
		}

		learnedThisRound := s.db.numLearnt - oldLearnt
		conflictLimit -= int64(learnedThisRound)
		if conflictLimit < 0 {
			s.restart()
			if err := s.reduceDB(2); err != nil {
				return Unknown, err
			}
			return Unknown, nil
		}

		if learnedThisRound > 0 {
			// Bumped variables moved to the head and the backjump unassigned
			// them, so the decision walk starts again from the head.
			decision = s.order.head
			restarted := false
			if s.shouldRestart() {
				s.restart()
				decision = s.order.head
				restarted = true
			}
			if s.db.numLearnt > s.maxLemmas {
				if !restarted {
					s.restart()
					decision = s.order.head
				}
				if err := s.reduceDB(6); err != nil {
					return Unknown, err
				}
			}
		}

		assumed := false
		for _, a := range s.assumptions {
			if s.isFalse(a) {
				s.analyzeFinal(a)
				return False, nil
			}
			if s.isUnassigned(a) {
				s.pushDecision(a)
				assumed = true
				break
			}
		}
		if assumed {
			continue
		}

		lit, v := s.order.decisionLiteral(decision, func(x int32) bool {
			return !s.isUnassigned(Literal(x))
		})
		if v == 0 {
			return True, nil
		}
		decision = s.order.prev[v]
		s.pushDecision(lit)
	}
}
