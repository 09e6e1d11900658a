package sat

import "fmt"

// Literal represents a signed, nonzero literal over a 1-indexed variable: a
// positive value v denotes variable v assigned true, -v denotes v assigned
// false. This mirrors the DIMACS wire format directly so that clause cells
// in the database can store literals without any re-encoding step.
type Literal int32

// Var returns the variable underlying the literal, stripping its polarity.
func (l Literal) Var() int32 {
	if l < 0 {
		return int32(-l)
	}
	return int32(l)
}

// IsPositive reports whether l asserts its variable rather than its negation.
func (l Literal) IsPositive() bool {
	return l > 0
}

// Opposite returns the complementary literal.
func (l Literal) Opposite() Literal {
	return -l
}

func (l Literal) String() string {
	return fmt.Sprintf("%d", int32(l))
}

// litIndex maps a literal to a dense, non-negative index suitable for
// indexing the falseState and watchHeads arrays: positive literals map to
// even slots, negative literals to the adjacent odd slot, so both polarities
// of variable v live next to each other at index 2v and 2v+1.
func litIndex(l Literal) int32 {
	if l > 0 {
		return int32(l) * 2
	}
	return int32(-l)*2 + 1
}
