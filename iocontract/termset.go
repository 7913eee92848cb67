// Package iocontract implements the theory-independent algebra of
// assume-guarantee contracts: interfaces of named input and output
// variables, assumption and guarantee constraint sets, and the composition,
// quotient, merge, and refinement operators over them.
//
// The algebra is expressed against the TermSet capability interface, so a
// constraint theory (such as the polyhedral one in package polyhedral, or
// an SMT-backed one) plugs in by implementing TermSet over its own
// representation. Contract values are immutable: every operator returns a
// new contract and never mutates its operands.
package iocontract

// TermSet is the capability interface a constraint theory must provide.
// A TermSet value represents the conjunction of a set of constraints; the
// zero value of an implementation must represent the empty (trivially true)
// set. Implementations must be value types: no method may mutate its
// receiver or arguments.
type TermSet[T any] interface {
	// Vars returns the variables referenced by the set, sorted by name.
	Vars() []Var

	// IsTrue reports whether the set carries no constraints.
	IsTrue() bool

	// IsEmpty reports whether the constraints have no satisfying
	// assignment.
	IsEmpty() (bool, error)

	// Simplify removes constraints that are redundant given the rest of
	// the set and the context. It fails wrapping ErrInfeasible when the
	// set contradicts the context.
	Simplify(context T) (T, error)

	// ElimByRefining returns a set without the given variables which, in
	// conjunction with the context facts, implies the receiver. It fails
	// with an EliminationError when the facts are insufficient.
	ElimByRefining(context T, elim []Var) (T, error)

	// ElimByRelaxing returns a set without the given variables which is
	// implied by the receiver in conjunction with the context facts.
	ElimByRelaxing(context T, elim []Var) (T, error)

	// Refines reports whether every behavior admitted by the receiver is
	// admitted by other.
	Refines(other T) (bool, error)

	// TermsWithVars returns the subset of constraints mentioning any of
	// the given variables.
	TermsWithVars(vars []Var) T

	// Union returns the conjunction of both sets, deduplicated.
	Union(other T) T

	// Minus returns the receiver without the constraints of other.
	Minus(other T) T

	// RenameVar returns the set with every occurrence of from replaced by
	// to.
	RenameVar(from, to Var) T

	// Equal reports structural equality of the two sets.
	Equal(other T) bool

	String() string
}
