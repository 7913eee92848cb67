package iocontract

import (
	"errors"
	"fmt"

	"github.com/pacta-dev/pacta/logger"
)

// Contract is an assume-guarantee contract: a set of input variables, a
// disjoint set of output variables, assumptions constraining the inputs,
// and guarantees constraining inputs and outputs. Instances are built with
// New and never mutated; operators return fresh contracts.
type Contract[T TermSet[T]] struct {
	inputs  []Var
	outputs []Var
	a       T
	g       T
}

// New validates and builds a contract. Assumptions may reference input
// variables only; guarantees may reference input and output variables only.
// Guarantees are simplified using the assumptions as context.
func New[T TermSet[T]](assumptions, guarantees T, inputs, outputs []Var) (Contract[T], error) {
	var zero Contract[T]
	if dups := duplicates(inputs); len(dups) > 0 {
		return zero, &InterfaceError{Op: "new contract", Msg: "duplicate input variables", Vars: dups}
	}
	if dups := duplicates(outputs); len(dups) > 0 {
		return zero, &InterfaceError{Op: "new contract", Msg: "duplicate output variables", Vars: dups}
	}
	if shared := VarIntersection(inputs, outputs); len(shared) > 0 {
		return zero, &InterfaceError{Op: "new contract", Msg: "variables appear in both inputs and outputs", Vars: shared}
	}
	if out := VarDiff(assumptions.Vars(), inputs); len(out) > 0 {
		return zero, &InterfaceError{Op: "new contract", Msg: "assumptions reference non-input variables", Vars: out}
	}
	if out := VarDiff(guarantees.Vars(), VarUnion(inputs, outputs)); len(out) > 0 {
		return zero, &InterfaceError{Op: "new contract", Msg: "guarantees reference undeclared variables", Vars: out}
	}
	g, err := guarantees.Simplify(assumptions)
	if err != nil {
		return zero, fmt.Errorf("simplifying guarantees: %w", err)
	}
	return Contract[T]{
		inputs:  append([]Var(nil), inputs...),
		outputs: append([]Var(nil), outputs...),
		a:       assumptions,
		g:       g,
	}, nil
}

func duplicates(vs []Var) []Var {
	seen := make(map[Var]int, len(vs))
	var dups []Var
	for _, v := range vs {
		seen[v]++
		if seen[v] == 2 {
			dups = append(dups, v)
		}
	}
	return dups
}

// Inputs returns a copy of the contract's input variables.
func (c Contract[T]) Inputs() []Var {
	return append([]Var(nil), c.inputs...)
}

// Outputs returns a copy of the contract's output variables.
func (c Contract[T]) Outputs() []Var {
	return append([]Var(nil), c.outputs...)
}

// Assumptions returns the contract's assumptions.
func (c Contract[T]) Assumptions() T {
	return c.a
}

// Guarantees returns the contract's guarantees.
func (c Contract[T]) Guarantees() T {
	return c.g
}

// Vars returns the contract's interface variables, inputs first.
func (c Contract[T]) Vars() []Var {
	return VarUnion(c.inputs, c.outputs)
}

func (c Contract[T]) String() string {
	return fmt.Sprintf("InVars: %s\nOutVars: %s\nA: %s\nG: %s",
		varNames(c.inputs), varNames(c.outputs), c.a, c.g)
}

// Equal reports whether both contracts have the same interface,
// assumptions, and guarantees.
func (c Contract[T]) Equal(other Contract[T]) bool {
	return VarsEqual(c.inputs, other.inputs) &&
		VarsEqual(c.outputs, other.outputs) &&
		c.a.Equal(other.a) &&
		c.g.Equal(other.g)
}

// SharesIoWith reports whether both contracts have the same IO signature.
func (c Contract[T]) SharesIoWith(other Contract[T]) bool {
	return VarsEqual(c.inputs, other.inputs) && VarsEqual(c.outputs, other.outputs)
}

// CanComposeWith reports whether the output sets are disjoint, the
// precondition for composition.
func (c Contract[T]) CanComposeWith(other Contract[T]) bool {
	return len(VarIntersection(c.outputs, other.outputs)) == 0
}

// CanQuotientBy reports whether the IO profiles allow the quotient c/other
// to exist: the top-level outputs not produced by other must not feed
// other's inputs.
func (c Contract[T]) CanQuotientBy(other Contract[T]) bool {
	return len(VarIntersection(VarDiff(c.outputs, other.outputs), other.inputs)) == 0
}

// RenameVariable returns a copy of the contract with source renamed to
// target throughout the interface, assumptions, and guarantees.
func (c Contract[T]) RenameVariable(source, target Var) (Contract[T], error) {
	if source == target {
		return c, nil
	}
	inputs := c.Inputs()
	outputs := c.Outputs()
	switch {
	case ContainsVar(inputs, source):
		if ContainsVar(outputs, target) {
			return Contract[T]{}, &InterfaceError{Op: "rename", Msg: "renaming would make variable both input and output", Vars: []Var{target}}
		}
		inputs = VarUnion(VarDiff(inputs, []Var{source}), []Var{target})
	case ContainsVar(outputs, source):
		if ContainsVar(inputs, target) {
			return Contract[T]{}, &InterfaceError{Op: "rename", Msg: "renaming would make variable both input and output", Vars: []Var{target}}
		}
		outputs = VarUnion(VarDiff(outputs, []Var{source}), []Var{target})
	default:
		return c, nil
	}
	return New(c.a.RenameVar(source, target), c.g.RenameVar(source, target), inputs, outputs)
}

// Compose computes the contract of the system assembled from c and other.
// Variables produced by one side and consumed by the other become internal
// and are eliminated from the composite's interface. The composed
// assumptions are obtained by tightening the assumptions of one side with
// the facts of the other until they reference external inputs only; if
// neither side's facts suffice, composition fails with an EliminationError
// naming the unremovable variables.
func (c Contract[T]) Compose(other Contract[T]) (Contract[T], error) {
	var zero Contract[T]
	log := logger.Logger()
	if !c.CanComposeWith(other) {
		return zero, &InterfaceError{
			Op:   "compose",
			Msg:  "contracts drive the same outputs",
			Vars: VarIntersection(c.outputs, other.outputs),
		}
	}
	internal := VarUnion(
		VarIntersection(c.outputs, other.inputs),
		VarIntersection(other.outputs, c.inputs),
	)
	outputs := VarDiff(VarUnion(c.outputs, other.outputs), internal)
	inputs := VarDiff(VarDiff(VarUnion(c.inputs, other.inputs), internal), outputs)
	forbidden := VarUnion(internal, outputs)
	log.Debug().
		Str("internal", varNames(internal)).
		Str("inputs", varNames(inputs)).
		Str("outputs", varNames(outputs)).
		Msg("composing contracts")

	assumptions, err := composeAssumptions(c, other, forbidden)
	if err != nil {
		return zero, err
	}
	var empty T
	assumptions, err = assumptions.Simplify(empty)
	if err != nil {
		return zero, fmt.Errorf("simplifying composed assumptions: %w", err)
	}
	log.Debug().Stringer("assumptions", assumptions).Msg("composed assumptions")

	guarantees, err := c.g.Union(other.g).ElimByRelaxing(assumptions, internal)
	if err != nil {
		return zero, fmt.Errorf("eliminating internal variables from guarantees: %w", err)
	}
	// terms that still mention internal variables cannot be guaranteed at
	// the composite interface
	guarantees = guarantees.Minus(guarantees.TermsWithVars(internal))
	log.Debug().Stringer("guarantees", guarantees).Msg("composed guarantees")

	return New(assumptions, guarantees, inputs, outputs)
}

// composeAssumptions tries tightening self's assumptions with other's facts
// first, then the symmetric attempt. The first attempt that leaves no
// forbidden variable wins; this tie-break is deterministic in argument
// order.
func composeAssumptions[T TermSet[T]](self, other Contract[T], forbidden []Var) (T, error) {
	var zero T
	first, errFirst := tightenAssumptions(self, other, forbidden)
	if errFirst == nil {
		return first, nil
	}
	if errors.Is(errFirst, ErrResourceLimit) {
		return zero, errFirst
	}
	second, errSecond := tightenAssumptions(other, self, forbidden)
	if errSecond == nil {
		return second, nil
	}
	if errors.Is(errSecond, ErrResourceLimit) {
		return zero, errSecond
	}
	return zero, NewEliminationError(
		forbidden,
		other.a.Union(other.g).String()+" ; "+self.a.Union(self.g).String(),
		errFirst,
	)
}

// tightenAssumptions strengthens side's assumptions using helper's
// assumptions and guarantees as known-true facts, then conjoins helper's
// assumptions. It fails when forbidden variables survive.
func tightenAssumptions[T TermSet[T]](side, helper Contract[T], forbidden []Var) (T, error) {
	var zero T
	facts := helper.a.Union(helper.g)
	tightened, err := side.a.ElimByRefining(facts, forbidden)
	if err != nil {
		return zero, err
	}
	combined := tightened.Union(helper.a)
	if left := VarIntersection(combined.Vars(), forbidden); len(left) > 0 {
		return zero, NewEliminationError(left, facts.String(), nil)
	}
	return combined, nil
}

// Quotient computes the weakest contract missing such that
// missing.Compose(other) refines c. It is the adjoint of composition: c is
// the desired top-level contract and other the existing part.
func (c Contract[T]) Quotient(other Contract[T]) (Contract[T], error) {
	var zero Contract[T]
	log := logger.Logger()
	if !c.CanQuotientBy(other) {
		return zero, &InterfaceError{Op: "quotient", Msg: "incompatible IO profiles"}
	}
	outputs := VarUnion(VarDiff(c.outputs, other.outputs), VarDiff(other.inputs, c.inputs))
	inputs := VarUnion(VarDiff(c.inputs, other.inputs), VarDiff(other.outputs, c.outputs))
	internal := VarUnion(VarIntersection(c.outputs, other.outputs), VarIntersection(c.inputs, other.inputs))
	log.Debug().
		Str("internal", varNames(internal)).
		Str("inputs", varNames(inputs)).
		Str("outputs", varNames(outputs)).
		Msg("computing quotient")

	// assumptions: weaken the top-level assumptions, extended with the
	// existing part's guarantees when those assumptions are strong enough
	// for it
	assumptions := c.a
	if ok, err := c.a.Refines(other.a); err != nil {
		return zero, fmt.Errorf("comparing assumptions: %w", err)
	} else if ok {
		assumptions = assumptions.Union(other.g)
	}
	var empty T
	assumptions, err := assumptions.ElimByRelaxing(empty, VarUnion(internal, outputs))
	if err != nil {
		return zero, fmt.Errorf("weakening quotient assumptions: %w", err)
	}
	assumptions = assumptions.Minus(assumptions.TermsWithVars(VarUnion(internal, outputs)))
	log.Debug().Stringer("assumptions", assumptions).Msg("quotient assumptions")

	// guarantees: strengthen the top-level guarantees using the existing
	// part's contract, then the top-level assumptions
	guarantees := c.g
	if refined, err := guarantees.ElimByRefining(other.g.Union(other.a), internal); err == nil {
		guarantees = refined
	} else if errors.Is(err, ErrResourceLimit) {
		return zero, err
	}
	guarantees = guarantees.Union(other.a)
	if refined, err := guarantees.ElimByRefining(c.a, internal); err == nil {
		guarantees = refined
	} else if errors.Is(err, ErrResourceLimit) {
		return zero, err
	}
	if left := VarIntersection(guarantees.Vars(), internal); len(left) > 0 {
		return zero, NewEliminationError(left, other.g.Union(other.a).String(), nil)
	}
	log.Debug().Stringer("guarantees", guarantees).Msg("quotient guarantees")

	return New(assumptions, guarantees, inputs, outputs)
}

// Merge conjoins two viewpoints of the same design: both assumption sets
// and both guarantee sets must hold. No variable becomes internal.
func (c Contract[T]) Merge(other Contract[T]) (Contract[T], error) {
	if shared := VarIntersection(c.outputs, other.outputs); len(shared) > 0 {
		return Contract[T]{}, &InterfaceError{Op: "merge", Msg: "contracts drive the same outputs", Vars: shared}
	}
	inputs := VarUnion(c.inputs, other.inputs)
	outputs := VarUnion(c.outputs, other.outputs)
	return New(c.a.Union(other.a), c.g.Union(other.g), inputs, outputs)
}

// Refines reports whether c can substitute for other: c accepts at least
// the environments other accepts, and under its own assumptions delivers
// at least other's guarantees. Contracts with different IO signatures never
// refine each other.
func (c Contract[T]) Refines(other Contract[T]) (bool, error) {
	if !c.SharesIoWith(other) {
		return false, nil
	}
	ok, err := other.a.Refines(c.a)
	if err != nil || !ok {
		return false, err
	}
	return c.a.Union(c.g).Refines(other.g)
}

// ContainsEnvironment reports whether a component described by env is a
// valid environment for the contract, i.e. satisfies its assumptions.
func (c Contract[T]) ContainsEnvironment(env T) (bool, error) {
	return env.Refines(c.a)
}

// ContainsImplementation reports whether a component described by impl is a
// valid implementation of the contract: under the assumptions it delivers
// the guarantees.
func (c Contract[T]) ContainsImplementation(impl T) (bool, error) {
	return impl.Union(c.a).Refines(c.g.Union(c.a))
}
