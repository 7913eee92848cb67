package iocontract

import (
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Compound is a contract whose assumptions and guarantees are each a set of
// alternative term sets, interpreted as a disjunction of polytopes: the
// contract assumes at least one assumption alternative holds and guarantees
// at least one guarantee alternative.
type Compound[T TermSet[T]] struct {
	inputs  []Var
	outputs []Var
	a       []T
	g       []T
}

// Option configures compound operator evaluation.
type Option func(*config) error

type config struct {
	nbTasks int
}

// WithNbTasks sets the number of worker goroutines used to evaluate
// combinations. Defaults to runtime.NumCPU().
func WithNbTasks(n int) Option {
	return func(cfg *config) error {
		if n <= 0 {
			return fmt.Errorf("invalid number of tasks %d", n)
		}
		cfg.nbTasks = n
		return nil
	}
}

func newConfig(opts ...Option) (config, error) {
	cfg := config{nbTasks: runtime.NumCPU()}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// NewCompound validates and builds a compound contract. Each assumption
// alternative may reference input variables only; each guarantee
// alternative may reference input and output variables only. Nil or empty
// alternative sets are normalized to a single trivially-true alternative.
func NewCompound[T TermSet[T]](assumptions, guarantees []T, inputs, outputs []Var) (Compound[T], error) {
	var zero Compound[T]
	if dups := duplicates(inputs); len(dups) > 0 {
		return zero, &InterfaceError{Op: "new compound contract", Msg: "duplicate input variables", Vars: dups}
	}
	if dups := duplicates(outputs); len(dups) > 0 {
		return zero, &InterfaceError{Op: "new compound contract", Msg: "duplicate output variables", Vars: dups}
	}
	if shared := VarIntersection(inputs, outputs); len(shared) > 0 {
		return zero, &InterfaceError{Op: "new compound contract", Msg: "variables appear in both inputs and outputs", Vars: shared}
	}
	assumptions = normalizeAlternatives(assumptions)
	guarantees = normalizeAlternatives(guarantees)
	for _, a := range assumptions {
		if out := VarDiff(a.Vars(), inputs); len(out) > 0 {
			return zero, &InterfaceError{Op: "new compound contract", Msg: "assumptions reference non-input variables", Vars: out}
		}
	}
	io := VarUnion(inputs, outputs)
	for _, g := range guarantees {
		if out := VarDiff(g.Vars(), io); len(out) > 0 {
			return zero, &InterfaceError{Op: "new compound contract", Msg: "guarantees reference undeclared variables", Vars: out}
		}
	}
	return Compound[T]{
		inputs:  append([]Var(nil), inputs...),
		outputs: append([]Var(nil), outputs...),
		a:       assumptions,
		g:       guarantees,
	}, nil
}

// normalizeAlternatives guarantees at least one alternative, so that
// combination enumeration is never vacuous.
func normalizeAlternatives[T TermSet[T]](alts []T) []T {
	if len(alts) == 0 {
		var tt T
		return []T{tt}
	}
	return append([]T(nil), alts...)
}

// CompoundFrom lifts a plain contract into a compound one with a single
// alternative on each side.
func CompoundFrom[T TermSet[T]](c Contract[T]) Compound[T] {
	return Compound[T]{
		inputs:  c.Inputs(),
		outputs: c.Outputs(),
		a:       []T{c.a},
		g:       []T{c.g},
	}
}

// Inputs returns a copy of the contract's input variables.
func (c Compound[T]) Inputs() []Var {
	return append([]Var(nil), c.inputs...)
}

// Outputs returns a copy of the contract's output variables.
func (c Compound[T]) Outputs() []Var {
	return append([]Var(nil), c.outputs...)
}

// Assumptions returns the assumption alternatives.
func (c Compound[T]) Assumptions() []T {
	return append([]T(nil), c.a...)
}

// Guarantees returns the guarantee alternatives.
func (c Compound[T]) Guarantees() []T {
	return append([]T(nil), c.g...)
}

func (c Compound[T]) String() string {
	return fmt.Sprintf("InVars: %s\nOutVars: %s\nA: %s\nG: %s",
		varNames(c.inputs), varNames(c.outputs), joinAlternatives(c.a), joinAlternatives(c.g))
}

func joinAlternatives[T TermSet[T]](alts []T) string {
	s := ""
	for i, alt := range alts {
		if i > 0 {
			s += " or "
		}
		s += "(" + alt.String() + ")"
	}
	return s
}

// combo indexes one choice of assumption and guarantee alternative on each
// side of a binary operator.
type combo struct {
	selfA, selfG, otherA, otherG int
}

type comboResult[T TermSet[T]] struct {
	contract Contract[T]
	err      error
}

// combineWith enumerates the Cartesian product of alternatives, applies op
// to every combination concurrently, and keeps the survivors. Result
// collection is sequential in combination order, so the output does not
// depend on completion order.
func (c Compound[T]) combineWith(
	other Compound[T],
	opName string,
	op func(Contract[T], Contract[T]) (Contract[T], error),
	opts ...Option,
) (Compound[T], error) {
	var zero Compound[T]
	cfg, err := newConfig(opts...)
	if err != nil {
		return zero, err
	}

	var combos []combo
	for ia := range c.a {
		for ig := range c.g {
			for ja := range other.a {
				for jg := range other.g {
					combos = append(combos, combo{ia, ig, ja, jg})
				}
			}
		}
	}

	results := make([]comboResult[T], len(combos))
	grp := new(errgroup.Group)
	grp.SetLimit(cfg.nbTasks)
	for idx, cb := range combos {
		idx, cb := idx, cb
		grp.Go(func() error {
			results[idx] = c.evalCombo(other, cb, op)
			return nil
		})
	}
	_ = grp.Wait()

	var (
		aAlts, gAlts     []T
		inputs, outputs  []Var
		firstErr         error
		firstElimination error
		gotResult        bool
	)
	for _, res := range results {
		if res.err != nil {
			if errors.Is(res.err, ErrResourceLimit) {
				return zero, res.err
			}
			var elimErr *EliminationError
			if firstElimination == nil && errors.As(res.err, &elimErr) {
				firstElimination = res.err
			}
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		if !gotResult {
			gotResult = true
			inputs = res.contract.Inputs()
			outputs = res.contract.Outputs()
		}
		aAlts = appendAlternative(aAlts, res.contract.a)
		gAlts = appendAlternative(gAlts, res.contract.g)
	}
	if !gotResult {
		err := firstElimination
		if err == nil {
			err = firstErr
		}
		if err == nil {
			err = fmt.Errorf("%s: no combination to evaluate", opName)
		}
		return zero, fmt.Errorf("%s: all combinations failed: %w", opName, err)
	}
	return NewCompound(aAlts, gAlts, inputs, outputs)
}

// evalCombo builds the two plain contracts selected by cb and applies op.
// A combination whose resulting assumptions are infeasible is pruned.
func (c Compound[T]) evalCombo(
	other Compound[T],
	cb combo,
	op func(Contract[T], Contract[T]) (Contract[T], error),
) comboResult[T] {
	self, err := New(c.a[cb.selfA], c.g[cb.selfG], c.inputs, c.outputs)
	if err != nil {
		return comboResult[T]{err: err}
	}
	rhs, err := New(other.a[cb.otherA], other.g[cb.otherG], other.inputs, other.outputs)
	if err != nil {
		return comboResult[T]{err: err}
	}
	res, err := op(self, rhs)
	if err != nil {
		return comboResult[T]{err: err}
	}
	if empty, err := res.a.IsEmpty(); err != nil {
		return comboResult[T]{err: err}
	} else if empty {
		return comboResult[T]{err: fmt.Errorf("combination assumptions: %w", ErrInfeasible)}
	}
	return comboResult[T]{contract: res}
}

func appendAlternative[T TermSet[T]](alts []T, alt T) []T {
	for _, existing := range alts {
		if existing.Equal(alt) {
			return alts
		}
	}
	return append(alts, alt)
}

// Compose lifts Contract.Compose over all alternative combinations.
func (c Compound[T]) Compose(other Compound[T], opts ...Option) (Compound[T], error) {
	return c.combineWith(other, "compose", Contract[T].Compose, opts...)
}

// Quotient lifts Contract.Quotient over all alternative combinations.
func (c Compound[T]) Quotient(other Compound[T], opts ...Option) (Compound[T], error) {
	return c.combineWith(other, "quotient", Contract[T].Quotient, opts...)
}

// Merge lifts Contract.Merge over all alternative combinations.
func (c Compound[T]) Merge(other Compound[T], opts ...Option) (Compound[T], error) {
	return c.combineWith(other, "merge", Contract[T].Merge, opts...)
}

// Refines reports whether c can substitute for other. Both conditions are
// checked alternative-wise: every environment other admits must be admitted
// by some assumption alternative of c, and every behavior c may exhibit
// must land in some guarantee alternative of other.
func (c Compound[T]) Refines(other Compound[T]) (bool, error) {
	if !VarsEqual(c.inputs, other.inputs) || !VarsEqual(c.outputs, other.outputs) {
		return false, nil
	}
	for _, otherA := range other.a {
		covered := false
		for _, selfA := range c.a {
			ok, err := otherA.Refines(selfA)
			if err != nil {
				return false, err
			}
			if ok {
				covered = true
				break
			}
		}
		if !covered {
			return false, nil
		}
	}
	for _, selfA := range c.a {
		for _, selfG := range c.g {
			behavior := selfA.Union(selfG)
			contained := false
			for _, otherG := range other.g {
				ok, err := behavior.Refines(otherG)
				if err != nil {
					return false, err
				}
				if ok {
					contained = true
					break
				}
			}
			if !contained {
				return false, nil
			}
		}
	}
	return true, nil
}
