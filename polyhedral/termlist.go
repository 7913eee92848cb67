package polyhedral

import (
	"fmt"
	"strings"

	"github.com/pacta-dev/pacta/iocontract"
)

// TermList is an ordered, duplicate-free conjunction of terms describing a
// (possibly unbounded) convex region. The zero value is the empty,
// trivially-true list. TermList implements iocontract.TermSet[TermList];
// all methods are value-semantic and never mutate the receiver.
type TermList struct {
	terms []Term
}

var _ iocontract.TermSet[TermList] = TermList{}

// NewTermList builds a list from the given terms, dropping structural
// duplicates while preserving first-appearance order.
func NewTermList(terms ...Term) TermList {
	return TermList{terms: dedupTerms(terms)}
}

func dedupTerms(ts []Term) []Term {
	if len(ts) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ts))
	res := make([]Term, 0, len(ts))
	for _, t := range ts {
		k := t.key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		res = append(res, t)
	}
	return res
}

// Terms returns a copy of the list's terms in iteration order.
func (l TermList) Terms() []Term {
	return append([]Term(nil), l.terms...)
}

// Len returns the number of terms.
func (l TermList) Len() int {
	return len(l.terms)
}

// IsTrue reports whether the list carries no constraints.
func (l TermList) IsTrue() bool {
	return len(l.terms) == 0
}

// Vars returns the variables referenced by any term, sorted by name.
func (l TermList) Vars() []iocontract.Var {
	var vs []iocontract.Var
	for _, t := range l.terms {
		vs = append(vs, t.Vars()...)
	}
	return iocontract.SortVars(iocontract.VarUnion(vs))
}

// TermsWithVars returns the sub-list of terms mentioning any of the given
// variables.
func (l TermList) TermsWithVars(vars []iocontract.Var) TermList {
	var res []Term
	for _, t := range l.terms {
		for _, v := range vars {
			if t.ContainsVar(v) {
				res = append(res, t)
				break
			}
		}
	}
	return TermList{terms: res}
}

// Union returns the deduplicated conjunction of both lists.
func (l TermList) Union(other TermList) TermList {
	return NewTermList(append(l.Terms(), other.terms...)...)
}

// Minus returns the receiver without the terms of other.
func (l TermList) Minus(other TermList) TermList {
	drop := make(map[string]struct{}, len(other.terms))
	for _, t := range other.terms {
		drop[t.key()] = struct{}{}
	}
	var res []Term
	for _, t := range l.terms {
		if _, ok := drop[t.key()]; !ok {
			res = append(res, t)
		}
	}
	return TermList{terms: res}
}

// RenameVar returns the list with every occurrence of from replaced by to.
func (l TermList) RenameVar(from, to iocontract.Var) TermList {
	res := make([]Term, len(l.terms))
	for i, t := range l.terms {
		res[i] = t.RenameVar(from, to)
	}
	return NewTermList(res...)
}

// Equal reports whether both lists contain the same terms, regardless of
// order.
func (l TermList) Equal(other TermList) bool {
	if len(l.terms) != len(other.terms) {
		return false
	}
	keys := make(map[string]struct{}, len(l.terms))
	for _, t := range l.terms {
		keys[t.key()] = struct{}{}
	}
	for _, t := range other.terms {
		if _, ok := keys[t.key()]; !ok {
			return false
		}
	}
	return true
}

// Contains reports whether the assignment satisfies every term. It fails
// when the assignment leaves a referenced variable unassigned.
func (l TermList) Contains(point map[iocontract.Var]float64) (bool, error) {
	for _, t := range l.terms {
		ok, err := t.Contains(point)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// IsEmpty reports whether the constraints have no satisfying assignment.
func (l TermList) IsEmpty() (bool, error) {
	p := newProjector()
	feasible, err := p.feasible(l.terms)
	return !feasible, err
}

// Refines reports whether the region described by the receiver is
// contained in the region described by other: every term of other must be
// implied by the receiver.
func (l TermList) Refines(other TermList) (bool, error) {
	if other.IsTrue() {
		return true, nil
	}
	empty, err := l.IsEmpty()
	if err != nil {
		return false, err
	}
	if empty {
		return true, nil
	}
	p := newProjector()
	for _, t := range other.terms {
		ok, err := p.implied(l.terms, t)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Simplify removes terms that are redundant given the remaining terms and
// the context. It fails wrapping iocontract.ErrInfeasible when the list
// contradicts the context.
func (l TermList) Simplify(context TermList) (TermList, error) {
	p := newProjector()
	feasible, err := p.feasible(append(l.Terms(), context.terms...))
	if err != nil {
		return TermList{}, err
	}
	if !feasible {
		return TermList{}, fmt.Errorf("constraints %s are unsatisfiable in context %s: %w", l, context, iocontract.ErrInfeasible)
	}
	terms := make([]Term, 0, len(l.terms))
	for _, t := range l.terms {
		if !t.IsTautology() {
			terms = append(terms, t)
		}
	}
	for i := 0; i < len(terms); {
		rest := make([]Term, 0, len(terms)-1+len(context.terms))
		rest = append(rest, terms[:i]...)
		rest = append(rest, terms[i+1:]...)
		rest = append(rest, context.terms...)
		redundant, err := p.implied(rest, terms[i])
		if err != nil {
			return TermList{}, err
		}
		if redundant {
			terms = append(terms[:i], terms[i+1:]...)
		} else {
			i++
		}
	}
	return TermList{terms: terms}, nil
}

func (l TermList) String() string {
	if len(l.terms) == 0 {
		return "true"
	}
	parts := make([]string, len(l.terms))
	for i, t := range l.terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
