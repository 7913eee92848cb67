// Package polyhedral implements the polyhedral constraint theory behind
// pacta's contract algebra: linear inequality and equality terms over named
// variables, conjunctive term lists describing convex regions, and the
// Fourier-Motzkin elimination engine used by the contract operators.
package polyhedral

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pacta-dev/pacta/iocontract"
)

// tolerance is the absolute tolerance under which two floating-point
// quantities are considered equal.
const tolerance = 1e-8

// Relation discriminates the two supported constraint relations.
type Relation uint8

const (
	// LEQ is a less-or-equal constraint: sum + constant <= 0.
	LEQ Relation = iota
	// EQ is an equality constraint: sum + constant == 0.
	EQ
)

func (r Relation) String() string {
	if r == EQ {
		return "="
	}
	return "<="
}

// Term is one linear constraint in canonical form:
//
//	sum_v coeffs[v]*v + constant  <= 0   (LEQ)
//	sum_v coeffs[v]*v + constant  == 0   (EQ)
//
// Zero coefficients are dropped, and equalities are oriented so that the
// coefficient of the lexicographically smallest variable is positive, so
// structurally equal constraints compare equal. Terms are immutable.
type Term struct {
	coeffs   map[iocontract.Var]float64
	constant float64
	rel      Relation
}

// NewTerm builds a canonical term from a coefficient map, a constant, and a
// relation. The map is copied.
func NewTerm(coeffs map[iocontract.Var]float64, constant float64, rel Relation) Term {
	cp := make(map[iocontract.Var]float64, len(coeffs))
	for v, c := range coeffs {
		if math.Abs(c) > tolerance {
			cp[v] = c
		}
	}
	t := Term{coeffs: cp, constant: constant, rel: rel}
	t.orient()
	return t
}

// orient normalizes the sign of equalities in place. Called only on terms
// not yet shared.
func (t *Term) orient() {
	if t.rel != EQ {
		return
	}
	if len(t.coeffs) == 0 {
		t.constant = math.Abs(t.constant)
		return
	}
	lead := t.leadVar()
	if t.coeffs[lead] < 0 {
		for v, c := range t.coeffs {
			t.coeffs[v] = -c
		}
		t.constant = -t.constant
	}
}

func (t Term) leadVar() iocontract.Var {
	var lead iocontract.Var
	first := true
	for v := range t.coeffs {
		if first || v.Less(lead) {
			lead = v
			first = false
		}
	}
	return lead
}

// Vars returns the variables with nonzero coefficient, sorted by name.
func (t Term) Vars() []iocontract.Var {
	vs := make([]iocontract.Var, 0, len(t.coeffs))
	for v := range t.coeffs {
		vs = append(vs, v)
	}
	return iocontract.SortVars(vs)
}

// Coeff returns the coefficient of v, zero if absent.
func (t Term) Coeff(v iocontract.Var) float64 {
	return t.coeffs[v]
}

// Constant returns the term's constant.
func (t Term) Constant() float64 {
	return t.constant
}

// Rel returns the term's relation.
func (t Term) Rel() Relation {
	return t.rel
}

// ContainsVar reports whether v appears in the term.
func (t Term) ContainsVar(v iocontract.Var) bool {
	_, ok := t.coeffs[v]
	return ok
}

// IsConstant reports whether the term references no variable.
func (t Term) IsConstant() bool {
	return len(t.coeffs) == 0
}

// IsTautology reports whether the term holds for every assignment.
func (t Term) IsTautology() bool {
	if !t.IsConstant() {
		return false
	}
	if t.rel == EQ {
		return math.Abs(t.constant) <= tolerance
	}
	return t.constant <= tolerance
}

// IsContradiction reports whether the term holds for no assignment.
func (t Term) IsContradiction() bool {
	return t.IsConstant() && !t.IsTautology()
}

// Eval evaluates the term's left-hand side at the given assignment. It
// fails when a referenced variable is unassigned.
func (t Term) Eval(point map[iocontract.Var]float64) (float64, error) {
	val := t.constant
	for v, c := range t.coeffs {
		x, ok := point[v]
		if !ok {
			return 0, fmt.Errorf("variable %s has no assigned value", v)
		}
		val += c * x
	}
	return val, nil
}

// Contains reports whether the assignment satisfies the term.
func (t Term) Contains(point map[iocontract.Var]float64) (bool, error) {
	val, err := t.Eval(point)
	if err != nil {
		return false, err
	}
	if t.rel == EQ {
		return math.Abs(val) <= tolerance, nil
	}
	return val <= tolerance, nil
}

// RenameVar returns the term with from replaced by to. Coefficients are
// merged if to already appears.
func (t Term) RenameVar(from, to iocontract.Var) Term {
	c, ok := t.coeffs[from]
	if !ok {
		return t
	}
	cp := make(map[iocontract.Var]float64, len(t.coeffs))
	for v, cf := range t.coeffs {
		if v != from {
			cp[v] = cf
		}
	}
	cp[to] += c
	return NewTerm(cp, t.constant, t.rel)
}

// Equal reports structural equality up to the numeric tolerance.
func (t Term) Equal(other Term) bool {
	if t.rel != other.rel || len(t.coeffs) != len(other.coeffs) {
		return false
	}
	if math.Abs(t.constant-other.constant) > tolerance {
		return false
	}
	for v, c := range t.coeffs {
		oc, ok := other.coeffs[v]
		if !ok || math.Abs(c-oc) > tolerance {
			return false
		}
	}
	return true
}

// addScaled returns t + f*other, keeping t's relation. Callers are
// responsible for the soundness of the combination (other must be an
// equality, or the sign of f must preserve the inequality direction).
func (t Term) addScaled(other Term, f float64) Term {
	cp := make(map[iocontract.Var]float64, len(t.coeffs)+len(other.coeffs))
	for v, c := range t.coeffs {
		cp[v] = c
	}
	for v, c := range other.coeffs {
		cp[v] += f * c
	}
	return NewTerm(cp, t.constant+f*other.constant, t.rel)
}

// combine pairs a lower and an upper bound on v into a v-free inequality:
// both terms are scaled to a unit v coefficient and summed.
func combine(lower, upper Term, v iocontract.Var) Term {
	al := lower.coeffs[v] // negative
	au := upper.coeffs[v] // positive
	cp := make(map[iocontract.Var]float64, len(lower.coeffs)+len(upper.coeffs))
	for w, c := range lower.coeffs {
		cp[w] = c / -al
	}
	for w, c := range upper.coeffs {
		cp[w] += c / au
	}
	return NewTerm(cp, lower.constant/-al+upper.constant/au, LEQ)
}

// key returns a canonical signature used for deduplication. Coefficients
// are rounded to 10 significant digits so float dust does not split
// buckets.
func (t Term) key() string {
	vs := t.Vars()
	var sb strings.Builder
	for _, v := range vs {
		sb.WriteString(v.Name())
		sb.WriteByte(':')
		sb.WriteString(fmtNum(t.coeffs[v]))
		sb.WriteByte(';')
	}
	sb.WriteString(fmtNum(t.constant))
	sb.WriteByte(';')
	sb.WriteString(t.rel.String())
	return sb.String()
}

func fmtNum(f float64) string {
	if f == 0 {
		// avoid "-0"
		return "0"
	}
	return strconv.FormatFloat(f, 'g', 10, 64)
}

// String renders the term with the constant moved to the right-hand side,
// e.g. "2*x + y <= 3" or "x - y = 0".
func (t Term) String() string {
	return t.lhs() + " " + t.rel.String() + " " + fmtNum(-t.constant)
}

// lhs renders the variable side of the term.
func (t Term) lhs() string {
	vs := t.Vars()
	if len(vs) == 0 {
		return "0"
	}
	var sb strings.Builder
	for i, v := range vs {
		c := t.coeffs[v]
		switch {
		case i == 0 && c < 0:
			sb.WriteString("-")
		case i > 0 && c < 0:
			sb.WriteString(" - ")
		case i > 0:
			sb.WriteString(" + ")
		}
		if abs := math.Abs(c); math.Abs(abs-1) > tolerance {
			sb.WriteString(fmtNum(abs))
			sb.WriteString("*")
		}
		sb.WriteString(v.Name())
	}
	return sb.String()
}

// sortTermsStable orders terms by canonical key; used where iteration must
// not depend on map order.
func sortTermsStable(ts []Term) {
	sort.SliceStable(ts, func(i, j int) bool { return ts[i].key() < ts[j].key() })
}
