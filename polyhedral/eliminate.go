package polyhedral

import (
	"fmt"
	"sync"
	"time"

	"github.com/bits-and-blooms/bitset"

	"github.com/pacta-dev/pacta/iocontract"
	"github.com/pacta-dev/pacta/logger"
)

// Limits bounds the work a single elimination is allowed to do. Variable
// elimination can square the number of inequalities at each step, so
// unbounded runs on adversarial inputs are unacceptable in a pipeline.
type Limits struct {
	// MaxTerms aborts a projection once an intermediate system exceeds
	// this many terms. Zero means the package default.
	MaxTerms int

	// Timeout aborts a projection running longer than this. Zero means
	// no deadline.
	Timeout time.Duration
}

const defaultMaxTerms = 1 << 14

var (
	limitsMu      sync.RWMutex
	currentLimits = Limits{MaxTerms: defaultMaxTerms}
)

// SetLimits replaces the package-wide elimination limits. It affects
// eliminations started after the call.
func SetLimits(l Limits) {
	limitsMu.Lock()
	if l.MaxTerms <= 0 {
		l.MaxTerms = defaultMaxTerms
	}
	currentLimits = l
	limitsMu.Unlock()
}

func getLimits() Limits {
	limitsMu.RLock()
	defer limitsMu.RUnlock()
	return currentLimits
}

// projector runs Fourier-Motzkin elimination under a budget snapshot. A
// projector is cheap and single-use per goroutine; it is not safe for
// concurrent use because of the fresh-variable counter.
type projector struct {
	limits   Limits
	deadline time.Time
	fresh    int
}

func newProjector() *projector {
	p := &projector{limits: getLimits()}
	if p.limits.Timeout > 0 {
		p.deadline = time.Now().Add(p.limits.Timeout)
	}
	return p
}

func (p *projector) freshVar() iocontract.Var {
	p.fresh++
	return iocontract.V(fmt.Sprintf("_b%d", p.fresh))
}

func (p *projector) checkBudget(n int) error {
	if n > p.limits.MaxTerms {
		return fmt.Errorf("elimination exceeded %d terms: %w", p.limits.MaxTerms, iocontract.ErrResourceLimit)
	}
	if !p.deadline.IsZero() && time.Now().After(p.deadline) {
		return fmt.Errorf("elimination exceeded %s: %w", p.limits.Timeout, iocontract.ErrResourceLimit)
	}
	return nil
}

// project eliminates the given variables from the system by
// Fourier-Motzkin. Equalities involving the variable are solved and
// substituted; remaining lower and upper bounds are paired. Tautologies
// are dropped, contradictions are kept so callers can detect
// infeasibility. The projection is exact: the result describes precisely
// the shadow of the input polyhedron on the remaining variables.
func (p *projector) project(terms []Term, elim []iocontract.Var) ([]Term, error) {
	cur := dedupTerms(terms)
	for _, v := range iocontract.SortVars(iocontract.VarUnion(elim)) {
		var err error
		cur, err = p.projectVar(cur, v)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

func (p *projector) projectVar(terms []Term, v iocontract.Var) ([]Term, error) {
	if err := p.checkBudget(len(terms)); err != nil {
		return nil, err
	}
	// An equality pins the variable; substituting it everywhere is both
	// exact and avoids the quadratic bound pairing.
	for i, t := range terms {
		if t.rel != EQ || !t.ContainsVar(v) {
			continue
		}
		res := make([]Term, 0, len(terms)-1)
		for j, u := range terms {
			if j == i {
				continue
			}
			if a := u.Coeff(v); a != 0 {
				u = u.addScaled(t, -a/t.Coeff(v))
			}
			if !u.IsTautology() {
				res = append(res, u)
			}
		}
		return dedupTerms(res), nil
	}

	lower := bitset.New(uint(len(terms)))
	upper := bitset.New(uint(len(terms)))
	var rest []Term
	for i, t := range terms {
		switch a := t.Coeff(v); {
		case a > 0:
			upper.Set(uint(i))
		case a < 0:
			lower.Set(uint(i))
		default:
			rest = append(rest, t)
		}
	}
	for li, lok := lower.NextSet(0); lok; li, lok = lower.NextSet(li + 1) {
		for ui, uok := upper.NextSet(0); uok; ui, uok = upper.NextSet(ui + 1) {
			c := combine(terms[li], terms[ui], v)
			if c.IsTautology() {
				continue
			}
			rest = append(rest, c)
			if err := p.checkBudget(len(rest)); err != nil {
				return nil, err
			}
		}
	}
	return dedupTerms(rest), nil
}

// feasible reports whether the system has a satisfying assignment, by
// projecting out every variable and checking the surviving constants.
func (p *projector) feasible(terms []Term) (bool, error) {
	var vs []iocontract.Var
	for _, t := range terms {
		vs = append(vs, t.Vars()...)
	}
	res, err := p.project(terms, iocontract.VarUnion(vs))
	if err != nil {
		return false, err
	}
	for _, t := range res {
		if t.IsContradiction() {
			return false, nil
		}
	}
	return true, nil
}

// implied reports whether the system entails the term. The term's
// left-hand side is bound to a fresh variable through an equality, every
// other variable is projected out, and the surviving bounds on the fresh
// variable are read off. An infeasible system implies everything.
func (p *projector) implied(lhs []Term, t Term) (bool, error) {
	if t.IsTautology() {
		return true, nil
	}
	z := p.freshVar()
	coeffs := make(map[iocontract.Var]float64, len(t.coeffs)+1)
	for v, c := range t.coeffs {
		coeffs[v] = c
	}
	coeffs[z] = -1
	zt := NewTerm(coeffs, t.constant, EQ)

	system := append(append([]Term(nil), lhs...), zt)
	var vs []iocontract.Var
	for _, u := range system {
		vs = append(vs, u.Vars()...)
	}
	elim := iocontract.VarDiff(iocontract.VarUnion(vs), []iocontract.Var{z})
	res, err := p.project(system, elim)
	if err != nil {
		return false, err
	}

	var (
		ub, lb       float64
		hasUB, hasLB bool
	)
	for _, r := range res {
		if r.IsContradiction() {
			return true, nil
		}
		a := r.Coeff(z)
		if a == 0 {
			continue
		}
		// a*z + k (<=|=) 0, so z bounded by -k/a.
		b := -r.constant / a
		if r.rel == EQ {
			if !hasUB || b < ub {
				ub, hasUB = b, true
			}
			if !hasLB || b > lb {
				lb, hasLB = b, true
			}
			continue
		}
		if a > 0 {
			if !hasUB || b < ub {
				ub, hasUB = b, true
			}
		} else {
			if !hasLB || b > lb {
				lb, hasLB = b, true
			}
		}
	}
	if t.rel == EQ {
		return hasUB && ub <= tolerance && hasLB && lb >= -tolerance, nil
	}
	return hasUB && ub <= tolerance, nil
}

// ElimByRelaxing eliminates the variables by weakening: the conjunction
// of the receiver and the context is projected onto the remaining
// variables, so every behavior allowed before is still allowed after.
func (l TermList) ElimByRelaxing(context TermList, elim []iocontract.Var) (TermList, error) {
	log := logger.Logger()
	log.Trace().Stringer("terms", l).Stringer("context", context).Str("elim", varListString(elim)).Msg("relaxing")
	p := newProjector()
	projected, err := p.project(append(l.Terms(), context.terms...), elim)
	if err != nil {
		return TermList{}, err
	}
	return NewTermList(projected...).Simplify(context)
}

// ElimByRefining eliminates the variables by strengthening: each term is
// rewritten with substitutions justified by context facts, so every
// behavior allowed after was already allowed before. Equality facts
// substitute exactly; inequality facts apply only to inequality terms and
// only when the variable's coefficient has the same sign in both, which
// makes the substitution a tightening. A variable no fact can remove
// yields an EliminationError.
func (l TermList) ElimByRefining(context TermList, elim []iocontract.Var) (TermList, error) {
	log := logger.Logger()
	log.Trace().Stringer("terms", l).Stringer("context", context).Str("elim", varListString(elim)).Msg("refining")
	vars := iocontract.SortVars(iocontract.VarUnion(elim))
	terms := make([]Term, 0, len(l.terms))
	var stuck []iocontract.Var
	for _, t := range l.terms {
		work := t
		// A substitution may reintroduce a variable handled earlier in
		// the pass, so iterate until no substitution applies.
		for pass := 0; pass <= len(vars); pass++ {
			progress := false
			for _, v := range vars {
				if !work.ContainsVar(v) {
					continue
				}
				if next, ok := substitute(work, v, context.terms); ok {
					work = next
					progress = true
				}
			}
			if !progress {
				break
			}
		}
		for _, v := range vars {
			if work.ContainsVar(v) {
				stuck = append(stuck, v)
			}
		}
		if !work.IsTautology() {
			terms = append(terms, work)
		}
	}
	if len(stuck) > 0 {
		return TermList{}, iocontract.NewEliminationError(iocontract.SortVars(iocontract.VarUnion(stuck)), context.String(), nil)
	}
	return NewTermList(terms...).Simplify(context)
}

// substitute removes v from t using one of the facts, returning false when
// no fact yields a sound, non-contradictory result.
func substitute(t Term, v iocontract.Var, facts []Term) (Term, bool) {
	a := t.Coeff(v)
	for _, q := range facts {
		qa := q.Coeff(v)
		if qa == 0 {
			continue
		}
		if q.rel != EQ {
			// An upper bound on a positively-weighted variable (and
			// symmetrically) tightens an inequality; anything else would
			// weaken it or break an equality.
			if t.rel != LEQ || a*qa <= 0 {
				continue
			}
		}
		cand := t.addScaled(q, -a/qa)
		if cand.IsContradiction() {
			continue
		}
		return cand, true
	}
	return t, false
}

func varListString(vs []iocontract.Var) string {
	names := make([]string, len(vs))
	for i, v := range vs {
		names[i] = v.Name()
	}
	return fmt.Sprintf("%v", names)
}
