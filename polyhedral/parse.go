package polyhedral

import (
	"fmt"
	"strconv"
	"unicode"

	"github.com/pacta-dev/pacta/iocontract"
)

// ParseTermList parses each constraint string and returns the conjunction
// of all resulting terms.
func ParseTermList(constraints []string) (TermList, error) {
	var terms []Term
	for _, s := range constraints {
		ts, err := ParseConstraint(s)
		if err != nil {
			return TermList{}, err
		}
		terms = append(terms, ts...)
	}
	return NewTermList(terms...), nil
}

// ParseConstraint parses a single linear constraint into terms. The syntax
// covers linear expressions with implicit multiplication ("2x"),
// parenthesized groups, absolute values with a non-negative multiplier
// ("3|x - y|"), the relations "<=", ">=", "=" and "==", and chained
// comparisons ("0 <= x <= 1"), which split into one constraint per
// adjacent pair. An absolute value is expanded into the conjunction of its
// sign combinations, so it must occur positively; "|e| = 0" is the only
// absolute-value equality accepted.
func ParseConstraint(s string) ([]Term, error) {
	toks, err := lex(s)
	if err != nil {
		return nil, err
	}
	p := &parser{input: s, toks: toks}
	terms, err := p.parseConstraint()
	if err != nil {
		return nil, err
	}
	return terms, nil
}

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokLParen
	tokRParen
	tokBar
	tokLEQ
	tokGEQ
	tokEQ
)

type token struct {
	kind tokenKind
	val  string
	num  float64
	pos  int
}

func lex(s string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c >= '0' && c <= '9' || c == '.':
			j := i
			for j < len(s) && (s[j] >= '0' && s[j] <= '9' || s[j] == '.') {
				j++
			}
			if j < len(s) && (s[j] == 'e' || s[j] == 'E') {
				k := j + 1
				if k < len(s) && (s[k] == '+' || s[k] == '-') {
					k++
				}
				if k < len(s) && s[k] >= '0' && s[k] <= '9' {
					for k < len(s) && s[k] >= '0' && s[k] <= '9' {
						k++
					}
					j = k
				}
			}
			f, err := strconv.ParseFloat(s[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("parsing %q: invalid number %q", s, s[i:j])
			}
			toks = append(toks, token{kind: tokNumber, val: s[i:j], num: f, pos: i})
			i = j
		case isIdentStart(rune(c)):
			j := i + 1
			for j < len(s) && isIdentPart(rune(s[j])) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, val: s[i:j], pos: i})
			i = j
		case c == '<' && i+1 < len(s) && s[i+1] == '=':
			toks = append(toks, token{kind: tokLEQ, val: "<=", pos: i})
			i += 2
		case c == '>' && i+1 < len(s) && s[i+1] == '=':
			toks = append(toks, token{kind: tokGEQ, val: ">=", pos: i})
			i += 2
		case c == '=':
			if i+1 < len(s) && s[i+1] == '=' {
				toks = append(toks, token{kind: tokEQ, val: "==", pos: i})
				i += 2
			} else {
				toks = append(toks, token{kind: tokEQ, val: "=", pos: i})
				i++
			}
		case c == '+':
			toks = append(toks, token{kind: tokPlus, val: "+", pos: i})
			i++
		case c == '-':
			toks = append(toks, token{kind: tokMinus, val: "-", pos: i})
			i++
		case c == '*':
			toks = append(toks, token{kind: tokStar, val: "*", pos: i})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, val: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, val: ")", pos: i})
			i++
		case c == '|':
			toks = append(toks, token{kind: tokBar, val: "|", pos: i})
			i++
		default:
			return nil, fmt.Errorf("parsing %q: unexpected character %q at position %d", s, c, i)
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(s)})
	return toks, nil
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// linExpr is a linear expression over variables plus a constant.
type linExpr struct {
	coeffs   map[iocontract.Var]float64
	constant float64
}

func (e *linExpr) addVar(v iocontract.Var, c float64) {
	if e.coeffs == nil {
		e.coeffs = make(map[iocontract.Var]float64)
	}
	e.coeffs[v] += c
}

func (e *linExpr) add(other linExpr, f float64) {
	for v, c := range other.coeffs {
		e.addVar(v, f*c)
	}
	e.constant += f * other.constant
}

// absExpr is an absolute-value group with a multiplier.
type absExpr struct {
	inner linExpr
	coeff float64
}

// sideExpr is one side of a comparison: a linear part plus absolute-value
// groups.
type sideExpr struct {
	lin linExpr
	abs []absExpr
}

func (e *sideExpr) add(other sideExpr, f float64) {
	e.lin.add(other.lin, f)
	for _, a := range other.abs {
		e.abs = append(e.abs, absExpr{inner: a.inner, coeff: f * a.coeff})
	}
}

type parser struct {
	input string
	toks  []token
	pos   int
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("parsing %q: %s", p.input, fmt.Sprintf(format, args...))
}

func (p *parser) parseConstraint() ([]Term, error) {
	first, err := p.parseSide()
	if err != nil {
		return nil, err
	}
	sides := []sideExpr{first}
	var rel tokenKind
	for p.peek().kind == tokLEQ || p.peek().kind == tokGEQ || p.peek().kind == tokEQ {
		op := p.next().kind
		if rel == tokEOF {
			rel = op
		} else if rel != op || rel == tokEQ {
			return nil, p.errorf("mixed or chained relations are limited to runs of <= or >=")
		}
		side, err := p.parseSide()
		if err != nil {
			return nil, err
		}
		sides = append(sides, side)
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf("unexpected %q at position %d", t.val, t.pos)
	}
	if rel == tokEOF {
		return nil, p.errorf("missing relation (expected <=, >= or =)")
	}
	return p.sidesToTerms(rel, sides)
}

// parseSide parses a sum of terms and absolute-value groups up to the next
// relation token.
func (p *parser) parseSide() (sideExpr, error) {
	var side sideExpr
	first := true
	for {
		sign := 1.0
		switch p.peek().kind {
		case tokPlus:
			p.next()
		case tokMinus:
			p.next()
			sign = -1.0
		default:
			if !first {
				return side, nil
			}
		}
		item, err := p.parseItem(sign)
		if err != nil {
			return sideExpr{}, err
		}
		side.add(item, 1)
		first = false
		switch p.peek().kind {
		case tokPlus, tokMinus:
			// next summand
		default:
			return side, nil
		}
	}
}

// parseItem parses one summand: a constant, a possibly-scaled variable or
// parenthesized group, or a possibly-scaled absolute value.
func (p *parser) parseItem(sign float64) (sideExpr, error) {
	var side sideExpr
	switch t := p.peek(); t.kind {
	case tokNumber:
		p.next()
		f := sign * t.num
		switch p.peek().kind {
		case tokStar:
			p.next()
			return p.parseScaled(f)
		case tokIdent, tokLParen, tokBar:
			return p.parseScaled(f)
		default:
			side.lin.constant = f
			return side, nil
		}
	case tokIdent:
		p.next()
		side.lin.addVar(iocontract.V(t.val), sign)
		return side, nil
	case tokLParen:
		inner, err := p.parseParen()
		if err != nil {
			return sideExpr{}, err
		}
		side.lin.add(inner, sign)
		return side, nil
	case tokBar:
		if sign < 0 {
			return sideExpr{}, p.errorf("negative absolute value at position %d is not convex", t.pos)
		}
		inner, err := p.parseAbs()
		if err != nil {
			return sideExpr{}, err
		}
		side.abs = append(side.abs, absExpr{inner: inner, coeff: sign})
		return side, nil
	default:
		return sideExpr{}, p.errorf("unexpected %q at position %d", t.val, t.pos)
	}
}

// parseScaled parses the target of a numeric coefficient.
func (p *parser) parseScaled(f float64) (sideExpr, error) {
	var side sideExpr
	switch t := p.peek(); t.kind {
	case tokIdent:
		p.next()
		side.lin.addVar(iocontract.V(t.val), f)
		return side, nil
	case tokLParen:
		inner, err := p.parseParen()
		if err != nil {
			return sideExpr{}, err
		}
		side.lin.add(inner, f)
		return side, nil
	case tokBar:
		if f < 0 {
			return sideExpr{}, p.errorf("negative absolute value at position %d is not convex", t.pos)
		}
		inner, err := p.parseAbs()
		if err != nil {
			return sideExpr{}, err
		}
		side.abs = append(side.abs, absExpr{inner: inner, coeff: f})
		return side, nil
	default:
		return sideExpr{}, p.errorf("expected variable, parenthesis or absolute value at position %d", t.pos)
	}
}

// parseParen parses "( terms )". Absolute values are not allowed inside.
func (p *parser) parseParen() (linExpr, error) {
	open := p.next() // consume (
	side, err := p.parseSide()
	if err != nil {
		return linExpr{}, err
	}
	if len(side.abs) > 0 {
		return linExpr{}, p.errorf("absolute value inside parentheses at position %d", open.pos)
	}
	if t := p.next(); t.kind != tokRParen {
		return linExpr{}, p.errorf("missing closing parenthesis for position %d", open.pos)
	}
	return side.lin, nil
}

// parseAbs parses "| terms |".
func (p *parser) parseAbs() (linExpr, error) {
	open := p.next() // consume |
	var lin linExpr
	first := true
	for {
		if p.peek().kind == tokBar {
			p.next()
			if first {
				return linExpr{}, p.errorf("empty absolute value at position %d", open.pos)
			}
			return lin, nil
		}
		sign := 1.0
		switch p.peek().kind {
		case tokPlus:
			p.next()
		case tokMinus:
			p.next()
			sign = -1.0
		default:
			if !first {
				return linExpr{}, p.errorf("missing closing bar for position %d", open.pos)
			}
		}
		item, err := p.parseItem(sign)
		if err != nil {
			return linExpr{}, err
		}
		if len(item.abs) > 0 {
			return linExpr{}, p.errorf("nested absolute value at position %d", open.pos)
		}
		lin.add(item.lin, 1)
		first = false
	}
}

// sidesToTerms turns a chain of comparison sides into canonical terms.
func (p *parser) sidesToTerms(rel tokenKind, sides []sideExpr) ([]Term, error) {
	var terms []Term
	if rel == tokEQ {
		var d sideExpr
		d.add(sides[0], 1)
		d.add(sides[1], -1)
		ts, err := p.equalityTerms(d)
		if err != nil {
			return nil, err
		}
		return ts, nil
	}
	for i := 0; i+1 < len(sides); i++ {
		var d sideExpr
		if rel == tokLEQ {
			d.add(sides[i], 1)
			d.add(sides[i+1], -1)
		} else {
			d.add(sides[i+1], 1)
			d.add(sides[i], -1)
		}
		ts, err := p.inequalityTerms(d)
		if err != nil {
			return nil, err
		}
		terms = append(terms, ts...)
	}
	return terms, nil
}

// inequalityTerms expands d <= 0 into plain terms, one per sign
// combination of the absolute-value groups.
func (p *parser) inequalityTerms(d sideExpr) ([]Term, error) {
	exprs := []linExpr{d.lin}
	for _, a := range d.abs {
		if a.coeff < 0 {
			return nil, p.errorf("negated absolute value is not convex")
		}
		if a.coeff == 0 {
			continue
		}
		next := make([]linExpr, 0, 2*len(exprs))
		for _, e := range exprs {
			pos := linExpr{coeffs: copyCoeffs(e.coeffs), constant: e.constant}
			pos.add(a.inner, a.coeff)
			neg := linExpr{coeffs: copyCoeffs(e.coeffs), constant: e.constant}
			neg.add(a.inner, -a.coeff)
			next = append(next, pos, neg)
		}
		exprs = next
	}
	terms := make([]Term, 0, len(exprs))
	for _, e := range exprs {
		t := NewTerm(e.coeffs, e.constant, LEQ)
		if t.IsContradiction() {
			return nil, p.errorf("constraint %s is unsatisfiable", t)
		}
		if !t.IsTautology() {
			terms = append(terms, t)
		}
	}
	return terms, nil
}

// equalityTerms turns d = 0 into terms. Absolute values are accepted only
// in the form |e| = 0, which pins e to zero.
func (p *parser) equalityTerms(d sideExpr) ([]Term, error) {
	nonzero := make([]absExpr, 0, len(d.abs))
	for _, a := range d.abs {
		if a.coeff != 0 {
			nonzero = append(nonzero, a)
		}
	}
	if len(nonzero) == 0 {
		t := NewTerm(d.lin.coeffs, d.lin.constant, EQ)
		if t.IsContradiction() {
			return nil, p.errorf("constraint %s is unsatisfiable", t)
		}
		if t.IsTautology() {
			return nil, nil
		}
		return []Term{t}, nil
	}
	if len(nonzero) == 1 && len(d.lin.coeffs) == 0 && d.lin.constant == 0 {
		t := NewTerm(nonzero[0].inner.coeffs, nonzero[0].inner.constant, EQ)
		if t.IsTautology() {
			return nil, nil
		}
		return []Term{t}, nil
	}
	return nil, p.errorf("absolute values in equalities are limited to the form |e| = 0")
}

func copyCoeffs(m map[iocontract.Var]float64) map[iocontract.Var]float64 {
	cp := make(map[iocontract.Var]float64, len(m))
	for v, c := range m {
		cp[v] = c
	}
	return cp
}

// MustParseTermList is ParseTermList for static constraint literals; it
// panics on malformed input.
func MustParseTermList(constraints ...string) TermList {
	l, err := ParseTermList(constraints)
	if err != nil {
		panic(fmt.Sprintf("polyhedral: %v", err))
	}
	return l
}
