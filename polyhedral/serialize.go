package polyhedral

import "math"

// ToStrings renders the list as constraint strings the parser accepts.
// Opposite pairs of inequalities are folded back into their compact
// spellings: an exact opposite pair becomes an equality, and a pair
// bounding an expression symmetrically becomes an absolute value.
func (l TermList) ToStrings() []string {
	rest := l.Terms()
	var out []string
	for len(rest) > 0 {
		t := rest[0]
		rest = rest[1:]
		if t.rel == EQ {
			out = append(out, t.String())
			continue
		}
		matched := false
		for i, u := range rest {
			if !oppositeTerms(t, u) {
				continue
			}
			switch {
			case approxEqual(t.constant, -u.constant):
				// t: e <= c, u: -e <= -c, together e = c.
				out = append(out, t.lhs()+" = "+fmtNum(-t.constant))
			case approxEqual(t.constant, 0) && approxEqual(u.constant, 0):
				out = append(out, "|"+t.lhs()+"| = 0")
			case approxEqual(t.constant, u.constant):
				// t: e <= c, u: -e <= c, together |e| <= c.
				out = append(out, "|"+t.lhs()+"| <= "+fmtNum(-t.constant))
			default:
				continue
			}
			rest = append(rest[:i], rest[i+1:]...)
			matched = true
			break
		}
		if !matched {
			out = append(out, t.String())
		}
	}
	return out
}

// oppositeTerms reports whether both inequalities constrain exactly
// opposite expressions, ignoring the constants.
func oppositeTerms(t, u Term) bool {
	if t.rel != LEQ || u.rel != LEQ || len(t.coeffs) != len(u.coeffs) {
		return false
	}
	for v, c := range t.coeffs {
		uc, ok := u.coeffs[v]
		if !ok || !approxEqual(c, -uc) {
			return false
		}
	}
	return true
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= tolerance+1e-5*math.Abs(b)
}
