package iocontract

import (
	"sort"
	"strings"
)

// Var names one dimension of the constraint space. Two Var values are the
// same variable iff their names are equal; ordering is lexicographic by
// name, which fixes iteration order everywhere determinism matters.
type Var struct {
	name string
}

// V returns the variable with the given name.
func V(name string) Var {
	return Var{name: name}
}

// Vars builds a variable slice from names, in the order given.
func Vars(names ...string) []Var {
	vs := make([]Var, len(names))
	for i, n := range names {
		vs[i] = Var{name: n}
	}
	return vs
}

// Name returns the name of the variable.
func (v Var) Name() string {
	return v.name
}

func (v Var) String() string {
	return v.name
}

// Less reports whether v sorts before w.
func (v Var) Less(w Var) bool {
	return v.name < w.name
}

// SortVars sorts the slice in place by name and returns it.
func SortVars(vs []Var) []Var {
	sort.Slice(vs, func(i, j int) bool { return vs[i].name < vs[j].name })
	return vs
}

// VarUnion returns the set union of the arguments. The result preserves the
// order of first appearance.
func VarUnion(sets ...[]Var) []Var {
	var res []Var
	seen := make(map[Var]struct{})
	for _, set := range sets {
		for _, v := range set {
			if _, ok := seen[v]; !ok {
				seen[v] = struct{}{}
				res = append(res, v)
			}
		}
	}
	return res
}

// VarIntersection returns the elements of a that also appear in b, in the
// order they appear in a.
func VarIntersection(a, b []Var) []Var {
	inB := make(map[Var]struct{}, len(b))
	for _, v := range b {
		inB[v] = struct{}{}
	}
	var res []Var
	seen := make(map[Var]struct{})
	for _, v := range a {
		if _, ok := inB[v]; ok {
			if _, dup := seen[v]; !dup {
				seen[v] = struct{}{}
				res = append(res, v)
			}
		}
	}
	return res
}

// VarDiff returns the elements of a that do not appear in b, in the order
// they appear in a.
func VarDiff(a, b []Var) []Var {
	inB := make(map[Var]struct{}, len(b))
	for _, v := range b {
		inB[v] = struct{}{}
	}
	var res []Var
	seen := make(map[Var]struct{})
	for _, v := range a {
		if _, ok := inB[v]; ok {
			continue
		}
		if _, dup := seen[v]; !dup {
			seen[v] = struct{}{}
			res = append(res, v)
		}
	}
	return res
}

// VarsEqual reports whether a and b contain the same variables, regardless
// of order and multiplicity.
func VarsEqual(a, b []Var) bool {
	return len(VarDiff(a, b)) == 0 && len(VarDiff(b, a)) == 0
}

// ContainsVar reports whether set contains v.
func ContainsVar(set []Var, v Var) bool {
	for _, w := range set {
		if w == v {
			return true
		}
	}
	return false
}

func varNames(vs []Var) string {
	names := make([]string, len(vs))
	for i, v := range vs {
		names[i] = v.name
	}
	return "[" + strings.Join(names, ", ") + "]"
}
