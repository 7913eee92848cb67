package polyhedral

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/pacta-dev/pacta/iocontract"
)

func TestIsEmpty(t *testing.T) {
	assert := require.New(t)

	empty, err := MustParseTermList("x <= 1", "-x <= -2").IsEmpty()
	assert.NoError(err)
	assert.True(empty)

	empty, err = MustParseTermList("x <= 1", "-x <= 0").IsEmpty()
	assert.NoError(err)
	assert.False(empty)

	empty, err = TermList{}.IsEmpty()
	assert.NoError(err)
	assert.False(empty)

	// Equalities participate in feasibility.
	empty, err = MustParseTermList("x = 1", "x <= 0").IsEmpty()
	assert.NoError(err)
	assert.True(empty)
}

func TestRefines(t *testing.T) {
	assert := require.New(t)

	check := func(self, other TermList, want bool) {
		t.Helper()
		got, err := self.Refines(other)
		assert.NoError(err)
		assert.Equal(want, got, "%s refines %s", self, other)
	}

	check(MustParseTermList("x <= 1"), MustParseTermList("x <= 2"), true)
	check(MustParseTermList("x <= 2"), MustParseTermList("x <= 1"), false)
	check(MustParseTermList("x = 1"), MustParseTermList("x <= 1"), true)
	check(MustParseTermList("x <= 1", "-x <= -1"), MustParseTermList("x = 1"), true)
	check(MustParseTermList("x <= 1"), MustParseTermList("x = 1"), false)
	check(MustParseTermList("x + y <= 1", "-y <= 0"), MustParseTermList("x <= 1"), true)

	// Anything refines the trivially-true list, and an infeasible list
	// refines anything.
	check(MustParseTermList("x <= 1"), TermList{}, true)
	check(MustParseTermList("x <= 0", "-x <= -1"), MustParseTermList("y = 5"), true)
}

func TestSimplifyRemovesRedundancy(t *testing.T) {
	assert := require.New(t)

	got, err := MustParseTermList("x <= 1", "x <= 2").Simplify(TermList{})
	assert.NoError(err)
	assert.True(got.Equal(MustParseTermList("x <= 1")), "got %s", got)

	// Terms implied by the context alone are removed too.
	got, err = MustParseTermList("x <= 3", "y <= 0").Simplify(MustParseTermList("x <= 1"))
	assert.NoError(err)
	assert.True(got.Equal(MustParseTermList("y <= 0")), "got %s", got)
}

func TestSimplifyInfeasibleContext(t *testing.T) {
	_, err := MustParseTermList("x <= 0").Simplify(MustParseTermList("-x <= -1"))
	require.Error(t, err)
	require.ErrorIs(t, err, iocontract.ErrInfeasible)
}

func TestElimByRelaxingProjects(t *testing.T) {
	assert := require.New(t)

	got, err := MustParseTermList("x - y <= 0").ElimByRelaxing(
		MustParseTermList("y <= 1"), iocontract.Vars("y"))
	assert.NoError(err)
	assert.True(got.Equal(MustParseTermList("x <= 1")), "got %s", got)

	// An equality on the eliminated variable substitutes exactly.
	got, err = MustParseTermList("x - 2y <= 0").ElimByRelaxing(
		MustParseTermList("y = 1"), iocontract.Vars("y"))
	assert.NoError(err)
	assert.True(got.Equal(MustParseTermList("x <= 2")), "got %s", got)
}

func TestElimByRefiningSubstitutes(t *testing.T) {
	assert := require.New(t)

	// Equality facts substitute regardless of sign.
	got, err := MustParseTermList("y <= 2").ElimByRefining(
		MustParseTermList("y - x = 0"), iocontract.Vars("y"))
	assert.NoError(err)
	assert.True(got.Equal(MustParseTermList("x <= 2")), "got %s", got)

	// Inequality facts tighten when the eliminated coefficient has the
	// same sign on both sides.
	got, err = MustParseTermList("y <= 1").ElimByRefining(
		MustParseTermList("y - x <= 0"), iocontract.Vars("y"))
	assert.NoError(err)
	assert.True(got.Equal(MustParseTermList("x <= 1")), "got %s", got)
}

func TestElimByRefiningFailsWithoutFacts(t *testing.T) {
	_, err := MustParseTermList("y <= 1").ElimByRefining(
		MustParseTermList("x <= 0"), iocontract.Vars("y"))
	require.Error(t, err)
	var elimErr *iocontract.EliminationError
	require.ErrorAs(t, err, &elimErr)
	require.Equal(t, iocontract.Vars("y"), elimErr.Vars)
}

func TestElimByRefiningRejectsContradictorySubstitution(t *testing.T) {
	// The only candidate fact turns the term into a contradiction, so the
	// variable stays and elimination fails.
	_, err := MustParseTermList("y <= 0.2").ElimByRefining(
		MustParseTermList("y <= 3"), iocontract.Vars("y"))
	require.Error(t, err)
	var elimErr *iocontract.EliminationError
	require.ErrorAs(t, err, &elimErr)
	require.Equal(t, iocontract.Vars("y"), elimErr.Vars)
}

func TestResourceLimit(t *testing.T) {
	SetLimits(Limits{MaxTerms: 1})
	defer SetLimits(Limits{})

	_, err := MustParseTermList("x <= 1", "y <= 1").IsEmpty()
	require.Error(t, err)
	require.ErrorIs(t, err, iocontract.ErrResourceLimit)
}

func genTerm() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(-3, 3),
		gen.IntRange(-3, 3),
		gen.IntRange(-5, 5),
	).Map(func(vals []interface{}) Term {
		coeffs := map[iocontract.Var]float64{
			varX: float64(vals[0].(int)),
			varY: float64(vals[1].(int)),
		}
		return NewTerm(coeffs, float64(vals[2].(int)), LEQ)
	})
}

func genTermList() gopter.Gen {
	return gen.SliceOfN(3, genTerm()).Map(func(ts []Term) TermList {
		return NewTermList(ts...)
	})
}

func TestTermListProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("simplify is idempotent", prop.ForAll(
		func(l TermList) bool {
			s1, err := l.Simplify(TermList{})
			if err != nil {
				// infeasible inputs are outside simplify's domain
				return errors.Is(err, iocontract.ErrInfeasible)
			}
			s2, err := s1.Simplify(TermList{})
			return err == nil && s2.Equal(s1)
		},
		genTermList(),
	))

	properties.Property("simplify preserves the region", prop.ForAll(
		func(l TermList) bool {
			s, err := l.Simplify(TermList{})
			if err != nil {
				return errors.Is(err, iocontract.ErrInfeasible)
			}
			fwd, err := s.Refines(l)
			if err != nil {
				return false
			}
			bwd, err := l.Refines(s)
			return err == nil && fwd && bwd
		},
		genTermList(),
	))

	properties.Property("refinement is reflexive", prop.ForAll(
		func(l TermList) bool {
			ok, err := l.Refines(l)
			return err == nil && ok
		},
		genTermList(),
	))

	properties.Property("a conjunction refines its parts", prop.ForAll(
		func(a, b TermList) bool {
			ok, err := a.Union(b).Refines(b)
			return err == nil && ok
		},
		genTermList(),
		genTermList(),
	))

	properties.Property("relaxing elimination weakens", prop.ForAll(
		func(l TermList) bool {
			r, err := l.ElimByRelaxing(TermList{}, []iocontract.Var{varY})
			if err != nil {
				return errors.Is(err, iocontract.ErrInfeasible)
			}
			if iocontract.ContainsVar(r.Vars(), varY) {
				return false
			}
			ok, refErr := l.Refines(r)
			return refErr == nil && ok
		},
		genTermList(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
