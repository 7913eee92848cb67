package polyhedral

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pacta-dev/pacta/iocontract"
)

func TestParseSimpleInequality(t *testing.T) {
	assert := require.New(t)

	terms, err := ParseConstraint("x <= 1")
	assert.NoError(err)
	assert.Len(terms, 1)
	assert.True(terms[0].Equal(NewTerm(map[iocontract.Var]float64{varX: 1}, -1, LEQ)))

	terms, err = ParseConstraint("-3 <= x")
	assert.NoError(err)
	assert.Len(terms, 1)
	assert.True(terms[0].Equal(NewTerm(map[iocontract.Var]float64{varX: -1}, -3, LEQ)))
}

func TestParseCoefficientsAndParens(t *testing.T) {
	assert := require.New(t)

	terms, err := ParseConstraint("2x + 3*y - 2(y - 1) <= 5")
	assert.NoError(err)
	assert.Len(terms, 1)
	// 2x + 3y - 2y + 2 <= 5, so 2x + y <= 3.
	assert.True(terms[0].Equal(NewTerm(map[iocontract.Var]float64{varX: 2, varY: 1}, -3, LEQ)))

	terms, err = ParseConstraint("1.5e1 * x <= 30")
	assert.NoError(err)
	assert.True(terms[0].Equal(NewTerm(map[iocontract.Var]float64{varX: 15}, -30, LEQ)))
}

func TestParseEquality(t *testing.T) {
	assert := require.New(t)

	for _, s := range []string{"y - 2x = 1", "y - 2x == 1"} {
		terms, err := ParseConstraint(s)
		assert.NoError(err, s)
		assert.Len(terms, 1, s)
		assert.True(terms[0].Equal(NewTerm(map[iocontract.Var]float64{varX: -2, varY: 1}, -1, EQ)), s)
	}
}

func TestParseAbsoluteValue(t *testing.T) {
	assert := require.New(t)

	terms, err := ParseConstraint("|x - y| <= 2")
	assert.NoError(err)
	assert.Len(terms, 2)
	l := NewTermList(terms...)
	want := NewTermList(
		NewTerm(map[iocontract.Var]float64{varX: 1, varY: -1}, -2, LEQ),
		NewTerm(map[iocontract.Var]float64{varX: -1, varY: 1}, -2, LEQ),
	)
	assert.True(l.Equal(want), "got %s", l)

	// Coefficient on the bars plus an offset.
	terms, err = ParseConstraint("3|x| + 1 <= 4")
	assert.NoError(err)
	l = NewTermList(terms...)
	want = NewTermList(
		NewTerm(map[iocontract.Var]float64{varX: 3}, -3, LEQ),
		NewTerm(map[iocontract.Var]float64{varX: -3}, -3, LEQ),
	)
	assert.True(l.Equal(want), "got %s", l)

	// Two absolute values expand into all four sign combinations.
	terms, err = ParseConstraint("|x| + |y| <= 1")
	assert.NoError(err)
	assert.Len(terms, 4)

	// |e| = 0 pins the expression.
	terms, err = ParseConstraint("|x - y| = 0")
	assert.NoError(err)
	assert.Len(terms, 1)
	assert.Equal(EQ, terms[0].Rel())
}

func TestParseChainedComparisons(t *testing.T) {
	assert := require.New(t)

	terms, err := ParseConstraint("0 <= x <= 1")
	assert.NoError(err)
	l := NewTermList(terms...)
	want := NewTermList(
		NewTerm(map[iocontract.Var]float64{varX: -1}, 0, LEQ),
		NewTerm(map[iocontract.Var]float64{varX: 1}, -1, LEQ),
	)
	assert.True(l.Equal(want), "got %s", l)

	terms, err = ParseConstraint("1 >= x >= 0")
	assert.NoError(err)
	assert.True(NewTermList(terms...).Equal(want))
}

func TestParseErrors(t *testing.T) {
	for _, s := range []string{
		"",
		"x",
		"x < 1",
		"x <= ",
		"-|x| <= 1",
		"|x| = 1",
		"| | <= 1",
		"x + <= 1",
		"(x <= 1",
		"x = y = 1",
		"x <= y >= 1",
		"2 <= 1",
	} {
		_, err := ParseConstraint(s)
		require.Error(t, err, "input %q", s)
	}
}

func TestParseTermListConcatenatesAndDedups(t *testing.T) {
	assert := require.New(t)

	l, err := ParseTermList([]string{"x <= 1", "x <= 1", "y <= 2"})
	assert.NoError(err)
	assert.Equal(2, l.Len())
}
