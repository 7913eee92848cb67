package polyhedral

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pacta-dev/pacta/iocontract"
)

var (
	varX = iocontract.V("x")
	varY = iocontract.V("y")
)

func TestNewTermDropsZeroCoefficients(t *testing.T) {
	assert := require.New(t)

	tm := NewTerm(map[iocontract.Var]float64{varX: 1, varY: 0}, -1, LEQ)
	assert.Equal([]iocontract.Var{varX}, tm.Vars())
	assert.False(tm.ContainsVar(varY))
	assert.Equal(1.0, tm.Coeff(varX))
	assert.Equal(0.0, tm.Coeff(varY))
}

func TestNewTermOrientsEqualities(t *testing.T) {
	assert := require.New(t)

	// -2x + y = -1 and 2x - y = 1 are the same constraint and must
	// canonicalize identically.
	a := NewTerm(map[iocontract.Var]float64{varX: -2, varY: 1}, 1, EQ)
	b := NewTerm(map[iocontract.Var]float64{varX: 2, varY: -1}, -1, EQ)
	assert.True(a.Equal(b))
	assert.Equal(2.0, a.Coeff(varX))

	// Inequalities keep their sign.
	l := NewTerm(map[iocontract.Var]float64{varX: -1}, 0, LEQ)
	assert.Equal(-1.0, l.Coeff(varX))
}

func TestTermTautologyAndContradiction(t *testing.T) {
	assert := require.New(t)

	assert.True(NewTerm(nil, -1, LEQ).IsTautology())
	assert.True(NewTerm(nil, 0, EQ).IsTautology())
	assert.True(NewTerm(nil, 1, LEQ).IsContradiction())
	assert.True(NewTerm(nil, 1, EQ).IsContradiction())
	assert.False(NewTerm(map[iocontract.Var]float64{varX: 1}, 1, LEQ).IsConstant())
}

func TestTermEvalAndContains(t *testing.T) {
	assert := require.New(t)

	tm := NewTerm(map[iocontract.Var]float64{varX: 2, varY: -1}, -3, LEQ) // 2x - y <= 3
	v, err := tm.Eval(map[iocontract.Var]float64{varX: 1, varY: 0})
	assert.NoError(err)
	assert.InDelta(-1.0, v, 1e-12)

	ok, err := tm.Contains(map[iocontract.Var]float64{varX: 1, varY: 0})
	assert.NoError(err)
	assert.True(ok)

	ok, err = tm.Contains(map[iocontract.Var]float64{varX: 3, varY: 0})
	assert.NoError(err)
	assert.False(ok)

	_, err = tm.Eval(map[iocontract.Var]float64{varX: 1})
	assert.Error(err)
}

func TestTermRenameVarMergesCoefficients(t *testing.T) {
	assert := require.New(t)

	tm := NewTerm(map[iocontract.Var]float64{varX: 2, varY: 3}, 0, LEQ)
	renamed := tm.RenameVar(varY, varX)
	assert.Equal([]iocontract.Var{varX}, renamed.Vars())
	assert.Equal(5.0, renamed.Coeff(varX))

	// Renaming an absent variable is a no-op.
	same := tm.RenameVar(iocontract.V("z"), varX)
	assert.True(tm.Equal(same))
}

func TestTermString(t *testing.T) {
	assert := require.New(t)

	tm := NewTerm(map[iocontract.Var]float64{varX: 2, varY: 1}, -3, LEQ)
	assert.Equal("2*x + y <= 3", tm.String())

	neg := NewTerm(map[iocontract.Var]float64{varX: -1, varY: -0.5}, 0, LEQ)
	assert.Equal("-x - 0.5*y <= 0", neg.String())

	eq := NewTerm(map[iocontract.Var]float64{varX: 1}, -1, EQ)
	assert.Equal("x = 1", eq.String())
}
