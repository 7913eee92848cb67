package polyhedral

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pacta-dev/pacta/iocontract"
)

// twoModeSource is a component operating in one of two input regimes.
func twoModeSource(t *testing.T) CompoundContract {
	t.Helper()
	c, err := CompoundFromStrings(
		[][]string{
			{"-i <= 0", "i <= 1"},
			{"i <= 0", "-i <= 2"},
		},
		[][]string{
			{"o - i = 0"},
		},
		[]string{"i"},
		[]string{"o"},
	)
	require.NoError(t, err)
	return c
}

func relayContract(t *testing.T) CompoundContract {
	t.Helper()
	c, err := CompoundFromStrings(
		[][]string{{"|o| <= 2"}},
		[][]string{{"q - o <= 0"}},
		[]string{"o"},
		[]string{"q"},
	)
	require.NoError(t, err)
	return c
}

func TestCompoundComposeCombinations(t *testing.T) {
	assert := require.New(t)

	sys, err := twoModeSource(t).Compose(relayContract(t))
	assert.NoError(err)

	assert.Equal(iocontract.Vars("i"), sys.Inputs())
	assert.Equal(iocontract.Vars("q"), sys.Outputs())

	// One composite per assumption regime, and the identical guarantee
	// alternatives collapse into one.
	assert.Len(sys.Assumptions(), 2)
	assert.Len(sys.Guarantees(), 1)
	mustRefineBoth(t, sys.Guarantees()[0], MustParseTermList("q - i <= 0"))
	mustRefineBoth(t, sys.Assumptions()[0], MustParseTermList("-i <= 0", "i <= 1"))
	mustRefineBoth(t, sys.Assumptions()[1], MustParseTermList("i <= 0", "-i <= 2"))
}

func TestCompoundComposeKeepsSurvivors(t *testing.T) {
	assert := require.New(t)

	// The second guarantee alternative is too weak to discharge the
	// relay's assumption; only the first combination survives.
	src, err := CompoundFromStrings(
		[][]string{{"-i <= 0", "i <= 1"}},
		[][]string{
			{"o - i = 0"},
			{"|o| <= 3"},
		},
		[]string{"i"},
		[]string{"o"},
	)
	assert.NoError(err)

	sys, err := src.Compose(relayContract(t))
	assert.NoError(err)
	assert.Len(sys.Guarantees(), 1)
	mustRefineBoth(t, sys.Guarantees()[0], MustParseTermList("q - i <= 0"))
}

func TestCompoundComposeAllCombinationsFail(t *testing.T) {
	assert := require.New(t)

	src, err := CompoundFromStrings(
		[][]string{{"-i <= 0", "i <= 1"}},
		[][]string{{"|o| <= 3"}},
		[]string{"i"},
		[]string{"o"},
	)
	assert.NoError(err)

	_, err = src.Compose(relayContract(t))
	assert.Error(err)
	var elimErr *iocontract.EliminationError
	assert.ErrorAs(err, &elimErr)
}

func TestCompoundRefines(t *testing.T) {
	assert := require.New(t)

	sys, err := twoModeSource(t).Compose(relayContract(t))
	assert.NoError(err)

	plain, err := ContractFromStrings(
		[]string{"-i <= 0", "i <= 1"},
		[]string{"q - i <= 0"},
		[]string{"i"},
		[]string{"q"},
	)
	assert.NoError(err)

	ok, err := sys.Refines(iocontract.CompoundFrom(plain))
	assert.NoError(err)
	assert.True(ok)

	// Reflexivity.
	ok, err = sys.Refines(sys)
	assert.NoError(err)
	assert.True(ok)

	// IO mismatch is an immediate non-refinement.
	ok, err = sys.Refines(twoModeSource(t))
	assert.NoError(err)
	assert.False(ok)
}

func TestCompoundOptions(t *testing.T) {
	assert := require.New(t)

	_, err := twoModeSource(t).Compose(relayContract(t), iocontract.WithNbTasks(1))
	assert.NoError(err)

	_, err = twoModeSource(t).Compose(relayContract(t), iocontract.WithNbTasks(0))
	assert.Error(err)
}
