package records

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/pacta-dev/pacta/polyhedral"
)

func testContract(t *testing.T) polyhedral.Contract {
	t.Helper()
	c, err := polyhedral.ContractFromStrings(
		[]string{"|i| <= 2"},
		[]string{"o - i <= 0", "i - 2o <= 2"},
		[]string{"i"},
		[]string{"o"},
	)
	require.NoError(t, err)
	return c
}

func testCompound(t *testing.T) polyhedral.CompoundContract {
	t.Helper()
	c, err := polyhedral.CompoundFromStrings(
		[][]string{
			{"-i <= 0", "i <= 1"},
			{"i <= 0", "-i <= 2"},
		},
		[][]string{{"o - i = 0"}},
		[]string{"i"},
		[]string{"o"},
	)
	require.NoError(t, err)
	return c
}

func TestJSONRoundTrip(t *testing.T) {
	assert := require.New(t)

	in := []Entry{
		{Name: "scaler", Contract: testContract(t)},
		{Name: "modes", IsCompound: true, Compound: testCompound(t)},
	}
	data, err := Marshal(in, false)
	assert.NoError(err)

	out, err := Unmarshal(data)
	assert.NoError(err)
	assert.Len(out, 2)
	assert.Equal("scaler", out[0].Name)
	assert.False(out[0].IsCompound)
	assert.True(out[0].Contract.Equal(in[0].Contract))

	assert.True(out[1].IsCompound)
	assert.Len(out[1].Compound.Assumptions(), 2)
	if diff := cmp.Diff(in[1].Compound.String(), out[1].Compound.String()); diff != "" {
		t.Fatalf("compound mismatch (-want +got):\n%s", diff)
	}
}

func TestMachineRoundTrip(t *testing.T) {
	assert := require.New(t)

	in := []Entry{{Name: "scaler", Contract: testContract(t)}}
	data, err := Marshal(in, true)
	assert.NoError(err)
	assert.Contains(string(data), TypeContractMachine)

	out, err := Unmarshal(data)
	assert.NoError(err)
	assert.True(out[0].Contract.Equal(in[0].Contract))
}

func TestCBORRoundTrip(t *testing.T) {
	assert := require.New(t)

	in := []Entry{
		{Name: "scaler", Contract: testContract(t)},
		{Name: "modes", IsCompound: true, Compound: testCompound(t)},
	}
	var buf bytes.Buffer
	assert.NoError(EncodeCBOR(&buf, in))

	out, err := DecodeCBOR(&buf)
	assert.NoError(err)
	assert.Len(out, 2)
	assert.True(out[0].Contract.Equal(in[0].Contract))
	assert.True(out[1].IsCompound)
	if diff := cmp.Diff(in[1].Compound.String(), out[1].Compound.String()); diff != "" {
		t.Fatalf("compound mismatch (-want +got):\n%s", diff)
	}
}

func TestFileRoundTrip(t *testing.T) {
	assert := require.New(t)

	path := filepath.Join(t.TempDir(), "contracts.json")
	in := []Entry{{Name: "scaler", Contract: testContract(t)}}
	assert.NoError(WriteFile(path, in, false))

	out, err := ReadFile(path)
	assert.NoError(err)
	assert.Len(out, 1)
	assert.True(out[0].Contract.Equal(in[0].Contract))
}

func TestUnmarshalRejectsUnknownType(t *testing.T) {
	_, err := Unmarshal([]byte(`[{"name":"x","type":"Mystery","data":{}}]`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown record type")
}

func TestUnmarshalRejectsBadVersion(t *testing.T) {
	doc := `[{"name":"x","type":"PolyhedralContract","pacta_version":"not-semver",` +
		`"data":{"InputVars":["i"],"OutputVars":[],"assumptions":[],"guarantees":[]}}]`
	_, err := Unmarshal([]byte(doc))
	require.Error(t, err)
	require.Contains(t, err.Error(), "version")
}

func TestUnmarshalAcceptsForeignWriters(t *testing.T) {
	// No version field, expression-string payload: the original tool's
	// output shape.
	doc := `[{"name":"noise","type":"PolyhedralContract","data":{
		"InputVars":["i"],"OutputVars":["o"],
		"assumptions":["|i| <= 2"],"guarantees":["o - i <= 0"]}}]`
	out, err := Unmarshal([]byte(doc))
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.True(t, out[0].Contract.Equal(mustPlain(t, []string{"|i| <= 2"}, []string{"o - i <= 0"})))
}

func mustPlain(t *testing.T, a, g []string) polyhedral.Contract {
	t.Helper()
	c, err := polyhedral.ContractFromStrings(a, g, []string{"i"}, []string{"o"})
	require.NoError(t, err)
	return c
}
