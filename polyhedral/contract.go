package polyhedral

import (
	"github.com/pacta-dev/pacta/iocontract"
)

// Contract is an assume-guarantee contract over polyhedral constraints.
type Contract = iocontract.Contract[TermList]

// CompoundContract is a contract whose assumptions and guarantees are
// unions of polyhedral regions.
type CompoundContract = iocontract.Compound[TermList]

// NewContract builds a polyhedral contract from already-parsed term lists.
func NewContract(assumptions, guarantees TermList, inputs, outputs []iocontract.Var) (Contract, error) {
	return iocontract.New(assumptions, guarantees, inputs, outputs)
}

// ContractFromStrings builds a contract from constraint strings and
// variable names.
func ContractFromStrings(assumptions, guarantees []string, inputs, outputs []string) (Contract, error) {
	a, err := ParseTermList(assumptions)
	if err != nil {
		return Contract{}, err
	}
	g, err := ParseTermList(guarantees)
	if err != nil {
		return Contract{}, err
	}
	return iocontract.New(a, g, iocontract.Vars(inputs...), iocontract.Vars(outputs...))
}

// NewCompoundContract builds a compound contract from alternative term
// lists: the assumptions are the union of the assumption alternatives, and
// likewise for the guarantees.
func NewCompoundContract(assumptions, guarantees []TermList, inputs, outputs []iocontract.Var) (CompoundContract, error) {
	return iocontract.NewCompound(assumptions, guarantees, inputs, outputs)
}

// CompoundFromStrings builds a compound contract from one constraint-string
// list per alternative.
func CompoundFromStrings(assumptions, guarantees [][]string, inputs, outputs []string) (CompoundContract, error) {
	a, err := parseAlternatives(assumptions)
	if err != nil {
		return CompoundContract{}, err
	}
	g, err := parseAlternatives(guarantees)
	if err != nil {
		return CompoundContract{}, err
	}
	return iocontract.NewCompound(a, g, iocontract.Vars(inputs...), iocontract.Vars(outputs...))
}

func parseAlternatives(alts [][]string) ([]TermList, error) {
	res := make([]TermList, len(alts))
	for i, alt := range alts {
		l, err := ParseTermList(alt)
		if err != nil {
			return nil, err
		}
		res[i] = l
	}
	return res, nil
}
