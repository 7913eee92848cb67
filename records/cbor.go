package records

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/pacta-dev/pacta"
	"github.com/pacta-dev/pacta/iocontract"
	"github.com/pacta-dev/pacta/polyhedral"
)

// cborDocument is the machine-form container: every contract is stored in
// coefficient form, compound contracts as one term slice per alternative.
type cborDocument struct {
	Version string      `cbor:"1,keyasint"`
	Entries []cborEntry `cbor:"2,keyasint"`
}

type cborEntry struct {
	Name        string          `cbor:"1,keyasint"`
	Compound    bool            `cbor:"2,keyasint,omitempty"`
	InputVars   []string        `cbor:"3,keyasint"`
	OutputVars  []string        `cbor:"4,keyasint"`
	Assumptions [][]machineTerm `cbor:"5,keyasint"`
	Guarantees  [][]machineTerm `cbor:"6,keyasint"`
}

// EncodeCBOR writes entries as a deterministic CBOR document.
func EncodeCBOR(w io.Writer, entries []Entry) error {
	doc := cborDocument{Version: pacta.Version.String(), Entries: make([]cborEntry, len(entries))}
	for i, e := range entries {
		doc.Entries[i] = toCBOREntry(e)
	}
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return err
	}
	return em.NewEncoder(w).Encode(doc)
}

// DecodeCBOR reads a document written by EncodeCBOR.
func DecodeCBOR(r io.Reader) ([]Entry, error) {
	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return nil, err
	}
	var doc cborDocument
	if err := dm.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding contract document: %w", err)
	}
	if err := checkVersion(doc.Version, "document"); err != nil {
		return nil, err
	}
	entries := make([]Entry, len(doc.Entries))
	for i, ce := range doc.Entries {
		e, err := fromCBOREntry(ce)
		if err != nil {
			return nil, err
		}
		entries[i] = e
	}
	return entries, nil
}

func toCBOREntry(e Entry) cborEntry {
	if e.IsCompound {
		return cborEntry{
			Name:        e.Name,
			Compound:    true,
			InputVars:   varStrings(e.Compound.Inputs()),
			OutputVars:  varStrings(e.Compound.Outputs()),
			Assumptions: alternativeMachineTerms(e.Compound.Assumptions()),
			Guarantees:  alternativeMachineTerms(e.Compound.Guarantees()),
		}
	}
	return cborEntry{
		Name:        e.Name,
		InputVars:   varStrings(e.Contract.Inputs()),
		OutputVars:  varStrings(e.Contract.Outputs()),
		Assumptions: [][]machineTerm{machineTerms(e.Contract.Assumptions())},
		Guarantees:  [][]machineTerm{machineTerms(e.Contract.Guarantees())},
	}
}

func fromCBOREntry(ce cborEntry) (Entry, error) {
	if ce.Compound {
		a, err := alternativesFromMachine(ce.Assumptions)
		if err != nil {
			return Entry{}, fmt.Errorf("contract %q: %w", ce.Name, err)
		}
		g, err := alternativesFromMachine(ce.Guarantees)
		if err != nil {
			return Entry{}, fmt.Errorf("contract %q: %w", ce.Name, err)
		}
		c, err := polyhedralCompound(a, g, ce.InputVars, ce.OutputVars)
		if err != nil {
			return Entry{}, fmt.Errorf("contract %q: %w", ce.Name, err)
		}
		return Entry{Name: ce.Name, IsCompound: true, Compound: c}, nil
	}
	if len(ce.Assumptions) != 1 || len(ce.Guarantees) != 1 {
		return Entry{}, fmt.Errorf("contract %q: plain contract with %d/%d alternatives", ce.Name, len(ce.Assumptions), len(ce.Guarantees))
	}
	c, err := machineContract(machineData{
		InputVars:   ce.InputVars,
		OutputVars:  ce.OutputVars,
		Assumptions: ce.Assumptions[0],
		Guarantees:  ce.Guarantees[0],
	})
	if err != nil {
		return Entry{}, fmt.Errorf("contract %q: %w", ce.Name, err)
	}
	return Entry{Name: ce.Name, Contract: c}, nil
}

func alternativeMachineTerms(alts []polyhedral.TermList) [][]machineTerm {
	out := make([][]machineTerm, len(alts))
	for i, alt := range alts {
		out[i] = machineTerms(alt)
	}
	return out
}

func alternativesFromMachine(alts [][]machineTerm) ([]polyhedral.TermList, error) {
	out := make([]polyhedral.TermList, len(alts))
	for i, alt := range alts {
		l, err := termsFromMachine(alt)
		if err != nil {
			return nil, err
		}
		out[i] = l
	}
	return out, nil
}

func polyhedralCompound(a, g []polyhedral.TermList, inputs, outputs []string) (polyhedral.CompoundContract, error) {
	return polyhedral.NewCompoundContract(a, g, iocontract.Vars(inputs...), iocontract.Vars(outputs...))
}
