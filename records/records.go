// Package records persists contracts as named documents. The human form
// stores constraints as expression strings in JSON; the machine form
// stores coefficient maps and is also available as CBOR. Every document
// embeds the engine version that wrote it; readers warn when it differs
// from the running version.
package records

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/blang/semver/v4"

	"github.com/pacta-dev/pacta"
	"github.com/pacta-dev/pacta/iocontract"
	"github.com/pacta-dev/pacta/logger"
	"github.com/pacta-dev/pacta/polyhedral"
)

// Record type discriminators, stored in each entry's "type" field.
const (
	TypeContract        = "PolyhedralContract"
	TypeContractMachine = "PolyhedralContract_machine"
	TypeCompound        = "PolyhedralContractCompound"
)

// Entry is one named contract in a document. Exactly one of Contract and
// Compound is meaningful, selected by IsCompound.
type Entry struct {
	Name       string
	IsCompound bool
	Contract   polyhedral.Contract
	Compound   polyhedral.CompoundContract
}

type fileEntry struct {
	Name    string          `json:"name"`
	Type    string          `json:"type"`
	Version string          `json:"pacta_version,omitempty"`
	Data    json.RawMessage `json:"data"`
}

type textData struct {
	InputVars   []string `json:"InputVars"`
	OutputVars  []string `json:"OutputVars"`
	Assumptions []string `json:"assumptions"`
	Guarantees  []string `json:"guarantees"`
}

type compoundData struct {
	InputVars   []string   `json:"InputVars"`
	OutputVars  []string   `json:"OutputVars"`
	Assumptions [][]string `json:"assumptions"`
	Guarantees  [][]string `json:"guarantees"`
}

type machineData struct {
	InputVars   []string      `json:"InputVars"`
	OutputVars  []string      `json:"OutputVars"`
	Assumptions []machineTerm `json:"assumptions"`
	Guarantees  []machineTerm `json:"guarantees"`
}

// machineTerm is one constraint in coefficient form: the linear expression
// sum(coefficients)*vars is bounded above by the constant, or pinned to it
// when Equality is set.
type machineTerm struct {
	Constant     float64            `json:"constant" cbor:"1,keyasint"`
	Coefficients map[string]float64 `json:"coefficients" cbor:"2,keyasint"`
	Equality     bool               `json:"equality,omitempty" cbor:"3,keyasint,omitempty"`
}

// Marshal renders entries as a JSON document. With machine set, plain
// contracts are written in coefficient form instead of expression strings.
func Marshal(entries []Entry, machine bool) ([]byte, error) {
	out := make([]fileEntry, len(entries))
	for i, e := range entries {
		fe, err := toFileEntry(e, machine)
		if err != nil {
			return nil, err
		}
		out[i] = fe
	}
	return json.MarshalIndent(out, "", "  ")
}

// Unmarshal parses a JSON document produced by Marshal (or by a
// compatible writer).
func Unmarshal(data []byte) ([]Entry, error) {
	var raw []fileEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing contract document: %w", err)
	}
	entries := make([]Entry, len(raw))
	for i, fe := range raw {
		e, err := fromFileEntry(fe)
		if err != nil {
			return nil, err
		}
		entries[i] = e
	}
	return entries, nil
}

// ReadFile reads a JSON contract document from disk.
func ReadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	entries, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// WriteFile writes a JSON contract document to disk.
func WriteFile(path string, entries []Entry, machine bool) error {
	data, err := Marshal(entries, machine)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func toFileEntry(e Entry, machine bool) (fileEntry, error) {
	fe := fileEntry{Name: e.Name, Version: pacta.Version.String()}
	var payload interface{}
	switch {
	case e.IsCompound:
		fe.Type = TypeCompound
		payload = compoundData{
			InputVars:   varStrings(e.Compound.Inputs()),
			OutputVars:  varStrings(e.Compound.Outputs()),
			Assumptions: alternativeStrings(e.Compound.Assumptions()),
			Guarantees:  alternativeStrings(e.Compound.Guarantees()),
		}
	case machine:
		fe.Type = TypeContractMachine
		payload = machineData{
			InputVars:   varStrings(e.Contract.Inputs()),
			OutputVars:  varStrings(e.Contract.Outputs()),
			Assumptions: machineTerms(e.Contract.Assumptions()),
			Guarantees:  machineTerms(e.Contract.Guarantees()),
		}
	default:
		fe.Type = TypeContract
		payload = textData{
			InputVars:   varStrings(e.Contract.Inputs()),
			OutputVars:  varStrings(e.Contract.Outputs()),
			Assumptions: e.Contract.Assumptions().ToStrings(),
			Guarantees:  e.Contract.Guarantees().ToStrings(),
		}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fileEntry{}, err
	}
	fe.Data = data
	return fe, nil
}

func fromFileEntry(fe fileEntry) (Entry, error) {
	if err := checkVersion(fe.Version, fe.Name); err != nil {
		return Entry{}, err
	}
	switch fe.Type {
	case TypeContract:
		var d textData
		if err := json.Unmarshal(fe.Data, &d); err != nil {
			return Entry{}, fmt.Errorf("contract %q: %w", fe.Name, err)
		}
		c, err := polyhedral.ContractFromStrings(d.Assumptions, d.Guarantees, d.InputVars, d.OutputVars)
		if err != nil {
			return Entry{}, fmt.Errorf("contract %q: %w", fe.Name, err)
		}
		return Entry{Name: fe.Name, Contract: c}, nil
	case TypeContractMachine:
		var d machineData
		if err := json.Unmarshal(fe.Data, &d); err != nil {
			return Entry{}, fmt.Errorf("contract %q: %w", fe.Name, err)
		}
		c, err := machineContract(d)
		if err != nil {
			return Entry{}, fmt.Errorf("contract %q: %w", fe.Name, err)
		}
		return Entry{Name: fe.Name, Contract: c}, nil
	case TypeCompound:
		var d compoundData
		if err := json.Unmarshal(fe.Data, &d); err != nil {
			return Entry{}, fmt.Errorf("contract %q: %w", fe.Name, err)
		}
		c, err := polyhedral.CompoundFromStrings(d.Assumptions, d.Guarantees, d.InputVars, d.OutputVars)
		if err != nil {
			return Entry{}, fmt.Errorf("contract %q: %w", fe.Name, err)
		}
		return Entry{Name: fe.Name, IsCompound: true, Compound: c}, nil
	default:
		return Entry{}, fmt.Errorf("contract %q: unknown record type %q", fe.Name, fe.Type)
	}
}

// checkVersion mirrors how serialized objects carry the writer's version:
// a missing version is accepted, an unparseable one is an error, and a
// mismatch only warns since the formats are stable across releases.
func checkVersion(version, name string) error {
	if version == "" {
		return nil
	}
	v, err := semver.Parse(version)
	if err != nil {
		return fmt.Errorf("contract %q: parsing writer version: %w", name, err)
	}
	if pacta.Version.Compare(v) != 0 {
		log := logger.Logger()
		log.Warn().Str("binary", pacta.Version.String()).Str("record", v.String()).Str("contract", name).Msg("record written by a different version; compatibility not guaranteed")
	}
	return nil
}

func machineContract(d machineData) (polyhedral.Contract, error) {
	a, err := termsFromMachine(d.Assumptions)
	if err != nil {
		return polyhedral.Contract{}, err
	}
	g, err := termsFromMachine(d.Guarantees)
	if err != nil {
		return polyhedral.Contract{}, err
	}
	return polyhedral.NewContract(a, g, iocontract.Vars(d.InputVars...), iocontract.Vars(d.OutputVars...))
}

func termsFromMachine(ms []machineTerm) (polyhedral.TermList, error) {
	terms := make([]polyhedral.Term, 0, len(ms))
	for _, m := range ms {
		coeffs := make(map[iocontract.Var]float64, len(m.Coefficients))
		for name, c := range m.Coefficients {
			if name == "" {
				return polyhedral.TermList{}, fmt.Errorf("empty variable name in coefficient map")
			}
			coeffs[iocontract.V(name)] = c
		}
		rel := polyhedral.LEQ
		if m.Equality {
			rel = polyhedral.EQ
		}
		// The wire constant is the right-hand side bound.
		terms = append(terms, polyhedral.NewTerm(coeffs, -m.Constant, rel))
	}
	return polyhedral.NewTermList(terms...), nil
}

func machineTerms(l polyhedral.TermList) []machineTerm {
	ts := l.Terms()
	out := make([]machineTerm, len(ts))
	for i, t := range ts {
		coeffs := make(map[string]float64)
		for _, v := range t.Vars() {
			coeffs[v.Name()] = t.Coeff(v)
		}
		out[i] = machineTerm{
			Constant:     -t.Constant(),
			Coefficients: coeffs,
			Equality:     t.Rel() == polyhedral.EQ,
		}
	}
	return out
}

func varStrings(vs []iocontract.Var) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Name()
	}
	return out
}

func alternativeStrings(alts []polyhedral.TermList) [][]string {
	out := make([][]string, len(alts))
	for i, alt := range alts {
		out[i] = alt.ToStrings()
	}
	return out
}
