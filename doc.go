// Package pacta implements an algebra of assume-guarantee contracts for
// compositional system analysis.
//
// A contract constrains a component's environment through assumptions on
// its input variables and promises guarantees on its outputs. The algebra
// supports:
//   - composition, the contract of two components working together
//   - quotient, the specification of a missing subcomponent
//   - merging, the conjunction of viewpoints on one component
//   - refinement, the replaceability order between contracts
//
// The generic algebra lives in the iocontract package; the polyhedral
// package instantiates it with linear-constraint term lists, and records
// persists contracts as JSON and CBOR documents.
package pacta

import "github.com/blang/semver/v4"

// Version identifies this release; persisted contract records embed it
// and readers warn on mismatch.
var Version = semver.MustParse("0.2.0")
