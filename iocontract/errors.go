package iocontract

import (
	"errors"
	"fmt"
)

var (
	// ErrInfeasible is wrapped by errors reporting that a set of constraints
	// has no satisfying assignment.
	ErrInfeasible = errors.New("constraints are infeasible")

	// ErrResourceLimit is wrapped by errors reporting that an operation was
	// aborted by a configured resource guard (term blow-up or deadline).
	ErrResourceLimit = errors.New("resource limit exceeded")
)

// InterfaceError reports an invalid contract interface: an assumption
// referencing an output, a guarantee referencing an undeclared variable, or
// an operator applied to contracts with incompatible IO profiles.
type InterfaceError struct {
	Op   string // operation that rejected the interface
	Msg  string
	Vars []Var // offending variables, if any
}

func (e *InterfaceError) Error() string {
	if len(e.Vars) == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Msg, varNames(e.Vars))
}

// EliminationError reports that the available facts were insufficient to
// remove the target variables from a constraint set. Vars holds the
// variables that could not be removed and Facts describes the facts that
// were tried, so that callers can diagnose incompatible interfaces.
type EliminationError struct {
	Vars  []Var
	Facts string
	cause error
}

func (e *EliminationError) Error() string {
	msg := fmt.Sprintf("could not eliminate variables %s using facts %q", varNames(e.Vars), e.Facts)
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *EliminationError) Unwrap() error {
	return e.cause
}

// NewEliminationError builds an EliminationError wrapping cause (which may
// be nil).
func NewEliminationError(vars []Var, facts string, cause error) *EliminationError {
	return &EliminationError{Vars: vars, Facts: facts, cause: cause}
}
