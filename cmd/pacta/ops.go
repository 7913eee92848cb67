package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pacta-dev/pacta/iocontract"
	"github.com/pacta-dev/pacta/polyhedral"
	"github.com/pacta-dev/pacta/records"
)

var (
	flagOutput  string
	flagName    string
	flagMachine bool
)

func init() {
	for _, cmd := range []*cobra.Command{composeCmd, quotientCmd, mergeCmd} {
		cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "path of the result document (default stdout)")
		cmd.Flags().StringVar(&flagName, "name", "", "name of the result contract (default derived from the operands)")
		cmd.Flags().BoolVar(&flagMachine, "machine", false, "write the result in coefficient form")
	}
}

var composeCmd = &cobra.Command{
	Use:   "compose FILE LEFT RIGHT",
	Short: "Compose two contracts from a document",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBinaryOp(args, "compose",
			polyhedral.Contract.Compose,
			func(a, b polyhedral.CompoundContract) (polyhedral.CompoundContract, error) { return a.Compose(b) })
	},
}

var quotientCmd = &cobra.Command{
	Use:   "quotient FILE TOP SUBCOMPONENT",
	Short: "Compute the specification a missing subcomponent must satisfy",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBinaryOp(args, "quotient",
			polyhedral.Contract.Quotient,
			func(a, b polyhedral.CompoundContract) (polyhedral.CompoundContract, error) { return a.Quotient(b) })
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge FILE LEFT RIGHT",
	Short: "Merge two viewpoints on the same component",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBinaryOp(args, "merge",
			polyhedral.Contract.Merge,
			func(a, b polyhedral.CompoundContract) (polyhedral.CompoundContract, error) { return a.Merge(b) })
	},
}

var refinesCmd = &cobra.Command{
	Use:   "refines FILE CANDIDATE REFERENCE",
	Short: "Check whether one contract refines another",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		left, right, err := loadOperands(args[0], args[1], args[2])
		if err != nil {
			return err
		}
		var ok bool
		if left.IsCompound || right.IsCompound {
			ok, err = asCompound(left).Refines(asCompound(right))
		} else {
			ok, err = left.Contract.Refines(right.Contract)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ok)
		return nil
	},
}

func runBinaryOp(
	args []string,
	op string,
	plain func(polyhedral.Contract, polyhedral.Contract) (polyhedral.Contract, error),
	compound func(polyhedral.CompoundContract, polyhedral.CompoundContract) (polyhedral.CompoundContract, error),
) error {
	left, right, err := loadOperands(args[0], args[1], args[2])
	if err != nil {
		return err
	}
	result := records.Entry{Name: flagName}
	if result.Name == "" {
		result.Name = fmt.Sprintf("%s(%s, %s)", op, left.Name, right.Name)
	}
	if left.IsCompound || right.IsCompound {
		c, err := compound(asCompound(left), asCompound(right))
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		result.IsCompound = true
		result.Compound = c
	} else {
		c, err := plain(left.Contract, right.Contract)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		result.Contract = c
	}
	return writeResult(result)
}

func loadOperands(path, leftName, rightName string) (records.Entry, records.Entry, error) {
	entries, err := records.ReadFile(path)
	if err != nil {
		return records.Entry{}, records.Entry{}, err
	}
	left, err := findEntry(entries, leftName)
	if err != nil {
		return records.Entry{}, records.Entry{}, fmt.Errorf("%s: %w", path, err)
	}
	right, err := findEntry(entries, rightName)
	if err != nil {
		return records.Entry{}, records.Entry{}, fmt.Errorf("%s: %w", path, err)
	}
	return left, right, nil
}

func findEntry(entries []records.Entry, name string) (records.Entry, error) {
	for _, e := range entries {
		if e.Name == name {
			return e, nil
		}
	}
	return records.Entry{}, fmt.Errorf("no contract named %q", name)
}

func asCompound(e records.Entry) polyhedral.CompoundContract {
	if e.IsCompound {
		return e.Compound
	}
	return iocontract.CompoundFrom(e.Contract)
}

func writeResult(e records.Entry) error {
	if flagOutput == "" {
		data, err := records.Marshal([]records.Entry{e}, flagMachine)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	return records.WriteFile(flagOutput, []records.Entry{e}, flagMachine)
}
