package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cube2222/partiplan/diagnostics"
	"github.com/cube2222/partiplan/partiplan"
)

var deriveCmd = &cobra.Command{
	Use:   "derive <operator> <lhs type> <rhs type>",
	Short: "Print the result type of an arithmetic operator.",
	Example: `partiplan derive multiply 'decimal(5,2)' 'decimal(5,2)'
partiplan derive + int bigint`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		op, err := partiplan.ParseArithmeticOperator(args[0])
		if err != nil {
			return err
		}
		lhs, err := partiplan.ParseType(args[1])
		if err != nil {
			return err
		}
		rhs, err := partiplan.ParseType(args[2])
		if err != nil {
			return err
		}

		result, ok := partiplan.Derive(op, lhs, rhs)
		if !ok {
			return diagnostics.ErrIncompatibleArithmetic.New(op, lhs, rhs)
		}
		fmt.Fprintln(cmd.OutOrStdout(), result)
		return nil
	},
}

var coerceCmd = &cobra.Command{
	Use:     "coerce <input type> <target type>",
	Short:   "Print whether a value of the input type may be used where the target type is expected.",
	Example: `partiplan coerce 'union(int, string)' bigint`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := partiplan.ParseType(args[0])
		if err != nil {
			return err
		}
		target, err := partiplan.ParseType(args[1])
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), input.AssignableTo(target))
		if descriptor, ok := partiplan.Coerce(input, target); ok {
			fmt.Fprintln(cmd.OutOrStdout(), descriptor)
		}
		return nil
	},
}

var flattenCmd = &cobra.Command{
	Use:     "flatten <type>",
	Short:   "Print the normalized form of a type.",
	Example: `partiplan flatten 'union(int, union(string, int))'`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := partiplan.ParseType(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), partiplan.Flatten(t))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deriveCmd)
	rootCmd.AddCommand(coerceCmd)
	rootCmd.AddCommand(flattenCmd)
}
