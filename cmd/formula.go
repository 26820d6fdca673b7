package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/recovery-cli/internal/formula"
)

var formulaCmd = &cobra.Command{
	Use:   "formula <column> <expression>",
	Short: "Add or overwrite a computed column",
	Long: "Evaluates an arithmetic expression over every row and stores the result as a column. " +
		"Expressions may use numbers, column names, + - * / and parentheses; columns with " +
		"spaces or symbols can be quoted with backticks. Nothing is saved when the expression " +
		"is rejected.",
	Example: "  recovery-cli formula metal_calc 'tonnage * ore_grade * recovery_rate'",
	Args:    cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name, expr := args[0], strings.Join(args[1:], " ")

		env, err := initLedger(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		t, err := env.Ledger.AddFormula(ctx, name, expr)
		if err != nil {
			var inv *formula.InvalidError
			if errors.As(err, &inv) {
				cmd.PrintErrf("formula rejected: %s\n", inv.Reason)
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "column %q set on %d row(s)\n", strings.TrimSpace(name), t.Len())
		return nil
	},
}

var checkFormulaCmd = &cobra.Command{
	Use:   "check <expression>",
	Short: "Validate an expression against the current columns without saving",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initLedger(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		t, err := env.Ledger.Table(ctx)
		if err != nil {
			return err
		}
		prog, err := formula.Compile(strings.Join(args, " "), t.Columns)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok: references %s\n", strings.Join(prog.References(), ", "))
		return nil
	},
}

func init() {
	formulaCmd.AddCommand(checkFormulaCmd)
	rootCmd.AddCommand(formulaCmd)
}
