package main

import (
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit <row-id> column=value [column=value...]",
	Short: "Overwrite cells of one row",
	Long: "Edits cells in place. Any column may be edited, including derived and formula " +
		"columns; derived fields are recomputed when the row has all inputs.",
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		changes, err := parseAssignments(args[1:])
		if err != nil {
			return err
		}

		env, err := initLedger(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		row, err := env.Ledger.Edit(ctx, args[0], changes)
		if err != nil {
			return err
		}
		formatRow(cmd.OutOrStdout(), row)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
}
