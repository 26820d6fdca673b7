package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove <row-id>...",
	Aliases: []string{"rm"},
	Short:   "Delete rows by ID",
	Long:    "Deletes the given rows. If any ID is unknown nothing is removed.",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initLedger(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Ledger.Remove(ctx, args...); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d row(s)\n", len(args))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
}
