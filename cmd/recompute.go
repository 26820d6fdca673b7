package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Re-derive every stored row",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initLedger(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		stats, err := env.Ledger.Recompute(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(),
			"%d rows: %d computed, %d incomplete, %d clamped, %d zero grade, %d bad dates\n",
			stats.Rows, stats.Computed, stats.Incomplete, stats.Clamped, stats.ZeroGrade, stats.BadDates)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recomputeCmd)
}
