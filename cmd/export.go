package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/recovery-cli/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export <file.csv|file.xlsx>",
	Short: "Write the derived ledger to a spreadsheet",
	Args:  cobra.ExactArgs(1),
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
		if sorted, _ := cmd.Flags().GetBool("sorted"); sorted {
			t = t.SortedByDate()
		}
		if err := export.WriteFile(args[0], t); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d row(s) to %s\n", t.Len(), args[0])
		return nil
	},
}

func init() {
	exportCmd.Flags().Bool("sorted", true, "sort rows by date")
	rootCmd.AddCommand(exportCmd)
}
