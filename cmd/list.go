package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the derived ledger sorted by date",
	RunE: func(cmd *cobra.Command, _ []string) error {
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
		t = t.SortedByDate()

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(t)
		}

		if t.Len() == 0 {
			cmd.PrintErrln("No records found.")
			return nil
		}
		all, _ := cmd.Flags().GetBool("all")
		formatTable(cmd.OutOrStdout(), t, all)
		return nil
	},
}

func init() {
	listCmd.Flags().Bool("json", false, "print the table as JSON")
	listCmd.Flags().Bool("all", false, "show every column, including tailings grades and overflow")
	rootCmd.AddCommand(listCmd)
}
