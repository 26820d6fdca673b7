package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/sells-group/recovery-cli/internal/report"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Aggregate production and recovery across all records",
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
		s := report.Summarize(t)

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		}
		formatSummary(cmd.OutOrStdout(), s)
		return nil
	},
}

func init() {
	summaryCmd.Flags().Bool("json", false, "print the summary as JSON")
	rootCmd.AddCommand(summaryCmd)
}
