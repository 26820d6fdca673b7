package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/recovery-cli/internal/derive"
	"github.com/sells-group/recovery-cli/internal/report"
)

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Show selected metrics over a date range",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		fromStr, _ := cmd.Flags().GetString("from")
		toStr, _ := cmd.Flags().GetString("to")
		metrics, _ := cmd.Flags().GetStringSlice("metrics")

		from, err := flagDate("from", fromStr)
		if err != nil {
			return err
		}
		to, err := flagDate("to", toStr)
		if err != nil {
			return err
		}

		env, err := initLedger(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		t, err := env.Ledger.Table(ctx)
		if err != nil {
			return err
		}
		series, err := report.Trend(t, from, to, metrics)
		if err != nil {
			return err
		}
		if len(series.Points) == 0 {
			cmd.PrintErrln("No dated records in range.")
			return nil
		}
		formatTrend(cmd.OutOrStdout(), series)
		return nil
	},
}

func flagDate(name, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, ok := derive.ParseDate(s).Time()
	if !ok {
		return time.Time{}, eris.Errorf("--%s: cannot parse date %q", name, s)
	}
	return d, nil
}

func init() {
	trendCmd.Flags().String("from", "", "first day (inclusive)")
	trendCmd.Flags().String("to", "", "last day (inclusive)")
	trendCmd.Flags().StringSlice("metrics", nil, "columns to show (default tonnage,recovery_rate)")
	rootCmd.AddCommand(trendCmd)
}
