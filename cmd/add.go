package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add field=value [field=value...]",
	Short: "Add one day's measurements",
	Long: "Adds a single row. Fields may be canonical names or any known header alias. " +
		"Derived fields are computed, not entered.",
	Example: "  recovery-cli add date=2024-03-01 tonnage=100 ore_grade=2.0 " +
		"tailings_liquid_gold=0.05 tailings_solid_gold=0.03",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		entry, err := parseAssignments(args)
		if err != nil {
			return err
		}

		env, err := initLedger(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		row, err := env.Ledger.Add(ctx, entry)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), row.ID)
		return nil
	},
}

// parseAssignments turns field=value arguments into a map. The value may
// be empty; the field may not.
func parseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, eris.Errorf("expected field=value, got %q", a)
		}
		out[k] = v
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(addCmd)
}
