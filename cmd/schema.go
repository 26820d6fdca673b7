package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/recovery-cli/internal/ingest"
	"github.com/sells-group/recovery-cli/internal/model"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the canonical fields, or the header aliases with --aliases",
	// Works without config or a database.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, _ []string) error {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close() //nolint:errcheck

		if aliases, _ := cmd.Flags().GetBool("aliases"); aliases {
			return enc.Encode(ingest.Builtin())
		}
		return enc.Encode(model.Schema)
	},
}

func init() {
	schemaCmd.Flags().Bool("aliases", false, "print the built-in header aliases (usable as an alias_file)")
	rootCmd.AddCommand(schemaCmd)
}
