package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/recovery-cli/internal/ingest"
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv|file.xlsx|url>...",
	Short: "Import spreadsheets into the ledger",
	Long: "Reads each file, maps its headers onto the canonical fields, and appends the rows. " +
		"Unknown columns are dropped. Files are read concurrently and appended in argument order. " +
		"http(s) URLs are downloaded first.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initLedger(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		paths, cleanup, err := localPaths(ctx, args)
		if err != nil {
			return err
		}
		defer cleanup()

		opts := env.Options
		if sheet, _ := cmd.Flags().GetString("sheet"); sheet != "" {
			opts.XLSX.SheetName = sheet
		}
		if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
			return previewImport(cmd, paths, opts)
		}

		tables, err := ingest.ReadFiles(ctx, paths, opts)
		if err != nil {
			return err
		}

		stats, err := env.Ledger.Import(ctx, tables...)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "imported %d file(s): %d rows total, %d computed, %d incomplete\n",
			len(args), stats.Rows, stats.Computed, stats.Incomplete)
		return nil
	},
}

// localPaths downloads any URL arguments into a temp dir. The returned
// cleanup removes it.
func localPaths(ctx context.Context, args []string) ([]string, func(), error) {
	noop := func() {}
	var remote bool
	for _, a := range args {
		remote = remote || ingest.IsRemote(a)
	}
	if !remote {
		return args, noop, nil
	}

	dir, err := os.MkdirTemp("", "recovery-download-*")
	if err != nil {
		return nil, noop, eris.Wrap(err, "import: temp dir")
	}
	cleanup := func() { os.RemoveAll(dir) } //nolint:errcheck

	d := ingest.NewDownloader(ingest.DownloadOptions{})
	out := make([]string, len(args))
	for i, a := range args {
		if !ingest.IsRemote(a) {
			out[i] = a
			continue
		}
		p, err := d.Fetch(ctx, a, dir)
		if err != nil {
			cleanup()
			return nil, noop, err
		}
		out[i] = p
	}
	return out, cleanup, nil
}

// previewImport prints how each file's headers map without writing.
func previewImport(cmd *cobra.Command, paths []string, opts ingest.Options) error {
	for _, p := range paths {
		header, rows, err := ingest.ReadRaw(cmd.Context(), p, opts)
		if err != nil {
			return err
		}
		mapping := ingest.Mapping(header, opts.Aliases)
		formatMapping(cmd.OutOrStdout(), p, header, mapping, len(rows))
		zap.L().Debug("import: preview", zap.String("file", p), zap.Int("rows", len(rows)))
	}
	return nil
}

func init() {
	importCmd.Flags().String("sheet", "", "XLSX sheet name (default from config, else first sheet)")
	importCmd.Flags().Bool("dry-run", false, "show the header mapping without importing")
	rootCmd.AddCommand(importCmd)
}
