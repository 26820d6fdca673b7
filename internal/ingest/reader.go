package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/recovery-cli/internal/model"
)

// Options configures file import.
type Options struct {
	Aliases *Aliases
	CSV     CSVOptions
	XLSX    XLSXOptions
	// Concurrency bounds ReadFiles; zero means one reader per file.
	Concurrency int
}

// ReadFile reads a .csv or .xlsx file and normalizes it.
func ReadFile(ctx context.Context, path string, opts Options) (*model.Table, error) {
	header, rows, err := ReadRaw(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	return Normalize(header, rows, opts.Aliases), nil
}

// ReadFiles reads several files concurrently. Tables come back in the order
// of paths; the first failure cancels the rest.
func ReadFiles(ctx context.Context, paths []string, opts Options) ([]*model.Table, error) {
	if opts.Aliases == nil {
		opts.Aliases = DefaultAliases()
	}

	tables := make([]*model.Table, len(paths))
	g, gCtx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	for i, p := range paths {
		g.Go(func() error {
			t, err := ReadFile(gCtx, p, opts)
			if err != nil {
				return eris.Wrapf(err, "ingest: read %s", p)
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

// ReadRaw returns the header and records of a .csv or .xlsx file without
// normalizing them.
func ReadRaw(ctx context.Context, path string, opts Options) ([]string, [][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, eris.Wrap(err, "ingest: open csv")
		}
		defer f.Close() //nolint:errcheck
		return ReadCSV(ctx, f, opts.CSV)
	case ".xlsx":
		return ReadXLSX(path, opts.XLSX)
	default:
		return nil, nil, eris.Errorf("ingest: unsupported file type %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}
