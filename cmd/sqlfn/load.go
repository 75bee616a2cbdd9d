package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joacominatel/sqlfn"
	"github.com/joacominatel/sqlfn/bulk"
	"github.com/joacominatel/sqlfn/internal/logging"
	"github.com/joacominatel/sqlfn/value"
)

// csvSource streams the records of a CSV file with a header line as rows of
// text values. Fields equal to null become NULL. Err reports the first read
// failure once iteration stops.
type csvSource struct {
	r    *csv.Reader
	null string
	err  error
}

func newCSVSource(r io.Reader, null string) *csvSource {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	return &csvSource{r: cr, null: null}
}

func (s *csvSource) Rows() iter.Seq[value.Row] {
	return func(yield func(value.Row) bool) {
		header, err := s.r.Read()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.err = fmt.Errorf("read csv header: %w", err)
			}
			return
		}
		names := make([]string, len(header))
		for i, h := range header {
			names[i] = strings.TrimSpace(h)
		}

		for {
			rec, err := s.r.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				s.err = fmt.Errorf("read csv: %w", err)
				return
			}
			row := make(value.Row, len(names))
			for i, name := range names {
				row[i] = value.Field{Name: name, Value: s.cell(rec[i])}
			}
			if !yield(row) {
				return
			}
		}
	}
}

func (s *csvSource) cell(field string) value.Value {
	if field == s.null {
		return value.Null()
	}
	return value.String(field)
}

func (s *csvSource) Err() error { return s.err }

// resultOf wraps decoded rows for rendering. Column kinds come from the
// first row.
func resultOf(rows []value.Row) *sqlfn.ResultSet {
	rs := &sqlfn.ResultSet{Rows: value.Table(rows)}
	if len(rows) == 0 {
		return rs
	}
	for _, f := range rows[0] {
		rs.Columns = append(rs.Columns, value.Column{Name: f.Name, Kind: f.Value.Kind()})
	}
	return rs
}

func loadCmd(env *environment) *cobra.Command {
	var (
		ddlFile   string
		csvFile   string
		columns   []string
		batchSize int
		null      string
		then      string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Create a table from DDL and bulk copy a CSV file into it",
		Long: `Create a table from a DDL file and copy the rows of a CSV file into it
through COPY. The CSV header names the columns; fields are sent as text and
converted by the server. With --then the statement runs on the same
session after the copy, so it can read a temporary table.`,
		Example: `  sqlfn load -p local --ddl users.sql --csv users.csv
  sqlfn load -p local --ddl stage.sql --csv ids.csv --then "SELECT count(*) FROM stage"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ddl, err := os.ReadFile(ddlFile)
			if err != nil {
				return fmt.Errorf("read ddl: %w", err)
			}
			f, err := os.Open(csvFile)
			if err != nil {
				return fmt.Errorf("open csv: %w", err)
			}
			defer f.Close()

			o, err := env.session()
			if err != nil {
				return err
			}
			if batchSize <= 0 {
				batchSize = env.cfg.Preferences.BatchSize
			}
			loader := bulk.Loader{BatchSize: batchSize, Columns: columns, Logger: logging.Logger()}
			src := newCSVSource(f, null)

			if then != "" {
				rows, err := bulk.Query(cmd.Context(), loader, o.WithQuery(then), string(ddl), src.Rows(), sqlfn.AsRow)
				if err := errors.Join(err, src.Err()); err != nil {
					return err
				}
				return renderResult(cmd.OutOrStdout(), resultOf(rows), format)
			}

			var n int64
			err = sqlfn.Use(cmd.Context(), o, func(ctx context.Context, conn sqlfn.Conn) error {
				var err error
				n, err = loader.Load(ctx, conn, string(ddl), src.Rows())
				return err
			})
			if err := errors.Join(err, src.Err()); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d rows loaded\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&ddlFile, "ddl", "", "File holding the CREATE TABLE statement")
	cmd.Flags().StringVar(&csvFile, "csv", "", "CSV file with a header line")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "Column order to copy into, instead of reading it from the DDL")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Rows per COPY (default from preferences)")
	cmd.Flags().StringVar(&null, "null", "", "CSV field text that means NULL")
	cmd.Flags().StringVar(&then, "then", "", "Query to run after loading, on the same session")
	cmd.Flags().StringVarP(&format, "output", "o", "table", "Output format of --then: "+strings.Join(formats, ", "))
	_ = cmd.MarkFlagRequired("ddl")
	_ = cmd.MarkFlagRequired("csv")

	return cmd
}
