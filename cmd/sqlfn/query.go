package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joacominatel/sqlfn"
)

// statementText returns the SQL of a command: the arguments joined by
// spaces, or the contents of file ("-" reads stdin).
func statementText(args []string, file string, stdin io.Reader) (string, error) {
	if file == "" {
		sql := strings.TrimSpace(strings.Join(args, " "))
		if sql == "" {
			return "", fmt.Errorf("no statement: pass SQL as arguments or --file")
		}
		return sql, nil
	}
	if len(args) > 0 {
		return "", fmt.Errorf("--file cannot be combined with SQL arguments")
	}

	var (
		b   []byte
		err error
	)
	if file == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("read statement: %w", err)
	}
	return string(b), nil
}

func queryCmd(env *environment) *cobra.Command {
	var (
		file    string
		format  string
		params  []string
		prepare bool
	)

	cmd := &cobra.Command{
		Use:   "query [sql...]",
		Short: "Run a query and print its rows",
		Example: `  sqlfn query -p local "SELECT * FROM users WHERE id = @id" --param id:int=7
  sqlfn query --dsn postgres://localhost/shop -f report.sql -o csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sql, err := statementText(args, file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			bound, err := parseParams(params)
			if err != nil {
				return err
			}
			o, err := env.session()
			if err != nil {
				return err
			}

			rs, err := sqlfn.QueryResult(cmd.Context(), o.WithQuery(sql).WithParams(bound...).WithPrepare(prepare))
			if err != nil {
				return err
			}
			return renderResult(cmd.OutOrStdout(), rs, format)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the statement from a file (- for stdin)")
	cmd.Flags().StringVarP(&format, "output", "o", "table", "Output format: "+strings.Join(formats, ", "))
	cmd.Flags().StringArrayVar(&params, "param", nil, "Statement parameter as name=value or name:type=value (repeatable)")
	cmd.Flags().BoolVar(&prepare, "prepare", false, "Prepare the statement before running it")

	return cmd
}

func execCmd(env *environment) *cobra.Command {
	var (
		file      string
		procedure string
		params    []string
	)

	cmd := &cobra.Command{
		Use:   "exec [sql...]",
		Short: "Run statements for their side effects",
		Long:  "Run statements for their side effects and print the affected row count. Without parameters the text may hold several statements.",
		Example: `  sqlfn exec -p local "DELETE FROM sessions WHERE expires_at < now()"
  sqlfn exec -p local --procedure archive_orders --param cutoff:timestamp=2024-01-01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			bound, err := parseParams(params)
			if err != nil {
				return err
			}
			o, err := env.session()
			if err != nil {
				return err
			}

			if procedure != "" {
				if len(args) > 0 || file != "" {
					return fmt.Errorf("--procedure cannot be combined with a statement")
				}
				o = o.WithProcedure(procedure)
			} else {
				sql, err := statementText(args, file, cmd.InOrStdin())
				if err != nil {
					return err
				}
				o = o.WithQuery(sql)
			}

			n, err := sqlfn.Exec(cmd.Context(), o.WithParams(bound...))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d rows affected\n", n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the statement from a file (- for stdin)")
	cmd.Flags().StringVar(&procedure, "procedure", "", "Call a stored procedure instead of running SQL")
	cmd.Flags().StringArrayVar(&params, "param", nil, "Statement parameter as name=value or name:type=value (repeatable)")

	return cmd
}
