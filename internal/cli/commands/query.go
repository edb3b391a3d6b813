package commands

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/leapstack-labs/pyconfgen/internal/cli/output"

	// sqlite driver for state database queries.
	_ "modernc.org/sqlite"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Input string
	CSV   bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Query the generation state database",
		Long: `Run read-only SQL against the state database written by generate.

The runs and artifacts tables hold the raw history; the v_runs and
v_artifacts views join them for reading. Without arguments, SQL is read
from --input or piped stdin, and an interactive prompt opens on a terminal.`,
		Example: `  # Generated headers and the run that wrote them
  pyconfgen query "SELECT path, config_set, run_id FROM v_artifacts"

  # CSV for scripts
  pyconfgen query --csv "SELECT * FROM v_runs"

  # List tables and views, or show one schema
  pyconfgen query tables
  pyconfgen query schema artifacts

  # Interactive mode
  pyconfgen query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")
	cmd.PersistentFlags().BoolVar(&opts.CSV, "csv", false, "Write rows as CSV regardless of --output")

	cmd.AddCommand(newQueryTablesCommand(opts))
	cmd.AddCommand(newQuerySchemaCommand(opts))

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cctx := NewCommandContextWithoutEngine(cmd)
	db, statePath, err := openStateDB(cctx.Cfg.StatePath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var query string
	switch {
	case len(args) > 0:
		query = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		query = string(content)
	case isInteractive(cmd.InOrStdin()):
		return runQueryREPL(cmd.Context(), cctx.Renderer, db, statePath, opts)
	default:
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		query = string(content)
	}

	if strings.TrimSpace(query) == "" {
		return errors.New("no SQL given")
	}
	rs, err := queryRows(cmd.Context(), db, query)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	return renderResultSet(cctx.Renderer, rs, opts.CSV)
}

func newQueryTablesCommand(opts *QueryOptions) *cobra.Command {
	var viewsOnly bool
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List tables and views in the state database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cctx := NewCommandContextWithoutEngine(cmd)
			db, _, err := openStateDB(cctx.Cfg.StatePath)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			return listTables(cmd.Context(), cctx.Renderer, db, viewsOnly, opts.CSV)
		},
	}
	cmd.Flags().BoolVar(&viewsOnly, "views", false, "List views only")
	return cmd
}

func newQuerySchemaCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <table>",
		Short: "Show the columns of a table or view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cctx := NewCommandContextWithoutEngine(cmd)
			db, _, err := openStateDB(cctx.Cfg.StatePath)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			return showSchema(cmd.Context(), cctx.Renderer, db, args[0], opts.CSV)
		},
	}
}

// openStateDB opens the state database read-only.
func openStateDB(path string) (*sql.DB, string, error) {
	if path == "" || path == ":memory:" {
		return nil, "", errors.New("state tracking is disabled; set state_path to query it")
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, "", fmt.Errorf("state database not found at %s (run 'pyconfgen generate' first)", path)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}
	return db, path, nil
}

func isInteractive(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// resultSet is a fully read query result with values rendered as text.
type resultSet struct {
	Columns []string
	Rows    [][]string
	nulls   [][]bool
}

// Records returns one column->value map per row, with NULL as nil.
func (rs *resultSet) Records() []map[string]any {
	records := make([]map[string]any, 0, len(rs.Rows))
	for i, row := range rs.Rows {
		rec := make(map[string]any, len(rs.Columns))
		for j, col := range rs.Columns {
			if rs.nulls[i][j] {
				rec[col] = nil
				continue
			}
			rec[col] = row[j]
		}
		records = append(records, rec)
	}
	return records
}

func queryRows(ctx context.Context, db *sql.DB, query string, args ...any) (*resultSet, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	rs := &resultSet{Columns: cols}

	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make([]string, len(cols))
		nulls := make([]bool, len(cols))
		for i, v := range values {
			switch v := v.(type) {
			case nil:
				row[i] = "NULL"
				nulls[i] = true
			case []byte:
				row[i] = string(v)
			default:
				row[i] = fmt.Sprint(v)
			}
		}
		rs.Rows = append(rs.Rows, row)
		rs.nulls = append(rs.nulls, nulls)
	}
	return rs, rows.Err()
}

func renderResultSet(r *output.Renderer, rs *resultSet, asCSV bool) error {
	if asCSV {
		w := csv.NewWriter(r.Writer())
		if err := w.Write(rs.Columns); err != nil {
			return err
		}
		if err := w.WriteAll(rs.Rows); err != nil {
			return err
		}
		return w.Error()
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(rs.Records())
	}
	if len(rs.Rows) == 0 {
		r.Muted("(0 rows)")
		return nil
	}
	r.Table(rs.Columns, rs.Rows)
	if r.EffectiveMode() == output.ModeText {
		r.Muted(fmt.Sprintf("(%d rows)", len(rs.Rows)))
	}
	return nil
}

func listTables(ctx context.Context, r *output.Renderer, db *sql.DB, viewsOnly, asCSV bool) error {
	query := `
		SELECT name, type
		FROM sqlite_master
		WHERE type IN ('table', 'view')
		AND name NOT LIKE 'sqlite_%'
		AND name NOT LIKE 'goose_%'`
	if viewsOnly {
		query += ` AND type = 'view'`
	}
	query += ` ORDER BY type, name`

	rs, err := queryRows(ctx, db, query)
	if err != nil {
		return err
	}
	return renderResultSet(r, rs, asCSV)
}

// schemaOutput is the JSON output for query schema.
type schemaOutput struct {
	Name    string           `json:"name"`
	Columns []map[string]any `json:"columns"`
}

func showSchema(ctx context.Context, r *output.Renderer, db *sql.DB, name string, asCSV bool) error {
	rs, err := queryRows(ctx, db, `
		SELECT name, type, CASE "notnull" WHEN 1 THEN 'NO' ELSE 'YES' END AS nullable,
		       COALESCE(dflt_value, '') AS "default", pk
		FROM pragma_table_info(?)
		ORDER BY cid`, name)
	if err != nil {
		return err
	}
	if len(rs.Rows) == 0 {
		return fmt.Errorf("table or view '%s' not found", name)
	}

	switch {
	case asCSV:
		return renderResultSet(r, rs, true)
	case r.EffectiveMode() == output.ModeJSON:
		return r.JSON(schemaOutput{Name: name, Columns: rs.Records()})
	}
	r.Header(2, name)
	r.Table(rs.Columns, rs.Rows)
	return nil
}
