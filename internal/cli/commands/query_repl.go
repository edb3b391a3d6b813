package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/leapstack-labs/pyconfgen/internal/cli/output"
)

const (
	replPrompt     = "pyconfgen> "
	replContPrompt = "       ...> "
)

func runQueryREPL(ctx context.Context, r *output.Renderer, db *sql.DB, statePath string, opts *QueryOptions) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     filepath.Join(filepath.Dir(statePath), "query_history"),
		AutoComplete:    newTableCompleter(ctx, db),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	r.Printf("pyconfgen state query (%s)\n", statePath)
	r.Println("Type .help for commands, .quit to exit")
	r.Println()

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if buf.Len() == 0 && strings.HasPrefix(line, ".") {
			if quit := handleDotCommand(ctx, r, db, line, opts.CSV); quit {
				return nil
			}
			continue
		}

		// Statements run once they end with a semicolon.
		buf.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			buf.WriteString(" ")
			rl.SetPrompt(replContPrompt)
			continue
		}
		rl.SetPrompt(replPrompt)

		query := strings.TrimSuffix(buf.String(), ";")
		buf.Reset()
		rs, err := queryRows(ctx, db, query)
		if err == nil {
			err = renderResultSet(r, rs, opts.CSV)
		}
		if err != nil {
			r.Error(err.Error())
		}
		r.Println()
	}
}

// handleDotCommand runs one REPL dot-command and reports whether to quit.
func handleDotCommand(ctx context.Context, r *output.Renderer, db *sql.DB, line string, asCSV bool) bool {
	parts := strings.Fields(line)
	var err error

	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true
	case ".help":
		r.Println(replHelp)
	case ".tables":
		err = listTables(ctx, r, db, false, asCSV)
	case ".views":
		err = listTables(ctx, r, db, true, asCSV)
	case ".schema":
		if len(parts) < 2 {
			r.Warning("usage: .schema <table>")
			return false
		}
		err = showSchema(ctx, r, db, parts[1], asCSV)
	default:
		r.Warning(fmt.Sprintf("unknown command %s (type .help for commands)", parts[0]))
	}
	if err != nil {
		r.Error(err.Error())
	}
	return false
}

const replHelp = `Commands:
  .help           Show this help message
  .tables         List tables and views
  .views          List views only
  .schema <name>  Show the columns of a table or view
  .quit / .exit   Leave the prompt

SQL statements end with a semicolon (;). Tab completes table names.`

func newTableCompleter(ctx context.Context, db *sql.DB) *readline.PrefixCompleter {
	items := []readline.PrefixCompleterInterface{
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".views"),
		readline.PcItem(".schema"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	}

	rs, err := queryRows(ctx, db, `
		SELECT name FROM sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err != nil {
		return readline.NewPrefixCompleter(items...)
	}
	for _, row := range rs.Rows {
		items = append(items, readline.PcItem(row[0]))
	}
	return readline.NewPrefixCompleter(items...)
}
