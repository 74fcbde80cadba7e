// Package interactive runs a shell that keeps one engine open, so the
// selected table, filters and page position carry over from line to line.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/redbco/redb-cql/cmd/cli/internal/args"
	"github.com/redbco/redb-cql/cmd/cli/internal/common"
	"github.com/redbco/redb-cql/cmd/cli/internal/output"
	"github.com/redbco/redb-cql/pkg/adapter"
	"github.com/redbco/redb-cql/pkg/engine"
)

const allowFiltering = "--allow-filtering"

type shellCommand struct {
	name  string
	usage string
	help  string
	run   func(s *Shell, ctx context.Context, args []string) error
}

var shellCommands []shellCommand

func init() {
	shellCommands = []shellCommand{
		{"keyspaces", "keyspaces", "List keyspaces", (*Shell).keyspaces},
		{"tables", "tables [keyspace]", "List tables", (*Shell).tables},
		{"use", "use <table>", "Select a table", (*Shell).use},
		{"describe", "describe", "Show the selected table", (*Shell).describe},
		{"refresh", "refresh", "Reload the table schema", (*Shell).refresh},
		{"form", "form", "Show the insert form", (*Shell).form},
		{"browse", "browse", "Show the first page without filters", (*Shell).browse},
		{"filter", "filter [col=value ...] [--allow-filtering]", "Filter rows, no arguments clears filters", (*Shell).filter},
		{"next", "next", "Show the next page", (*Shell).next},
		{"first", "first", "Show the first page again", (*Shell).first},
		{"pagesize", "pagesize <n>", "Set the page size", (*Shell).pageSize},
		{"insert", "insert col=value ...", "Insert a row", (*Shell).insert},
		{"delete", "delete col=value ...", "Delete the row with the given key", (*Shell).delete},
		{"delete-row", "delete-row <n>", "Delete row n of the current page", (*Shell).deleteRow},
		{"hide", "hide <column> ...", "Hide columns in the grid", (*Shell).hide},
		{"show", "show <column> ...", "Show hidden columns", (*Shell).show},
		{"overlays", "overlays", "List map overlays of the table", (*Shell).overlays},
		{"count", "count [limit]", "Count rows up to a limit", (*Shell).count},
		{"query", "query <cql>", "Run a CQL statement", nil},
		{"extended", "extended", "Toggle one record per block output", (*Shell).toggleExtended},
		{"width", "width <n>", "Truncate values to n characters, 0 for no limit", (*Shell).width},
		{"state", "state", "Show the engine state", (*Shell).state},
		{"help", "help", "Show this help", (*Shell).help},
		{"clear", "clear", "Clear the screen", nil},
		{"exit", "exit", "Leave the shell", nil},
	}
}

// Shell dispatches shell lines to an engine.
type Shell struct {
	engine          *engine.Engine
	defaultKeyspace string
	out             io.Writer

	extended bool
	maxWidth int
}

// NewShell creates a shell over e writing to out.
func NewShell(e *engine.Engine, defaultKeyspace string, out io.Writer) *Shell {
	return &Shell{engine: e, defaultKeyspace: defaultKeyspace, out: out}
}

// Prompt shows the selected table and the page position.
func (s *Shell) Prompt() string {
	t := s.engine.Table()
	if t == nil {
		return "redb-cql> "
	}
	if p := s.engine.CurrentPage(); p != nil && p.PageNumber > 1 {
		return fmt.Sprintf("redb-cql %s p%d> ", t.QualifiedName(), p.PageNumber)
	}
	return fmt.Sprintf("redb-cql %s> ", t.QualifiedName())
}

// Exec runs one line. It returns false once the shell should stop.
func (s *Shell) Exec(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	word, rest, _ := strings.Cut(line, " ")
	switch word {
	case "":
		return true, nil
	case "exit", "quit":
		return false, nil
	case "query":
		// Passed through untouched so CQL quoting survives.
		return true, s.query(ctx, strings.TrimSpace(rest))
	}

	argv, err := parseCommandLine(line)
	if err != nil {
		return true, fmt.Errorf("failed to parse command: %v", err)
	}
	if len(argv) == 0 {
		return true, nil
	}
	for _, c := range shellCommands {
		if c.name == argv[0] && c.run != nil {
			return true, c.run(s, ctx, argv[1:])
		}
	}
	return true, fmt.Errorf("unknown command '%s'. Type 'help' for available commands", argv[0])
}

func (s *Shell) keyspaces(ctx context.Context, _ []string) error {
	list, err := s.engine.Keyspaces(ctx)
	if err != nil {
		return err
	}
	output.Names(s.out, list, "No keyspaces found.")
	return nil
}

func (s *Shell) tables(ctx context.Context, argv []string) error {
	ks := s.defaultKeyspace
	if t := s.engine.Table(); t != nil {
		ks = t.Keyspace
	}
	if len(argv) > 0 {
		ks = argv[0]
	}
	if ks == "" {
		return fmt.Errorf("keyspace is required")
	}
	list, err := s.engine.Tables(ctx, ks)
	if err != nil {
		return err
	}
	output.Names(s.out, list, fmt.Sprintf("No tables found in keyspace %s.", ks))
	return nil
}

func (s *Shell) use(ctx context.Context, argv []string) error {
	if len(argv) != 1 {
		return fmt.Errorf("usage: use <table>")
	}
	ks, table, err := common.SplitTable(argv[0], s.defaultKeyspace)
	if err != nil {
		return err
	}
	tv, err := s.engine.SelectTable(ctx, ks, table)
	if err != nil {
		return err
	}
	return output.Table(s.out, tv)
}

func (s *Shell) describe(ctx context.Context, _ []string) error {
	tv, err := s.engine.Describe(ctx)
	if err != nil {
		return err
	}
	return output.Table(s.out, tv)
}

func (s *Shell) refresh(ctx context.Context, _ []string) error {
	tv, err := s.engine.Refresh(ctx)
	if err != nil {
		return err
	}
	return output.Table(s.out, tv)
}

func (s *Shell) form(ctx context.Context, _ []string) error {
	fields, err := s.engine.Fields(ctx, nil)
	if err != nil {
		return err
	}
	return output.Fields(s.out, fields)
}

func (s *Shell) browse(ctx context.Context, _ []string) error {
	return s.printPage(s.engine.Browse(ctx))
}

func (s *Shell) filter(ctx context.Context, argv []string) error {
	ack := false
	pairs := argv[:0:0]
	for _, a := range argv {
		if a == allowFiltering {
			ack = true
			continue
		}
		pairs = append(pairs, a)
	}
	if len(pairs) == 0 {
		return s.printPage(s.engine.ClearFilters(ctx))
	}
	filters, err := args.Filters(pairs)
	if err != nil {
		return err
	}
	p, err := s.engine.ApplyFilters(ctx, filters, ack)
	if adapter.IsFullScanError(err) {
		return fmt.Errorf("%w\nRepeat the filter with %s to scan every partition", err, allowFiltering)
	}
	return s.printPage(p, err)
}

func (s *Shell) next(ctx context.Context, _ []string) error {
	p, err := s.engine.NextPage(ctx)
	if errors.Is(err, adapter.ErrNoMorePages) {
		fmt.Fprintln(s.out, "Already on the last page.")
		return nil
	}
	return s.printPage(p, err)
}

func (s *Shell) first(ctx context.Context, _ []string) error {
	return s.printPage(s.engine.FirstPage(ctx))
}

func (s *Shell) pageSize(ctx context.Context, argv []string) error {
	if len(argv) != 1 {
		fmt.Fprintf(s.out, "Page size is %d.\n", s.engine.PageSize())
		return nil
	}
	n, err := strconv.Atoi(argv[0])
	if err != nil {
		return fmt.Errorf("page size must be a number: %v", err)
	}
	p, err := s.engine.SetPageSize(ctx, n)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Page size is %d.\n", s.engine.PageSize())
	if p != nil {
		return s.printPage(p, nil)
	}
	return nil
}

func (s *Shell) insert(ctx context.Context, argv []string) error {
	values, err := args.Assignments(argv)
	if err != nil {
		return err
	}
	res, err := s.engine.Insert(ctx, values)
	return s.printMutation("inserted", res, err)
}

func (s *Shell) delete(ctx context.Context, argv []string) error {
	values, err := args.Assignments(argv)
	if err != nil {
		return err
	}
	res, err := s.engine.Delete(ctx, values)
	return s.printMutation("deleted", res, err)
}

func (s *Shell) deleteRow(ctx context.Context, argv []string) error {
	if len(argv) != 1 {
		return fmt.Errorf("usage: delete-row <n>")
	}
	n, err := strconv.Atoi(argv[0])
	if err != nil {
		return fmt.Errorf("row number must be a number: %v", err)
	}
	row, ok := s.engine.CurrentPage().Row(n - 1)
	if !ok {
		return fmt.Errorf("no row %d on the current page", n)
	}
	res, err := s.engine.DeleteRow(ctx, row)
	return s.printMutation("deleted", res, err)
}

func (s *Shell) hide(_ context.Context, argv []string) error {
	return s.setHidden(argv, true)
}

func (s *Shell) show(_ context.Context, argv []string) error {
	return s.setHidden(argv, false)
}

func (s *Shell) setHidden(columns []string, hidden bool) error {
	if len(columns) == 0 {
		return fmt.Errorf("at least one column is required")
	}
	for _, c := range columns {
		if _, err := s.engine.SetColumnHidden(c, hidden); err != nil {
			return err
		}
	}
	var shown []string
	for _, c := range s.engine.Table().VisibleColumns() {
		shown = append(shown, c.Name)
	}
	fmt.Fprintf(s.out, "Visible columns: %s\n", strings.Join(shown, ", "))
	return nil
}

func (s *Shell) overlays(ctx context.Context, _ []string) error {
	list, err := s.engine.Overlays(ctx)
	if err != nil {
		return err
	}
	return output.Overlays(s.out, list)
}

func (s *Shell) count(ctx context.Context, argv []string) error {
	limit := 0
	if len(argv) > 0 {
		n, err := strconv.Atoi(argv[0])
		if err != nil {
			return fmt.Errorf("limit must be a number: %v", err)
		}
		limit = n
	}
	c, err := s.engine.EstimateRowCount(ctx, limit)
	if err != nil {
		return err
	}
	output.Count(s.out, s.engine.Table().QualifiedName(), c)
	return nil
}

func (s *Shell) query(ctx context.Context, statement string) error {
	res, err := s.engine.RawQuery(ctx, statement, "")
	if err != nil {
		return err
	}
	return output.Query(s.out, res, s.extended, s.maxWidth)
}

func (s *Shell) toggleExtended(_ context.Context, _ []string) error {
	s.extended = !s.extended
	if s.extended {
		fmt.Fprintln(s.out, "Extended display is on.")
	} else {
		fmt.Fprintln(s.out, "Extended display is off.")
	}
	return nil
}

func (s *Shell) width(_ context.Context, argv []string) error {
	if len(argv) != 1 {
		return fmt.Errorf("usage: width <n>")
	}
	n, err := strconv.Atoi(argv[0])
	if err != nil || n < 0 {
		return fmt.Errorf("width must be a non-negative number")
	}
	s.maxWidth = n
	return nil
}

func (s *Shell) state(_ context.Context, _ []string) error {
	fmt.Fprintf(s.out, "State: %s\n", s.engine.State())
	if t := s.engine.Table(); t != nil {
		fmt.Fprintf(s.out, "Table: %s\n", t.QualifiedName())
	}
	if p := s.engine.CurrentPage(); p != nil {
		fmt.Fprintf(s.out, "Page: %d (%d rows)\n", p.PageNumber, len(p.Rows))
		for _, f := range p.Filters {
			fmt.Fprintf(s.out, "Filter: %s = %s\n", f.Column, f.Value)
		}
	}
	return nil
}

func (s *Shell) help(_ context.Context, _ []string) error {
	for _, c := range shellCommands {
		fmt.Fprintf(s.out, "  %-44s %s\n", c.usage, c.help)
	}
	return nil
}

func (s *Shell) printPage(p *engine.Page, err error) error {
	if err != nil {
		return err
	}
	if err := output.PageRows(s.out, p, s.extended, s.maxWidth); err != nil {
		return err
	}
	if p.HasMore() {
		fmt.Fprintln(s.out, "Type 'next' for more rows.")
	}
	return nil
}

func (s *Shell) printMutation(verb string, res *engine.MutationResult, err error) error {
	if res != nil {
		output.Mutation(s.out, verb, res)
		if res.Page != nil {
			if perr := s.printPage(res.Page, nil); perr != nil {
				return perr
			}
		}
	}
	return err
}
