// Package output prints engine results for the terminal.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/redbco/redb-cql/pkg/adapter"
	"github.com/redbco/redb-cql/pkg/config"
	"github.com/redbco/redb-cql/pkg/engine"
	"github.com/redbco/redb-cql/pkg/health"
	"github.com/redbco/redb-cql/pkg/overlay"
	"github.com/redbco/redb-cql/pkg/render"
)

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
}

// Names prints one name per line, or empty when there are none.
func Names(w io.Writer, names []string, empty string) {
	if len(names) == 0 {
		fmt.Fprintln(w, empty)
		return
	}
	for _, n := range names {
		fmt.Fprintln(w, n)
	}
}

// Profiles prints the profile list, marking the last used one.
func Profiles(w io.Writer, profiles []config.Profile, last string) error {
	if len(profiles) == 0 {
		fmt.Fprintln(w, "No profiles found. Use 'redb-cql profiles add <name>' to create one.")
		return nil
	}
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "\tNAME\tHOSTS\tPORT\tUSER\tKEYSPACE\tCONSISTENCY\tSSL")
	for _, p := range profiles {
		marker := ""
		if p.Name == last {
			marker = "*"
		}
		port := p.Port
		if port == 0 {
			port = 9042
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\t%t\n", marker, p.Name, strings.Join(p.Hosts, ","),
			port, dash(p.Username), dash(p.DefaultKeyspace), dash(p.Consistency), p.SSL.Enabled)
	}
	return tw.Flush()
}

// Checks prints health check results.
func Checks(w io.Writer, checks []*health.Check) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "CHECK\tSTATUS\tTIME\tDETAIL")
	for _, c := range checks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Name, c.Status, c.Latency.Round(time.Millisecond), c.Message)
	}
	return tw.Flush()
}

// Table prints the structure of a table.
func Table(w io.Writer, tv *engine.TableView) error {
	fmt.Fprintf(w, "\nTable: %s.%s\n", tv.Keyspace, tv.Table)
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintf(w, "Partition key:  (%s)\n", strings.Join(tv.PartitionKey, ", "))
	if len(tv.ClusteringKey) > 0 {
		fmt.Fprintf(w, "Clustering key: (%s)\n", strings.Join(tv.ClusteringKey, ", "))
	}
	fmt.Fprintln(w)

	tw := newTabWriter(w)
	fmt.Fprintln(tw, "COLUMN\tTYPE\tKEY\tHIDDEN\tOVERLAY")
	for _, c := range tv.Columns {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.Name, c.Type, dash(c.KeyRole), yes(c.Hidden), yes(c.HasOverlay))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(tv.Overlays) > 0 {
		fmt.Fprintln(w)
		return Overlays(w, tv.Overlays)
	}
	return nil
}

// Overlays prints declared map column shapes.
func Overlays(w io.Writer, overlays []*overlay.Overlay) error {
	if len(overlays) == 0 {
		fmt.Fprintln(w, "No overlays defined.")
		return nil
	}
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "COLUMN\tKEY\tTYPE\tREQUIRED\tSTRICT")
	for _, o := range overlays {
		for _, f := range o.Fields {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", o.Column, f.Key, f.Type, yes(f.Required), yes(o.Strict))
		}
	}
	return tw.Flush()
}

// Fields prints the row form of a table.
func Fields(w io.Writer, fields []engine.Field) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "FIELD\tTYPE\tINPUT\tREQUIRED\tNOTES")
	for _, f := range fields {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", f.Name, f.Type, f.Widget, yes(f.Required), fieldNotes(f))
		for _, sf := range f.SubFields {
			fmt.Fprintf(tw, "  [%s]\t%s\t%s\t%s\t%s\n", sf.Key, sf.Type, sf.Widget, yes(sf.Required), sf.Placeholder)
		}
	}
	return tw.Flush()
}

func fieldNotes(f engine.Field) string {
	var notes []string
	if f.AutoGenerate {
		notes = append(notes, "generated when empty")
	}
	if f.ReadOnly {
		notes = append(notes, "read only")
	}
	if f.HasRange {
		notes = append(notes, fmt.Sprintf("%d..%d", f.Min, f.Max))
	}
	if f.Strict {
		notes = append(notes, "strict keys")
	}
	if f.Placeholder != "" {
		notes = append(notes, "e.g. "+f.Placeholder)
	}
	return strings.Join(notes, ", ")
}

// Page prints a page of rows followed by the token of the next page.
func Page(w io.Writer, p *engine.Page, extended bool, maxWidth int) error {
	if err := PageRows(w, p, extended, maxWidth); err != nil {
		return err
	}
	if p.HasMore() {
		fmt.Fprintf(w, "More rows available: --page-token=%s\n", p.NextToken)
	}
	return nil
}

// PageRows prints a page of rows as a grid or as extended records.
func PageRows(w io.Writer, p *engine.Page, extended bool, maxWidth int) error {
	if len(p.Rows) == 0 {
		fmt.Fprintln(w, "(0 rows)")
		return nil
	}
	var err error
	if extended {
		err = render.WriteExtended(w, p.Extended, maxWidth)
	} else {
		err = render.WriteGrid(w, p.Grid, maxWidth)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(w)
	if p.PageNumber > 0 {
		fmt.Fprintf(w, "Page %d, %d rows (page size %d)\n", p.PageNumber, len(p.Rows), p.PageSize)
	} else {
		fmt.Fprintf(w, "%d rows (page size %d)\n", len(p.Rows), p.PageSize)
	}
	return nil
}

// Query prints the result of a free-form statement.
func Query(w io.Writer, r *engine.QueryResult, extended bool, maxWidth int) error {
	if len(r.Columns) == 0 {
		fmt.Fprintln(w, "Statement applied.")
		return nil
	}
	if len(r.Rows) == 0 {
		fmt.Fprintln(w, "(0 rows)")
		return nil
	}
	var err error
	if extended {
		err = render.WriteExtended(w, r.Extended, maxWidth)
	} else {
		err = render.WriteGrid(w, r.Grid, maxWidth)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d rows\n", len(r.Rows))
	if r.HasMore() {
		fmt.Fprintf(w, "More rows available: --page-token=%s\n", r.NextToken)
	}
	return nil
}

// Mutation prints the outcome of an insert or delete.
func Mutation(w io.Writer, verb string, r *engine.MutationResult) {
	fmt.Fprintf(w, "Row %s.\n", verb)
	if len(r.Generated) > 0 {
		keys := make([]string, 0, len(r.Generated))
		for k := range r.Generated {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "Generated %s = %s\n", k, r.Generated[k])
		}
	}
}

// Count prints a bounded row count.
func Count(w io.Writer, table string, c *engine.RowCount) {
	if c.Capped {
		fmt.Fprintf(w, "%s holds at least %d rows (count stopped at the limit)\n", table, c.Count)
		return
	}
	fmt.Fprintf(w, "%s holds %d rows\n", table, c.Count)
}

// Error prints err, listing validation problems one per column.
func Error(w io.Writer, err error) {
	details := adapter.ValidationDetails(err)
	if len(details) == 0 {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	columns := make([]string, 0, len(details))
	for c := range details {
		columns = append(columns, c)
	}
	sort.Strings(columns)
	fmt.Fprintln(w, "Error: invalid input")
	for _, c := range columns {
		fmt.Fprintf(w, "  %s: %s\n", c, details[c])
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yes(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
