package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"

	"github.com/cebeepredict/admin/internal/resource"
	"github.com/cebeepredict/admin/internal/table"
	"github.com/cebeepredict/admin/model"
)

func validateOutputFormat(output string) error {
	if output != "" && output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTable writes a header row and rows as space-aligned columns.
func printTable(w io.Writer, headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// printList writes one page of a resource. Cells use the same formatting
// as the dashboard table; the footer carries the range and page position.
func (a *app) printList(w io.Writer, def model.ResourceDefinition, res model.ListResult) error {
	if a.output == "json" {
		return printJSON(w, model.DataResponse{
			Data: res,
			Meta: map[string]any{"page_count": res.PageCount(), "has_next": res.HasNext()},
		})
	}

	if len(res.Rows) == 0 {
		_, err := fmt.Fprintln(w, resource.EmptyMessage(def))
		return err
	}

	headers := make([]string, 0, len(def.Columns)+1)
	headers = append(headers, "ID")
	for _, c := range def.Columns {
		headers = append(headers, strings.ToUpper(c.Label))
	}

	rows := make([][]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		cells := make([]string, 0, len(headers))
		cells = append(cells, row.ID())
		for _, c := range def.Columns {
			cells = append(cells, a.formatter.CellText(c, def.Vocabulary, row.Field(c.Field)))
		}
		rows = append(rows, cells)
	}
	if err := printTable(w, headers, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s  page %d of %d\n", table.RangeLabel(res), res.PageIndex+1, max(res.PageCount(), 1))
	return err
}
