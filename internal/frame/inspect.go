package frame

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

var typeNames = map[series.Type]string{
	series.Int:    "integer",
	series.Float:  "double",
	series.String: "string",
	series.Bool:   "boolean",
}

// Schema renders the column tree of a frame:
//
//	root
//	 |-- age: integer (nullable = true)
func Schema(df dataframe.DataFrame) string {
	var b strings.Builder
	b.WriteString("root\n")
	types := df.Types()
	for i, name := range df.Names() {
		fmt.Fprintf(&b, " |-- %s: %s (nullable = true)\n", name, typeNames[types[i]])
	}
	return b.String()
}

// Sample returns the header and up to n rows as display strings. Nulls show as "null".
func Sample(df dataframe.DataFrame, n int) ([]string, [][]string) {
	if n > df.Nrow() {
		n = df.Nrow()
	}
	rows := make([][]string, n)
	for r := 0; r < n; r++ {
		row := make([]string, df.Ncol())
		for c := range row {
			e := df.Elem(r, c)
			if e.IsNA() {
				row[c] = "null"
			} else {
				row[c] = Text(e)
			}
		}
		rows[r] = row
	}
	return df.Names(), rows
}

// Show writes the first n rows as a bordered table, followed by a note
// when rows were cut off.
func Show(w io.Writer, df dataframe.DataFrame, n int) error {
	header, rows := Sample(df, n)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(header...).
		Rows(rows...)
	if _, err := fmt.Fprintln(w, t.String()); err != nil {
		return err
	}
	if df.Nrow() > len(rows) {
		_, err := fmt.Fprintf(w, "only showing top %d rows\n", len(rows))
		return err
	}
	return nil
}
