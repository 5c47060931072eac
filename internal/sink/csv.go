package sink

import (
	"encoding/csv"
	"io"

	"github.com/go-gota/gota/dataframe"

	"tabflow/internal/frame"
)

// csvEncoder writes delimited text. Nulls become the configured token and
// floats use frame.FormatFloat.
type csvEncoder struct {
	comma  rune
	header bool
	null   string
}

func (c *csvEncoder) encode(w io.Writer, _ string, df dataframe.DataFrame) error {
	writer := csv.NewWriter(w)
	writer.Comma = c.comma

	if c.header {
		if err := writer.Write(df.Names()); err != nil {
			return err
		}
	}

	record := make([]string, df.Ncol())
	for r := 0; r < df.Nrow(); r++ {
		for col := range record {
			e := df.Elem(r, col)
			if e.IsNA() {
				record[col] = c.null
			} else {
				record[col] = frame.Text(e)
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
