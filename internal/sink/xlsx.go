package sink

import (
	"io"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// xlsxEncoder writes one sheet named after the job with typed cells.
type xlsxEncoder struct {
	header bool
}

func (x *xlsxEncoder) encode(w io.Writer, name string, df dataframe.DataFrame) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(name)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	row := 1
	if x.header {
		header := make([]interface{}, df.Ncol())
		for i, n := range df.Names() {
			header[i] = n
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return err
		}
		style, err := f.NewStyle(&excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		})
		if err != nil {
			return err
		}
		if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
			return err
		}
		row++
	}

	values := make([]interface{}, df.Ncol())
	for r := 0; r < df.Nrow(); r++ {
		for c := range values {
			values[c] = cellValue(df.Elem(r, c))
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
		row++
	}

	return f.Write(w)
}

func cellValue(e series.Element) interface{} {
	if e.IsNA() {
		return nil
	}
	switch e.Type() {
	case series.Int:
		if v, err := e.Int(); err == nil {
			return v
		}
	case series.Float:
		return e.Float()
	case series.Bool:
		if v, err := e.Bool(); err == nil {
			return v
		}
	}
	return e.String()
}

// sheetName fits a job name to Excel's sheet name rules.
func sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, name)
	if name == "" {
		name = "Sheet1"
	}
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	return name
}
