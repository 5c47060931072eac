// Package frame loads tabular datasets into gota DataFrames and provides
// the null-aware cell helpers shared by the pipeline and the sinks.
package frame

import (
	"context"
	"fmt"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/xuri/excelize/v2"

	"tabflow/internal/config"
)

// Load reads the configured input with a header row and inferred column types.
func Load(ctx context.Context, cfg config.InputConfig, format string) (dataframe.DataFrame, error) {
	if err := ctx.Err(); err != nil {
		return dataframe.DataFrame{}, err
	}
	switch format {
	case config.FormatXLSX:
		return ReadXLSX(cfg.Path, cfg.Sheet, loadOptions(cfg)...)
	default:
		return ReadCSV(cfg.Path, loadOptions(cfg)...)
	}
}

func loadOptions(cfg config.InputConfig) []dataframe.LoadOption {
	opts := []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.DetectTypes(cfg.DetectTypes),
	}
	if len(cfg.NullValues) > 0 {
		opts = append(opts, dataframe.NaNValues(cfg.NullValues))
	}
	if d := []rune(cfg.Delimiter); len(d) == 1 {
		opts = append(opts, dataframe.WithDelimiter(d[0]))
	}
	return opts
}

// ReadCSV loads a delimited text file.
func ReadCSV(path string, opts ...dataframe.LoadOption) (dataframe.DataFrame, error) {
	file, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to open input: %w", err)
	}
	defer file.Close()

	df := dataframe.ReadCSV(file, opts...)
	if df.Err != nil {
		return df, fmt.Errorf("failed to parse %s: %w", path, df.Err)
	}
	return df, nil
}

// ReadXLSX loads one sheet of a workbook; the first sheet when sheet is empty.
func ReadXLSX(path, sheet string, opts ...dataframe.LoadOption) (dataframe.DataFrame, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return dataframe.DataFrame{}, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("sheet %q is empty", sheet)
	}

	// excelize drops trailing empty cells; pad every row to the header width.
	width := len(rows[0])
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		if len(row) < width {
			row = append(row, make([]string, width-len(row))...)
		}
		records = append(records, row[:width])
	}

	df := dataframe.LoadRecords(records, opts...)
	if df.Err != nil {
		return df, fmt.Errorf("failed to parse sheet %q: %w", sheet, df.Err)
	}
	return df, nil
}
