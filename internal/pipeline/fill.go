package pipeline

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"tabflow/internal/frame"
)

// FillNAProcessor replaces nulls in the named columns with a constant.
// The column type never changes: numbers fill numeric columns, strings
// fill string columns and booleans fill boolean columns.
type FillNAProcessor struct {
	BaseProcessor
	values map[string]any
}

func FillNA(values map[string]any) Processor {
	return &FillNAProcessor{values: values}
}

func (p *FillNAProcessor) Process(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	cols := make([]string, 0, len(p.values))
	for col := range p.values {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	if err := requireColumns(p, df, cols...); err != nil {
		return df, err
	}

	for _, col := range cols {
		s := df.Col(col)
		fill, err := fillRecord(s.Type(), p.values[col])
		if err != nil {
			return df, fmt.Errorf("%T Error: column %q: %w", p, col, err)
		}

		records := make([]string, s.Len())
		for i := range records {
			e := s.Elem(i)
			if e.IsNA() {
				records[i] = fill
			} else {
				records[i] = frame.Text(e)
			}
		}
		if s.Type() == series.String {
			df = df.Mutate(frame.StringColumn(col, records, nil))
		} else {
			df = df.Mutate(series.New(records, s.Type(), col))
		}
		if df.Err != nil {
			return df, df.Err
		}
	}
	return df, nil
}

func fillRecord(t series.Type, v any) (string, error) {
	switch t {
	case series.Int:
		if !isNumber(v) {
			return "", fmt.Errorf("fill value %v (%T) does not match integer column", v, v)
		}
		f, _ := toFloat(v)
		return strconv.FormatInt(int64(f), 10), nil
	case series.Float:
		if !isNumber(v) {
			return "", fmt.Errorf("fill value %v (%T) does not match double column", v, v)
		}
		f, _ := toFloat(v)
		return frame.FormatFloat(f), nil
	case series.Bool:
		b, ok := v.(bool)
		if !ok {
			return "", fmt.Errorf("fill value %v (%T) does not match boolean column", v, v)
		}
		return strconv.FormatBool(b), nil
	default:
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("fill value %v (%T) does not match string column", v, v)
		}
		return s, nil
	}
}
