package pipeline

import (
	"fmt"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"tabflow/internal/frame"
)

// SelectProcessor keeps the named columns, in the given order
type SelectProcessor struct {
	BaseProcessor
	columns []string
}

func Select(columns ...string) Processor {
	return &SelectProcessor{columns: columns}
}

func (p *SelectProcessor) Process(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if len(p.columns) == 0 {
		return df, fmt.Errorf("%T Error: no columns to select", p)
	}
	if err := requireColumns(p, df, p.columns...); err != nil {
		return df, err
	}
	return df.Select(p.columns), nil
}

// SortKey orders rows by one column. Ascending puts nulls first,
// descending puts them last.
type SortKey struct {
	Column string
	Desc   bool
}

// OrderByProcessor sorts rows by one or more keys. Ties keep input order.
type OrderByProcessor struct {
	BaseProcessor
	keys []SortKey
}

func OrderBy(keys ...SortKey) Processor {
	return &OrderByProcessor{keys: keys}
}

func (p *OrderByProcessor) Process(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	cols := make([]series.Series, len(p.keys))
	for i, k := range p.keys {
		if err := requireColumns(p, df, k.Column); err != nil {
			return df, err
		}
		cols[i] = df.Col(k.Column)
	}
	if df.Nrow() < 2 {
		return df, nil
	}

	order := make([]int, df.Nrow())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		for k, col := range cols {
			if c := compareNullsFirst(col.Elem(order[i]), col.Elem(order[j])); c != 0 {
				if p.keys[k].Desc {
					return c > 0
				}
				return c < 0
			}
		}
		return false
	})
	return df.Subset(order), nil
}

func compareNullsFirst(a, b series.Element) int {
	switch an, bn := a.IsNA(), b.IsNA(); {
	case an && bn:
		return 0
	case an:
		return -1
	case bn:
		return 1
	}
	return frame.Compare(a, b)
}

// LimitProcessor keeps the first n rows
type LimitProcessor struct {
	BaseProcessor
	n int
}

func Limit(n int) Processor {
	return &LimitProcessor{n: n}
}

func (p *LimitProcessor) Process(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if p.n < 0 {
		return df, fmt.Errorf("%T Error: limit must be >= 0, got %d", p, p.n)
	}
	if p.n >= df.Nrow() {
		return df, nil
	}
	if p.n == 0 {
		return emptyLike(df), nil
	}
	rows := make([]int, p.n)
	for i := range rows {
		rows[i] = i
	}
	return df.Subset(rows), nil
}

// emptyLike returns a frame with the columns and types of df and no rows.
func emptyLike(df dataframe.DataFrame) dataframe.DataFrame {
	cols := make([]series.Series, df.Ncol())
	for i, name := range df.Names() {
		cols[i] = series.New([]string{}, df.Col(name).Type(), name)
	}
	return dataframe.New(cols...)
}
