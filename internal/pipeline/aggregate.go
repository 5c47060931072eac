package pipeline

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"tabflow/internal/frame"
)

// Aggregate functions.
const (
	AggCount = "count"
	AggAvg   = "avg"
	AggSum   = "sum"
	AggMin   = "min"
	AggMax   = "max"
)

// Aggregate is one output column of a GroupBy. Column "*" (or empty)
// counts rows; any other column counts non-null cells.
type Aggregate struct {
	Func   string
	Column string
	Alias  string
}

func (a Aggregate) allRows() bool {
	return a.Column == "" || a.Column == "*"
}

// Name is the output column name: the alias, else "<func>_<column>".
func (a Aggregate) Name() string {
	if a.Alias != "" {
		return a.Alias
	}
	if a.allRows() {
		return a.Func
	}
	return a.Func + "_" + a.Column
}

// GroupByProcessor emits one row per distinct key tuple, ordered by key
// ascending with nulls first. Nulls in a key column form their own group.
type GroupByProcessor struct {
	BaseProcessor
	keys []string
	aggs []Aggregate
}

func GroupBy(keys []string, aggs ...Aggregate) Processor {
	return &GroupByProcessor{keys: keys, aggs: aggs}
}

type group struct {
	rows []int
}

func (p *GroupByProcessor) Process(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if len(p.keys) == 0 {
		return df, fmt.Errorf("%T Error: no group keys", p)
	}
	needed := append([]string(nil), p.keys...)
	for _, a := range p.aggs {
		if !a.allRows() {
			needed = append(needed, a.Column)
		}
	}
	if err := requireColumns(p, df, needed...); err != nil {
		return df, err
	}

	keyCols := make([]series.Series, len(p.keys))
	for i, k := range p.keys {
		keyCols[i] = df.Col(k)
	}
	groups := p.partition(df.Nrow(), keyCols)

	firsts := make([]int, len(groups))
	for i, g := range groups {
		firsts[i] = g.rows[0]
	}

	out := make([]series.Series, 0, len(p.keys)+len(p.aggs))
	for i, k := range p.keys {
		var s series.Series
		if len(firsts) == 0 {
			s = series.New([]string{}, keyCols[i].Type(), k)
		} else {
			s = keyCols[i].Subset(firsts)
			s.Name = k
		}
		out = append(out, s)
	}
	for _, a := range p.aggs {
		s, err := p.aggregate(df, a, groups)
		if err != nil {
			return df, err
		}
		out = append(out, s)
	}
	return dataframe.New(out...), nil
}

// partition splits row indexes by key tuple and sorts the groups.
func (p *GroupByProcessor) partition(nrow int, keyCols []series.Series) []*group {
	index := make(map[string]*group)
	var groups []*group
	var b strings.Builder
	for r := 0; r < nrow; r++ {
		b.Reset()
		for _, s := range keyCols {
			e := s.Elem(r)
			if e.IsNA() {
				b.WriteString("\x00")
			} else {
				b.WriteString("\x01")
				b.WriteString(e.String())
			}
			b.WriteString("\x1f")
		}
		key := b.String()
		g, ok := index[key]
		if !ok {
			g = &group{}
			index[key] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, r)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		ri, rj := groups[i].rows[0], groups[j].rows[0]
		for _, s := range keyCols {
			a, b := s.Elem(ri), s.Elem(rj)
			switch {
			case a.IsNA() && b.IsNA():
				continue
			case a.IsNA():
				return true
			case b.IsNA():
				return false
			}
			if c := frame.Compare(a, b); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return groups
}

func (p *GroupByProcessor) aggregate(df dataframe.DataFrame, a Aggregate, groups []*group) (series.Series, error) {
	name := a.Name()

	if a.Func == AggCount {
		counts := make([]int, len(groups))
		for i, g := range groups {
			if a.allRows() {
				counts[i] = len(g.rows)
				continue
			}
			col := df.Col(a.Column)
			for _, r := range g.rows {
				if !col.Elem(r).IsNA() {
					counts[i]++
				}
			}
		}
		s := series.Ints(counts)
		s.Name = name
		return s, nil
	}

	if a.allRows() {
		return series.Series{}, fmt.Errorf("%T Error: %s needs a column", p, a.Func)
	}
	col := df.Col(a.Column)

	switch a.Func {
	case AggMin, AggMax:
		return extreme(col, groups, name, a.Func == AggMax), nil
	case AggAvg, AggSum:
		if !frame.IsNumeric(col.Type()) {
			return series.Series{}, fmt.Errorf("%T Error: %s(%s) needs a numeric column, got %s", p, a.Func, a.Column, col.Type())
		}
	default:
		return series.Series{}, fmt.Errorf("%T Error: unknown aggregate %q", p, a.Func)
	}

	outType := series.Float
	if a.Func == AggSum && col.Type() == series.Int {
		outType = series.Int
	}

	records := make([]string, len(groups))
	for i, g := range groups {
		vals := make([]float64, 0, len(g.rows))
		for _, r := range g.rows {
			if v, ok := frame.Float(col.Elem(r)); ok {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			records[i] = frame.NullToken
			continue
		}
		switch {
		case a.Func == AggAvg:
			records[i] = frame.FormatFloat(stat.Mean(vals, nil))
		case outType == series.Int:
			records[i] = strconv.FormatInt(int64(floats.Sum(vals)), 10)
		default:
			records[i] = frame.FormatFloat(floats.Sum(vals))
		}
	}
	return series.New(records, outType, name), nil
}

// extreme picks the min or max non-null cell of each group, keeping the
// column type. A group with only nulls yields null.
func extreme(col series.Series, groups []*group, name string, wantMax bool) series.Series {
	if len(groups) == 0 {
		return series.New([]string{}, col.Type(), name)
	}
	picks := make([]int, len(groups))
	for i, g := range groups {
		// An all-null group keeps its first row, which is null.
		picks[i] = g.rows[0]
		found := false
		for _, r := range g.rows {
			e := col.Elem(r)
			if e.IsNA() {
				continue
			}
			if !found {
				picks[i], found = r, true
				continue
			}
			c := frame.Compare(e, col.Elem(picks[i]))
			if (wantMax && c > 0) || (!wantMax && c < 0) {
				picks[i] = r
			}
		}
	}
	s := col.Subset(picks)
	s.Name = name
	return s
}
