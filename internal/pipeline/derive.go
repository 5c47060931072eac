package pipeline

import (
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"tabflow/internal/frame"
)

// Part is a column reference or a literal in a concatenation.
type Part struct {
	Column  string
	Literal string
}

func Col(name string) Part { return Part{Column: name} }

func Lit(value string) Part { return Part{Literal: value} }

func (pt Part) isColumn() bool { return pt.Column != "" }

// ConcatProcessor adds (or replaces) a string column joining parts row by row.
// A null in any referenced column makes the result null.
type ConcatProcessor struct {
	BaseProcessor
	name  string
	parts []Part
}

func Concat(name string, parts ...Part) Processor {
	return &ConcatProcessor{name: name, parts: parts}
}

func (p *ConcatProcessor) Process(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	var refs []string
	for _, pt := range p.parts {
		if pt.isColumn() {
			refs = append(refs, pt.Column)
		}
	}
	if err := requireColumns(p, df, refs...); err != nil {
		return df, err
	}

	cols := make(map[string]series.Series, len(refs))
	for _, name := range refs {
		cols[name] = df.Col(name)
	}

	values := make([]string, df.Nrow())
	nulls := make([]bool, df.Nrow())
	var b strings.Builder
	for r := range values {
		b.Reset()
		for _, pt := range p.parts {
			if !pt.isColumn() {
				b.WriteString(pt.Literal)
				continue
			}
			e := cols[pt.Column].Elem(r)
			if e.IsNA() {
				nulls[r] = true
				break
			}
			b.WriteString(frame.Text(e))
		}
		if !nulls[r] {
			values[r] = b.String()
		}
	}
	return df.Mutate(frame.StringColumn(p.name, values, nulls)), nil
}
