package pipeline

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"tabflow/internal/frame"
)

// Rule labels a row when its predicate matches.
type Rule struct {
	Op    string
	Value any
	Label string
}

// ClassifyProcessor adds a string column holding the label of the first
// matching rule, or otherwise when no rule matches (null source included).
type ClassifyProcessor struct {
	BaseProcessor
	name      string
	source    string
	rules     []Rule
	otherwise string
}

func Classify(name, source string, rules []Rule, otherwise string) Processor {
	return &ClassifyProcessor{name: name, source: source, rules: rules, otherwise: otherwise}
}

func (p *ClassifyProcessor) Process(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if err := requireColumns(p, df, p.source); err != nil {
		return df, err
	}
	src := df.Col(p.source)

	matchers := make([]func(series.Element) bool, len(p.rules))
	for i, rule := range p.rules {
		m, err := Predicate{Column: p.source, Op: rule.Op, Value: rule.Value}.matcher(src.Type())
		if err != nil {
			return df, fmt.Errorf("%T Error: rule %d: %w", p, i, err)
		}
		matchers[i] = m
	}

	labels := make([]string, src.Len())
	for r := range labels {
		labels[r] = p.otherwise
		e := src.Elem(r)
		for i, match := range matchers {
			if match(e) {
				labels[r] = p.rules[i].Label
				break
			}
		}
	}
	return df.Mutate(frame.StringColumn(p.name, labels, nil)), nil
}
