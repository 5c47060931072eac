package pipeline

import (
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// WhereProcessor keeps the rows matching a predicate
type WhereProcessor struct {
	BaseProcessor
	pred Predicate
}

func Where(pred Predicate) Processor {
	return &WhereProcessor{pred: pred}
}

func (p *WhereProcessor) Process(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if err := requireColumns(p, df, p.pred.Column); err != nil {
		return df, err
	}
	match, err := p.pred.matcher(df.Col(p.pred.Column).Type())
	if err != nil {
		return df, err
	}
	return df.Filter(dataframe.F{
		Colname:    p.pred.Column,
		Comparator: series.CompFunc,
		Comparando: match,
	}), nil
}
