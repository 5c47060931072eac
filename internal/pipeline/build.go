package pipeline

import (
	"tabflow/internal/config"
)

// FromJob builds the processor chain of a configured job. Steps are
// chained in a fixed order: filter, fill, derive, classify, group_by,
// select, order_by, limit.
func FromJob(job config.Job) *DataPipeline {
	dp := New(job.Name)

	if f := job.Filter; f != nil {
		dp.With(Where(Predicate{Column: f.Column, Op: f.Op, Value: f.Value}))
	}
	if len(job.Fill) > 0 {
		dp.With(FillNA(job.Fill))
	}
	if d := job.Derive; d != nil {
		parts := make([]Part, len(d.Concat))
		for i, cp := range d.Concat {
			parts[i] = Part{Column: cp.Column, Literal: cp.Literal}
		}
		dp.With(Concat(d.Column, parts...))
	}
	if c := job.Classify; c != nil {
		rules := make([]Rule, len(c.Rules))
		for i, r := range c.Rules {
			rules[i] = Rule{Op: r.Op, Value: r.Value, Label: r.Label}
		}
		dp.With(Classify(c.Column, c.Source, rules, c.Otherwise))
	}
	if g := job.GroupBy; g != nil {
		aggs := make([]Aggregate, len(g.Aggregates))
		for i, a := range g.Aggregates {
			aggs[i] = Aggregate{Func: a.Func, Column: a.Column, Alias: a.Alias}
		}
		dp.With(GroupBy(g.Keys, aggs...))
	}
	if len(job.Select) > 0 {
		dp.With(Select(job.Select...))
	}
	if len(job.OrderBy) > 0 {
		keys := make([]SortKey, len(job.OrderBy))
		for i, k := range job.OrderBy {
			keys[i] = SortKey{Column: k.Column, Desc: k.Desc}
		}
		dp.With(OrderBy(keys...))
	}
	if job.Limit != nil {
		dp.With(Limit(*job.Limit))
	}

	return dp
}
