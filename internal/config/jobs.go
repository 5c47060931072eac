package config

// Job is one named transformation of the input dataset written to one output.
// Steps present on a job run in this order: filter, fill, derive, classify,
// group_by, select, order_by, limit.
type Job struct {
	Name   string `yaml:"name" toml:"name"`
	Output string `yaml:"output,omitempty" toml:"output,omitempty"` // defaults to <name>.<format>

	Filter   *Predicate     `yaml:"filter,omitempty" toml:"filter,omitempty"`
	Fill     map[string]any `yaml:"fill,omitempty" toml:"fill,omitempty"`
	Derive   *DeriveSpec    `yaml:"derive,omitempty" toml:"derive,omitempty"`
	Classify *ClassifySpec  `yaml:"classify,omitempty" toml:"classify,omitempty"`
	GroupBy  *GroupSpec     `yaml:"group_by,omitempty" toml:"group_by,omitempty"`

	Select  []string  `yaml:"select,omitempty" toml:"select,omitempty"`
	OrderBy []SortKey `yaml:"order_by,omitempty" toml:"order_by,omitempty"`
	Limit   *int      `yaml:"limit,omitempty" toml:"limit,omitempty"` // unset keeps every row
}

// Predicate compares one column against a constant.
type Predicate struct {
	Column string `yaml:"column" toml:"column"`
	Op     string `yaml:"op" toml:"op"` // >, >=, <, <=, ==, !=
	Value  any    `yaml:"value" toml:"value"`
}

// DeriveSpec adds a column built by concatenating column values and literals.
type DeriveSpec struct {
	Column string       `yaml:"column" toml:"column"`
	Concat []ConcatPart `yaml:"concat" toml:"concat"`
}

// ConcatPart is either a column reference or a literal.
type ConcatPart struct {
	Column  string `yaml:"column,omitempty" toml:"column,omitempty"`
	Literal string `yaml:"literal,omitempty" toml:"literal,omitempty"`
}

// ClassifySpec labels rows by the first matching rule on Source.
type ClassifySpec struct {
	Column    string `yaml:"column" toml:"column"`
	Source    string `yaml:"source" toml:"source"`
	Rules     []Rule `yaml:"rules" toml:"rules"`
	Otherwise string `yaml:"otherwise" toml:"otherwise"`
}

// Rule is one branch of a classification.
type Rule struct {
	Op    string `yaml:"op" toml:"op"`
	Value any    `yaml:"value" toml:"value"`
	Label string `yaml:"label" toml:"label"`
}

// GroupSpec groups rows by Keys and computes Aggregates per group.
type GroupSpec struct {
	Keys       []string  `yaml:"keys" toml:"keys"`
	Aggregates []AggSpec `yaml:"aggregates" toml:"aggregates"`
}

// AggSpec is one aggregate column. Column "*" (or empty) is only valid for count.
type AggSpec struct {
	Func   string `yaml:"func" toml:"func"` // count, avg, sum, min, max
	Column string `yaml:"column" toml:"column"`
	Alias  string `yaml:"alias,omitempty" toml:"alias,omitempty"`
}

// SortKey orders rows by one column.
type SortKey struct {
	Column string `yaml:"column" toml:"column"`
	Desc   bool   `yaml:"desc,omitempty" toml:"desc,omitempty"`
}

// DefaultJobs are the six transformations of the employee dataset.
func DefaultJobs() []Job {
	return []Job{
		{
			Name:   "filtered_data",
			Filter: &Predicate{Column: "age", Op: ">", Value: 30},
		},
		{
			Name: "avg_salary",
			GroupBy: &GroupSpec{
				Keys: []string{"department"},
				Aggregates: []AggSpec{
					{Func: "avg", Column: "salary", Alias: "avg_salary"},
				},
			},
		},
		{
			Name: "transformed_data",
			Derive: &DeriveSpec{
				Column: "full_name",
				Concat: []ConcatPart{
					{Column: "first_name"},
					{Literal: " "},
					{Column: "last_name"},
				},
			},
		},
		{
			Name: "filled_data",
			Fill: map[string]any{"salary": 0},
		},
		{
			Name: "classified_data",
			Classify: &ClassifySpec{
				Column: "classification",
				Source: "salary",
				Rules: []Rule{
					{Op: "<", Value: 50000, Label: "low"},
					{Op: ">=", Value: 50000, Label: "medium"},
					{Op: ">=", Value: 100000, Label: "high"},
				},
				Otherwise: "unknown",
			},
		},
		{
			Name: "summary_data",
			GroupBy: &GroupSpec{
				Keys: []string{"department"},
				Aggregates: []AggSpec{
					{Func: "count", Column: "*", Alias: "total_employees"},
					{Func: "avg", Column: "salary", Alias: "avg_salary"},
					{Func: "max", Column: "salary", Alias: "max_salary"},
					{Func: "min", Column: "salary", Alias: "min_salary"},
				},
			},
		},
	}
}
