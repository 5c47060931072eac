package pipeline

import (
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabflow/internal/config"
	"tabflow/internal/frame"
)

func employees(t *testing.T) dataframe.DataFrame {
	t.Helper()
	df := dataframe.LoadRecords([][]string{
		{"first_name", "last_name", "age", "salary", "department"},
		{"Ann", "Lee", "34", "52000", "eng"},
		{"Bob", "Ray", "28", "", "ops"},
		{"Cyd", "", "45", "120000", "eng"},
		{"Dee", "Moe", "31", "48000", ""},
		{"Eve", "Fox", "NA", "30000", "ops"},
	}, dataframe.NaNValues([]string{"", "NA"}))
	require.NoError(t, df.Err)
	return df
}

func rows(df dataframe.DataFrame) [][]string {
	_, r := frame.Sample(df, df.Nrow())
	return r
}

func column(df dataframe.DataFrame, name string) []string {
	var out []string
	for _, r := range rows(df.Select([]string{name})) {
		out = append(out, r[0])
	}
	return out
}

func assertRows(t *testing.T, want [][]string, df dataframe.DataFrame) {
	t.Helper()
	if diff := cmp.Diff(want, rows(df)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestWhere(t *testing.T) {
	df := employees(t)

	t.Run("numeric greater than skips nulls", func(t *testing.T) {
		out, err := Where(Predicate{Column: "age", Op: ">", Value: 30}).Process(df)
		require.NoError(t, err)
		assert.Equal(t, []string{"Ann", "Cyd", "Dee"}, column(out, "first_name"))
		assert.Equal(t, series.Int, out.Col("age").Type())
	})

	t.Run("float threshold on int column", func(t *testing.T) {
		out, err := Where(Predicate{Column: "age", Op: "<=", Value: 31.5}).Process(df)
		require.NoError(t, err)
		assert.Equal(t, []string{"Bob", "Dee"}, column(out, "first_name"))
	})

	t.Run("string equality", func(t *testing.T) {
		out, err := Where(Predicate{Column: "department", Op: "==", Value: "eng"}).Process(df)
		require.NoError(t, err)
		assert.Equal(t, []string{"Ann", "Cyd"}, column(out, "first_name"))
	})

	t.Run("not equal never matches null", func(t *testing.T) {
		out, err := Where(Predicate{Column: "department", Op: "!=", Value: "eng"}).Process(df)
		require.NoError(t, err)
		assert.Equal(t, []string{"Bob", "Eve"}, column(out, "first_name"))
	})

	t.Run("unknown column", func(t *testing.T) {
		_, err := Where(Predicate{Column: "height", Op: ">", Value: 1}).Process(df)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `column "height" not found`)
	})

	t.Run("non numeric value on numeric column", func(t *testing.T) {
		_, err := Where(Predicate{Column: "age", Op: ">", Value: "old"}).Process(df)
		assert.Error(t, err)
	})

	t.Run("unknown operator", func(t *testing.T) {
		_, err := Where(Predicate{Column: "age", Op: "=~", Value: 1}).Process(df)
		assert.Error(t, err)
	})
}

func TestFillNA(t *testing.T) {
	df := employees(t)

	out, err := FillNA(map[string]any{"salary": 0, "department": "none"}).Process(df)
	require.NoError(t, err)
	assert.Equal(t, []string{"52000", "0", "120000", "48000", "30000"}, column(out, "salary"))
	assert.Equal(t, []string{"eng", "ops", "eng", "none", "ops"}, column(out, "department"))
	assert.Equal(t, series.Int, out.Col("salary").Type())
	assert.Equal(t, df.Names(), out.Names(), "column order is kept")

	// Untouched columns keep their nulls.
	assert.Equal(t, "null", column(out, "age")[4])

	t.Run("type mismatch", func(t *testing.T) {
		_, err := FillNA(map[string]any{"salary": "zero"}).Process(df)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not match integer column")
	})

	t.Run("unknown column", func(t *testing.T) {
		_, err := FillNA(map[string]any{"bonus": 0}).Process(df)
		assert.Error(t, err)
	})
}

func TestFillNA_FloatColumn(t *testing.T) {
	df := dataframe.LoadRecords([][]string{
		{"score"},
		{"1.25"},
		{""},
		{"0.1234567891"},
	}, dataframe.NaNValues([]string{""}))
	require.NoError(t, df.Err)

	out, err := FillNA(map[string]any{"score": 2}).Process(df)
	require.NoError(t, err)
	assert.Equal(t, series.Float, out.Col("score").Type())
	assert.Equal(t, []string{"1.25", "2.0", "0.1234567891"}, column(out, "score"))
}

func TestConcat(t *testing.T) {
	df := employees(t)

	out, err := Concat("full_name", Col("first_name"), Lit(" "), Col("last_name")).Process(df)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ann Lee", "Bob Ray", "null", "Dee Moe", "Eve Fox"}, column(out, "full_name"))
	assert.Equal(t, append(df.Names(), "full_name"), out.Names())

	out, err = Concat("tag", Col("department"), Lit("-"), Col("age")).Process(df)
	require.NoError(t, err)
	assert.Equal(t, []string{"eng-34", "ops-28", "eng-45", "null", "null"}, column(out, "tag"))

	_, err = Concat("x", Col("middle_name")).Process(df)
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	df := employees(t)
	rules := []Rule{
		{Op: "<", Value: 50000, Label: "low"},
		{Op: ">=", Value: 50000, Label: "medium"},
		{Op: ">=", Value: 100000, Label: "high"},
	}

	out, err := Classify("classification", "salary", rules, "unknown").Process(df)
	require.NoError(t, err)
	// First match wins, so "high" is shadowed by "medium".
	assert.Equal(t, []string{"medium", "unknown", "medium", "low", "low"}, column(out, "classification"))

	reordered := []Rule{rules[2], rules[1], rules[0]}
	out, err = Classify("classification", "salary", reordered, "unknown").Process(df)
	require.NoError(t, err)
	assert.Equal(t, []string{"medium", "unknown", "high", "low", "low"}, column(out, "classification"))

	_, err = Classify("c", "salary", []Rule{{Op: ">", Value: "lots", Label: "x"}}, "").Process(df)
	assert.Error(t, err)
}

func TestClassify_NumericRulesOnTextColumn(t *testing.T) {
	// One unparsable cell makes the whole column load as text.
	df := dataframe.LoadRecords([][]string{
		{"salary"},
		{"100000"},
		{"9000"},
		{"n/a"},
	}, dataframe.NaNValues([]string{""}))
	require.NoError(t, df.Err)
	require.Equal(t, series.String, df.Col("salary").Type())

	rules := []Rule{
		{Op: "<", Value: 50000, Label: "low"},
		{Op: ">=", Value: 50000, Label: "medium"},
		{Op: ">=", Value: 100000, Label: "high"},
	}
	out, err := Classify("classification", "salary", rules, "unknown").Process(df)
	require.NoError(t, err)
	assert.Equal(t, []string{"medium", "low", "unknown"}, column(out, "classification"))

	out, err = Where(Predicate{Column: "salary", Op: ">", Value: 50000}).Process(df)
	require.NoError(t, err)
	assert.Equal(t, []string{"100000"}, column(out, "salary"))

	out, err = Where(Predicate{Column: "salary", Op: "!=", Value: 9000}).Process(df)
	require.NoError(t, err)
	assert.Equal(t, []string{"100000"}, column(out, "salary"), "unparsable cells never match")
}

func TestNaNText_IsNotNull(t *testing.T) {
	dp := New("nan_text").
		With(Concat("code", Lit("Na"), Lit("N"))).
		With(FillNA(map[string]any{"department": "NaN"})).
		With(Classify("label", "age", []Rule{{Op: ">", Value: 40, Label: "NaN"}}, "young")).
		With(Where(Predicate{Column: "age", Op: ">", Value: 30})).
		With(GroupBy([]string{"department"},
			Aggregate{Func: AggMin, Column: "code", Alias: "code"},
			Aggregate{Func: AggMax, Column: "label", Alias: "label"},
		))

	out, err := dp.Apply(employees(t))
	require.NoError(t, err)
	assertRows(t, [][]string{
		{"NaN", "NaN", "young"},
		{"eng", "NaN", "young"},
	}, out)
	for _, name := range out.Names() {
		col := out.Col(name)
		for i := 0; i < col.Len(); i++ {
			assert.False(t, col.Elem(i).IsNA(), "%s[%d]", name, i)
		}
	}
}

func TestGroupBy_Summary(t *testing.T) {
	df := employees(t)

	out, err := GroupBy([]string{"department"},
		Aggregate{Func: AggCount, Column: "*", Alias: "total_employees"},
		Aggregate{Func: AggAvg, Column: "salary", Alias: "avg_salary"},
		Aggregate{Func: AggMax, Column: "salary", Alias: "max_salary"},
		Aggregate{Func: AggMin, Column: "salary", Alias: "min_salary"},
		Aggregate{Func: AggCount, Column: "salary"},
		Aggregate{Func: AggSum, Column: "salary"},
	).Process(df)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"department", "total_employees", "avg_salary", "max_salary", "min_salary",
		"count_salary", "sum_salary",
	}, out.Names())
	assert.Equal(t, []series.Type{
		series.String, series.Int, series.Float, series.Int, series.Int, series.Int, series.Int,
	}, out.Types())

	assertRows(t, [][]string{
		{"null", "1", "48000.0", "48000", "48000", "1", "48000"},
		{"eng", "2", "86000.0", "120000", "52000", "2", "172000"},
		{"ops", "2", "30000.0", "30000", "30000", "1", "30000"},
	}, out)
}

func TestGroupBy_MultipleKeysAndNullAggregates(t *testing.T) {
	df := dataframe.LoadRecords([][]string{
		{"team", "level", "score"},
		{"b", "2", ""},
		{"a", "10", "1.5"},
		{"a", "2", "2.5"},
		{"a", "2", "3.5"},
		{"b", "2", ""},
	}, dataframe.NaNValues([]string{""}))
	require.NoError(t, df.Err)

	out, err := GroupBy([]string{"team", "level"},
		Aggregate{Func: AggAvg, Column: "score"},
		Aggregate{Func: AggCount},
	).Process(df)
	require.NoError(t, err)

	assert.Equal(t, []string{"team", "level", "avg_score", "count"}, out.Names())
	assertRows(t, [][]string{
		{"a", "2", "3.0", "2"},
		{"a", "10", "1.5", "1"},
		{"b", "2", "null", "2"},
	}, out)
}

func TestGroupBy_Errors(t *testing.T) {
	df := employees(t)

	_, err := GroupBy([]string{"department"}, Aggregate{Func: AggAvg, Column: "last_name"}).Process(df)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs a numeric column")

	_, err = GroupBy([]string{"division"}, Aggregate{Func: AggCount}).Process(df)
	assert.Error(t, err)

	_, err = GroupBy(nil, Aggregate{Func: AggCount}).Process(df)
	assert.Error(t, err)
}

func TestGroupBy_MinMaxOnStrings(t *testing.T) {
	df := employees(t)

	out, err := GroupBy([]string{"department"},
		Aggregate{Func: AggMin, Column: "first_name"},
		Aggregate{Func: AggMax, Column: "first_name"},
	).Process(df)
	require.NoError(t, err)
	assertRows(t, [][]string{
		{"null", "Dee", "Dee"},
		{"eng", "Ann", "Cyd"},
		{"ops", "Bob", "Eve"},
	}, out)
}

func TestDataPipeline_Chain(t *testing.T) {
	df := employees(t)

	dp := New("seniors").
		With(Where(Predicate{Column: "age", Op: ">", Value: 30})).
		With(FillNA(map[string]any{"department": "unassigned"})).
		With(Concat("full_name", Col("first_name"), Lit(" "), Col("last_name")))
	assert.Equal(t, 3, dp.Len())
	assert.Equal(t, "seniors", dp.Name())

	out, err := dp.Apply(df)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ann Lee", "null", "Dee Moe"}, column(out, "full_name"))
	assert.Equal(t, []string{"eng", "eng", "unassigned"}, column(out, "department"))

	// The source frame is untouched.
	assert.Equal(t, 5, df.Nrow())
	assert.NotContains(t, df.Names(), "full_name")
	assert.Equal(t, "null", column(df, "department")[3])
}

func TestDataPipeline_ErrorNamesJob(t *testing.T) {
	dp := New("broken").With(Where(Predicate{Column: "nope", Op: ">", Value: 1}))
	_, err := dp.Apply(employees(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestDataPipeline_Empty(t *testing.T) {
	df := employees(t)
	out, err := New("copy").Apply(df)
	require.NoError(t, err)
	assert.Equal(t, rows(df), rows(out))
}

func TestFromJob_DefaultJobs(t *testing.T) {
	df := employees(t)
	for _, job := range config.DefaultJobs() {
		dp := FromJob(job)
		assert.Equal(t, 1, dp.Len(), job.Name)
		_, err := dp.Apply(df)
		assert.NoError(t, err, job.Name)
	}

	combined := config.Job{
		Name:   "combined",
		Filter: &config.Predicate{Column: "age", Op: ">", Value: 30},
		Fill:   map[string]any{"salary": 0},
		GroupBy: &config.GroupSpec{
			Keys:       []string{"department"},
			Aggregates: []config.AggSpec{{Func: "sum", Column: "salary"}},
		},
	}
	out, err := FromJob(combined).Apply(df)
	require.NoError(t, err)
	assertRows(t, [][]string{
		{"null", "48000"},
		{"eng", "172000"},
	}, out)
}
