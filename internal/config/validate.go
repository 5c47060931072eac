package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TABFLOW_INPUT"); v != "" {
		c.Input.Path = v
	}
	if v := os.Getenv("TABFLOW_OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv("TABFLOW_OUTPUT_FORMAT"); v != "" {
		c.Output.Format = strings.ToLower(v)
	}
	if v := os.Getenv("TABFLOW_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TABFLOW_HISTORY_PATH"); v != "" {
		c.History.Path = v
	}
}

var (
	validOps      = map[string]bool{">": true, ">=": true, "<": true, "<=": true, "==": true, "!=": true}
	validAggFuncs = map[string]bool{"count": true, "avg": true, "sum": true, "min": true, "max": true}
)

// Validate checks the configuration before any data is read.
func (c *Config) Validate() error {
	var errs []error

	if c.Input.Path == "" {
		errs = append(errs, errors.New("input.path is required"))
	}
	switch c.Input.Format {
	case "", FormatAuto, FormatCSV, FormatXLSX:
	default:
		errs = append(errs, fmt.Errorf("input.format %q not supported", c.Input.Format))
	}
	if len([]rune(c.Input.Delimiter)) > 1 {
		errs = append(errs, fmt.Errorf("input.delimiter %q must be a single character", c.Input.Delimiter))
	}
	switch c.Output.Format {
	case FormatCSV, FormatXLSX:
	default:
		errs = append(errs, fmt.Errorf("output.format %q not supported", c.Output.Format))
	}
	if len([]rune(c.Output.Delimiter)) > 1 {
		errs = append(errs, fmt.Errorf("output.delimiter %q must be a single character", c.Output.Delimiter))
	}
	switch c.Output.Mode {
	case ModeOverwrite, ModeError, ModeIgnore:
	default:
		errs = append(errs, fmt.Errorf("output.mode %q not supported", c.Output.Mode))
	}
	if c.Run.Parallelism < 1 {
		errs = append(errs, fmt.Errorf("run.parallelism must be >= 1, got %d", c.Run.Parallelism))
	}
	if c.Inspect.SampleRows < 0 {
		errs = append(errs, fmt.Errorf("inspect.sample_rows must be >= 0, got %d", c.Inspect.SampleRows))
	}

	outputs := make(map[string]string)
	for i, job := range c.Jobs {
		if job.Name == "" {
			errs = append(errs, fmt.Errorf("jobs[%d]: name is required", i))
			continue
		}
		path := c.OutputPath(job)
		if prev, ok := outputs[path]; ok {
			errs = append(errs, fmt.Errorf("job %q: output %s already used by job %q", job.Name, path, prev))
		}
		outputs[path] = job.Name
		if err := job.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("job %q: %w", job.Name, err))
		}
	}

	return errors.Join(errs...)
}

// Validate checks the steps of a single job.
func (j Job) Validate() error {
	var errs []error

	if j.Filter != nil {
		if err := j.Filter.validate(); err != nil {
			errs = append(errs, fmt.Errorf("filter: %w", err))
		}
	}
	for col := range j.Fill {
		if col == "" {
			errs = append(errs, errors.New("fill: empty column name"))
		}
	}
	if d := j.Derive; d != nil {
		if d.Column == "" {
			errs = append(errs, errors.New("derive: column is required"))
		}
		if len(d.Concat) == 0 {
			errs = append(errs, errors.New("derive: concat needs at least one part"))
		}
		for i, p := range d.Concat {
			if p.Column != "" && p.Literal != "" {
				errs = append(errs, fmt.Errorf("derive: concat[%d] sets both column and literal", i))
			}
		}
	}
	if cl := j.Classify; cl != nil {
		if cl.Column == "" || cl.Source == "" {
			errs = append(errs, errors.New("classify: column and source are required"))
		}
		for i, r := range cl.Rules {
			if !validOps[r.Op] {
				errs = append(errs, fmt.Errorf("classify: rules[%d]: unknown op %q", i, r.Op))
			}
		}
	}
	if g := j.GroupBy; g != nil {
		if len(g.Keys) == 0 {
			errs = append(errs, errors.New("group_by: keys are required"))
		}
		if len(g.Aggregates) == 0 {
			errs = append(errs, errors.New("group_by: at least one aggregate is required"))
		}
		for i, a := range g.Aggregates {
			if !validAggFuncs[a.Func] {
				errs = append(errs, fmt.Errorf("group_by: aggregates[%d]: unknown func %q", i, a.Func))
				continue
			}
			if a.Func != "count" && (a.Column == "" || a.Column == "*") {
				errs = append(errs, fmt.Errorf("group_by: aggregates[%d]: %s needs a column", i, a.Func))
			}
		}
	}

	for i, col := range j.Select {
		if col == "" {
			errs = append(errs, fmt.Errorf("select[%d]: empty column name", i))
		}
	}
	for i, k := range j.OrderBy {
		if k.Column == "" {
			errs = append(errs, fmt.Errorf("order_by[%d]: column is required", i))
		}
	}
	if j.Limit != nil && *j.Limit < 0 {
		errs = append(errs, fmt.Errorf("limit must be >= 0, got %d", *j.Limit))
	}

	return errors.Join(errs...)
}

func (p *Predicate) validate() error {
	if p.Column == "" {
		return errors.New("column is required")
	}
	if !validOps[p.Op] {
		return fmt.Errorf("unknown op %q", p.Op)
	}
	if p.Value == nil {
		return errors.New("value is required")
	}
	return nil
}
