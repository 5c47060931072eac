package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gota/gota/series"

	"tabflow/internal/frame"
)

// Predicate compares a column against a constant with one of
// >, >=, <, <=, ==, !=.
type Predicate struct {
	Column string
	Op     string
	Value  any
}

func (p Predicate) String() string {
	return fmt.Sprintf("%s %s %v", p.Column, p.Op, p.Value)
}

// matcher compiles the predicate for a column of type t. Null cells never match.
func (p Predicate) matcher(t series.Type) (func(series.Element) bool, error) {
	switch t {
	case series.Int, series.Float:
		return p.numeric()

	case series.Bool:
		want, err := toBool(p.Value)
		if err != nil {
			return nil, fmt.Errorf("predicate %s: %w", p, err)
		}
		if p.Op != "==" && p.Op != "!=" {
			return nil, fmt.Errorf("predicate %s: op %q not supported on boolean column", p, p.Op)
		}
		eq := p.Op == "=="
		return func(e series.Element) bool {
			if e.IsNA() {
				return false
			}
			b, err := e.Bool()
			if err != nil {
				return false
			}
			return (b == want) == eq
		}, nil

	default:
		// A number against a text column compares the parsed cells;
		// cells that do not parse never match.
		if isNumber(p.Value) {
			return p.numeric()
		}
		want := fmt.Sprint(p.Value)
		cmp, err := opFunc(p.Op)
		if err != nil {
			return nil, err
		}
		return func(e series.Element) bool {
			if e.IsNA() {
				return false
			}
			return cmp(strings.Compare(e.String(), want))
		}, nil
	}
}

func (p Predicate) numeric() (func(series.Element) bool, error) {
	want, err := toFloat(p.Value)
	if err != nil {
		return nil, fmt.Errorf("predicate %s: %w", p, err)
	}
	cmp, err := opFunc(p.Op)
	if err != nil {
		return nil, err
	}
	return func(e series.Element) bool {
		v, ok := frame.Float(e)
		if !ok {
			return false
		}
		switch {
		case v < want:
			return cmp(-1)
		case v > want:
			return cmp(1)
		}
		return cmp(0)
	}, nil
}

func opFunc(op string) (func(c int) bool, error) {
	switch op {
	case ">":
		return func(c int) bool { return c > 0 }, nil
	case ">=":
		return func(c int) bool { return c >= 0 }, nil
	case "<":
		return func(c int) bool { return c < 0 }, nil
	case "<=":
		return func(c int) bool { return c <= 0 }, nil
	case "==":
		return func(c int) bool { return c == 0 }, nil
	case "!=":
		return func(c int) bool { return c != 0 }, nil
	}
	return nil, fmt.Errorf("unknown comparison operator %q", op)
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not a number", n)
		}
		return f, nil
	}
	return 0, fmt.Errorf("value %v (%T) is not a number", v, v)
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return false, fmt.Errorf("value %q is not a boolean", b)
		}
		return parsed, nil
	}
	return false, fmt.Errorf("value %v (%T) is not a boolean", v, v)
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}
