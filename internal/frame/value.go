package frame

import (
	"math"
	"strconv"
	"strings"

	"github.com/go-gota/gota/series"
)

// NullToken is the record gota reads back as a null element.
const NullToken = "NaN"

// nanText is a null string element. Setting a cell from it stores the
// text "NaN" without the null flag.
var nanText = series.New([]string{NullToken}, series.String, "").Elem(0)

// StringColumn builds a string column. Cells with null[i] set are null;
// null may be nil. A value equal to NullToken stays text.
func StringColumn(name string, values []string, null []bool) series.Series {
	records := make([]string, len(values))
	for i, v := range values {
		if null != nil && null[i] {
			records[i] = NullToken
		} else {
			records[i] = v
		}
	}
	s := series.New(records, series.String, name)
	for i, v := range values {
		if v == NullToken && (null == nil || !null[i]) {
			s.Elem(i).Set(nanText)
		}
	}
	return s
}

// IsNumeric reports whether a column type holds numbers.
func IsNumeric(t series.Type) bool {
	return t == series.Int || t == series.Float
}

// Float returns the numeric value of a cell. ok is false for nulls and
// for cells that do not hold a number.
func Float(e series.Element) (v float64, ok bool) {
	if e.IsNA() {
		return 0, false
	}
	switch e.Type() {
	case series.Int, series.Float:
		v = e.Float()
	default:
		f, err := strconv.ParseFloat(strings.TrimSpace(e.String()), 64)
		if err != nil {
			return 0, false
		}
		v = f
	}
	return v, !math.IsNaN(v)
}

// Text renders a non-null cell the way the sinks write it.
func Text(e series.Element) string {
	if e.Type() == series.Float {
		return FormatFloat(e.Float())
	}
	return e.String()
}

// FormatFloat renders floats in their shortest form, keeping a ".0" on
// integral values so the column reads back as float.
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return s
	}
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// Compare orders two non-null cells: numerically when both are numbers,
// by text otherwise.
func Compare(a, b series.Element) int {
	if IsNumeric(a.Type()) && IsNumeric(b.Type()) {
		x, y := a.Float(), b.Float()
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	return strings.Compare(a.String(), b.String())
}
