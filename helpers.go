package housing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var dateFormats = []string{"2006-01-02", "20060102", "1/2/2006", "01/02/2006", "Jan 2, 2006", "January 2, 2006",
	"Jan 2 2006", "January 2 2006", time.RFC3339}

// strings read from files that mean "no value"
var missingTokens = []string{"", "NA", "NaN", "nan", "NULL", "null"}

// *********** Conversions ***********

// IsMissingToken is true if s denotes a missing value in a source file.
func IsMissingToken(s string) bool {
	return has(strings.TrimSpace(s), missingTokens)
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, format := range dateFormats {
		if dt, e := time.Parse(format, s); e == nil {
			return dt, nil
		}
	}

	return time.Time{}, fmt.Errorf("cannot parse %q as date", s)
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// parseInt accepts integers and floats with no fractional part (e.g. "1975.0").
func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if i, e := strconv.Atoi(s); e == nil {
		return i, nil
	}

	f, e := strconv.ParseFloat(s, 64)
	if e != nil {
		return 0, e
	}

	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%q is not an integer", s)
	}

	return int(f), nil
}

// Cast converts a string column to type dt. Missing tokens become missing elements.
// Any other value that does not parse is an ErrTypeCast.
func Cast(col *Col, dt DataTypes) (*Col, error) {
	if col.DataType() == dt {
		return col.Copy(), nil
	}

	if col.DataType() != DTstring {
		return nil, fmt.Errorf("%w: column %s: cannot cast %s to %s", ErrTypeCast, col.Name(), col.DataType(), dt)
	}

	n := col.Len()
	v := MakeVector(dt, n)
	for ind := 0; ind < n; ind++ {
		s, ok := col.ElementString(ind)
		if !ok || IsMissingToken(s) {
			_ = v.SetMissing(ind)
			continue
		}

		var e error
		switch dt {
		case DTfloat:
			var x float64
			if x, e = parseFloat(s); e == nil {
				e = v.SetFloat(x, ind)
			}
		case DTint:
			var x int
			if x, e = parseInt(s); e == nil {
				e = v.SetInt(x, ind)
			}
		case DTdate:
			var x time.Time
			if x, e = parseDate(s); e == nil {
				e = v.SetDate(x, ind)
			}
		case DTstring:
			e = v.SetString(strings.TrimSpace(s), ind)
		default:
			e = fmt.Errorf("unsupported target type %s", dt)
		}

		if e != nil {
			return nil, fmt.Errorf("%w: column %s row %d: %v", ErrTypeCast, col.Name(), ind, e)
		}
	}

	return NewCol(v, dt, ColName(col.Name()))
}

// *********** Slices ***********

func has[C comparable](needle C, haystack []C) bool {
	return position(needle, haystack) >= 0
}

func position[C comparable](needle C, haystack []C) int {
	for ind, straw := range haystack {
		if needle == straw {
			return ind
		}
	}

	return -1
}

func validName(name string) bool {
	if name == "" {
		return false
	}

	for ind, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && ind > 0:
		default:
			return false
		}
	}

	return true
}
