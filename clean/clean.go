// Package clean nulls implausible values in the wide table with an ordered set of domain rules.
//
// Rules never drop rows. A comparison that involves a missing value is Unknown and does not null
// anything, so a value nulled by an earlier rule switches off later rules that read it. Rule order
// therefore matters and is fixed by Rules.
package clean

import (
	"fmt"

	d "github.com/invertedv/housing"
	"github.com/invertedv/housing/schema"
)

// plausible construction years
const (
	MinBuildYear = 1860
	MaxBuildYear = 2018
)

// state code 33 is a data-entry error for 3
const (
	badState  = 33
	goodState = 3
)

// Rule modifies df in place and returns the number of values it changed.
type Rule struct {
	Name  string
	Apply func(df *d.DF) (int, error)
}

// Count is the number of values a rule changed.
type Count struct {
	Rule    string
	Changed int
}

// Rules returns the cleaning rules in the order they must run.
func Rules(minYear, maxYear int) []Rule {
	return []Rule{
		{"zero full_sq", nullIf(schema.FullSq, schema.FullSq, "==", 0.0)},
		{"life_sq above full_sq", nullIf(schema.LifeSq, schema.LifeSq, ">", col(schema.FullSq))},
		{"kitch_sq above full_sq", nullIf(schema.KitchSq, schema.KitchSq, ">", col(schema.FullSq))},
		{"max_floor below floor", nullIf(schema.MaxFloor, schema.MaxFloor, "<", col(schema.Floor))},
		{"build_year out of range", nullOutside(schema.BuildYear, minYear, maxYear)},
		{"state 33", recode(schema.State, badState, goodState)},
	}
}

// Default are the Rules with the standard build-year range.
func Default() []Rule {
	return Rules(MinBuildYear, MaxBuildYear)
}

// Clean returns a cleaned copy of df; df is not changed. If no rules are given, Default is used.
func Clean(df *d.DF, rules ...Rule) (*d.DF, []Count, error) {
	if rules == nil {
		rules = Default()
	}

	outDF := df.Copy()
	var counts []Count
	for _, r := range rules {
		var (
			n int
			e error
		)
		if n, e = r.Apply(outDF); e != nil {
			return nil, nil, fmt.Errorf("rule %s: %w", r.Name, e)
		}

		counts = append(counts, Count{Rule: r.Name, Changed: n})
	}

	return outDF, counts, nil
}

// ***************** Rule builders *****************

// col marks a comparison operand as a column of the table rather than a constant.
type col string

func operand(df *d.DF, y any) (any, error) {
	cn, ok := y.(col)
	if !ok {
		return y, nil
	}

	var c *d.Col
	if c = df.Column(string(cn)); c == nil {
		return nil, fmt.Errorf("%w: column %s is absent", d.ErrSchema, cn)
	}

	return c.Vector, nil
}

// nullIf nulls target wherever "test op y" is True.
func nullIf(target, test, op string, y any) func(df *d.DF) (int, error) {
	return func(df *d.DF) (int, error) {
		var tc, xc *d.Col
		if tc, xc = df.Column(target), df.Column(test); tc == nil || xc == nil {
			return 0, fmt.Errorf("%w: rule needs columns %s and %s", d.ErrSchema, target, test)
		}

		var (
			yv   any
			rows []int
			e    error
		)
		if yv, e = operand(df, y); e != nil {
			return 0, e
		}

		if rows, e = d.Where(xc.Vector, op, yv); e != nil {
			return 0, e
		}

		for _, row := range rows {
			if e := tc.SetMissing(row); e != nil {
				return 0, e
			}
		}

		return len(rows), nil
	}
}

// nullOutside nulls target where it is below lower or above upper.
func nullOutside(target string, lower, upper int) func(df *d.DF) (int, error) {
	return func(df *d.DF) (int, error) {
		var tc *d.Col
		if tc = df.Column(target); tc == nil {
			return 0, fmt.Errorf("%w: column %s is absent", d.ErrSchema, target)
		}

		n := 0
		for row := 0; row < tc.Len(); row++ {
			lo, e1 := d.Compare(tc.Vector, row, "<", lower)
			hi, e2 := d.Compare(tc.Vector, row, ">", upper)
			if e1 != nil || e2 != nil {
				return 0, fmt.Errorf("comparing %s: %v %v", target, e1, e2)
			}

			if lo.Or(hi) == d.True {
				if e := tc.SetMissing(row); e != nil {
					return 0, e
				}

				n++
			}
		}

		return n, nil
	}
}

// recode replaces from with to in the int column target.
func recode(target string, from, to int) func(df *d.DF) (int, error) {
	return func(df *d.DF) (int, error) {
		var tc *d.Col
		if tc = df.Column(target); tc == nil {
			return 0, fmt.Errorf("%w: column %s is absent", d.ErrSchema, target)
		}

		if tc.DataType() != d.DTint {
			return 0, fmt.Errorf("column %s is %s, recode needs DTint", target, tc.DataType())
		}

		var (
			rows []int
			e    error
		)
		if rows, e = d.Where(tc.Vector, "==", from); e != nil {
			return 0, e
		}

		for _, row := range rows {
			if e := tc.SetInt(to, row); e != nil {
				return 0, e
			}
		}

		return len(rows), nil
	}
}
