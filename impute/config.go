// Package impute configures and runs chained-equations multiple imputation on the wide table.
//
// Configure builds the predictor-inclusion mask and the method of every column. Imputer.Run cycles through
// the incomplete columns, regressing each on its mask predictors, and returns one completed copy of the
// table per draw.
package impute

import (
	"fmt"
	"strings"

	d "github.com/invertedv/housing"
	"github.com/invertedv/housing/features"
	"github.com/invertedv/housing/schema"
)

// imputation methods
const (
	PMM     = "pmm"
	LogReg  = "logreg"
	PolyReg = "polyreg"
)

// ***************** Mask *****************

// Mask says which columns may be used as predictors for which. Row is the column being imputed,
// column is the predictor. A column never predicts itself.
type Mask struct {
	names   []string
	include [][]bool
}

// NewMask returns a mask over names where every column predicts every other.
func NewMask(names []string) *Mask {
	m := &Mask{names: append([]string{}, names...), include: make([][]bool, len(names))}
	for r := range m.include {
		m.include[r] = make([]bool, len(names))
		for c := range m.include[r] {
			m.include[r][c] = r != c
		}
	}

	return m
}

func (m *Mask) Names() []string {
	return m.names
}

// Get reports whether predictor is used to impute target.
func (m *Mask) Get(target, predictor string) bool {
	r, c := position(target, m.names), position(predictor, m.names)
	if r < 0 || c < 0 {
		return false
	}

	return m.include[r][c]
}

func (m *Mask) Set(target, predictor string, include bool) error {
	r, c := position(target, m.names), position(predictor, m.names)
	if r < 0 || c < 0 {
		return fmt.Errorf("mask has no pair %s, %s", target, predictor)
	}

	if r == c && include {
		return fmt.Errorf("column %s cannot predict itself", target)
	}

	m.include[r][c] = include

	return nil
}

// ExcludePredictor stops predictor from being used to impute any column. The column itself is still
// imputed.
func (m *Mask) ExcludePredictor(predictor string) error {
	c := position(predictor, m.names)
	if c < 0 {
		return fmt.Errorf("mask has no column %s", predictor)
	}

	for r := range m.include {
		m.include[r][c] = false
	}

	return nil
}

// Predictors returns the predictors of target in column order.
func (m *Mask) Predictors(target string) []string {
	r := position(target, m.names)
	if r < 0 {
		return nil
	}

	var preds []string
	for c, inc := range m.include[r] {
		if inc {
			preds = append(preds, m.names[c])
		}
	}

	return preds
}

func (m *Mask) String() string {
	var sb strings.Builder
	for _, nm := range m.names {
		sb.WriteString(fmt.Sprintf("%s: %s\n", nm, strings.Join(m.Predictors(nm), ", ")))
	}

	return sb.String()
}

// ***************** Exclusions *****************

// Exclusions are the columns that may never be predictors: those named and those starting with a prefix.
type Exclusions struct {
	Names    []string
	Prefixes []string
}

// DefaultExclusions keeps the sale date, the price, the calendar dummies and every macro column out of the
// predictor role.
func DefaultExclusions(windows []int) Exclusions {
	return Exclusions{
		Names:    append([]string{schema.TimeKey, schema.Target}, features.MacroColumns(windows)...),
		Prefixes: []string{features.MonthPrefix, features.YearPrefix},
	}
}

func (ex Exclusions) Excludes(name string) bool {
	if position(name, ex.Names) >= 0 {
		return true
	}

	for _, p := range ex.Prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}

	return false
}

// ***************** Config *****************

// Config is the predictor mask and the method of every column. A column with no method is not imputed.
type Config struct {
	Mask    *Mask
	Methods map[string]string
}

// Method returns the imputation method of col, "" if it is not imputed.
func (c *Config) Method(col string) string {
	return c.Methods[col]
}

// Targets are the columns with a method, in column order.
func (c *Config) Targets() []string {
	var targets []string
	for _, nm := range c.Mask.Names() {
		if c.Methods[nm] != "" {
			targets = append(targets, nm)
		}
	}

	return targets
}

// Configure builds the imputation configuration of df. Columns in ex, columns that are not numeric and
// columns with no observed values are never predictors. A column with no observed values has no method
// and stays missing. Every other column gets its DefaultMethod. A string or date column with missing
// values is an error: it cannot be imputed.
func Configure(df *d.DF, ex Exclusions) (*Config, error) {
	cfg := &Config{Mask: NewMask(df.ColumnNames()), Methods: make(map[string]string)}
	for c := df.Next(true); c != nil; c = df.Next(false) {
		empty := c.Missing() == c.Len()
		if ex.Excludes(c.Name()) || !c.DataType().IsNumeric() || empty {
			if e := cfg.Mask.ExcludePredictor(c.Name()); e != nil {
				return nil, e
			}
		}

		if empty {
			cfg.Methods[c.Name()] = ""
			continue
		}

		if !c.DataType().IsNumeric() && c.Missing() > 0 {
			return nil, fmt.Errorf("column %s is %s and has %d missing values", c.Name(), c.DataType(), c.Missing())
		}

		cfg.Methods[c.Name()] = DefaultMethod(c)
	}

	return cfg, nil
}

// DefaultMethod is the method for col by type: none if nothing is missing, pmm for float and int,
// logreg for a categorical with at most two levels and polyreg for other categoricals.
func DefaultMethod(col *d.Col) string {
	if col.Missing() == 0 {
		return ""
	}

	switch col.DataType() {
	case d.DTfloat, d.DTint:
		return PMM
	case d.DTcategorical:
		if len(col.CategoryMap()) <= 2 {
			return LogReg
		}

		return PolyReg
	}

	return ""
}

// Check verifies that no column in ex is a predictor for any column.
func (c *Config) Check(ex Exclusions) error {
	for _, pred := range c.Mask.Names() {
		if !ex.Excludes(pred) {
			continue
		}

		for _, target := range c.Mask.Names() {
			if c.Mask.Get(target, pred) {
				return fmt.Errorf("%w: %s predicts %s", d.ErrLeakageGuard, pred, target)
			}
		}
	}

	return nil
}

func position[C comparable](needle C, haystack []C) int {
	for ind, h := range haystack {
		if h == needle {
			return ind
		}
	}

	return -1
}
