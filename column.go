package housing

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// CC interface defines the methods of ColCore
type CC interface {
	Core() *ColCore
	Name() string
}

// *********** ColCore ***********

// ColCore implements the nucleus of a column: its name, type and, for categorical columns, its levels.
type ColCore struct {
	name string
	dt   DataTypes

	catMap  CategoryMap
	rawType DataTypes
}

func NewColCore(dt DataTypes, ops ...ColOpt) (*ColCore, error) {
	c := &ColCore{dt: dt}

	for _, op := range ops {
		if e := op(c); e != nil {
			return nil, e
		}
	}

	return c, nil
}

// *********** Setters ***********

type ColOpt func(c CC) error

func ColCatMap(cm CategoryMap) ColOpt {
	return func(c CC) error {
		if c == nil {
			return fmt.Errorf("nil column to ColCatMap")
		}

		c.Core().catMap = cm

		return nil
	}
}

func ColName(name string) ColOpt {
	return func(c CC) error {
		if c == nil {
			return fmt.Errorf("nil column to ColName")
		}

		if !validName(name) {
			return fmt.Errorf("invalid column name: %s", name)
		}

		c.Core().name = name

		return nil
	}
}

func ColRawType(rt DataTypes) ColOpt {
	return func(c CC) error {
		if c == nil {
			return fmt.Errorf("nil column to ColRawType")
		}

		c.Core().rawType = rt
		return nil
	}
}

// *********** Methods ***********

func (c *ColCore) CategoryMap() CategoryMap {
	return c.catMap
}

func (c *ColCore) Copy() *ColCore {
	return &ColCore{name: c.name, dt: c.dt, catMap: c.catMap, rawType: c.rawType}
}

// Core returns itself. We need a method to return itself since Col embeds ColCore.
func (c *ColCore) Core() *ColCore {
	return c
}

func (c *ColCore) DataType() DataTypes {
	return c.dt
}

func (c *ColCore) Name() string {
	return c.name
}

func (c *ColCore) RawType() DataTypes {
	return c.rawType
}

// *********** Col ***********

// Col is a named Vector.
type Col struct {
	*Vector

	*ColCore
}

func NewCol(data any, dt DataTypes, opts ...ColOpt) (*Col, error) {
	var (
		v *Vector
		e error
	)

	if vx, ok := data.(*Vector); ok {
		v, dt = vx, vx.VectorType()
	} else if v, e = NewVector(data, dt); e != nil {
		return nil, e
	}

	cc, _ := NewColCore(dt)
	col := &Col{Vector: v, ColCore: cc}

	for _, opt := range opts {
		if e := opt(col); e != nil {
			return nil, e
		}
	}

	return col, nil
}

func (c *Col) Core() *ColCore {
	return c.ColCore
}

func (c *Col) Name() string {
	return c.ColCore.Name()
}

func (c *Col) Copy() *Col {
	return &Col{Vector: c.Vector.Copy(), ColCore: c.ColCore.Copy()}
}

// Level returns the raw value of element indx of a categorical column.
func (c *Col) Level(indx int) (any, bool) {
	code, ok := c.ElementInt(indx)
	if !ok || c.DataType() != DTcategorical {
		return nil, false
	}

	lvls := c.CategoryMap().Levels()
	if code < 0 || code >= len(lvls) {
		return nil, false
	}

	return lvls[code], true
}

func (c *Col) String() string {
	t := fmt.Sprintf("column: %s\ntype: %s\nmissing: %d\n", c.Name(), c.DataType(), c.Missing())

	switch c.DataType() {
	case DTfloat, DTint:
		var x []float64
		for ind := 0; ind < c.Len(); ind++ {
			if xv, ok := c.ElementFloat(ind); ok {
				x = append(x, xv)
			}
		}

		if len(x) == 0 {
			return t
		}

		sort.Float64s(x)
		cats := []string{"min", "lq", "median", "mean", "uq", "max", "n"}
		vals := []float64{x[0], stat.Quantile(0.25, stat.Empirical, x, nil), stat.Quantile(0.5, stat.Empirical, x, nil),
			stat.Mean(x, nil), stat.Quantile(0.75, stat.Empirical, x, nil), x[len(x)-1], float64(len(x))}

		return t + prettyPrint([]string{"metric", "value"}, cats, vals)
	case DTcategorical, DTstring:
		counts := make(map[string]int)
		for ind := 0; ind < c.Len(); ind++ {
			var lvl any
			if c.DataType() == DTcategorical {
				lvl, _ = c.Level(ind)
			} else {
				lvl = c.Element(ind)
			}

			if lvl != nil {
				counts[fmt.Sprintf("%v", lvl)]++
			}
		}

		var keys []string
		for k := range counts {
			keys = append(keys, k)
		}

		sort.Strings(keys)
		var vals []int
		for _, k := range keys {
			vals = append(vals, counts[k])
		}

		return t + prettyPrint([]string{"level", "count"}, keys, vals)
	default:
		return t
	}
}

// *********** Category Map ***********

// CategoryMap maps the raw value of a categorical column to its code. Codes run 0..n-1.
type CategoryMap map[any]int

// Levels returns the raw values ordered by code.
func (cm CategoryMap) Levels() []any {
	lvls := make([]any, len(cm))
	for k, v := range cm {
		lvls[v] = k
	}

	return lvls
}

// Categorical converts an int or string column to a categorical column. If cm is nil,
// the levels are the sorted distinct observed values; otherwise cm is reused and values
// not in cm become missing.
func Categorical(col *Col, cm CategoryMap) (*Col, error) {
	if col.DataType() == DTcategorical {
		if cm == nil {
			return col.Copy(), nil
		}

		return recode(col, cm)
	}

	if col.DataType() != DTint && col.DataType() != DTstring {
		return nil, fmt.Errorf("cannot make %s into categorical", col.DataType())
	}

	if cm == nil {
		cm = makeCategoryMap(col)
	}

	v := MakeVector(DTcategorical, col.Len())
	for ind := 0; ind < col.Len(); ind++ {
		code, ok := cm[col.Element(ind)]
		if !ok {
			_ = v.SetMissing(ind)
			continue
		}

		_ = v.SetInt(code, ind)
	}

	return NewCol(v, DTcategorical, ColName(col.Name()), ColCatMap(cm), ColRawType(col.DataType()))
}

func recode(col *Col, cm CategoryMap) (*Col, error) {
	if col.RawType() == DTunknown {
		return nil, fmt.Errorf("categorical column %s has no raw type", col.Name())
	}

	v := MakeVector(DTcategorical, col.Len())
	for ind := 0; ind < col.Len(); ind++ {
		lvl, ok := col.Level(ind)
		var code int
		if ok {
			code, ok = cm[lvl]
		}

		if !ok {
			_ = v.SetMissing(ind)
			continue
		}

		_ = v.SetInt(code, ind)
	}

	return NewCol(v, DTcategorical, ColName(col.Name()), ColCatMap(cm), ColRawType(col.RawType()))
}

func makeCategoryMap(col *Col) CategoryMap {
	var lvls []any
	seen := make(map[any]bool)
	for ind := 0; ind < col.Len(); ind++ {
		x := col.Element(ind)
		if x == nil || seen[x] {
			continue
		}

		seen[x] = true
		lvls = append(lvls, x)
	}

	sort.Slice(lvls, func(i, j int) bool {
		switch a := lvls[i].(type) {
		case int:
			return a < lvls[j].(int)
		case string:
			return a < lvls[j].(string)
		}

		return false
	})

	cm := make(CategoryMap)
	for code, lvl := range lvls {
		cm[lvl] = code
	}

	return cm
}

// *********** Printing ***********

func prettyPrint(header []string, cols ...any) string {
	var colsS [][]string

	for ind := 0; ind < len(cols); ind++ {
		colsS = append(colsS, stringSlice(header[ind], cols[ind]))
	}

	out := ""
	for row := 0; row < len(colsS[0]); row++ {
		for c := 0; c < len(colsS); c++ {
			out += colsS[c][row]
		}
		out += "\n"
	}

	return out
}

func stringSlice(header string, inVal any) []string {
	const pad = 3
	c := []string{header}

	numeric := true
	switch x := inVal.(type) {
	case []float64:
		for _, xv := range x {
			c = append(c, fmt.Sprintf("%.2f", xv))
		}
	case []int:
		for _, xv := range x {
			c = append(c, fmt.Sprintf("%d", xv))
		}
	case []string:
		numeric = false
		c = append(c, x...)
	default:
		panic(fmt.Errorf("unsupported data type"))
	}

	maxLen := 0
	for _, cx := range c {
		if l := len(cx); l > maxLen {
			maxLen = l
		}
	}

	for ind, cx := range c {
		padded := cx + strings.Repeat(" ", maxLen-len(cx)+pad)
		if numeric {
			padded = strings.Repeat(" ", maxLen-len(cx)+pad) + cx
		}
		c[ind] = padded
	}

	return c
}
