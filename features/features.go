// Package features derives calendar dummies and rolling exchange-rate averages and joins the
// transaction and macro tables.
package features

import (
	"fmt"
	"strings"
	"time"

	d "github.com/invertedv/housing"
	"github.com/invertedv/housing/schema"
)

// DefaultWindows are the trailing windows, in days, of the exchange-rate rolling means.
var DefaultWindows = []int{3, 7, 30, 90, 365}

// prefixes of the calendar dummy columns
const (
	MonthPrefix = "month_"
	YearPrefix  = "year_"
)

// RollingName is the name of the rolling mean of col over window.
func RollingName(col string, window int) string {
	return fmt.Sprintf("%s_rm%d", col, window)
}

// MacroColumns are the columns the macro table contributes to the joined table.
func MacroColumns(windows []int) []string {
	cols := []string{schema.USDRUB, schema.Unemployment}
	for _, w := range windows {
		cols = append(cols, RollingName(schema.USDRUB, w))
	}

	return cols
}

// Derive builds the wide table: calendar dummies on the transactions, rolling means on the macro table and
// the left join of the two on the date.
func Derive(tx, macro *d.DF, windows []int) (*d.DF, error) {
	var (
		txCal, mac *d.DF
		e          error
	)
	if txCal, e = Calendar(tx, schema.TimeKey); e != nil {
		return nil, e
	}

	if mac, e = Rolling(macro, schema.TimeKey, schema.USDRUB, windows); e != nil {
		return nil, e
	}

	return LeftJoin(txCal, mac, schema.TimeKey)
}

// ***************** Calendar *****************

// Calendar returns a copy of df with month and year dummies of dateCol appended. Levels are sorted, so the
// lowest month and the earliest year present are the omitted reference levels.
func Calendar(df *d.DF, dateCol string) (*d.DF, error) {
	var dc *d.Col
	if dc = df.Column(dateCol); dc == nil {
		return nil, fmt.Errorf("%w: column %s is absent", d.ErrSchema, dateCol)
	}

	if dc.DataType() != d.DTdate {
		return nil, fmt.Errorf("column %s is %s, not a date", dateCol, dc.DataType())
	}

	months := d.MakeVector(d.DTint, dc.Len())
	years := d.MakeVector(d.DTint, dc.Len())
	for ind := 0; ind < dc.Len(); ind++ {
		var (
			dt time.Time
			ok bool
		)
		if dt, ok = dc.ElementDate(ind); !ok {
			_ = months.SetMissing(ind)
			_ = years.SetMissing(ind)
			continue
		}

		_ = months.SetInt(int(dt.Month()), ind)
		_ = years.SetInt(dt.Year(), ind)
	}

	outDF := df.Copy()
	for _, src := range []struct {
		v      *d.Vector
		prefix string
	}{{months, MonthPrefix}, {years, YearPrefix}} {
		col, _ := d.NewCol(src.v, d.DTint, d.ColName(strings.TrimSuffix(src.prefix, "_")))

		var (
			dummies []*d.Col
			e       error
		)
		if dummies, e = Dummies(col, src.prefix, true); e != nil {
			return nil, e
		}

		for _, dm := range dummies {
			if e := outDF.AppendColumn(dm, false); e != nil {
				return nil, e
			}
		}
	}

	return outDF, nil
}

// Dummies one-hot encodes an int or string column. Columns are named prefix+level in level order;
// with dropFirst the first level is omitted. A missing input is missing in every dummy.
func Dummies(col *d.Col, prefix string, dropFirst bool) ([]*d.Col, error) {
	var (
		cat *d.Col
		e   error
	)
	if cat, e = d.Categorical(col, nil); e != nil {
		return nil, e
	}

	lvls := cat.CategoryMap().Levels()
	start := 0
	if dropFirst {
		start = 1
	}

	var dummies []*d.Col
	for code := start; code < len(lvls); code++ {
		v := d.MakeVector(d.DTint, cat.Len())
		for ind := 0; ind < cat.Len(); ind++ {
			c, ok := cat.ElementInt(ind)
			if !ok {
				_ = v.SetMissing(ind)
				continue
			}

			if c == code {
				_ = v.SetInt(1, ind)
			}
		}

		var dm *d.Col
		if dm, e = d.NewCol(v, d.DTint, d.ColName(fmt.Sprintf("%s%v", prefix, lvls[code]))); e != nil {
			return nil, e
		}

		dummies = append(dummies, dm)
	}

	return dummies, nil
}

// ***************** Rolling means *****************

// RollingMean returns the trailing mean of v over window elements. The result has the same length as v;
// its first window-1 elements are missing, as is any element whose window holds a missing value.
func RollingMean(v *d.Vector, window int) (*d.Vector, error) {
	if window < 1 {
		return nil, fmt.Errorf("window must be positive, got %d", window)
	}

	if !v.VectorType().IsNumeric() {
		return nil, fmt.Errorf("cannot take rolling mean of %s", v.VectorType())
	}

	n := v.Len()
	out := d.MakeVector(d.DTfloat, n)
	sum, nMiss := 0.0, 0
	for ind := 0; ind < n; ind++ {
		if x, ok := v.ElementFloat(ind); ok {
			sum += x
		} else {
			nMiss++
		}

		if ind >= window {
			if x, ok := v.ElementFloat(ind - window); ok {
				sum -= x
			} else {
				nMiss--
			}
		}

		if ind < window-1 || nMiss > 0 {
			_ = out.SetMissing(ind)
			continue
		}

		_ = out.SetFloat(sum/float64(window), ind)
	}

	return out, nil
}

// Rolling returns a copy of df sorted by dateCol with rolling means of col appended for each window.
func Rolling(df *d.DF, dateCol, col string, windows []int) (*d.DF, error) {
	if !df.HasColumns(dateCol, col) {
		return nil, fmt.Errorf("%w: Rolling needs columns %s and %s", d.ErrSchema, dateCol, col)
	}

	outDF := df.Copy()
	if e := outDF.Sort(true, dateCol); e != nil {
		return nil, e
	}

	for _, w := range windows {
		var (
			rm *d.Vector
			e  error
		)
		if rm, e = RollingMean(outDF.Column(col).Vector, w); e != nil {
			return nil, e
		}

		rc, _ := d.NewCol(rm, d.DTfloat, d.ColName(RollingName(col, w)))
		if e := outDF.AppendColumn(rc, false); e != nil {
			return nil, e
		}
	}

	return outDF, nil
}

// ***************** Join *****************

// LeftJoin attaches the columns of right to every row of left whose key matches. Rows without a match
// get missing values. The first right row wins if a key repeats. The result has left's row count.
func LeftJoin(left, right *d.DF, key string) (*d.DF, error) {
	var lk, rk *d.Col
	if lk, rk = left.Column(key), right.Column(key); lk == nil || rk == nil {
		return nil, fmt.Errorf("%w: join key %s absent", d.ErrSchema, key)
	}

	if lk.DataType() != rk.DataType() {
		return nil, fmt.Errorf("join key %s types differ: %s and %s", key, lk.DataType(), rk.DataType())
	}

	index := make(map[any]int)
	for ind := 0; ind < rk.Len(); ind++ {
		k := joinKey(rk.Element(ind))
		if _, dup := index[k]; k == nil || dup {
			continue
		}

		index[k] = ind
	}

	rows := make([]int, lk.Len())
	for ind := range rows {
		rows[ind] = -1
		if k := joinKey(lk.Element(ind)); k != nil {
			if r, ok := index[k]; ok {
				rows[ind] = r
			}
		}
	}

	outDF := left.Copy()
	for _, cn := range right.ColumnNames() {
		if cn == key {
			continue
		}

		if outDF.Column(cn) != nil {
			return nil, fmt.Errorf("column %s is in both tables", cn)
		}

		var (
			sub *d.DF
			e   error
		)
		if sub, e = right.KeepColumns(cn); e != nil {
			return nil, e
		}

		if sub, e = sub.Subset(rows); e != nil {
			return nil, e
		}

		if e := outDF.AppendColumn(sub.Column(cn), false); e != nil {
			return nil, e
		}
	}

	return outDF, nil
}

// dates compare on the calendar day
func joinKey(x any) any {
	if t, ok := x.(time.Time); ok {
		return t.Format("20060102")
	}

	return x
}

// ***************** Helpers *****************

// Prefixed returns the names in df that start with any of prefixes, in column order.
func Prefixed(df *d.DF, prefixes ...string) []string {
	var names []string
	for _, cn := range df.ColumnNames() {
		for _, p := range prefixes {
			if strings.HasPrefix(cn, p) {
				names = append(names, cn)
				break
			}
		}
	}

	return names
}
