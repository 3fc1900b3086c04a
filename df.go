package housing

import (
	"fmt"
	"sort"
	"strings"
)

// DF is an ordered set of equal-length columns.
type DF struct {
	head    *columnList
	current *columnList

	by        []*Col
	ascending bool
}

type columnList struct {
	col *Col

	prior *columnList
	next  *columnList
}

func NewDF(cols ...*Col) (*DF, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("no columns in NewDF")
	}

	df := &DF{}
	for _, col := range cols {
		if df.head == nil {
			if col.Name() == "" {
				return nil, fmt.Errorf("column with no name in NewDF")
			}

			df.head = &columnList{col: col}
			continue
		}

		if e := df.AppendColumn(col, false); e != nil {
			return nil, e
		}
	}

	return df, nil
}

// ***************** DF - Methods *****************

// Next iterates over the columns. Next(true) returns the first column, Next(false) the following ones
// until nil.
func (df *DF) Next(reset bool) *Col {
	if reset || df.current == nil {
		df.current = df.head
		if df.current == nil {
			return nil
		}

		return df.current.col
	}

	if df.current.next == nil {
		df.current = nil
		return nil
	}

	df.current = df.current.next
	return df.current.col
}

func (df *DF) RowCount() int {
	if df.head == nil {
		return 0
	}

	return df.head.col.Len()
}

func (df *DF) ColumnCount() int {
	cols := 0
	for c := df.head; c != nil; c = c.next {
		cols++
	}

	return cols
}

func (df *DF) ColumnNames() []string {
	var names []string

	for h := df.head; h != nil; h = h.next {
		names = append(names, h.col.Name())
	}

	return names
}

// Column returns the column colName, or nil if there is no such column.
func (df *DF) Column(colName string) *Col {
	if n := df.node(colName); n != nil {
		return n.col
	}

	return nil
}

func (df *DF) HasColumns(colNames ...string) bool {
	for _, cn := range colNames {
		if df.node(cn) == nil {
			return false
		}
	}

	return true
}

// AppendColumn adds col to the end of df. If replace is true, an existing column of the same name
// is replaced in place.
func (df *DF) AppendColumn(col *Col, replace bool) error {
	if col.Name() == "" {
		return fmt.Errorf("column with no name in AppendColumn")
	}

	if n := df.node(col.Name()); n != nil {
		if !replace {
			return fmt.Errorf("duplicate column name: %s", col.Name())
		}

		if col.Len() != df.RowCount() {
			return fmt.Errorf("length mismatch: df - %d, replacement col - %d", df.RowCount(), col.Len())
		}

		n.col = col
		return nil
	}

	if df.head == nil {
		df.head = &columnList{col: col}
		return nil
	}

	if col.Len() != df.RowCount() {
		return fmt.Errorf("length mismatch: df - %d, append col %s - %d", df.RowCount(), col.Name(), col.Len())
	}

	var tail *columnList
	for tail = df.head; tail.next != nil; tail = tail.next {
	}

	tail.next = &columnList{col: col, prior: tail}

	return nil
}

func (df *DF) node(colName string) *columnList {
	for h := df.head; h != nil; h = h.next {
		if h.col.Name() == colName {
			return h
		}
	}

	return nil
}

func (df *DF) DropColumns(colNames ...string) error {
	for _, cName := range colNames {
		var node *columnList
		if node = df.node(cName); node == nil {
			return fmt.Errorf("column %s not found", cName)
		}

		if node == df.head {
			if df.head.next == nil {
				return fmt.Errorf("no columns left")
			}

			df.head = df.head.next
			df.head.prior = nil
			continue
		}

		node.prior.next = node.next
		if node.next != nil {
			node.next.prior = node.prior
		}
	}

	df.current = nil

	return nil
}

// KeepColumns returns a new DF with copies of colNames, in that order.
func (df *DF) KeepColumns(colNames ...string) (*DF, error) {
	var cols []*Col
	for _, cn := range colNames {
		var col *Col
		if col = df.Column(cn); col == nil {
			return nil, fmt.Errorf("column %s not found", cn)
		}

		cols = append(cols, col.Copy())
	}

	return NewDF(cols...)
}

// Copy returns a deep copy of df.
func (df *DF) Copy() *DF {
	var cols []*Col
	for h := df.head; h != nil; h = h.next {
		cols = append(cols, h.col.Copy())
	}

	// will not fail -- names are unique and lengths agree
	dfOut, _ := NewDF(cols...)

	return dfOut
}

// Subset returns a new DF with the rows of df given by rows. A row of -1 yields missing values.
func (df *DF) Subset(rows []int) (*DF, error) {
	var cols []*Col
	for h := df.head; h != nil; h = h.next {
		for _, r := range rows {
			if r >= h.col.Len() {
				return nil, fmt.Errorf("row %d out of range in Subset", r)
			}
		}

		cc := h.col.ColCore.Copy()
		cols = append(cols, &Col{Vector: h.col.Vector.Subset(rows), ColCore: cc})
	}

	return NewDF(cols...)
}

// AppendRows returns a new DF with the rows of df2 after the rows of df. Both must have the same columns
// with the same types.
func (df *DF) AppendRows(df2 *DF) (*DF, error) {
	if df.ColumnCount() != df2.ColumnCount() {
		return nil, fmt.Errorf("AppendRows: column counts differ: %d and %d", df.ColumnCount(), df2.ColumnCount())
	}

	var cols []*Col
	for h := df.head; h != nil; h = h.next {
		var c2 *Col
		if c2 = df2.Column(h.col.Name()); c2 == nil {
			return nil, fmt.Errorf("AppendRows: column %s not in both", h.col.Name())
		}

		if h.col.DataType() != c2.DataType() {
			return nil, fmt.Errorf("append columns must have same type, got %s and %s for %s",
				h.col.DataType(), c2.DataType(), h.col.Name())
		}

		if h.col.DataType() == DTcategorical && !sameLevels(h.col.CategoryMap(), c2.CategoryMap()) {
			return nil, fmt.Errorf("AppendRows: categorical column %s has different levels", h.col.Name())
		}

		col := h.col.Copy()
		if e := col.AppendVector(c2.Vector); e != nil {
			return nil, e
		}

		cols = append(cols, col)
	}

	return NewDF(cols...)
}

func sameLevels(cm1, cm2 CategoryMap) bool {
	if len(cm1) != len(cm2) {
		return false
	}

	for k, v := range cm1 {
		if v2, ok := cm2[k]; !ok || v2 != v {
			return false
		}
	}

	return true
}

// Equal is true if df and df2 have the same columns, in the same order, with equal data.
func (df *DF) Equal(df2 *DF) bool {
	h1, h2 := df.head, df2.head
	for ; h1 != nil && h2 != nil; h1, h2 = h1.next, h2.next {
		if h1.col.Name() != h2.col.Name() || h1.col.DataType() != h2.col.DataType() || !h1.col.Vector.Equal(h2.col.Vector) {
			return false
		}
	}

	return h1 == nil && h2 == nil
}

// ***************** Sorting *****************

// Sort sorts df in place by the columns named in keys.
func (df *DF) Sort(ascending bool, keys ...string) error {
	var by []*Col
	for _, k := range keys {
		var col *Col
		if col = df.Column(k); col == nil {
			return fmt.Errorf("column %s not found", k)
		}

		by = append(by, col)
	}

	df.by, df.ascending = by, ascending
	sort.Stable(df)
	df.by = nil

	return nil
}

// Len is required for sort
func (df *DF) Len() int {
	return df.RowCount()
}

func (df *DF) Less(i, j int) bool {
	for _, col := range df.by {
		if col.Less(i, j) {
			return df.ascending
		}

		if col.Less(j, i) {
			return !df.ascending
		}

		// equal -- keep checking
	}

	return false
}

func (df *DF) Swap(i, j int) {
	for h := df.head; h != nil; h = h.next {
		v := h.col.Vector
		switch x := v.data.(type) {
		case []float64:
			x[i], x[j] = x[j], x[i]
		case []int:
			x[i], x[j] = x[j], x[i]
		case []string:
			x[i], x[j] = x[j], x[i]
		default:
			tmp := v.Subset([]int{i, j})
			_ = v.Set(i, tmp, 1)
			_ = v.Set(j, tmp, 0)
			continue
		}

		if v.missing != nil {
			v.missing[i], v.missing[j] = v.missing[j], v.missing[i]
		}
	}
}

func (df *DF) String() string {
	var s []string
	for h := df.head; h != nil; h = h.next {
		s = append(s, h.col.String())
	}

	return fmt.Sprintf("rows: %d\n\n", df.RowCount()) + strings.Join(s, "\n")
}
